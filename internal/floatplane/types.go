package floatplane

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// ChannelRef is a post's channel. The API returns either the bare channel id
// or the full channel object depending on the endpoint.
type ChannelRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// UnmarshalJSON accepts both a string id and an object.
func (c *ChannelRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ChannelRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode channel id: %w", err)
		}
		*c = ChannelRef{ID: id}
		return nil
	}
	type plain ChannelRef
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decode channel: %w", err)
	}
	*c = ChannelRef(out)
	return nil
}

// Creator identifies the post owner.
type Creator struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	URLName   string `json:"urlname,omitempty"`
	OwnerID   string `json:"-"`
	Category  string `json:"-"`
	AboutText string `json:"about,omitempty"`
}

// Image is a thumbnail or artwork reference.
type Image struct {
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Post is a blog post as listed for a creator. Attachment lists hold ids.
type Post struct {
	ID                 string     `json:"id"`
	GUID               string     `json:"guid,omitempty"`
	Title              string     `json:"title"`
	Text               string     `json:"text"`
	Type               string     `json:"type,omitempty"`
	Channel            ChannelRef `json:"channel"`
	Tags               []string   `json:"tags,omitempty"`
	AttachmentOrder    []string   `json:"attachmentOrder,omitempty"`
	ReleaseDate        time.Time  `json:"releaseDate"`
	Creator            Creator    `json:"creator"`
	Thumbnail          *Image     `json:"thumbnail,omitempty"`
	VideoAttachments   []string   `json:"videoAttachments,omitempty"`
	AudioAttachments   []string   `json:"audioAttachments,omitempty"`
	PictureAttachments []string   `json:"pictureAttachments,omitempty"`
}

// ArtworkURL returns the thumbnail path or an empty string.
func (p Post) ArtworkURL() string {
	if p.Thumbnail == nil {
		return ""
	}
	return p.Thumbnail.Path
}

// OrderedVideoAttachments returns the video attachment ids sorted by their
// position in AttachmentOrder. Ids missing from AttachmentOrder sort first and
// keep their relative order.
func (p Post) OrderedVideoAttachments() []string {
	position := make(map[string]int, len(p.AttachmentOrder))
	for i, id := range p.AttachmentOrder {
		if _, seen := position[id]; !seen {
			position[id] = i
		}
	}
	index := func(id string) int {
		if i, ok := position[id]; ok {
			return i
		}
		return -1
	}

	out := slices.Clone(p.VideoAttachments)
	slices.SortStableFunc(out, func(a, b string) int {
		return cmp.Compare(index(a), index(b))
	})
	return out
}

// Attachment is the detail record of one video attachment.
type Attachment struct {
	ID          string    `json:"id"`
	GUID        string    `json:"guid,omitempty"`
	Title       string    `json:"title"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	ReleaseDate time.Time `json:"releaseDate,omitzero"`
	Duration    float64   `json:"duration,omitempty"`
}

// ContentAttachment is an attachment embedded in a content post.
type ContentAttachment struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// ContentCreator is the creator shape embedded in a content post.
type ContentCreator struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	URLName  string `json:"urlname,omitempty"`
	Owner    string `json:"owner,omitempty"`
	Category string `json:"category,omitempty"`
}

// ContentPost is the single-post payload. Unlike Post it embeds attachment
// objects and a flattened creator.
type ContentPost struct {
	ID                 string              `json:"id"`
	GUID               string              `json:"guid,omitempty"`
	Title              string              `json:"title"`
	Text               string              `json:"text"`
	Type               string              `json:"type,omitempty"`
	Channel            ChannelRef          `json:"channel"`
	Tags               []string            `json:"tags,omitempty"`
	AttachmentOrder    []string            `json:"attachmentOrder,omitempty"`
	ReleaseDate        time.Time           `json:"releaseDate"`
	Creator            ContentCreator      `json:"creator"`
	Thumbnail          *Image              `json:"thumbnail,omitempty"`
	VideoAttachments   []ContentAttachment `json:"videoAttachments,omitempty"`
	AudioAttachments   []ContentAttachment `json:"audioAttachments,omitempty"`
	PictureAttachments []ContentAttachment `json:"pictureAttachments,omitempty"`
}

// BlogPost converts the content post into the listing shape so it can be
// classified like any discovered post.
func (c ContentPost) BlogPost() Post {
	return Post{
		ID:              c.ID,
		GUID:            c.GUID,
		Title:           c.Title,
		Text:            c.Text,
		Type:            c.Type,
		Channel:         c.Channel,
		Tags:            append([]string(nil), c.Tags...),
		AttachmentOrder: append([]string(nil), c.AttachmentOrder...),
		ReleaseDate:     c.ReleaseDate,
		Creator: Creator{
			ID:       c.Creator.ID,
			Title:    c.Creator.Title,
			URLName:  c.Creator.URLName,
			OwnerID:  c.Creator.Owner,
			Category: c.Creator.Category,
		},
		Thumbnail:          c.Thumbnail,
		VideoAttachments:   attachmentIDs(c.VideoAttachments),
		AudioAttachments:   attachmentIDs(c.AudioAttachments),
		PictureAttachments: attachmentIDs(c.PictureAttachments),
	}
}

func attachmentIDs(in []ContentAttachment) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, att := range in {
		out = append(out, att.ID)
	}
	return out
}

// BlogPostParams are the listing query parameters. The struct is also the
// post cache's parameter key, so field order is part of the cache key.
type BlogPostParams struct {
	HasVideo   bool `json:"hasVideo"`
	Limit      int  `json:"limit"`
	FetchAfter int  `json:"fetchAfter"`
}
