package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"floatsync/internal/config"
	"floatsync/internal/floatplane"
	"floatsync/internal/logging"
	"floatsync/internal/predicate"
	"floatsync/internal/retention"
	"floatsync/internal/services"
	"floatsync/internal/titles"
)

// AttachmentFetcher returns attachment details, normally through the
// attachment cache.
type AttachmentFetcher interface {
	Attachment(ctx context.Context, attachmentID string) (floatplane.Attachment, error)
}

// Deps are the collaborators a Subscription needs.
type Deps struct {
	Pages       floatplane.PageFetcher
	Attachments AttachmentFetcher
	Engine      *predicate.Engine
	Retention   *retention.Evaluator
	Logger      *slog.Logger
}

// Options tune discovery.
type Options struct {
	// VideosToSearch caps the number of posts examined by Discover.
	VideosToSearch int
	// StripSubchannelPrefix removes known boilerplate from yielded titles.
	StripSubchannelPrefix bool
}

// Item describes one attachment routed to a channel.
type Item struct {
	AttachmentID string    `json:"attachment_id"`
	PostID       string    `json:"post_id"`
	CreatorID    string    `json:"creator_id"`
	Plan         string    `json:"plan,omitempty"`
	ChannelTitle string    `json:"channel_title"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ArtworkURL   string    `json:"artwork_url,omitempty"`
	ReleaseDate  time.Time `json:"release_date"`
}

// Subscription discovers items for one creator.
type Subscription struct {
	creatorID string
	plan      string
	channels  []config.Channel

	pages       floatplane.PageFetcher
	attachments AttachmentFetcher
	engine      *predicate.Engine
	retention   *retention.Evaluator
	opts        Options
	logger      *slog.Logger
}

// New binds sub to its collaborators. Pages and Engine are required.
// Attachments defaults to Pages when it can fetch attachments.
func New(sub config.Subscription, deps Deps, opts Options) (*Subscription, error) {
	creatorID := strings.TrimSpace(sub.CreatorID)
	if creatorID == "" {
		return nil, services.Wrap(services.ErrValidation, "subscription", "new", "creator id required", nil)
	}
	if deps.Pages == nil {
		return nil, errors.New("subscription: page fetcher required")
	}
	if deps.Engine == nil {
		return nil, errors.New("subscription: predicate engine required")
	}
	if deps.Attachments == nil {
		fetcher, ok := deps.Pages.(AttachmentFetcher)
		if !ok {
			return nil, errors.New("subscription: attachment fetcher required")
		}
		deps.Attachments = fetcher
	}
	if deps.Retention == nil {
		deps.Retention = retention.NewEvaluator(nil)
	}
	if opts.VideosToSearch < 0 {
		opts.VideosToSearch = 0
	}
	logger := logging.NewComponentLogger(deps.Logger, "subscription").With(
		logging.String(logging.FieldCreatorID, creatorID),
		logging.String("plan", sub.Plan),
	)
	return &Subscription{
		creatorID:   creatorID,
		plan:        sub.Plan,
		channels:    append([]config.Channel(nil), sub.Channels...),
		pages:       deps.Pages,
		attachments: deps.Attachments,
		engine:      deps.Engine,
		retention:   deps.Retention,
		opts:        opts,
		logger:      logger,
	}, nil
}

// CreatorID returns the subscribed creator.
func (s *Subscription) CreatorID() string { return s.creatorID }

// Plan returns the subscription plan label.
func (s *Subscription) Plan() string { return s.plan }

// Channels returns a copy of the channel list in match order.
func (s *Subscription) Channels() []config.Channel {
	return append([]config.Channel(nil), s.channels...)
}

// Discover streams items from the creator's newest video posts.
func (s *Subscription) Discover(ctx context.Context) *ItemStream {
	s.logger.Debug("discovery started", logging.Int("videos_to_search", s.opts.VideosToSearch))
	posts := floatplane.NewPostStream(s.pages, s.creatorID, floatplane.PostQuery{HasVideo: true})
	return newItemStream(s, posts, s.opts.VideosToSearch)
}

// ClassifyOne streams items for a single post obtained elsewhere. The post
// itself is not fetched or cached; attachment details still go through the
// attachment fetcher.
func (s *Subscription) ClassifyOne(ctx context.Context, post floatplane.Post) *ItemStream {
	return newItemStream(s, &singlePost{post: post}, 1)
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeItem
	outcomeStop
)

// match classifies the attachment at position of post.
func (s *Subscription) match(ctx context.Context, post floatplane.Post, attachmentID string, position int, multi bool) (Item, outcome, error) {
	title := post.Title
	var detail *floatplane.Attachment
	if multi {
		att, err := s.attachments.Attachment(ctx, attachmentID)
		if err != nil {
			return Item{}, outcomeNone, fmt.Errorf("post %s attachment %s: %w", post.ID, attachmentID, err)
		}
		detail = &att
		title = titles.Merge(post.Title, att.Title)
	}

	decision, err := s.engine.Classify(s.channels, post, detail)
	if err != nil {
		return Item{}, outcomeNone, err
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldPostID, post.ID),
		logging.String(logging.FieldAttachmentID, attachmentID),
	}
	if !decision.Matched {
		s.logger.Debug("attachment matched no channel", logging.Args(append(attrs,
			logging.DecisionAttrs("channel_match", "none", "no predicate held")...)...)...)
		return Item{}, outcomeNone, nil
	}
	channel := decision.Channel
	attrs = append(attrs, logging.String(logging.FieldChannel, channel.Title))
	if decision.Skip {
		s.logger.Debug("attachment consumed by skip channel", logging.Args(append(attrs,
			logging.DecisionAttrs("channel_match", "skip", "channel marked skip")...)...)...)
		return Item{}, outcomeNone, nil
	}
	if s.retention.ShouldStop(channel, post.ReleaseDate) {
		s.logger.Info("retention cutoff reached, ending discovery", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "retention_cutoff"),
			logging.String("release_date", post.ReleaseDate.UTC().Format(time.RFC3339)))...)...)
		return Item{}, outcomeStop, nil
	}
	if s.opts.StripSubchannelPrefix {
		title = titles.StripSubchannelPrefix(title, channel.Title)
	}

	item := Item{
		AttachmentID: attachmentID,
		PostID:       post.ID,
		CreatorID:    s.creatorID,
		Plan:         s.plan,
		ChannelTitle: channel.Title,
		Title:        title,
		Description:  post.Text,
		ArtworkURL:   post.ArtworkURL(),
		ReleaseDate:  post.ReleaseDate.Add(time.Duration(position) * time.Second),
	}
	s.logger.Debug("attachment matched channel", logging.Args(append(attrs,
		logging.DecisionAttrs("channel_match", "matched", fmt.Sprintf("channel %d", decision.Index))...)...)...)
	return item, outcomeItem, nil
}
