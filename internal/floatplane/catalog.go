package floatplane

import (
	"context"
	"log/slog"
	"time"

	"floatsync/internal/logging"
	"floatsync/internal/ttlcache"
)

// Cache namespaces shared with the CLI's cache commands.
const (
	PostsNamespace       = "posts"
	AttachmentsNamespace = "attachments"
)

// Default cache lifetimes.
const (
	DefaultPostTTL       = 60 * time.Minute
	DefaultAttachmentTTL = 24 * time.Hour
)

type attachmentParams struct{}

// CatalogOptions configures NewCatalog.
type CatalogOptions struct {
	PostTTL       time.Duration
	AttachmentTTL time.Duration
	Now           func() time.Time
	Logger        *slog.Logger
}

// Catalog serves post pages and attachment details through durable caches.
type Catalog struct {
	posts       *ttlcache.Cache[BlogPostParams, []Post]
	attachments *ttlcache.Cache[attachmentParams, Attachment]
	logger      *slog.Logger
}

// NewCatalog binds api to the post and attachment namespaces of store.
func NewCatalog(ctx context.Context, api API, store ttlcache.Store, opts CatalogOptions) (*Catalog, error) {
	if opts.PostTTL <= 0 {
		opts.PostTTL = DefaultPostTTL
	}
	if opts.AttachmentTTL <= 0 {
		opts.AttachmentTTL = DefaultAttachmentTTL
	}
	logger := logging.NewComponentLogger(opts.Logger, "catalog")

	posts, err := ttlcache.New(ctx, store, ttlcache.Options[BlogPostParams, []Post]{
		Namespace: PostsNamespace,
		TTL:       opts.PostTTL,
		Now:       opts.Now,
		Logger:    opts.Logger,
		Fetch: func(ctx context.Context, creatorID string, params BlogPostParams) ([]Post, error) {
			logger.Debug("fetching post page",
				logging.String(logging.FieldCreatorID, creatorID),
				logging.Int("fetch_after", params.FetchAfter))
			return api.BlogPosts(ctx, creatorID, params)
		},
	})
	if err != nil {
		return nil, err
	}

	attachments, err := ttlcache.New(ctx, store, ttlcache.Options[attachmentParams, Attachment]{
		Namespace: AttachmentsNamespace,
		TTL:       opts.AttachmentTTL,
		Now:       opts.Now,
		Logger:    opts.Logger,
		Fetch: func(ctx context.Context, attachmentID string, _ attachmentParams) (Attachment, error) {
			logger.Debug("fetching attachment detail", logging.String(logging.FieldAttachmentID, attachmentID))
			return api.Video(ctx, attachmentID)
		},
	})
	if err != nil {
		return nil, err
	}

	return &Catalog{posts: posts, attachments: attachments, logger: logger}, nil
}

// Page returns one listing page, bypassing the cache when forceRefresh is set.
func (c *Catalog) Page(ctx context.Context, creatorID string, params BlogPostParams, forceRefresh bool) ([]Post, error) {
	return c.posts.Get(ctx, creatorID, params, forceRefresh)
}

// Attachment returns the detail record for attachmentID.
func (c *Catalog) Attachment(ctx context.Context, attachmentID string) (Attachment, error) {
	return c.attachments.Get(ctx, attachmentID, attachmentParams{}, false)
}

// Posts opens a fresh stream over creatorID's posts.
func (c *Catalog) Posts(creatorID string, query PostQuery) *PostStream {
	return NewPostStream(c, creatorID, query)
}

// Prune drops stale entries from both caches.
func (c *Catalog) Prune(ctx context.Context) (int, error) {
	posts, err := c.posts.Prune(ctx)
	if err != nil {
		return posts, err
	}
	attachments, err := c.attachments.Prune(ctx)
	return posts + attachments, err
}
