package floatplane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"floatsync/internal/services"
)

// PageSize is the number of posts requested per listing page.
const PageSize = 20

// API is the remote content surface used by discovery.
type API interface {
	BlogPosts(ctx context.Context, creatorID string, params BlogPostParams) ([]Post, error)
	Video(ctx context.Context, attachmentID string) (Attachment, error)
	Content(ctx context.Context, postID string) (ContentPost, error)
}

// HTTPDoer describes the HTTP client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the Floatplane REST API.
type Client struct {
	baseURL   string
	sailsSID  string
	userAgent string
	http      HTTPDoer
	limiter   *rate.Limiter
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for baseURL authenticated by the sails.sid
// session cookie.
func NewClient(baseURL, sailsSID string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "floatplane", "new client", "base url required", nil)
	}
	client := &Client{
		baseURL:   baseURL,
		sailsSID:  strings.TrimSpace(sailsSID),
		userAgent: "floatsync",
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BlogPosts lists a creator's posts newest first.
func (c *Client) BlogPosts(ctx context.Context, creatorID string, params BlogPostParams) ([]Post, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, services.Wrap(services.ErrValidation, "floatplane", "blog posts", "creator id required", nil)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = PageSize
	}
	query := url.Values{}
	query.Set("id", creatorID)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("fetchAfter", strconv.Itoa(params.FetchAfter))
	if params.HasVideo {
		query.Set("hasVideo", "true")
	}

	var posts []Post
	if err := c.getJSON(ctx, "blog posts", "/api/v3/content/creator", query, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Video fetches the detail record of a video attachment.
func (c *Client) Video(ctx context.Context, attachmentID string) (Attachment, error) {
	if strings.TrimSpace(attachmentID) == "" {
		return Attachment{}, services.Wrap(services.ErrValidation, "floatplane", "video", "attachment id required", nil)
	}
	query := url.Values{}
	query.Set("id", attachmentID)

	var att Attachment
	if err := c.getJSON(ctx, "video", "/api/v3/content/video", query, &att); err != nil {
		return Attachment{}, err
	}
	return att, nil
}

// Content fetches one post with its attachments embedded.
func (c *Client) Content(ctx context.Context, postID string) (ContentPost, error) {
	if strings.TrimSpace(postID) == "" {
		return ContentPost{}, services.Wrap(services.ErrValidation, "floatplane", "content", "post id required", nil)
	}
	query := url.Values{}
	query.Set("id", postID)

	var post ContentPost
	if err := c.getJSON(ctx, "content", "/api/v3/content/post", query, &post); err != nil {
		return ContentPost{}, err
	}
	return post, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return services.Wrap(services.ErrTimeout, "floatplane", operation, "rate limiter wait", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.sailsSID != "" {
		req.AddCookie(&http.Cookie{Name: "sails.sid", Value: c.sailsSID})
	}

	requestStart := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "floatplane", operation, fmt.Sprintf("request timed out (latency=%v)", latency), err)
		}
		return services.Wrap(services.ErrTransient, "floatplane", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if err := statusError(operation, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "floatplane", operation, "decode response", err)
	}
	return nil
}

func statusError(operation string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("status %d", resp.StatusCode)
	if text := strings.TrimSpace(string(body)); text != "" {
		msg += ": " + text
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "floatplane", operation, msg, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "floatplane", operation, msg+" (check floatplane.sails_sid)", nil)
	default:
		return services.Wrap(services.ErrTransient, "floatplane", operation, msg, nil)
	}
}
