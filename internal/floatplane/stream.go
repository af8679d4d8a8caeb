package floatplane

import (
	"context"
	"fmt"
)

// PageFetcher returns one page of a creator's posts.
type PageFetcher interface {
	Page(ctx context.Context, creatorID string, params BlogPostParams, forceRefresh bool) ([]Post, error)
}

// PostQuery filters a post stream.
type PostQuery struct {
	HasVideo bool
}

// StreamState is the position of a PostStream in its fetch cycle.
type StreamState int

const (
	// StateFetching means the next call requests the page at Offset.
	StateFetching StreamState = iota
	// StateMatching means posts from the current page are being handed out.
	StateMatching
	// StateDone is terminal.
	StateDone
)

func (s StreamState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateMatching:
		return "matching"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PostStream lazily yields a creator's posts page by page. Nothing is fetched
// until Next is called, and a consumer that stops calling Next causes no
// further requests. An empty page ends the stream.
type PostStream struct {
	pages     PageFetcher
	creatorID string
	query     PostQuery

	state   StreamState
	offset  int
	fetched int
	page    []Post
	index   int
	current Post
	err     error
}

// NewPostStream starts a stream at offset zero.
func NewPostStream(pages PageFetcher, creatorID string, query PostQuery) *PostStream {
	return &PostStream{pages: pages, creatorID: creatorID, query: query}
}

// Next advances to the next post, fetching a page when the current one is
// exhausted. It returns false once the stream is done or has failed.
func (s *PostStream) Next(ctx context.Context) bool {
	for {
		switch s.state {
		case StateDone:
			return false
		case StateMatching:
			if s.index < len(s.page) {
				s.current = s.page[s.index]
				s.index++
				return true
			}
			s.offset += PageSize
			s.page = nil
			s.state = StateFetching
		case StateFetching:
			if err := ctx.Err(); err != nil {
				s.fail(err)
				return false
			}
			params := BlogPostParams{HasVideo: s.query.HasVideo, Limit: PageSize, FetchAfter: s.offset}
			// Only the first page bypasses the cache; new posts always land there.
			page, err := s.pages.Page(ctx, s.creatorID, params, s.fetched == 0)
			s.fetched++
			if err != nil {
				s.fail(fmt.Errorf("fetch posts for %s at offset %d: %w", s.creatorID, s.offset, err))
				return false
			}
			if len(page) == 0 {
				s.state = StateDone
				return false
			}
			s.page = page
			s.index = 0
			s.state = StateMatching
		}
	}
}

// Post returns the post produced by the last successful Next.
func (s *PostStream) Post() Post { return s.current }

// Err returns the error that ended the stream, if any.
func (s *PostStream) Err() error { return s.err }

// Offset is the fetchAfter value of the current or next page.
func (s *PostStream) Offset() int { return s.offset }

// PagesFetched counts page requests issued so far.
func (s *PostStream) PagesFetched() int { return s.fetched }

// State reports the stream's position.
func (s *PostStream) State() StreamState { return s.state }

// Close ends the stream early. Further Next calls return false without fetching.
func (s *PostStream) Close() {
	s.state = StateDone
	s.page = nil
}

func (s *PostStream) fail(err error) {
	s.err = err
	s.state = StateDone
	s.page = nil
}
