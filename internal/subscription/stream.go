package subscription

import (
	"context"

	"floatsync/internal/floatplane"
)

// postSource is the part of floatplane.PostStream an ItemStream consumes.
type postSource interface {
	Next(ctx context.Context) bool
	Post() floatplane.Post
	Err() error
	Close()
}

type singlePost struct {
	post floatplane.Post
	used bool
	done bool
}

func (p *singlePost) Next(ctx context.Context) bool {
	if p.used || p.done || ctx.Err() != nil {
		return false
	}
	p.used = true
	return true
}

func (p *singlePost) Post() floatplane.Post { return p.post }
func (p *singlePost) Err() error            { return nil }
func (p *singlePost) Close()                { p.done = true }

// ItemStream lazily yields items. Posts are pulled only when the previous
// post's attachments are exhausted, so stopping early issues no further
// fetches.
type ItemStream struct {
	sub   *Subscription
	posts postSource
	limit int

	examined    int
	post        floatplane.Post
	attachments []string
	next        int

	current Item
	err     error
	stopped bool
	done    bool
}

func newItemStream(sub *Subscription, posts postSource, limit int) *ItemStream {
	return &ItemStream{sub: sub, posts: posts, limit: limit}
}

// Next advances to the next item. It returns false when the stream is
// exhausted, hit a retention cutoff or failed.
func (s *ItemStream) Next(ctx context.Context) bool {
	for !s.done {
		if s.next < len(s.attachments) {
			position := s.next
			s.next++
			if err := ctx.Err(); err != nil {
				s.finish(err)
				return false
			}
			item, result, err := s.sub.match(ctx, s.post, s.attachments[position], position, len(s.attachments) > 1)
			switch {
			case err != nil:
				s.finish(err)
				return false
			case result == outcomeStop:
				s.stopped = true
				s.finish(nil)
				return false
			case result == outcomeItem:
				s.current = item
				return true
			}
			continue
		}

		if s.examined >= s.limit {
			s.finish(nil)
			return false
		}
		if !s.posts.Next(ctx) {
			s.finish(s.posts.Err())
			return false
		}
		s.examined++
		s.post = s.posts.Post()
		s.attachments = s.post.OrderedVideoAttachments()
		s.next = 0
	}
	return false
}

// Item returns the item produced by the last successful Next.
func (s *ItemStream) Item() Item { return s.current }

// Err returns the error that ended the stream, if any.
func (s *ItemStream) Err() error { return s.err }

// Stopped reports whether the stream ended on a retention cutoff.
func (s *ItemStream) Stopped() bool { return s.stopped }

// PostsExamined counts posts pulled from the source.
func (s *ItemStream) PostsExamined() int { return s.examined }

// Close ends the stream early.
func (s *ItemStream) Close() { s.finish(nil) }

// Collect drains the stream.
func (s *ItemStream) Collect(ctx context.Context) ([]Item, error) {
	var items []Item
	for s.Next(ctx) {
		items = append(items, s.Item())
	}
	return items, s.Err()
}

func (s *ItemStream) finish(err error) {
	if s.done {
		return
	}
	s.done = true
	s.err = err
	s.attachments = nil
	s.posts.Close()
}
