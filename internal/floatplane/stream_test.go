package floatplane

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"floatsync/internal/logging"
	"floatsync/internal/ttlcache"
)

type pageCall struct {
	offset int
	force  bool
}

type fakePages struct {
	sizes []int
	calls []pageCall
	err   error
	errAt int
}

func (f *fakePages) Page(_ context.Context, creatorID string, params BlogPostParams, force bool) ([]Post, error) {
	f.calls = append(f.calls, pageCall{offset: params.FetchAfter, force: force})
	idx := params.FetchAfter / PageSize
	if f.err != nil && idx == f.errAt {
		return nil, f.err
	}
	if idx >= len(f.sizes) {
		return nil, nil
	}
	posts := make([]Post, f.sizes[idx])
	for i := range posts {
		posts[i] = Post{ID: fmt.Sprintf("%s-%d", creatorID, params.FetchAfter+i)}
	}
	return posts, nil
}

func TestPostStreamYieldsAllPagesUntilEmpty(t *testing.T) {
	pages := &fakePages{sizes: []int{20, 20, 0}}
	stream := NewPostStream(pages, "c", PostQuery{HasVideo: true})

	count := 0
	for stream.Next(context.Background()) {
		want := fmt.Sprintf("c-%d", count)
		if stream.Post().ID != want {
			t.Fatalf("post %d = %s, want %s", count, stream.Post().ID, want)
		}
		count++
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 40 {
		t.Fatalf("yielded %d posts, want 40", count)
	}
	if stream.State() != StateDone {
		t.Fatalf("state = %s", stream.State())
	}
	wantCalls := []pageCall{{0, true}, {20, false}, {40, false}}
	if len(pages.calls) != len(wantCalls) {
		t.Fatalf("calls = %+v", pages.calls)
	}
	for i, call := range wantCalls {
		if pages.calls[i] != call {
			t.Fatalf("call %d = %+v, want %+v", i, pages.calls[i], call)
		}
	}
	if stream.Next(context.Background()) {
		t.Fatal("done stream must stay done")
	}
	if len(pages.calls) != 3 {
		t.Fatal("done stream must not fetch")
	}
}

func TestPostStreamIsLazy(t *testing.T) {
	pages := &fakePages{sizes: []int{20, 20, 20}}
	stream := NewPostStream(pages, "c", PostQuery{})
	if len(pages.calls) != 0 {
		t.Fatal("constructing a stream must not fetch")
	}
	for i := 0; i < 20; i++ {
		if !stream.Next(context.Background()) {
			t.Fatalf("stream ended early at %d", i)
		}
	}
	if len(pages.calls) != 1 || stream.State() != StateMatching {
		t.Fatalf("consuming one page should fetch once, calls=%d state=%s", len(pages.calls), stream.State())
	}
	stream.Close()
	if stream.Next(context.Background()) || len(pages.calls) != 1 {
		t.Fatal("closed stream must not fetch")
	}
}

func TestPostStreamFetchErrorEndsStream(t *testing.T) {
	boom := errors.New("boom")
	pages := &fakePages{sizes: []int{20, 20}, err: boom, errAt: 1}
	stream := NewPostStream(pages, "c", PostQuery{})
	count := 0
	for stream.Next(context.Background()) {
		count++
	}
	if count != 20 {
		t.Fatalf("count = %d", count)
	}
	if !errors.Is(stream.Err(), boom) {
		t.Fatalf("err = %v", stream.Err())
	}
	if stream.Offset() != 20 {
		t.Fatalf("offset = %d", stream.Offset())
	}
}

func TestPostStreamCancelledContext(t *testing.T) {
	pages := &fakePages{sizes: []int{20}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stream := NewPostStream(pages, "c", PostQuery{})
	if stream.Next(ctx) {
		t.Fatal("cancelled context should end stream")
	}
	if !errors.Is(stream.Err(), context.Canceled) || len(pages.calls) != 0 {
		t.Fatalf("err=%v calls=%d", stream.Err(), len(pages.calls))
	}
}

type fakeAPI struct {
	pages       map[int][]Post
	pageCalls   int
	videoCalls  int
	contentPost ContentPost
}

func (f *fakeAPI) BlogPosts(_ context.Context, _ string, params BlogPostParams) ([]Post, error) {
	f.pageCalls++
	return f.pages[params.FetchAfter], nil
}

func (f *fakeAPI) Video(_ context.Context, id string) (Attachment, error) {
	f.videoCalls++
	return Attachment{ID: id, Title: "detail " + id}, nil
}

func (f *fakeAPI) Content(context.Context, string) (ContentPost, error) {
	return f.contentPost, nil
}

func TestCatalogStreamsRefreshFirstPageOnly(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{pages: map[int][]Post{
		0:  {{ID: "p1"}},
		20: {{ID: "p2"}},
	}}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	catalog, err := NewCatalog(ctx, api, ttlcache.NewMemoryStore(), CatalogOptions{
		Now:    func() time.Time { return now },
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	drain := func() []string {
		var ids []string
		stream := catalog.Posts("creator", PostQuery{HasVideo: true})
		for stream.Next(ctx) {
			ids = append(ids, stream.Post().ID)
		}
		if stream.Err() != nil {
			t.Fatal(stream.Err())
		}
		return ids
	}

	if ids := drain(); len(ids) != 2 {
		t.Fatalf("first pass ids = %v", ids)
	}
	if api.pageCalls != 3 {
		t.Fatalf("first pass page calls = %d, want 3", api.pageCalls)
	}
	if ids := drain(); len(ids) != 2 {
		t.Fatalf("second pass ids = %v", ids)
	}
	if api.pageCalls != 4 {
		t.Fatalf("second pass should refetch only the first page, calls = %d", api.pageCalls)
	}

	for i := 0; i < 3; i++ {
		att, err := catalog.Attachment(ctx, "v1")
		if err != nil {
			t.Fatal(err)
		}
		if att.Title != "detail v1" {
			t.Fatalf("attachment = %+v", att)
		}
	}
	if api.videoCalls != 1 {
		t.Fatalf("attachment detail should be cached, calls = %d", api.videoCalls)
	}
}
