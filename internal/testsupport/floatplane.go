package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"floatsync/internal/floatplane"
)

// FakeFloatplane serves the subset of the Floatplane API floatsync uses.
type FakeFloatplane struct {
	Server *httptest.Server

	mu       sync.Mutex
	posts    map[string][]floatplane.Post
	videos   map[string]floatplane.Attachment
	content  map[string]floatplane.ContentPost
	requests map[string]int
	sid      string
}

// NewFakeFloatplane starts a fake API that accepts the session cookie sid.
// An empty sid accepts any request.
func NewFakeFloatplane(t testing.TB, sid string) *FakeFloatplane {
	t.Helper()
	f := &FakeFloatplane{
		posts:    make(map[string][]floatplane.Post),
		videos:   make(map[string]floatplane.Attachment),
		content:  make(map[string]floatplane.ContentPost),
		requests: make(map[string]int),
		sid:      sid,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base URL.
func (f *FakeFloatplane) URL() string { return f.Server.URL }

// AddPosts appends posts, newest first, to creatorID's listing.
func (f *FakeFloatplane) AddPosts(creatorID string, posts ...floatplane.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[creatorID] = append(f.posts[creatorID], posts...)
}

// AddVideo registers an attachment detail record.
func (f *FakeFloatplane) AddVideo(att floatplane.Attachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[att.ID] = att
}

// AddContent registers a single-post payload.
func (f *FakeFloatplane) AddContent(post floatplane.ContentPost) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[post.ID] = post
}

// Requests returns how many times path was requested.
func (f *FakeFloatplane) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *FakeFloatplane) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[r.URL.Path]++

	if f.sid != "" {
		cookie, err := r.Cookie("sails.sid")
		if err != nil || cookie.Value != f.sid {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
	}

	query := r.URL.Query()
	switch r.URL.Path {
	case "/api/v3/user/self":
		writeJSON(w, map[string]string{"id": "user", "username": "tester"})
	case "/api/v3/content/creator":
		posts := f.posts[query.Get("id")]
		after, _ := strconv.Atoi(query.Get("fetchAfter"))
		limit, _ := strconv.Atoi(query.Get("limit"))
		if limit <= 0 {
			limit = floatplane.PageSize
		}
		page := []floatplane.Post{}
		if after < len(posts) {
			end := min(after+limit, len(posts))
			page = posts[after:end]
		}
		writeJSON(w, page)
	case "/api/v3/content/video":
		att, ok := f.videos[query.Get("id")]
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, att)
	case "/api/v3/content/post":
		post, ok := f.content[query.Get("id")]
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, post)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
