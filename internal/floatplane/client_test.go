package floatplane

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"floatsync/internal/services"
)

func TestClientBlogPostsRequest(t *testing.T) {
	var gotQuery, gotCookie, gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		if c, err := r.Cookie("sails.sid"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","title":"One","channel":"c1","releaseDate":"2024-01-01T00:00:00Z","videoAttachments":["v1"]}]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", "secret", WithHTTPClient(srv.Client()), WithRateLimit(0), WithUserAgent("floatsync-test"))
	if err != nil {
		t.Fatal(err)
	}
	posts, err := client.BlogPosts(context.Background(), "creator-1", BlogPostParams{HasVideo: true, FetchAfter: 40})
	if err != nil {
		t.Fatalf("BlogPosts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" || posts[0].VideoAttachments[0] != "v1" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	if gotPath != "/api/v3/content/creator" {
		t.Fatalf("path = %q", gotPath)
	}
	for _, want := range []string{"id=creator-1", "hasVideo=true", "limit=20", "fetchAfter=40"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
	if gotCookie != "secret" {
		t.Fatalf("cookie = %q", gotCookie)
	}
	if gotUA != "floatsync-test" {
		t.Fatalf("user agent = %q", gotUA)
	}
}

func TestClientVideoAndContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/content/video":
			_, _ = w.Write([]byte(`{"id":"` + r.URL.Query().Get("id") + `","title":"Part 2"}`))
		case "/api/v3/content/post":
			_, _ = w.Write([]byte(`{"id":"p1","title":"Post","channel":{"id":"c1","title":"Main"},"creator":{"id":"cr","owner":"u"},"videoAttachments":[{"id":"v1","title":"x"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", WithHTTPClient(srv.Client()), WithRateLimit(0))
	if err != nil {
		t.Fatal(err)
	}
	att, err := client.Video(context.Background(), "v7")
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	if att.ID != "v7" || att.Title != "Part 2" {
		t.Fatalf("attachment = %+v", att)
	}
	post, err := client.Content(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if post.Channel.Title != "Main" || post.Creator.Owner != "u" || post.BlogPost().VideoAttachments[0] != "v1" {
		t.Fatalf("content post = %+v", post)
	}
}

func TestClientStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		marker error
	}{
		{http.StatusNotFound, services.ErrNotFound},
		{http.StatusUnauthorized, services.ErrConfiguration},
		{http.StatusForbidden, services.ErrConfiguration},
		{http.StatusInternalServerError, services.ErrTransient},
		{http.StatusTooManyRequests, services.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()
			client, err := NewClient(srv.URL, "", WithHTTPClient(srv.Client()), WithRateLimit(0))
			if err != nil {
				t.Fatal(err)
			}
			_, err = client.Video(context.Background(), "v1")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("status %d: got %v, want marker %v", tc.status, err, tc.marker)
			}
		})
	}
}

func TestClientValidatesInputs(t *testing.T) {
	if _, err := NewClient("  ", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("empty base url: %v", err)
	}
	client, err := NewClient("http://127.0.0.1:1", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.BlogPosts(context.Background(), "", BlogPostParams{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty creator: %v", err)
	}
	if _, err := client.Video(context.Background(), ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty attachment: %v", err)
	}
	if _, err := client.Content(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty post: %v", err)
	}
}

func TestClientDecodeFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()
	client, err := NewClient(srv.URL, "", WithHTTPClient(srv.Client()), WithRateLimit(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Video(context.Background(), "v1"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("got %v", err)
	}
}
