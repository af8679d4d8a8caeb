package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floatsync/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("detail = %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFloatplane(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/user/self" {
			http.NotFound(w, r)
			return
		}
		cookie, err := r.Cookie("sails.sid")
		if err != nil || cookie.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckFloatplane(context.Background(), srv.URL, "good", "ua"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckFloatplane(context.Background(), srv.URL, "stale", "ua")
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure, got %+v", result)
	}
	if result := CheckFloatplane(context.Background(), srv.URL, " ", "ua"); result.Passed {
		t.Fatal("expected failure for missing cookie")
	}
}

func TestCheckJellyfin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Emby-Token") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckJellyfin(context.Background(), srv.URL, "good-key"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckJellyfin(context.Background(), srv.URL, "bad-key"); result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result := CheckJellyfin(context.Background(), "", "key"); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
	if result := CheckJellyfin(context.Background(), "http://localhost", ""); result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckPlexServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := CheckPlex(context.Background(), srv.URL, "token")
	if result.Passed || !strings.Contains(result.Detail, "500") {
		t.Fatalf("result = %+v", result)
	}
}

func TestCheckPredicates(t *testing.T) {
	good := []config.Subscription{{CreatorID: "c", Channels: []config.Channel{{Title: "A", Predicate: "true"}, {Title: "B"}}}}
	if result := CheckPredicates(good); !result.Passed || result.Detail != "1 subscriptions, 2 channels" {
		t.Fatalf("result = %+v", result)
	}
	bad := []config.Subscription{{CreatorID: "c", Channels: []config.Channel{{Title: "A", Predicate: "post.title =="}}}}
	if result := CheckPredicates(bad); result.Passed {
		t.Fatal("expected failure for broken predicate")
	}
}

func TestRunAllSkipsDisabledIntegrations(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.LibraryDir = ""
	cfg.Floatplane.SailsSID = ""

	results := RunAll(context.Background(), &cfg)
	names := make(map[string]bool, len(results))
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"State directory", "Log directory", "Channel predicates", "Floatplane"} {
		if !names[want] {
			t.Fatalf("missing %s in %+v", want, results)
		}
	}
	if names["Jellyfin"] || names["Plex"] || names["Library directory"] {
		t.Fatalf("disabled checks ran: %+v", results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Floatplane" {
		t.Fatalf("failed = %+v", failed)
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("nil config should yield no results")
	}
}
