package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"floatsync/internal/services"
	"floatsync/internal/subscription"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleItem(id, channel string, released time.Time) subscription.Item {
	return subscription.Item{
		AttachmentID: id,
		PostID:       "post-" + id,
		CreatorID:    "creator",
		Plan:         "Plan",
		ChannelTitle: channel,
		Title:        "Title " + id,
		Description:  "desc",
		ArtworkURL:   "https://img/" + id,
		ReleaseDate:  released,
	}
}

func TestRecordIsGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	released := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first, created, err := store.Record(ctx, sampleItem("a1", "Main", released))
	if err != nil || !created {
		t.Fatalf("first record created=%v err=%v", created, err)
	}
	if first.ID == "" || first.RecordedAt.IsZero() {
		t.Fatalf("record missing id or timestamp: %+v", first)
	}
	if !first.ReleaseDate.Equal(released) || first.Title != "Title a1" {
		t.Fatalf("unexpected record %+v", first)
	}

	changed := sampleItem("a1", "Other", released)
	second, created, err := store.Record(ctx, changed)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if created {
		t.Fatal("existing attachment must not be recreated")
	}
	if second.ID != first.ID || second.ChannelTitle != "Main" {
		t.Fatalf("second = %+v, want original row", second)
	}
}

func TestRecordRequiresAttachmentID(t *testing.T) {
	store := openTestStore(t)
	_, _, err := store.Record(context.Background(), subscription.Item{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, item := range []subscription.Item{
		sampleItem("old", "Main", base),
		sampleItem("new", "Main", base.Add(48*time.Hour)),
		sampleItem("other", "Side", base.Add(24*time.Hour)),
	} {
		if err := store.Enqueue(ctx, item); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	all, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].AttachmentID != "new" || all[1].AttachmentID != "other" || all[2].AttachmentID != "old" {
		t.Fatalf("all = %+v", all)
	}

	main, err := store.List(ctx, Filter{ChannelTitle: "Main"})
	if err != nil {
		t.Fatalf("List main: %v", err)
	}
	if len(main) != 2 {
		t.Fatalf("main = %+v", main)
	}
	none, err := store.List(ctx, Filter{CreatorID: "nobody"})
	if err != nil || len(none) != 0 {
		t.Fatalf("none = %+v err=%v", none, err)
	}
}

func TestDeleteAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.Enqueue(ctx, sampleItem("a1", "Main", time.Now())); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, err := store.Get(ctx, "a1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Get err = %v, want not found", err)
	}
	n, err := store.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("count = %d err=%v", n, err)
	}
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Enqueue(ctx, sampleItem("a1", "Main", time.Now())); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(ctx, "a1"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

var _ subscription.Sink = (*Store)(nil)
