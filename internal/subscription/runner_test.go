package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"floatsync/internal/config"
	"floatsync/internal/floatplane"
	"floatsync/internal/services"
)

func TestRunnerContinuesAfterFailure(t *testing.T) {
	channels := []config.Channel{{Title: "Main", Predicate: "true"}}
	failing := newSub(t, &fakeSource{pageErr: services.Wrap(services.ErrTransient, "floatplane", "posts", "boom", nil)}, channels, Options{VideosToSearch: 5})
	healthy := newSub(t, &fakeSource{pages: [][]floatplane.Post{{videoPost("p", testNow, "a")}}}, channels, Options{VideosToSearch: 5})

	var received []Item
	sink := SinkFunc(func(_ context.Context, item Item) error {
		received = append(received, item)
		return nil
	})
	summary := NewRunner([]*Subscription{failing, healthy}, sink, nil).Run(context.Background())

	if len(summary.Results) != 2 {
		t.Fatalf("results = %+v", summary.Results)
	}
	if summary.Failed() != 1 {
		t.Fatalf("failed = %d", summary.Failed())
	}
	if !errors.Is(summary.Err(), services.ErrTransient) {
		t.Fatalf("summary err = %v", summary.Err())
	}
	if len(received) != 1 || received[0].AttachmentID != "a" {
		t.Fatalf("received = %+v", received)
	}
	if got := summary.Items(); len(got) != 1 {
		t.Fatalf("summary items = %+v", got)
	}
}

func TestRunnerSinkErrorStopsSubscription(t *testing.T) {
	channels := []config.Channel{{Title: "Main", Predicate: "true"}}
	src := &fakeSource{pages: [][]floatplane.Post{pageOf(5)}}
	sub := newSub(t, src, channels, Options{VideosToSearch: 5})

	calls := 0
	sink := SinkFunc(func(context.Context, Item) error {
		calls++
		if calls == 2 {
			return errors.New("disk full")
		}
		return nil
	})
	summary := NewRunner([]*Subscription{sub}, sink, nil).Run(context.Background())

	if calls != 2 {
		t.Fatalf("sink calls = %d", calls)
	}
	result := summary.Results[0]
	if result.Err == nil || len(result.Items) != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestRunnerStopsOnCancellation(t *testing.T) {
	channels := []config.Channel{{Title: "Main", Predicate: "true"}}
	first := newSub(t, &fakeSource{pages: [][]floatplane.Post{pageOf(1)}}, channels, Options{VideosToSearch: 1})
	second := newSub(t, &fakeSource{pages: [][]floatplane.Post{pageOf(1)}}, channels, Options{VideosToSearch: 1})

	ctx, cancel := context.WithCancel(context.Background())
	sink := SinkFunc(func(context.Context, Item) error {
		cancel()
		return nil
	})
	summary := NewRunner([]*Subscription{first, second}, sink, nil).Run(ctx)
	if len(summary.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(summary.Results))
	}
}

func TestRunnerRecordsRetentionStop(t *testing.T) {
	channels := []config.Channel{{Title: "Main", Predicate: "true", DaysToKeepVideos: days(1)}}
	src := &fakeSource{pages: [][]floatplane.Post{{videoPost("p", testNow.Add(-72*time.Hour), "a")}}}
	summary := NewRunner([]*Subscription{newSub(t, src, channels, Options{VideosToSearch: 5})}, nil, nil).Run(context.Background())
	result := summary.Results[0]
	if !result.RetentionStop || len(result.Items) != 0 || result.Err != nil {
		t.Fatalf("result = %+v", result)
	}
}
