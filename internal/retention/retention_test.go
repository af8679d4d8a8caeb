package retention

import (
	"testing"
	"time"

	"floatsync/internal/config"
)

func days(n int) *int { return &n }

func TestCutoff(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	if _, ok := Cutoff(config.Channel{Title: "forever"}, now); ok {
		t.Fatal("channel without retention should have no cutoff")
	}
	cutoff, ok := Cutoff(config.Channel{DaysToKeepVideos: days(30)}, now)
	if !ok {
		t.Fatal("expected cutoff")
	}
	if want := now.Add(-30 * 24 * time.Hour); !cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", cutoff, want)
	}
	zero, ok := Cutoff(config.Channel{DaysToKeepVideos: days(0)}, now)
	if !ok || !zero.Equal(now) {
		t.Fatalf("zero days cutoff = %s ok=%v", zero, ok)
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	channel := config.Channel{Title: "Main", DaysToKeepVideos: days(7)}
	cutoff, _ := Cutoff(channel, now)

	cases := []struct {
		name string
		item Item
		want bool
	}{
		{"old in channel", Item{ReleaseDate: now.AddDate(0, 0, -8), ChannelTitle: "Main"}, true},
		{"recent in channel", Item{ReleaseDate: now.AddDate(0, 0, -6), ChannelTitle: "Main"}, false},
		{"exactly at cutoff", Item{ReleaseDate: cutoff, ChannelTitle: "Main"}, false},
		{"old in other channel", Item{ReleaseDate: now.AddDate(0, 0, -30), ChannelTitle: "Other"}, false},
	}
	for _, tc := range cases {
		if got := IsExpired(tc.item, channel, cutoff); got != tc.want {
			t.Fatalf("%s: IsExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEvaluatorShouldStop(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	eval := NewEvaluator(func() time.Time { return now })
	channel := config.Channel{Title: "Main", DaysToKeepVideos: days(30)}

	if eval.ShouldStop(channel, now.AddDate(0, 0, -10)) {
		t.Fatal("10 day old post is within retention")
	}
	if !eval.ShouldStop(channel, now.AddDate(0, 0, -31)) {
		t.Fatal("31 day old post predates cutoff")
	}
	if eval.ShouldStop(config.Channel{Title: "forever"}, now.AddDate(-5, 0, 0)) {
		t.Fatal("no retention never stops")
	}
	if NewEvaluator(nil).Now().IsZero() {
		t.Fatal("default clock should be wall time")
	}
}
