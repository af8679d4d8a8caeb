package predicate

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"floatsync/internal/config"
	"floatsync/internal/floatplane"
	"floatsync/internal/services"
)

func samplePost() floatplane.Post {
	return floatplane.Post{
		ID:          "p1",
		GUID:        "g1",
		Title:       "TL: Something Happened",
		Text:        "Full story.",
		Type:        "blogPost",
		Channel:     floatplane.ChannelRef{ID: "ch-tl", Title: "TechLinked"},
		Creator:     floatplane.Creator{ID: "cr1"},
		Tags:        []string{"news", "weekly"},
		ReleaseDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRuleEval(t *testing.T) {
	post := samplePost()
	att := &floatplane.Attachment{ID: "v2", Title: "Part Two"}
	cases := []struct {
		src        string
		attachment *floatplane.Attachment
		want       bool
	}{
		{`true`, nil, true},
		{`false`, nil, false},
		{`post.title startsWith "TL:"`, nil, true},
		{`lower(post.title) contains "something"`, nil, true},
		{`post.title contains "something"`, nil, false},
		{`post.channel == "ch-tl"`, nil, true},
		{`isChannel("ch-tl") && post.channelTitle == "TechLinked"`, nil, true},
		{`isChannel(post, "other")`, nil, false},
		{`post.tags contains "news"`, nil, true},
		{`post.tags contains "new"`, nil, false},
		{`post.releaseDate startsWith "2024-03"`, nil, true},
		{`post.creator != "cr1" || post.guid == "g1"`, nil, true},
		{`post.text endsWith "."`, nil, true},
		{`post.title matches "^TL: [A-Z]"`, nil, true},
		{`attachment`, nil, false},
		{`attachment`, att, true},
		{`attachment.title == "Part Two"`, att, true},
		{`attachment.title == ""`, nil, true},
		{`attachment && attachment.id == "v2"`, att, true},
		{`not attachment or attachment.id == "v1"`, att, false},
		{`attachment == false`, nil, true},
		{`attachment != true`, att, false},
		{`post.type == "blogPost" and !(post.id == "p2")`, nil, true},
	}
	engine := NewEngine()
	for _, tc := range cases {
		rule, err := engine.Compile(tc.src)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tc.src, err)
		}
		if got := rule.Eval(post, tc.attachment); got != tc.want {
			t.Fatalf("%q (attachment=%v) = %v, want %v", tc.src, tc.attachment != nil, got, tc.want)
		}
	}
}

func TestEngineCachesByCanonicalForm(t *testing.T) {
	engine := NewEngine()
	a, err := engine.Compile(`post.title == "x" && attachment`)
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.Compile(`  post.title === 'x'   and attachment `)
	if err != nil {
		t.Fatal(err)
	}
	c, err := engine.Compile(`post.title == "x" && attachment`)
	if err != nil {
		t.Fatal(err)
	}
	if a != b || a != c {
		t.Fatal("equivalent rules should share one compiled rule")
	}
	if engine.Len() != 1 {
		t.Fatalf("Len = %d, want 1", engine.Len())
	}
	if other := NewEngine(); other.Len() != 0 {
		t.Fatal("caches must be per engine")
	}
}

func TestEngineConcurrentCompile(t *testing.T) {
	engine := NewEngine()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Compile(`post.id == "p1"`); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if engine.Len() != 1 {
		t.Fatalf("Len = %d", engine.Len())
	}
}

func TestClassifyFirstMatchWinsAndSkipConsumes(t *testing.T) {
	engine := NewEngine()
	post := samplePost()
	channels := []config.Channel{
		{Title: "Unset"},
		{Title: "Shorts", Predicate: `post.title startsWith "TL Short:"`, Skip: true},
		{Title: "A", Predicate: `post.title startsWith "TL:"`, Skip: true},
		{Title: "B", Predicate: `true`},
	}

	decision, err := engine.Classify(channels, post, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !decision.Matched || !decision.Skip || decision.Channel.Title != "A" || decision.Index != 2 {
		t.Fatalf("decision = %+v, want skip on A", decision)
	}

	post.Title = "Main video"
	decision, err = engine.Classify(channels, post, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !decision.Matched || decision.Skip || decision.Channel.Title != "B" {
		t.Fatalf("decision = %+v, want B", decision)
	}

	decision, err = engine.Classify(channels[:2], post, nil)
	if err != nil {
		t.Fatal(err)
	}
	if decision.Matched || decision.Index != -1 {
		t.Fatalf("decision = %+v, want no match", decision)
	}
}

func TestClassifyCompileErrorIsConfiguration(t *testing.T) {
	engine := NewEngine()
	channels := []config.Channel{
		{Title: "Broken", Predicate: `post.title ==`},
		{Title: "B", Predicate: `true`},
	}
	_, err := engine.Classify(channels, samplePost(), nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("expected wrapped SyntaxError, got %v", err)
	}
}

func TestValidateReportsEveryBadPredicate(t *testing.T) {
	subs := []config.Subscription{
		{CreatorID: "c1", Channels: []config.Channel{
			{Title: "ok", Predicate: "true"},
			{Title: "bad1", Predicate: "post.nope == 'x'"},
			{Title: "empty"},
		}},
		{CreatorID: "c2", Channels: []config.Channel{{Title: "bad2", Predicate: "((("}}},
	}
	err := NewEngine().Validate(subs)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("got %v", err)
	}
	for _, want := range []string{"bad1", "bad2", "c1", "c2"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
	if err := NewEngine().Validate(subs[:0]); err != nil {
		t.Fatalf("no subscriptions: %v", err)
	}
}
