package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"floatsync/internal/config"
	"floatsync/internal/floatplane"
	"floatsync/internal/testsupport"
)

const testCreator = "creator-1"

type cliTestEnv struct {
	cfg        *config.Config
	fake       *testsupport.FakeFloatplane
	configPath string
}

func setupCLITestEnv(t *testing.T, subs ...config.Subscription) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.EnvSailsSID, "")

	if len(subs) == 0 {
		subs = []config.Subscription{{
			CreatorID: testCreator,
			Plan:      "LTT",
			Channels: []config.Channel{
				{Title: "Shorts", Predicate: `post.title contains "#short"`, Skip: true},
				{Title: "Main", Predicate: "true", DaysToKeepVideos: intPtr(30)},
			},
		}}
	}

	fake := testsupport.NewFakeFloatplane(t, "test-sid")
	cfg := testsupport.NewConfig(t,
		testsupport.WithFloatplaneURL(fake.URL()),
		testsupport.WithSubscriptions(subs...),
	)

	configPath := filepath.Join(homeDir, ".config", "floatsync", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, fake: fake, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args, configPath)
}

func runCLIContext(t *testing.T, ctx context.Context, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nstate_dir = %q\nlog_dir = %q\nlibrary_dir = %q\n\n",
		cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.LibraryDir)
	fmt.Fprintf(&b, "[floatplane]\nbase_url = %q\nsails_sid = %q\nrequests_per_second = %g\nvideos_to_search = %d\n\n",
		cfg.Floatplane.BaseURL, cfg.Floatplane.SailsSID, cfg.Floatplane.RequestsPerSecond, cfg.Floatplane.VideosToSearch)
	fmt.Fprintf(&b, "[cache]\nbackend = %q\n\n", cfg.Cache.Backend)
	fmt.Fprintf(&b, "[logging]\nlevel = \"error\"\nretention_days = %d\n\n", cfg.Logging.RetentionDays)
	for _, sub := range cfg.Subscriptions {
		fmt.Fprintf(&b, "[[subscriptions]]\ncreator_id = %q\nplan = %q\n\n", sub.CreatorID, sub.Plan)
		for _, ch := range sub.Channels {
			fmt.Fprintf(&b, "[[subscriptions.channels]]\ntitle = %q\npredicate = %q\nskip = %t\n", ch.Title, ch.Predicate, ch.Skip)
			if ch.DaysToKeepVideos != nil {
				fmt.Fprintf(&b, "days_to_keep_videos = %d\n", *ch.DaysToKeepVideos)
			}
			b.WriteString("\n")
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func videoPost(id, title string, released time.Time, attachments ...string) floatplane.Post {
	return floatplane.Post{
		ID:               id,
		Title:            title,
		ReleaseDate:      released,
		Creator:          floatplane.Creator{ID: testCreator},
		VideoAttachments: attachments,
		AttachmentOrder:  attachments,
	}
}

func intPtr(v int) *int { return &v }

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
