package library

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Jellyfin refreshes a Jellyfin server.
type Jellyfin struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewJellyfin constructs a Jellyfin refresher.
func NewJellyfin(baseURL, apiKey string, client HTTPDoer) *Jellyfin {
	if client == nil {
		client = http.DefaultClient
	}
	return &Jellyfin{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (j *Jellyfin) Name() string { return "jellyfin" }

// Refresh starts a scan of every Jellyfin library.
func (j *Jellyfin) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/Library/Refresh", j.baseURL), nil)
	if err != nil {
		return fmt.Errorf("build jellyfin refresh request: %w", err)
	}
	req.Header.Set("X-Emby-Token", j.apiKey)
	resp, err := do(j.client, req, j.Name())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
