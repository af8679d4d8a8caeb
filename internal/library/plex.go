package library

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"floatsync/internal/services"
)

// Plex refreshes configured sections of a Plex server.
type Plex struct {
	baseURL  string
	token    string
	sections []string
	client   HTTPDoer

	mu   sync.Mutex
	keys map[string]string
}

// NewPlex constructs a Plex refresher. sections are section titles or keys;
// empty means every section.
func NewPlex(baseURL, token string, sections []string, client HTTPDoer) *Plex {
	if client == nil {
		client = http.DefaultClient
	}
	return &Plex{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:    strings.TrimSpace(token),
		sections: append([]string(nil), sections...),
		client:   client,
	}
}

func (p *Plex) Name() string { return "plex" }

// Refresh rescans each configured section.
func (p *Plex) Refresh(ctx context.Context) error {
	keys, err := p.ensureSections(ctx)
	if err != nil {
		return err
	}

	var targets []string
	if len(p.sections) == 0 {
		seen := make(map[string]bool, len(keys))
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				targets = append(targets, key)
			}
		}
		sort.Strings(targets)
	}
	for _, section := range p.sections {
		key, ok := keys[strings.ToLower(section)]
		if !ok {
			return services.Wrap(services.ErrConfiguration, "plex", "refresh",
				fmt.Sprintf("section %q not found", section), nil)
		}
		targets = append(targets, key)
	}

	for _, key := range targets {
		refreshURL := fmt.Sprintf("%s/library/sections/%s/refresh", p.baseURL, url.PathEscape(key))
		req, err := p.newRequest(ctx, refreshURL, "application/json")
		if err != nil {
			return err
		}
		resp, err := do(p.client, req, p.Name())
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	return nil
}

// ensureSections maps lowercased titles and keys to section keys.
func (p *Plex) ensureSections(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.keys != nil {
		return p.keys, nil
	}

	req, err := p.newRequest(ctx, p.baseURL+"/library/sections", "application/xml")
	if err != nil {
		return nil, err
	}
	resp, err := do(p.client, req, p.Name())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	type directory struct {
		Key   string `xml:"key,attr"`
		Title string `xml:"title,attr"`
	}
	type mediaContainer struct {
		Directories []directory `xml:"Directory"`
	}
	var container mediaContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, services.Wrap(services.ErrTransient, "plex", "sections", "decode response", err)
	}

	keys := make(map[string]string, 2*len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" {
			continue
		}
		keys[strings.ToLower(dir.Key)] = dir.Key
		if dir.Title != "" {
			keys[strings.ToLower(dir.Title)] = dir.Key
		}
	}
	p.keys = keys
	return keys, nil
}

func (p *Plex) newRequest(ctx context.Context, target, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("X-Plex-Token", p.token)
	req.Header.Set("Accept", accept)
	return req, nil
}
