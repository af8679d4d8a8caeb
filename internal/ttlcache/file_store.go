package ttlcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"floatsync/internal/logging"
)

// FileStore persists cache entries as a single JSON document. Every write
// rewrites the file atomically through a temporary sibling.
type FileStore struct {
	path    string
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[entryID]Entry
}

// OpenFile loads the cache document at path. A missing file starts empty; an
// unreadable or corrupt file is logged and also starts empty so a damaged
// cache only costs refetches.
func OpenFile(path string, logger *slog.Logger) *FileStore {
	logger = logging.NewComponentLogger(logger, "ttlcache")
	s := &FileStore{path: path, logger: logger, entries: make(map[entryID]Entry)}
	if err := s.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load cache file", "cache_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"),
			logging.String(logging.FieldImpact, "cached responses will be refetched"))
		s.entries = make(map[entryID]Entry)
	}
	return s
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context, namespace string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for id, entry := range s.entries {
		if id.namespace == namespace {
			out = append(out, entry)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *FileStore) Put(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entryID{entry.Namespace, entry.Key}
	previous, existed := s.entries[id]
	s.entries[id] = entry
	if err := s.save(); err != nil {
		if existed {
			s.entries[id] = previous
		} else {
			delete(s.entries, id)
		}
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entryID{namespace, key}
	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	if err := s.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context, namespace string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id := range s.entries {
		if namespace == "" || id.namespace == namespace {
			delete(s.entries, id)
			removed++
		}
	}
	if err := s.save(); err != nil {
		return 0, fmt.Errorf("persist cache: %w", err)
	}
	return removed, nil
}

func (s *FileStore) List(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) snapshot() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sortNewestFirst(out)
	return out
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	for _, entry := range entries {
		if entry.Key == "" {
			continue
		}
		s.entries[entryID{entry.Namespace, entry.Key}] = entry
	}

	s.logger.Debug("loaded cache file",
		logging.Int("entry_count", len(s.entries)),
		logging.String("path", s.path))
	return nil
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
