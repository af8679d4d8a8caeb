package ttlcache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists cache entries. Implementations must be safe for concurrent use.
type Store interface {
	// Load returns every entry in namespace.
	Load(ctx context.Context, namespace string) ([]Entry, error)
	// Put inserts or replaces the entry identified by its namespace and key.
	Put(ctx context.Context, entry Entry) error
	// Delete removes one entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, namespace, key string) error
	// Clear removes all entries of namespace, or every entry when namespace is empty.
	Clear(ctx context.Context, namespace string) (int, error)
	// List returns all entries across namespaces, newest first.
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// PruneStore deletes every entry in store that is no longer fresh at now.
func PruneStore(ctx context.Context, store Store, now time.Time) (int, error) {
	entries, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if entry.Fresh(now) {
			continue
		}
		if err := store.Delete(ctx, entry.Namespace, entry.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].FetchedAt.Equal(entries[j].FetchedAt) {
			if entries[i].Namespace == entries[j].Namespace {
				return entries[i].Key < entries[j].Key
			}
			return entries[i].Namespace < entries[j].Namespace
		}
		return entries[i].FetchedAt.After(entries[j].FetchedAt)
	})
}

type entryID struct {
	namespace string
	key       string
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[entryID]Entry
	puts    int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entryID]Entry)}
}

func (s *MemoryStore) Load(_ context.Context, namespace string) ([]Entry, error) {
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

func (s *MemoryStore) Put(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entryID{entry.Namespace, entry.Key}] = entry
	s.puts++
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, entryID{namespace, key})
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, namespace string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id := range s.entries {
		if namespace == "" || id.namespace == namespace {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sortNewestFirst(out)
	return out, nil
}

// Puts reports how many writes the store has accepted.
func (s *MemoryStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *MemoryStore) Close() error { return nil }
