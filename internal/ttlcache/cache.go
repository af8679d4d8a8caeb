package ttlcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"floatsync/internal/logging"
	"floatsync/internal/services"
)

// FetchFunc performs the remote call a cache memoizes.
type FetchFunc[P, V any] func(ctx context.Context, subject string, params P) (V, error)

// Options configures a Cache.
type Options[P, V any] struct {
	// Namespace separates this cache's entries from others sharing the store.
	Namespace string
	TTL       time.Duration
	Fetch     FetchFunc[P, V]
	// Now overrides the wall clock, mainly for tests.
	Now    func() time.Time
	Logger *slog.Logger
}

// Cache serves FetchFunc results keyed by subject and params until they are
// TTL old.
type Cache[P, V any] struct {
	store     Store
	namespace string
	ttl       time.Duration
	fetch     FetchFunc[P, V]
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]Entry
}

// New builds a cache over store and loads the namespace's persisted entries.
func New[P, V any](ctx context.Context, store Store, opts Options[P, V]) (*Cache[P, V], error) {
	if store == nil {
		return nil, errors.New("ttlcache: store is required")
	}
	if opts.Fetch == nil {
		return nil, errors.New("ttlcache: fetch function is required")
	}
	if opts.Namespace == "" {
		return nil, errors.New("ttlcache: namespace is required")
	}
	if opts.TTL < time.Minute || opts.TTL%time.Minute != 0 {
		return nil, fmt.Errorf("ttlcache: ttl %s must be a whole number of minutes", opts.TTL)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Cache[P, V]{
		store:     store,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
		fetch:     opts.Fetch,
		now:       now,
		logger:    logging.NewComponentLogger(opts.Logger, "ttlcache").With(logging.String("namespace", opts.Namespace)),
		entries:   make(map[string]Entry),
	}

	loaded, err := store.Load(ctx, opts.Namespace)
	if err != nil {
		return nil, fmt.Errorf("load %s cache: %w", opts.Namespace, err)
	}
	restamped := 0
	for _, entry := range loaded {
		// Entries written under another TTL take the configured one, in
		// memory and in the store, so every reader sees the same expiry.
		if entry.TTLMinutes != c.ttlMinutes() {
			entry.TTLMinutes = c.ttlMinutes()
			if err := store.Put(ctx, entry); err != nil {
				return nil, services.Wrap(services.ErrTransient, "ttlcache", "load",
					fmt.Sprintf("restamp %s entry ttl", opts.Namespace), err)
			}
			restamped++
		}
		c.entries[entry.Key] = entry
	}
	c.logger.Debug("cache loaded",
		logging.Int("entry_count", len(c.entries)),
		logging.Int("ttl_restamped", restamped))
	return c, nil
}

func (c *Cache[P, V]) ttlMinutes() int {
	return int(c.ttl / time.Minute)
}

// Get returns the cached value for subject and params, fetching and storing a
// new one when forceRefresh is set, no entry exists, or the entry has aged
// past the TTL. Fetch errors are returned unchanged and leave the cache as it
// was.
func (c *Cache[P, V]) Get(ctx context.Context, subject string, params P, forceRefresh bool) (V, error) {
	var zero V

	key, encodedParams, err := Key(subject, params)
	if err != nil {
		return zero, err
	}

	if !forceRefresh {
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
	}

	value, err := c.fetch(ctx, subject, params)
	if err != nil {
		return zero, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("encode %s cache payload: %w", c.namespace, err)
	}
	entry := Entry{
		Namespace:  c.namespace,
		Key:        key,
		Subject:    subject,
		Params:     encodedParams,
		Payload:    payload,
		FetchedAt:  c.now(),
		TTLMinutes: c.ttlMinutes(),
	}

	// The entry becomes visible only once it is durable.
	if err := c.store.Put(ctx, entry); err != nil {
		logging.ErrorWithContext(c.logger, "cache write failed", "cache_persist_failed",
			logging.String("subject", subject),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"))
		return zero, services.Wrap(services.ErrTransient, "ttlcache", "persist",
			fmt.Sprintf("store %s entry for %s", c.namespace, subject), err)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return value, nil
}

func (c *Cache[P, V]) lookup(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return zero, false
	}
	if !c.fresh(entry) {
		return zero, false
	}

	var value V
	if err := json.Unmarshal(entry.Payload, &value); err != nil {
		c.logger.Debug("cache payload undecodable; refetching",
			logging.String("subject", entry.Subject),
			logging.Error(err))
		return zero, false
	}
	return value, true
}

func (c *Cache[P, V]) fresh(entry Entry) bool {
	return entry.Fresh(c.now())
}

// Len returns the number of entries held, fresh or not.
func (c *Cache[P, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a snapshot of the namespace's entries, newest first.
func (c *Cache[P, V]) Entries() []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, entry)
	}
	c.mu.Unlock()
	sortNewestFirst(out)
	return out
}

// Prune removes stale entries from memory and the store.
func (c *Cache[P, V]) Prune(ctx context.Context) (int, error) {
	c.mu.Lock()
	var stale []string
	for key, entry := range c.entries {
		if !c.fresh(entry) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	for i, key := range stale {
		if err := c.store.Delete(ctx, c.namespace, key); err != nil {
			return i, err
		}
	}
	return len(stale), nil
}

// Clear drops every entry in the namespace.
func (c *Cache[P, V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
	_, err := c.store.Clear(ctx, c.namespace)
	return err
}
