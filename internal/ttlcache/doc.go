// Package ttlcache memoizes remote fetches by subject and parameters, serving
// stored payloads until their time-to-live elapses.
//
// A Cache is bound to one namespace of a Store so several caches (post pages,
// attachment details) can share a single durable file. Entries are loaded when
// the cache is constructed and every successful fetch is written through to
// the store before Get returns. Staleness is judged by wall clock only; there
// is no stale fallback when a refetch fails and no coalescing of concurrent
// misses.
package ttlcache
