package ttlcache

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"floatsync/internal/sqlitedb"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore persists cache entries in a sqlite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(ctx, path, migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

const entryColumns = "namespace, cache_key, subject, params, payload, fetched_at, ttl_minutes"

func (s *SQLiteStore) Load(ctx context.Context, namespace string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM cache_entries WHERE namespace = ? ORDER BY fetched_at DESC, cache_key`,
		namespace)
	if err != nil {
		return nil, fmt.Errorf("load cache entries: %w", err)
	}
	return scanEntries(rows)
}

func (s *SQLiteStore) Put(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (namespace, cache_key) DO UPDATE SET
             subject = excluded.subject,
             params = excluded.params,
             payload = excluded.payload,
             fetched_at = excluded.fetched_at,
             ttl_minutes = excluded.ttl_minutes`,
		entry.Namespace,
		entry.Key,
		entry.Subject,
		string(entry.Params),
		string(entry.Payload),
		entry.FetchedAt.UTC().Format(time.RFC3339Nano),
		entry.TTLMinutes,
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE namespace = ? AND cache_key = ?`, namespace, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, namespace string) (int, error) {
	var (
		res sql.Result
		err error
	)
	if namespace == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE namespace = ?`, namespace)
	}
	if err != nil {
		return 0, fmt.Errorf("clear cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM cache_entries ORDER BY fetched_at DESC, namespace, cache_key`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	return scanEntries(rows)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			entry     Entry
			params    string
			payload   string
			fetchedAt string
		)
		if err := rows.Scan(&entry.Namespace, &entry.Key, &entry.Subject, &params, &payload, &fetchedAt, &entry.TTLMinutes); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("parse fetched_at %q: %w", fetchedAt, err)
		}
		entry.FetchedAt = ts
		entry.Params = []byte(params)
		entry.Payload = []byte(payload)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache entries: %w", err)
	}
	return out, nil
}
