// Package history records every item handed to the download pipeline so
// retention cleanup can find it again later.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"floatsync/internal/services"
	"floatsync/internal/sqlitedb"
	"floatsync/internal/subscription"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Record is a stored item descriptor.
type Record struct {
	ID           string    `json:"id"`
	AttachmentID string    `json:"attachment_id"`
	PostID       string    `json:"post_id"`
	CreatorID    string    `json:"creator_id"`
	Plan         string    `json:"plan,omitempty"`
	ChannelTitle string    `json:"channel_title"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ArtworkURL   string    `json:"artwork_url,omitempty"`
	ReleaseDate  time.Time `json:"release_date"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	CreatorID    string
	ChannelTitle string
}

// Store persists records in sqlite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlitedb.Open(ctx, path, migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const recordColumns = `id, attachment_id, post_id, creator_id, plan, channel_title, title,
    description, artwork_url, release_date, recorded_at`

// Record stores item unless its attachment is already known and returns the
// stored record. created reports whether a new row was written.
func (s *Store) Record(ctx context.Context, item subscription.Item) (rec Record, created bool, err error) {
	if strings.TrimSpace(item.AttachmentID) == "" {
		return Record{}, false, services.Wrap(services.ErrValidation, "history", "record", "attachment id required", nil)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO items (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (attachment_id) DO NOTHING`,
		uuid.NewString(),
		item.AttachmentID,
		item.PostID,
		item.CreatorID,
		item.Plan,
		item.ChannelTitle,
		item.Title,
		item.Description,
		item.ArtworkURL,
		formatTime(item.ReleaseDate),
		formatTime(s.now()),
	)
	if err != nil {
		return Record{}, false, fmt.Errorf("insert history item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, fmt.Errorf("rows affected: %w", err)
	}
	rec, err = s.Get(ctx, item.AttachmentID)
	if err != nil {
		return Record{}, false, err
	}
	return rec, n > 0, nil
}

// Enqueue records item, which makes a Store usable as a subscription.Sink.
func (s *Store) Enqueue(ctx context.Context, item subscription.Item) error {
	_, _, err := s.Record(ctx, item)
	return err
}

// Get returns the record for attachmentID.
func (s *Store) Get(ctx context.Context, attachmentID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM items WHERE attachment_id = ?`, attachmentID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, services.Wrap(services.ErrNotFound, "history", "get", attachmentID, nil)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get history item: %w", err)
	}
	return rec, nil
}

// List returns matching records, newest release first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.CreatorID != "" {
		where = append(where, "creator_id = ?")
		args = append(args, filter.CreatorID)
	}
	if filter.ChannelTitle != "" {
		where = append(where, "channel_title = ?")
		args = append(args, filter.ChannelTitle)
	}
	query := `SELECT ` + recordColumns + ` FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY release_date DESC, attachment_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history items: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history items: %w", err)
	}
	return out, nil
}

// Delete removes the record for attachmentID. Deleting an unknown id is not
// an error.
func (s *Store) Delete(ctx context.Context, attachmentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE attachment_id = ?`, attachmentID); err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history items: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec        Record
		released   string
		recordedAt string
	)
	if err := row.Scan(&rec.ID, &rec.AttachmentID, &rec.PostID, &rec.CreatorID, &rec.Plan, &rec.ChannelTitle,
		&rec.Title, &rec.Description, &rec.ArtworkURL, &released, &recordedAt); err != nil {
		return Record{}, err
	}
	var err error
	if rec.ReleaseDate, err = time.Parse(time.RFC3339Nano, released); err != nil {
		return Record{}, fmt.Errorf("parse release_date %q: %w", released, err)
	}
	if rec.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
		return Record{}, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
	}
	return rec, nil
}

// timeLayout is fixed width so release_date sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
