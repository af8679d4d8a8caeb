// Package cleanup deletes library files for items that have aged out of
// their channel's retention window.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"floatsync/internal/config"
	"floatsync/internal/history"
	"floatsync/internal/logging"
	"floatsync/internal/retention"
	"floatsync/internal/textutil"
)

// Extensions are the companion files written for every item.
var Extensions = []string{".mp4", ".partial", ".nfo", ".png"}

// BasePath returns the extensionless library path of rec:
// <library>/<plan>/<channel>/<YYYY-MM-DD> - <title>.
func BasePath(libraryDir string, rec history.Record) string {
	plan := rec.Plan
	if plan == "" {
		plan = rec.CreatorID
	}
	name := fmt.Sprintf("%s - %s", rec.ReleaseDate.UTC().Format("2006-01-02"), rec.Title)
	return filepath.Join(libraryDir,
		textutil.SanitizeFileName(plan),
		textutil.SanitizeFileName(rec.ChannelTitle),
		textutil.SanitizeFileName(name))
}

// Records is the history access the pruner needs.
type Records interface {
	List(ctx context.Context, filter history.Filter) ([]history.Record, error)
	Delete(ctx context.Context, attachmentID string) error
}

// Remover deletes one file.
type Remover interface {
	Remove(name string) error
}

// RemoverFunc adapts a function to Remover.
type RemoverFunc func(name string) error

// Remove calls f.
func (f RemoverFunc) Remove(name string) error { return f(name) }

// Options configures a Pruner.
type Options struct {
	LibraryDir string
	// Remover defaults to os.Remove.
	Remover Remover
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
	// DryRun reports what would be removed without touching anything.
	DryRun bool
}

// Expired is one item past its channel's cutoff.
type Expired struct {
	Record  history.Record
	Channel string
	Cutoff  time.Time
	// Files lists the paths removed, or the paths that exist on a dry run.
	Files []string
}

// Error pairs a path or record with the failure it hit.
type Error struct {
	Path  string
	Error error
}

// Result is the outcome of a prune pass.
type Result struct {
	Items        []Expired
	FilesRemoved int
	Errors       []Error
}

// Pruner applies channel retention to recorded items.
type Pruner struct {
	records    Records
	remover    Remover
	libraryDir string
	now        func() time.Time
	logger     *slog.Logger
	dryRun     bool
}

// NewPruner returns a pruner over records.
func NewPruner(records Records, opts Options) *Pruner {
	if opts.Remover == nil {
		opts.Remover = RemoverFunc(os.Remove)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pruner{
		records:    records,
		remover:    opts.Remover,
		libraryDir: opts.LibraryDir,
		now:        opts.Now,
		logger:     logging.NewComponentLogger(opts.Logger, "cleanup"),
		dryRun:     opts.DryRun,
	}
}

// Prune visits every channel with a retention window. Recorded items are
// matched to channels by title. A record is forgotten only once all of its
// files are gone.
func (p *Pruner) Prune(ctx context.Context, subs []config.Subscription) Result {
	var result Result
	now := p.now()
	for _, sub := range subs {
		for _, channel := range sub.Channels {
			if err := ctx.Err(); err != nil {
				result.Errors = append(result.Errors, Error{Error: err})
				return result
			}
			cutoff, ok := retention.Cutoff(channel, now)
			if !ok {
				continue
			}
			p.pruneChannel(ctx, channel, cutoff, &result)
		}
	}
	return result
}

func (p *Pruner) pruneChannel(ctx context.Context, channel config.Channel, cutoff time.Time, result *Result) {
	logger := p.logger.With(logging.String(logging.FieldChannel, channel.Title))
	records, err := p.records.List(ctx, history.Filter{ChannelTitle: channel.Title})
	if err != nil {
		result.Errors = append(result.Errors, Error{Path: channel.Title, Error: err})
		logging.WarnWithContext(logger, "failed to list recorded items", "cleanup_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database"),
			logging.String(logging.FieldImpact, "channel not pruned this pass"),
		)
		return
	}

	deletedItems, deletedFiles := 0, 0
	for _, rec := range records {
		item := retention.Item{ReleaseDate: rec.ReleaseDate, ChannelTitle: rec.ChannelTitle}
		if !retention.IsExpired(item, channel, cutoff) {
			continue
		}
		expired := Expired{Record: rec, Channel: channel.Title, Cutoff: cutoff}
		failed := false
		base := BasePath(p.libraryDir, rec)
		for _, ext := range Extensions {
			path := base + ext
			if p.dryRun {
				if _, err := os.Stat(path); err == nil {
					expired.Files = append(expired.Files, path)
				}
				continue
			}
			err := p.remover.Remove(path)
			switch {
			case err == nil:
				expired.Files = append(expired.Files, path)
			case errors.Is(err, fs.ErrNotExist):
			default:
				failed = true
				result.Errors = append(result.Errors, Error{Path: path, Error: err})
				logging.WarnWithContext(logger, "failed to remove expired file", "cleanup_remove_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check library_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
		}
		if !p.dryRun && !failed {
			if err := p.records.Delete(ctx, rec.AttachmentID); err != nil {
				result.Errors = append(result.Errors, Error{Path: rec.AttachmentID, Error: err})
			}
		}
		deletedItems++
		deletedFiles += len(expired.Files)
		result.Items = append(result.Items, expired)
	}
	if !p.dryRun {
		result.FilesRemoved += deletedFiles
	}

	if deletedItems == 0 {
		logger.Debug("no expired items", logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)))
		return
	}
	logger.Info("pruned expired items",
		logging.String(logging.FieldEventType, "cleanup_channel"),
		logging.Int("items", deletedItems),
		logging.Int("files", deletedFiles),
		logging.Bool("dry_run", p.dryRun),
	)
}
