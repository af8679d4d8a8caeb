package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"floatsync/internal/logging"
	"floatsync/internal/services"
)

// Sink receives discovered items, typically the download pipeline.
type Sink interface {
	Enqueue(ctx context.Context, item Item) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, item Item) error

// Enqueue calls f.
func (f SinkFunc) Enqueue(ctx context.Context, item Item) error { return f(ctx, item) }

// Result is the outcome of one subscription's pass.
type Result struct {
	CreatorID     string        `json:"creator_id"`
	Plan          string        `json:"plan,omitempty"`
	Items         []Item        `json:"items"`
	PostsExamined int           `json:"posts_examined"`
	RetentionStop bool          `json:"retention_stop"`
	Duration      time.Duration `json:"duration"`
	Err           error         `json:"-"`
}

// Summary collects the results of a Runner pass.
type Summary struct {
	Results []Result
}

// Items returns every item in subscription order.
func (s Summary) Items() []Item {
	var out []Item
	for _, r := range s.Results {
		out = append(out, r.Items...)
	}
	return out
}

// Failed counts subscriptions that ended with an error.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the per-subscription errors.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("subscription %s: %w", r.CreatorID, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner processes subscriptions one at a time.
type Runner struct {
	subs   []*Subscription
	sink   Sink
	logger *slog.Logger
}

// NewRunner returns a runner feeding sink. A nil sink discards items.
func NewRunner(subs []*Subscription, sink Sink, logger *slog.Logger) *Runner {
	if sink == nil {
		sink = SinkFunc(func(context.Context, Item) error { return nil })
	}
	return &Runner{subs: subs, sink: sink, logger: logging.NewComponentLogger(logger, "runner")}
}

// Run discovers every subscription in order. A failing subscription is
// logged and the next one still runs; only cancellation stops the pass.
func (r *Runner) Run(ctx context.Context) Summary {
	summary := Summary{Results: make([]Result, 0, len(r.subs))}
	for _, sub := range r.subs {
		if ctx.Err() != nil {
			break
		}
		result := r.runOne(ctx, sub)
		summary.Results = append(summary.Results, result)
		if errors.Is(result.Err, context.Canceled) {
			break
		}
	}
	return summary
}

func (r *Runner) runOne(ctx context.Context, sub *Subscription) Result {
	start := time.Now()
	ctx = services.WithCreatorID(ctx, sub.CreatorID())
	logger := logging.WithContext(ctx, r.logger)
	result := Result{CreatorID: sub.CreatorID(), Plan: sub.Plan()}

	stream := sub.Discover(ctx)
	for stream.Next(ctx) {
		item := stream.Item()
		if err := r.sink.Enqueue(ctx, item); err != nil {
			stream.Close()
			result.Err = fmt.Errorf("enqueue %s: %w", item.AttachmentID, err)
			break
		}
		result.Items = append(result.Items, item)
	}
	if result.Err == nil {
		result.Err = stream.Err()
	}
	result.PostsExamined = stream.PostsExamined()
	result.RetentionStop = stream.Stopped()
	result.Duration = time.Since(start)

	if result.Err != nil {
		if errors.Is(result.Err, context.Canceled) {
			logger.Debug("discovery interrupted")
			return result
		}
		logging.ErrorWithContext(logger, "subscription discovery failed", "discovery_failed",
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, services.ErrorHint(result.Err)),
			logging.String("error_kind", services.FailureKind(result.Err)),
			logging.String(logging.FieldImpact, "remaining subscriptions continue"),
			logging.Int("items_before_failure", len(result.Items)),
		)
		return result
	}
	logger.Info("subscription discovery complete",
		logging.String(logging.FieldEventType, "discovery_complete"),
		logging.Int("items", len(result.Items)),
		logging.Int("posts_examined", result.PostsExamined),
		logging.Bool("retention_stop", result.RetentionStop),
		logging.Duration("duration", result.Duration),
	)
	return result
}
