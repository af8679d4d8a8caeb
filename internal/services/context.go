package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	creatorIDKey contextKey = "creator_id"
	stageKey     contextKey = "stage"
)

// WithRunID annotates context with the CLI invocation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCreatorID annotates context with the creator being processed.
func WithCreatorID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, creatorIDKey, id)
}

// CreatorIDFromContext returns the creator identifier if present.
func CreatorIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(creatorIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name (discover, classify, prune).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
