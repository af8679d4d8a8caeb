package logging

import (
	"context"
	"log/slog"

	"floatsync/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType names the event so log lines can be filtered by kind.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID identifies one CLI invocation.
	FieldRunID = "run_id"
	// FieldCreatorID identifies the subscription creator being processed.
	FieldCreatorID = "creator_id"
	// FieldStage is the pipeline stage (discover, classify, prune).
	FieldStage = "stage"
	// FieldChannel is the destination channel title.
	FieldChannel = "channel"
	// FieldAttachmentID identifies a media attachment.
	FieldAttachmentID = "attachment_id"
	// FieldPostID identifies a remote post.
	FieldPostID = "post_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.CreatorIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCreatorID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
