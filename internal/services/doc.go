// Package services defines shared utilities consumed by the discovery
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, creator IDs, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration vs not found vs transient) so the runner can decide
//     whether a subscription pass should be reported as misconfigured.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
