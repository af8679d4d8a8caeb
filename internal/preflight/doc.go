// Package preflight provides readiness checks for the directories, remote
// services and configuration floatsync depends on.
//
// The CLI "floatsync check" command runs RunAll and prints each Result; the
// watch loop runs it once at startup and refuses to start on failures.
//
// Each integration check is gated by its config toggle; disabled features are
// skipped.
package preflight
