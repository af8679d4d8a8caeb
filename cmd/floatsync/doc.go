// Package main hosts the floatsync CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, takes the state directory
// lock, and wires the Floatplane client, response caches, predicate engine,
// and history store into per-creator subscriptions. Subcommands run a single
// discovery pass, loop on an interval, classify one post on demand, apply
// channel retention, and maintain the cache.
//
// Keep this package thin: behavior belongs in the internal packages and is
// surfaced here through commands and flags.
package main
