// Package config loads, normalizes, and validates floatsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FLOATPLANE_SAILS_SID. The Config type also carries the subscription list:
// each subscription names a creator and an ordered set of channels whose
// predicates decide where discovered attachments land.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
