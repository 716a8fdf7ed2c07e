// Package config loads, normalizes, and validates buildlog configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the BUILDLOG_SINK_ENDPOINT and BUILDLOG_SINK_API_KEY
// environment overrides. Callers receive a Config whose durations, paths and
// enumerations are already canonical.
package config
