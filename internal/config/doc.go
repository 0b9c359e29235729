// Package config loads, normalizes, and validates bindery configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and collects the tool declarations that feed
// the registry. The Config type centralizes every knob the CLI needs: the
// installer command, concurrency ceiling, update-check cadence, data
// locations, and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
