// Package logging builds the slog loggers used across bindery.
//
// It provides a console handler with aligned key=value output, a JSON
// handler for machine consumption, component loggers, and a no-op logger
// for tests.
package logging
