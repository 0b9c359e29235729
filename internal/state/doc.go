// Package state persists update-check results between runs.
//
// The Store keeps a single JSON document under the data directory holding
// the last check timestamp and the per-binary version comparison. Writes go
// through an advisory file lock and an atomic rename so concurrent CLI
// invocations cannot tear the file. A missing or malformed document is
// treated as empty state, never an error.
package state
