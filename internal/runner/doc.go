// Package runner executes install and update batches against the configured
// installer command.
//
// A Request turns a set of registered binary names into one task per binary
// and drives them through pending → running → done/failed under the
// configured concurrency ceiling, in request order. Subprocess exits arrive
// on a per-batch channel consumed by a single dispatcher goroutine; every
// shared mutation happens under the runner mutex, so exit events from two
// simultaneously finishing installs cannot race on slot accounting.
//
// Only one batch is active at a time. A new request while a batch runs is
// rejected with a warning, and a request always replaces the previous
// batch's tasks. Abort kills running tasks, leaves pending ones untouched,
// and marks the batch inactive immediately without waiting for the killed
// processes to be reaped; late exit events and output lines from them are
// tolerated and ignored.
package runner
