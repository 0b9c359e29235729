// Package notifications sends optional ntfy push notifications for findings
// that matter away from the terminal: updates discovered by a background
// check, finished batches, and errors.
//
// When no ntfy topic is configured the service is a no-op, so callers can
// publish unconditionally.
package notifications
