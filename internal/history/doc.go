// Package history records finished install and update tasks in SQLite.
//
// The runner appends a record whenever a task reaches a terminal state; the
// CLI reads them back for the history command. The database is an audit
// trail, not operational state: clearing it never affects the runner or
// checker.
package history
