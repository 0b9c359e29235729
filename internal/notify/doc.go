// Package notify carries runtime events from the runner and checker to
// whoever renders them.
//
// The Hub is an in-process publish mechanism: subscribers register a
// callback and receive every event published afterwards. State-changed
// events carry no message and mean "re-read the runner/checker and
// re-render"; info/warn/error events carry user-facing text. Callbacks run
// synchronously on the publishing goroutine and must not block; publishers
// never hold their own locks while publishing.
package notify
