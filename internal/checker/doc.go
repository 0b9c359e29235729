// Package checker discovers available updates for installed binaries.
//
// A check interrogates the configured installer toolchain twice per
// registered binary, concurrently: the stamped build module version of the
// installed executable, and the latest published version of its source
// module. An uninstalled binary reads as an unknown installed version while
// its latest version is still resolved. An update exists when the two
// version strings differ; no ordering comparison is attempted, so a binary
// installed from a newer-than-published commit also reads as having an
// update, which is the safe direction.
//
// Results are cached in memory for display and persisted to the state file
// so the next process start can show findings and gate auto-checks by
// frequency without hitting the network.
package checker
