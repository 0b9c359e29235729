// Package registry tracks the binaries bindery manages.
//
// A Binary couples a unique name with the module source it installs from,
// display tags contributed by the config sections that declared it, and an
// optional completion callback. Re-registering a name merges tags and
// callback into the existing entry instead of duplicating it.
//
// The registry also answers installation questions for the runner and
// checker: whether a binary is present in the configured bin directory and
// where it lives on disk.
package registry
