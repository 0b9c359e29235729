// Command bindery installs, updates, and tracks go-installed developer
// tools declared in its configuration file.
package main
