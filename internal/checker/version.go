package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// commandTimeout bounds each toolchain invocation. Module resolution can be
// slow on a cold proxy cache but should never take minutes.
const commandTimeout = 60 * time.Second

// toolchainCommand builds an installer invocation with the extra arguments
// appended after any configured base arguments, mirroring how the runner
// spawns installs.
func (c *Checker) toolchainCommand(ctx context.Context, args ...string) *exec.Cmd {
	full := append(append([]string{}, c.toolCmd[1:]...), args...)
	return exec.CommandContext(ctx, c.toolCmd[0], full...)
}

// installedVersion reads the module version stamped into the binary at path
// by running `<installer> version -m`. It prefers the mod line matching
// source and falls back to the first mod line when the stamped module path
// moved. A binary with no stamped module version reads as unknown, not as
// an error.
func (c *Checker) installedVersion(ctx context.Context, path, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := c.toolchainCommand(ctx, "version", "-m", path).Output()
	if err != nil {
		return "", fmt.Errorf("%s version -m %s: %w", c.cfg.InstallerName(), path, err)
	}
	version, ok := parseModVersion(string(out), source)
	if !ok {
		return "", nil
	}
	return version, nil
}

// parseModVersion extracts the module version from `go version -m` output.
// The stamped module can be a parent of the install path (the dlv binary is
// installed from .../delve/cmd/dlv but stamped as .../delve), so a prefix
// match counts too.
func parseModVersion(out, source string) (string, bool) {
	fallback := ""
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "mod" {
			continue
		}
		if fields[1] == source || strings.HasPrefix(source, fields[1]+"/") {
			return fields[2], true
		}
		if fallback == "" {
			fallback = fields[2]
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// latestVersion resolves the newest published version of the source module
// via `<installer> list -m -json source@latest`.
func (c *Checker) latestVersion(ctx context.Context, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := c.toolchainCommand(ctx, "list", "-m", "-json", source+"@latest").Output()
	if err != nil {
		return "", fmt.Errorf("%s list -m %s@latest: %w", c.cfg.InstallerName(), source, err)
	}

	var mod struct {
		Path    string `json:"Path"`
		Version string `json:"Version"`
	}
	if err := json.Unmarshal(out, &mod); err != nil {
		return "", fmt.Errorf("parse go list output for %s: %w", source, err)
	}
	if mod.Version == "" {
		return "", fmt.Errorf("no version reported for %s", source)
	}
	return mod.Version, nil
}
