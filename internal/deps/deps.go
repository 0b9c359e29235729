// Package deps reports the availability of the external executables bindery
// relies on, for the doctor command and startup preflight.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"bindery/internal/config"
)

// Requirement defines an external dependency bindery relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// DefaultRequirements returns the requirements derived from the configured
// installer command.
func DefaultRequirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "installer",
			Command:     cfg.InstallerName(),
			Description: "installs and updates managed tools",
		},
		{
			Name:        "git",
			Command:     "git",
			Description: "fetches module sources during installs",
			Optional:    true,
		},
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}
