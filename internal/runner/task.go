package runner

import (
	"os/exec"
	"time"

	"bindery/internal/registry"
)

// Mode selects the batch operation.
type Mode int

const (
	ModeInstall Mode = iota
	ModeUpdate
)

// String returns the lowercase mode label.
func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "install"
}

// verb returns the installer subcommand. The go tool installs and updates
// with the same verb; the distinction only affects name filtering.
func (m Mode) verb() string {
	return "install"
}

// State is the lifecycle position of a task.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Terminal reports whether the state absorbs further events.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// abortedOutputLine is appended to tasks killed by Abort.
const abortedOutputLine = "Aborted by user"

// task is the runner-owned mutable record for one binary in the current
// batch. All fields are guarded by the runner mutex.
type task struct {
	id         string
	binary     registry.Binary
	mode       Mode
	state      State
	output     []string
	startedAt  time.Time
	finishedAt time.Time
	cmd        *exec.Cmd
}

// TaskInfo is a read-only snapshot of a task for display.
type TaskInfo struct {
	ID         string
	Binary     string
	Source     string
	Tags       []string
	Mode       Mode
	State      State
	Output     []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns the task's wall time so far, or total time once finished.
func (t TaskInfo) Elapsed(now time.Time) time.Duration {
	if t.StartedAt.IsZero() {
		return 0
	}
	end := t.FinishedAt
	if end.IsZero() {
		end = now
	}
	if end.Before(t.StartedAt) {
		return 0
	}
	return end.Sub(t.StartedAt)
}

func (t *task) snapshot() TaskInfo {
	output := make([]string, len(t.output))
	copy(output, t.output)
	tags := make([]string, len(t.binary.Tags))
	copy(tags, t.binary.Tags)
	return TaskInfo{
		ID:         t.id,
		Binary:     t.binary.Name,
		Source:     t.binary.Source,
		Tags:       tags,
		Mode:       t.mode,
		State:      t.state,
		Output:     output,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
}

// Stats aggregates task counts per state.
type Stats struct {
	Total   int
	Pending int
	Running int
	Done    int
	Failed  int
}
