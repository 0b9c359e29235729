package runner

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"bindery/internal/logging"
)

// startLocked spawns the installer process for a pending task and moves it
// to running. Caller holds r.mu. The spawned goroutine owns the output pipe:
// it drains combined stdout/stderr line by line, then waits for the process
// and delivers exactly one exit event on the batch channel.
func (r *Runner) startLocked(b *batch, t *task) error {
	command := r.cfg.Install.Command
	if len(command) == 0 {
		return fmt.Errorf("install command is empty")
	}

	args := make([]string, 0, len(command)+1)
	args = append(args, command[1:]...)
	args = append(args, t.mode.verb(), t.binary.Source+"@latest")

	cmd := exec.Command(command[0], args...)
	// Own process group so Abort can kill the installer and any build
	// children it forked in one signal.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", command[0], err)
	}

	t.state = StateRunning
	t.startedAt = time.Now()
	t.output = nil
	t.cmd = cmd
	b.outstanding++

	r.logger.Info("task started",
		logging.String(logging.FieldTaskID, t.id),
		logging.String(logging.FieldBinary, t.binary.Name),
		logging.String(logging.FieldSource, t.binary.Source),
		logging.String(logging.FieldMode, t.mode.String()))

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			r.appendOutput(t, line)
		}
		b.exits <- exitEvent{task: t, err: cmd.Wait()}
	}()
	return nil
}

// appendOutput records one output line against the task. Lines arriving
// after the task went terminal (a killed process flushing its pipe) are
// still appended; they are harmless and occasionally useful.
func (r *Runner) appendOutput(t *task, line string) {
	r.mu.Lock()
	t.output = append(t.output, line)
	r.mu.Unlock()
	r.hub.StateChanged()
}

// terminate kills the process group rooted at p, falling back to killing
// the process alone when the group signal fails.
func terminate(p *os.Process) {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		_ = p.Kill()
	}
}
