package runner

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bindery/internal/config"
	"bindery/internal/history"
	"bindery/internal/logging"
	"bindery/internal/notifications"
	"bindery/internal/notify"
	"bindery/internal/registry"
)

// historyOutputLines caps how many trailing output lines a history record keeps.
const historyOutputLines = 20

// exitEvent is delivered once per spawned installer process.
type exitEvent struct {
	task *task
	err  error
}

// batch holds everything scoped to one Request. The dispatcher goroutine for
// a batch keeps its own pointer, so a replaced batch drains independently of
// the runner's current one.
type batch struct {
	mode  Mode
	tasks []*task
	exits chan exitEvent
	start time.Time
	done  chan struct{}

	// active is true until the batch completes or is aborted.
	active bool
	// outstanding counts spawned processes that have not delivered an exit
	// event yet. It can remain nonzero after an abort while kills are reaped.
	outstanding int
	// records buffers finished-task history rows built under the runner
	// mutex, drained and written once the lock is released.
	records []*history.Record
}

// Options configures a Runner. Config, Registry, and Hub are required.
type Options struct {
	Config   *config.Config
	Registry *registry.Registry
	Hub      *notify.Hub
	Logger   *slog.Logger
	History  *history.Store
	Notifier notifications.Service
}

// Runner executes install and update batches.
type Runner struct {
	cfg      *config.Config
	reg      *registry.Registry
	hub      *notify.Hub
	logger   *slog.Logger
	hist     *history.Store
	notifier notifications.Service

	lookPath func(string) (string, error)

	mu      sync.Mutex
	current *batch
}

// New builds a runner from options.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New("runner requires a config")
	}
	if opts.Registry == nil {
		return nil, errors.New("runner requires a registry")
	}
	if opts.Hub == nil {
		return nil, errors.New("runner requires a notification hub")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(opts.Config)
	}
	return &Runner{
		cfg:      opts.Config,
		reg:      opts.Registry,
		hub:      opts.Hub,
		logger:   logging.NewComponentLogger(opts.Logger, "runner"),
		hist:     opts.History,
		notifier: notifier,
		lookPath: exec.LookPath,
	}, nil
}

// Request starts a batch over the named binaries. It refuses to start while
// another batch is active, warns about unknown names, and in install mode
// skips binaries that are already on disk. Nothing to do is not an error.
func (r *Runner) Request(names []string, mode Mode) {
	installer := r.cfg.InstallerName()
	if installer == "" {
		r.hub.Errorf("no install command configured")
		return
	}
	if _, err := r.lookPath(installer); err != nil {
		r.logger.Error("installer not found",
			logging.String("installer", installer),
			logging.Error(err))
		r.hub.Errorf("installer %q not found in PATH", installer)
		go func() {
			_ = r.notifier.NotifyError(context.Background(), err, mode.String()+" batch")
		}()
		return
	}

	targets := r.resolveTargets(names, mode)
	if len(targets) == 0 {
		if mode == ModeInstall {
			r.hub.Infof("nothing to install")
		} else {
			r.hub.Infof("nothing to update")
		}
		return
	}

	r.mu.Lock()
	if r.current != nil && r.current.active {
		active := r.current.mode
		r.mu.Unlock()
		r.hub.Warnf("a %s batch is already running", active)
		return
	}

	b := &batch{
		mode:   mode,
		tasks:  make([]*task, len(targets)),
		exits:  make(chan exitEvent, len(targets)),
		start:  time.Now(),
		done:   make(chan struct{}),
		active: true,
	}
	for i, target := range targets {
		b.tasks[i] = &task{
			id:     uuid.NewString(),
			binary: target,
			mode:   mode,
			state:  StatePending,
		}
	}
	r.current = b
	r.fillLocked(b)

	finished := b.active && batchIdleLocked(b)
	if finished {
		b.active = false
		close(b.done)
	}
	stats := statsLocked(b)
	r.mu.Unlock()

	r.logger.Info("batch started",
		logging.String(logging.FieldMode, mode.String()),
		logging.Int("tasks", stats.Total))
	r.drainRecords(b)
	r.hub.StateChanged()
	if finished {
		// Every task failed to even start.
		r.finishBatch(b, stats)
		return
	}
	go r.dispatch(b)
}

// resolveTargets filters the requested names down to actionable binaries.
// Unknown names produce a warning each; duplicates collapse to the first
// occurrence; install mode drops binaries already present on disk.
func (r *Runner) resolveTargets(names []string, mode Mode) []registry.Binary {
	targets := make([]registry.Binary, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		entry, ok := r.reg.Lookup(name)
		if !ok {
			r.logger.Warn("unknown binary requested", logging.String(logging.FieldBinary, name))
			r.hub.Warnf("unknown tool %q", name)
			continue
		}
		if mode == ModeInstall && r.reg.IsInstalled(name) {
			r.logger.Debug("already installed, skipping", logging.String(logging.FieldBinary, name))
			continue
		}
		targets = append(targets, entry)
	}
	return targets
}

// dispatch consumes exit events for one batch until every spawned process
// has been accounted for and the batch is no longer making progress.
func (r *Runner) dispatch(b *batch) {
	for ev := range b.exits {
		if r.handleExit(b, ev) {
			return
		}
	}
}

// handleExit applies one process exit and reports whether the dispatcher
// for the batch can stop.
func (r *Runner) handleExit(b *batch, ev exitEvent) bool {
	t := ev.task
	var (
		transitioned bool
		success      bool
		callback     registry.OnComplete
	)

	r.mu.Lock()
	b.outstanding--

	if !t.state.Terminal() {
		transitioned = true
		t.finishedAt = time.Now()
		t.cmd = nil
		if ev.err == nil {
			t.state = StateDone
			success = true
		} else {
			t.state = StateFailed
			t.output = append(t.output, "installer: "+ev.err.Error())
		}
		b.records = append(b.records, historyRecordLocked(t))
		callback = t.binary.OnComplete
	}

	if b.active {
		r.fillLocked(b)
	}

	batchDone := b.active && batchIdleLocked(b)
	if batchDone {
		b.active = false
		close(b.done)
	}
	stats := statsLocked(b)
	dispatchDone := b.outstanding == 0 && !b.active
	r.mu.Unlock()

	if transitioned {
		r.logger.Info("task finished",
			logging.String(logging.FieldTaskID, t.id),
			logging.String(logging.FieldBinary, t.binary.Name),
			logging.String(logging.FieldState, string(t.state)))
		if callback != nil {
			go callback(success)
		}
	}

	r.drainRecords(b)
	r.hub.StateChanged()
	if batchDone {
		r.finishBatch(b, stats)
	}
	return dispatchDone
}

// finishBatch announces completion and fires the optional push notification.
func (r *Runner) finishBatch(b *batch, stats Stats) {
	elapsed := time.Since(b.start)
	r.logger.Info("batch finished",
		logging.String(logging.FieldMode, b.mode.String()),
		logging.Int("done", stats.Done),
		logging.Int("failed", stats.Failed),
		logging.Duration("elapsed", elapsed))
	if stats.Failed > 0 {
		r.hub.Warnf("%s batch finished: %d done, %d failed", b.mode, stats.Done, stats.Failed)
	} else {
		r.hub.Infof("%s batch finished: %d done", b.mode, stats.Done)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = r.notifier.NotifyBatchCompleted(ctx, b.mode.String(), stats.Done, stats.Failed, elapsed)
	}()
}

// Abort kills every running task and deactivates the batch. Pending tasks
// stay pending so the final view shows what never started. The killed
// processes are reaped asynchronously by the batch dispatcher.
func (r *Runner) Abort() {
	r.mu.Lock()
	b := r.current
	if b == nil || !b.active {
		r.mu.Unlock()
		return
	}

	var (
		killed    int
		callbacks []registry.OnComplete
	)
	now := time.Now()
	for _, t := range b.tasks {
		if t.state != StateRunning {
			continue
		}
		if t.cmd != nil && t.cmd.Process != nil {
			terminate(t.cmd.Process)
		}
		t.output = append(t.output, abortedOutputLine)
		t.state = StateFailed
		t.finishedAt = now
		t.cmd = nil
		b.records = append(b.records, historyRecordLocked(t))
		if t.binary.OnComplete != nil {
			callbacks = append(callbacks, t.binary.OnComplete)
		}
		killed++
	}
	b.active = false
	close(b.done)
	r.mu.Unlock()

	r.logger.Info("batch aborted",
		logging.String(logging.FieldMode, b.mode.String()),
		logging.Int("killed", killed))
	for _, cb := range callbacks {
		go cb(false)
	}
	r.drainRecords(b)
	r.hub.StateChanged()
	r.hub.Warnf("%s batch aborted, %d running task(s) stopped", b.mode, killed)
}

// IsRunning reports whether a batch is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil && r.current.active
}

// Mode returns the mode of the current batch. Meaningful only when a batch
// exists; defaults to install otherwise.
func (r *Runner) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return ModeInstall
	}
	return r.current.mode
}

// Tasks returns snapshots of the current batch's tasks in request order.
func (r *Runner) Tasks() []TaskInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	infos := make([]TaskInfo, len(r.current.tasks))
	for i, t := range r.current.tasks {
		infos[i] = t.snapshot()
	}
	return infos
}

// Stats returns aggregate counts for the current batch.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Stats{}
	}
	return statsLocked(r.current)
}

// Wait blocks until the current batch completes or the context is canceled.
// It returns immediately when no batch is active.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	b := r.current
	r.mu.Unlock()
	if b == nil {
		return nil
	}
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fillLocked starts pending tasks in request order up to the concurrency
// ceiling. Caller holds r.mu.
func (r *Runner) fillLocked(b *batch) {
	limit := r.cfg.Install.Concurrency
	if limit < 1 {
		limit = 1
	}
	capacity := limit
	for _, t := range b.tasks {
		if t.state == StateRunning {
			capacity--
		}
	}
	for _, t := range b.tasks {
		if capacity <= 0 {
			return
		}
		if t.state != StatePending {
			continue
		}
		if err := r.startLocked(b, t); err != nil {
			now := time.Now()
			t.state = StateFailed
			t.startedAt = now
			t.finishedAt = now
			t.output = append(t.output, "failed to start installer: "+err.Error())
			r.logger.Error("task start failed",
				logging.String(logging.FieldBinary, t.binary.Name),
				logging.Error(err))
			b.records = append(b.records, historyRecordLocked(t))
			if cb := t.binary.OnComplete; cb != nil {
				go cb(false)
			}
			continue
		}
		capacity--
	}
}

// drainRecords writes buffered history rows. Must be called without r.mu
// held; history failures are logged, never surfaced to the batch.
func (r *Runner) drainRecords(b *batch) {
	r.mu.Lock()
	records := b.records
	b.records = nil
	r.mu.Unlock()

	if r.hist == nil {
		return
	}
	for _, rec := range records {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := r.hist.Add(ctx, rec)
		cancel()
		if err != nil {
			r.logger.Warn("history write failed",
				logging.String(logging.FieldBinary, rec.Binary),
				logging.Error(err))
		}
	}
}

// historyRecordLocked builds a history record from a terminal task. Caller
// holds r.mu.
func historyRecordLocked(t *task) *history.Record {
	output := t.output
	if len(output) > historyOutputLines {
		output = output[len(output)-historyOutputLines:]
	}
	return &history.Record{
		TaskID:     t.id,
		Binary:     t.binary.Name,
		Source:     t.binary.Source,
		Mode:       t.mode.String(),
		Outcome:    string(t.state),
		Output:     strings.Join(output, "\n"),
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
}

func batchIdleLocked(b *batch) bool {
	for _, t := range b.tasks {
		if t.state == StatePending || t.state == StateRunning {
			return false
		}
	}
	return true
}

func statsLocked(b *batch) Stats {
	stats := Stats{Total: len(b.tasks)}
	for _, t := range b.tasks {
		switch t.state {
		case StatePending:
			stats.Pending++
		case StateRunning:
			stats.Running++
		case StateDone:
			stats.Done++
		case StateFailed:
			stats.Failed++
		}
	}
	return stats
}
