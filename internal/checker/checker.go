package checker

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/notifications"
	"bindery/internal/notify"
	"bindery/internal/registry"
	"bindery/internal/runner"
	"bindery/internal/state"
)

// Requester starts update batches for binaries with findings.
type Requester interface {
	Request(names []string, mode runner.Mode)
}

// Result is the outcome of checking one binary.
type Result struct {
	Binary           string
	Source           string
	InstalledVersion string
	LatestVersion    string
	HasUpdate        bool
	Err              error
}

// CheckOptions controls a single check run.
type CheckOptions struct {
	// Silent suppresses the no-findings and per-binary failure messages.
	// Positive findings are always announced.
	Silent bool
}

// checkOptions is the internal superset of CheckOptions.
type checkOptions struct {
	silent     bool
	autoUpdate bool
}

// Options configures a Checker. Config, Registry, and Hub are required.
type Options struct {
	Config   *config.Config
	Registry *registry.Registry
	Hub      *notify.Hub
	Logger   *slog.Logger
	Store    *state.Store
	Runner   Requester
	Notifier notifications.Service
}

// Checker runs update checks against the configured installer toolchain.
type Checker struct {
	cfg      *config.Config
	reg      *registry.Registry
	hub      *notify.Hub
	logger   *slog.Logger
	store    *state.Store
	runner   Requester
	notifier notifications.Service

	// toolCmd is the installer command the runner also spawns, so installs
	// and version lookups always go through the same toolchain.
	toolCmd []string

	mu        sync.Mutex
	checking  bool
	lastCheck time.Time
	results   map[string]Result
	done      chan struct{}
}

// New builds a checker from options.
func New(opts Options) (*Checker, error) {
	if opts.Config == nil {
		return nil, errors.New("checker requires a config")
	}
	if opts.Registry == nil {
		return nil, errors.New("checker requires a registry")
	}
	if opts.Hub == nil {
		return nil, errors.New("checker requires a notification hub")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(opts.Config)
	}
	toolCmd := opts.Config.Install.Command
	if len(toolCmd) == 0 {
		toolCmd = []string{"go"}
	}
	return &Checker{
		cfg:      opts.Config,
		reg:      opts.Registry,
		hub:      opts.Hub,
		logger:   logging.NewComponentLogger(opts.Logger, "checker"),
		store:    opts.Store,
		runner:   opts.Runner,
		notifier: notifier,
		toolCmd:  toolCmd,
		results:  make(map[string]Result),
	}, nil
}

// Check starts an asynchronous update check over every registered binary.
// A check already in flight is left alone.
func (c *Checker) Check(opts CheckOptions) {
	c.check(checkOptions{silent: opts.Silent})
}

func (c *Checker) check(opts checkOptions) {
	targets := c.checkTargets()
	if len(targets) == 0 {
		if !opts.silent {
			c.hub.Infof("no tools declared to check")
		}
		return
	}

	c.mu.Lock()
	if c.checking {
		c.mu.Unlock()
		if !opts.silent {
			c.hub.Warnf("an update check is already running")
		}
		return
	}
	c.checking = true
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.logger.Info("check started", logging.Int("tools", len(targets)))
	c.hub.StateChanged()
	go c.run(targets, opts, done)
}

// target pairs a registered binary with its resolved on-disk path. The path
// is empty when the binary is not installed; its stamped version then reads
// as unknown while the latest version is still looked up.
type target struct {
	binary registry.Binary
	path   string
}

func (c *Checker) checkTargets() []target {
	entries := c.reg.List()
	targets := make([]target, 0, len(entries))
	for _, entry := range entries {
		path, _ := c.reg.ResolvePath(entry.Name)
		targets = append(targets, target{binary: entry, path: path})
	}
	return targets
}

// run performs the fan-out. Two goroutines per binary resolve the installed
// and latest versions independently; the barrier waits for all of them
// before comparing, persisting, and announcing.
func (c *Checker) run(targets []target, opts checkOptions, done chan struct{}) {
	ctx := context.Background()
	installed := make([]string, len(targets))
	installedErrs := make([]error, len(targets))
	latest := make([]string, len(targets))
	latestErrs := make([]error, len(targets))

	// Two lookups per binary, each owning its own slot, joined by one
	// barrier before any comparison happens.
	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(2)
		go func(i int, name, path, source string) {
			defer wg.Done()
			if path == "" {
				return
			}
			version, err := c.installedVersion(ctx, path, source)
			if err != nil {
				c.logger.Warn("installed version lookup failed",
					logging.String(logging.FieldBinary, name),
					logging.Error(err))
				installedErrs[i] = err
				return
			}
			installed[i] = version
		}(i, tgt.binary.Name, tgt.path, tgt.binary.Source)
		go func(i int, source string) {
			defer wg.Done()
			version, err := c.latestVersion(ctx, source)
			if err != nil {
				c.logger.Warn("latest version lookup failed",
					logging.String(logging.FieldSource, source),
					logging.Error(err))
				latestErrs[i] = err
				return
			}
			latest[i] = version
		}(i, tgt.binary.Source)
	}
	wg.Wait()

	now := time.Now()
	var updates []string
	results := make([]Result, len(targets))
	persisted := state.CheckState{LastCheck: now.Unix(), Tools: map[string]state.ToolStatus{}}
	for i, tgt := range targets {
		res := &results[i]
		res.Binary = tgt.binary.Name
		res.Source = tgt.binary.Source
		res.InstalledVersion = installed[i]
		res.LatestVersion = latest[i]
		res.Err = installedErrs[i]
		if res.Err == nil {
			res.Err = latestErrs[i]
		}
		res.HasUpdate = res.Err == nil &&
			res.InstalledVersion != "" &&
			res.LatestVersion != "" &&
			res.InstalledVersion != res.LatestVersion
		if res.HasUpdate {
			updates = append(updates, res.Binary)
		}
		persisted.Tools[res.Binary] = state.ToolStatus{
			InstalledVersion: res.InstalledVersion,
			LatestVersion:    res.LatestVersion,
			HasUpdate:        res.HasUpdate,
		}
	}

	if err := c.store.Save(persisted); err != nil {
		c.logger.Warn("persist check state failed", logging.Error(err))
	}
	c.announce(results, updates, opts)

	// The update batch is requested before the check reads as complete so
	// a caller waiting on the check observes the batch as running.
	if opts.autoUpdate && len(updates) > 0 && c.runner != nil {
		c.logger.Info("auto-update triggered", logging.Int("tools", len(updates)))
		c.runner.Request(updates, runner.ModeUpdate)
	}

	c.mu.Lock()
	c.checking = false
	c.lastCheck = now
	c.results = make(map[string]Result, len(results))
	for _, res := range results {
		c.results[res.Binary] = res
	}
	c.mu.Unlock()
	close(done)
	c.hub.StateChanged()
}

// announce reports the check outcome on the hub. Silent runs stay quiet
// unless there is something actionable to say.
func (c *Checker) announce(results []Result, updates []string, opts checkOptions) {
	var failures int
	for _, res := range results {
		if res.Err != nil {
			failures++
			if !opts.silent {
				c.hub.Warnf("check failed for %s: %v", res.Binary, res.Err)
			}
		}
	}

	switch {
	case len(updates) > 0:
		sort.Strings(updates)
		c.hub.Infof("updates available for %d tool(s): %s", len(updates), strings.Join(updates, ", "))
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = c.notifier.NotifyUpdatesAvailable(ctx, updates)
		}()
	case !opts.silent && failures == 0:
		c.hub.Infof("all tools are up to date")
	case !opts.silent:
		c.hub.Warnf("check finished with %d failure(s)", failures)
	}
	c.logger.Info("check finished",
		logging.Int("updates", len(updates)),
		logging.Int("failures", failures))
}

// AutoCheck loads persisted findings into the cache and starts a silent
// check when auto-checking is enabled and the configured frequency has
// elapsed since the last completed check.
func (c *Checker) AutoCheck() {
	persisted := c.store.Load()
	c.preload(persisted)

	if !c.cfg.Updates.AutoCheck {
		return
	}
	freq, err := c.cfg.UpdateFrequencySeconds()
	if err != nil {
		c.logger.Warn("invalid update frequency", logging.Error(err))
		return
	}
	if persisted.LastCheck > 0 && time.Now().Unix()-persisted.LastCheck < freq {
		c.logger.Debug("auto-check skipped, within frequency window",
			logging.Int64("last_check", persisted.LastCheck))
		return
	}
	c.check(checkOptions{silent: true, autoUpdate: c.cfg.Updates.AutoUpdate})
}

// preload seeds the in-memory cache from persisted state so status output
// has findings before any check runs in this process.
func (c *Checker) preload(persisted state.CheckState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if persisted.LastCheck > 0 {
		c.lastCheck = time.Unix(persisted.LastCheck, 0)
	}
	for name, status := range persisted.Tools {
		entry, ok := c.reg.Lookup(name)
		if !ok {
			continue
		}
		c.results[name] = Result{
			Binary:           name,
			Source:           entry.Source,
			InstalledVersion: status.InstalledVersion,
			LatestVersion:    status.LatestVersion,
			HasUpdate:        status.HasUpdate,
		}
	}
}

// LoadCached seeds the in-memory cache from the persisted state file
// without starting a check.
func (c *Checker) LoadCached() {
	c.preload(c.store.Load())
}

// IsChecking reports whether a check is in flight.
func (c *Checker) IsChecking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checking
}

// LastCheck returns the completion time of the most recent check, zero when
// none has completed.
func (c *Checker) LastCheck() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCheck
}

// Results returns cached findings sorted by binary name.
func (c *Checker) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, 0, len(c.results))
	for _, res := range c.results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Binary < out[j].Binary })
	return out
}

// Updates returns the names of binaries with a pending update, sorted.
func (c *Checker) Updates() []string {
	var names []string
	for _, res := range c.Results() {
		if res.HasUpdate {
			names = append(names, res.Binary)
		}
	}
	return names
}

// Wait blocks until the in-flight check completes or the context is
// canceled. It returns immediately when no check is running.
func (c *Checker) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	checking := c.checking
	c.mu.Unlock()
	if !checking || done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
