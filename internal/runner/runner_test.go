package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/notify"
	"bindery/internal/registry"
	"bindery/internal/runner"
	"bindery/internal/testsupport"
)

const okScript = `#!/bin/sh
echo "compiling $2"
echo ""
echo "installed $2"
exit 0
`

const failScript = `#!/bin/sh
echo "build constraints exclude all Go files" 1>&2
exit 1
`

const sleepScript = `#!/bin/sh
sleep 30
`

type eventLog struct {
	mu     sync.Mutex
	events []notify.Event
}

func (l *eventLog) record(event notify.Event) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) messages(kind notify.Kind) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, event := range l.events {
		if event.Kind == kind {
			out = append(out, event.Message)
		}
	}
	return out
}

func newRunner(t *testing.T, cfg *config.Config) (*runner.Runner, *eventLog) {
	t.Helper()

	hub := notify.NewHub()
	log := &eventLog{}
	hub.Subscribe(log.record)

	r, err := runner.New(runner.Options{
		Config:   cfg,
		Registry: registry.FromConfig(cfg),
		Hub:      hub,
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}
	return r, log
}

func waitBatch(t *testing.T, r *runner.Runner) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("batch did not finish: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func taskByName(infos []runner.TaskInfo, name string) (runner.TaskInfo, bool) {
	for _, info := range infos {
		if info.Binary == name {
			return info, true
		}
	}
	return runner.TaskInfo{}, false
}

func TestRequestRunsTasksToDone(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(okScript),
		testsupport.WithTool("gopls", "golang.org/x/tools/gopls"),
		testsupport.WithTool("dlv", "github.com/go-delve/delve/cmd/dlv"),
	)
	r, _ := newRunner(t, cfg)

	r.Request([]string{"gopls", "dlv"}, runner.ModeInstall)
	waitBatch(t, r)

	stats := r.Stats()
	if stats.Done != 2 || stats.Failed != 0 {
		t.Fatalf("expected 2 done, got %+v", stats)
	}
	info, ok := taskByName(r.Tasks(), "gopls")
	if !ok {
		t.Fatal("gopls task missing")
	}
	if info.State != runner.StateDone {
		t.Fatalf("expected done, got %s", info.State)
	}
	want := []string{
		"compiling golang.org/x/tools/gopls@latest",
		"installed golang.org/x/tools/gopls@latest",
	}
	if len(info.Output) != len(want) {
		t.Fatalf("expected %d output lines (blank dropped), got %v", len(want), info.Output)
	}
	for i, line := range want {
		if info.Output[i] != line {
			t.Fatalf("output[%d] = %q, want %q", i, info.Output[i], line)
		}
	}
	if info.StartedAt.IsZero() || info.FinishedAt.IsZero() {
		t.Fatal("expected start and finish timestamps")
	}
}

func TestFailedInstallerMarksTaskFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(failScript),
		testsupport.WithTool("gopls", "golang.org/x/tools/gopls"),
	)
	r, _ := newRunner(t, cfg)

	r.Request([]string{"gopls"}, runner.ModeInstall)
	waitBatch(t, r)

	info, _ := taskByName(r.Tasks(), "gopls")
	if info.State != runner.StateFailed {
		t.Fatalf("expected failed, got %s", info.State)
	}
	joined := strings.Join(info.Output, "\n")
	if !strings.Contains(joined, "build constraints") {
		t.Fatalf("expected stderr captured in output, got %q", joined)
	}
}

func TestConcurrencyOneRunsInRequestOrder(t *testing.T) {
	orderLog := filepath.Join(t.TempDir(), "order.log")
	t.Setenv("ORDER_LOG", orderLog)
	script := "#!/bin/sh\necho \"$2\" >> \"$ORDER_LOG\"\nexit 0\n"

	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(script),
		testsupport.WithConcurrency(1),
		testsupport.WithTool("ccc", "example.com/ccc"),
		testsupport.WithTool("aaa", "example.com/aaa"),
		testsupport.WithTool("bbb", "example.com/bbb"),
	)
	r, _ := newRunner(t, cfg)

	r.Request([]string{"ccc", "aaa", "bbb"}, runner.ModeInstall)
	waitBatch(t, r)

	data, err := os.ReadFile(orderLog)
	if err != nil {
		t.Fatalf("read order log: %v", err)
	}
	got := strings.Fields(string(data))
	want := []string{"example.com/ccc@latest", "example.com/aaa@latest", "example.com/bbb@latest"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q (request order must hold)", i, got[i], want[i])
		}
	}
}

func TestConcurrencyCeilingHolds(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(sleepScript),
		testsupport.WithConcurrency(2),
		testsupport.WithTool("a", "example.com/a"),
		testsupport.WithTool("b", "example.com/b"),
		testsupport.WithTool("c", "example.com/c"),
	)
	r, _ := newRunner(t, cfg)

	r.Request([]string{"a", "b", "c"}, runner.ModeInstall)
	waitFor(t, func() bool { return r.Stats().Running == 2 }, "two running tasks")

	for i := 0; i < 20; i++ {
		stats := r.Stats()
		if stats.Running > 2 {
			t.Fatalf("running count %d exceeds concurrency 2", stats.Running)
		}
		if stats.Pending != 1 {
			t.Fatalf("expected third task pending, got %+v", stats)
		}
		time.Sleep(5 * time.Millisecond)
	}

	r.Abort()
	waitBatch(t, r)
}

func TestMixedBatchCompletes(t *testing.T) {
	script := `#!/bin/sh
case "$2" in
  example.com/good@latest) exit 0 ;;
  *) echo "cannot find module" 1>&2; exit 1 ;;
esac
`
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(script),
		testsupport.WithTool("good", "example.com/good"),
		testsupport.WithTool("bad", "example.com/bad"),
	)
	r, _ := newRunner(t, cfg)

	r.Request([]string{"good", "bad"}, runner.ModeInstall)
	waitBatch(t, r)

	if r.IsRunning() {
		t.Fatal("batch must be inactive once every task is terminal")
	}
	stats := r.Stats()
	if stats.Done != 1 || stats.Failed != 1 || stats.Pending != 0 || stats.Running != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestInstallSkipsAlreadyInstalled(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(okScript),
		testsupport.WithTool("gopls", "golang.org/x/tools/gopls"),
		testsupport.WithTool("dlv", "github.com/go-delve/delve/cmd/dlv"),
		testsupport.WithInstalledBinary("gopls"),
	)
	r, _ := newRunner(t, cfg)

	r.Request([]string{"gopls", "dlv"}, runner.ModeInstall)
	waitBatch(t, r)

	infos := r.Tasks()
	if len(infos) != 1 {
		t.Fatalf("expected one task after install filter, got %d", len(infos))
	}
	if infos[0].Binary != "dlv" {
		t.Fatalf("expected dlv task, got %s", infos[0].Binary)
	}
}

func TestInstallWithNothingMissingIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(okScript),
		testsupport.WithTool("gopls", "golang.org/x/tools/gopls"),
		testsupport.WithInstalledBinary("gopls"),
	)
	r, log := newRunner(t, cfg)

	r.Request([]string{"gopls"}, runner.ModeInstall)

	if r.IsRunning() {
		t.Fatal("no-op request must not start a batch")
	}
	infos := log.messages(notify.KindInfo)
	if len(infos) == 0 || !strings.Contains(infos[0], "nothing to install") {
		t.Fatalf("expected nothing-to-install info, got %v", infos)
	}
}

func TestUnknownNamesWarnAndAreSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(okScript),
		testsupport.WithTool("gopls", "golang.org/x/tools/gopls"),
	)
	r, log := newRunner(t, cfg)

	r.Request([]string{"gopls", "nonesuch"}, runner.ModeUpdate)
	waitBatch(t, r)

	warnings := log.messages(notify.KindWarning)
	found := false
	for _, msg := range warnings {
		if strings.Contains(msg, "nonesuch") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected warning for unknown name, got %v", warnings)
	}
	if len(r.Tasks()) != 1 {
		t.Fatalf("expected one task, got %d", len(r.Tasks()))
	}
}

func TestSecondRequestWhileRunningIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(sleepScript),
		testsupport.WithTool("a", "example.com/a"),
		testsupport.WithTool("b", "example.com/b"),
	)
	r, log := newRunner(t, cfg)

	r.Request([]string{"a"}, runner.ModeInstall)
	waitFor(t, r.IsRunning, "first batch running")

	r.Request([]string{"b"}, runner.ModeInstall)

	warnings := log.messages(notify.KindWarning)
	found := false
	for _, msg := range warnings {
		if strings.Contains(msg, "already running") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected already-running warning, got %v", warnings)
	}
	if len(r.Tasks()) != 1 || r.Tasks()[0].Binary != "a" {
		t.Fatal("second request must not replace the active batch")
	}

	r.Abort()
	waitBatch(t, r)
}

func TestAbortKillsRunningAndLeavesPending(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(sleepScript),
		testsupport.WithConcurrency(1),
		testsupport.WithTool("a", "example.com/a"),
		testsupport.WithTool("b", "example.com/b"),
	)
	r, _ := newRunner(t, cfg)

	r.Request([]string{"a", "b"}, runner.ModeInstall)
	waitFor(t, func() bool { return r.Stats().Running == 1 }, "first task running")

	r.Abort()

	if r.IsRunning() {
		t.Fatal("abort must deactivate the batch immediately")
	}
	waitBatch(t, r)

	// Give the killed process's exit event time to arrive; it must not
	// move the task out of its terminal state.
	time.Sleep(200 * time.Millisecond)

	infos := r.Tasks()
	first, _ := taskByName(infos, "a")
	if first.State != runner.StateFailed {
		t.Fatalf("aborted task should be failed, got %s", first.State)
	}
	if len(first.Output) == 0 || !strings.Contains(strings.Join(first.Output, "\n"), "Aborted by user") {
		t.Fatalf("expected aborted marker in output, got %v", first.Output)
	}
	second, _ := taskByName(infos, "b")
	if second.State != runner.StatePending {
		t.Fatalf("pending task must stay pending after abort, got %s", second.State)
	}
}

func TestMissingInstallerRefusesBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTool("gopls", "golang.org/x/tools/gopls"),
	)
	cfg.Install.Command = []string{"definitely-not-a-real-installer"}
	r, log := newRunner(t, cfg)

	r.Request([]string{"gopls"}, runner.ModeInstall)

	if r.IsRunning() {
		t.Fatal("batch must not start without an installer")
	}
	errs := log.messages(notify.KindError)
	if len(errs) == 0 || !strings.Contains(errs[0], "not found") {
		t.Fatalf("expected installer-not-found error, got %v", errs)
	}
}

func TestOnCompleteCallbackFires(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubInstaller(okScript),
	)
	hub := notify.NewHub()
	reg := registry.New(cfg.Install.BinDir)
	results := make(chan bool, 1)
	reg.Register(registry.Binary{
		Name:       "gopls",
		Source:     "golang.org/x/tools/gopls",
		OnComplete: func(success bool) { results <- success },
	})

	r, err := runner.New(runner.Options{
		Config:   cfg,
		Registry: reg,
		Hub:      hub,
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}

	r.Request([]string{"gopls"}, runner.ModeInstall)
	waitBatch(t, r)

	select {
	case success := <-results:
		if !success {
			t.Fatal("expected success callback")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
}
