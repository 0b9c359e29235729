package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"bindery/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Install.BinDir = filepath.Join(base, "bin")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Tools = map[string]config.Tool{}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTool declares a managed tool on the test config.
func WithTool(name, source string, tags ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools[name] = config.Tool{Source: source, Tags: tags}
	}
}

// WithConcurrency overrides the install concurrency ceiling.
func WithConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Install.Concurrency = n
	}
}

// WithUpdates sets the auto-check knobs on the test config.
func WithUpdates(autoCheck, autoUpdate bool, frequency string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Updates.AutoCheck = autoCheck
		b.cfg.Updates.AutoUpdate = autoUpdate
		b.cfg.Updates.Frequency = frequency
	}
}

// WithStubInstaller writes an executable shell script, points the install
// command at it, and prepends its directory to PATH. The script receives
// the installer arguments (verb and module@version) untouched.
func WithStubInstaller(body string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteScript(b.t, filepath.Join(b.baseDir, "stubs"), "fakego", body)
		b.cfg.Install.Command = []string{path}
		b.t.Setenv("PATH", filepath.Dir(path)+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithInstalledBinary drops a fake executable into the config's bin
// directory so the binary resolves as installed.
func WithInstalledBinary(name string) ConfigOption {
	return func(b *configBuilder) {
		WriteScript(b.t, b.cfg.Install.BinDir, name, "#!/bin/sh\nexit 0\n")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
