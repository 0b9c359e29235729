package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	binDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("GOBIN", "")
	t.Setenv("GOPATH", "")

	binDir := filepath.Join(base, "bin")
	configPath := filepath.Join(homeDir, ".config", "bindery", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, base, binDir)

	return &cliTestEnv{baseDir: base, configPath: configPath, binDir: binDir}
}

func writeTestConfig(t *testing.T, path, base, binDir string) {
	t.Helper()
	content := fmt.Sprintf(`[install]
command = ["go"]
bin_dir = %q

[paths]
data_dir = %q
log_dir = %q

[updates]
auto_check = false

[tools.gopls]
source = "golang.org/x/tools/gopls"
tags = ["lsp"]

[tools.dlv]
source = "github.com/go-delve/delve/cmd/dlv"
`,
		binDir,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
