package main

import (
	"os"
	"path/filepath"
	"testing"

	"bindery/internal/testsupport"
)

// stubToolchain puts a fake go executable on PATH so commands that only
// probe for the installer's presence succeed without a real toolchain.
func stubToolchain(t *testing.T) {
	t.Helper()
	path := testsupport.WriteScript(t, filepath.Join(t.TempDir(), "toolchain"), "go", "#!/bin/sh\nexit 0\n")
	t.Setenv("PATH", filepath.Dir(path)+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestListShowsDeclaredTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "gopls")
	requireContains(t, out, "golang.org/x/tools/gopls")
	requireContains(t, out, "lsp")
	requireContains(t, out, "dlv")
}

func TestStatusRendersSections(t *testing.T) {
	env := setupCLITestEnv(t)
	stubToolchain(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "== Tools ==")
	requireContains(t, out, "== Updates ==")
	requireContains(t, out, "Last check")
	requireContains(t, out, "never")
}

func TestDoctorHealthyEnvironment(t *testing.T) {
	env := setupCLITestEnv(t)
	stubToolchain(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "== External binaries ==")
	requireContains(t, out, "[OK]")
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "History is empty.")
}

func TestTestNotifyRequiresTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without a configured ntfy topic")
	}
}
