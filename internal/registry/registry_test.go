package registry

import (
	"os"
	"path/filepath"
	"testing"

	"bindery/internal/config"
)

func TestRegisterMergesTagsAndCallback(t *testing.T) {
	reg := New("")

	reg.Register(Binary{Name: "gopls", Source: "golang.org/x/tools/gopls", Tags: []string{"lsp"}})

	var called bool
	reg.Register(Binary{Name: "gopls", Tags: []string{"editor", "lsp"}, OnComplete: func(bool) { called = true }})

	entry, ok := reg.Lookup("gopls")
	if !ok {
		t.Fatal("expected gopls to be registered")
	}
	if entry.Source != "golang.org/x/tools/gopls" {
		t.Fatalf("source lost on merge: %q", entry.Source)
	}
	if len(entry.Tags) != 2 || entry.Tags[0] != "lsp" || entry.Tags[1] != "editor" {
		t.Fatalf("unexpected merged tags: %v", entry.Tags)
	}
	if entry.OnComplete == nil {
		t.Fatal("expected callback to be stored")
	}
	entry.OnComplete(true)
	if !called {
		t.Fatal("expected stored callback to be invoked")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", reg.Len())
	}
}

func TestListSortedByName(t *testing.T) {
	reg := New("")
	reg.Register(Binary{Name: "dlv", Source: "github.com/go-delve/delve/cmd/dlv"})
	reg.Register(Binary{Name: "air", Source: "github.com/air-verse/air"})
	reg.Register(Binary{Name: "gopls", Source: "golang.org/x/tools/gopls"})

	names := reg.Names()
	want := []string{"air", "dlv", "gopls"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected order: %v", names)
		}
	}
}

func TestResolvePathPrefersBinDir(t *testing.T) {
	binDir := t.TempDir()
	target := filepath.Join(binDir, "gopls")
	if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	reg := New(binDir)
	reg.lookPath = func(string) (string, error) { t.Fatal("PATH lookup should not run"); return "", nil }

	path, ok := reg.ResolvePath("gopls")
	if !ok {
		t.Fatal("expected binary to resolve")
	}
	if path != target {
		t.Fatalf("unexpected path: %q", path)
	}
	if !reg.IsInstalled("gopls") {
		t.Fatal("expected IsInstalled to be true")
	}
}

func TestResolvePathFallsBackToPATH(t *testing.T) {
	reg := New(t.TempDir())
	reg.lookPath = func(name string) (string, error) {
		if name != "dlv" {
			t.Fatalf("unexpected lookup: %q", name)
		}
		return "/usr/local/bin/dlv", nil
	}

	path, ok := reg.ResolvePath("dlv")
	if !ok || path != "/usr/local/bin/dlv" {
		t.Fatalf("unexpected resolution: %q %v", path, ok)
	}
}

func TestIsInstalledMissing(t *testing.T) {
	reg := New(t.TempDir())
	reg.lookPath = func(string) (string, error) { return "", os.ErrNotExist }
	if reg.IsInstalled("missing") {
		t.Fatal("expected missing binary to be reported absent")
	}
}

func TestFromConfigRegistersDeclaredTools(t *testing.T) {
	cfg := config.Default()
	cfg.Install.BinDir = t.TempDir()
	cfg.Tools = map[string]config.Tool{
		"gopls": {Source: "golang.org/x/tools/gopls", Tags: []string{"lsp"}},
		"dlv":   {Source: "github.com/go-delve/delve/cmd/dlv"},
	}

	reg := FromConfig(&cfg)
	if reg.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", reg.Len())
	}
	entry, ok := reg.Lookup("gopls")
	if !ok || entry.Source != "golang.org/x/tools/gopls" {
		t.Fatalf("unexpected entry: %#v ok=%v", entry, ok)
	}
}
