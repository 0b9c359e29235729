package registry

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bindery/internal/config"
)

// OnComplete is invoked after an install or update attempt for the binary
// finishes, with the success of the attempt.
type OnComplete func(success bool)

// Binary describes one managed tool.
type Binary struct {
	// Name is the executable name and the registry key.
	Name string
	// Source is the versionless module path passed to the installer.
	Source string
	// Tags identify which config sections or plugins declared the binary.
	// Display only.
	Tags []string
	// OnComplete, when set, is called after each install/update attempt.
	OnComplete OnComplete
}

// Registry is a thread-safe collection of Binary entries.
type Registry struct {
	mu       sync.RWMutex
	binaries map[string]*Binary
	binDir   string

	lookPath func(string) (string, error)
}

// New returns an empty registry. binDir is where installed binaries are
// expected; when empty, PATH lookup is used instead.
func New(binDir string) *Registry {
	return &Registry{
		binaries: make(map[string]*Binary),
		binDir:   strings.TrimSpace(binDir),
		lookPath: exec.LookPath,
	}
}

// FromConfig builds a registry seeded with the config's tool declarations.
func FromConfig(cfg *config.Config) *Registry {
	reg := New(cfg.Install.BinDir)
	names := make([]string, 0, len(cfg.Tools))
	for name := range cfg.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tool := cfg.Tools[name]
		reg.Register(Binary{Name: name, Source: tool.Source, Tags: tool.Tags})
	}
	return reg
}

// Register adds a binary or merges it into an existing entry with the same
// name: tags are unioned preserving first-seen order, and a non-nil callback
// replaces the stored one.
func (r *Registry) Register(binary Binary) {
	binary.Name = strings.TrimSpace(binary.Name)
	if binary.Name == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.binaries[binary.Name]
	if !ok {
		entry := binary
		entry.Tags = dedupeTags(nil, binary.Tags)
		r.binaries[binary.Name] = &entry
		return
	}

	if src := strings.TrimSpace(binary.Source); src != "" {
		existing.Source = src
	}
	existing.Tags = dedupeTags(existing.Tags, binary.Tags)
	if binary.OnComplete != nil {
		existing.OnComplete = binary.OnComplete
	}
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Binary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.binaries[name]
	if !ok {
		return Binary{}, false
	}
	return *entry, true
}

// List returns all entries sorted by name.
func (r *Registry) List() []Binary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Binary, 0, len(r.binaries))
	for _, entry := range r.binaries {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Names returns all registered names sorted.
func (r *Registry) Names() []string {
	entries := r.List()
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

// Len reports the number of registered binaries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.binaries)
}

// IsInstalled reports whether the binary is present on disk.
func (r *Registry) IsInstalled(name string) bool {
	_, ok := r.ResolvePath(name)
	return ok
}

// ResolvePath returns the on-disk location of an installed binary. It checks
// the configured bin directory first and falls back to PATH lookup.
func (r *Registry) ResolvePath(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	r.mu.RLock()
	binDir := r.binDir
	lookPath := r.lookPath
	r.mu.RUnlock()

	if binDir != "" {
		candidate := filepath.Join(binDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	if path, err := lookPath(name); err == nil {
		return path, true
	}
	return "", false
}

func dedupeTags(existing, extra []string) []string {
	out := make([]string, 0, len(existing)+len(extra))
	seen := make(map[string]struct{}, len(existing)+len(extra))
	for _, tag := range append(append([]string{}, existing...), extra...) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
