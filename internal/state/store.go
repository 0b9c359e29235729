package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"bindery/internal/logging"
)

// ToolStatus is the persisted version comparison for one binary.
type ToolStatus struct {
	InstalledVersion string `json:"installed_version,omitempty"`
	LatestVersion    string `json:"latest_version,omitempty"`
	HasUpdate        bool   `json:"has_update"`
}

// CheckState is the full persisted document.
type CheckState struct {
	// LastCheck is the completion time of the most recent check, in epoch
	// seconds. Zero means no check has completed yet.
	LastCheck int64                 `json:"last_check"`
	Tools     map[string]ToolStatus `json:"tools"`
}

// Store reads and writes the check-state document.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewStore creates a store for the document at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "state"),
	}
}

// Load reads the persisted state. Missing or unreadable documents come back
// as empty state.
func (s *Store) Load() CheckState {
	empty := CheckState{Tools: map[string]ToolStatus{}}
	if s == nil || s.path == "" {
		return empty
	}

	if err := s.lock.RLock(); err == nil {
		defer func() { _ = s.lock.Unlock() }()
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read state file failed", logging.Error(err))
		}
		return empty
	}
	if len(data) == 0 {
		return empty
	}

	var loaded CheckState
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("state file malformed, starting empty", logging.Error(err))
		return empty
	}
	if loaded.Tools == nil {
		loaded.Tools = map[string]ToolStatus{}
	}
	return loaded
}

// Save atomically replaces the persisted state.
func (s *Store) Save(cs CheckState) error {
	if s == nil || s.path == "" {
		return nil
	}
	if cs.Tools == nil {
		cs.Tools = map[string]ToolStatus{}
	}

	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}
