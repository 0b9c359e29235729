package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Install contains configuration for the installer subprocess.
type Install struct {
	// Command is the installer argument vector prefix, e.g. ["go"].
	Command []string `toml:"command"`
	// Concurrency is the maximum number of simultaneously running installs.
	Concurrency int `toml:"concurrency"`
	// BinDir is the directory installed binaries land in. When empty it is
	// resolved from GOBIN, then GOPATH/bin, then ~/go/bin.
	BinDir string `toml:"bin_dir"`
}

// Updates contains configuration for background update checking.
type Updates struct {
	AutoCheck  bool   `toml:"auto_check"`
	AutoUpdate bool   `toml:"auto_update"`
	// Frequency is "daily", "weekly", or a number of hours.
	Frequency string `toml:"frequency"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Updates        bool   `toml:"updates"`
	Batches        bool   `toml:"batches"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Tool declares a managed binary: the module path it is installed from and
// optional display tags.
type Tool struct {
	Source string   `toml:"source"`
	Tags   []string `toml:"tags"`
}

// Config encapsulates all configuration values for bindery.
type Config struct {
	Install       Install         `toml:"install"`
	Updates       Updates         `toml:"updates"`
	Paths         Paths           `toml:"paths"`
	Notifications Notifications   `toml:"notifications"`
	Logging       Logging         `toml:"logging"`
	Tools         map[string]Tool `toml:"tools"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bindery/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found; defaults apply when it was not.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bindery.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// InstallerName returns the executable name of the installer command.
func (c *Config) InstallerName() string {
	if len(c.Install.Command) == 0 {
		return ""
	}
	return c.Install.Command[0]
}

// StatePath returns the location of the persisted update-check state.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.DataDir, "state.json")
}

// HistoryPath returns the location of the install history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// UpdateFrequencySeconds translates the configured check frequency into
// seconds. "daily" is 86400, "weekly" is 604800, and a bare number is read
// as hours.
func (c *Config) UpdateFrequencySeconds() (int64, error) {
	return parseFrequency(c.Updates.Frequency)
}

func parseFrequency(value string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "daily":
		return 86400, nil
	case "weekly":
		return 604800, nil
	}
	hours, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("updates.frequency: %q is not daily, weekly, or a positive hour count", value)
	}
	return hours * 3600, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
