package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeInstall(); err != nil {
		return err
	}
	c.normalizeUpdates()
	c.normalizeTools()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeInstall() error {
	command := make([]string, 0, len(c.Install.Command))
	for _, part := range c.Install.Command {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			command = append(command, trimmed)
		}
	}
	if len(command) == 0 {
		command = []string{"go"}
	}
	c.Install.Command = command

	if c.Install.Concurrency <= 0 {
		c.Install.Concurrency = defaultConcurrency
	}

	if strings.TrimSpace(c.Install.BinDir) == "" {
		c.Install.BinDir = defaultBinDir()
	}
	var err error
	if c.Install.BinDir, err = expandPath(c.Install.BinDir); err != nil {
		return fmt.Errorf("install.bin_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeUpdates() {
	c.Updates.Frequency = strings.ToLower(strings.TrimSpace(c.Updates.Frequency))
	if c.Updates.Frequency == "" {
		c.Updates.Frequency = defaultFrequency
	}
}

func (c *Config) normalizeTools() {
	if len(c.Tools) == 0 {
		return
	}
	tools := make(map[string]Tool, len(c.Tools))
	for name, tool := range c.Tools {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tool.Source = strings.TrimSpace(tool.Source)
		tags := make([]string, 0, len(tool.Tags))
		seen := make(map[string]struct{}, len(tool.Tags))
		for _, tag := range tool.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
		tool.Tags = tags
		tools[name] = tool
	}
	c.Tools = tools
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultBinDir() string {
	if gobin := strings.TrimSpace(os.Getenv("GOBIN")); gobin != "" {
		return gobin
	}
	if gopath := strings.TrimSpace(os.Getenv("GOPATH")); gopath != "" {
		return filepath.Join(gopath, "bin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/go/bin"
	}
	return filepath.Join(home, "go", "bin")
}
