package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateInstall(); err != nil {
		return err
	}
	if err := c.validateUpdates(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateInstall() error {
	if len(c.Install.Command) == 0 {
		return errors.New("install.command must name an installer executable")
	}
	if c.Install.Concurrency < 1 {
		return errors.New("install.concurrency must be at least 1")
	}
	return nil
}

func (c *Config) validateUpdates() error {
	if _, err := parseFrequency(c.Updates.Frequency); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTools() error {
	for name, tool := range c.Tools {
		if tool.Source == "" {
			return fmt.Errorf("tools.%s.source must be set", name)
		}
	}
	return nil
}
