package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate verifies the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateAlert(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server base_url %q is not a valid URL: %w", c.Server.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server base_url %q must use http or https", c.Server.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server base_url %q is missing a host", c.Server.BaseURL)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.PollInterval < 1 {
		return fmt.Errorf("watch poll_interval must be at least 1 second, got %d", c.Watch.PollInterval)
	}
	if c.Watch.StaffPollInterval < 1 {
		return fmt.Errorf("watch staff_poll_interval must be at least 1 second, got %d", c.Watch.StaffPollInterval)
	}
	return nil
}

func (c *Config) validateAlert() error {
	if c.Alert.Threshold < 1 {
		return fmt.Errorf("alert threshold must be at least 1, got %d", c.Alert.Threshold)
	}
	if c.Alert.FlagTTLMinutes < 1 {
		return fmt.Errorf("alert flag_ttl_minutes must be at least 1, got %d", c.Alert.FlagTTLMinutes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
