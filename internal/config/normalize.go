package config

import (
	"strings"
)

// normalize expands paths and fills zero values with defaults so downstream
// components never re-check them.
func (c *Config) normalize() error {
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = defaultRequestTimeout
	}

	c.Identity.Login = strings.TrimSpace(c.Identity.Login)

	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = defaultPollInterval
	}
	if c.Watch.StaffPollInterval <= 0 {
		c.Watch.StaffPollInterval = defaultStaffPollInterval
	}

	if c.Alert.Threshold <= 0 {
		c.Alert.Threshold = defaultAlertThreshold
	}
	if c.Alert.FlagTTLMinutes <= 0 {
		c.Alert.FlagTTLMinutes = defaultFlagTTLMinutes
	}
	if c.Alert.RequestTimeout <= 0 {
		c.Alert.RequestTimeout = defaultNtfyTimeout
	}
	c.Alert.NtfyTopic = strings.TrimSpace(c.Alert.NtfyTopic)

	return c.normalizePaths()
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	expandedState, err := expandPath(c.Paths.StateDir)
	if err != nil {
		return err
	}
	c.Paths.StateDir = expandedState

	expandedLog, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = expandedLog

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
