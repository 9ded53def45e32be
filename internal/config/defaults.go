package config

const (
	defaultBaseURL           = "http://localhost:8080"
	defaultRequestTimeout    = 10
	defaultPollInterval      = 5
	defaultStaffPollInterval = 1
	defaultAlertThreshold    = 1
	defaultFlagTTLMinutes    = 10
	defaultNtfyTimeout       = 10
	defaultStateDir          = "~/.local/share/standwatch"
	defaultLogDir            = "~/.local/share/standwatch/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Watch: Watch{
			PollInterval:      defaultPollInterval,
			StaffPollInterval: defaultStaffPollInterval,
		},
		Alert: Alert{
			Threshold:      defaultAlertThreshold,
			FlagTTLMinutes: defaultFlagTTLMinutes,
			RequestTimeout: defaultNtfyTimeout,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
