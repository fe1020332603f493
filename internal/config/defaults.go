package config

// DefaultMinLargeFileSize is the large-file threshold in bytes (100 MB)
const DefaultMinLargeFileSize int64 = 100 * 1024 * 1024

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		ScanRoot:      "", // home directory
		DryRun:        false,
		VerifyContent: false,
		// Built-in system paths are always protected; these are extra
		ProtectedPaths: []string{},
		LargeFiles: LargeFilesConfig{
			MinSize: "100MB",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Daemon: DaemonConfig{
			Enabled:   false,
			PidFile:   "~/.config/reclaim/reclaimd.pid",
			ReportDir: "~/.config/reclaim/reports",
			Schedules: []ScanSchedule{
				{Name: "weekly-home", Schedule: "0 3 * * 0", Root: "~"},
			},
		},
	}
}

// GetExampleConfig returns an example configuration with comments. It
// parses to the same values as GetDefault.
func GetExampleConfig() string {
	return `# reclaim configuration file
# Location: ~/.config/reclaim/config.yaml

# Directory scanned when no root is given (empty = home directory)
scan_root: ""

# Dry-run mode - report what would be deleted without deleting
dry_run: false

# Byte-compare every duplicate against its group's first member after hashing
verify_content: false

# Extra paths that must never be deleted. System directories such as
# /System, /usr, /etc and /var are always protected.
protected_paths: []

large_files:
  # Minimum size reported by "reclaim large"
  min_size: "100MB"

logging:
  level: "info"    # debug, info, warn, error
  format: "text"   # text or json
  file: ""         # empty logs to stderr

# ==============================================================================
# DAEMON CONFIGURATION
# ==============================================================================
# reclaimd runs report-only duplicate scans on a schedule. It never deletes.

daemon:
  enabled: false
  pid_file: "~/.config/reclaim/reclaimd.pid"
  report_dir: "~/.config/reclaim/reports"
  schedules:
    - name: "weekly-home"
      schedule: "0 3 * * 0"   # Sundays at 03:00
      root: "~"
`
}
