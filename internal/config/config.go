package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/reclaim/internal/platform"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// ScheduleParser parses daemon schedules: standard five-field cron
// expressions plus descriptors such as @daily.
var ScheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config represents the application configuration
type Config struct {
	ScanRoot       string           `yaml:"scan_root"`
	DryRun         bool             `yaml:"dry_run"`
	VerifyContent  bool             `yaml:"verify_content"`
	ProtectedPaths []string         `yaml:"protected_paths"`
	LargeFiles     LargeFilesConfig `yaml:"large_files"`
	Logging        LoggingConfig    `yaml:"logging"`
	Daemon         DaemonConfig     `yaml:"daemon"`
}

// LargeFilesConfig holds large file scan settings
type LargeFilesConfig struct {
	MinSize string `yaml:"min_size"` // e.g. "100MB"
}

// LoggingConfig holds structured logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // empty means stderr
}

// DaemonConfig holds daemon mode configuration
type DaemonConfig struct {
	Enabled   bool           `yaml:"enabled"`
	PidFile   string         `yaml:"pid_file"`
	ReportDir string         `yaml:"report_dir"`
	Schedules []ScanSchedule `yaml:"schedules"`
}

// ScanSchedule defines a scheduled duplicate scan
type ScanSchedule struct {
	Name     string `yaml:"name"`
	Schedule string `yaml:"schedule"` // Cron expression
	Root     string `yaml:"root"`
}

// Load loads configuration from a file. Keys missing from the file keep
// their default values.
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.MinLargeFileSize(); err != nil {
		return fmt.Errorf("large_files.min_size: %w", err)
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(ExpandPath(path)) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}

	seen := make(map[string]bool, len(c.Daemon.Schedules))
	for _, s := range c.Daemon.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedule name must not be empty")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate schedule name: %s", s.Name)
		}
		seen[s.Name] = true

		if _, err := ScheduleParser.Parse(s.Schedule); err != nil {
			return fmt.Errorf("schedule %s: invalid cron expression %q: %w", s.Name, s.Schedule, err)
		}
		if s.Root != "" && !filepath.IsAbs(ExpandPath(s.Root)) {
			return fmt.Errorf("schedule %s: root must be absolute: %s", s.Name, s.Root)
		}
	}

	return nil
}

// MinLargeFileSize returns large_files.min_size in bytes
func (c *Config) MinLargeFileSize() (int64, error) {
	if c.LargeFiles.MinSize == "" {
		return DefaultMinLargeFileSize, nil
	}
	return utils.ParseSize(c.LargeFiles.MinSize)
}

// ResolvedScanRoot returns the configured scan root with ~ expanded, or the
// home directory when none is set.
func (c *Config) ResolvedScanRoot() string {
	if c.ScanRoot == "" {
		return platform.DefaultScanRoot()
	}
	return ExpandPath(c.ScanRoot)
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	configDir, err := platform.GetUserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "reclaim", "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}
