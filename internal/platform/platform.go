package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Location is a named well-known directory
type Location struct {
	Name string
	Path string
}

// Info contains platform-specific information and paths
type Info struct {
	OS       Platform
	HomeDir  string
	Username string

	SystemCacheDirs  []string
	UserCacheDirs    []string
	AppSupportDir    string
	BrowserCacheDirs []Location
	LogDirs          []string

	// StorageCategories are the directories the storage summary measures
	StorageCategories []Location

	// ProtectedPaths are added to the deletion validator's built-in list
	ProtectedPaths []string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information for the current user
func GetInfo() (*Info, error) {
	homeDir, username, err := currentUser()
	if err != nil {
		return nil, err
	}
	return ForHome(Detect(), homeDir, username)
}

// ForHome builds the path table for the given platform and home directory
func ForHome(p Platform, homeDir, username string) (*Info, error) {
	switch p {
	case MacOS:
		return getMacOSInfo(homeDir, username), nil
	case Linux:
		return getLinuxInfo(homeDir, username), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// DefaultScanRoot is the directory scanned when none is given: the user's home
func DefaultScanRoot() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if homeDir, _, err := currentUser(); err == nil {
		return homeDir
	}
	return "."
}

func currentUser() (string, string, error) {
	u, err := user.Current()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", "", err
		}
		return home, filepath.Base(home), nil
	}
	return u.HomeDir, u.Username, nil
}

// GetUserConfigDir returns the user's config directory
func GetUserConfigDir() (string, error) {
	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		return configDir, nil
	}
	home, _, err := currentUser()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
