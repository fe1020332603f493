package platform

import (
	"os"
	"path/filepath"
)

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir, username string) *Info {
	userCache := filepath.Join(homeDir, ".cache")
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		userCache = xdg
	}

	return &Info{
		OS:       Linux,
		HomeDir:  homeDir,
		Username: username,
		SystemCacheDirs: []string{
			"/var/cache",
		},
		UserCacheDirs: []string{
			userCache,
		},
		AppSupportDir: filepath.Join(homeDir, ".local/share"),
		BrowserCacheDirs: []Location{
			{Name: "Chrome", Path: filepath.Join(userCache, "google-chrome")},
			{Name: "Chromium", Path: filepath.Join(userCache, "chromium")},
			{Name: "Edge", Path: filepath.Join(userCache, "microsoft-edge")},
			{Name: "Firefox", Path: filepath.Join(userCache, "mozilla/firefox")},
		},
		LogDirs: []string{
			"/var/log",
			filepath.Join(homeDir, ".local/share/logs"),
		},
		StorageCategories: []Location{
			{Name: "Home", Path: homeDir},
			{Name: "Applications", Path: "/opt"},
			{Name: "System", Path: "/usr"},
			{Name: "Downloads", Path: filepath.Join(homeDir, "Downloads")},
			{Name: "Documents", Path: filepath.Join(homeDir, "Documents")},
			{Name: "Desktop", Path: filepath.Join(homeDir, "Desktop")},
		},
		ProtectedPaths: []string{
			"/home",
			"/opt",
			"/run",
			"/srv",
			"/var/lib",
			filepath.Join(homeDir, ".config"),
		},
	}
}
