package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir, username string) *Info {
	caches := filepath.Join(homeDir, "Library/Caches")

	return &Info{
		OS:       MacOS,
		HomeDir:  homeDir,
		Username: username,
		SystemCacheDirs: []string{
			"/Library/Caches",
			"/System/Library/Caches",
		},
		UserCacheDirs: []string{
			caches,
			filepath.Join(homeDir, ".cache"),
		},
		AppSupportDir: filepath.Join(homeDir, "Library/Application Support"),
		BrowserCacheDirs: []Location{
			{Name: "Chrome", Path: filepath.Join(caches, "Google/Chrome")},
			{Name: "Edge", Path: filepath.Join(caches, "Microsoft/Edge")},
			{Name: "Firefox", Path: filepath.Join(caches, "Firefox")},
			{Name: "Safari", Path: filepath.Join(caches, "com.apple.Safari")},
		},
		LogDirs: []string{
			"/var/log",
			"/Library/Logs",
			filepath.Join(homeDir, "Library/Logs"),
		},
		StorageCategories: []Location{
			{Name: "Home", Path: homeDir},
			{Name: "Applications", Path: "/Applications"},
			{Name: "System", Path: "/System"},
			{Name: "Library", Path: "/Library"},
			{Name: "User Library", Path: filepath.Join(homeDir, "Library")},
			{Name: "Downloads", Path: filepath.Join(homeDir, "Downloads")},
			{Name: "Documents", Path: filepath.Join(homeDir, "Documents")},
		},
		ProtectedPaths: []string{
			"/private/etc",
			"/private/var/db",
			filepath.Join(homeDir, "Library/Preferences"),
		},
	}
}
