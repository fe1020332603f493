package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/walker"
)

// ScanCaches measures every well-known cache and log directory that exists
// and returns the non-empty ones, largest first. Unreadable directories are
// skipped. Cancelling ctx returns what was measured so far.
func (s *Scanner) ScanCaches(ctx context.Context) []CacheItem {
	var items []CacheItem
	info := s.platformInfo

	for _, dir := range info.SystemCacheDirs {
		items = s.appendDir(ctx, items, dir, CacheSystem, "System Cache")
	}
	for _, dir := range info.UserCacheDirs {
		items = s.appendDir(ctx, items, dir, CacheUser, "User Cache")
	}
	items = append(items, s.scanApplicationCaches(ctx)...)
	items = append(items, s.scanBrowserCaches(ctx)...)
	items = append(items, s.scanLogs(ctx)...)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Size > items[j].Size
	})
	return items
}

// scanApplicationCaches reports application support folders whose name
// mentions cache or temp. Nested matches inside a reported folder are not
// reported again.
func (s *Scanner) scanApplicationCaches(ctx context.Context) []CacheItem {
	root := s.platformInfo.AppSupportDir
	if root == "" {
		return nil
	}

	entries, err := walker.Walk(ctx, root)
	if err != nil {
		s.log.Debug("application support not readable", logging.KeyPath, root, logging.Err(err))
		return nil
	}

	var items []CacheItem
	var reported []string

	for entry := range entries {
		if !entry.IsDir || entry.Path == root || underAny(entry.Path, reported) {
			continue
		}
		name := filepath.Base(entry.Path)
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "cache") && !strings.Contains(lower, "temp") {
			continue
		}

		reported = append(reported, entry.Path)
		rel, _ := filepath.Rel(root, entry.Path)
		items = s.appendDir(ctx, items, entry.Path, CacheApplication, "App Cache: "+rel)
	}
	return items
}

func (s *Scanner) scanBrowserCaches(ctx context.Context) []CacheItem {
	var items []CacheItem
	for _, loc := range s.platformInfo.BrowserCacheDirs {
		items = s.appendDir(ctx, items, loc.Path, CacheBrowser, loc.Name+" Cache")
	}
	return items
}

// appendDir measures dir and appends it when it exists and is non-empty
func (s *Scanner) appendDir(ctx context.Context, items []CacheItem, dir string, kind CacheType, description string) []CacheItem {
	if ctx.Err() != nil {
		return items
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return items
	}

	size, err := walker.DirSize(ctx, dir)
	if err != nil && ctx.Err() == nil {
		s.log.Debug("cannot measure directory", logging.KeyPath, dir, logging.Err(err))
		return items
	}
	if size == 0 {
		return items
	}

	return append(items, CacheItem{Path: dir, Size: size, Type: kind, Description: description})
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
