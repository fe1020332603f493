package scanner

import "context"

// scanLogs reports each existing log directory as a whole
func (s *Scanner) scanLogs(ctx context.Context) []CacheItem {
	var items []CacheItem
	for _, dir := range s.platformInfo.LogDirs {
		items = s.appendDir(ctx, items, dir, CacheLogs, "Logs: "+dir)
	}
	return items
}
