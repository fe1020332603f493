package scanner

import (
	"path/filepath"
	"strings"
	"time"
)

// FileInfo represents a file found by the large-file scan
type FileInfo struct {
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// Extension returns the lowercased file extension without the dot
func (f FileInfo) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Path)), ".")
}

// CacheType classifies a reclaimable directory
type CacheType string

const (
	CacheSystem      CacheType = "System"
	CacheUser        CacheType = "User"
	CacheApplication CacheType = "Application"
	CacheBrowser     CacheType = "Browser"
	CacheLogs        CacheType = "Logs"
)

// CacheItem is one reclaimable cache or log directory
type CacheItem struct {
	Path        string    `json:"path" yaml:"path"`
	Size        int64     `json:"size" yaml:"size"`
	Type        CacheType `json:"type" yaml:"type"`
	Description string    `json:"description" yaml:"description"`
}

// TotalSize sums the sizes of items
func TotalSize(items []CacheItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Size
	}
	return total
}
