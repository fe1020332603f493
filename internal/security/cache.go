package security

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// CacheEntry represents a cached validation result
type CacheEntry struct {
	Path    string
	Result  error
	Expires time.Time
}

// PathValidatorCache caches validation results keyed by a 64-bit hash of
// the cleaned path. Entries expire after ttl; when full, expired entries are
// purged first and then an arbitrary entry is evicted.
type PathValidatorCache struct {
	mu      sync.RWMutex
	cache   map[uint64]*CacheEntry
	maxSize int
	ttl     time.Duration
}

// NewPathValidatorCache creates a new path validation cache
func NewPathValidatorCache(maxSize int, ttl time.Duration) *PathValidatorCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &PathValidatorCache{
		cache:   make(map[uint64]*CacheEntry, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func hashPath(path string) uint64 {
	return xxhash.Sum64String(filepath.Clean(path))
}

// Get retrieves a cached validation result
func (pvc *PathValidatorCache) Get(path string) (error, bool) {
	clean := filepath.Clean(path)

	pvc.mu.RLock()
	defer pvc.mu.RUnlock()

	entry, exists := pvc.cache[hashPath(clean)]
	if !exists || entry.Path != clean {
		return nil, false
	}
	if time.Now().After(entry.Expires) {
		return nil, false
	}

	return entry.Result, true
}

// Set stores a validation result in the cache
func (pvc *PathValidatorCache) Set(path string, result error) {
	clean := filepath.Clean(path)
	key := hashPath(clean)

	pvc.mu.Lock()
	defer pvc.mu.Unlock()

	if _, exists := pvc.cache[key]; !exists && len(pvc.cache) >= pvc.maxSize {
		pvc.evict()
	}

	pvc.cache[key] = &CacheEntry{
		Path:    clean,
		Result:  result,
		Expires: time.Now().Add(pvc.ttl),
	}
}

// Len returns the number of cached entries
func (pvc *PathValidatorCache) Len() int {
	pvc.mu.RLock()
	defer pvc.mu.RUnlock()
	return len(pvc.cache)
}

// Clear drops every cached entry
func (pvc *PathValidatorCache) Clear() {
	pvc.mu.Lock()
	defer pvc.mu.Unlock()
	pvc.cache = make(map[uint64]*CacheEntry, pvc.maxSize)
}

// evict must be called with mu held
func (pvc *PathValidatorCache) evict() {
	now := time.Now()
	for key, entry := range pvc.cache {
		if now.After(entry.Expires) {
			delete(pvc.cache, key)
		}
	}
	if len(pvc.cache) < pvc.maxSize {
		return
	}
	for key := range pvc.cache {
		delete(pvc.cache, key)
		break
	}
}

// ValidateCached wraps ValidatePathForDeletion with caching
func (pv *PathValidator) ValidateCached(path string) error {
	if pv.cache == nil {
		pv.cache = NewPathValidatorCache(10000, 5*time.Minute)
	}

	if result, found := pv.cache.Get(path); found {
		return result
	}

	err := pv.ValidatePathForDeletion(path)
	pv.cache.Set(path, err)

	return err
}
