package ocr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// CacheEntry is one remembered trigger-detection outcome.
type CacheEntry struct {
	Texts     []string `json:"texts"`
	Category  string   `json:"cat"`
	Timestamp string   `json:"ts"`
}

// DiskCache persists OCR results keyed by content hash so repeated runs over
// the same files skip recognition.
type DiskCache struct {
	mu       sync.RWMutex
	entries  map[string]CacheEntry
	FilePath string
	max      int
	prune    int
	dirty    bool
}

// NewDiskCache creates an empty cache holding at most max entries; when
// exceeded, the prune oldest entries are dropped.
func NewDiskCache(path string, max, prune int) *DiskCache {
	if max <= 0 {
		max = 5000
	}
	if prune <= 0 {
		prune = 1000
	}
	return &DiskCache{
		entries:  make(map[string]CacheEntry),
		FilePath: path,
		max:      max,
		prune:    prune,
	}
}

// LoadDiskCache reads a cache file. A missing or unreadable file yields an
// empty cache.
func LoadDiskCache(path string, max, prune int) (*DiskCache, error) {
	c := NewDiskCache(path, max, prune)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("failed to read OCR cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.entries = make(map[string]CacheEntry)
		return c, fmt.Errorf("failed to parse OCR cache: %w", err)
	}
	return c, nil
}

// Get returns the cached texts and category for a content hash.
func (c *DiskCache) Get(hash string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[hash]
	return e, ok
}

// Put records a result and prunes the oldest entries past capacity.
func (c *DiskCache) Put(hash string, texts []string, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = CacheEntry{
		Texts:     append([]string(nil), texts...),
		Category:  category,
		Timestamp: time.Now().Format("2006-01-02T15:04:05.000000"),
	}
	c.dirty = true
	if len(c.entries) <= c.max {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].Timestamp < c.entries[keys[j]].Timestamp
	})
	for _, k := range keys[:min(c.prune, len(keys))] {
		delete(c.entries, k)
	}
}

// Len returns the number of cached entries.
func (c *DiskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the cache to FilePath when it changed.
func (c *DiskCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty || c.FilePath == "" {
		return nil
	}

	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal OCR cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.FilePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(c.FilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write OCR cache: %w", err)
	}
	c.dirty = false
	return nil
}
