package yulimport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// diskCacheVersion guards against loading a cache file written by an
// incompatible format.
const diskCacheVersion = 1

// DiskCache is an optional on-disk content-hash cache that lets repeated
// CLI invocations across process restarts skip reprocessing a file whose
// content hash is unchanged. It never substitutes for Resolver's in-memory
// cache: that one is what makes cyclic-import recursion terminate within a
// single run, and correctness never depends on DiskCache being present.
type DiskCache struct {
	path string

	mu      sync.Mutex
	entries map[string]diskCacheEntry
	dirty   bool
}

type diskCacheEntry struct {
	Hash    uint64 `json:"hash"`
	Content string `json:"content"`
}

type diskCacheFile struct {
	Version int                        `json:"version"`
	Entries map[string]diskCacheEntry `json:"entries"`
}

// OpenDiskCache loads dir/yulimport-cache.json if present, or starts an
// empty cache otherwise. A missing or corrupt cache file is never an
// error: it is just treated as empty, since the disk cache is purely an
// optimization.
func OpenDiskCache(dir string) *DiskCache {
	c := &DiskCache{
		path:    filepath.Join(dir, "yulimport-cache.json"),
		entries: make(map[string]diskCacheEntry),
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return c
	}
	var onDisk diskCacheFile
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return c
	}
	if onDisk.Version != diskCacheVersion {
		return c
	}
	c.entries = onDisk.Entries
	return c
}

// Get returns the cached processed content for path and true if the hash
// of content still matches what was cached, or "" and false otherwise.
func (c *DiskCache) Get(path string, content []byte) (string, bool) {
	hash := xxhash.Sum64(content)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok || entry.Hash != hash {
		return "", false
	}
	return entry.Content, true
}

// Put records the processed output for path keyed by the hash of its raw
// input content.
func (c *DiskCache) Put(path string, rawContent []byte, processed string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = diskCacheEntry{
		Hash:    xxhash.Sum64(rawContent),
		Content: processed,
	}
	c.dirty = true
}

// Flush writes the cache to disk if it has unsaved changes.
func (c *DiskCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.Marshal(diskCacheFile{
		Version: diskCacheVersion,
		Entries: c.entries,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
