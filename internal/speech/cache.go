package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/souschef/internal/logger"
)

// AudioCache is a two-tier cache (memory, then an optional directory) for
// synthesized audio. Keys hash voice, rate and text together, so changing
// either setting misses until it is switched back. Safe for concurrent use.
type AudioCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	log     *logger.Logger
	prefix  string // voice + ":" + rate + ":"
	dir     string // empty disables the disk layer

	hits, misses int64
}

// NewAudioCache creates an audio cache. An empty dir keeps entries in
// memory only.
func NewAudioCache(voice, rate, dir string, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		entries: make(map[string][]byte),
		log:     log,
		prefix:  voice + ":" + rate + ":",
		dir:     dir,
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("cache: creating %s: %v, using memory only", dir, err)
			c.dir = ""
		}
	}
	return c
}

// Get returns cached audio for text, checking memory then disk.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.key(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok && c.dir != "" {
		if b, err := os.ReadFile(c.path(key)); err == nil {
			data, ok = b, true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.misses++
		return nil, false
	}
	c.entries[key] = data
	c.hits++
	c.log.Debug("cache hit: %s (%d bytes)", truncate(text, 40), len(data))
	return data, true
}

// Put stores audio for text in memory and, when enabled, on disk.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.key(text)

	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.dir == "" {
		return
	}
	if err := os.WriteFile(c.path(key), audio, 0o644); err != nil {
		c.log.Warn("cache: disk write failed for %s: %v", key[:12], err)
	}
}

// Len returns the number of in-memory entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *AudioCache) key(text string) string {
	h := sha256.Sum256([]byte(c.prefix + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".wav")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
