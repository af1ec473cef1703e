package build

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/frontedward/dictator/internal/docs"
	"github.com/frontedward/dictator/internal/markdown"
)

// RenderCache keeps rendered markdown between builds of the same site. An
// entry is reused while the doc fingerprint and the link targets of the whole
// site are unchanged. It is safe for concurrent use.
type RenderCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	key    string
	result *markdown.Result
}

// NewRenderCache returns an empty cache.
func NewRenderCache() *RenderCache {
	return &RenderCache{entries: map[string]cacheEntry{}}
}

func (c *RenderCache) get(id, key string) (*markdown.Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || e.key != key {
		return nil, false
	}
	return e.result, true
}

func (c *RenderCache) put(id, key string, res *markdown.Result) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{key: key, result: res}
}

// prune drops entries of docs that no longer exist.
func (c *RenderCache) prune(live map[string]bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.entries {
		if !live[id] {
			delete(c.entries, id)
		}
	}
}

// Len is the number of cached docs.
func (c *RenderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// linkDigest hashes everything a rendered doc's links depend on: the base
// URL and the source-to-route mapping of docs and blog posts.
func linkDigest(baseURL string, targets map[string]string) string {
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := xxhash.New()
	_, _ = h.WriteString(baseURL)
	for _, k := range keys {
		_, _ = h.WriteString("\x00" + k + "\x00" + targets[k])
	}
	return string(h.Sum(nil))
}

func cacheKey(d *docs.Doc, digest string) string {
	return d.Fingerprint + "|" + digest
}
