// Package cache keeps recent extraction responses in memory so repeated
// requests for the same product page can skip the browser.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/prodex/models"
)

type entry struct {
	response  models.ExtractResponse
	createdAt time.Time
}

// Cache is a bounded in-memory response cache. It is safe for concurrent
// use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
	done       chan struct{}
	once       sync.Once
}

// New creates a Cache holding at most maxEntries responses. Entries older
// than maxAge are evicted every 5 minutes whatever the per-request age.
func New(maxEntries int, maxAge time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Key identifies a response by what changes the extraction: the URL, the
// store type hint and the fetch mode.
func Key(url, storeType, fetchMode string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(storeType))
	h.Write([]byte("|"))
	h.Write([]byte(fetchMode))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached response when it is younger than
// maxAge. maxAge <= 0 never hits.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.ExtractResponse, bool) {
	if c == nil || maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}

	resp := e.response
	if resp.Product != nil {
		p := *resp.Product
		p.Images = append([]string(nil), p.Images...)
		resp.Product = &p
	}
	return &resp, true
}

// Set stores a successful response. Failures are never cached. At
// capacity an arbitrary entry is evicted.
func (c *Cache) Set(key string, resp *models.ExtractResponse) {
	if c == nil || resp == nil || !resp.Success {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[key] = &entry{response: *resp, createdAt: c.now()}
}

// Len reports the number of cached responses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop ends the cleanup goroutine.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.maxAge)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}
