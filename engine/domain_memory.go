package engine

import (
	"sync"
	"time"
)

type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers which engine last extracted a complete product
// for each store domain. Entries expire after the TTL. A nil *DomainMemory
// remembers nothing.
type DomainMemory struct {
	store sync.Map // domain (string) -> *domainEntry
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts a
// goroutine that prunes expired entries every interval. Call Stop to end
// it.
func NewDomainMemory(ttl, interval time.Duration) *DomainMemory {
	dm := &DomainMemory{
		ttl:  ttl,
		now:  time.Now,
		done: make(chan struct{}),
	}
	if interval <= 0 {
		interval = time.Hour
	}
	go dm.cleanupLoop(interval)
	return dm
}

// Get returns the remembered engine for domain, or "" when none is live.
func (dm *DomainMemory) Get(domain string) string {
	if dm == nil {
		return ""
	}
	val, ok := dm.store.Load(domain)
	if !ok {
		return ""
	}
	entry := val.(*domainEntry)
	if dm.now().After(entry.expiresAt) {
		dm.store.Delete(domain)
		return ""
	}
	return entry.engineName
}

// Set records the engine that succeeded for domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	if dm == nil || domain == "" {
		return
	}
	dm.store.Store(domain, &domainEntry{
		engineName: engineName,
		expiresAt:  dm.now().Add(dm.ttl),
	})
}

// Delete forgets domain.
func (dm *DomainMemory) Delete(domain string) {
	if dm == nil {
		return
	}
	dm.store.Delete(domain)
}

// Stop terminates the cleanup goroutine. It is safe to call twice.
func (dm *DomainMemory) Stop() {
	if dm == nil {
		return
	}
	dm.once.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) prune() {
	now := dm.now()
	dm.store.Range(func(key, value any) bool {
		if now.After(value.(*domainEntry).expiresAt) {
			dm.store.Delete(key)
		}
		return true
	})
}

func (dm *DomainMemory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.prune()
		}
	}
}
