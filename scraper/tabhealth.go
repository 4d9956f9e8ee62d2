package scraper

import (
	"math"
	"sync"
	"time"
)

// Retirement thresholds for pooled tabs. A tab that keeps failing, has
// served many products, or has lived long enough is closed instead of
// returned to the pool; the pool then opens a fresh one.
const (
	tabMaxErrScore = 3.0
	tabMaxUses     = 50
	tabMaxAge      = 50 * time.Minute
)

type tabHealth struct {
	errScore float64
	uses     int
	created  time.Time
}

// tabTracker scores tabs by outcome. Success lowers the score by 0.5 (to
// a minimum of 0) and failure raises it by 1.
type tabTracker[K comparable] struct {
	mu   sync.Mutex
	tabs map[K]*tabHealth
	now  func() time.Time
}

func newTabTracker[K comparable]() *tabTracker[K] {
	return &tabTracker[K]{tabs: make(map[K]*tabHealth), now: time.Now}
}

// record applies one outcome for tab and reports whether it should be
// retired. A retired tab is forgotten.
func (t *tabTracker[K]) record(tab K, ok bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, found := t.tabs[tab]
	if !found {
		h = &tabHealth{created: t.now()}
		t.tabs[tab] = h
	}
	h.uses++
	if ok {
		h.errScore = math.Max(0, h.errScore-0.5)
	} else {
		h.errScore++
	}

	retire := h.errScore >= tabMaxErrScore ||
		h.uses >= tabMaxUses ||
		t.now().Sub(h.created) >= tabMaxAge
	if retire {
		delete(t.tabs, tab)
	}
	return retire
}

func (t *tabTracker[K]) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tabs)
}
