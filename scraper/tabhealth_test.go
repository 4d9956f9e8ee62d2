package scraper

import (
	"testing"
	"time"
)

func TestTabTracker_Failures(t *testing.T) {
	tr := newTabTracker[int]()
	outcomes := []struct {
		ok, wantRetire bool
	}{
		{false, false}, // 1
		{true, false},  // 0.5
		{false, false}, // 1.5
		{false, false}, // 2.5
		{false, true},  // 3.5
	}
	for i, o := range outcomes {
		if got := tr.record(1, o.ok); got != o.wantRetire {
			t.Errorf("step %d: retire = %v, want %v", i, got, o.wantRetire)
		}
	}
	if tr.size() != 0 {
		t.Error("retired tab still tracked")
	}
}

func TestTabTracker_ScoreFloor(t *testing.T) {
	tr := newTabTracker[int]()
	for range 10 {
		tr.record(1, true)
	}
	// Ten successes must not bank credit against later failures.
	tr.record(1, false)
	tr.record(1, false)
	if tr.record(1, false) != true {
		t.Error("three failures after a clean run should retire")
	}
}

func TestTabTracker_MaxUses(t *testing.T) {
	tr := newTabTracker[string]()
	for i := 1; i < tabMaxUses; i++ {
		if tr.record("tab", true) {
			t.Fatalf("retired early at use %d", i)
		}
	}
	if !tr.record("tab", true) {
		t.Errorf("not retired at use %d", tabMaxUses)
	}
}

func TestTabTracker_MaxAge(t *testing.T) {
	tr := newTabTracker[int]()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	tr.record(7, true)
	now = now.Add(tabMaxAge)
	if !tr.record(7, true) {
		t.Error("old tab not retired")
	}
}
