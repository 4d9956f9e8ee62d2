package engine

import (
	"testing"
	"time"
)

func TestDomainMemory_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	dm := NewDomainMemory(time.Hour, time.Hour)
	defer dm.Stop()
	dm.now = func() time.Time { return now }

	dm.Set("loja.com.br", NameHTTP)
	if got := dm.Get("loja.com.br"); got != NameHTTP {
		t.Fatalf("Get = %q, want %q", got, NameHTTP)
	}

	now = now.Add(61 * time.Minute)
	if got := dm.Get("loja.com.br"); got != "" {
		t.Errorf("Get after TTL = %q, want empty", got)
	}
}

func TestDomainMemory_Prune(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	dm := NewDomainMemory(time.Minute, time.Hour)
	defer dm.Stop()
	dm.now = func() time.Time { return now }

	dm.Set("a.com", NameRod)
	now = now.Add(2 * time.Minute)
	dm.Set("b.com", NameRod)
	dm.prune()

	if _, ok := dm.store.Load("a.com"); ok {
		t.Error("expired entry survived prune")
	}
	if _, ok := dm.store.Load("b.com"); !ok {
		t.Error("live entry was pruned")
	}
}

func TestDomainMemory_Nil(t *testing.T) {
	var dm *DomainMemory
	dm.Set("a.com", NameRod)
	dm.Delete("a.com")
	dm.Stop()
	if got := dm.Get("a.com"); got != "" {
		t.Errorf("nil memory Get = %q", got)
	}
}

func TestDomainMemory_StopTwice(t *testing.T) {
	dm := NewDomainMemory(time.Minute, time.Hour)
	dm.Stop()
	dm.Stop()
}
