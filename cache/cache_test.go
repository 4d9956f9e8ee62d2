package cache

import (
	"testing"
	"time"

	"github.com/use-agent/prodex/models"
)

func okResponse(title string) *models.ExtractResponse {
	return &models.ExtractResponse{
		Success: true,
		Product: &models.ProductRecord{Title: title, Images: []string{"https://cdn.loja.com.br/1.jpg"}},
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Stop()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key("https://loja.com.br/p", "vtex", "browser")
	c.Set(key, okResponse("Caneca"))

	tests := []struct {
		name   string
		after  time.Duration
		maxAge time.Duration
		hit    bool
	}{
		{"fresh", time.Second, time.Minute, true},
		{"stale", 2 * time.Minute, time.Minute, false},
		{"zero max age", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.now = func() time.Time { return now.Add(tt.after) }
			resp, hit := c.Get(key, tt.maxAge)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && resp.Product.Title != "Caneca" {
				t.Errorf("title = %q", resp.Product.Title)
			}
		})
	}
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Stop()
	key := Key("https://loja.com.br/p", "", "browser")
	c.Set(key, okResponse("Caneca"))

	first, _ := c.Get(key, time.Minute)
	first.Product.Title = "mutated"
	first.Product.Images[0] = "mutated"

	second, _ := c.Get(key, time.Minute)
	if second.Product.Title != "Caneca" || second.Product.Images[0] != "https://cdn.loja.com.br/1.jpg" {
		t.Errorf("cached entry was mutated through a returned copy: %+v", second.Product)
	}
}

func TestCache_FailuresNotCached(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Stop()
	c.Set("k", &models.ExtractResponse{Success: false})
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_Capacity(t *testing.T) {
	c := New(2, time.Hour)
	defer c.Stop()
	c.Set("a", okResponse("a"))
	c.Set("b", okResponse("b"))
	c.Set("b", okResponse("b2"))
	if c.Len() != 2 {
		t.Fatalf("Len = %d after overwrite, want 2", c.Len())
	}
	c.Set("c", okResponse("c"))
	if c.Len() != 2 {
		t.Errorf("Len = %d, want capacity 2", c.Len())
	}
	if _, ok := c.Get("c", time.Minute); !ok {
		t.Error("newest entry missing")
	}
}

func TestCache_EvictExpired(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Stop()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("old", okResponse("old"))
	now = now.Add(2 * time.Minute)
	c.Set("new", okResponse("new"))

	c.evictExpired()
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestKey(t *testing.T) {
	a := Key("https://loja.com.br/p", "vtex", "browser")
	if a != Key("https://loja.com.br/p", "vtex", "browser") {
		t.Error("Key is not deterministic")
	}
	if a == Key("https://loja.com.br/p", "vtex", "http") {
		t.Error("fetch mode does not change the key")
	}
	if Key("ab", "c", "") == Key("a", "bc", "") {
		t.Error("separator missing between key parts")
	}
}

func TestCache_Nil(t *testing.T) {
	var c *Cache
	c.Set("k", okResponse("x"))
	if _, ok := c.Get("k", time.Minute); ok {
		t.Error("nil cache hit")
	}
}
