package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/glosshover/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("ab", "c")
	b := Key("a", "bc")

	if a == b {
		t.Error("Expected length-prefixed parts to produce different keys")
	}
	if a != Key("ab", "c") {
		t.Error("Expected keys to be deterministic")
	}
	if !strings.HasPrefix(a, KeyPrefix) {
		t.Errorf("Expected prefix %s, got %s", KeyPrefix, a)
	}
	// prefix + 32-byte digest in hex
	if len(a) != len(KeyPrefix)+64 {
		t.Errorf("Expected 64 hex characters, got %d", len(a)-len(KeyPrefix))
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("hello")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'j'

	got, ok := c.Get("k")
	if !ok || string(got) != "hello" {
		t.Errorf("Expected stored copy 'hello', got %q (found=%v)", got, ok)
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("content")

	if err := c.Set(key, []byte("<p>x</p>"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "<p>x</p>" {
		t.Errorf("Expected cached value, got %q (found=%v)", got, ok)
	}

	// Another cache over the same dir sees the entry
	if _, ok := NewDiskCache(dir, time.Hour).Get(key); !ok {
		t.Error("Expected entry to persist across instances")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestDiskCache_ExpiredAndPrune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte("v"), time.Millisecond)
	_ = c.Set("new", []byte("v"), time.Hour)
	time.Sleep(5 * time.Millisecond)

	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 pruned entry, got %d", removed)
	}
	if _, ok := c.Get("old"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("Expected fresh entry to survive prune")
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := os.WriteFile(filepath.Join(dir, "broken.cache"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("broken"); ok {
		t.Error("Expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesBackHits(t *testing.T) {
	front := NewMemoryCache(time.Minute, time.Minute)
	back := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayered(front, back)

	_ = back.Set("k", []byte("v"), 0)

	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Expected back-layer hit, got %q (found=%v)", got, ok)
	}
	if _, ok := front.Get("k"); !ok {
		t.Error("Expected hit to be promoted to the front layer")
	}

	if err := c.Delete("k"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss in both layers after delete")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"memory", false},
		{"disk", false},
		{"layered", false},
		{"redis", true}, // no address
		{"bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := New(model.CacheConfig{Enabled: true, Backend: tt.backend, Dir: t.TempDir(), TTL: time.Minute})
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil || c == nil {
				t.Errorf("Expected cache, got %v (err=%v)", c, err)
			}
		})
	}

	c, err := New(model.CacheConfig{Enabled: false, Backend: "memory"})
	if c != nil || err != nil {
		t.Errorf("Expected nil cache when disabled, got %v (err=%v)", c, err)
	}
}
