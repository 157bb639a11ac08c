package main

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	cache := NewTTLCache(10*time.Millisecond, 4)
	cache.Set("k", []byte("v"))

	if got, ok := cache.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("fresh entry missing: %q %v", got, ok)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("k"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestTTLCacheCapacity(t *testing.T) {
	cache := NewTTLCache(time.Minute, 2)
	cache.Set("a", []byte("1"))
	cache.Set("b", []byte("2"))
	cache.Set("c", []byte("3"))

	live := 0
	for _, k := range []string{"a", "b", "c"} {
		if _, ok := cache.Get(k); ok {
			live++
		}
	}
	if live != 2 {
		t.Errorf("cache holds %d entries, capacity is 2", live)
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("the newest entry must survive eviction")
	}
}

func TestNopCacheNeverStores(t *testing.T) {
	var cache NopCache
	cache.Set("k", []byte("v"))
	if _, ok := cache.Get("k"); ok {
		t.Error("the no-op cache must never return a hit")
	}
}
