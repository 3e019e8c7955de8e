package cache_test

import (
	"testing"
	"time"

	"github.com/geocoder89/postboard/internal/cache"
)

func TestCacheSetGet(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("k", "v")

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected a hit")
	}

	if got != "v" {
		t.Fatalf("got %v, want v", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit for a missing key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := cache.New(10 * time.Millisecond)

	c.Set("k", "v")

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("entry survived its TTL")
	}
}

func TestCacheClear(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived Clear")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("entry survived Clear")
	}
}

func TestCacheDelete(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("a", 1)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived Delete")
	}
}
