package cache_test

import (
	"testing"
	"time"

	"github.com/attendhub/attendhub/internal/cache"
)

func TestSetGetDelete(t *testing.T) {
	c := cache.New(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set("k", 42)

	v, ok := c.Get("k")

	if !ok || v.(int) != 42 {
		t.Fatalf("Get = %v, %v; want 42, true", v, ok)
	}

	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted key should miss")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := cache.New(10 * time.Millisecond)

	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestClear(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatal("cleared cache should miss")
	}
}
