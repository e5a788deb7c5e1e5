package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestExpiringCacheStaysWithinCap(t *testing.T) {
	c := NewExpiring[string, []byte](8, time.Minute)

	payload := make([]byte, 64<<10)
	for i := range 200 {
		c.Add(fmt.Sprintf("https://cdn.test/%d.png", i), payload)
		if n := c.Len(); n > 8 {
			t.Fatalf("Len() = %d after %d adds, want at most 8", n, i+1)
		}
	}

	if _, ok := c.Get("https://cdn.test/0.png"); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := c.Get("https://cdn.test/199.png"); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestExpiringCacheDropsExpiredEntries(t *testing.T) {
	c := NewExpiring[string, int](256, 10*time.Millisecond)
	for i := range 200 {
		c.Add(fmt.Sprint(i), i)
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("3"); ok {
		t.Error("Get returned an expired entry")
	}
	// The background sweep runs every ttl/100; give it a moment.
	deadline := time.Now().Add(time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := c.Len(); n != 0 {
		t.Errorf("Len() = %d after expiry, want 0", n)
	}
}

func TestExpiringCacheDefaultsSize(t *testing.T) {
	c := NewExpiring[int, int](0, 0)
	for i := range DefaultMaxEntries + 10 {
		c.Add(i, i)
	}
	if n := c.Len(); n != DefaultMaxEntries {
		t.Errorf("Len() = %d, want %d", n, DefaultMaxEntries)
	}
}

func TestExpiringCacheConcurrentUse(t *testing.T) {
	c := NewExpiring[int, int](16, time.Millisecond)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				key := (w*500 + i) % 32
				c.Add(key, i)
				c.Get(key)
				if i%7 == 0 {
					c.Remove(key)
				}
			}
		}()
	}
	wg.Wait()

	if n := c.Len(); n > 16 {
		t.Errorf("Len() = %d, want at most 16", n)
	}
}

func TestNoopCache(t *testing.T) {
	var c Cache[string, string] = Noop[string, string]{}
	c.Add("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatal("noop cache returned a hit")
	}
	if c.Len() != 0 {
		t.Fatal("noop cache reports entries")
	}
}
