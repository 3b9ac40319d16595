package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkspaceCacheSetGetDelete(t *testing.T) {
	cache := NewWorkspaceCache[int]()
	cache.Set("T1", 42)

	value, ok := cache.Get("T1")
	if !ok || value != 42 {
		t.Fatalf("expected cached value 42, got %v %v", value, ok)
	}

	cache.Delete("T1")
	if _, ok := cache.Get("T1"); ok {
		t.Fatalf("expected value to be deleted")
	}
}

func TestWorkspaceCacheGetOrLoadOnce(t *testing.T) {
	cache := NewWorkspaceCache[string]()
	var calls int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := cache.GetOrLoad("T1", func() (string, error) {
				atomic.AddInt32(&calls, 1)
				return "client", nil
			})
			if err != nil || val != "client" {
				t.Errorf("unexpected load result: %q %v", val, err)
			}
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&calls); got < 1 || got > 8 {
		t.Fatalf("unexpected loader calls: %d", got)
	}
	if _, err := cache.GetOrLoad("T1", func() (string, error) {
		t.Fatalf("loader should not run for cached workspace")
		return "", nil
	}); err != nil {
		t.Fatalf("get cached: %v", err)
	}
}

func TestWorkspaceCacheDoesNotCacheErrors(t *testing.T) {
	cache := NewWorkspaceCache[string]()
	boom := errors.New("boom")
	if _, err := cache.GetOrLoad("T1", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, ok := cache.Get("T1"); ok {
		t.Fatalf("expected failed load to stay uncached")
	}
	val, err := cache.GetOrLoad("T1", func() (string, error) { return "ok", nil })
	if err != nil || val != "ok" {
		t.Fatalf("expected retry to load, got %q %v", val, err)
	}
}
