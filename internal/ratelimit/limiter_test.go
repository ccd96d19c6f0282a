package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAllowUnderLimit(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := l.Allow(ctx, "k", 5, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	result, err := l.Allow(ctx, "k", 5, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if result.Allowed {
		t.Fatal("sixth request should be denied")
	}
}

func TestWindowSlides(t *testing.T) {
	l := NewInMemory()
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if result, _ := l.Allow(ctx, "k", 3, time.Minute); !result.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if result, _ := l.Allow(ctx, "k", 3, time.Minute); result.Allowed {
		t.Fatal("over-limit request should be denied")
	}

	// Half the window later, old entries are still inside the window.
	now = now.Add(30 * time.Second)
	if result, _ := l.Allow(ctx, "k", 3, time.Minute); result.Allowed {
		t.Fatal("request should still be denied mid-window")
	}

	// Past the window, capacity returns.
	now = now.Add(31 * time.Second)
	if result, _ := l.Allow(ctx, "k", 3, time.Minute); !result.Allowed {
		t.Fatal("request should be allowed after the window slides")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if result, _ := l.Allow(ctx, "a", 1, time.Minute); !result.Allowed {
		t.Fatal("first key should be allowed")
	}
	if result, _ := l.Allow(ctx, "a", 1, time.Minute); result.Allowed {
		t.Fatal("first key should now be denied")
	}
	if result, _ := l.Allow(ctx, "b", 1, time.Minute); !result.Allowed {
		t.Fatal("second key should be unaffected")
	}
}

func TestResetClearsWindow(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	l.Allow(ctx, "k", 1, time.Minute)
	if result, _ := l.Allow(ctx, "k", 1, time.Minute); result.Allowed {
		t.Fatal("expected denial before reset")
	}
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if result, _ := l.Allow(ctx, "k", 1, time.Minute); !result.Allowed {
		t.Fatal("expected allowance after reset")
	}
}

func TestConcurrentAllowRespectsLimit(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	const goroutines = 50
	const limit = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := l.Allow(ctx, "k", limit, time.Minute)
			if err != nil {
				t.Errorf("allow: %v", err)
				return
			}
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("expected exactly %d allowed, got %d", limit, allowed)
	}
}
