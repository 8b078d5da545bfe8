package postapi

import (
	"testing"
	"time"
)

func TestWriteLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewWriteLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third request to be blocked")
	}
}

func TestWriteLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewWriteLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second request to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected request after window to be allowed")
	}
}

func TestWriteLimiterIsPerIP(t *testing.T) {
	limiter := NewWriteLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestWriteLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewWriteLimiter(1, time.Minute)
	limiter.Stop()
	limiter.Stop()
}

func TestWriteLimiterPrunesOnAllow(t *testing.T) {
	limiter := NewWriteLimiter(1, 100*time.Millisecond)
	// Without the cleanup goroutine, recovery must come from Allow itself.
	limiter.Stop()
	ip := "203.0.113.40"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second request to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected request after window to be allowed")
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if got := len(limiter.hits[ip]); got != 1 {
		t.Errorf("len(hits) = %d, want 1 after expired hits are pruned", got)
	}
}

func TestWriteLimiterCleanupDropsIdleIPs(t *testing.T) {
	limiter := NewWriteLimiter(5, 50*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.50"

	limiter.Allow(ip)
	time.Sleep(300 * time.Millisecond)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.hits[ip]; ok {
		t.Errorf("hits[%s] still present after idle windows, want removed", ip)
	}
}

func TestWriteLimiterStopEndsCleanup(t *testing.T) {
	limiter := NewWriteLimiter(5, 50*time.Millisecond)
	limiter.Stop()
	ip := "203.0.113.60"

	// Give a racing tick time to observe the closed stop channel.
	time.Sleep(20 * time.Millisecond)
	limiter.Allow(ip)
	time.Sleep(300 * time.Millisecond)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.hits[ip]; !ok {
		t.Errorf("hits[%s] removed after Stop, want cleanup stopped", ip)
	}
}
