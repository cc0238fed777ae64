package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 2)

	// Burst of 2, then the bucket is empty.
	if !limiter.Allow() {
		t.Error("first call should be allowed")
	}
	if !limiter.Allow() {
		t.Error("second call should be allowed within burst")
	}
	if limiter.Allow() {
		t.Error("third call should be throttled")
	}
}

func TestLimiter_Unpaced(t *testing.T) {
	limiter := NewLimiter(0, 0)

	for i := 0; i < 100; i++ {
		if !limiter.Allow() {
			t.Fatal("unpaced limiter must always allow")
		}
	}
	if err := limiter.Wait(context.Background()); err != nil {
		t.Errorf("Wait: %v", err)
	}
}

func TestLimiter_WaitPaces(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	// At 100 files/sec with burst 1, three permits take about 20ms.
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("expected pacing, three permits took %v", elapsed)
	}
}

func TestLimiter_WaitCanceled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the burst so the next Wait must block.
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Error("expected error from canceled context")
	}
}
