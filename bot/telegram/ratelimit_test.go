package telegram

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"api error", &APIError{Code: 429, Message: "Too Many Requests", RetryAfter: 7}, 7, true},
		{"message pattern", errors.New("telego: sendMessage: api: 429 Too Many Requests: retry after 3"), 3, true},
		{"bare number", errors.New("5"), 5, true},
		{"unrelated", errors.New("chat not found"), 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseRetryAfter(tc.err)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("parseRetryAfter(%v) = %d, %v; want %d, %v", tc.err, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	rl := NewRateLimiter(100, 10)

	calls := 0
	err := WithRetry(context.Background(), rl, 1, func() error {
		calls++
		if calls < 2 {
			return errors.New("retry after 0")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWithRetryGivesUpOnPermanentError(t *testing.T) {
	rl := NewRateLimiter(100, 10)

	permanent := errors.New("chat not found")
	calls := 0
	err := WithRetry(context.Background(), rl, 1, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRateLimiterThrottlesPerChat(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	ctx := context.Background()

	// Burst of 1, then ~100ms per token.
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx, 42); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("3 sends took %v, expected throttling", elapsed)
	}

	// A different chat has its own bucket and is not delayed.
	start = time.Now()
	if err := rl.Wait(ctx, 43); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("fresh chat waited %v", elapsed)
	}
}
