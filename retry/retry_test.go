package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		calls := 0
		result, err := WithRetry(context.Background(), fastConfig(), Always,
			func(context.Context) (string, error) {
				calls++
				return "success", nil
			},
		)

		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if result != "success" {
			t.Errorf("expected 'success', got %s", result)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("retries on retryable error and reports each retry", func(t *testing.T) {
		cfg := fastConfig()
		var retried []int
		cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			retried = append(retried, attempt)
			if delay <= 0 {
				t.Errorf("expected positive delay, got %s", delay)
			}
		}

		calls := 0
		result, err := WithRetry(context.Background(), cfg, Always,
			func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, errors.New("temporary error")
				}
				return 42, nil
			},
		)

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result != 42 {
			t.Errorf("expected 42, got %d", result)
		}
		if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
			t.Errorf("expected retries [1 2], got %v", retried)
		}
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		permanent := errors.New("permanent")
		calls := 0
		_, err := WithRetry(context.Background(), fastConfig(),
			func(err error) bool { return !errors.Is(err, permanent) },
			func(context.Context) (string, error) {
				calls++
				return "", permanent
			},
		)

		if !errors.Is(err, permanent) {
			t.Errorf("expected permanent error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		_, err := WithRetry(context.Background(), fastConfig(), Always,
			func(context.Context) (string, error) {
				calls++
				return "", errors.New("still failing")
			},
		)

		if err == nil || !strings.Contains(err.Error(), "max retries exceeded") {
			t.Errorf("expected max retries error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := fastConfig()
		cfg.InitialDelay = time.Hour
		cfg.MaxDelay = time.Hour

		calls := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := WithRetry(ctx, cfg, Always,
			func(context.Context) (string, error) {
				calls++
				return "", errors.New("temporary")
			},
		)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("zero attempts still tries once", func(t *testing.T) {
		calls := 0
		_, _ = WithRetry(context.Background(), Config{}, Always,
			func(context.Context) (string, error) {
				calls++
				return "", errors.New("x")
			},
		)
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}
