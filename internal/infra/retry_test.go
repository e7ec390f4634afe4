package infra_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"voice-assistant/internal/infra"
)

func fastRetry(attempts int) infra.RetryConfig {
	cfg := infra.RetryConfigWithAttempts(attempts)
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	return cfg
}

func TestWithRetry_SingleAttemptByDefault(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), infra.DefaultRetryConfig(), func() error {
		calls++
		return errors.New("boom")
	})

	if err == nil || calls != 1 {
		t.Errorf("got err=%v calls=%d, want error after 1 call", err, calls)
	}
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil || calls != 3 {
		t.Errorf("got err=%v calls=%d, want success on 3rd call", err, calls)
	}
}

func TestWithRetry_PermanentStops(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(5), func() error {
		calls++
		return infra.Permanent(sentinel)
	})

	if !errors.Is(err, sentinel) || calls != 1 {
		t.Errorf("got err=%v calls=%d", err, calls)
	}
	if infra.Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestWithRetry_ContextErrorStops(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(5), func() error {
		calls++
		return context.DeadlineExceeded
	})

	if !errors.Is(err, context.DeadlineExceeded) || calls != 1 {
		t.Errorf("got err=%v calls=%d", err, calls)
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	tests := map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        false,
		http.StatusNotFound:            false,
	}

	for code, want := range tests {
		if got := infra.IsRetryableHTTPStatus(code); got != want {
			t.Errorf("IsRetryableHTTPStatus(%d): got %v, want %v", code, got, want)
		}
	}
}
