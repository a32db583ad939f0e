package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNextRetryDelay_Bounds(t *testing.T) {
	t.Parallel()

	for attempt := -1; attempt < 10; attempt++ {
		delay := NextRetryDelay(attempt)
		if delay <= 0 {
			t.Errorf("attempt %d: delay %v should be positive", attempt, delay)
		}
		// Largest base is 2s; jitter adds at most 20%
		if delay > time.Duration(float64(2*time.Second)*1.25) {
			t.Errorf("attempt %d: delay %v exceeds jittered maximum", attempt, delay)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &APIError{StatusCode: http.StatusInternalServerError}, true},
		{"rate limited", &APIError{StatusCode: http.StatusTooManyRequests}, true},
		{"not found", &APIError{StatusCode: http.StatusNotFound}, false},
		{"unauthorized", &APIError{StatusCode: http.StatusUnauthorized}, false},
		{"transport failure", errors.New("connection refused"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := WithRetry(context.Background(), 3, func() error {
		attempts++
		if attempts < 2 {
			return &APIError{StatusCode: http.StatusInternalServerError}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	attempts := 0
	permanent := &APIError{StatusCode: http.StatusBadRequest}
	err := WithRetry(context.Background(), 5, func() error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("err = %v, want the permanent error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 4xx)", attempts)
	}
}

func TestWithRetry_Exhaustion(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := WithRetry(context.Background(), 2, func() error {
		attempts++
		return &APIError{StatusCode: http.StatusServiceUnavailable}
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}
