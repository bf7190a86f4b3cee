package github

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestWithRetryRecoversFromTransientFailures(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastPolicy(), testLogger(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	wantErr := errors.New("still down")

	_, err := WithRetry(context.Background(), fastPolicy(), testLogger(), func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error to propagate, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryNeverRetriesNotFound(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastPolicy(), testLogger(), func(ctx context.Context) (int, error) {
		calls++
		return 0, &APIError{StatusCode: http.StatusNotFound}
	})
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("404 must not be retried, got %d calls", calls)
	}
}

func TestWithRetryNeverRetriesUnauthorized(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastPolicy(), testLogger(), func(ctx context.Context) (int, error) {
		calls++
		return 0, &APIError{StatusCode: http.StatusUnauthorized}
	})
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("401 must not be retried, got %d calls", calls)
	}
}

func TestWithRetryFirstAttemptSuccess(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastPolicy(), testLogger(), func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 || calls != 1 {
		t.Errorf("expected single successful call, got value %d after %d calls", got, calls)
	}
}
