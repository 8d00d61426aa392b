package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Retry(3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Retry() = %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("always")
	calls := 0
	_, err := Retry(4, func() (string, error) {
		calls++
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Retry() error = %v, want %v", err, wantErr)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestRetryErrDefaultsToOneAttempt(t *testing.T) {
	calls := 0
	_ = RetryErr(0, func() error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithContextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryWithContext(ctx, 5, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryWithContext() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestRetryWithContextDoesNotRetryDeadline(t *testing.T) {
	calls := 0
	_, err := RetryWithContext(context.Background(), 5, func(context.Context) (int, error) {
		calls++
		return 0, context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RetryWithContext() error = %v, want context.DeadlineExceeded", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
