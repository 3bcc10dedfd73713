package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{Attempts: 2, Delay: time.Millisecond}

	wantErr := errors.New("still broken")
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected last error returned, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicyExcludedErrorNotRetried(t *testing.T) {
	notFound := errors.New("record not found")
	policy := RetryPolicy{
		Attempts: 5,
		Delay:    time.Millisecond,
		Exclude:  func(err error) bool { return errors.Is(err, notFound) },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return notFound
	})
	if err != notFound {
		t.Fatalf("expected excluded error returned, got %v", err)
	}
	if calls != 1 {
		t.Errorf("excluded error should stop retries, got %d calls", calls)
	}
}

func TestRetryPolicyStopsOnCancelledContext(t *testing.T) {
	policy := RetryPolicy{Attempts: 10, Delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	policy := RetryPolicy{}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
