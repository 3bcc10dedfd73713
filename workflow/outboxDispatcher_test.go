package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
)

func TestPublishWithRetryRecoversFromTransientError(t *testing.T) {
	d := NewOutboxDispatcher(nil, nil)
	d.PublishRetry.Delay = time.Millisecond

	calls := 0
	d.Publish = func(ctx context.Context, businessId string, msg config.MachineEvent) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("pubsub unavailable")
		}
		return "msg-7", nil
	}

	pubID, err := d.publishWithRetry(context.Background(), "biz-1", config.MachineEvent{})
	if err != nil {
		t.Fatalf("publishWithRetry: %v", err)
	}
	if pubID != "msg-7" {
		t.Errorf("pubID = %q, want msg-7", pubID)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestPublishWithRetryExhaustsAttempts(t *testing.T) {
	d := NewOutboxDispatcher(nil, nil)
	d.PublishRetry.Attempts = 3
	d.PublishRetry.Delay = time.Millisecond

	calls := 0
	d.Publish = func(ctx context.Context, businessId string, msg config.MachineEvent) (string, error) {
		calls++
		return "", errors.New("pubsub unavailable")
	}

	_, err := d.publishWithRetry(context.Background(), "biz-1", config.MachineEvent{})
	if err == nil {
		t.Fatal("want error after exhausted attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
