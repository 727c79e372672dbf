package util_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"otx2crits/pkg/util"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := util.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	wantErr := errors.New("still broken")
	calls := 0
	err := util.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := util.Retry(ctx, 3, time.Millisecond, func() error {
		return errors.New("never succeeds")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestPairKeyDistinguishesBoundaries(t *testing.T) {
	if util.PairKey("a|b", "c") == util.PairKey("a", "b|c") {
		t.Fatalf("pair keys must not collide across boundaries")
	}
	if util.PairKey("Domain", "example.com") != util.PairKey("Domain", "example.com") {
		t.Fatalf("pair keys must be stable")
	}
}
