package jobs

import (
	"context"
	"os"
	"testing"
	"time"

	"vendor-service/pkg/config"

	"go.uber.org/zap"
)

func TestLocalNotifierCoalesces(t *testing.T) {
	n := NewLocalNotifier()
	ctx := context.Background()

	_ = n.Notify(ctx, "a")
	_ = n.Notify(ctx, "b")

	select {
	case <-n.Wakeups():
	default:
		t.Fatal("expected a pending wake-up")
	}
	select {
	case <-n.Wakeups():
		t.Fatal("wake-ups were not coalesced")
	default:
	}
}

func TestRedisNotifier(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run the redis notifier test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := NewRedisNotifier(ctx, config.RedisConfig{Addr: addr, Channel: "vendor-service:test-jobs"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRedisNotifier: %v", err)
	}
	defer n.Close()

	if err := n.Notify(ctx, "job-1"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	select {
	case <-n.Wakeups():
	case <-ctx.Done():
		t.Fatal("no wake-up received from redis")
	}
}
