package jobs

import (
	"context"
	"fmt"
	"sync"

	"vendor-service/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier carries wake-up signals from enqueuers to idle workers
type Notifier interface {
	Notify(ctx context.Context, jobID string) error
	Wakeups() <-chan struct{}
	Close() error
}

// LocalNotifier wakes workers in the same process
type LocalNotifier struct {
	ch chan struct{}
}

// NewLocalNotifier creates an in-process notifier
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{ch: make(chan struct{}, 1)}
}

// Notify signals a waiting worker; pending signals are coalesced
func (n *LocalNotifier) Notify(_ context.Context, _ string) error {
	select {
	case n.ch <- struct{}{}:
	default:
	}
	return nil
}

func (n *LocalNotifier) Wakeups() <-chan struct{} { return n.ch }

func (n *LocalNotifier) Close() error { return nil }

// RedisNotifier publishes job ids on a Redis channel so that workers in every
// replica wake up, not only the one that enqueued.
type RedisNotifier struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
	ch      chan struct{}
	log     *zap.Logger

	closeOnce sync.Once
}

// NewRedisNotifier connects to Redis, checks the connection and subscribes to the job channel
func NewRedisNotifier(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	pubsub := client.Subscribe(ctx, cfg.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", cfg.Channel, err)
	}

	n := &RedisNotifier{
		client:  client,
		pubsub:  pubsub,
		channel: cfg.Channel,
		ch:      make(chan struct{}, 1),
		log:     log,
	}
	go n.forward()
	return n, nil
}

func (n *RedisNotifier) forward() {
	for msg := range n.pubsub.Channel() {
		n.log.Debug("Job wake-up received", zap.String("job_id", msg.Payload))
		select {
		case n.ch <- struct{}{}:
		default:
		}
	}
}

// Notify publishes jobID on the job channel
func (n *RedisNotifier) Notify(ctx context.Context, jobID string) error {
	return n.client.Publish(ctx, n.channel, jobID).Err()
}

func (n *RedisNotifier) Wakeups() <-chan struct{} { return n.ch }

// Close unsubscribes and closes the Redis client
func (n *RedisNotifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		if cerr := n.pubsub.Close(); cerr != nil {
			err = cerr
		}
		if cerr := n.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
