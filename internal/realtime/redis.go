package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/gleeworld/gleeworld/internal"
)

// RedisBroker carries change events over one redis pub/sub channel per
// table, so every server instance sees mutations made by any of them.
type RedisBroker struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisBroker(cfg internal.RedisConfig, logger *slog.Logger) *RedisBroker {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "gleeworld:changes"
	}

	return &RedisBroker{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Client exposes the underlying connection for health checks.
func (b *RedisBroker) Client() *redis.Client {
	return b.client
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

func (b *RedisBroker) channelFor(table string) string {
	return fmt.Sprintf("%s:%s", b.prefix, table)
}

func (b *RedisBroker) PublishChange(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channelFor(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// SubscribeTable opens a redis subscription for one table channel. The
// returned stop function closes the subscription and drains the goroutine.
func (b *RedisBroker) SubscribeTable(ctx context.Context, table string) (<-chan ChangeEvent, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channelFor(table))

	// Force the subscription onto the wire before handing the channel out.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("establish subscription for %s: %w", table, err)
	}

	events := make(chan ChangeEvent, 16)
	done := make(chan struct{})

	go func() {
		defer close(events)
		msgs := pubsub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("dropping malformed change event", "error", err, "table", table)
					continue
				}
				select {
				case events <- ev:
				default:
					// Consumer is behind. Dropping is fine: every event
					// means re-fetch, so the next one carries the signal.
				}
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		close(done)
		_ = pubsub.Close()
	}
	return events, stop, nil
}
