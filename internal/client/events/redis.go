package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/toolshare/internal/logging"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "toolshare:session"

// RedisBroker relays events between processes sharing a session store,
// which is what browser tabs sharing local storage did with storage events.
// Local subscribers see local publications immediately and remote ones once
// they arrive over Redis Pub/Sub; events published by this broker's own
// source are not delivered twice.
type RedisBroker struct {
	local   *LocalBroker
	rdb     *redis.Client
	channel string
	source  string
	logger  logging.Logger

	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewRedisBroker subscribes to channel and starts relaying. source must be
// the id stamped on events published by the owning session manager.
func NewRedisBroker(ctx context.Context, rdb *redis.Client, channel, source string, logger logging.Logger) (*RedisBroker, error) {
	if channel == "" {
		channel = DefaultChannel
	}

	pubsub := rdb.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so no early event is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	b := &RedisBroker{
		local:   NewLocalBroker(),
		rdb:     rdb,
		channel: channel,
		source:  source,
		logger:  logger.With("component", "redis_broker", "channel", channel),
		pubsub:  pubsub,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go b.relay(relayCtx)
	return b, nil
}

func (b *RedisBroker) relay(ctx context.Context) {
	defer close(b.done)
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.logger.Warn(ctx, "dropping malformed event", "error", err)
				continue
			}
			if e.Source == b.source {
				continue
			}
			_ = b.local.Publish(ctx, e)
		}
	}
}

// Publish delivers e to local subscribers and to other processes.
func (b *RedisBroker) Publish(ctx context.Context, e Event) error {
	_ = b.local.Publish(ctx, e)

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe() (<-chan Event, func()) {
	return b.local.Subscribe()
}

func (b *RedisBroker) Close() error {
	var err error
	b.once.Do(func() {
		b.cancel()
		err = b.pubsub.Close()
		<-b.done
		_ = b.local.Close()
	})
	return err
}
