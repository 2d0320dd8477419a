package pubsub

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "price_update:"

// LocalDeliverer is the in-process side of the relay, usually the ws.Hub.
type LocalDeliverer interface {
	Deliver(channelID string, message []byte) int
}

// RedisRelay publishes price updates through Redis so every instance's
// subscribers receive them, and delivers what it receives into the local
// hub.
type RedisRelay struct {
	client *redis.Client
	local  LocalDeliverer
	logger zerolog.Logger

	mu     sync.Mutex
	sub    *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisRelay(client *redis.Client, local LocalDeliverer, logger zerolog.Logger) *RedisRelay {
	return &RedisRelay{client: client, local: local, logger: logger}
}

func ChannelName(searchID string) string {
	return channelPrefix + searchID
}

// Publish sends message to the Redis channel of channelID.
func (r *RedisRelay) Publish(ctx context.Context, channelID string, message []byte) error {
	if r == nil || r.client == nil {
		return errors.New("redis relay not configured")
	}
	return r.client.Publish(ctx, ChannelName(channelID), message).Err()
}

// Start subscribes to every price update channel and forwards messages to
// the local hub until Stop is called.
func (r *RedisRelay) Start(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis relay not configured")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}

	sub := r.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.sub = sub
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(runCtx, sub, r.done)
	r.logger.Info().Str("pattern", channelPrefix+"*").Msg("[PubSub] Redis relay started")
	return nil
}

func (r *RedisRelay) loop(ctx context.Context, sub *redis.PubSub, done chan struct{}) {
	defer close(done)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			searchID := strings.TrimPrefix(msg.Channel, channelPrefix)
			n := r.local.Deliver(searchID, []byte(msg.Payload))
			r.logger.Debug().Str("search_id", searchID).Int("clients", n).Msg("[PubSub] Relayed price update")
		}
	}
}

func (r *RedisRelay) Stop() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub == nil {
		return nil
	}
	r.cancel()
	err := r.sub.Close()
	<-r.done
	r.sub = nil
	r.cancel = nil
	r.done = nil
	return err
}
