package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu       sync.Mutex
	received map[string][]string
}

func (h *recordingHub) Deliver(channelID string, message []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.received == nil {
		h.received = map[string][]string{}
	}
	h.received[channelID] = append(h.received[channelID], string(message))
	return 1
}

func (h *recordingHub) get(channelID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.received[channelID]...)
}

func TestRedisRelay_PublishIsDeliveredLocally(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := &recordingHub{}
	relay := NewRedisRelay(client, hub, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, relay.Start(ctx))
	t.Cleanup(func() { _ = relay.Stop() })
	require.NoError(t, relay.Start(ctx), "second start is a no-op")

	require.NoError(t, relay.Publish(ctx, "abc-123", []byte(`{"event":"price_update"}`)))

	assert.Eventually(t, func() bool {
		return len(hub.get("abc-123")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, `{"event":"price_update"}`, hub.get("abc-123")[0])
}

func TestRedisRelay_StopIsIdempotent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	relay := NewRedisRelay(client, &recordingHub{}, zerolog.Nop())
	require.NoError(t, relay.Start(context.Background()))
	assert.NoError(t, relay.Stop())
	assert.NoError(t, relay.Stop())
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "price_update:s1", ChannelName("s1"))
}
