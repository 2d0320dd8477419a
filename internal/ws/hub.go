package ws

import (
	"context"
	"sync"

	"travel-search/internal/metrics"

	"github.com/rs/zerolog"
)

// Hub fans messages out to the connections subscribed to a channel. One
// channel exists per search id.
//
// Delivery is best effort: a message reaches the connections subscribed
// at publish time, nothing is persisted or retried, and a connection
// whose send buffer is full is dropped instead of slowing the publisher.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	channels map[string]map[*Client]struct{}

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewHub(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		channels: make(map[string]map[*Client]struct{}),
		logger:   logger,
		metrics:  m,
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetWSClients(total)
	h.logger.Debug().Str("client_id", client.id).Int("total_clients", total).Msg("[WS] Connected")
}

// Unregister removes the client from every channel and closes its send
// queue. Calling it twice is safe.
func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for channelID := range client.channels {
		h.leaveLocked(channelID, client)
	}
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetWSClients(total)
	h.logger.Debug().Str("client_id", client.id).Int("total_clients", total).Msg("[WS] Disconnected")
}

// Subscribe joins client to channelID. It reports false for a client the
// hub does not know.
func (h *Hub) Subscribe(channelID string, client *Client) bool {
	if h == nil || client == nil || channelID == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	subs, ok := h.channels[channelID]
	if !ok {
		subs = make(map[*Client]struct{})
		h.channels[channelID] = subs
	}
	subs[client] = struct{}{}
	client.channels[channelID] = struct{}{}
	return true
}

// Unsubscribe reports false when client was not on channelID.
func (h *Hub) Unsubscribe(channelID string, client *Client) bool {
	if h == nil || client == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := client.channels[channelID]; !ok {
		return false
	}
	h.leaveLocked(channelID, client)
	return true
}

func (h *Hub) leaveLocked(channelID string, client *Client) {
	delete(client.channels, channelID)
	subs, ok := h.channels[channelID]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.channels, channelID)
	}
}

// Deliver hands message to every current subscriber of channelID and
// returns how many accepted it.
func (h *Hub) Deliver(channelID string, message []byte) int {
	if h == nil {
		return 0
	}

	delivered := 0
	var slow []*Client

	h.mu.RLock()
	for client := range h.channels[channelID] {
		select {
		case client.send <- message:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.metrics.BroadcastDropped()
		h.logger.Warn().Str("client_id", client.id).Str("channel", channelID).Msg("[WS] Send buffer full, dropping client")
		h.Unregister(client)
	}

	h.metrics.BroadcastDelivered(delivered)
	return delivered
}

// Publish implements Publisher for a single-instance deployment.
func (h *Hub) Publish(_ context.Context, channelID string, message []byte) error {
	n := h.Deliver(channelID, message)
	h.logger.Debug().Str("channel", channelID).Int("clients", n).Msg("[WS] Broadcast")
	return nil
}

func (h *Hub) SubscriberCount(channelID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelID])
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
