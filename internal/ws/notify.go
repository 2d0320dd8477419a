package ws

import (
	"context"
	"encoding/json"
	"time"

	"travel-search/internal/domain/search"
)

// Publisher delivers an encoded message to a channel. The Hub publishes
// to its own connections; the Redis relay publishes across instances.
type Publisher interface {
	Publish(ctx context.Context, channelID string, message []byte) error
}

type PriceUpdateEvent struct {
	Event string `json:"event"`
	search.PriceUpdate
}

type Notifier struct {
	publisher Publisher
	now       func() time.Time
}

func NewNotifier(p Publisher) *Notifier {
	return &Notifier{publisher: p, now: time.Now}
}

// BroadcastPriceUpdate sends u to the channel of u.SearchID.
func (n *Notifier) BroadcastPriceUpdate(ctx context.Context, u search.PriceUpdate) error {
	if n == nil || n.publisher == nil || u.SearchID == "" {
		return nil
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = n.now().UTC()
	}
	if u.Results == nil {
		u.Results = []search.Item{}
	}
	b, err := json.Marshal(PriceUpdateEvent{Event: EventPriceUpdate, PriceUpdate: u})
	if err != nil {
		return err
	}
	return n.publisher.Publish(ctx, u.SearchID, b)
}
