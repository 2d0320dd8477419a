package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"travel-search/internal/domain/search"
)

var ErrNotFound = errors.New("catalog item not found")

// Item is a flight, hotel or bus row. Fields is the item document as stored.
type Item struct {
	ID        string          `json:"id"`
	Type      search.Type     `json:"type"`
	Fields    json.RawMessage `json:"fields"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Filter narrows a listing with case-insensitive substring matches on
// the document's from/to/city fields. Empty fields match everything.
type Filter struct {
	From string
	To   string
	City string
}

type Repository interface {
	FindByID(ctx context.Context, t search.Type, id string) (Item, error)
	List(ctx context.Context, t search.Type, f Filter) ([]Item, error)
	Create(ctx context.Context, t search.Type, fields json.RawMessage) (Item, error)
	Update(ctx context.Context, t search.Type, id string, fields json.RawMessage) (Item, error)
	Delete(ctx context.Context, t search.Type, id string) error
}
