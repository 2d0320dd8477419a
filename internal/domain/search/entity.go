package search

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type Type string

const (
	TypeFlights Type = "flights"
	TypeHotels  Type = "hotels"
	TypeBuses   Type = "buses"

	// TypeAll is only meaningful for the combined search.
	TypeAll Type = "all"
)

var ErrInvalidType = errors.New("invalid search type")

// ConcreteTypes lists the provider-backed types in response order.
var ConcreteTypes = []Type{TypeHotels, TypeFlights, TypeBuses}

// ParseType accepts the plural names and their singular aliases.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flights", "flight":
		return TypeFlights, nil
	case "hotels", "hotel":
		return TypeHotels, nil
	case "buses", "bus":
		return TypeBuses, nil
	default:
		return "", ErrInvalidType
	}
}

func (t Type) Valid() bool {
	return t == TypeFlights || t == TypeHotels || t == TypeBuses
}

func (t Type) String() string {
	return string(t)
}

// Singular is the per-item field name used in single-item responses.
func (t Type) Singular() string {
	switch t {
	case TypeFlights:
		return "flight"
	case TypeHotels:
		return "hotel"
	case TypeBuses:
		return "bus"
	default:
		return string(t)
	}
}

// Params holds search-type specific parameters. Unused fields are absent.
type Params map[string]string

// Clone returns a deep copy; keys and values get their own backing memory.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[strings.Clone(k)] = strings.Clone(v)
	}
	return out
}

func (p Params) Get(key string) string {
	if p == nil {
		return ""
	}
	return p[key]
}

// Item is an opaque provider record (flight, hotel or bus) encoded as JSON.
type Item = json.RawMessage

type ActiveSearch struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Params      Params    `json:"params"`
	CreatedAt   time.Time `json:"createdAt"`
	LastRefresh time.Time `json:"lastRefresh"`
	LastAccess  time.Time `json:"lastAccess"`
	Results     []Item    `json:"results"`
}

// PriceUpdate is what subscribers of a search channel receive.
type PriceUpdate struct {
	SearchID  string    `json:"searchId"`
	Type      Type      `json:"type"`
	Params    Params    `json:"params,omitempty"`
	Results   []Item    `json:"results"`
	Cached    bool      `json:"cached"`
	Timestamp time.Time `json:"timestamp"`
}
