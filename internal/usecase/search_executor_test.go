package usecase

import (
	"context"
	"errors"
	"testing"

	"travel-search/internal/domain/search"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery_HotelDefaults(t *testing.T) {
	q, err := NormalizeQuery(search.TypeHotels, search.Params{"to": "Goa", "date": "2025-12-01"})
	require.NoError(t, err)
	assert.Equal(t, "Goa", q.City)
	assert.Equal(t, "2025-12-01", q.CheckInDate)
	assert.Equal(t, "2025-12-02", q.CheckOutDate)
	assert.Equal(t, 1, q.Adults)
}

func TestNormalizeQuery_Flights(t *testing.T) {
	q, err := NormalizeQuery(search.TypeFlights, search.Params{"from": "Delhi", "to": "Mumbai", "date": "2025-12-01", "adults": "3"})
	require.NoError(t, err)
	assert.Equal(t, ProviderQuery{Origin: "Delhi", Destination: "Mumbai", DepartureDate: "2025-12-01", Adults: 3}, q)
}

func TestNormalizeQuery_InvalidType(t *testing.T) {
	_, err := NormalizeQuery(search.Type("trains"), nil)
	assert.ErrorIs(t, err, search.ErrInvalidType)
}

func TestSearchExecutor_Execute(t *testing.T) {
	flights := &mockProvider{count: 10}
	ex := NewSearchExecutor(map[search.Type]Provider{search.TypeFlights: flights}, zerolog.Nop(), nil)

	items, err := ex.Execute(context.Background(), search.TypeFlights, search.Params{"from": "Delhi", "to": "Mumbai"})
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Equal(t, int32(1), flights.calls.Load())
}

func TestSearchExecutor_ExecuteSurfacesProviderError(t *testing.T) {
	ex := NewSearchExecutor(map[search.Type]Provider{search.TypeFlights: &mockProvider{err: errProviderDown}}, zerolog.Nop(), nil)

	_, err := ex.Execute(context.Background(), search.TypeFlights, search.Params{"from": "a", "to": "b"})
	assert.True(t, errors.Is(err, ErrProviderFailed))
}

func TestSearchExecutor_ExecuteUnknownProvider(t *testing.T) {
	ex := NewSearchExecutor(nil, zerolog.Nop(), nil)
	_, err := ex.Execute(context.Background(), search.TypeBuses, search.Params{"from": "a", "to": "b"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchExecutor_ExecuteManyDegradesFailures(t *testing.T) {
	ex := NewSearchExecutor(map[search.Type]Provider{
		search.TypeFlights: &mockProvider{count: 10},
		search.TypeHotels:  &mockProvider{err: errProviderDown},
		search.TypeBuses:   &mockProvider{count: 12},
	}, zerolog.Nop(), nil)

	out := ex.ExecuteMany(context.Background(), search.ConcreteTypes, search.Params{"from": "a", "to": "b", "city": "c"})
	require.Len(t, out, 3)
	assert.Len(t, out[search.TypeFlights], 10)
	assert.Len(t, out[search.TypeBuses], 12)
	assert.NotNil(t, out[search.TypeHotels])
	assert.Empty(t, out[search.TypeHotels])
}
