package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"travel-search/internal/domain/search"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	cache    *mockCache
	flights  *mockProvider
	hotels   *mockProvider
	buses    *mockProvider
	catalog  *mockCatalogRepo
	registry *mockRegistry
	uc       *Search
}

func newSearchFixture(autoTrack bool) *searchFixture {
	f := &searchFixture{
		cache:    newMockCache(),
		flights:  &mockProvider{count: 10},
		hotels:   &mockProvider{count: 10},
		buses:    &mockProvider{count: 12},
		catalog:  newMockCatalogRepo(),
		registry: newMockRegistry(),
	}
	ex := NewSearchExecutor(map[search.Type]Provider{
		search.TypeFlights: f.flights,
		search.TypeHotels:  f.hotels,
		search.TypeBuses:   f.buses,
	}, zerolog.Nop(), nil)
	f.uc = NewSearchUsecase(f.cache, ex, f.catalog, f.registry, SearchOptions{
		CacheTTL:        60 * time.Second,
		CatalogCacheTTL: time.Hour,
		AutoTrack:       autoTrack,
	}, zerolog.Nop(), nil)
	return f
}

func TestSearch_MissThenHit(t *testing.T) {
	f := newSearchFixture(false)
	ctx := context.Background()
	req := SearchRequest{Type: "flights", From: "delhi", To: "mumbai", Date: "2025-12-01"}

	first, err := f.uc.Search(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, CacheMiss, first.CacheStatus)
	assert.Equal(t, 10, first.Count.Flights)
	assert.Len(t, first.Data.Flights, 10)
	assert.Empty(t, first.Data.Hotels)

	key := "search:flights:delhi:mumbai::2025-12-01"
	require.True(t, f.cache.has(key))
	assert.Equal(t, 60*time.Second, f.cache.ttl(key))

	second, err := f.uc.Search(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, CacheHit, second.CacheStatus)
	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, int32(1), f.flights.calls.Load())
}

func TestSearch_WhitespaceSharesCacheEntry(t *testing.T) {
	f := newSearchFixture(false)
	ctx := context.Background()

	first, err := f.uc.Search(ctx, SearchRequest{Type: " flights ", From: " delhi", To: "mumbai ", Date: "2025-12-01"})
	require.NoError(t, err)
	assert.Equal(t, CacheMiss, first.CacheStatus)
	assert.True(t, f.cache.has("search:flights:delhi:mumbai::2025-12-01"))
	assert.Equal(t, "delhi", first.Filters.From)

	second, err := f.uc.Search(ctx, SearchRequest{Type: "flights", From: "delhi", To: "mumbai", Date: "2025-12-01"})
	require.NoError(t, err)
	assert.Equal(t, CacheHit, second.CacheStatus)
	assert.Equal(t, int32(1), f.flights.calls.Load())
}

func TestSearch_AllWithFailingHotelProvider(t *testing.T) {
	f := newSearchFixture(false)
	f.hotels.err = errProviderDown

	resp, err := f.uc.Search(context.Background(), SearchRequest{Type: "all", From: "delhi", To: "mumbai", City: "goa", Date: "2025-12-01"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data.Hotels)
	assert.Empty(t, resp.Data.Hotels)
	assert.Len(t, resp.Data.Flights, 10)
	assert.Len(t, resp.Data.Buses, 12)
	assert.Equal(t, 22, resp.Count.Total)
}

func TestSearch_InvalidTypeTouchesNothing(t *testing.T) {
	f := newSearchFixture(false)

	_, err := f.uc.Search(context.Background(), SearchRequest{Type: "trains", From: "a", To: "b"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.cache.data)
	assert.Equal(t, int32(0), f.flights.calls.Load())
}

func TestSearch_CatalogFallbackWithoutLiveParams(t *testing.T) {
	f := newSearchFixture(false)
	f.catalog.put(search.TypeHotels, "H1", `{"name":"Sea View","city":"Goa","price":3000}`)

	resp, err := f.uc.Search(context.Background(), SearchRequest{Type: "hotels"})
	require.NoError(t, err)
	require.Len(t, resp.Data.Hotels, 1)
	assert.Equal(t, int32(0), f.hotels.calls.Load())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(resp.Data.Hotels[0], &doc))
	assert.Equal(t, "H1", doc["id"])
	assert.Equal(t, "Sea View", doc["name"])
}

func TestSearch_AutoTrackRegistersLiveTypes(t *testing.T) {
	f := newSearchFixture(true)

	_, err := f.uc.Search(context.Background(), SearchRequest{Type: "flights", From: "delhi", To: "mumbai", Date: "2025-12-01"})
	require.NoError(t, err)

	a, ok := f.registry.Get("flights:search:flights:delhi:mumbai::2025-12-01")
	require.True(t, ok)
	assert.Equal(t, search.TypeFlights, a.Type)
	assert.Equal(t, "delhi", a.Params.Get("from"))
}

func TestSearch_CacheErrorFallsThrough(t *testing.T) {
	f := newSearchFixture(false)
	f.cache.getErr = assert.AnError

	resp, err := f.uc.Search(context.Background(), SearchRequest{Type: "buses", From: "a", To: "b"})
	require.NoError(t, err)
	assert.Equal(t, CacheMiss, resp.CacheStatus)
	assert.Len(t, resp.Data.Buses, 12)
}

func TestSearch_GetItem(t *testing.T) {
	f := newSearchFixture(false)
	f.catalog.put(search.TypeHotels, "H1", `{"name":"Sea View","price":3000}`)
	ctx := context.Background()

	resp, err := f.uc.GetItem(ctx, "hotels", "H1")
	require.NoError(t, err)
	assert.Equal(t, CacheMiss, resp.CacheStatus)
	assert.Equal(t, "hotels", resp.Data["type"])
	assert.Equal(t, time.Hour, f.cache.ttl("search:hotels:H1"))

	resp, err = f.uc.GetItem(ctx, "hotel", "H1")
	require.NoError(t, err)
	assert.Equal(t, CacheHit, resp.CacheStatus)

	_, err = f.uc.GetItem(ctx, "hotels", "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.uc.GetItem(ctx, "cars", "H1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
