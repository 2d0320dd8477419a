package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"
	"unsafe"

	"travel-search/internal/domain/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestRegistry_RegisterGetUnregister(t *testing.T) {
	r := New()
	r.Register("s1", search.TypeFlights, search.Params{"from": "delhi", "to": "mumbai"})

	got, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, search.TypeFlights, got.Type)
	assert.Equal(t, "delhi", got.Params["from"])
	assert.Empty(t, got.Results)
	assert.False(t, got.CreatedAt.IsZero())

	assert.True(t, r.Unregister("s1"))
	_, ok = r.Get("s1")
	assert.False(t, ok)
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := New()
	assert.False(t, r.Unregister("missing"))
	r.Register("s1", search.TypeBuses, nil)
	assert.True(t, r.Unregister("s1"))
	assert.False(t, r.Unregister("s1"))
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := New()
	r.Register("s1", search.TypeFlights, search.Params{"from": "a"})
	r.Register("s1", search.TypeHotels, search.Params{"city": "goa"})

	got, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, search.TypeHotels, got.Type)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SameParamsDifferentIDsAreIndependent(t *testing.T) {
	r := New()
	p := search.Params{"city": "goa"}
	r.Register("a", search.TypeHotels, p)
	r.Register("b", search.TypeHotels, p)
	require.True(t, r.UpdateResults("a", []search.Item{search.Item(`{"id":"h1"}`)}, time.Now()))

	b, _ := r.Get("b")
	assert.Empty(t, b.Results)
	assert.Len(t, r.List(), 2)
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := New()
	r.Register("s1", search.TypeHotels, search.Params{"city": "goa"})

	got, _ := r.Get("s1")
	got.Params["city"] = "changed"

	again, _ := r.Get("s1")
	assert.Equal(t, "goa", again.Params["city"])
}

func TestRegistry_UpdateResultsAfterUnregisterIsDropped(t *testing.T) {
	r := New()
	r.Register("s1", search.TypeFlights, nil)
	r.Unregister("s1")

	assert.False(t, r.UpdateResults("s1", []search.Item{search.Item(`{}`)}, time.Now()))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_UpdateResultsSetsLastRefresh(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)}
	r := New(WithClock(clock.Now))
	r.Register("s1", search.TypeFlights, nil)

	at := clock.Now().Add(30 * time.Second)
	require.True(t, r.UpdateResults("s1", []search.Item{search.Item(`{"id":"f1"}`)}, at))

	got, _ := r.Get("s1")
	assert.Equal(t, at, got.LastRefresh)
	assert.Len(t, got.Results, 1)
}

func TestRegistry_EvictIdle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)}
	r := New(WithClock(clock.Now), WithIdleTimeout(10*time.Minute))

	r.Register("old", search.TypeFlights, nil)
	clock.Advance(6 * time.Minute)
	r.Register("watched", search.TypeHotels, nil)
	clock.Advance(5 * time.Minute)
	r.Touch("watched")

	evicted := r.EvictIdle()
	assert.Equal(t, []string{"old"}, evicted)
	_, ok := r.Get("watched")
	assert.True(t, ok)
}

func TestRegistry_EvictIdleDisabled(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	r := New(WithClock(clock.Now))
	r.Register("s1", search.TypeFlights, nil)
	clock.Advance(24 * time.Hour)
	assert.Empty(t, r.EvictIdle())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			r.Register(id, search.TypeBuses, search.Params{"from": "a", "to": "b"})
			r.UpdateResults(id, []search.Item{search.Item(`{}`)}, time.Now())
			_ = r.List()
			if i%2 == 0 {
				r.Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
	for _, e := range r.List() {
		assert.Len(t, e.Results, 1)
	}
}

// volatile returns a string aliasing buf, the way request frameworks hand
// out path and query values backed by a reused buffer.
func volatile(buf []byte) string {
	return unsafe.String(unsafe.SliceData(buf), len(buf))
}

func overwrite(buf []byte) {
	for i := range buf {
		buf[i] = 'x'
	}
}

func TestRegistry_KeysSurviveCallerBufferReuse(t *testing.T) {
	r := New()

	idBuf := []byte("s1")
	paramBuf := []byte("delhi")
	r.Register(volatile(idBuf), search.TypeFlights, search.Params{"from": volatile(paramBuf)})
	overwrite(idBuf)
	overwrite(paramBuf)

	got, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "delhi", got.Params["from"])

	touchBuf := []byte("s1")
	require.True(t, r.Touch(volatile(touchBuf)))
	overwrite(touchBuf)

	updateBuf := []byte("s1")
	require.True(t, r.UpdateResults(volatile(updateBuf), []search.Item{search.Item(`{}`)}, time.Now()))
	overwrite(updateBuf)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].ID)
	assert.True(t, r.Unregister("s1"))
	assert.Zero(t, r.Len())
}
