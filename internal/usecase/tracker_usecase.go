package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"travel-search/internal/domain/search"
	"travel-search/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type SchedulerStatus struct {
	Running        bool  `json:"running"`
	IntervalMs     int64 `json:"intervalMs"`
	ActiveSearches int   `json:"activeSearches"`
}

type TrackedSearchResponse struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	SearchID  string        `json:"searchId"`
	Type      search.Type   `json:"type"`
	Params    search.Params `json:"params"`
	Data      []search.Item `json:"data"`
	Cached    bool          `json:"cached"`
	Timestamp time.Time     `json:"timestamp"`
}

type TrackAllResponse struct {
	Success   bool                          `json:"success"`
	Message   string                        `json:"message"`
	SearchIDs map[search.Type]string        `json:"searchIds"`
	Data      map[search.Type][]search.Item `json:"data"`
	Timestamp time.Time                     `json:"timestamp"`
}

type ActiveSearchRegistry interface {
	Register(id string, t search.Type, params search.Params)
	Get(id string) (search.ActiveSearch, bool)
	Unregister(id string) bool
	UpdateResults(id string, results []search.Item, at time.Time) bool
	Touch(id string) bool
}

type PriceBroadcaster interface {
	BroadcastPriceUpdate(ctx context.Context, u search.PriceUpdate) error
}

type SchedulerStatusReader interface {
	Status() SchedulerStatus
}

type TrackerUsecase interface {
	SearchWithTracking(ctx context.Context, t string, params search.Params) (TrackedSearchResponse, error)
	SearchAll(ctx context.Context, params search.Params) (TrackAllResponse, error)
	Status(id string) (search.ActiveSearch, error)
	StopTracking(id string) error
	SchedulerStatus() SchedulerStatus
}

type Tracker struct {
	cache       SearchCache
	executor    *SearchExecutor
	registry    ActiveSearchRegistry
	broadcaster PriceBroadcaster
	scheduler   SchedulerStatusReader
	cacheTTL    time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	newID       func() string
}

func NewTrackerUsecase(
	cache SearchCache,
	executor *SearchExecutor,
	registry ActiveSearchRegistry,
	broadcaster PriceBroadcaster,
	scheduler SchedulerStatusReader,
	cacheTTL time.Duration,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Tracker {
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &Tracker{
		cache:       cache,
		executor:    executor,
		registry:    registry,
		broadcaster: broadcaster,
		scheduler:   scheduler,
		cacheTTL:    cacheTTL,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// SearchWithTracking runs a cache-aside search for one concrete type and
// registers it for periodic refresh under a fresh search id.
func (u *Tracker) SearchWithTracking(ctx context.Context, typ string, params search.Params) (TrackedSearchResponse, error) {
	t, err := search.ParseType(typ)
	if err != nil || t == search.TypeAll {
		return TrackedSearchResponse{}, fmt.Errorf("%w: type must be one of flights, hotels, buses", ErrInvalidInput)
	}
	if err := requireTrackParams(t, params); err != nil {
		return TrackedSearchResponse{}, err
	}

	params = params.Clone()
	key := BuildSearchKey(t, params)
	id := u.newID()

	if u.cache != nil {
		var cached []search.Item
		hit, err := u.cache.GetJSON(ctx, key, &cached)
		if err == nil && hit {
			u.metrics.CacheLookup("tracker", true)
			u.registry.Register(id, t, params)
			u.registry.UpdateResults(id, cached, u.now().UTC())
			u.logger.Info().Str("search_id", id).Str("key", key).Msg("[Tracker] Tracking cached search")
			return u.response(id, t, params, cached, true, "Results from cache"), nil
		}
	}
	u.metrics.CacheLookup("tracker", false)

	results, err := u.executor.Execute(ctx, t, params)
	if err != nil {
		return TrackedSearchResponse{}, err
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, results, u.cacheTTL); err != nil {
			u.logger.Warn().Err(err).Str("key", key).Msg("[Tracker] Cache write failed")
		}
	}

	at := u.now().UTC()
	u.registry.Register(id, t, params)
	u.registry.UpdateResults(id, results, at)
	u.broadcast(ctx, search.PriceUpdate{SearchID: id, Type: t, Params: params, Results: results, Timestamp: at})

	u.logger.Info().Str("search_id", id).Str("type", t.String()).Int("results", len(results)).Msg("[Tracker] Tracking new search")
	resp := u.response(id, t, params, results, false, "Fresh results")
	resp.Timestamp = at
	return resp, nil
}

// SearchAll tracks every type the params are sufficient for: flights and
// buses need from, to and date; hotels need city and a check-in date. A
// failing type contributes an empty list.
func (u *Tracker) SearchAll(ctx context.Context, params search.Params) (TrackAllResponse, error) {
	plan := make(map[search.Type]search.Params)

	from, to, city := params.Get("from"), params.Get("to"), params.Get("city")
	date, checkIn := params.Get("date"), params.Get("checkInDate")

	if from != "" && to != "" && date != "" {
		flights := search.Params{"from": from, "to": to, "date": date}
		setIf(flights, "returnDate", params.Get("returnDate"))
		setIf(flights, "adults", params.Get("adults"))
		plan[search.TypeFlights] = flights

		buses := search.Params{"from": from, "to": to, "date": date}
		setIf(buses, "adults", params.Get("adults"))
		plan[search.TypeBuses] = buses
	}
	if city != "" && (date != "" || checkIn != "") {
		hotels := search.Params{
			"city":        city,
			"date":        firstNonEmpty(date, checkIn),
			"checkInDate": firstNonEmpty(checkIn, date),
		}
		setIf(hotels, "checkOutDate", firstNonEmpty(params.Get("checkOutDate"), params.Get("returnDate")))
		setIf(hotels, "adults", params.Get("adults"))
		plan[search.TypeHotels] = hotels
	}
	if len(plan) == 0 {
		return TrackAllResponse{}, fmt.Errorf("%w: provide from, to and date, or city and a check-in date", ErrInvalidInput)
	}

	var mu sync.Mutex
	resp := TrackAllResponse{
		Success:   true,
		SearchIDs: make(map[search.Type]string, len(plan)),
		Data:      make(map[search.Type][]search.Item, len(plan)),
		Timestamp: u.now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	for t, p := range plan {
		g.Go(func() error {
			r, err := u.SearchWithTracking(gctx, t.String(), p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				u.logger.Warn().Err(err).Str("type", t.String()).Msg("[Tracker] Type failed in combined tracking")
				resp.Data[t] = []search.Item{}
				return nil
			}
			resp.SearchIDs[t] = r.SearchID
			resp.Data[t] = r.Data
			return nil
		})
	}
	_ = g.Wait()

	names := make([]string, 0, len(resp.SearchIDs))
	for _, t := range search.ConcreteTypes {
		if _, ok := resp.SearchIDs[t]; ok {
			names = append(names, t.String())
		}
	}
	resp.Message = "Tracking " + strings.Join(names, ", ")
	return resp, nil
}

func (u *Tracker) Status(id string) (search.ActiveSearch, error) {
	if !u.registry.Touch(id) {
		return search.ActiveSearch{}, ErrSearchNotFound
	}
	a, ok := u.registry.Get(id)
	if !ok {
		return search.ActiveSearch{}, ErrSearchNotFound
	}
	return a, nil
}

func (u *Tracker) StopTracking(id string) error {
	if !u.registry.Unregister(id) {
		return ErrSearchNotFound
	}
	u.logger.Info().Str("search_id", id).Msg("[Tracker] Stopped tracking")
	return nil
}

func (u *Tracker) SchedulerStatus() SchedulerStatus {
	if u.scheduler == nil {
		return SchedulerStatus{}
	}
	return u.scheduler.Status()
}

func (u *Tracker) broadcast(ctx context.Context, upd search.PriceUpdate) {
	if u.broadcaster == nil {
		return
	}
	if err := u.broadcaster.BroadcastPriceUpdate(ctx, upd); err != nil {
		u.logger.Warn().Err(err).Str("search_id", upd.SearchID).Msg("[Tracker] Broadcast failed")
	}
}

func (u *Tracker) response(id string, t search.Type, params search.Params, results []search.Item, cached bool, msg string) TrackedSearchResponse {
	return TrackedSearchResponse{
		Success:   true,
		Message:   msg,
		SearchID:  id,
		Type:      t,
		Params:    params,
		Data:      nonNil(results),
		Cached:    cached,
		Timestamp: u.now().UTC(),
	}
}

func requireTrackParams(t search.Type, p search.Params) error {
	if t == search.TypeHotels {
		if firstNonEmpty(p.Get("city"), p.Get("to")) == "" {
			return fmt.Errorf("%w: city is required for hotels", ErrInvalidInput)
		}
		return nil
	}
	if strings.TrimSpace(p.Get("from")) == "" || strings.TrimSpace(p.Get("to")) == "" {
		return fmt.Errorf("%w: from and to are required for %s", ErrInvalidInput, t)
	}
	return nil
}
