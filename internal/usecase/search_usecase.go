package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"travel-search/internal/domain/catalog"
	"travel-search/internal/domain/search"
	"travel-search/internal/metrics"

	"github.com/rs/zerolog"
)

type SearchRequest struct {
	Type   string
	From   string
	To     string
	City   string
	Date   string
	Adults string
}

func (r SearchRequest) trimmed() SearchRequest {
	return SearchRequest{
		Type:   strings.TrimSpace(r.Type),
		From:   strings.TrimSpace(r.From),
		To:     strings.TrimSpace(r.To),
		City:   strings.TrimSpace(r.City),
		Date:   strings.TrimSpace(r.Date),
		Adults: strings.TrimSpace(r.Adults),
	}
}

type SearchFilters struct {
	Type string `json:"type"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	City string `json:"city,omitempty"`
	Date string `json:"date,omitempty"`
}

type SearchCount struct {
	Total   int `json:"total"`
	Hotels  int `json:"hotels"`
	Flights int `json:"flights"`
	Buses   int `json:"buses"`
}

type SearchData struct {
	Hotels  []search.Item `json:"hotels"`
	Flights []search.Item `json:"flights"`
	Buses   []search.Item `json:"buses"`
}

type SearchResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	Filters     SearchFilters `json:"filters"`
	Count       SearchCount   `json:"count"`
	Data        SearchData    `json:"data"`
	CacheStatus CacheStatus   `json:"_cacheStatus,omitempty"`
}

type ItemResponse struct {
	Success     bool           `json:"success"`
	Data        map[string]any `json:"data"`
	CacheStatus CacheStatus    `json:"-"`
}

// CatalogReader is the read side of the catalog the search falls back to
// when a type has no live search parameters.
type CatalogReader interface {
	FindByID(ctx context.Context, t search.Type, id string) (catalog.Item, error)
	List(ctx context.Context, t search.Type, f catalog.Filter) ([]catalog.Item, error)
}

type searchRegistrar interface {
	Register(id string, t search.Type, params search.Params)
}

type SearchUsecase interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	GetItem(ctx context.Context, itemType, id string) (ItemResponse, error)
}

type SearchOptions struct {
	CacheTTL        time.Duration
	CatalogCacheTTL time.Duration
	AutoTrack       bool
}

type Search struct {
	cache    SearchCache
	executor *SearchExecutor
	catalog  CatalogReader
	registry searchRegistrar
	opts     SearchOptions
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewSearchUsecase(cache SearchCache, executor *SearchExecutor, catalogReader CatalogReader, registry searchRegistrar, opts SearchOptions, logger zerolog.Logger, m *metrics.Metrics) *Search {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 60 * time.Second
	}
	if opts.CatalogCacheTTL <= 0 {
		opts.CatalogCacheTTL = time.Hour
	}
	return &Search{
		cache:    cache,
		executor: executor,
		catalog:  catalogReader,
		registry: registry,
		opts:     opts,
		logger:   logger,
		metrics:  m,
	}
}

func (u *Search) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	req = req.trimmed()
	st, types, err := parseCombinedType(req.Type)
	if err != nil {
		return SearchResponse{}, err
	}

	cacheKey := LegacySearchKey(st, req.From, req.To, req.City, req.Date)

	if u.cache != nil {
		var cached SearchResponse
		hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			u.logger.Debug().Str("key", cacheKey).Msg("[Search] Cache HIT")
			u.metrics.CacheLookup("search", true)
			cached.CacheStatus = CacheHit
			return cached, nil
		}
	}
	u.logger.Debug().Str("key", cacheKey).Msg("[Search] Cache MISS")
	u.metrics.CacheLookup("search", false)

	params := search.Params{}
	setIf(params, "from", req.From)
	setIf(params, "to", req.To)
	setIf(params, "city", req.City)
	setIf(params, "date", req.Date)
	setIf(params, "adults", req.Adults)

	var live, fallback []search.Type
	for _, t := range types {
		if hasLiveParams(t, req) {
			live = append(live, t)
		} else {
			fallback = append(fallback, t)
		}
	}

	results := u.executor.ExecuteMany(ctx, live, params)
	for _, t := range fallback {
		results[t] = u.catalogFallback(ctx, t, req)
	}

	data := SearchData{
		Hotels:  nonNil(results[search.TypeHotels]),
		Flights: nonNil(results[search.TypeFlights]),
		Buses:   nonNil(results[search.TypeBuses]),
	}
	resp := SearchResponse{
		Success: true,
		Message: "Search completed successfully",
		Filters: SearchFilters{Type: st.String(), From: req.From, To: req.To, City: req.City, Date: req.Date},
		Count: SearchCount{
			Total:   len(data.Hotels) + len(data.Flights) + len(data.Buses),
			Hotels:  len(data.Hotels),
			Flights: len(data.Flights),
			Buses:   len(data.Buses),
		},
		Data: data,
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, cacheKey, resp, u.opts.CacheTTL); err != nil {
			u.logger.Warn().Err(err).Str("key", cacheKey).Msg("[Search] Cache SET failed")
		} else {
			u.logger.Debug().Str("key", cacheKey).Dur("ttl", u.opts.CacheTTL).Msg("[Search] Cache SET")
		}
	}

	if u.opts.AutoTrack && u.registry != nil && resp.Count.Total > 0 {
		for _, t := range live {
			if len(results[t]) == 0 {
				continue
			}
			searchID := t.String() + ":" + cacheKey
			u.registry.Register(searchID, t, params.Clone())
			u.logger.Info().Str("search_id", searchID).Msg("[Search] Registered for price updates")
		}
	}

	resp.CacheStatus = CacheMiss
	return resp, nil
}

func (u *Search) GetItem(ctx context.Context, itemType, id string) (ItemResponse, error) {
	t, err := search.ParseType(itemType)
	if err != nil {
		return ItemResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ItemResponse{}, fmt.Errorf("%w: empty id", ErrInvalidInput)
	}

	cacheKey := SearchItemKey(t, id)
	if u.cache != nil {
		var cached ItemResponse
		hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			u.metrics.CacheLookup("search_item", true)
			cached.CacheStatus = CacheHit
			return cached, nil
		}
	}
	u.metrics.CacheLookup("search_item", false)

	if u.catalog == nil {
		return ItemResponse{}, ErrCatalogOffline
	}
	item, err := u.catalog.FindByID(ctx, t, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ItemResponse{}, fmt.Errorf("%w: %s %s", ErrItemNotFound, t.Singular(), id)
		}
		return ItemResponse{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	resp := ItemResponse{
		Success: true,
		Data: map[string]any{
			"type":       t.String(),
			t.Singular(): catalogDocument(item),
		},
	}
	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, cacheKey, resp, u.opts.CatalogCacheTTL); err != nil {
			u.logger.Warn().Err(err).Str("key", cacheKey).Msg("[Search] Cache SET failed")
		}
	}
	resp.CacheStatus = CacheMiss
	return resp, nil
}

func (u *Search) catalogFallback(ctx context.Context, t search.Type, req SearchRequest) []search.Item {
	if u.catalog == nil {
		return []search.Item{}
	}
	f := catalog.Filter{From: req.From, To: req.To}
	if t == search.TypeHotels {
		f = catalog.Filter{City: req.City}
	}
	rows, err := u.catalog.List(ctx, t, f)
	if err != nil {
		u.logger.Warn().Err(err).Str("type", t.String()).Msg("[Search] Catalog fallback failed")
		return []search.Item{}
	}
	out := make([]search.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, catalogDocument(r))
	}
	return out
}

// catalogDocument renders a catalog row as the item document with its id.
func catalogDocument(it catalog.Item) search.Item {
	doc := map[string]any{}
	if len(it.Fields) > 0 {
		_ = json.Unmarshal(it.Fields, &doc)
	}
	doc["id"] = it.ID
	b, err := json.Marshal(doc)
	if err != nil {
		return search.Item(`{}`)
	}
	return b
}

func parseCombinedType(raw string) (search.Type, []search.Type, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == string(search.TypeAll) {
		return search.TypeAll, search.ConcreteTypes, nil
	}
	t, err := search.ParseType(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: type must be all, flights, hotels or buses", ErrInvalidInput)
	}
	return t, []search.Type{t}, nil
}

func hasLiveParams(t search.Type, req SearchRequest) bool {
	if t == search.TypeHotels {
		return strings.TrimSpace(req.City) != ""
	}
	return strings.TrimSpace(req.From) != "" && strings.TrimSpace(req.To) != ""
}

func setIf(p search.Params, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		p[key] = v
	}
}

func nonNil(items []search.Item) []search.Item {
	if items == nil {
		return []search.Item{}
	}
	return items
}
