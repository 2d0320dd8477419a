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

type CatalogListResponse struct {
	Success     bool           `json:"success"`
	Count       int            `json:"count"`
	Data        map[string]any `json:"data"`
	CacheStatus CacheStatus    `json:"-"`
}

type CatalogItemResponse struct {
	Success     bool           `json:"success"`
	Data        map[string]any `json:"data"`
	CacheStatus CacheStatus    `json:"-"`
}

type CatalogUsecase interface {
	List(ctx context.Context, itemType string) (CatalogListResponse, error)
	Get(ctx context.Context, itemType, id string) (CatalogItemResponse, error)
	Create(ctx context.Context, itemType string, fields json.RawMessage) (catalog.Item, error)
	Update(ctx context.Context, itemType, id string, fields json.RawMessage) (catalog.Item, error)
	Delete(ctx context.Context, itemType, id string) error
}

// Catalog serves flights, hotels and buses by id and as full listings
// behind long-lived cache entries. Every write invalidates the entries it
// makes stale before returning.
type Catalog struct {
	repo    catalog.Repository
	cache   SearchCache
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewCatalogUsecase(repo catalog.Repository, cache SearchCache, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Catalog {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Catalog{repo: repo, cache: cache, ttl: ttl, logger: logger, metrics: m}
}

func (u *Catalog) List(ctx context.Context, itemType string) (CatalogListResponse, error) {
	t, err := u.parse(itemType)
	if err != nil {
		return CatalogListResponse{}, err
	}

	key := CatalogListKey(t)
	var cached CatalogListResponse
	if u.lookup(ctx, key, &cached) {
		cached.CacheStatus = CacheHit
		return cached, nil
	}

	rows, err := u.repo.List(ctx, t, catalog.Filter{})
	if err != nil {
		return CatalogListResponse{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	docs := make([]search.Item, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, catalogDocument(r))
	}

	resp := CatalogListResponse{
		Success: true,
		Count:   len(docs),
		Data:    map[string]any{t.String(): docs},
	}
	u.store(ctx, key, resp)
	resp.CacheStatus = CacheMiss
	return resp, nil
}

func (u *Catalog) Get(ctx context.Context, itemType, id string) (CatalogItemResponse, error) {
	t, err := u.parse(itemType)
	if err != nil {
		return CatalogItemResponse{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return CatalogItemResponse{}, fmt.Errorf("%w: empty id", ErrInvalidInput)
	}
	// {type}:all is the listing key.
	if id == catalogListID {
		return CatalogItemResponse{}, fmt.Errorf("%w: %q is not an item id", ErrInvalidInput, id)
	}

	key := CatalogItemKey(t, id)
	var cached CatalogItemResponse
	if u.lookup(ctx, key, &cached) {
		cached.CacheStatus = CacheHit
		return cached, nil
	}

	item, err := u.repo.FindByID(ctx, t, id)
	if err != nil {
		return CatalogItemResponse{}, mapCatalogError(err, t, id)
	}

	resp := CatalogItemResponse{
		Success: true,
		Data:    map[string]any{t.Singular(): catalogDocument(item)},
	}
	u.store(ctx, key, resp)
	resp.CacheStatus = CacheMiss
	return resp, nil
}

func (u *Catalog) Create(ctx context.Context, itemType string, fields json.RawMessage) (catalog.Item, error) {
	t, err := u.parse(itemType)
	if err != nil {
		return catalog.Item{}, err
	}
	if err := validateFields(fields); err != nil {
		return catalog.Item{}, err
	}

	item, err := u.repo.Create(ctx, t, fields)
	if err != nil {
		return catalog.Item{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if u.cache != nil {
		if err := u.cache.DeleteByPattern(ctx, CatalogPattern(t)); err != nil {
			u.logger.Warn().Err(err).Str("pattern", CatalogPattern(t)).Msg("[Catalog] Invalidation failed")
		}
	}
	return item, nil
}

func (u *Catalog) Update(ctx context.Context, itemType, id string, fields json.RawMessage) (catalog.Item, error) {
	t, err := u.parse(itemType)
	if err != nil {
		return catalog.Item{}, err
	}
	if err := validateFields(fields); err != nil {
		return catalog.Item{}, err
	}

	item, err := u.repo.Update(ctx, t, id, fields)
	if err != nil {
		return catalog.Item{}, mapCatalogError(err, t, id)
	}
	u.invalidateItem(ctx, t, id)
	return item, nil
}

func (u *Catalog) Delete(ctx context.Context, itemType, id string) error {
	t, err := u.parse(itemType)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, t, id); err != nil {
		return mapCatalogError(err, t, id)
	}
	u.invalidateItem(ctx, t, id)
	return nil
}

// invalidateItem drops the id entry, the listing and the by-id search entry.
func (u *Catalog) invalidateItem(ctx context.Context, t search.Type, id string) {
	if u.cache == nil {
		return
	}
	for _, key := range []string{CatalogItemKey(t, id), CatalogListKey(t), SearchItemKey(t, id)} {
		if err := u.cache.Delete(ctx, key); err != nil {
			u.logger.Warn().Err(err).Str("key", key).Msg("[Catalog] Invalidation failed")
		}
	}
}

func (u *Catalog) parse(itemType string) (search.Type, error) {
	if u.repo == nil {
		return "", ErrCatalogOffline
	}
	t, err := search.ParseType(itemType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t, nil
}

func (u *Catalog) lookup(ctx context.Context, key string, out any) bool {
	if u.cache == nil {
		return false
	}
	hit, err := u.cache.GetJSON(ctx, key, out)
	hit = err == nil && hit
	u.metrics.CacheLookup("catalog", hit)
	return hit
}

func (u *Catalog) store(ctx context.Context, key string, value any) {
	if u.cache == nil {
		return
	}
	if err := u.cache.SetJSON(ctx, key, value, u.ttl); err != nil {
		u.logger.Warn().Err(err).Str("key", key).Msg("[Catalog] Cache SET failed")
	}
}

func validateFields(fields json.RawMessage) error {
	var doc map[string]any
	if len(fields) == 0 || json.Unmarshal(fields, &doc) != nil || doc == nil {
		return fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}
	if p, ok := doc["price"]; ok {
		if n, ok := p.(float64); !ok || n < 0 {
			return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput)
		}
	}
	return nil
}

func mapCatalogError(err error, t search.Type, id string) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrItemNotFound, t.Singular(), id)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
