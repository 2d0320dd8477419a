package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type CacheEntry struct {
	Key  string        `json:"key"`
	TTL  time.Duration `json:"ttl"`
	Size int64         `json:"size"`
}

// CacheAdminStore is the operator view of the cache backend.
type CacheAdminStore interface {
	Inspect(ctx context.Context, pattern string) ([]CacheEntry, error)
	DeleteByPattern(ctx context.Context, pattern string) error
	FlushAll(ctx context.Context) error
}

type CacheStats struct {
	TotalKeys int            `json:"totalKeys"`
	ByPrefix  map[string]int `json:"byPrefix"`
	Entries   []CacheEntry   `json:"entries"`
}

type CacheAdminUsecase interface {
	Stats(ctx context.Context, pattern string) (CacheStats, error)
	Clear(ctx context.Context, pattern string) error
	Flush(ctx context.Context) error
}

type CacheAdmin struct {
	store  CacheAdminStore
	logger zerolog.Logger
}

func NewCacheAdminUsecase(store CacheAdminStore, logger zerolog.Logger) *CacheAdmin {
	return &CacheAdmin{store: store, logger: logger}
}

// Stats lists keys matching pattern (all keys when empty), grouped by the
// segment before the first colon.
func (u *CacheAdmin) Stats(ctx context.Context, pattern string) (CacheStats, error) {
	if pattern = strings.TrimSpace(pattern); pattern == "" {
		pattern = "*"
	}
	entries, err := u.store.Inspect(ctx, pattern)
	if err != nil {
		return CacheStats{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	byPrefix := make(map[string]int)
	for _, e := range entries {
		prefix, _, _ := strings.Cut(e.Key, ":")
		byPrefix[prefix]++
	}
	return CacheStats{TotalKeys: len(entries), ByPrefix: byPrefix, Entries: entries}, nil
}

// Clear deletes keys matching pattern; the default is every search entry.
func (u *CacheAdmin) Clear(ctx context.Context, pattern string) error {
	if pattern = strings.TrimSpace(pattern); pattern == "" {
		pattern = SearchPattern
	}
	if err := u.store.DeleteByPattern(ctx, pattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	u.logger.Info().Str("pattern", pattern).Msg("[Cache] Cleared")
	return nil
}

func (u *CacheAdmin) Flush(ctx context.Context) error {
	if err := u.store.FlushAll(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	u.logger.Warn().Msg("[Cache] Flushed all keys")
	return nil
}
