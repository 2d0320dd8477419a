package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"travel-search/internal/domain/search"
	"travel-search/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ProviderQuery is the normalized input every provider receives.
type ProviderQuery struct {
	Origin        string
	Destination   string
	City          string
	DepartureDate string
	ReturnDate    string
	CheckInDate   string
	CheckOutDate  string
	Adults        int
}

type Provider interface {
	Search(ctx context.Context, q ProviderQuery) ([]search.Item, error)
}

type SearchExecutor struct {
	providers map[search.Type]Provider
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewSearchExecutor(providers map[search.Type]Provider, logger zerolog.Logger, m *metrics.Metrics) *SearchExecutor {
	return &SearchExecutor{providers: providers, logger: logger, metrics: m}
}

// NormalizeQuery maps search parameters onto a provider query, filling
// provider defaults for absent optional fields.
func NormalizeQuery(t search.Type, p search.Params) (ProviderQuery, error) {
	adults := 1
	if raw := strings.TrimSpace(p.Get("adults")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			adults = n
		}
	}

	switch t {
	case search.TypeFlights, search.TypeBuses:
		return ProviderQuery{
			Origin:        p.Get("from"),
			Destination:   p.Get("to"),
			DepartureDate: p.Get("date"),
			ReturnDate:    p.Get("returnDate"),
			Adults:        adults,
		}, nil

	case search.TypeHotels:
		city := firstNonEmpty(p.Get("city"), p.Get("to"))
		checkIn := firstNonEmpty(p.Get("date"), p.Get("checkInDate"))
		checkOut := firstNonEmpty(p.Get("checkOutDate"), p.Get("returnDate"))
		if checkOut == "" && checkIn != "" {
			if d, err := time.Parse(time.DateOnly, checkIn); err == nil {
				checkOut = d.AddDate(0, 0, 1).Format(time.DateOnly)
			}
		}
		return ProviderQuery{
			City:         city,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			Adults:       adults,
		}, nil

	default:
		return ProviderQuery{}, fmt.Errorf("%w: %s", search.ErrInvalidType, t)
	}
}

// Execute runs one search against the provider for t and returns
// provider failures to the caller.
func (e *SearchExecutor) Execute(ctx context.Context, t search.Type, p search.Params) ([]search.Item, error) {
	q, err := NormalizeQuery(t, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	provider, ok := e.providers[t]
	if !ok || provider == nil {
		return nil, fmt.Errorf("%w: no provider for %s", ErrInvalidInput, t)
	}

	items, err := provider.Search(ctx, q)
	if err != nil {
		e.metrics.ProviderCall(t.String(), "error")
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderFailed, t, err)
	}
	e.metrics.ProviderCall(t.String(), "ok")
	if items == nil {
		items = []search.Item{}
	}
	return items, nil
}

// ExecuteMany runs the given types concurrently. A failing type yields
// an empty result so the others are still returned.
func (e *SearchExecutor) ExecuteMany(ctx context.Context, types []search.Type, p search.Params) map[search.Type][]search.Item {
	out := make(map[search.Type][]search.Item, len(types))
	var mu sync.Mutex
	var g errgroup.Group

	for _, t := range types {
		g.Go(func() error {
			items, err := e.Execute(ctx, t, p)
			if err != nil {
				e.logger.Warn().Err(err).Str("type", t.String()).Msg("[Search] Provider failed, returning empty results")
				items = []search.Item{}
			}
			mu.Lock()
			out[t] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
