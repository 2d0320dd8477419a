package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"travel-search/internal/domain/search"
	"travel-search/internal/metrics"
	"travel-search/internal/usecase"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeDropped = "dropped"
)

type Registry interface {
	List() []search.ActiveSearch
	UpdateResults(id string, results []search.Item, at time.Time) bool
	Touch(id string) bool
	EvictIdle() []string
	Len() int
}

type Executor interface {
	Execute(ctx context.Context, t search.Type, p search.Params) ([]search.Item, error)
}

type Broadcaster interface {
	BroadcastPriceUpdate(ctx context.Context, u search.PriceUpdate) error
}

// SubscriberCounter reports how many live connections watch a search.
type SubscriberCounter interface {
	SubscriberCount(channelID string) int
}

type Options struct {
	Interval    time.Duration
	Concurrency int
	CacheTTL    time.Duration
}

// Scheduler periodically re-runs every active search and broadcasts the
// fresh results.
type Scheduler struct {
	registry    Registry
	executor    Executor
	cache       usecase.SearchCache
	broadcaster Broadcaster
	subscribers SubscriberCounter
	opts        Options
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
	ticking atomic.Bool
	ticks   sync.WaitGroup
}

func New(
	registry Registry,
	executor Executor,
	cache usecase.SearchCache,
	broadcaster Broadcaster,
	subscribers SubscriberCounter,
	opts Options,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	return &Scheduler{
		registry:    registry,
		executor:    executor,
		cache:       cache,
		broadcaster: broadcaster,
		subscribers: subscribers,
		opts:        opts,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

// Start launches the refresh loop. Calling it on a running scheduler does
// nothing. The loop also ends when ctx is cancelled; Start may then be
// called again.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return
	}
	s.reapLocked()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go s.loop(runCtx, s.done)
	s.logger.Info().Dur("interval", s.opts.Interval).Int("concurrency", s.opts.Concurrency).Msg("[Scheduler] Price refresh started")
}

// Stop cancels in-flight refreshes and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.reapLocked()
	s.logger.Info().Msg("[Scheduler] Price refresh stopped")
}

// reapLocked cancels the current loop, if any, and waits for it to exit.
func (s *Scheduler) reapLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.running.Store(false)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)
	defer s.ticks.Wait()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ticks.Add(1)
			go func() {
				defer s.ticks.Done()
				s.Tick(ctx)
			}()
		}
	}
}

// Tick refreshes every active search once. A tick that fires while the
// previous one is still running is skipped.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.ticking.CompareAndSwap(false, true) {
		s.metrics.RefreshTick("skipped")
		s.logger.Warn().Msg("[Scheduler] Previous refresh still running, skipping tick")
		return
	}
	defer s.ticking.Store(false)

	if evicted := s.registry.EvictIdle(); len(evicted) > 0 {
		s.logger.Info().Strs("search_ids", evicted).Msg("[Scheduler] Evicted idle searches")
	}

	active := s.registry.List()
	s.metrics.SetActiveSearches(len(active))
	if len(active) == 0 {
		s.metrics.RefreshTick("empty")
		return
	}

	start := s.now()
	var (
		mu      sync.Mutex
		updates []search.PriceUpdate
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, a := range active {
		g.Go(func() error {
			u, outcome := s.refreshOne(gctx, a)
			s.metrics.RefreshSearch(outcome)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeOK:
				updates = append(updates, u)
			case outcomeError:
				failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, u := range updates {
		if err := s.broadcaster.BroadcastPriceUpdate(ctx, u); err != nil {
			s.logger.Warn().Err(err).Str("search_id", u.SearchID).Msg("[Scheduler] Broadcast failed")
		}
		if s.subscribers != nil && s.subscribers.SubscriberCount(u.SearchID) > 0 {
			s.registry.Touch(u.SearchID)
		}
	}

	outcome := "ok"
	if failed > 0 {
		outcome = "partial"
	}
	s.metrics.RefreshTick(outcome)
	s.logger.Info().
		Int("searches", len(active)).
		Int("refreshed", len(updates)).
		Int("failed", failed).
		Dur("took", s.now().Sub(start)).
		Msg("[Scheduler] Refresh tick completed")
}

func (s *Scheduler) refreshOne(ctx context.Context, a search.ActiveSearch) (search.PriceUpdate, string) {
	results, err := s.executor.Execute(ctx, a.Type, a.Params)
	if err != nil {
		s.logger.Warn().Err(err).Str("search_id", a.ID).Str("type", a.Type.String()).Msg("[Scheduler] Refresh failed")
		return search.PriceUpdate{}, outcomeError
	}

	at := s.now().UTC()
	if !s.registry.UpdateResults(a.ID, results, at) {
		s.logger.Debug().Str("search_id", a.ID).Msg("[Scheduler] Search stopped during refresh, dropping results")
		return search.PriceUpdate{}, outcomeDropped
	}

	if s.cache != nil {
		key := usecase.BuildSearchKey(a.Type, a.Params)
		if err := s.cache.SetJSON(ctx, key, results, s.opts.CacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("[Scheduler] Cache write failed")
		}
	}

	return search.PriceUpdate{
		SearchID:  a.ID,
		Type:      a.Type,
		Params:    a.Params,
		Results:   results,
		Cached:    false,
		Timestamp: at,
	}, outcomeOK
}

func (s *Scheduler) Status() usecase.SchedulerStatus {
	return usecase.SchedulerStatus{
		Running:        s.running.Load(),
		IntervalMs:     s.opts.Interval.Milliseconds(),
		ActiveSearches: s.registry.Len(),
	}
}
