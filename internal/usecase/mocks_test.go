package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"travel-search/internal/domain/catalog"
	"travel-search/internal/domain/search"
)

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	deleted []string
	getErr  error
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *mockCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			m.deleted = append(m.deleted, k)
		}
	}
	return nil
}

func (m *mockCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *mockCache) ttl(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

type mockProvider struct {
	count int
	err   error
	calls atomic.Int32
	last  atomic.Pointer[ProviderQuery]
}

func (m *mockProvider) Search(_ context.Context, q ProviderQuery) ([]search.Item, error) {
	m.calls.Add(1)
	m.last.Store(&q)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]search.Item, 0, m.count)
	for i := 0; i < m.count; i++ {
		out = append(out, search.Item(fmt.Sprintf(`{"id":"x%d","price":%d}`, i+1, 1000+i)))
	}
	return out, nil
}

type mockCatalogRepo struct {
	mu    sync.Mutex
	items map[search.Type]map[string]catalog.Item
	seq   int
	err   error
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{items: map[search.Type]map[string]catalog.Item{}}
}

func (m *mockCatalogRepo) put(t search.Type, id, fields string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[t] == nil {
		m.items[t] = map[string]catalog.Item{}
	}
	m.items[t][id] = catalog.Item{ID: id, Type: t, Fields: json.RawMessage(fields)}
}

func (m *mockCatalogRepo) FindByID(_ context.Context, t search.Type, id string) (catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return catalog.Item{}, m.err
	}
	it, ok := m.items[t][id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return it, nil
}

func (m *mockCatalogRepo) List(_ context.Context, t search.Type, _ catalog.Filter) ([]catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]catalog.Item, 0, len(m.items[t]))
	for _, it := range m.items[t] {
		out = append(out, it)
	}
	return out, nil
}

func (m *mockCatalogRepo) Create(_ context.Context, t search.Type, fields json.RawMessage) (catalog.Item, error) {
	m.mu.Lock()
	m.seq++
	id := fmt.Sprintf("%s-%d", t.Singular(), m.seq)
	m.mu.Unlock()
	m.put(t, id, string(fields))
	return m.FindByID(context.Background(), t, id)
}

func (m *mockCatalogRepo) Update(_ context.Context, t search.Type, id string, fields json.RawMessage) (catalog.Item, error) {
	if _, err := m.FindByID(context.Background(), t, id); err != nil {
		return catalog.Item{}, err
	}
	m.put(t, id, string(fields))
	return m.FindByID(context.Background(), t, id)
}

func (m *mockCatalogRepo) Delete(_ context.Context, t search.Type, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[t][id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.items[t], id)
	return nil
}

type mockRegistry struct {
	mu      sync.Mutex
	entries map[string]search.ActiveSearch
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{entries: map[string]search.ActiveSearch{}}
}

func (m *mockRegistry) Register(id string, t search.Type, params search.Params) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = search.ActiveSearch{ID: id, Type: t, Params: params.Clone(), Results: []search.Item{}}
}

func (m *mockRegistry) Get(id string) (search.ActiveSearch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.entries[id]
	return a, ok
}

func (m *mockRegistry) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	delete(m.entries, id)
	return ok
}

func (m *mockRegistry) UpdateResults(id string, results []search.Item, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.entries[id]
	if !ok {
		return false
	}
	a.Results = results
	a.LastRefresh = at
	m.entries[id] = a
	return true
}

func (m *mockRegistry) Touch(id string) bool {
	_, ok := m.Get(id)
	return ok
}

func (m *mockRegistry) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for id := range m.entries {
		out = append(out, id)
	}
	return out
}

type mockBroadcaster struct {
	mu      sync.Mutex
	updates []search.PriceUpdate
}

func (m *mockBroadcaster) BroadcastPriceUpdate(_ context.Context, u search.PriceUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, u)
	return nil
}

func (m *mockBroadcaster) all() []search.PriceUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]search.PriceUpdate(nil), m.updates...)
}

var errProviderDown = errors.New("provider down")
