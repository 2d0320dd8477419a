package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travel-search/internal/delivery/http/handler"
	"travel-search/internal/delivery/http/middleware"
	v1 "travel-search/internal/delivery/http/routes/v1"
	"travel-search/internal/domain/search"
	"travel-search/internal/infrastructure/cache"
	"travel-search/internal/infrastructure/provider"
	"travel-search/internal/metrics"
	"travel-search/internal/pkg/jwt"
	"travel-search/internal/registry"
	"travel-search/internal/scheduler"
	"travel-search/internal/usecase"
	"travel-search/internal/ws"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app      *fiber.App
	searches *registry.Registry
	jwt      *jwt.HMACService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lg := zerolog.Nop()
	prom := prometheus.NewRegistry()
	m := metrics.New(prom)

	store := cache.NewRedisFromClient(client, time.Minute, lg)
	exec := usecase.NewSearchExecutor(map[search.Type]usecase.Provider{
		search.TypeFlights: provider.NewMockFlights(),
		search.TypeHotels:  provider.NewMockHotels(),
		search.TypeBuses:   provider.NewMockBuses(),
	}, lg, m)
	searches := registry.New()
	hub := ws.NewHub(lg, m)
	notifier := ws.NewNotifier(hub)
	sched := scheduler.New(searches, exec, store, notifier, hub, scheduler.Options{CacheTTL: time.Minute}, lg, m)

	searchUC := usecase.NewSearchUsecase(store, exec, nil, searches, usecase.SearchOptions{CacheTTL: time.Minute, AutoTrack: true}, lg, m)
	catalogUC := usecase.NewCatalogUsecase(nil, store, time.Hour, lg, m)
	trackerUC := usecase.NewTrackerUsecase(store, exec, searches, notifier, sched, time.Minute, lg, m)
	jwtSvc := jwt.NewHMACService("test-secret", time.Hour)

	handlers := &v1.Handlers{
		Health:    handler.NewHealthHandler(store, nil, sched),
		Search:    handler.NewSearchHandler(searchUC),
		Catalog:   handler.NewCatalogHandler(catalogUC),
		Tracker:   handler.NewTrackerHandler(trackerUC),
		Admin:     handler.NewAdminHandler(catalogUC, usecase.NewCacheAdminUsecase(store, lg)),
		AdminAuth: middleware.NewAdminMiddleware(jwtSvc).Middleware(),
	}

	app := fiber.New(fiber.Config{Immutable: true})
	app.Use(middleware.NewErrorMiddleware(lg).Middleware())
	NewRegistry(handlers, ws.NewHandler(hub, nil), promhttp.HandlerFor(prom, promhttp.HandlerOpts{})).Register(app)

	return &testServer{app: app, searches: searches, jwt: jwtSvc}
}

func (s *testServer) do(t *testing.T, method, target, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestSearch_MissThenHit(t *testing.T) {
	s := newTestServer(t)
	target := "/api/v1/search?type=flights&from=delhi&to=mumbai&date=2025-12-01"

	first := s.do(t, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "MISS", first.Header.Get("X-Cache"))
	body := decode(t, first)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1, s.searches.Len(), "live flight search is auto-tracked")

	second := s.do(t, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "HIT", second.Header.Get("X-Cache"))
}

func TestSearch_InvalidType(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v1/search?type=trains", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
}

func TestCatalog_OfflineIsUnavailable(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v1/hotels", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdmin_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v1/admin/cache/stats", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/admin/cache/stats", "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := s.jwt.GenerateAdminToken("ops")
	require.NoError(t, err)
	resp = s.do(t, http.MethodGet, "/api/v1/admin/cache/stats", tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTracker_TrackStatusStop(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v1/realtime/search?type=buses&from=pune&to=goa", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	id, _ := body["searchId"].(string)
	require.NotEmpty(t, id)

	resp = s.do(t, http.MethodGet, "/api/v1/realtime/status/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/v1/realtime/track/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/realtime/status/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, "up", data["cache"])
	assert.Equal(t, "disabled", data["database"])

	s.do(t, http.MethodGet, "/api/v1/search?type=buses&from=pune&to=goa", "")

	resp = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "travel_search_cache_lookups_total")
}
