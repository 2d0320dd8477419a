// Package metrics holds the Prometheus collectors for the cache, the
// providers, the refresh scheduler and the websocket hub. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	cacheLookups     *prometheus.CounterVec
	providerCalls    *prometheus.CounterVec
	refreshTicks     *prometheus.CounterVec
	refreshSearches  *prometheus.CounterVec
	activeSearches   prometheus.Gauge
	wsClients        prometheus.Gauge
	broadcastsSent   prometheus.Counter
	broadcastDropped prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travel_search",
			Name:      "cache_lookups_total",
			Help:      "Cache-aside lookups by route and status (hit, miss).",
		}, []string{"route", "status"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travel_search",
			Name:      "provider_calls_total",
			Help:      "Upstream provider calls by search type and outcome.",
		}, []string{"type", "outcome"}),
		refreshTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travel_search",
			Name:      "refresh_ticks_total",
			Help:      "Refresh scheduler ticks by outcome (run, empty, skipped).",
		}, []string{"outcome"}),
		refreshSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travel_search",
			Name:      "refresh_searches_total",
			Help:      "Active searches refreshed by outcome (ok, error, dropped).",
		}, []string{"outcome"}),
		activeSearches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "travel_search",
			Name:      "active_searches",
			Help:      "Searches currently registered for background refresh.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "travel_search",
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
		broadcastsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "travel_search",
			Name:      "broadcast_deliveries_total",
			Help:      "Messages handed to subscriber connections.",
		}),
		broadcastDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "travel_search",
			Name:      "broadcast_dropped_total",
			Help:      "Messages dropped because a subscriber buffer was full.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.cacheLookups,
			m.providerCalls,
			m.refreshTicks,
			m.refreshSearches,
			m.activeSearches,
			m.wsClients,
			m.broadcastsSent,
			m.broadcastDropped,
		)
	}
	return m
}

func (m *Metrics) CacheLookup(route string, hit bool) {
	if m == nil {
		return
	}
	status := "miss"
	if hit {
		status = "hit"
	}
	m.cacheLookups.WithLabelValues(route, status).Inc()
}

func (m *Metrics) ProviderCall(searchType, outcome string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(searchType, outcome).Inc()
}

func (m *Metrics) RefreshTick(outcome string) {
	if m == nil {
		return
	}
	m.refreshTicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RefreshSearch(outcome string) {
	if m == nil {
		return
	}
	m.refreshSearches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetActiveSearches(n int) {
	if m == nil {
		return
	}
	m.activeSearches.Set(float64(n))
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

func (m *Metrics) BroadcastDelivered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.broadcastsSent.Add(float64(n))
}

func (m *Metrics) BroadcastDropped() {
	if m == nil {
		return
	}
	m.broadcastDropped.Inc()
}
