// Package metrics holds the Prometheus instrumentation for the signal
// pipeline. Metrics register on an explicitly-owned registry passed around
// by the runner — no global singleton, so independent backtest workers never
// collide.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal pipeline.
type Metrics struct {
	registry *prometheus.Registry

	BarsTotal         prometheus.Counter
	ZonesDetected     prometheus.Counter
	ZonesTracked      prometheus.Gauge
	ZoneEntries       prometheus.Counter
	CandidatesSpawned prometheus.Counter
	CandidatesExpired prometheus.Counter
	SignalsEmitted    *prometheus.CounterVec // labels: direction
	SpawnsThrottled   prometheus.Counter
	SizingRejections  prometheus.Counter
	OrdersPlaced      prometheus.Counter
	TradesWon         prometheus.Counter
	TradesLost        prometheus.Counter

	BarProcessDur prometheus.Histogram
	Equity        prometheus.Gauge
}

// New registers and returns the pipeline metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_bars_total",
			Help: "Total bars fed through the pipeline",
		}),
		ZonesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_zones_detected_total",
			Help: "Total qualified FVG zones emitted by the detector",
		}),
		ZonesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fvg_zones_tracked",
			Help: "Zones currently tracked by the watcher",
		}),
		ZoneEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_zone_entries_total",
			Help: "Price entries into tracked zones (latched, one per dwell)",
		}),
		CandidatesSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_candidates_spawned_total",
			Help: "Signal candidates spawned from zone entries",
		}),
		CandidatesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_candidates_expired_total",
			Help: "Candidates that timed out before reaching READY",
		}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fvg_signals_emitted_total",
			Help: "Trading signals emitted (by direction)",
		}, []string{"direction"}),
		SpawnsThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_spawns_throttled_total",
			Help: "Candidate spawns rejected by entry-spacing throttles",
		}),
		SizingRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_sizing_rejections_total",
			Help: "Signals rejected by risk sizing or pre-trade validation",
		}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_orders_placed_total",
			Help: "Orders sent to the executor",
		}),
		TradesWon: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_trades_won_total",
			Help: "Closed positions with positive P&L",
		}),
		TradesLost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fvg_trades_lost_total",
			Help: "Closed positions with zero or negative P&L",
		}),
		BarProcessDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fvg_bar_process_duration_seconds",
			Help:    "Full pipeline latency per bar",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fvg_equity",
			Help: "Current account equity",
		}),
	}

	m.registry.MustRegister(
		m.BarsTotal,
		m.ZonesDetected,
		m.ZonesTracked,
		m.ZoneEntries,
		m.CandidatesSpawned,
		m.CandidatesExpired,
		m.SignalsEmitted,
		m.SpawnsThrottled,
		m.SizingRejections,
		m.OrdersPlaced,
		m.TradesWon,
		m.TradesLost,
		m.BarProcessDur,
		m.Equity,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
