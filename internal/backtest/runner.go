// Package backtest drives the full pipeline over historical candles through
// the replay engine: indicators → zone detection → zone watching → candidate
// FSM → risk sizing → paper execution → portfolio accounting.
package backtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"fvgtrader/config"
	"fvgtrader/internal/candidate"
	"fvgtrader/internal/execution"
	"fvgtrader/internal/metrics"
	"fvgtrader/internal/model"
	"fvgtrader/internal/portfolio"
	"fvgtrader/internal/replay"
	"fvgtrader/internal/resample"
	"fvgtrader/internal/ringbuf"
	"fvgtrader/internal/risk"
	"fvgtrader/internal/zone"

	indpkg "fvgtrader/internal/indicator"
)

// htfScanner resamples the base feed into one higher timeframe and keeps a
// trailing window for zone detection on the resampled bars.
type htfScanner struct {
	rs     *resample.Resampler
	window *ringbuf.Window
}

// Result summarizes one backtest run. A failed run reports Success=false
// with the reason; it never panics out of the runner.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Bars              int `json:"bars"`
	ZonesDetected     int `json:"zones_detected"`
	ZoneEntries       int `json:"zone_entries"`
	CandidatesSpawned int `json:"candidates_spawned"`
	CandidatesExpired int `json:"candidates_expired"`
	SpawnsThrottled   int `json:"spawns_throttled"`

	Signals []model.TradingSignal `json:"signals"`
	Trades  []portfolio.Closed    `json:"trades"`

	FinalEquity float64 `json:"final_equity"`
	Realized    float64 `json:"realized_pnl"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// Runner owns one pipeline instance. Not safe for concurrent use; every
// component is driven from the replay engine's single dispatch goroutine.
type Runner struct {
	strat config.Strategy
	met   *metrics.Metrics

	engine   *indpkg.Engine
	detector *zone.Detector
	registry *zone.Registry
	watcher  *zone.Watcher
	tracker  *candidate.Tracker
	sizer    *risk.Sizer
	pf       *portfolio.Portfolio
	exec     *execution.PaperExecutor
	window   *ringbuf.Window
	htfs     []*htfScanner

	// Optional taps for live wiring (signald): called after the pipeline
	// handled the event.
	OnSignal func(model.TradingSignal)
	OnZone   func(zone.PoolEvent)
	OnOrder  func(model.Order)
	OnClosed func(portfolio.Closed)

	zonesDetected int
	signals       []model.TradingSignal
	trades        []portfolio.Closed
	failure       string
}

// NewRunner assembles a pipeline from a strategy. A nil metrics instance
// gets a private registry so counters always work.
func NewRunner(strat config.Strategy, met *metrics.Metrics, journal *execution.Journal) *Runner {
	if met == nil {
		met = metrics.New()
	}
	r := &Runner{
		strat:    strat,
		met:      met,
		engine:   indpkg.NewEngine(strat.Indicators),
		detector: zone.NewDetector(strat.Detector),
		registry: zone.NewRegistry(),
		watcher:  zone.NewWatcher(strat.Watcher),
		tracker:  candidate.NewTracker(strat.Candidate),
		sizer:    risk.NewSizer(strat.Risk),
		pf:       portfolio.New(strat.Equity),
		exec:     execution.NewPaperExecutor(strat.SlippageBps, journal),
		window:   ringbuf.New(8),
	}

	for _, tf := range strat.HigherTimeframes {
		rs, err := resample.New(tf)
		if err != nil {
			log.Printf("[backtest] skipping higher timeframe: %v", err)
			continue
		}
		r.htfs = append(r.htfs, &htfScanner{rs: rs, window: ringbuf.New(8)})
	}

	r.registry.Subscribe(r.watcher.OnPoolEvent)
	r.registry.Subscribe(func(ev zone.PoolEvent) {
		if r.OnZone != nil {
			r.OnZone(ev)
		}
	})
	r.tracker.OnReady(r.watcher.NotifyReady)
	return r
}

// Engine exposes the indicator engine for checkpointing.
func (r *Runner) Engine() *indpkg.Engine { return r.engine }

// Portfolio exposes the portfolio for status reporting.
func (r *Runner) Portfolio() *portfolio.Portfolio { return r.pf }

// Restore swaps in an indicator engine rebuilt from a checkpoint.
func (r *Runner) Restore(ec *indpkg.EngineCheckpoint) {
	r.engine = indpkg.RestoreEngine(r.strat.Indicators, ec)
}

// OnBar runs the whole pipeline for one candle. Malformed candles abort the
// run: a backtest over bad data is worse than no backtest.
func (r *Runner) OnBar(c model.Candle) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("bar %s: %w", c.TS.Format(time.RFC3339), err)
	}
	start := time.Now()
	r.met.BarsTotal.Inc()

	snap := r.engine.Update(c)

	// Zone lifecycle before detection so a zone never expires and fires on
	// the same bar.
	r.registry.OnBar(c)

	r.window.Push(c)
	if r.window.Len() >= 3 {
		for _, z := range r.detector.Detect(r.window.Last(3), snap) {
			r.registry.Add(z)
			r.zonesDetected++
			r.met.ZonesDetected.Inc()
		}
	}

	// Higher-timeframe scan on resampled bars. The snapshot is base-TF
	// context; size floors and scoring still apply per zone.
	for _, h := range r.htfs {
		fin, ok := h.rs.Push(c)
		if !ok {
			continue
		}
		h.window.Push(fin)
		if h.window.Len() < 3 {
			continue
		}
		for _, z := range r.detector.Detect(h.window.Last(3), snap) {
			r.registry.Add(z)
			r.zonesDetected++
			r.met.ZonesDetected.Inc()
		}
	}

	for _, cand := range r.watcher.OnBar(c) {
		r.tracker.Add(cand)
		r.met.CandidatesSpawned.Inc()
	}

	for _, sig := range r.tracker.OnBar(c, snap) {
		r.signals = append(r.signals, sig)
		r.met.SignalsEmitted.WithLabelValues(string(sig.Direction)).Inc()
		log.Printf("[backtest] signal %s %s %s entry=%.5f conf=%.2f",
			sig.ID, sig.Direction, sig.ZoneID, sig.EntryPrice, sig.Confidence)
		r.trade(sig, snap, c)
		if r.OnSignal != nil {
			r.OnSignal(sig)
		}
	}

	for _, closed := range r.pf.OnBar(c) {
		r.trades = append(r.trades, closed)
		if closed.Won {
			r.met.TradesWon.Inc()
		} else {
			r.met.TradesLost.Inc()
		}
		if r.OnClosed != nil {
			r.OnClosed(closed)
		}
	}

	r.met.ZonesTracked.Set(float64(r.watcher.Tracked()))
	r.met.Equity.Set(r.pf.Equity())
	r.met.BarProcessDur.Observe(time.Since(start).Seconds())
	return nil
}

// trade sizes a signal and opens the position on a paper fill. Rejections
// are silent by design of the sizer; they only count and log.
func (r *Runner) trade(sig model.TradingSignal, snap indpkg.Snapshot, c model.Candle) {
	equity := r.pf.Equity()

	if ok, reason := r.sizer.CanTrade(sig, equity, r.pf.Positions()); !ok {
		risk.LogRejection(sig, reason)
		r.met.SizingRejections.Inc()
		return
	}

	sized := r.sizer.Size(sig, equity, snap)
	if sized == nil {
		r.met.SizingRejections.Inc()
		return
	}

	order := model.Order{
		SignalID:   sig.ID,
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		Qty:        sized.Qty,
		OrderType:  "MARKET",
		StopLoss:   sized.StopLoss,
		TakeProfit: sized.TakeProfit,
		CreatedAt:  c.TS,
	}
	res := r.exec.Execute(order, sig.CurrentPrice, c.TS)
	if res.Status != "FILLED" {
		log.Printf("[backtest] order not filled for signal %s: %s", sig.ID, res.Message)
		return
	}
	r.met.OrdersPlaced.Inc()
	r.pf.Open(sig.Symbol, res.Order.FilledQty, res.Order.AvgPrice, sized.StopLoss, sized.TakeProfit)
	if r.OnOrder != nil {
		r.OnOrder(res.Order)
	}
}

// Run replays the candles through the pipeline in fast mode and reports the
// outcome. Pipeline errors surface as a failed Result, not a panic.
func (r *Runner) Run(ctx context.Context, candles []model.Candle) Result {
	eng := replay.New(replay.ModeFast, 1)
	for _, c := range candles {
		eng.Add(replay.CandleEvent{Candle: c})
	}
	eng.Subscribe("pipeline", func(ev replay.Event) error {
		ce, ok := ev.(replay.CandleEvent)
		if !ok {
			return nil
		}
		if err := r.OnBar(ce.Candle); err != nil {
			if r.failure == "" {
				r.failure = err.Error()
			}
			eng.Stop()
			return err
		}
		return nil
	})
	eng.Prepare()

	if err := eng.Run(ctx); err != nil && r.failure == "" {
		r.failure = err.Error()
	}
	return r.result(eng.Processed())
}

func (r *Runner) result(bars int) Result {
	realized, wins, losses := r.pf.Stats()
	res := Result{
		Success:           r.failure == "",
		Error:             r.failure,
		Bars:              bars,
		ZonesDetected:     r.zonesDetected,
		ZoneEntries:       r.watcher.Entries,
		CandidatesSpawned: r.watcher.Spawns,
		CandidatesExpired: r.tracker.Expired,
		SpawnsThrottled:   r.watcher.Throttled,
		Signals:           r.signals,
		Trades:            r.trades,
		FinalEquity:       r.pf.Equity(),
		Realized:          realized,
		Wins:              wins,
		Losses:            losses,
		MaxDrawdown:       r.pf.Drawdown(),
	}
	return res
}
