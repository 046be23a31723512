// Package candidate implements the signal-candidate state machine:
// WAIT_EMA → FILTERS → READY, with EXPIRED reachable from every non-terminal
// state. Candidates are immutable values; Transition returns a new candidate
// rather than mutating in place, which keeps the machine trivially testable
// and thread-agnostic.
package candidate

import (
	"time"

	"github.com/google/uuid"

	"fvgtrader/internal/indicator"
	"fvgtrader/internal/model"
)

// Result is the outcome of advancing one candidate by one bar. Signal is
// non-nil only on the FILTERS→READY transition.
type Result struct {
	Candidate model.SignalCandidate
	Prev      model.CandidateState
	Signal    *model.TradingSignal
}

// Transition advances a candidate against one bar and its indicator
// snapshot. It is a pure function of (candidate, bar, snapshot, config).
//
// Expiry dominates: a bar at or past expires_at moves any non-terminal
// candidate to EXPIRED before guards are consulted. Terminal candidates are
// returned unchanged.
func Transition(c model.SignalCandidate, bar model.Candle, snap indicator.Snapshot, cfg Config) Result {
	res := Result{Candidate: c, Prev: c.State}
	if c.State.Terminal() {
		return res
	}
	if c.Expired(bar.TS) {
		res.Candidate = c.WithState(model.StateExpired, bar.TS)
		return res
	}

	switch c.State {
	case model.StateWaitEMA:
		if emaAligned(c.Direction, bar, snap, cfg) {
			res.Candidate = c.WithState(model.StateFilters, bar.TS)
		} else {
			res.Candidate = c.WithState(model.StateWaitEMA, bar.TS)
		}

	case model.StateFilters:
		if volumeOK(bar, snap, cfg) && inKillzone(bar, cfg) && regimeAllowed(snap, cfg) {
			sig := synthesize(c, bar, snap, cfg)
			res.Candidate = c.WithState(model.StateReady, bar.TS)
			res.Signal = &sig
		} else {
			res.Candidate = c.WithState(model.StateFilters, bar.TS)
		}
	}
	return res
}

// synthesize builds the trading signal emitted on FILTERS→READY. Confidence
// is the candidate strength capped into [0,1]; entry is the original
// zone-entry price; metadata captures the indicator values at emission.
func synthesize(c model.SignalCandidate, bar model.Candle, snap indicator.Snapshot, cfg Config) model.TradingSignal {
	confidence := c.Strength
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	meta := map[string]float64{"volume": bar.Volume}
	if snap.EMAFast != nil {
		meta["ema_fast"] = *snap.EMAFast
	}
	if snap.EMASlow != nil {
		meta["ema_slow"] = *snap.EMASlow
	}
	if snap.ATR != nil {
		meta["atr"] = *snap.ATR
	}
	if snap.VolumeSMA != nil {
		meta["volume_sma"] = *snap.VolumeSMA
	}

	return model.TradingSignal{
		ID:           uuid.NewString(),
		CandidateID:  c.ID,
		ZoneID:       c.ZoneID,
		Symbol:       c.Symbol,
		Timeframe:    model.TimeframeFromZoneID(c.ZoneID, cfg.DefaultTimeframe),
		Direction:    c.Direction,
		EntryPrice:   c.EntryPrice,
		CurrentPrice: bar.Close,
		Strength:     c.Strength,
		Confidence:   confidence,
		TS:           bar.TS,
		Metadata:     meta,
	}
}

// Tracker drives all active candidates bar-by-bar and drops them once
// terminal. It is the only mutable state in this package and is owned by a
// single pipeline goroutine.
type Tracker struct {
	cfg    Config
	active []model.SignalCandidate

	// onReady callbacks fire on each FILTERS→READY transition, in
	// registration order (the zone watcher uses this to time throttling).
	onReady []func(model.SignalCandidate, time.Time)

	Expired int // total candidates that timed out
}

// NewTracker creates a candidate tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// OnReady registers a READY-transition callback.
func (t *Tracker) OnReady(fn func(model.SignalCandidate, time.Time)) {
	t.onReady = append(t.onReady, fn)
}

// Add starts tracking a spawned candidate.
func (t *Tracker) Add(c model.SignalCandidate) {
	t.active = append(t.active, c)
}

// Active returns the number of candidates still in flight.
func (t *Tracker) Active() int { return len(t.active) }

// OnBar advances every active candidate and returns the signals emitted this
// bar, in candidate insertion order.
func (t *Tracker) OnBar(bar model.Candle, snap indicator.Snapshot) []model.TradingSignal {
	var signals []model.TradingSignal
	keep := t.active[:0]
	for _, c := range t.active {
		res := Transition(c, bar, snap, t.cfg)
		switch res.Candidate.State {
		case model.StateReady:
			if res.Signal != nil {
				signals = append(signals, *res.Signal)
			}
			for _, fn := range t.onReady {
				fn(res.Candidate, bar.TS)
			}
		case model.StateExpired:
			t.Expired++
		default:
			keep = append(keep, res.Candidate)
		}
	}
	t.active = keep
	return signals
}

// NewID returns a fresh candidate id. Exposed for callers that construct
// candidates outside the zone watcher (tests, replays).
func NewID() string { return uuid.NewString() }
