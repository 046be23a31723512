package zone

import (
	"log"
	"time"

	"github.com/google/uuid"

	"fvgtrader/internal/model"
)

// WatcherConfig tunes zone tracking and candidate spawn throttling.
type WatcherConfig struct {
	// Admission: zones below MinStrength or beyond MaxTrackedZones are not tracked.
	MinStrength     float64 `yaml:"min_strength"`
	MaxTrackedZones int     `yaml:"max_tracked_zones"`

	// Entry-spacing throttles, both measured against the entry event time.
	// ThrottleEnabled disables both together.
	ThrottleEnabled              bool    `yaml:"throttle_enabled"`
	MinEntrySpacingMinutes       float64 `yaml:"min_entry_spacing_minutes"`        // per zone id
	GlobalMinEntrySpacingMinutes float64 `yaml:"global_min_entry_spacing_minutes"` // across all zones

	// Lifetime of spawned candidates.
	CandidateExpiryMinutes int `yaml:"candidate_expiry_minutes"`

	// TrackAggregates enables high-liquidity zone tracking for overlapping
	// pools from different timeframes.
	TrackAggregates bool `yaml:"track_aggregates"`
}

// DefaultWatcherConfig returns the watcher defaults used by the presets.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		MinStrength:                  0.2,
		MaxTrackedZones:              64,
		ThrottleEnabled:              true,
		MinEntrySpacingMinutes:       30,
		GlobalMinEntrySpacingMinutes: 10,
		CandidateExpiryMinutes:       120,
		TrackAggregates:              true,
	}
}

// tracked holds per-zone watch state. The entry latch guarantees at most one
// entry event per contiguous dwell inside the zone: it is set on entry and
// cleared only once price closes outside the tolerance-extended bounds.
type tracked struct {
	zone         model.Zone
	kind         model.ZoneKind
	entryLatched bool
}

// Watcher maintains the set of tracked zones, detects price entries, and
// spawns signal candidates subject to anti-spam throttling.
//
// The spacing clock deliberately runs on candidate READY transitions, not on
// spawns: NotifyReady must be wired as a READY callback on the FSM driver so
// throttling reflects actual signal emission cadence.
type Watcher struct {
	cfg   WatcherConfig
	zones map[string]*tracked
	order []string

	lastReady       map[string]time.Time // zone id → last READY transition
	lastReadyGlobal time.Time

	// Counters for status/metrics.
	Entries   int
	Spawns    int
	Throttled int
}

// NewWatcher creates a zone watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:       cfg,
		zones:     make(map[string]*tracked, cfg.MaxTrackedZones),
		lastReady: make(map[string]time.Time),
	}
}

// OnPoolEvent ingests registry lifecycle events, maintaining the tracked set.
// Wire it via Registry.Subscribe.
func (w *Watcher) OnPoolEvent(ev PoolEvent) {
	switch ev.Type {
	case PoolCreated:
		w.track(ev.Zone)
	case PoolTouched:
		if t, ok := w.zones[ev.Zone.ID]; ok {
			t.zone.State = model.ZoneTouched
		}
	case PoolExpired:
		w.untrack(ev.Zone.ID)
	}
}

func (w *Watcher) track(z model.Zone) {
	if z.Strength < w.cfg.MinStrength {
		return
	}
	if len(w.zones) >= w.cfg.MaxTrackedZones {
		log.Printf("[watcher] zone %s rejected: tracking capacity %d reached", z.ID, w.cfg.MaxTrackedZones)
		return
	}
	if _, ok := w.zones[z.ID]; ok {
		return
	}
	w.zones[z.ID] = &tracked{zone: z, kind: model.ZoneKindPool}
	w.order = append(w.order, z.ID)

	if w.cfg.TrackAggregates {
		w.maybeAggregate(z)
	}
}

// maybeAggregate forms a high-liquidity zone when the new pool overlaps a
// tracked pool from a different timeframe on the same symbol and side.
func (w *Watcher) maybeAggregate(z model.Zone) {
	for _, id := range w.order {
		t := w.zones[id]
		if t.kind != model.ZoneKindPool || t.zone.ID == z.ID {
			continue
		}
		o := t.zone
		if o.Symbol != z.Symbol || o.Timeframe == z.Timeframe || o.Side != z.Side {
			continue
		}
		top := min64(o.Top, z.Top)
		bottom := max64(o.Bottom, z.Bottom)
		if top <= bottom {
			continue // no overlap
		}

		hlz := model.Zone{
			ID:         "HLZ:" + z.ID,
			Symbol:     z.Symbol,
			Timeframe:  z.Timeframe,
			Side:       z.Side,
			Top:        top,
			Bottom:     bottom,
			Strength:   clamp01(o.Strength + z.Strength),
			Confidence: clamp01((o.Confidence + z.Confidence) / 2),
			Quality:    z.Quality,
			State:      model.ZoneActive,
			Tolerance:  max64(o.Tolerance, z.Tolerance),
			CreatedAt:  z.CreatedAt,
			ExpiresAt:  minTime(o.ExpiresAt, z.ExpiresAt),
		}
		if _, exists := w.zones[hlz.ID]; exists {
			return
		}
		if len(w.zones) >= w.cfg.MaxTrackedZones {
			return
		}
		w.zones[hlz.ID] = &tracked{zone: hlz, kind: model.ZoneKindHLZ}
		w.order = append(w.order, hlz.ID)
		log.Printf("[watcher] HLZ %s formed from %s overlap [%.5f, %.5f] strength=%.2f",
			hlz.ID, o.ID, hlz.Bottom, hlz.Top, hlz.Strength)
		return
	}
}

func (w *Watcher) untrack(id string) {
	if _, ok := w.zones[id]; !ok {
		return
	}
	delete(w.zones, id)
	keep := w.order[:0]
	for _, o := range w.order {
		if o != id {
			keep = append(keep, o)
		}
	}
	w.order = keep
}

// OnBar checks the bar's close against every tracked zone and returns any
// candidates spawned from fresh zone entries.
func (w *Watcher) OnBar(c model.Candle) []model.SignalCandidate {
	var spawned []model.SignalCandidate
	for _, id := range w.order {
		t := w.zones[id]
		inside := t.zone.Contains(c.Close)
		switch {
		case inside && !t.entryLatched:
			t.entryLatched = true
			w.Entries++
			if cand, ok := w.spawn(t, c); ok {
				spawned = append(spawned, cand)
			}
		case !inside && t.entryLatched:
			// Price left the zone: re-arm for a future re-entry event.
			t.entryLatched = false
		}
	}
	return spawned
}

// spawn creates a candidate for a zone entry, unless throttled.
func (w *Watcher) spawn(t *tracked, c model.Candle) (model.SignalCandidate, bool) {
	if w.cfg.ThrottleEnabled {
		perZone := time.Duration(w.cfg.MinEntrySpacingMinutes * float64(time.Minute))
		if last, ok := w.lastReady[t.zone.ID]; ok && c.TS.Sub(last) < perZone {
			w.Throttled++
			return model.SignalCandidate{}, false
		}
		global := time.Duration(w.cfg.GlobalMinEntrySpacingMinutes * float64(time.Minute))
		if !w.lastReadyGlobal.IsZero() && c.TS.Sub(w.lastReadyGlobal) < global {
			w.Throttled++
			return model.SignalCandidate{}, false
		}
	}

	w.Spawns++
	cand := model.SignalCandidate{
		ID:         uuid.NewString(),
		ZoneID:     t.zone.ID,
		ZoneKind:   t.kind,
		Symbol:     t.zone.Symbol,
		Direction:  t.zone.Direction(),
		EntryPrice: c.Close,
		Strength:   t.zone.Strength,
		State:      model.StateWaitEMA,
		CreatedAt:  c.TS,
		ExpiresAt:  c.TS.Add(time.Duration(w.cfg.CandidateExpiryMinutes) * time.Minute),
		LastBarTS:  c.TS,
	}
	log.Printf("[watcher] zone %s entry at %.5f → candidate %s %s", t.zone.ID, c.Close, cand.ID, cand.Direction)
	return cand, true
}

// NotifyReady records the throttle timestamps for a candidate that reached
// READY. Register it as the FSM driver's READY callback.
func (w *Watcher) NotifyReady(cand model.SignalCandidate, ts time.Time) {
	w.lastReady[cand.ZoneID] = ts
	w.lastReadyGlobal = ts
}

// Tracked returns the number of zones currently tracked.
func (w *Watcher) Tracked() int { return len(w.zones) }

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
