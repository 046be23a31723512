package zone

import (
	"log"
	"time"

	"fvgtrader/internal/model"
)

// PoolEventType identifies a zone lifecycle transition.
type PoolEventType string

const (
	PoolCreated PoolEventType = "created"
	PoolTouched PoolEventType = "touched"
	PoolExpired PoolEventType = "expired"
)

// PoolEvent is fanned out to registry subscribers on each lifecycle change.
type PoolEvent struct {
	Type PoolEventType
	Zone model.Zone
	TS   time.Time
}

// Registry owns the lifecycle of detected zones: admission, touch marking,
// and TTL expiry. One pipeline instance owns one registry exclusively — it
// is driven from a single goroutine, so no locks are needed.
type Registry struct {
	pools map[string]*model.Zone
	order []string // insertion order, for deterministic iteration
	subs  []func(PoolEvent)
}

// NewRegistry creates an empty pool registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*model.Zone, 64)}
}

// Subscribe registers a lifecycle event observer. Observers are invoked
// synchronously in subscription order.
func (r *Registry) Subscribe(fn func(PoolEvent)) {
	r.subs = append(r.subs, fn)
}

// Add admits a detected zone. Duplicate IDs (same pattern re-detected on an
// overlapping window) are ignored.
func (r *Registry) Add(z model.Zone) {
	if _, exists := r.pools[z.ID]; exists {
		return
	}
	zc := z
	r.pools[z.ID] = &zc
	r.order = append(r.order, z.ID)
	r.emit(PoolEvent{Type: PoolCreated, Zone: zc, TS: zc.CreatedAt})
}

// OnBar advances every tracked pool against the new bar: pools past their
// TTL expire and are removed; pools whose range the bar trades through move
// ACTIVE→TOUCHED (touching does not terminate tracking).
func (r *Registry) OnBar(c model.Candle) {
	keep := r.order[:0]
	for _, id := range r.order {
		z := r.pools[id]
		if !c.TS.Before(z.ExpiresAt) {
			z.State = model.ZoneExpired
			delete(r.pools, id)
			r.emit(PoolEvent{Type: PoolExpired, Zone: *z, TS: c.TS})
			continue
		}
		if z.State == model.ZoneActive && c.Low <= z.Top && c.High >= z.Bottom {
			z.State = model.ZoneTouched
			r.emit(PoolEvent{Type: PoolTouched, Zone: *z, TS: c.TS})
		}
		keep = append(keep, id)
	}
	r.order = keep
}

// Active returns a snapshot of all tracked pools in insertion order.
func (r *Registry) Active() []model.Zone {
	out := make([]model.Zone, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.pools[id])
	}
	return out
}

// Len returns the number of tracked pools.
func (r *Registry) Len() int { return len(r.pools) }

func (r *Registry) emit(ev PoolEvent) {
	for _, fn := range r.subs {
		fn(ev)
	}
	if ev.Type == PoolCreated {
		log.Printf("[registry] pool %s %s [%.5f, %.5f] strength=%.2f quality=%s",
			ev.Zone.ID, ev.Zone.Side, ev.Zone.Bottom, ev.Zone.Top, ev.Zone.Strength, ev.Zone.Quality)
	}
}
