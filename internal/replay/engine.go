// Package replay provides the deterministic event engine that drives the
// signal pipeline bar-by-bar. Events are collected into a flat list,
// stable-sorted by timestamp once, then dispatched to every registered
// handler in registration order — identically in all three playback modes.
package replay

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// Mode selects how the engine paces event delivery.
type Mode int

const (
	// ModeFast processes events with no artificial delay (backtest default).
	ModeFast Mode = iota
	// ModeRealTime sleeps between events proportionally to their timestamp
	// gaps, for live-feel simulation.
	ModeRealTime
	// ModeStepped processes exactly one event per external Step call.
	ModeStepped
)

func (m Mode) String() string {
	switch m {
	case ModeRealTime:
		return "realtime"
	case ModeStepped:
		return "stepped"
	default:
		return "fast"
	}
}

// Event is anything the engine can schedule. Candles are the primary kind;
// other kinds plug in by implementing the interface.
type Event interface {
	Timestamp() time.Time
	Kind() string
}

// Handler consumes events. An error return is logged and does not stop the
// run; a panic is likewise recovered per handler.
type Handler func(ev Event) error

type namedHandler struct {
	name string
	fn   Handler
}

type seqEvent struct {
	ev  Event
	seq int // insertion order, breaks timestamp ties
}

// Status is a point-in-time view of engine progress.
type Status struct {
	Mode      string
	Running   bool
	Processed int
	Total     int
	CurrentTS time.Time
}

// Engine is the deterministic replay scheduler. Event and handler
// registration happen before Run; Run drives everything from one goroutine.
type Engine struct {
	mode  Mode
	speed float64 // realtime pacing multiplier (1.0 = wall clock)

	events   []seqEvent
	handlers []namedHandler
	prepared bool

	stepCh chan struct{}

	mu        sync.RWMutex
	running   bool
	stopped   bool
	processed int
	currentTS time.Time
}

// New creates an engine in the given mode. speed only matters for
// ModeRealTime: 1.0 replays at wall-clock pace, 10.0 at 10x.
func New(mode Mode, speed float64) *Engine {
	if speed <= 0 {
		speed = 1
	}
	return &Engine{
		mode:   mode,
		speed:  speed,
		stepCh: make(chan struct{}),
	}
}

// Add appends an event. Insertion order is remembered and breaks timestamp
// ties during Prepare.
func (e *Engine) Add(ev Event) {
	e.events = append(e.events, seqEvent{ev: ev, seq: len(e.events)})
	e.prepared = false
}

// Subscribe registers a named handler. Handlers run in registration order
// for every event.
func (e *Engine) Subscribe(name string, fn Handler) {
	e.handlers = append(e.handlers, namedHandler{name: name, fn: fn})
}

// Prepare sorts the event list by timestamp, keeping insertion order for
// equal timestamps. Run calls it implicitly; it is exposed so tests and
// status readers can observe the final ordering up front.
func (e *Engine) Prepare() {
	sort.SliceStable(e.events, func(i, j int) bool {
		return e.events[i].ev.Timestamp().Before(e.events[j].ev.Timestamp())
	})
	e.prepared = true
}

// Run dispatches every event in order. It returns ctx.Err() on cancellation,
// nil otherwise. Stop requests are honored at the next event boundary — the
// in-flight event always completes.
func (e *Engine) Run(ctx context.Context) error {
	if !e.prepared {
		e.Prepare()
	}
	e.mu.Lock()
	e.running = true
	e.stopped = false
	e.processed = 0
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	var prevTS time.Time
	start := time.Now()

	for _, se := range e.events {
		if err := ctx.Err(); err != nil {
			log.Printf("[replay] cancelled after %d/%d events", e.Processed(), len(e.events))
			return err
		}
		e.mu.RLock()
		stopped := e.stopped
		e.mu.RUnlock()
		if stopped {
			log.Printf("[replay] stopped after %d/%d events", e.Processed(), len(e.events))
			return nil
		}

		switch e.mode {
		case ModeRealTime:
			if !prevTS.IsZero() {
				gap := se.ev.Timestamp().Sub(prevTS)
				if gap > 0 {
					scaled := time.Duration(float64(gap) / e.speed)
					// Cap max sleep to avoid very long waits on data gaps
					if scaled > 5*time.Second {
						scaled = 5 * time.Second
					}
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(scaled):
					}
				}
			}
			prevTS = se.ev.Timestamp()
		case ModeStepped:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.stepCh:
			}
		}

		e.dispatch(se.ev)

		e.mu.Lock()
		e.processed++
		e.currentTS = se.ev.Timestamp()
		e.mu.Unlock()
	}

	log.Printf("[replay] completed: %d events in %s (mode=%s)", len(e.events), time.Since(start).Round(time.Millisecond), e.mode)
	return nil
}

// dispatch feeds one event to every handler, isolating failures: an erroring
// or panicking handler never prevents the remaining handlers from running.
func (e *Engine) dispatch(ev Event) {
	for _, h := range e.handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[replay] handler %s panicked on %s event: %v", h.name, ev.Kind(), r)
				}
			}()
			if err := h.fn(ev); err != nil {
				log.Printf("[replay] handler %s error on %s event: %v", h.name, ev.Kind(), err)
			}
		}()
	}
}

// Step releases one event in ModeStepped. It blocks until the engine is
// waiting for a step, or ctx is done.
func (e *Engine) Step(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case e.stepCh <- struct{}{}:
		return nil
	}
}

// Stop requests a cooperative stop; the current event finishes and the loop
// exits before the next one.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
}

// Processed returns how many events completed dispatch.
func (e *Engine) Processed() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.processed
}

// Status returns a progress snapshot.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{
		Mode:      e.mode.String(),
		Running:   e.running,
		Processed: e.processed,
		Total:     len(e.events),
		CurrentTS: e.currentTS,
	}
}

// Events returns the prepared event order (timestamps only matter to tests
// and status displays; handlers receive the events themselves).
func (e *Engine) Events() []Event {
	out := make([]Event, len(e.events))
	for i, se := range e.events {
		out[i] = se.ev
	}
	return out
}
