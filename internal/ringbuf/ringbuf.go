// Package ringbuf provides a fixed-capacity rolling window over candles.
// The detector scans the most recent bars each step; the window keeps them
// without ever reallocating on the hot path.
package ringbuf

import "fvgtrader/internal/model"

// Window is a rolling candle window. Once full, each Push evicts the oldest
// bar. Not safe for concurrent use — the pipeline owns it from one goroutine.
type Window struct {
	buf   []model.Candle
	start int // index of oldest element
	count int
}

// New creates a window holding up to capacity candles. Minimum capacity is 3
// (the smallest span an FVG pattern needs).
func New(capacity int) *Window {
	if capacity < 3 {
		capacity = 3
	}
	return &Window{buf: make([]model.Candle, capacity)}
}

// Push appends a candle, evicting the oldest when full.
func (w *Window) Push(c model.Candle) {
	if w.count < len(w.buf) {
		w.buf[(w.start+w.count)%len(w.buf)] = c
		w.count++
		return
	}
	w.buf[w.start] = c
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of candles currently held.
func (w *Window) Len() int { return w.count }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// At returns the i-th candle, oldest first. Panics on out-of-range like a
// slice would.
func (w *Window) At(i int) model.Candle {
	if i < 0 || i >= w.count {
		panic("ringbuf: index out of range")
	}
	return w.buf[(w.start+i)%len(w.buf)]
}

// Last returns the newest n candles in chronological order. When fewer are
// held, all of them are returned.
func (w *Window) Last(n int) []model.Candle {
	if n > w.count {
		n = w.count
	}
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = w.At(w.count - n + i)
	}
	return out
}
