// Package resample provides an incremental timeframe resampler. It consumes
// finalized base-timeframe candles and maintains one forming higher-timeframe
// candle per target, updated in O(1) per bar. When a bar arrives in a new
// bucket the previous candle is finalized and returned.
package resample

import (
	"fmt"
	"log"
	"time"

	"fvgtrader/internal/model"
)

// Duration maps a timeframe label to its bar duration.
func Duration(tf string) (time.Duration, bool) {
	switch tf {
	case "M1":
		return time.Minute, true
	case "M5":
		return 5 * time.Minute, true
	case "M15":
		return 15 * time.Minute, true
	case "M30":
		return 30 * time.Minute, true
	case "H1":
		return time.Hour, true
	case "H4":
		return 4 * time.Hour, true
	case "D1":
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Resampler rolls base candles of one symbol into a single higher timeframe.
// Single-goroutine use; the pipeline owns it.
type Resampler struct {
	tf      string
	d       time.Duration
	bucket  time.Time
	cur     model.Candle
	started bool

	// Stale guard: bars older than the forming bucket are dropped, they
	// would corrupt the aggregate.
	Dropped int
}

// New creates a resampler for a target timeframe label.
func New(tf string) (*Resampler, error) {
	d, ok := Duration(tf)
	if !ok {
		return nil, fmt.Errorf("resample: unknown timeframe %q", tf)
	}
	return &Resampler{tf: tf, d: d}, nil
}

// Timeframe returns the target timeframe label.
func (r *Resampler) Timeframe() string { return r.tf }

// Push folds one base candle in. When the bar opens a new bucket, the
// finished higher-timeframe candle is returned with ok=true.
func (r *Resampler) Push(c model.Candle) (fin model.Candle, ok bool) {
	bucket := c.TS.Truncate(r.d)

	if r.started && bucket.Before(r.bucket) {
		r.Dropped++
		log.Printf("[resample] dropped stale %s bar at %s (forming bucket %s)",
			c.Timeframe, c.TS.Format(time.RFC3339), r.bucket.Format(time.RFC3339))
		return model.Candle{}, false
	}

	if !r.started || !bucket.Equal(r.bucket) {
		if r.started {
			fin, ok = r.cur, true
		}
		r.bucket = bucket
		r.cur = model.Candle{
			Symbol:    c.Symbol,
			Timeframe: r.tf,
			TS:        bucket,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
		r.started = true
		return fin, ok
	}

	if c.High > r.cur.High {
		r.cur.High = c.High
	}
	if c.Low < r.cur.Low {
		r.cur.Low = c.Low
	}
	r.cur.Close = c.Close
	r.cur.Volume += c.Volume
	return model.Candle{}, false
}

// Forming returns the in-progress candle, if any.
func (r *Resampler) Forming() (model.Candle, bool) {
	return r.cur, r.started
}

// Flush finalizes and returns the forming candle, resetting the resampler.
// Call at end of a replay so the tail bucket is not lost.
func (r *Resampler) Flush() (model.Candle, bool) {
	if !r.started {
		return model.Candle{}, false
	}
	fin := r.cur
	r.started = false
	r.cur = model.Candle{}
	return fin, true
}
