package indicator

import (
	"math"

	"fvgtrader/internal/model"
)

// ATR calculates Average True Range with Wilder smoothing.
// First value is the plain average of the first `period` true ranges, then
// ATR = (prev*(period-1) + TR) / period.
type ATR struct {
	period    int
	count     int
	sum       float64
	current   float64
	prevClose float64
	hasPrev   bool
}

// NewATR creates a new ATR indicator with the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return "ATR" }

func (a *ATR) Update(candle model.Candle) {
	tr := candle.High - candle.Low
	if a.hasPrev {
		tr = math.Max(tr, math.Max(
			math.Abs(candle.High-a.prevClose),
			math.Abs(candle.Low-a.prevClose),
		))
	}
	a.prevClose = candle.Close
	a.hasPrev = true
	a.count++

	if a.count <= a.period {
		a.sum += tr
		if a.count == a.period {
			a.current = a.sum / float64(a.period)
		}
		return
	}

	// Wilder-style smoothing
	a.current = (a.current*float64(a.period-1) + tr) / float64(a.period)
}

func (a *ATR) Value() float64 { return a.current }
func (a *ATR) Ready() bool    { return a.count >= a.period }

// Reset clears the ATR state for reuse.
func (a *ATR) Reset() {
	a.count = 0
	a.sum = 0
	a.current = 0
	a.prevClose = 0
	a.hasPrev = false
}

// Checkpoint serializes the ATR state for warm-restart persistence.
func (a *ATR) Checkpoint() State {
	return State{
		Type:      "ATR",
		Period:    a.period,
		Count:     a.count,
		Sum:       a.sum,
		Current:   a.current,
		PrevClose: a.prevClose,
	}
}

// Restore rebuilds ATR state from a checkpoint.
func (a *ATR) Restore(state State) error {
	a.period = state.Period
	a.count = state.Count
	a.sum = state.Sum
	a.current = state.Current
	a.prevClose = state.PrevClose
	a.hasPrev = state.Count > 0
	return nil
}
