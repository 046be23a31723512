// Package indicator provides streaming technical indicator calculations over
// candle data.
//
// All indicators implement the Indicator interface, receiving one closed
// candle per Update and producing float64 values. The Engine bundles the
// indicators the signal pipeline needs and captures an immutable Snapshot
// after each bar — strictly after updating with that bar, so a snapshot can
// never contain look-ahead information.
package indicator

import "fvgtrader/internal/model"

// Indicator is the interface for all streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "EMA", "ATR").
	Name() string

	// Update feeds a new closed candle and recalculates.
	Update(candle model.Candle)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}

// Checkpointable is implemented by indicators that support state serialization
// for warm restarts.
type Checkpointable interface {
	Indicator
	Checkpoint() State
	Restore(state State) error
}
