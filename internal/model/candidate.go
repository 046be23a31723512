package model

import "time"

// CandidateState is a stage in the signal-candidate state machine.
type CandidateState string

const (
	StateWaitEMA CandidateState = "WAIT_EMA"
	StateFilters CandidateState = "FILTERS"
	StateReady   CandidateState = "READY" // terminal
	StateExpired CandidateState = "EXPIRED"
)

// Terminal reports whether the state accepts no further transitions.
func (s CandidateState) Terminal() bool {
	return s == StateReady || s == StateExpired
}

// ZoneKind distinguishes single pools from multi-timeframe aggregates.
type ZoneKind string

const (
	ZoneKindPool ZoneKind = "POOL"
	ZoneKindHLZ  ZoneKind = "HLZ" // high-liquidity zone (overlapping pools)
)

// SignalCandidate is a provisional signal working through validation stages.
// It is an immutable value: every transition produces a new candidate via
// WithState rather than mutating in place.
type SignalCandidate struct {
	ID         string         `json:"id"`
	ZoneID     string         `json:"zone_id"`
	ZoneKind   ZoneKind       `json:"zone_kind"`
	Symbol     string         `json:"symbol"`
	Direction  Direction      `json:"direction"`
	EntryPrice float64        `json:"entry_price"` // price at zone entry
	Strength   float64        `json:"strength"`
	State      CandidateState `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"` // always after CreatedAt
	LastBarTS  time.Time      `json:"last_bar_ts"`
}

// WithState returns a copy in the given state, stamped with the bar time
// that drove the transition.
func (c SignalCandidate) WithState(s CandidateState, barTS time.Time) SignalCandidate {
	c.State = s
	c.LastBarTS = barTS
	return c
}

// Expired reports whether the candidate's lifetime has elapsed at barTS.
func (c SignalCandidate) Expired(barTS time.Time) bool {
	return !barTS.Before(c.ExpiresAt)
}
