package model

import "time"

// Direction is the trade direction of a signal or position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign returns +1 for long, -1 for short.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// TradingSignal is emitted exactly once per candidate that completes all
// filter stages. It is immutable after creation.
type TradingSignal struct {
	ID           string             `json:"id"`
	CandidateID  string             `json:"candidate_id"`
	ZoneID       string             `json:"zone_id"`
	Symbol       string             `json:"symbol"`
	Timeframe    string             `json:"timeframe"`
	Direction    Direction          `json:"direction"`
	EntryPrice   float64            `json:"entry_price"`   // zone-entry price the candidate was spawned at
	CurrentPrice float64            `json:"current_price"` // bar close at emission time
	Strength     float64            `json:"strength"`
	Confidence   float64            `json:"confidence"` // [0,1]
	TS           time.Time          `json:"ts"`
	Metadata     map[string]float64 `json:"metadata,omitempty"` // indicator values at emission
}
