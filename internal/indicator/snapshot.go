package indicator

import (
	"encoding/json"
	"time"
)

// Snapshot is an immutable point-in-time view of every indicator, captured
// once per processed bar strictly after updating with that bar. Nil fields
// mean the indicator has not warmed up yet; consumers treat that as
// "not ready", never as an error.
type Snapshot struct {
	TS        time.Time
	Close     float64
	Volume    float64
	EMAFast   *float64
	EMASlow   *float64
	ATR       *float64
	VolumeSMA *float64
	Momentum  *float64
	Regime    Regime
}

// State holds the serialized internals of a single indicator instance,
// used for warm-restart checkpoints.
type State struct {
	Type   string `json:"type"`   // "EMA", "ATR", "VOL_SMA", "MOM"
	Period int    `json:"period"` // indicator period

	// Ring-buffer fields (VOL_SMA, MOM)
	Buf []float64 `json:"buf,omitempty"`
	Idx int       `json:"idx,omitempty"`

	Count   int     `json:"count"`
	Sum     float64 `json:"sum,omitempty"`
	Current float64 `json:"current"`

	// EMA fields
	Multiplier float64 `json:"multiplier,omitempty"`

	// ATR fields
	PrevClose float64 `json:"prev_close,omitempty"`
}

// EngineCheckpoint holds the full serialized state of an indicator Engine,
// keyed by the role each indicator plays in the pipeline.
type EngineCheckpoint struct {
	Symbol     string           `json:"symbol"`
	Timeframe  string           `json:"timeframe"`
	BarTS      int64            `json:"bar_ts"` // last processed bar (Unix)
	Indicators map[string]State `json:"indicators"`
	Version    int              `json:"version"` // schema version for forward compat
}

// Marshal serializes the checkpoint to JSON.
func (ec *EngineCheckpoint) Marshal() ([]byte, error) {
	return json.Marshal(ec)
}

// UnmarshalCheckpoint deserializes an engine checkpoint from JSON.
func UnmarshalCheckpoint(data []byte) (*EngineCheckpoint, error) {
	var ec EngineCheckpoint
	if err := json.Unmarshal(data, &ec); err != nil {
		return nil, err
	}
	return &ec, nil
}
