package replay

import (
	"time"

	"fvgtrader/internal/model"
)

// CandleEvent wraps one closed candle, the primary event kind.
type CandleEvent struct {
	Candle model.Candle
}

func (e CandleEvent) Timestamp() time.Time { return e.Candle.TS }
func (e CandleEvent) Kind() string         { return "candle" }

// MarkEvent is a generic timestamped marker (session open/close, data gaps).
// It exists so runs can schedule non-candle happenings through the same
// ordered stream.
type MarkEvent struct {
	TS    time.Time
	Label string
}

func (e MarkEvent) Timestamp() time.Time { return e.TS }
func (e MarkEvent) Kind() string         { return "mark" }
