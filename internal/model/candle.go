package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Candle represents one OHLCV bar for a single symbol and timeframe.
// Candles are created once by the data source and never mutated.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"` // e.g. "M15", "H1"
	TS        time.Time `json:"ts"`        // bar open time (UTC)
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Key returns a unique key for this candle's series: "symbol:timeframe".
func (c *Candle) Key() string {
	return c.Symbol + ":" + c.Timeframe
}

// Validate checks OHLCV consistency. Malformed candles are rejected at
// construction time, never silently coerced downstream.
func (c *Candle) Validate() error {
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("candle %s @ %s: high %.5f below open/close", c.Key(), c.TS.Format(time.RFC3339), c.High)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("candle %s @ %s: low %.5f above open/close", c.Key(), c.TS.Format(time.RFC3339), c.Low)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle %s @ %s: negative volume %.2f", c.Key(), c.TS.Format(time.RFC3339), c.Volume)
	}
	return nil
}

// Range returns the full high-low extent of the bar.
func (c *Candle) Range() float64 {
	return c.High - c.Low
}

// Bullish reports whether the bar closed above its open.
func (c *Candle) Bullish() bool {
	return c.Close > c.Open
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
