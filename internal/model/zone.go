package model

import (
	"fmt"
	"strings"
	"time"
)

// ZoneSide indicates which way price is expected to resolve through a zone.
type ZoneSide string

const (
	SideBullish ZoneSide = "BULLISH"
	SideBearish ZoneSide = "BEARISH"
	SideNeutral ZoneSide = "NEUTRAL"
)

// ZoneState tracks the lifecycle of a liquidity pool.
type ZoneState string

const (
	ZoneActive  ZoneState = "ACTIVE"
	ZoneTouched ZoneState = "TOUCHED"
	ZoneExpired ZoneState = "EXPIRED"
)

// ZoneQuality is a coarse classification derived from strength and confidence.
type ZoneQuality string

const (
	QualityLow     ZoneQuality = "LOW"
	QualityMedium  ZoneQuality = "MEDIUM"
	QualityHigh    ZoneQuality = "HIGH"
	QualityPremium ZoneQuality = "PREMIUM"
)

// Zone is a tracked price imbalance (fair value gap) acting as a liquidity pool.
// Top is always strictly above Bottom.
type Zone struct {
	ID         string      `json:"id"` // "<timeframe>:<seq>", e.g. "H1:17"
	Symbol     string      `json:"symbol"`
	Timeframe  string      `json:"timeframe"`
	Side       ZoneSide    `json:"side"`
	Top        float64     `json:"top"`
	Bottom     float64     `json:"bottom"`
	Strength   float64     `json:"strength"`   // [0,1]
	Confidence float64     `json:"confidence"` // [0,1]
	Quality    ZoneQuality `json:"quality"`
	State      ZoneState   `json:"state"`
	Tolerance  float64     `json:"tolerance"` // hit tolerance in price units
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// ZoneID builds a zone identifier with the timeframe prefix convention used
// for timeframe recovery downstream.
func ZoneID(timeframe string, seq int64) string {
	return fmt.Sprintf("%s:%d", timeframe, seq)
}

// TimeframeFromZoneID recovers the timeframe prefix from a zone id.
// Returns fallback when the id carries no prefix.
func TimeframeFromZoneID(id, fallback string) string {
	if i := strings.IndexByte(id, ':'); i > 0 {
		return id[:i]
	}
	return fallback
}

// Mid returns the midpoint of the zone.
func (z *Zone) Mid() float64 {
	return (z.Top + z.Bottom) / 2
}

// Size returns the zone height in price units.
func (z *Zone) Size() float64 {
	return z.Top - z.Bottom
}

// Contains reports whether price falls inside the zone extended by its
// hit tolerance on both sides.
func (z *Zone) Contains(price float64) bool {
	return price >= z.Bottom-z.Tolerance && price <= z.Top+z.Tolerance
}

// Direction maps the zone side to a trade direction. A bullish gap is traded
// long (price expected to continue up through the reclaimed gap), a bearish
// gap short. Neutral defaults to long.
func (z *Zone) Direction() Direction {
	if z.Side == SideBearish {
		return DirectionShort
	}
	return DirectionLong
}
