// Package risk converts accepted trading signals into sized positions under
// account risk constraints. All rejections are silent nil results — callers
// treat "no sizing" as "do not trade this signal", never as a failure.
package risk

import (
	"log"
	"math"

	"fvgtrader/internal/indicator"
	"fvgtrader/internal/model"
)

// Model selects how quantity is derived from the risk amount.
const (
	ModelATR     = "atr"     // qty = riskAmount / stop distance
	ModelPercent = "percent" // qty = riskAmount × leverage / entry
)

// Config defines the sizing thresholds. Every field is independently
// overridable from the strategy config.
type Config struct {
	Model          string  `yaml:"model"`            // "atr" or "percent"
	RiskPerTrade   float64 `yaml:"risk_per_trade"`   // fraction of equity, e.g. 0.01
	MinRiskAmount  float64 `yaml:"min_risk_amount"`  // absolute dollar floor
	SLATRMultiple  float64 `yaml:"sl_atr_multiple"`  // stop distance in ATRs
	TPRiskReward   float64 `yaml:"tp_rr"`            // take-profit as a multiple of stop distance
	Leverage       float64 `yaml:"leverage"`         // percent model only
	MinQty         float64 `yaml:"min_qty"`          // absolute quantity floor
	MaxPositionPct float64 `yaml:"max_position_pct"` // position value cap as fraction of equity
	MinEquity      float64 `yaml:"min_equity"`       // pre-trade account floor
}

// DefaultConfig returns conservative sizing defaults.
func DefaultConfig() Config {
	return Config{
		Model:          ModelATR,
		RiskPerTrade:   0.01,
		MinRiskAmount:  10,
		SLATRMultiple:  1.5,
		TPRiskReward:   2,
		Leverage:       10,
		MinQty:         0.01,
		MaxPositionPct: 0.25,
		MinEquity:      100,
	}
}

// Sized is a fully-determined order size for one signal.
type Sized struct {
	Qty        float64 // signed: negative = short
	StopLoss   float64
	TakeProfit float64
	RiskAmount float64
}

// Sizer sizes signals against account equity and current volatility.
type Sizer struct {
	cfg Config
}

// NewSizer creates a Sizer with the given config.
func NewSizer(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size converts a signal into a sized position, or nil when any constraint
// rejects it. For a fixed (signal, equity, snapshot, config), the result is
// bit-identical across calls.
func (s *Sizer) Size(sig model.TradingSignal, equity float64, snap indicator.Snapshot) *Sized {
	cfg := s.cfg

	riskAmount := equity * cfg.RiskPerTrade
	if riskAmount < cfg.MinRiskAmount {
		return nil
	}

	if snap.ATR == nil || *snap.ATR <= 0 {
		return nil
	}
	atr := *snap.ATR

	sign := sig.Direction.Sign()
	entry := sig.EntryPrice
	stopDist := atr * cfg.SLATRMultiple
	stop := entry - sign*stopDist
	takeProfit := entry + sign*stopDist*cfg.TPRiskReward

	var qty float64
	switch cfg.Model {
	case ModelPercent:
		if entry <= 0 {
			return nil
		}
		qty = sign * riskAmount * cfg.Leverage / entry
	default: // ATR risk model
		if stopDist <= 0 {
			return nil
		}
		qty = sign * riskAmount / stopDist
	}

	if math.Abs(qty) < cfg.MinQty {
		return nil
	}

	// Position-value cap: scale down rather than reject.
	if maxValue := equity * cfg.MaxPositionPct; maxValue > 0 {
		if value := math.Abs(qty) * entry; value > maxValue {
			qty *= maxValue / value
		}
	}

	return &Sized{
		Qty:        qty,
		StopLoss:   stop,
		TakeProfit: takeProfit,
		RiskAmount: riskAmount,
	}
}

// CanTrade runs pre-trade validation independent of sizing. Returns false
// with a reason when the account is below the equity floor or an existing
// position in the symbol points the other way (no hedge-flipping — close
// first).
func (s *Sizer) CanTrade(sig model.TradingSignal, equity float64, positions []model.Position) (bool, string) {
	if equity < s.cfg.MinEquity {
		return false, "equity below minimum"
	}
	for _, p := range positions {
		if p.Symbol != sig.Symbol || p.Qty == 0 {
			continue
		}
		if p.Qty*sig.Direction.Sign() < 0 {
			return false, "opposite position open in " + sig.Symbol
		}
	}
	return true, ""
}

// LogRejection records a validation rejection. Kept out of CanTrade so the
// check itself stays pure.
func LogRejection(sig model.TradingSignal, reason string) {
	log.Printf("[risk] signal %s rejected: %s", sig.ID, reason)
}
