// Package zone implements fair value gap detection and the liquidity pool
// lifecycle: detector → registry → watcher → signal candidates.
//
// A fair value gap (FVG) is a 3-bar imbalance where the middle bar's range is
// skipped by the outer bars, leaving a price zone expected to attract future
// price action.
package zone

import (
	"math"
	"time"

	"fvgtrader/internal/indicator"
	"fvgtrader/internal/model"
	"fvgtrader/internal/session"
)

// DetectorConfig binds the full parameter set for FVG detection. Configs are
// only built through Preset() — named presets are the single accepted shape.
type DetectorConfig struct {
	Preset string `yaml:"preset"`

	// Size floors: a gap smaller than any floor is rejected.
	PipSize     float64 `yaml:"pip_size"`     // price units per pip, e.g. 0.0001
	MinSizePips float64 `yaml:"min_size_pips"`
	MinSizePct  float64 `yaml:"min_size_pct"` // fraction of price, e.g. 0.0005
	MinATRMult  float64 `yaml:"min_atr_mult"` // multiple of current ATR

	// Strength scoring weights (normalized internally).
	WeightSize     float64 `yaml:"weight_size"`
	WeightVolume   float64 `yaml:"weight_volume"`
	WeightMomentum float64 `yaml:"weight_momentum"`

	// ConsolidationATRPct marks the market as consolidating when ATR falls
	// below this fraction of price; consolidation zones are penalized or
	// excluded entirely.
	ConsolidationATRPct  float64 `yaml:"consolidation_atr_pct"`
	ConsolidationPenalty float64 `yaml:"consolidation_penalty"` // strength multiplier reduction
	ExcludeConsolidation bool    `yaml:"exclude_consolidation"`

	ExcludeWeekends bool    `yaml:"exclude_weekends"`
	MinMomentum     float64 `yaml:"min_momentum"` // absolute momentum floor
	MinStrength     float64 `yaml:"min_strength"`

	// Quality classification thresholds on (strength+confidence)/2.
	HighQuality    float64 `yaml:"high_quality"`
	PremiumQuality float64 `yaml:"premium_quality"`

	ExpiryMinutes    int     `yaml:"expiry_minutes"`    // zone time-to-live
	HitTolerancePips float64 `yaml:"hit_tolerance_pips"`
}

// Preset returns the full parameter set bound to a named preset.
// Unknown names return false.
func Preset(name string) (DetectorConfig, bool) {
	base := DetectorConfig{
		Preset:               name,
		PipSize:              0.0001,
		WeightSize:           0.4,
		WeightVolume:         0.3,
		WeightMomentum:       0.3,
		ConsolidationATRPct:  0.0004,
		ConsolidationPenalty: 0.3,
		ExcludeWeekends:      true,
		HighQuality:          0.55,
		PremiumQuality:       0.75,
		HitTolerancePips:     2,
	}
	switch name {
	case "conservative":
		base.MinSizePips = 5
		base.MinSizePct = 0.0005
		base.MinATRMult = 0.6
		base.MinStrength = 0.55
		base.MinMomentum = 0.001
		base.ExcludeConsolidation = true
		base.ExpiryMinutes = 240
	case "balanced":
		base.MinSizePips = 3
		base.MinSizePct = 0.0003
		base.MinATRMult = 0.4
		base.MinStrength = 0.4
		base.MinMomentum = 0.0005
		base.ExpiryMinutes = 360
	case "aggressive":
		base.MinSizePips = 2
		base.MinSizePct = 0.0002
		base.MinATRMult = 0.25
		base.MinStrength = 0.25
		base.MinMomentum = 0
		base.ExpiryMinutes = 480
	case "scalping":
		base.MinSizePips = 1
		base.MinSizePct = 0.0001
		base.MinATRMult = 0.15
		base.MinStrength = 0.2
		base.MinMomentum = 0
		base.ExpiryMinutes = 90
		base.HitTolerancePips = 1
	default:
		return DetectorConfig{}, false
	}
	return base, true
}

// Detector scans candle windows for 3-bar FVG patterns.
// Detection is a pure function of (window, snapshot, config): identical
// inputs always produce identical zone lists.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a detector bound to a preset-derived config.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Config returns the bound parameter set.
func (d *Detector) Config() DetectorConfig { return d.cfg }

// Detect scans the ordered window for 3-bar imbalances and returns qualified
// zones. Fewer than 3 bars yields an empty list, not an error. snap is the
// indicator snapshot as of the window's last bar; unwarmed indicators relax
// the checks that depend on them rather than failing.
func (d *Detector) Detect(candles []model.Candle, snap indicator.Snapshot) []model.Zone {
	if len(candles) < 3 {
		return nil
	}

	var zones []model.Zone
	for i := 1; i < len(candles)-1; i++ {
		prev, mid, next := candles[i-1], candles[i], candles[i+1]

		var top, bottom float64
		var side model.ZoneSide
		switch {
		case prev.High < next.Low: // bullish gap
			top, bottom = next.Low, prev.High
			side = model.SideBullish
		case prev.Low > next.High: // bearish gap
			top, bottom = prev.Low, next.High
			side = model.SideBearish
		default:
			continue
		}

		z, ok := d.qualify(top, bottom, side, mid, next, snap)
		if !ok {
			continue
		}
		zones = append(zones, z)
	}
	return zones
}

// qualify applies size floors, context filters, and strength scoring.
func (d *Detector) qualify(top, bottom float64, side model.ZoneSide, mid, last model.Candle, snap indicator.Snapshot) (model.Zone, bool) {
	cfg := d.cfg
	size := top - bottom
	price := last.Close

	if size < cfg.MinSizePips*cfg.PipSize {
		return model.Zone{}, false
	}
	if price > 0 && size/price < cfg.MinSizePct {
		return model.Zone{}, false
	}
	if snap.ATR != nil && *snap.ATR > 0 && size < cfg.MinATRMult*(*snap.ATR) {
		return model.Zone{}, false
	}
	if cfg.ExcludeWeekends && session.IsWeekend(mid.TS) {
		return model.Zone{}, false
	}

	consolidating := snap.ATR != nil && price > 0 && *snap.ATR/price < cfg.ConsolidationATRPct
	if consolidating && cfg.ExcludeConsolidation {
		return model.Zone{}, false
	}
	if snap.Momentum != nil && math.Abs(*snap.Momentum) < cfg.MinMomentum {
		return model.Zone{}, false
	}

	strength, confidence := d.score(size, price, snap, consolidating)
	if strength < cfg.MinStrength {
		return model.Zone{}, false
	}

	return model.Zone{
		ID:         model.ZoneID(mid.Timeframe, mid.TS.Unix()),
		Symbol:     mid.Symbol,
		Timeframe:  mid.Timeframe,
		Side:       side,
		Top:        top,
		Bottom:     bottom,
		Strength:   strength,
		Confidence: confidence,
		Quality:    d.classify(strength, confidence),
		State:      model.ZoneActive,
		Tolerance:  cfg.HitTolerancePips * cfg.PipSize,
		CreatedAt:  last.TS,
		ExpiresAt:  last.TS.Add(time.Duration(cfg.ExpiryMinutes) * time.Minute),
	}, true
}

// score combines ATR-relative size, relative volume, and momentum into a
// strength in [0,1], applying the consolidation penalty when flagged.
func (d *Detector) score(size, price float64, snap indicator.Snapshot, consolidating bool) (strength, confidence float64) {
	cfg := d.cfg

	// Size relative to ATR; falls back to percent-of-price when ATR is cold.
	var sizeScore float64
	if snap.ATR != nil && *snap.ATR > 0 {
		sizeScore = clamp01(size / (2 * *snap.ATR))
	} else if price > 0 {
		sizeScore = clamp01(size / price / 0.002)
	}

	volScore := 0.5
	if snap.VolumeSMA != nil && *snap.VolumeSMA > 0 {
		volScore = clamp01(snap.Volume / (2 * *snap.VolumeSMA))
	}

	momScore := 0.0
	if snap.Momentum != nil {
		momScore = clamp01(math.Abs(*snap.Momentum) / 0.01)
	}

	wSum := cfg.WeightSize + cfg.WeightVolume + cfg.WeightMomentum
	if wSum <= 0 {
		wSum = 1
	}
	strength = (cfg.WeightSize*sizeScore + cfg.WeightVolume*volScore + cfg.WeightMomentum*momScore) / wSum
	if consolidating {
		strength *= 1 - cfg.ConsolidationPenalty
	}
	strength = clamp01(strength)

	confidence = clamp01(0.3 + 0.4*volScore + 0.3*sizeScore)
	return strength, confidence
}

// classify buckets a zone by (strength+confidence)/2 against the two
// configured thresholds; the medium floor sits halfway to the high one.
func (d *Detector) classify(strength, confidence float64) model.ZoneQuality {
	combined := (strength + confidence) / 2
	switch {
	case combined >= d.cfg.PremiumQuality:
		return model.QualityPremium
	case combined >= d.cfg.HighQuality:
		return model.QualityHigh
	case combined >= d.cfg.HighQuality/2:
		return model.QualityMedium
	default:
		return model.QualityLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
