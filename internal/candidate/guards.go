package candidate

import (
	"fvgtrader/internal/indicator"
	"fvgtrader/internal/model"
	"fvgtrader/internal/session"
)

// Guards are pure functions of (bar, snapshot, config): no side effects, so
// each is testable in isolation and the FSM transition stays referentially
// transparent.

// emaAligned checks directional EMA stacking: LONG wants
// close > emaFast > emaSlow, SHORT the mirror. A disabled guard passes
// trivially; unwarmed EMAs fail the guard so the candidate keeps waiting
// (not-ready is a steady state, not an error).
func emaAligned(dir model.Direction, bar model.Candle, snap indicator.Snapshot, cfg Config) bool {
	if !cfg.EMACheckEnabled {
		return true
	}
	if snap.EMAFast == nil || snap.EMASlow == nil {
		return false // not warm yet: stay in WAIT_EMA until it is
	}
	fast, slow := *snap.EMAFast, *snap.EMASlow
	tol := cfg.EMATolerancePct
	if dir == model.DirectionShort {
		return bar.Close < fast*(1+tol) && fast < slow*(1+tol)
	}
	return bar.Close > fast*(1-tol) && fast > slow*(1-tol)
}

// volumeOK requires bar volume ≥ multiple × volume SMA. Trivially passes
// when the multiple is non-positive or the SMA is not warmed up.
func volumeOK(bar model.Candle, snap indicator.Snapshot, cfg Config) bool {
	if cfg.VolumeMultiple <= 0 {
		return true
	}
	if snap.VolumeSMA == nil || *snap.VolumeSMA <= 0 {
		return true
	}
	return bar.Volume >= cfg.VolumeMultiple*(*snap.VolumeSMA)
}

// inKillzone checks the bar's time of day against the configured window.
// An unparsable window is permissive.
func inKillzone(bar model.Candle, cfg Config) bool {
	if cfg.KillzoneStart == "" && cfg.KillzoneEnd == "" {
		return true
	}
	return session.ParseKillzone(cfg.KillzoneStart, cfg.KillzoneEnd).Contains(bar.TS)
}

// regimeAllowed checks the snapshot regime against the allow-list. An empty
// list or an unknown regime is permissive.
func regimeAllowed(snap indicator.Snapshot, cfg Config) bool {
	if len(cfg.AllowedRegimes) == 0 || snap.Regime == indicator.RegimeUnknown {
		return true
	}
	for _, r := range cfg.AllowedRegimes {
		if indicator.Regime(r) == snap.Regime {
			return true
		}
	}
	return false
}
