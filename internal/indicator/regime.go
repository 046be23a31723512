package indicator

// Regime is a coarse market-trend classification derived from the
// fast/slow EMA relationship.
type Regime string

const (
	RegimeUnknown Regime = ""
	RegimeBull    Regime = "BULL"
	RegimeBear    Regime = "BEAR"
	RegimeNeutral Regime = "NEUTRAL"
)

// ClassifyRegime maps the fast/slow EMA spread to a regime. bandPct is the
// neutral band as a fraction of the slow EMA (e.g. 0.001 = 0.1%): spreads
// inside the band classify as NEUTRAL to avoid flip-flopping on noise.
func ClassifyRegime(emaFast, emaSlow, bandPct float64) Regime {
	if emaSlow == 0 {
		return RegimeUnknown
	}
	spread := (emaFast - emaSlow) / emaSlow
	switch {
	case spread > bandPct:
		return RegimeBull
	case spread < -bandPct:
		return RegimeBear
	default:
		return RegimeNeutral
	}
}
