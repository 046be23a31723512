package candidate

// Config tunes the candidate FSM guards. Every threshold is independently
// overridable; zero values fall back to permissive behavior, never to a
// silent block.
type Config struct {
	// EMA alignment guard (WAIT_EMA stage).
	EMACheckEnabled bool    `yaml:"ema_check_enabled"`
	EMATolerancePct float64 `yaml:"ema_tolerance_pct"` // slack on each inequality, fraction of the EMA value

	// Volume guard: bar volume must be at least VolumeMultiple × volume SMA.
	// Values ≤ 0 disable the guard.
	VolumeMultiple float64 `yaml:"volume_multiple"`

	// Killzone guard: time-of-day window "HH:MM".."HH:MM" (UTC). Unparsable
	// bounds make the guard permissive.
	KillzoneStart string `yaml:"killzone_start"`
	KillzoneEnd   string `yaml:"killzone_end"`

	// Regime guard: allowed regimes ("BULL","BEAR","NEUTRAL"). Empty list is
	// permissive.
	AllowedRegimes []string `yaml:"allowed_regimes"`

	// DefaultTimeframe is used for emitted signals whose zone id carries no
	// timeframe prefix.
	DefaultTimeframe string `yaml:"default_timeframe"`
}

// DefaultConfig returns a permissive guard config with the EMA check on.
func DefaultConfig() Config {
	return Config{
		EMACheckEnabled:  true,
		DefaultTimeframe: "H1",
	}
}
