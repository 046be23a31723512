package indicator

import (
	"log"
	"time"

	"fvgtrader/internal/model"
)

// Roles identify each indicator's slot in a checkpoint.
const (
	roleEMAFast  = "ema_fast"
	roleEMASlow  = "ema_slow"
	roleATR      = "atr"
	roleVolSMA   = "vol_sma"
	roleMomentum = "momentum"
)

// Config specifies the indicator set the signal pipeline runs on.
type Config struct {
	EMAFastPeriod  int     `yaml:"ema_fast_period"`
	EMASlowPeriod  int     `yaml:"ema_slow_period"`
	ATRPeriod      int     `yaml:"atr_period"`
	VolumePeriod   int     `yaml:"volume_period"`
	MomentumPeriod int     `yaml:"momentum_period"`
	RegimeBandPct  float64 `yaml:"regime_band_pct"` // neutral band around the slow EMA
}

// DefaultConfig returns the standard indicator set (EMA 21/50, ATR 14).
func DefaultConfig() Config {
	return Config{
		EMAFastPeriod:  21,
		EMASlowPeriod:  50,
		ATRPeriod:      14,
		VolumePeriod:   20,
		MomentumPeriod: 10,
		RegimeBandPct:  0.001,
	}
}

// Engine computes the pipeline's indicator set for one (symbol, timeframe)
// series. Designed for single-goroutine usage — no locks needed.
type Engine struct {
	cfg      Config
	emaFast  *EMA
	emaSlow  *EMA
	atr      *ATR
	volSMA   *VolumeSMA
	momentum *Momentum
	lastTS   time.Time
}

// NewEngine creates an indicator engine with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		emaFast:  NewEMA(cfg.EMAFastPeriod),
		emaSlow:  NewEMA(cfg.EMASlowPeriod),
		atr:      NewATR(cfg.ATRPeriod),
		volSMA:   NewVolumeSMA(cfg.VolumePeriod),
		momentum: NewMomentum(cfg.MomentumPeriod),
	}
}

// Update feeds a closed candle to every indicator and captures the resulting
// snapshot. The snapshot reflects the series state including this bar and
// nothing after it.
func (e *Engine) Update(candle model.Candle) Snapshot {
	e.emaFast.Update(candle)
	e.emaSlow.Update(candle)
	e.atr.Update(candle)
	e.volSMA.Update(candle)
	e.momentum.Update(candle)
	e.lastTS = candle.TS

	snap := Snapshot{
		TS:     candle.TS,
		Close:  candle.Close,
		Volume: candle.Volume,
	}
	if e.emaFast.Ready() {
		v := e.emaFast.Value()
		snap.EMAFast = &v
	}
	if e.emaSlow.Ready() {
		v := e.emaSlow.Value()
		snap.EMASlow = &v
	}
	if e.atr.Ready() {
		v := e.atr.Value()
		snap.ATR = &v
	}
	if e.volSMA.Ready() {
		v := e.volSMA.Value()
		snap.VolumeSMA = &v
	}
	if e.momentum.Ready() {
		v := e.momentum.Value()
		snap.Momentum = &v
	}
	if snap.EMAFast != nil && snap.EMASlow != nil {
		snap.Regime = ClassifyRegime(*snap.EMAFast, *snap.EMASlow, e.cfg.RegimeBandPct)
	}
	return snap
}

// roles returns every indicator with its checkpoint role.
func (e *Engine) roles() map[string]Checkpointable {
	return map[string]Checkpointable{
		roleEMAFast:  e.emaFast,
		roleEMASlow:  e.emaSlow,
		roleATR:      e.atr,
		roleVolSMA:   e.volSMA,
		roleMomentum: e.momentum,
	}
}

// Checkpoint captures the full engine state for warm restarts.
func (e *Engine) Checkpoint(symbol, timeframe string) *EngineCheckpoint {
	ec := &EngineCheckpoint{
		Symbol:     symbol,
		Timeframe:  timeframe,
		BarTS:      e.lastTS.Unix(),
		Indicators: make(map[string]State, 5),
		Version:    1,
	}
	for role, ind := range e.roles() {
		ec.Indicators[role] = ind.Checkpoint()
	}
	return ec
}

// RestoreEngine rebuilds an Engine from a checkpoint. It is tolerant of
// config changes — indicators are matched by role, type, and period.
// Matching indicators get their state restored; mismatches start fresh
// (cold) rather than failing the restore.
func RestoreEngine(cfg Config, ec *EngineCheckpoint) *Engine {
	e := NewEngine(cfg)
	if ec == nil {
		return e
	}

	restored, cold := 0, 0
	for role, ind := range e.roles() {
		state, found := ec.Indicators[role]
		if !found || state.Type != ind.Name() || state.Period != periodOf(ind) {
			cold++
			continue
		}
		if err := ind.Restore(state); err != nil {
			cold++
			continue
		}
		restored++
	}
	if cold > 0 {
		log.Printf("[indicator] %s:%s checkpoint restore: %d warm, %d cold-started",
			ec.Symbol, ec.Timeframe, restored, cold)
	}
	e.lastTS = time.Unix(ec.BarTS, 0).UTC()
	return e
}

func periodOf(ind Checkpointable) int {
	return ind.Checkpoint().Period
}
