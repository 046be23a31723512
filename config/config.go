// Package config loads process configuration. Infrastructure settings
// (Redis, SQLite, listen addresses, broker credentials) come from environment
// variables; strategy tuning comes from a YAML file so a research run is
// reproducible from one artifact.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"fvgtrader/internal/candidate"
	"fvgtrader/internal/indicator"
	"fvgtrader/internal/resample"
	"fvgtrader/internal/risk"
	"fvgtrader/internal/zone"
)

// Config holds infrastructure configuration from environment variables.
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	GatewayAddr   string
	LogLevel      string

	// Strategy file for the run
	StrategyPath string

	// Broker credentials. All empty means paper-only; signald refuses a
	// partial set.
	BrokerBaseURL    string
	BrokerAPIKey     string
	BrokerClientCode string
	BrokerPassword   string
	BrokerTOTPSecret string

	// Alerting (all optional)
	TelegramBotToken string
	TelegramChatID   string
	AlertWebhookURL  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/candles.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		GatewayAddr:   getEnv("GATEWAY_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StrategyPath:  getEnv("STRATEGY_PATH", "config/strategy.yaml"),

		BrokerBaseURL:    getEnv("BROKER_BASE_URL", ""),
		BrokerAPIKey:     getEnv("BROKER_API_KEY", ""),
		BrokerClientCode: getEnv("BROKER_CLIENT_CODE", ""),
		BrokerPassword:   getEnv("BROKER_PASSWORD", ""),
		BrokerTOTPSecret: getEnv("BROKER_TOTP_SECRET", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		AlertWebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),
	}
}

// BrokerConfigured reports whether a full broker credential set is present.
// A partial set is an error the caller should surface, not fall back from.
func (c *Config) BrokerConfigured() (bool, error) {
	set := 0
	for _, v := range []string{c.BrokerBaseURL, c.BrokerAPIKey, c.BrokerClientCode, c.BrokerPassword, c.BrokerTOTPSecret} {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		return false, nil
	case 5:
		return true, nil
	default:
		return false, fmt.Errorf("partial broker credentials: %d of 5 set", set)
	}
}

// Strategy bundles every knob of one research run. Sections absent from the
// YAML file keep their defaults; the detector starts from the named preset
// and the detector section overrides individual fields on top of it.
type Strategy struct {
	Preset    string `yaml:"preset"`
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`

	// HigherTimeframes get their candles resampled from the base feed and
	// scanned for zones too, feeding multi-timeframe aggregates.
	HigherTimeframes []string `yaml:"higher_timeframes"`

	Equity      float64 `yaml:"equity"`
	SlippageBps float64 `yaml:"slippage_bps"`

	Detector   zone.DetectorConfig `yaml:"detector"`
	Watcher    zone.WatcherConfig  `yaml:"watcher"`
	Candidate  candidate.Config    `yaml:"candidate"`
	Indicators indicator.Config    `yaml:"indicators"`
	Risk       risk.Config         `yaml:"risk"`
}

// DefaultStrategy returns the balanced preset with default sections.
func DefaultStrategy() Strategy {
	det, _ := zone.Preset("balanced")
	return Strategy{
		Preset:      "balanced",
		Symbol:      "EURUSD",
		Timeframe:   "H1",
		Equity:      10000,
		SlippageBps: 1,
		Detector:    det,
		Watcher:     zone.DefaultWatcherConfig(),
		Candidate:   candidate.DefaultConfig(),
		Indicators:  indicator.DefaultConfig(),
		Risk:        risk.DefaultConfig(),
	}
}

// LoadStrategy reads a strategy YAML file. A missing path returns the
// defaults; an unknown preset or malformed file is an error.
func LoadStrategy(path string) (Strategy, error) {
	s := DefaultStrategy()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[config] strategy file %s not found, using defaults", path)
			return s, nil
		}
		return s, fmt.Errorf("read strategy file: %w", err)
	}
	return ParseStrategy(data)
}

// ParseStrategy parses strategy YAML bytes on top of the defaults.
func ParseStrategy(data []byte) (Strategy, error) {
	s := DefaultStrategy()

	// The preset decides the detector baseline, so resolve it before the
	// full unmarshal lets the detector section override fields.
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return s, fmt.Errorf("parse strategy: %w", err)
	}
	if head.Preset != "" {
		det, ok := zone.Preset(head.Preset)
		if !ok {
			return s, fmt.Errorf("unknown detector preset %q", head.Preset)
		}
		s.Preset = head.Preset
		s.Detector = det
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse strategy: %w", err)
	}
	if s.Equity <= 0 {
		return s, fmt.Errorf("equity must be positive, got %v", s.Equity)
	}
	for _, tf := range s.HigherTimeframes {
		if _, ok := resample.Duration(tf); !ok {
			return s, fmt.Errorf("unknown higher timeframe %q", tf)
		}
	}
	return s, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// GetEnvInt reads an integer env var, falling back on absence or parse error.
func GetEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
