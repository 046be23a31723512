// cmd/scan runs zone detection over stored candles and prints the pools that
// would be live at the end of the series. No candidates, no trades — a quick
// look at what the detector sees.
//
// Usage:
//
//	go run ./cmd/scan --db=data/candles.db --symbol=EURUSD --tf=H1 --preset=balanced
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"fvgtrader/config"
	"fvgtrader/internal/indicator"
	"fvgtrader/internal/ringbuf"
	sqlitestore "fvgtrader/internal/store/sqlite"
	"fvgtrader/internal/zone"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	dbPath := flag.String("db", "data/candles.db", "Path to SQLite candle database")
	symbol := flag.String("symbol", "", "Symbol to scan (default: strategy file's symbol)")
	tf := flag.String("tf", "", "Timeframe to scan (default: strategy file's timeframe)")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start from (0=all)")
	stratPath := flag.String("strategy", "config/strategy.yaml", "Strategy YAML file")
	preset := flag.String("preset", "", "Detector preset override (conservative|balanced|aggressive|scalping)")
	jsonOut := flag.Bool("json", false, "Print active zones as JSON")
	flag.Parse()

	strat, err := config.LoadStrategy(*stratPath)
	if err != nil {
		log.Fatalf("[scan] strategy load failed: %v", err)
	}
	if *symbol != "" {
		strat.Symbol = *symbol
	}
	if *tf != "" {
		strat.Timeframe = *tf
	}
	if *preset != "" {
		det, ok := zone.Preset(*preset)
		if !ok {
			log.Fatalf("[scan] unknown preset %q", *preset)
		}
		strat.Detector = det
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[scan] sqlite open failed: %v", err)
	}
	defer reader.Close()

	candles, err := reader.ReadCandles(strat.Symbol, strat.Timeframe, *fromTS)
	if err != nil {
		log.Fatalf("[scan] candle load failed: %v", err)
	}
	if len(candles) == 0 {
		log.Fatalf("[scan] no candles for %s %s", strat.Symbol, strat.Timeframe)
	}

	engine := indicator.NewEngine(strat.Indicators)
	detector := zone.NewDetector(strat.Detector)
	registry := zone.NewRegistry()
	window := ringbuf.New(8)

	detected := 0
	for _, c := range candles {
		if err := c.Validate(); err != nil {
			log.Fatalf("[scan] bad candle at %s: %v", c.TS, err)
		}
		snap := engine.Update(c)
		registry.OnBar(c)
		window.Push(c)
		if window.Len() < 3 {
			continue
		}
		for _, z := range detector.Detect(window.Last(3), snap) {
			registry.Add(z)
			detected++
		}
	}

	active := registry.Active()
	log.Printf("[scan] %d candles scanned, %d zones detected, %d still active",
		len(candles), detected, len(active))

	if *jsonOut {
		out, _ := json.MarshalIndent(active, "", "  ")
		fmt.Println(string(out))
		return
	}
	for _, z := range active {
		fmt.Printf("%-14s %-5s %-8s [%.5f, %.5f] strength=%.2f conf=%.2f expires=%s\n",
			z.ID, z.Side, z.Quality, z.Bottom, z.Top, z.Strength, z.Confidence,
			z.ExpiresAt.Format("2006-01-02 15:04"))
	}
}
