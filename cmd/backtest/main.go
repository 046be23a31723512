// cmd/backtest replays historical candles from SQLite through the full
// pipeline (indicators → zones → candidates → signals → paper fills) and
// prints a run report.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/candles.db --symbol=EURUSD --tf=H1 --strategy=config/strategy.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fvgtrader/config"
	"fvgtrader/internal/backtest"
	"fvgtrader/internal/execution"
	sqlitestore "fvgtrader/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	dbPath := flag.String("db", "data/candles.db", "Path to SQLite candle database")
	symbol := flag.String("symbol", "", "Symbol to replay (default: strategy file's symbol)")
	tf := flag.String("tf", "", "Timeframe to replay (default: strategy file's timeframe)")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start replay from (0=all)")
	stratPath := flag.String("strategy", "config/strategy.yaml", "Strategy YAML file")
	journalPath := flag.String("journal", "", "Optional SQLite fill journal path")
	jsonOut := flag.Bool("json", false, "Print the full result as JSON")
	flag.Parse()

	strat, err := config.LoadStrategy(*stratPath)
	if err != nil {
		log.Fatalf("[backtest] strategy load failed: %v", err)
	}
	if *symbol != "" {
		strat.Symbol = *symbol
	}
	if *tf != "" {
		strat.Timeframe = *tf
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	candles, err := reader.ReadCandles(strat.Symbol, strat.Timeframe, *fromTS)
	if err != nil {
		log.Fatalf("[backtest] candle load failed: %v", err)
	}
	if len(candles) == 0 {
		log.Fatalf("[backtest] no candles for %s %s", strat.Symbol, strat.Timeframe)
	}
	log.Printf("[backtest] loaded %d candles for %s %s", len(candles), strat.Symbol, strat.Timeframe)

	var journal *execution.Journal
	if *journalPath != "" {
		journal, err = execution.NewJournal(*journalPath)
		if err != nil {
			log.Fatalf("[backtest] journal open failed: %v", err)
		}
		defer journal.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	runner := backtest.NewRunner(strat, nil, journal)
	res := runner.Run(ctx, candles)

	if *jsonOut {
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
	} else {
		printSummary(res, strat.Equity)
	}

	if !res.Success {
		log.Printf("[backtest] run failed: %s", res.Error)
		os.Exit(1)
	}
}

func printSummary(res backtest.Result, startEquity float64) {
	fmt.Println("── backtest summary ──")
	fmt.Printf("bars processed:      %d\n", res.Bars)
	fmt.Printf("zones detected:      %d\n", res.ZonesDetected)
	fmt.Printf("zone entries:        %d\n", res.ZoneEntries)
	fmt.Printf("candidates spawned:  %d (throttled %d, expired %d)\n",
		res.CandidatesSpawned, res.SpawnsThrottled, res.CandidatesExpired)
	fmt.Printf("signals emitted:     %d\n", len(res.Signals))
	fmt.Printf("trades closed:       %d (won %d, lost %d)\n", len(res.Trades), res.Wins, res.Losses)
	fmt.Printf("equity:              %.2f → %.2f (realized %+.2f)\n",
		startEquity, res.FinalEquity, res.Realized)
	fmt.Printf("max drawdown:        %.2f%%\n", res.MaxDrawdown*100)
}
