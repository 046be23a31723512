// cmd/signald is the long-running signal daemon. It replays stored candles
// through the pipeline in real-time (or accelerated) mode, publishes emitted
// signals and zone events to Redis streams and the WebSocket gateway,
// checkpoints indicator state for warm restarts, and optionally mirrors
// paper fills to a live broker.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fvgtrader/config"
	"fvgtrader/internal/backtest"
	"fvgtrader/internal/broker"
	"fvgtrader/internal/gateway"
	"fvgtrader/internal/indicator"
	"fvgtrader/internal/logger"
	"fvgtrader/internal/metrics"
	"fvgtrader/internal/model"
	"fvgtrader/internal/notification"
	"fvgtrader/internal/portfolio"
	"fvgtrader/internal/replay"
	redisstore "fvgtrader/internal/store/redis"
	sqlitestore "fvgtrader/internal/store/sqlite"
	"fvgtrader/internal/zone"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	mode := flag.String("mode", "realtime", "Replay mode: fast|realtime|stepped")
	speed := flag.Float64("speed", 1, "Realtime speed multiplier (1=wall clock)")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start from (0=all)")
	noRestore := flag.Bool("no-restore", false, "Skip checkpoint restore (cold start)")
	flag.Parse()

	cfg := config.Load()
	lg := logger.Init("signald", logger.ParseLevel(cfg.LogLevel))

	strat, err := config.LoadStrategy(cfg.StrategyPath)
	if err != nil {
		log.Fatalf("[signald] strategy load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithRunID(ctx, logger.NewRunID(strat.Symbol, time.Now()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		lg.Info("shutdown signal received", slog.String("signal", s.String()))
		cancel()
	}()

	// Storage.
	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[signald] sqlite open failed: %v", err)
	}
	defer reader.Close()

	writer, err := sqlitestore.NewWriter(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[signald] sqlite writer open failed: %v", err)
	}
	defer writer.Close()

	pub, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("[signald] redis connect failed: %v", err)
	}
	defer pub.Close()

	// Pipeline.
	met := metrics.New()
	runner := backtest.NewRunner(strat, met, nil)

	if !*noRestore {
		restoreCheckpoint(ctx, pub, runner)
	}

	// Gateway + metrics servers.
	hub := gateway.NewHub()
	startGateway(cfg.GatewayAddr, hub)
	startMetrics(cfg.MetricsAddr, met)

	// Optional live broker.
	var brk *broker.Client
	if ok, err := cfg.BrokerConfigured(); err != nil {
		log.Fatalf("[signald] %v", err)
	} else if ok {
		brk = broker.New(broker.Config{
			BaseURL:    cfg.BrokerBaseURL,
			APIKey:     cfg.BrokerAPIKey,
			ClientID:   cfg.BrokerClientCode,
			Password:   cfg.BrokerPassword,
			TOTPSecret: cfg.BrokerTOTPSecret,
		})
		if err := brk.Connect(ctx); err != nil {
			log.Fatalf("[signald] broker connect failed: %v", err)
		}
		lg.Info("broker session established")
	}

	// Alerting backends.
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.AlertWebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
	}

	// Taps: fan pipeline output to redis, sqlite, the gateway, and broker.
	runner.OnSignal = func(sig model.TradingSignal) {
		if err := pub.PublishSignal(ctx, sig); err != nil {
			log.Printf("[signald] redis publish failed: %v", err)
		}
		if err := writer.WriteSignal(sig); err != nil {
			log.Printf("[signald] signal persist failed: %v", err)
		}
		hub.Broadcast(gateway.ChannelSignals, sig)
		notification.Fanout(ctx, notifiers, notification.FromSignal(sig))
	}
	runner.OnClosed = func(closed portfolio.Closed) {
		notification.Fanout(ctx, notifiers, notification.FromClosedTrade(closed))
	}
	runner.OnZone = func(ev zone.PoolEvent) {
		if err := pub.PublishZoneEvent(ctx, string(ev.Type), ev.Zone); err != nil {
			log.Printf("[signald] zone event publish failed: %v", err)
		}
		hub.Broadcast(gateway.ChannelZoneEvents, ev)
	}
	if brk != nil {
		runner.OnOrder = func(order model.Order) {
			id, err := brk.PlaceOrder(ctx, order)
			if err != nil {
				log.Printf("[signald] broker order failed: %v", err)
				return
			}
			log.Printf("[signald] broker order placed: %s", id)
		}
	}

	// Candle feed.
	candles, err := reader.ReadCandles(strat.Symbol, strat.Timeframe, *fromTS)
	if err != nil {
		log.Fatalf("[signald] candle load failed: %v", err)
	}
	if len(candles) == 0 {
		log.Fatalf("[signald] no candles for %s %s", strat.Symbol, strat.Timeframe)
	}
	lg.Info("feed loaded",
		slog.Int("candles", len(candles)),
		slog.String("symbol", strat.Symbol),
		slog.String("timeframe", strat.Timeframe))

	eng := replay.New(parseMode(*mode), *speed)
	for _, c := range candles {
		eng.Add(replay.CandleEvent{Candle: c})
	}
	eng.Subscribe("pipeline", func(ev replay.Event) error {
		ce, ok := ev.(replay.CandleEvent)
		if !ok {
			return nil
		}
		return runner.OnBar(ce.Candle)
	})
	eng.Prepare()

	go checkpointLoop(ctx, pub, runner, strat)
	go equityLoop(ctx, hub, runner)

	lg.Info("replay starting", slog.String("mode", *mode), slog.Float64("speed", *speed))
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("[signald] replay failed: %v", err)
	}
	saveCheckpoint(context.Background(), pub, runner, strat)
	lg.Info("signald stopped", slog.Int("bars", eng.Processed()))
}

func parseMode(s string) replay.Mode {
	switch s {
	case "fast":
		return replay.ModeFast
	case "stepped":
		return replay.ModeStepped
	default:
		return replay.ModeRealTime
	}
}

func restoreCheckpoint(ctx context.Context, pub *redisstore.Publisher, runner *backtest.Runner) {
	data, err := pub.ReadLatestSnapshotJSON(ctx)
	if err != nil {
		log.Printf("[signald] checkpoint read failed: %v", err)
		return
	}
	if data == nil {
		log.Println("[signald] no checkpoint found, cold start")
		return
	}
	ec, err := indicator.UnmarshalCheckpoint(data)
	if err != nil {
		log.Printf("[signald] checkpoint decode failed, cold start: %v", err)
		return
	}
	runner.Restore(ec)
	log.Println("[signald] indicator state restored from checkpoint")
}

func saveCheckpoint(ctx context.Context, pub *redisstore.Publisher, runner *backtest.Runner, strat config.Strategy) {
	ec := runner.Engine().Checkpoint(strat.Symbol, strat.Timeframe)
	data, err := ec.Marshal()
	if err != nil {
		log.Printf("[signald] checkpoint encode failed: %v", err)
		return
	}
	if err := pub.SaveSnapshotJSON(ctx, data); err != nil {
		log.Printf("[signald] checkpoint save failed: %v", err)
	}
}

func checkpointLoop(ctx context.Context, pub *redisstore.Publisher, runner *backtest.Runner, strat config.Strategy) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveCheckpoint(ctx, pub, runner, strat)
		}
	}
}

func equityLoop(ctx context.Context, hub *gateway.Hub, runner *backtest.Runner) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pf := runner.Portfolio()
			hub.Broadcast(gateway.ChannelEquity, map[string]any{
				"equity":     pf.Equity(),
				"unrealized": pf.UnrealizedPnL(),
				"drawdown":   pf.Drawdown(),
				"ts":         time.Now().UTC(),
			})
		}
	}
}

func startGateway(addr string, hub *gateway.Hub) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": hub.ClientCount(),
		})
	})
	go func() {
		log.Printf("[signald] gateway listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[signald] gateway server stopped: %v", err)
		}
	}()
}

func startMetrics(addr string, met *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())
	go func() {
		log.Printf("[signald] metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[signald] metrics server stopped: %v", err)
		}
	}()
}
