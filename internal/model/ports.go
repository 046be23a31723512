package model

import "context"

// ── Storage Port Interfaces ──
// These interfaces decouple the pipeline from concrete storage implementations
// (Redis, SQLite). Each implementation satisfies one or more of these interfaces.

// CandleReader reads historical candles for backfill and replay.
type CandleReader interface {
	// ReadCandles reads candles for a specific symbol and timeframe, ordered
	// by timestamp ascending. afterTS filters to bars after this Unix
	// timestamp (0 = all).
	ReadCandles(symbol, timeframe string, afterTS int64) ([]Candle, error)

	// ReadAllCandles reads all candles for a timeframe across symbols.
	ReadAllCandles(timeframe string, afterTS int64) ([]Candle, error)

	// Close releases underlying resources.
	Close() error
}

// SignalSink receives emitted trading signals (persistence, streams, UIs).
type SignalSink interface {
	// PublishSignal records one emitted signal. Implementations must not
	// block the pipeline; errors are logged, not returned to the FSM.
	PublishSignal(ctx context.Context, sig TradingSignal) error
}

// ZoneEventSink receives zone lifecycle events for external observers.
type ZoneEventSink interface {
	PublishZoneEvent(ctx context.Context, event string, zone Zone) error
}

// SnapshotStore reads and writes indicator engine checkpoints as raw JSON.
// Using []byte avoids a model→indicator→model import cycle.
type SnapshotStore interface {
	// SaveSnapshotJSON persists a JSON-encoded engine checkpoint.
	SaveSnapshotJSON(ctx context.Context, data []byte) error

	// ReadLatestSnapshotJSON loads the most recent checkpoint as raw JSON.
	// Returns nil, nil if no checkpoint exists.
	ReadLatestSnapshotJSON(ctx context.Context) ([]byte, error)
}
