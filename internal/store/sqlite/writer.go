package sqlite

import (
	"database/sql"
	"fmt"
	"log"

	"fvgtrader/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Writer persists candles and emitted signals to SQLite.
type Writer struct {
	db *sql.DB
}

// NewWriter opens (or creates) the SQLite database and ensures the schema.
func NewWriter(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open writer: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS candles (
		symbol     TEXT NOT NULL,
		timeframe  TEXT NOT NULL,
		ts         INTEGER NOT NULL,
		open       REAL NOT NULL,
		high       REAL NOT NULL,
		low        REAL NOT NULL,
		close      REAL NOT NULL,
		volume     REAL NOT NULL,
		PRIMARY KEY (symbol, timeframe, ts)
	);
	CREATE TABLE IF NOT EXISTS signals (
		id            TEXT PRIMARY KEY,
		candidate_id  TEXT NOT NULL,
		zone_id       TEXT NOT NULL,
		symbol        TEXT NOT NULL,
		timeframe     TEXT NOT NULL,
		direction     TEXT NOT NULL,
		entry_price   REAL NOT NULL,
		current_price REAL NOT NULL,
		strength      REAL NOT NULL,
		confidence    REAL NOT NULL,
		ts            INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals(symbol, ts);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite-writer] opened %s", dbPath)
	return &Writer{db: db}, nil
}

// WriteCandleBatch inserts candles in one transaction. Existing rows for the
// same (symbol, timeframe, ts) are replaced.
func (w *Writer) WriteCandleBatch(candles []model.Candle) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, timeframe, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(c.Symbol, c.Timeframe, c.TS.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert candle: %w", err)
		}
	}
	return tx.Commit()
}

// WriteSignal persists one emitted trading signal.
func (w *Writer) WriteSignal(sig model.TradingSignal) error {
	_, err := w.db.Exec(`
		INSERT OR IGNORE INTO signals
			(id, candidate_id, zone_id, symbol, timeframe, direction, entry_price, current_price, strength, confidence, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.ID, sig.CandidateID, sig.ZoneID, sig.Symbol, sig.Timeframe, string(sig.Direction),
		sig.EntryPrice, sig.CurrentPrice, sig.Strength, sig.Confidence, sig.TS.Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert signal: %w", err)
	}
	return nil
}

// Close closes the writer.
func (w *Writer) Close() error {
	return w.db.Close()
}
