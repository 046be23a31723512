// cmd/candleimport loads candle history from a CSV file into the SQLite
// database the other binaries replay from. Existing rows for the same
// (symbol, timeframe, ts) are replaced, so re-importing a corrected file is
// safe.
//
// CSV columns: ts,open,high,low,close,volume — ts is either a unix seconds
// integer or RFC 3339. A header row is skipped automatically.
//
// Usage:
//
//	go run ./cmd/candleimport --db=data/candles.db --symbol=EURUSD --tf=H1 --csv=eurusd_h1.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"fvgtrader/internal/model"
	sqlitestore "fvgtrader/internal/store/sqlite"
)

const batchSize = 1000

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	dbPath := flag.String("db", "data/candles.db", "Path to SQLite candle database")
	symbol := flag.String("symbol", "", "Symbol the CSV rows belong to")
	tf := flag.String("tf", "H1", "Timeframe the CSV rows belong to")
	csvPath := flag.String("csv", "", "CSV file to import (ts,open,high,low,close,volume)")
	flag.Parse()

	if *symbol == "" || *csvPath == "" {
		log.Fatal("[candleimport] --symbol and --csv are required")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("[candleimport] open csv: %v", err)
	}
	defer f.Close()

	writer, err := sqlitestore.NewWriter(*dbPath)
	if err != nil {
		log.Fatalf("[candleimport] sqlite open failed: %v", err)
	}
	defer writer.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	batch := make([]model.Candle, 0, batchSize)
	total, line := 0, 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("[candleimport] csv read: %v", err)
		}
		line++
		c, err := parseRow(rec, *symbol, *tf)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			log.Fatalf("[candleimport] line %d: %v", line, err)
		}
		batch = append(batch, c)
		if len(batch) == batchSize {
			if err := writer.WriteCandleBatch(batch); err != nil {
				log.Fatalf("[candleimport] write batch: %v", err)
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := writer.WriteCandleBatch(batch); err != nil {
			log.Fatalf("[candleimport] write batch: %v", err)
		}
		total += len(batch)
	}

	log.Printf("[candleimport] imported %d candles for %s %s into %s", total, *symbol, *tf, *dbPath)
}

// parseRow converts one CSV record into a validated candle.
func parseRow(rec []string, symbol, tf string) (model.Candle, error) {
	ts, err := parseTS(rec[0])
	if err != nil {
		return model.Candle{}, fmt.Errorf("bad ts %q: %w", rec[0], err)
	}
	vals := make([]float64, 5)
	for i, field := range rec[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return model.Candle{}, fmt.Errorf("bad field %q: %w", field, err)
		}
		vals[i] = v
	}
	c := model.Candle{
		Symbol: symbol, Timeframe: tf, TS: ts,
		Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
	}
	if err := c.Validate(); err != nil {
		return model.Candle{}, err
	}
	return c, nil
}

// parseTS accepts unix seconds or RFC 3339.
func parseTS(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
