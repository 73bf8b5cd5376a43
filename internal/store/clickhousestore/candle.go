// Package clickhousestore is an alternate, high-volume CandleStore
// backend for deployments archiving many symbols' tick-level history,
// grounded on the ClickHouse-backed candle table pattern used for
// backtest candle storage in the reference corpus.
package clickhousestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"tradeengine/internal/candle"
)

// CandleStore implements store.CandleStore against a single ClickHouse
// table, ordered by (symbol, timeframe, open_time).
type CandleStore struct {
	conn driver.Conn
}

// Config names the ClickHouse endpoint and auth.
type Config struct {
	Addr     []string
	Database string
	Username string
	Password string
}

// New opens a connection and ensures the candles table exists.
func New(ctx context.Context, cfg Config) (*CandleStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS candles (
		symbol            String,
		timeframe         String,
		open_time         Int64,
		close_time        Int64,
		open              Float64,
		high              Float64,
		low               Float64,
		close             Float64,
		volume            Float64,
		taker_buy_volume  Float64
	) ENGINE = ReplacingMergeTree
	ORDER BY (symbol, timeframe, open_time)`); err != nil {
		return nil, fmt.Errorf("clickhousestore: ensure schema: %w", err)
	}
	return &CandleStore{conn: conn}, nil
}

// SaveCandles batch-inserts candles; ReplacingMergeTree collapses
// duplicate (symbol, timeframe, open_time) rows on later merges, giving
// the same idempotency contract as sqlstore's upsert.
func (s *CandleStore) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO candles")
	if err != nil {
		return err
	}
	for _, c := range candles {
		if err := batch.Append(c.Symbol, string(c.Timeframe), c.OpenTime, c.CloseTime, c.Open, c.High, c.Low, c.Close, c.Volume, c.TakerBuyVolume); err != nil {
			return err
		}
	}
	return batch.Send()
}

// GetCandles returns candles in [t0, t1], deduplicated by taking the
// most recently inserted row per open_time via FINAL.
func (s *CandleStore) GetCandles(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) ([]candle.Candle, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT open_time, close_time, open, high, low, close, volume, taker_buy_volume
		FROM candles FINAL
		WHERE symbol = ? AND timeframe = ? AND open_time BETWEEN ? AND ?
		ORDER BY open_time ASC`, symbol, string(tf), t0, t1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []candle.Candle
	for rows.Next() {
		c := candle.Candle{Symbol: symbol, Timeframe: tf}
		if err := rows.Scan(&c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.TakerBuyVolume); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountInRange reports existing row count in [t0, t1].
func (s *CandleStore) CountInRange(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) (int, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT count() FROM candles FINAL
		WHERE symbol = ? AND timeframe = ? AND open_time BETWEEN ? AND ?`, symbol, string(tf), t0, t1)
	var n uint64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// GetLastCandle returns the most recent stored candle, or nil.
func (s *CandleStore) GetLastCandle(ctx context.Context, symbol string, tf candle.Timeframe) (*candle.Candle, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT open_time, close_time, open, high, low, close, volume, taker_buy_volume
		FROM candles FINAL
		WHERE symbol = ? AND timeframe = ?
		ORDER BY open_time DESC LIMIT 1`, symbol, string(tf))
	c := candle.Candle{Symbol: symbol, Timeframe: tf}
	if err := row.Scan(&c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.TakerBuyVolume); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Close releases the underlying connection.
func (s *CandleStore) Close() error {
	return s.conn.Close()
}
