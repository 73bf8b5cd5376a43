// Package store declares the persistence contracts for candle and trade
// storage. Concrete backends live in sibling packages (sqlstore,
// clickhousestore); callers depend only on these interfaces.
package store

import (
	"context"

	"tradeengine/internal/candle"
	"tradeengine/internal/trade"
)

// CandleStore is the idempotent candle archive. Idempotency is keyed on
// (symbol, timeframe, timestamp).
type CandleStore interface {
	CountInRange(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) (int, error)
	GetCandles(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) ([]candle.Candle, error)
	GetLastCandle(ctx context.Context, symbol string, tf candle.Timeframe) (*candle.Candle, error)
	SaveCandles(ctx context.Context, candles []candle.Candle) error
}

// TradeStats summarizes a symbol's trade history.
type TradeStats struct {
	Total         int
	Wins          int
	Losses        int
	WinRate       float64
	TotalPnL      float64
	ProfitFactor  float64
}

// TradeStore is the trade-record ledger. Idempotency is keyed on the
// generated trade id.
type TradeStore interface {
	// SaveTrade persists a new OPEN trade and returns its generated id.
	SaveTrade(ctx context.Context, t trade.Trade) (int64, error)
	// CloseTrade computes PnL server-side from the trade's stored entry
	// price/size/direction and marks it CLOSED.
	CloseTrade(ctx context.Context, id int64, exitPrice float64, exitTime int64, reason trade.ExitReason) (trade.Trade, error)
	CancelTrade(ctx context.Context, id int64) error
	GetOpenTrades(ctx context.Context, symbol string) ([]trade.Trade, error)
	GetTradeHistory(ctx context.Context, symbol string, limit int) ([]trade.Trade, error)
	GetTradeStats(ctx context.Context, symbol string) (TradeStats, error)
	ClearTrades(ctx context.Context) error
}
