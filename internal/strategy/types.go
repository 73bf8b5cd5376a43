// Package strategy hosts the per-symbol StrategyContext and the
// Orchestrator that drives the state machine and emits TradingSignals.
package strategy

import (
	"github.com/shopspring/decimal"

	"tradeengine/internal/breakout"
	"tradeengine/internal/rangedetect"
)

// OrderType segregates LIMIT and MARKET orders, which have different
// fill rules in the execution engine.
type OrderType string

const (
	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"
)

// TradingSignal is the value object emitted at most once per symbol per
// tick. Valid checks its invariants, and the orchestrator discards any
// signal that fails them:
// for LONG, StopLoss < Price < TakeProfit; for SHORT, the order flips.
type TradingSignal struct {
	Symbol      string
	Direction   breakout.Direction
	OrderType   OrderType
	Price       decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
	EmittedAt   int64
	Metadata    map[string]string
}

// StopDistance is |price - stop_loss|.
func (s TradingSignal) StopDistance() decimal.Decimal {
	return s.Price.Sub(s.StopLoss).Abs()
}

// Valid enforces the price-ordering invariant plus stop_distance > 0.
// A signal failing this check must be discarded, never acted on.
func (s TradingSignal) Valid() bool {
	if s.StopDistance().Sign() <= 0 {
		return false
	}
	switch s.Direction {
	case breakout.Long:
		return s.StopLoss.LessThan(s.Price) && s.Price.LessThan(s.TakeProfit)
	case breakout.Short:
		return s.TakeProfit.LessThan(s.Price) && s.Price.LessThan(s.StopLoss)
	default:
		return false
	}
}

// IndicatorSnapshot caches the indicator values a tick's decision was
// based on, for logging/debugging and to avoid recomputing ATR twice in
// the same tick.
type IndicatorSnapshot struct {
	ATR      float64
	EMA200   float64
	VolumeSMA float64
}

// Context is the per-symbol mutable state the orchestrator threads
// through ticks. No cross-symbol sharing occurs; the orchestrator holds
// one Context per symbol in a plain map.
type Context struct {
	Range               *rangedetect.Range
	Breakout            *breakout.Signal
	LastProcessedBar5m  int64
	Indicators          IndicatorSnapshot
}

// Reset clears all setup-scoped state, called on every RESET transition.
func (c *Context) Reset() {
	c.Range = nil
	c.Breakout = nil
	c.Indicators = IndicatorSnapshot{}
	// LastProcessedBar5m is deliberately NOT cleared: the 5m housekeeping
	// gate must keep comparing against real bar timestamps so a RESET
	// mid-bar doesn't cause the same bar to be reprocessed twice.
}
