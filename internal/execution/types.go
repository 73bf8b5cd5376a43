// Package execution maintains pending orders and open positions per
// symbol, fills them on subsequent candles, and computes PnL, fees and
// liquidation.
package execution

import (
	"errors"

	"github.com/shopspring/decimal"

	"tradeengine/internal/breakout"
	"tradeengine/internal/candle"
	"tradeengine/internal/strategy"
)

// Rejection errors for PlaceOrder; callers treat all of these as a
// silent no-op with a logged warning — the strategy must remain in its
// current state and not advance.
var (
	ErrKillSwitchActive   = errors.New("execution: kill switch active")
	ErrPositionExists     = errors.New("execution: position already open for symbol")
	ErrPendingOrderExists = errors.New("execution: pending order already exists for symbol")
)

// Params configures fee/slippage/liquidation behavior.
type Params struct {
	RiskPercentPerTrade      float64 // 1.0
	TradingFeeMaker          float64 // 0.0002
	TradingFeeTaker          float64 // 0.0005
	Slippage                 float64 // 0.0001
	Leverage                 float64 // 10
	MaintenanceMargin        float64 // 0.005
	LimitOrderTimeoutMinutes int64   // 120
}

// DefaultParams returns the recommended fee/slippage/liquidation defaults.
func DefaultParams() Params {
	return Params{
		RiskPercentPerTrade:      1.0,
		TradingFeeMaker:          0.0002,
		TradingFeeTaker:          0.0005,
		Slippage:                 0.0001,
		Leverage:                 10,
		MaintenanceMargin:        0.005,
		LimitOrderTimeoutMinutes: 120,
	}
}

// PendingOrder is a captured TradingSignal plus the computed position
// size, awaiting a fill. LIMIT and MARKET orders are segregated by the
// Engine because they have different fill rules.
type PendingOrder struct {
	Signal     strategy.TradingSignal
	Size       decimal.Decimal
	EnqueuedAt int64
}

// ActivePosition is the live result of a filled order.
type ActivePosition struct {
	TradeID    int64
	Symbol     string
	Direction  breakout.Direction
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
	EntryTime  int64
	EntryFee   decimal.Decimal
}

// symbolState groups everything the Engine tracks for one symbol.
type symbolState struct {
	pendingLimit  *PendingOrder
	pendingMarket *PendingOrder
	position      *ActivePosition
	lastCandle    *candle.Candle
}
