// Package trade defines the persisted Trade record shared by the
// execution engine and every persistence backend.
package trade

import (
	"github.com/shopspring/decimal"

	"tradeengine/internal/breakout"
)

// Status is the lifecycle state of a persisted trade.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusClosed    Status = "CLOSED"
	StatusCancelled Status = "CANCELLED"
)

// ExitReason names why a position was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitLiquidated ExitReason = "LIQUIDATED"
	ExitForced     ExitReason = "FORCED"
	ExitExpired    ExitReason = "EXPIRED"
)

// Trade is the persisted record of one position's life, from entry to
// (optionally) exit. PnL sign must always equal direction's expected
// sign of (exit-entry): LONG -> exit-entry, SHORT -> entry-exit.
type Trade struct {
	ID            int64
	Symbol        string
	Direction     breakout.Direction
	EntryTime     int64
	EntryPrice    decimal.Decimal
	Size          decimal.Decimal
	StopLoss      decimal.Decimal
	TakeProfit    decimal.Decimal
	ExitTime      *int64
	ExitPrice     *decimal.Decimal
	ExitReason    *ExitReason
	PnL           *decimal.Decimal
	PnLPercent    *decimal.Decimal
	Status        Status
	Metadata      map[string]string
}

// ExpectedPnLSign returns the sign (+1, -1 or 0) of exit-entry for LONG
// and of entry-exit for SHORT, i.e. the sign a closed trade's PnL must
// have — used to assert the PnL-sign invariant in tests.
func ExpectedPnLSign(dir breakout.Direction, entry, exit decimal.Decimal) int {
	diff := exit.Sub(entry)
	if dir == breakout.Short {
		diff = diff.Neg()
	}
	return diff.Sign()
}
