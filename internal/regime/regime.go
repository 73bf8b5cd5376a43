// Package regime classifies a 5m candle window as tradable or not using
// ADX and a volatility band, gating whether the engine looks for a new
// range-break-pullback setup at all.
package regime

import (
	"tradeengine/internal/candle"
	"tradeengine/internal/indicator"
)

// Params are the configurable bounds of the regime filter.
// Defaults: ADX in [15,50], volatility% in [0.1,1.5].
type Params struct {
	ADXPeriod   int
	ADXMin      float64
	ADXMax      float64
	ATRPeriod   int
	VolMinPct   float64
	VolMaxPct   float64
}

// DefaultParams returns the recommended regime thresholds.
func DefaultParams() Params {
	return Params{
		ADXPeriod: 14,
		ADXMin:    15,
		ADXMax:    50,
		ATRPeriod: 14,
		VolMinPct: 0.1,
		VolMaxPct: 1.5,
	}
}

// Snapshot is the indicator state the filter evaluated, useful for
// logging and for reuse by the caller (avoids recomputing ATR twice).
type Snapshot struct {
	ADX     float64
	ATR     float64
	VolPct  float64
	Tradable bool
}

// Evaluate requires at least 30 recent 5m candles. With fewer, the
// regime is rejected (not tradable) since ADX/ATR cannot be trusted.
func Evaluate(cs []candle.Candle, p Params) Snapshot {
	if len(cs) < 30 {
		return Snapshot{}
	}
	adx := indicator.ADX(cs, p.ADXPeriod)
	atr := indicator.ATR(cs, p.ATRPeriod)
	lastClose := cs[len(cs)-1].Close
	if lastClose <= 0 {
		return Snapshot{ADX: adx, ATR: atr}
	}
	volPct := atr / lastClose * 100
	tradable := adx >= p.ADXMin && adx <= p.ADXMax && volPct >= p.VolMinPct && volPct <= p.VolMaxPct
	return Snapshot{ADX: adx, ATR: atr, VolPct: volPct, Tradable: tradable}
}
