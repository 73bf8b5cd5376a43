// Package breakout tests a just-closed 5m candle against a frozen range
// for a directional break with body%, volume and ATR conditions.
package breakout

import (
	"tradeengine/internal/candle"
	"tradeengine/internal/indicator"
	"tradeengine/internal/rangedetect"
)

// Direction of a breakout or trading signal.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Params configures the detector.
type Params struct {
	ATRMultiplier  float64
	MinBodyPercent float64
	VolumePeriod   int
	ATRPeriod      int
}

// DefaultParams returns atrMultiplier=0.1, minBodyPercent=50, volumePeriod=20.
func DefaultParams() Params {
	return Params{ATRMultiplier: 0.1, MinBodyPercent: 50, VolumePeriod: 20, ATRPeriod: 14}
}

// Signal is the value object emitted when a break is confirmed.
type Signal struct {
	Direction   Direction
	ImpulseSize float64
	ImpulseHigh float64
	ImpulseLow  float64
	BreakTime   int64
	BreakPrice  float64
}

// Detect evaluates the latest closed 5m candle against the frozen range.
// `cs` must include enough history to compute ATR and the volume SMA;
// the last element of `cs` is the candle under test.
func Detect(cs []candle.Candle, rng rangedetect.Range, p Params) (Signal, bool) {
	if len(cs) == 0 {
		return Signal{}, false
	}
	last := cs[len(cs)-1]
	atrPeriod := p.ATRPeriod
	if atrPeriod <= 0 {
		atrPeriod = 14
	}
	atr := indicator.ATR(cs, atrPeriod)
	if atr <= 0 {
		return Signal{}, false
	}
	volSMA := indicator.SMA(candle.Volumes(cs), p.VolumePeriod)
	if volSMA <= 0 {
		return Signal{}, false
	}
	bodyPct := last.BodyPercent()
	volOK := last.Volume > 0.8*volSMA
	switch {
	case last.Close > rng.High+p.ATRMultiplier*atr && bodyPct >= p.MinBodyPercent && volOK:
		return Signal{
			Direction:   Long,
			ImpulseSize: last.Close - rng.High,
			ImpulseHigh: last.High,
			ImpulseLow:  last.Low,
			BreakTime:   last.CloseTime,
			BreakPrice:  last.Close,
		}, true
	case last.Close < rng.Low-p.ATRMultiplier*atr && bodyPct >= p.MinBodyPercent && volOK:
		return Signal{
			Direction:   Short,
			ImpulseSize: rng.Low - last.Close,
			ImpulseHigh: last.High,
			ImpulseLow:  last.Low,
			BreakTime:   last.CloseTime,
			BreakPrice:  last.Close,
		}, true
	default:
		return Signal{}, false
	}
}

// TrendConfirmed applies the EMA(200) trend filter: LONG requires
// close > EMA200, SHORT requires close < EMA200.
func TrendConfirmed(dir Direction, closes []float64) bool {
	ema200 := indicator.EMA(closes, 200)
	if ema200 <= 0 || len(closes) == 0 {
		return false
	}
	last := closes[len(closes)-1]
	if dir == Long {
		return last > ema200
	}
	return last < ema200
}
