// Package rangedetect scans a window of 5m candles for a consolidation
// bracket and validates its size against the prevailing ATR.
package rangedetect

import (
	"tradeengine/internal/candle"
	"tradeengine/internal/indicator"
)

// Params configures the detector.
type Params struct {
	Window           int
	MinSizeMultiplier float64
	MaxSizeMultiplier float64
	ATRPeriod        int
}

// DefaultParams returns window=30, size in [1.2, 3.5]*ATR(14).
func DefaultParams() Params {
	return Params{Window: 30, MinSizeMultiplier: 1.2, MaxSizeMultiplier: 3.5, ATRPeriod: 14}
}

// Range is the frozen [low, high] bracket a setup forms around.
// Immutable once constructed; only a state-machine RESET discards it.
type Range struct {
	High      float64
	Low       float64
	Size      float64
	FormedAt  int64
	ATR       float64
}

// Detect scans the last Window 5m candles and returns a valid Range, or
// (Range{}, false) if the window is too short or the bracket's size is
// outside [MinSizeMultiplier, MaxSizeMultiplier] * ATR.
func Detect(cs []candle.Candle, p Params) (Range, bool) {
	if len(cs) < p.Window {
		return Range{}, false
	}
	window := cs[len(cs)-p.Window:]
	high, low := window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	size := high - low
	atr := indicator.ATR(cs, p.ATRPeriod)
	if atr <= 0 {
		return Range{}, false
	}
	if size < p.MinSizeMultiplier*atr || size > p.MaxSizeMultiplier*atr {
		return Range{}, false
	}
	return Range{
		High:     high,
		Low:      low,
		Size:     size,
		FormedAt: window[len(window)-1].CloseTime,
		ATR:      atr,
	}, true
}
