// Package pullback determines, on the 1m stream, whether price has
// retraced to the broken level or the session VWAP within an allowed
// depth after a breakout.
package pullback

import (
	"math"

	"tradeengine/internal/breakout"
	"tradeengine/internal/candle"
	"tradeengine/internal/rangedetect"
)

// Params configures the validator.
type Params struct {
	MaxDepthPercent       float64
	PriceTolerancePercent float64
}

// DefaultParams returns maxDepthPercent=50, priceTolerancePercent=0.2.
func DefaultParams() Params {
	return Params{MaxDepthPercent: 50, PriceTolerancePercent: 0.2}
}

// Result carries the validation outcome plus the reference level used,
// so the orchestrator can build the LIMIT signal off the same number.
type Result struct {
	Valid         bool
	ReferenceLevel float64
	Pinbar        bool
	Engulfing     bool
}

// Validate inspects the most recent 1m candle (the last element of `m1`)
// against the breakout and the frozen range.
//
// LONG: valid iff the 1m low's retracement relative to the impulse is
// <=50% AND the close is within 0.2% of max(rangeHigh, VWAP).
// SHORT is the mirror image.
func Validate(m1 []candle.Candle, brk breakout.Signal, rng rangedetect.Range, vwap float64, p Params) Result {
	if len(m1) == 0 {
		return Result{}
	}
	cur := m1[len(m1)-1]

	switch brk.Direction {
	case breakout.Long:
		ref := math.Max(rng.High, vwap)
		impulseRange := brk.ImpulseHigh - brk.ImpulseLow
		if impulseRange <= 0 {
			return Result{}
		}
		retrace := (brk.ImpulseHigh - cur.Low) / impulseRange * 100
		withinDepth := retrace <= p.MaxDepthPercent
		withinTolerance := ref > 0 && math.Abs(cur.Close-ref)/ref*100 <= p.PriceTolerancePercent
		valid := withinDepth && withinTolerance
		return Result{Valid: valid, ReferenceLevel: ref, Pinbar: isPinbar(cur), Engulfing: isEngulfing(cur)}
	case breakout.Short:
		ref := math.Min(rng.Low, vwap)
		if vwap <= 0 {
			ref = rng.Low
		}
		impulseRange := brk.ImpulseHigh - brk.ImpulseLow
		if impulseRange <= 0 {
			return Result{}
		}
		retrace := (cur.High - brk.ImpulseLow) / impulseRange * 100
		withinDepth := retrace <= p.MaxDepthPercent
		withinTolerance := ref > 0 && math.Abs(cur.Close-ref)/ref*100 <= p.PriceTolerancePercent
		valid := withinDepth && withinTolerance
		return Result{Valid: valid, ReferenceLevel: ref, Pinbar: isPinbar(cur), Engulfing: isEngulfing(cur)}
	default:
		return Result{}
	}
}

// isPinbar flags a candle whose lower wick exceeds twice its body, an
// optional confirmation pattern alongside the depth/tolerance checks.
func isPinbar(c candle.Candle) bool {
	body := c.Body()
	if body <= 0 {
		return c.LowerWick() > 0
	}
	return c.LowerWick() > 2*body
}

// isEngulfing approximates a bullish engulfing via body dominance.
func isEngulfing(c candle.Candle) bool {
	return c.BodyPercent() > 70
}
