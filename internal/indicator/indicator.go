// Package indicator provides pure, stateless functions over candle
// sequences: ATR, ADX, EMA, SMA, VWAP, RSI, population standard deviation
// and z-score. None of these mutate their inputs, and given identical
// input slices they return identical output across invocations.
//
// ATR/ADX/RSI/EMA/SMA delegate to github.com/markcheno/go-talib, which
// implements Wilder smoothing for ATR/ADX/RSI (seed = SMA of the first
// `period` values, then Wilder's ((period-1)*prev + cur)/period
// recursion). VWAP, stddev and z-score have no TA-Lib equivalent and
// are computed directly.
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"tradeengine/internal/candle"
)

// ATR returns the latest Wilder-smoothed Average True Range, or 0 if there
// are not enough candles to seed the indicator.
func ATR(cs []candle.Candle, period int) float64 {
	if period <= 0 || len(cs) < period+1 {
		return 0
	}
	series := talib.Atr(candle.Highs(cs), candle.Lows(cs), candle.Closes(cs), period)
	return lastFinite(series)
}

// ADX returns the latest Wilder-smoothed Average Directional Index.
// TA-Lib's ADX needs roughly 2*period candles to produce a non-zero value.
func ADX(cs []candle.Candle, period int) float64 {
	if period <= 0 || len(cs) < period*2 {
		return 0
	}
	series := talib.Adx(candle.Highs(cs), candle.Lows(cs), candle.Closes(cs), period)
	return lastFinite(series)
}

// EMA returns the latest exponential moving average, seeded with the
// SMA of the first `period` values.
func EMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	series := talib.Ema(values, period)
	return lastFinite(series)
}

// SMA returns the latest simple moving average over `period` values.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	series := talib.Sma(values, period)
	return lastFinite(series)
}

// RSI returns Wilder's latest relative strength index.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) <= period {
		return 0
	}
	series := talib.Rsi(values, period)
	return lastFinite(series)
}

// VWAP is the volume-weighted average typical price over the given
// candle window: sum(typical*volume) / sum(volume). Returns 0 for an
// empty window or zero total volume.
func VWAP(cs []candle.Candle) float64 {
	if len(cs) == 0 {
		return 0
	}
	var num, den float64
	for _, c := range cs {
		num += c.Typical() * c.Volume
		den += c.Volume
	}
	if den <= 0 {
		return 0
	}
	return num / den
}

// StdDev is the population standard deviation of values.
func StdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	mean := meanOf(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}

// ZScore is (last - SMA(period)) / population-stddev(last `period`
// values). Returns 0 if there are fewer than `period` values or the
// window has zero variance.
func ZScore(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	window := values[len(values)-period:]
	mean := meanOf(window)
	sd := StdDev(window)
	if sd == 0 {
		return 0
	}
	last := values[len(values)-1]
	return (last - mean) / sd
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// lastFinite walks a TA-Lib output series backwards and returns the last
// finite value; TA-Lib pads the unwarmed prefix with zeros rather than
// NaN, so an all-zero series (insufficient warmup) correctly yields 0.
func lastFinite(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return v
	}
	return 0
}
