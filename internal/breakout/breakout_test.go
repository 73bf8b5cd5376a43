package breakout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeengine/internal/candle"
	"tradeengine/internal/rangedetect"
)

func flatCandles(n int, high, low, close, volume float64) []candle.Candle {
	cs := make([]candle.Candle, n)
	for i := range cs {
		cs[i] = candle.Candle{Open: close, High: high, Low: low, Close: close, Volume: volume}
	}
	return cs
}

func TestDetectEmptySliceIsNoBreak(t *testing.T) {
	_, ok := Detect(nil, rangedetect.Range{High: 110, Low: 100}, DefaultParams())
	assert.False(t, ok)
}

func TestDetectLongBreakAboveRange(t *testing.T) {
	cs := flatCandles(30, 110, 100, 105, 1)
	cs = append(cs, candle.Candle{Open: 105, High: 131, Low: 104, Close: 130, Volume: 5, CloseTime: 999})
	rng := rangedetect.Range{High: 110, Low: 100}
	sig, ok := Detect(cs, rng, DefaultParams())
	require.True(t, ok)
	assert.Equal(t, Long, sig.Direction)
	assert.Equal(t, 130.0, sig.BreakPrice)
	assert.Equal(t, int64(999), sig.BreakTime)
}

func TestDetectRejectsWeakBody(t *testing.T) {
	cs := flatCandles(30, 110, 100, 105, 1)
	// closes well above the range but the body is a tiny sliver of the
	// candle's high-low range, so the body% filter should reject it.
	cs = append(cs, candle.Candle{Open: 129, High: 150, Low: 100, Close: 130, Volume: 5})
	sig, ok := Detect(cs, rangedetect.Range{High: 110, Low: 100}, DefaultParams())
	assert.False(t, ok)
	assert.Equal(t, Signal{}, sig)
}

func TestDetectRejectsWeakVolume(t *testing.T) {
	cs := flatCandles(30, 110, 100, 105, 10)
	cs = append(cs, candle.Candle{Open: 105, High: 131, Low: 104, Close: 130, Volume: 0.1})
	_, ok := Detect(cs, rangedetect.Range{High: 110, Low: 100}, DefaultParams())
	assert.False(t, ok)
}

func TestDetectNoBreakStillInsideRange(t *testing.T) {
	cs := flatCandles(30, 110, 100, 105, 1)
	cs = append(cs, candle.Candle{Open: 105, High: 108, Low: 102, Close: 106, Volume: 1})
	_, ok := Detect(cs, rangedetect.Range{High: 110, Low: 100}, DefaultParams())
	assert.False(t, ok)
}

func TestTrendConfirmedRequiresEnoughHistory(t *testing.T) {
	assert.False(t, TrendConfirmed(Long, []float64{1, 2, 3}))
}

func TestTrendConfirmedOnMonotonicUptrend(t *testing.T) {
	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	// a strictly increasing series always has EMA < the latest close,
	// since EMA is a convex combination of current and all past values.
	assert.True(t, TrendConfirmed(Long, closes))
	assert.False(t, TrendConfirmed(Short, closes))
}

func TestTrendConfirmedOnMonotonicDowntrend(t *testing.T) {
	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = float64(250 - i)
	}
	assert.True(t, TrendConfirmed(Short, closes))
	assert.False(t, TrendConfirmed(Long, closes))
}
