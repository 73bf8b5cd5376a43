package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradeengine/internal/candle"
)

func flatCandles(n int, price float64) []candle.Candle {
	cs := make([]candle.Candle, n)
	for i := range cs {
		cs[i] = candle.Candle{Open: price, High: price, Low: price, Close: price, Volume: 1}
	}
	return cs
}

func TestSMAOfConstantSeriesEqualsThatConstant(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 7
	}
	assert.InDelta(t, 7.0, SMA(values, 10), 1e-9)
}

func TestSMAReturnsZeroWithInsufficientValues(t *testing.T) {
	assert.Equal(t, 0.0, SMA([]float64{1, 2}, 5))
}

func TestEMAOfConstantSeriesEqualsThatConstant(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 42
	}
	assert.InDelta(t, 42.0, EMA(values, 20), 1e-6)
}

func TestATRReturnsZeroWithInsufficientCandles(t *testing.T) {
	cs := flatCandles(5, 100)
	assert.Equal(t, 0.0, ATR(cs, 14))
}

func TestATRofZeroRangeCandlesIsZero(t *testing.T) {
	cs := flatCandles(30, 100)
	assert.InDelta(t, 0.0, ATR(cs, 14), 1e-9)
}

func TestVWAPWeightsByVolume(t *testing.T) {
	cs := []candle.Candle{
		{High: 10, Low: 10, Close: 10, Volume: 1},
		{High: 20, Low: 20, Close: 20, Volume: 3},
	}
	// typical prices are 10 and 20; weighted avg = (10*1+20*3)/4 = 17.5
	assert.InDelta(t, 17.5, VWAP(cs), 1e-9)
}

func TestVWAPEmptyWindowIsZero(t *testing.T) {
	assert.Equal(t, 0.0, VWAP(nil))
}

func TestVWAPZeroTotalVolumeIsZero(t *testing.T) {
	cs := []candle.Candle{{High: 10, Low: 10, Close: 10, Volume: 0}}
	assert.Equal(t, 0.0, VWAP(cs))
}

func TestStdDevOfConstantSeriesIsZero(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{5, 5, 5, 5}))
}

func TestStdDevKnownSeries(t *testing.T) {
	// population stddev of [2,4,4,4,5,5,7,9] is 2
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestZScoreZeroVarianceWindowIsZero(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5}
	assert.Equal(t, 0.0, ZScore(values, 5))
}

func TestZScoreInsufficientValuesIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ZScore([]float64{1, 2}, 5))
}

func TestZScoreOfLastValueAboveMean(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// mean=5, stddev=2, last=9 -> z = (9-5)/2 = 2
	assert.InDelta(t, 2.0, ZScore(values, len(values)), 1e-9)
}
