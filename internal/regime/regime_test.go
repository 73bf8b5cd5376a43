package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradeengine/internal/candle"
)

func flatCandles(n int, price float64) []candle.Candle {
	cs := make([]candle.Candle, n)
	for i := range cs {
		cs[i] = candle.Candle{Open: price, High: price, Low: price, Close: price}
	}
	return cs
}

func TestEvaluateRejectsTooFewCandles(t *testing.T) {
	snap := Evaluate(flatCandles(10, 100), DefaultParams())
	assert.Equal(t, Snapshot{}, snap)
}

func TestEvaluateFlatMarketIsNotTradable(t *testing.T) {
	// zero directional movement and zero true range -> ADX=0, outside
	// [ADXMin,ADXMax], so the regime is rejected regardless of ATR.
	snap := Evaluate(flatCandles(40, 100), DefaultParams())
	assert.False(t, snap.Tradable)
	assert.Equal(t, 0.0, snap.ADX)
}

func TestEvaluateZeroLastCloseSkipsVolatilityDivision(t *testing.T) {
	cs := flatCandles(40, 100)
	cs[len(cs)-1].Close = 0
	snap := Evaluate(cs, DefaultParams())
	assert.False(t, snap.Tradable)
	assert.Equal(t, 0.0, snap.VolPct)
}
