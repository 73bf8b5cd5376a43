package candle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyIsAbsoluteDifference(t *testing.T) {
	up := Candle{Open: 100, Close: 105}
	down := Candle{Open: 105, Close: 100}
	assert.Equal(t, 5.0, up.Body())
	assert.Equal(t, 5.0, down.Body())
}

func TestBodyPercentOfZeroRangeCandleIsZero(t *testing.T) {
	c := Candle{Open: 100, High: 100, Low: 100, Close: 100}
	assert.Equal(t, 0.0, c.BodyPercent())
}

func TestUpperAndLowerWick(t *testing.T) {
	c := Candle{Open: 100, High: 110, Low: 90, Close: 104}
	assert.Equal(t, 6.0, c.UpperWick())
	assert.Equal(t, 10.0, c.LowerWick())
}

func TestTypicalPrice(t *testing.T) {
	c := Candle{High: 12, Low: 9, Close: 9}
	assert.InDelta(t, 10.0, c.Typical(), 1e-9)
}

func TestTakerSellVolumeDerivedFromBuyVolume(t *testing.T) {
	c := Candle{Volume: 100, TakerBuyVolume: 60}
	assert.Equal(t, 40.0, c.TakerSellVolume())
	assert.Equal(t, 20.0, c.Delta())
}

func TestTakerSellVolumeZeroWhenNotReported(t *testing.T) {
	c := Candle{Volume: 100}
	assert.Equal(t, 0.0, c.TakerSellVolume())
	assert.Equal(t, 0.0, c.Delta())
}

func TestClosesHighsLowsExtraction(t *testing.T) {
	cs := []Candle{
		{Open: 1, High: 5, Low: 0, Close: 2},
		{Open: 2, High: 6, Low: 1, Close: 3},
	}
	assert.Equal(t, []float64{2, 3}, Closes(cs))
	assert.Equal(t, []float64{5, 6}, Highs(cs))
	assert.Equal(t, []float64{0, 1}, Lows(cs))
}
