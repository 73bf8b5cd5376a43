package pullback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradeengine/internal/breakout"
	"tradeengine/internal/candle"
	"tradeengine/internal/rangedetect"
)

func TestValidateEmptyWindowIsInvalid(t *testing.T) {
	res := Validate(nil, breakout.Signal{Direction: breakout.Long}, rangedetect.Range{}, 100, DefaultParams())
	assert.False(t, res.Valid)
}

func TestValidateZeroImpulseRangeIsInvalid(t *testing.T) {
	brk := breakout.Signal{Direction: breakout.Long, ImpulseHigh: 100, ImpulseLow: 100}
	m1 := []candle.Candle{{Low: 100, Close: 100}}
	res := Validate(m1, brk, rangedetect.Range{High: 100}, 100, DefaultParams())
	assert.False(t, res.Valid)
}

func TestValidateLongWithinDepthAndTolerance(t *testing.T) {
	brk := breakout.Signal{Direction: breakout.Long, ImpulseHigh: 120, ImpulseLow: 100}
	rng := rangedetect.Range{High: 110}
	m1 := []candle.Candle{{Open: 114, High: 116, Low: 115, Close: 110.1}}
	res := Validate(m1, brk, rng, 108, DefaultParams())
	assert.True(t, res.Valid)
	assert.Equal(t, 110.0, res.ReferenceLevel)
}

func TestValidateLongRejectsDeepRetrace(t *testing.T) {
	brk := breakout.Signal{Direction: breakout.Long, ImpulseHigh: 120, ImpulseLow: 100}
	rng := rangedetect.Range{High: 110}
	m1 := []candle.Candle{{Open: 96, High: 97, Low: 95, Close: 110.1}}
	res := Validate(m1, brk, rng, 108, DefaultParams())
	assert.False(t, res.Valid)
}

func TestValidateLongRejectsOutsideTolerance(t *testing.T) {
	brk := breakout.Signal{Direction: breakout.Long, ImpulseHigh: 120, ImpulseLow: 100}
	rng := rangedetect.Range{High: 110}
	m1 := []candle.Candle{{Open: 114, High: 116, Low: 115, Close: 115}}
	res := Validate(m1, brk, rng, 108, DefaultParams())
	assert.False(t, res.Valid)
}

func TestValidateShortWithinDepthAndTolerance(t *testing.T) {
	brk := breakout.Signal{Direction: breakout.Short, ImpulseHigh: 120, ImpulseLow: 100}
	rng := rangedetect.Range{Low: 95}
	m1 := []candle.Candle{{Open: 104, High: 105, Low: 103, Close: 95.1}}
	res := Validate(m1, brk, rng, 97, DefaultParams())
	assert.True(t, res.Valid)
	assert.Equal(t, 95.0, res.ReferenceLevel)
}

func TestValidateShortFallsBackToRangeLowWhenVWAPIsZero(t *testing.T) {
	brk := breakout.Signal{Direction: breakout.Short, ImpulseHigh: 120, ImpulseLow: 100}
	rng := rangedetect.Range{Low: 95}
	m1 := []candle.Candle{{Open: 104, High: 105, Low: 103, Close: 95.1}}
	res := Validate(m1, brk, rng, 0, DefaultParams())
	assert.Equal(t, 95.0, res.ReferenceLevel)
}

func TestIsPinbarOnDojiWithLowerWick(t *testing.T) {
	c := candle.Candle{Open: 100, Close: 100, Low: 90, High: 101}
	assert.True(t, isPinbar(c))
}

func TestIsPinbarRequiresLongLowerWick(t *testing.T) {
	c := candle.Candle{Open: 100, Close: 102, Low: 99, High: 103}
	assert.False(t, isPinbar(c))
}

func TestIsEngulfingOnDominantBody(t *testing.T) {
	c := candle.Candle{Open: 100, Close: 110, High: 110.5, Low: 99.5}
	assert.True(t, isEngulfing(c))
}
