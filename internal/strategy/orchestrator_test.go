package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeengine/internal/breakout"
	"tradeengine/internal/fsm"
	"tradeengine/internal/logger"
	"tradeengine/internal/rangedetect"
)

func TestStateOnUnseenSymbolIsIdle(t *testing.T) {
	o := New(DefaultParams(), logger.Nop())
	assert.Equal(t, fsm.Idle, o.State("BTCUSDT"))
}

func TestGenerateSignalWithNoCandlesReturnsNilAndStaysIdle(t *testing.T) {
	o := New(DefaultParams(), logger.Nop())
	sig := o.GenerateSignal("BTCUSDT", nil, nil, 1000)
	assert.Nil(t, sig)
	assert.Equal(t, fsm.Idle, o.State("BTCUSDT"))
}

func TestResetClearsInFlightContextAndGoesToIdle(t *testing.T) {
	o := New(DefaultParams(), logger.Nop())
	m, c := o.machineFor("BTCUSDT", 1000)
	m.Transition(fsm.RangeDefined, 1000)
	rng := rangedetect.Range{High: 110, Low: 100}
	c.Range = &rng

	o.Reset("BTCUSDT", 2000)

	assert.Equal(t, fsm.Idle, o.State("BTCUSDT"))
	assert.Nil(t, c.Range)
}

func TestUpdateParamsSwapsConfigWithoutTouchingMachines(t *testing.T) {
	o := New(DefaultParams(), logger.Nop())
	m, _ := o.machineFor("BTCUSDT", 1000)
	m.Transition(fsm.RangeDefined, 1000)

	next := DefaultParams()
	next.RRRatio = 3.0
	o.UpdateParams(next)

	assert.Equal(t, 3.0, o.params.RRRatio)
	assert.Equal(t, fsm.RangeDefined, o.State("BTCUSDT"))
}

func TestTradingSignalValidRejectsZeroStopDistance(t *testing.T) {
	sig := TradingSignal{
		Direction:  breakout.Long,
		Price:      decimal.NewFromFloat(100),
		StopLoss:   decimal.NewFromFloat(100),
		TakeProfit: decimal.NewFromFloat(110),
	}
	assert.False(t, sig.Valid())
}

func TestTradingSignalValidAcceptsOrderedLong(t *testing.T) {
	sig := TradingSignal{
		Direction:  breakout.Long,
		Price:      decimal.NewFromFloat(100),
		StopLoss:   decimal.NewFromFloat(98),
		TakeProfit: decimal.NewFromFloat(106),
	}
	assert.True(t, sig.Valid())
}

func TestTradingSignalValidRejectsInvertedLong(t *testing.T) {
	sig := TradingSignal{
		Direction:  breakout.Long,
		Price:      decimal.NewFromFloat(100),
		StopLoss:   decimal.NewFromFloat(102),
		TakeProfit: decimal.NewFromFloat(106),
	}
	assert.False(t, sig.Valid())
}

func TestTradingSignalValidAcceptsOrderedShort(t *testing.T) {
	sig := TradingSignal{
		Direction:  breakout.Short,
		Price:      decimal.NewFromFloat(100),
		StopLoss:   decimal.NewFromFloat(102),
		TakeProfit: decimal.NewFromFloat(94),
	}
	assert.True(t, sig.Valid())
}

func TestContextResetPreservesLastProcessedBar5m(t *testing.T) {
	c := &Context{LastProcessedBar5m: 500}
	c.Reset()
	require.Nil(t, c.Range)
	require.Nil(t, c.Breakout)
	assert.Equal(t, int64(500), c.LastProcessedBar5m)
}
