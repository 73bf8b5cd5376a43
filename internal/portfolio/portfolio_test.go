package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeengine/internal/logger"
)

func testParams() Params {
	return Params{
		InitialBalance:        10000,
		DailyLossLimitPercent: 10,
		ConsecutiveLossLimit:  3,
	}
}

func TestNewSeedsBalanceAtInitial(t *testing.T) {
	m := New(testParams(), logger.Nop())
	assert.True(t, m.Balance().Equal(decimal.NewFromInt(10000)))
	assert.True(t, m.CanTrade())
}

func TestApplyTradeResultUpdatesBalanceAndEquityCurve(t *testing.T) {
	m := New(testParams(), logger.Nop())
	m.ApplyTradeResult(decimal.NewFromInt(100), 1_700_000_000_000)
	assert.True(t, m.Balance().Equal(decimal.NewFromInt(10100)))
	curve := m.EquityCurve()
	require.Len(t, curve, 1)
	assert.True(t, curve[0].Equity.Equal(decimal.NewFromInt(10100)))
}

func TestConsecutiveLossesTripKillSwitch(t *testing.T) {
	m := New(testParams(), logger.Nop())
	loss := decimal.NewFromInt(-10)
	for i := 0; i < 3; i++ {
		m.ApplyTradeResult(loss, 1_700_000_000_000+int64(i))
	}
	assert.False(t, m.CanTrade())
}

func TestWinResetsConsecutiveLossCounter(t *testing.T) {
	m := New(testParams(), logger.Nop())
	loss := decimal.NewFromInt(-10)
	m.ApplyTradeResult(loss, 1_700_000_000_000)
	m.ApplyTradeResult(loss, 1_700_000_000_001)
	m.ApplyTradeResult(decimal.NewFromInt(50), 1_700_000_000_002)
	m.ApplyTradeResult(loss, 1_700_000_000_003)
	m.ApplyTradeResult(loss, 1_700_000_000_004)
	assert.True(t, m.CanTrade(), "win between losses should reset the streak")
}

func TestDailyLossLimitTripsKillSwitch(t *testing.T) {
	m := New(testParams(), logger.Nop())
	// one trade losing >10% of the day's starting balance
	m.ApplyTradeResult(decimal.NewFromInt(-1500), 1_700_000_000_000)
	assert.False(t, m.CanTrade())
}

func TestDailyLossLimitTripsOnAccumulatedLossesEvenWhenBalanceIsFlat(t *testing.T) {
	m := New(testParams(), logger.Nop())
	// two losses offset by two wins leave the balance unchanged, but the
	// accumulated daily loss (2000 against a 10000 balance) still exceeds
	// the 10% threshold.
	m.ApplyTradeResult(decimal.NewFromInt(-1000), 1_700_000_000_000)
	m.ApplyTradeResult(decimal.NewFromInt(1000), 1_700_000_000_001)
	m.ApplyTradeResult(decimal.NewFromInt(-1000), 1_700_000_000_002)
	m.ApplyTradeResult(decimal.NewFromInt(1000), 1_700_000_000_003)
	assert.True(t, m.Balance().Equal(decimal.NewFromInt(10000)))
	assert.False(t, m.CanTrade())
}

func TestKillSwitchResetsOnNewUTCDay(t *testing.T) {
	m := New(testParams(), logger.Nop())
	m.ApplyTradeResult(decimal.NewFromInt(-1500), 1_700_000_000_000)
	require.False(t, m.CanTrade())

	nextDay := int64(1_700_000_000_000 + dayMillis)
	m.ApplyTradeResult(decimal.NewFromInt(1), nextDay)
	assert.True(t, m.CanTrade())
}

func TestTickResetsKillSwitchOnNewUTCDayWithNoTradeClosing(t *testing.T) {
	m := New(testParams(), logger.Nop())
	m.ApplyTradeResult(decimal.NewFromInt(-1500), 1_700_000_000_000)
	require.False(t, m.CanTrade())

	// a tripped kill switch blocks every new order, so no trade can ever
	// open or close again; only a per-tick day check (not another
	// ApplyTradeResult) can ever clear it.
	nextDay := int64(1_700_000_000_000 + dayMillis)
	m.Tick(nextDay)
	assert.True(t, m.CanTrade())
}

func TestTickIsNoOpWithinTheSameUTCDay(t *testing.T) {
	m := New(testParams(), logger.Nop())
	m.ApplyTradeResult(decimal.NewFromInt(-1500), 1_700_000_000_000)
	require.False(t, m.CanTrade())

	m.Tick(1_700_000_000_000 + 1)
	assert.False(t, m.CanTrade())
}

func TestMaxDrawdownTracksWorstPeakToBalanceGap(t *testing.T) {
	m := New(testParams(), logger.Nop())
	m.ApplyTradeResult(decimal.NewFromInt(1000), 1_700_000_000_000) // new peak 11000
	m.ApplyTradeResult(decimal.NewFromInt(-2000), 1_700_000_000_001) // balance 9000, dd ~18.2%
	dd := m.MaxDrawdown()
	assert.InDelta(t, 0.1818, dd, 0.001)
	// a subsequent recovery should not shrink the recorded max drawdown
	m.ApplyTradeResult(decimal.NewFromInt(5000), 1_700_000_000_002)
	assert.InDelta(t, 0.1818, m.MaxDrawdown(), 0.001)
}

func TestUpdateParamsKeepsRunningBalance(t *testing.T) {
	m := New(testParams(), logger.Nop())
	m.ApplyTradeResult(decimal.NewFromInt(100), 1_700_000_000_000)
	before := m.Balance()

	m.UpdateParams(Params{InitialBalance: 999999, DailyLossLimitPercent: 5, ConsecutiveLossLimit: 1})
	assert.True(t, m.Balance().Equal(before), "UpdateParams must not reset the running balance")

	// tightened limit now trips on the very next loss
	m.ApplyTradeResult(decimal.NewFromInt(-1), 1_700_000_000_001)
	assert.False(t, m.CanTrade())
}
