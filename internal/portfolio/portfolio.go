// Package portfolio tracks balance, drawdown and the trading kill
// switch shared across every symbol.
package portfolio

import (
	"sync"

	"github.com/shopspring/decimal"

	"tradeengine/internal/logger"
)

const dayMillis = 24 * 60 * 60 * 1000

// Params configures the kill switch thresholds.
type Params struct {
	InitialBalance           float64 // e.g. 10000
	DailyLossLimitPercent    float64 // 10.0
	ConsecutiveLossLimit     int     // 10
}

// DefaultParams returns the recommended kill switch defaults.
func DefaultParams() Params {
	return Params{
		InitialBalance:        10000,
		DailyLossLimitPercent: 10.0,
		ConsecutiveLossLimit:  10,
	}
}

// Manager owns the account's balance and equity curve. It is the
// execution.PortfolioSink implementation; all mutation is serialized.
type Manager struct {
	mu sync.Mutex

	params Params
	log    *logger.Logger

	balance          decimal.Decimal
	dailyLoss        decimal.Decimal
	lastDayProcessed int64

	consecutiveLosses int
	peakEquity        decimal.Decimal
	maxDrawdown       float64
	equityCurve       []EquityPoint

	killSwitchTripped bool
}

// EquityPoint is one sample of the equity curve, emitted once per
// closed position.
type EquityPoint struct {
	Timestamp int64
	Equity    decimal.Decimal
	Drawdown  float64
}

// New constructs a Manager seeded at params.InitialBalance.
func New(params Params, log *logger.Logger) *Manager {
	initial := decimal.NewFromFloat(params.InitialBalance)
	return &Manager{
		params:     params,
		log:        log,
		balance:    initial,
		dailyLoss:  decimal.Zero,
		peakEquity: initial,
	}
}

// UpdateParams swaps in new kill-switch thresholds. InitialBalance is
// ignored after construction; the running balance never resets on a
// config reload.
func (m *Manager) UpdateParams(params Params) {
	m.mu.Lock()
	defer m.mu.Unlock()
	params.InitialBalance = m.params.InitialBalance
	m.params = params
}

// Balance returns the current realized balance.
func (m *Manager) Balance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

// CanTrade reports whether the kill switch currently permits new
// orders. Once tripped for a day it stays tripped until the UTC day
// rolls over.
func (m *Manager) CanTrade() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.killSwitchTripped
}

// DeductFee subtracts a fee from the balance immediately, independent
// of trade outcome.
func (m *Manager) DeductFee(amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = m.balance.Sub(amount)
}

// Tick runs the UTC-day rollover check for `now` independent of any
// trade closing. A kill switch tripped while a position is still open
// would otherwise never see resetDailyStatsLocked run again, since that
// only ever fired from ApplyTradeResult — and a tripped switch blocks
// every new PlaceOrder, so no position could ever open or close to
// trigger it. Called once per closed candle from Engine.OnMarketData.
func (m *Manager) Tick(now int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyStatsLocked(now)
}

// ApplyTradeResult rolls a closed trade's net PnL into the balance,
// updates the consecutive-loss counter and equity curve, runs the
// daily-reset check for `at`'s calendar day, and re-evaluates the kill
// switch.
func (m *Manager) ApplyTradeResult(netPnL decimal.Decimal, at int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDailyStatsLocked(at)

	m.balance = m.balance.Add(netPnL)
	if netPnL.Sign() < 0 {
		m.consecutiveLosses++
		m.dailyLoss = m.dailyLoss.Add(netPnL.Abs())
	} else if netPnL.Sign() > 0 {
		m.consecutiveLosses = 0
	}

	if m.balance.GreaterThan(m.peakEquity) {
		m.peakEquity = m.balance
	}
	drawdown := 0.0
	if m.peakEquity.Sign() > 0 {
		dd, _ := m.peakEquity.Sub(m.balance).Div(m.peakEquity).Float64()
		drawdown = dd
	}
	if drawdown > m.maxDrawdown {
		m.maxDrawdown = drawdown
	}
	m.equityCurve = append(m.equityCurve, EquityPoint{Timestamp: at, Equity: m.balance, Drawdown: m.maxDrawdown})

	m.evaluateKillSwitchLocked()
}

// resetDailyStatsLocked re-anchors the accumulated daily loss whenever
// `at` falls on a later UTC calendar day than the last timestamp it
// processed (from a closed trade or from Tick), clearing the kill switch
// for the new day.
func (m *Manager) resetDailyStatsLocked(at int64) {
	day := at / dayMillis
	if day == m.lastDayProcessed && m.lastDayProcessed != 0 {
		return
	}
	m.lastDayProcessed = day
	m.dailyLoss = decimal.Zero
	if m.killSwitchTripped {
		m.log.Infof("portfolio: new UTC day, kill switch reset")
	}
	m.killSwitchTripped = false
}

func (m *Manager) evaluateKillSwitchLocked() {
	if m.killSwitchTripped {
		return
	}
	if m.consecutiveLosses >= m.params.ConsecutiveLossLimit {
		m.killSwitchTripped = true
		m.log.Warnf("portfolio: kill switch tripped, %d consecutive losses", m.consecutiveLosses)
		return
	}
	if m.balance.Sign() <= 0 {
		return
	}
	lossPct, _ := m.dailyLoss.Div(m.balance).Mul(decimal.NewFromInt(100)).Float64()
	if lossPct >= m.params.DailyLossLimitPercent {
		m.killSwitchTripped = true
		m.log.Warnf("portfolio: kill switch tripped, daily loss %.2f%% >= %.2f%%", lossPct, m.params.DailyLossLimitPercent)
	}
}

// MaxDrawdown returns the largest peak-to-balance drawdown observed.
func (m *Manager) MaxDrawdown() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxDrawdown
}

// EquityCurve returns a copy of every recorded equity sample, in order.
func (m *Manager) EquityCurve() []EquityPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EquityPoint, len(m.equityCurve))
	copy(out, m.equityCurve)
	return out
}
