package strategy

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"tradeengine/internal/breakout"
	"tradeengine/internal/candle"
	"tradeengine/internal/fsm"
	"tradeengine/internal/indicator"
	"tradeengine/internal/logger"
	"tradeengine/internal/pullback"
	"tradeengine/internal/rangedetect"
	"tradeengine/internal/regime"
)

const dayMillis = 24 * 60 * 60 * 1000

// Params aggregates every detector's tunables plus the orchestrator's
// own (RR ratio, pullback wait timeout).
type Params struct {
	Regime   regime.Params
	Range    rangedetect.Params
	Breakout breakout.Params
	Pullback pullback.Params

	RRRatio              float64 // 2.5
	WaitPullbackTimeoutMin int64 // 120
}

// DefaultParams wires every detector's recommended defaults together.
func DefaultParams() Params {
	return Params{
		Regime:                 regime.DefaultParams(),
		Range:                  rangedetect.DefaultParams(),
		Breakout:               breakout.DefaultParams(),
		Pullback:               pullback.DefaultParams(),
		RRRatio:                2.5,
		WaitPullbackTimeoutMin: 120,
	}
}

// Orchestrator consumes synchronized 5m/1m candle windows per symbol and
// emits at most one TradingSignal per symbol per tick. It owns one
// fsm.Machine and one Context per symbol; no state is shared across
// symbols.
type Orchestrator struct {
	mu     sync.Mutex
	params Params
	log    *logger.Logger

	machines map[string]*fsm.Machine
	contexts map[string]*Context
}

// New constructs an Orchestrator. `log` receives a line for every
// illegal transition attempt, for diagnosing state machine drift.
func New(params Params, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		params:   params,
		log:      log,
		machines: make(map[string]*fsm.Machine),
		contexts: make(map[string]*Context),
	}
}

// UpdateParams swaps in new detector/RR/timeout tunables, taking effect
// on each symbol's next GenerateSignal call. In-flight per-symbol FSM
// state and range/breakout context are untouched.
func (o *Orchestrator) UpdateParams(params Params) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.params = params
}

func (o *Orchestrator) OnTransition(symbol string, from, to fsm.State, allowed bool) {
	if allowed {
		o.log.Debugf("fsm %s: %s -> %s", symbol, from, to)
		return
	}
	o.log.Warnf("fsm %s: illegal transition %s -> %s rejected", symbol, from, to)
}

func (o *Orchestrator) machineFor(symbol string, now int64) (*fsm.Machine, *Context) {
	m, ok := o.machines[symbol]
	if !ok {
		m = fsm.New(symbol, now, o)
		o.machines[symbol] = m
	}
	c, ok := o.contexts[symbol]
	if !ok {
		c = &Context{}
		o.contexts[symbol] = c
	}
	return m, c
}

// State returns the current FSM state for a symbol (IDLE if unseen).
func (o *Orchestrator) State(symbol string) fsm.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.machines[symbol]
	if !ok {
		return fsm.Idle
	}
	return m.State()
}

// Reset drives a symbol's machine through RESET -> IDLE and clears its
// context. Used by manual or driver-initiated resets.
func (o *Orchestrator) Reset(symbol string, now int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, c := o.machineFor(symbol, now)
	m.ForceReset(now)
	c.Reset()
}

// GenerateSignal is the orchestrator's sole entry point, called once per
// (symbol, 1m tick) in fixed order. `m5` and `m1` must already be
// windowed to exclude the current bar per the driver's anti-look-ahead
// discipline; this function does not re-check that.
func (o *Orchestrator) GenerateSignal(symbol string, m5, m1 []candle.Candle, now int64) *TradingSignal {
	o.mu.Lock()
	defer o.mu.Unlock()

	m, c := o.machineFor(symbol, now)

	// 1. Timeouts.
	if m.State() == fsm.WaitPullback {
		if m.TimeInState(now) > o.params.WaitPullbackTimeoutMin*60*1000 {
			o.log.Infof("%s: wait_pullback timed out, forcing reset", symbol)
			m.ForceReset(now)
			c.Reset()
			return nil
		}
	}

	// 2. 5m housekeeping — only on a newly closed bar.
	if len(m5) > 0 {
		lastBar := m5[len(m5)-1]
		if lastBar.CloseTime > c.LastProcessedBar5m {
			c.LastProcessedBar5m = lastBar.CloseTime
			o.handle5mBar(symbol, m, c, m5, now)
		}
	}

	// 3. 1m evaluation.
	if m.State() == fsm.WaitPullback && c.Range != nil && c.Breakout != nil {
		return o.evaluatePullback(symbol, m, c, m1, now)
	}
	return nil
}

func (o *Orchestrator) handle5mBar(symbol string, m *fsm.Machine, c *Context, m5 []candle.Candle, now int64) {
	switch m.State() {
	case fsm.Idle:
		snap := regime.Evaluate(m5, o.params.Regime)
		if !snap.Tradable {
			return
		}
		rng, ok := rangedetect.Detect(m5, o.params.Range)
		if !ok {
			return
		}
		c.Range = &rng
		c.Indicators.ATR = rng.ATR
		if m.Transition(fsm.RangeDefined, now) {
			o.log.Infof("%s: range defined [%.4f,%.4f]", symbol, rng.Low, rng.High)
		}
	case fsm.RangeDefined:
		if c.Range == nil {
			return
		}
		sig, ok := breakout.Detect(m5, *c.Range, o.params.Breakout)
		if !ok {
			return
		}
		closes := candle.Closes(m5)
		ema200 := indicator.EMA(closes, 200)
		c.Indicators.EMA200 = ema200
		if !breakout.TrendConfirmed(sig.Direction, closes) {
			return
		}
		c.Breakout = &sig
		if !m.Transition(fsm.BreakoutDetected, now) {
			return
		}
		if !m.Transition(fsm.WaitPullback, now) {
			// Unreachable given the transition table, but guard anyway:
			// never leave the context half-updated on a rejected hop.
			m.ForceReset(now)
			c.Reset()
		}
	}
}

func (o *Orchestrator) evaluatePullback(symbol string, m *fsm.Machine, c *Context, m1 []candle.Candle, now int64) *TradingSignal {
	if len(m1) == 0 {
		return nil
	}
	vwap := sessionVWAP(m1)
	res := pullback.Validate(m1, *c.Breakout, *c.Range, vwap, o.params.Pullback)
	if !res.Valid {
		return nil
	}

	dir := c.Breakout.Direction
	atr := c.Range.ATR

	var price decimal.Decimal
	if dir == breakout.Long {
		price = decimal.NewFromFloat(res.ReferenceLevel).Mul(decimal.NewFromFloat(0.998))
	} else {
		price = decimal.NewFromFloat(res.ReferenceLevel).Mul(decimal.NewFromFloat(1.002))
	}
	priceF, _ := price.Float64()
	stopDistF := math.Max(atr*0.4, priceF*0.005)
	stopDist := decimal.NewFromFloat(stopDistF)

	var sl, tp decimal.Decimal
	rr := decimal.NewFromFloat(o.params.RRRatio)
	if dir == breakout.Long {
		sl = price.Sub(stopDist)
		tp = price.Add(stopDist.Mul(rr))
	} else {
		sl = price.Add(stopDist)
		tp = price.Sub(stopDist.Mul(rr))
	}

	sig := &TradingSignal{
		Symbol:     symbol,
		Direction:  dir,
		OrderType:  Limit,
		Price:      price,
		StopLoss:   sl,
		TakeProfit: tp,
		EmittedAt:  now,
		Metadata: map[string]string{
			"pinbar":    boolStr(res.Pinbar),
			"engulfing": boolStr(res.Engulfing),
		},
	}
	if !sig.Valid() {
		o.log.Warnf("%s: discarding invalid signal (stop_distance<=0 or ordering violated), forcing reset", symbol)
		m.ForceReset(now)
		c.Reset()
		return nil
	}
	if !m.Transition(fsm.LimitOrderPlaced, now) {
		return nil
	}
	return sig
}

// sessionVWAP anchors VWAP to 00:00 UTC of the calendar day containing
// the most recent candle (Open Question (b) decision in DESIGN.md):
// deterministic and stable across backtest reruns since it derives
// purely from candle timestamps, never wall-clock run time.
func sessionVWAP(m1 []candle.Candle) float64 {
	if len(m1) == 0 {
		return 0
	}
	last := m1[len(m1)-1]
	dayStart := (last.CloseTime / dayMillis) * dayMillis
	var session []candle.Candle
	for i := len(m1) - 1; i >= 0; i-- {
		if m1[i].CloseTime < dayStart {
			break
		}
		session = append(session, m1[i])
	}
	if len(session) == 0 {
		session = m1
	}
	return indicator.VWAP(session)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
