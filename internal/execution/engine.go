package execution

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"tradeengine/internal/breakout"
	"tradeengine/internal/candle"
	"tradeengine/internal/logger"
	"tradeengine/internal/store"
	"tradeengine/internal/strategy"
	"tradeengine/internal/trade"
)

// PortfolioSink is the slice of the Portfolio Manager the execution
// engine needs: the kill switch gate and the two balance-mutating side
// effects of opening/closing a position.
type PortfolioSink interface {
	CanTrade() bool
	Balance() decimal.Decimal
	DeductFee(amount decimal.Decimal)
	ApplyTradeResult(netPnL decimal.Decimal, at int64)
	Tick(now int64)
}

// Engine is the sole mutator of pending orders and open positions. One
// Engine instance serves every symbol; per-symbol state never crosses.
type Engine struct {
	mu        sync.Mutex
	params    Params
	trades    store.TradeStore
	portfolio PortfolioSink
	log       *logger.Logger

	symbols map[string]*symbolState
}

// New constructs an Engine.
func New(params Params, trades store.TradeStore, portfolio PortfolioSink, log *logger.Logger) *Engine {
	return &Engine{
		params:    params,
		trades:    trades,
		portfolio: portfolio,
		log:       log,
		symbols:   make(map[string]*symbolState),
	}
}

// UpdateParams swaps in new sizing/fee/leverage parameters. A pending
// order keeps the size computed when it was placed; fees, slippage, the
// limit-order timeout and liquidation levels are read from the current
// parameters whenever an order fills or a position is managed or closed.
func (e *Engine) UpdateParams(params Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = params
}

func (e *Engine) stateFor(symbol string) *symbolState {
	s, ok := e.symbols[symbol]
	if !ok {
		s = &symbolState{}
		e.symbols[symbol] = s
	}
	return s
}

// PlaceOrder enqueues a freshly emitted TradingSignal. Rejections are
// returned to the caller (the driver logs and discards them); the
// orchestrator's FSM state is never rolled back on rejection — the
// signal is simply dropped, matching "at most one signal per tick".
func (e *Engine) PlaceOrder(sig strategy.TradingSignal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.portfolio.CanTrade() {
		return ErrKillSwitchActive
	}
	s := e.stateFor(sig.Symbol)
	if s.position != nil {
		return ErrPositionExists
	}
	if s.pendingLimit != nil || s.pendingMarket != nil {
		return ErrPendingOrderExists
	}

	balance := e.portfolio.Balance()
	riskAmount := balance.Mul(decimal.NewFromFloat(e.params.RiskPercentPerTrade / 100))
	size := riskAmount.Div(sig.StopDistance())

	order := &PendingOrder{Signal: sig, Size: size, EnqueuedAt: sig.EmittedAt}
	switch sig.OrderType {
	case strategy.Market:
		s.pendingMarket = order
	default:
		s.pendingLimit = order
	}
	e.log.Infof("%s: order enqueued %s %s size=%s", sig.Symbol, sig.OrderType, sig.Direction, size.String())
	return nil
}

// Snapshot is a read-only view of one symbol's current order/position
// state, exposed for the monitoring HTTP surface. It is a copy: callers
// never get a pointer into Engine's own state.
type Snapshot struct {
	Symbol        string
	PendingLimit  *PendingOrder
	PendingMarket *PendingOrder
	Position      *ActivePosition
}

// Snapshot returns symbol's current state. ok is false if the Engine
// holds no state for symbol: it has seen no candle and no order,
// cancel or force-close call for it.
func (e *Engine) Snapshot(symbol string) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.symbols[symbol]
	if !ok {
		return Snapshot{}, false
	}
	out := Snapshot{Symbol: symbol}
	if s.pendingLimit != nil {
		cp := *s.pendingLimit
		out.PendingLimit = &cp
	}
	if s.pendingMarket != nil {
		cp := *s.pendingMarket
		out.PendingMarket = &cp
	}
	if s.position != nil {
		cp := *s.position
		out.Position = &cp
	}
	return out, true
}

// Positions returns a Snapshot for every symbol currently holding an
// open position.
func (e *Engine) Positions() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Snapshot, 0)
	for symbol, s := range e.symbols {
		if s.position == nil {
			continue
		}
		cp := *s.position
		out = append(out, Snapshot{Symbol: symbol, Position: &cp})
	}
	return out
}

// CancelOrder drops any pending order for symbol without filling it.
func (e *Engine) CancelOrder(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stateFor(symbol)
	s.pendingLimit = nil
	s.pendingMarket = nil
}

// ForceClosePosition closes symbol's open position, if any, at its last
// known candle's close, tagged ExitForced.
func (e *Engine) ForceClosePosition(ctx context.Context, symbol string, now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stateFor(symbol)
	if s.position == nil || s.lastCandle == nil {
		return nil
	}
	return e.closePosition(ctx, s, decimal.NewFromFloat(s.lastCandle.Close), now, trade.ExitForced)
}

// OnMarketData is the single entry point driving order fills and
// position management; it must be called once per closed candle, per
// symbol, strictly in candle order. Within a call the order is fixed:
// market fills, then limit fills, then position management.
func (e *Engine) OnMarketData(ctx context.Context, c candle.Candle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Runs every tick regardless of whether a trade closes, so a UTC-day
	// rollover is never stuck behind a tripped kill switch blocking every
	// new order (and therefore every close).
	e.portfolio.Tick(c.CloseTime)

	s := e.stateFor(c.Symbol)
	defer func() { s.lastCandle = &c }()

	if s.pendingMarket != nil && c.OpenTime > s.pendingMarket.EnqueuedAt {
		if err := e.fillMarket(ctx, c.Symbol, s, c); err != nil {
			return err
		}
	}

	if s.pendingLimit != nil {
		if err := e.progressLimit(ctx, c.Symbol, s, c); err != nil {
			return err
		}
	}

	if s.position != nil && c.OpenTime > s.position.EntryTime {
		if err := e.managePosition(ctx, c.Symbol, s, c); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) progressLimit(ctx context.Context, symbol string, s *symbolState, c candle.Candle) error {
	order := s.pendingLimit
	elapsedMin := (c.CloseTime - order.EnqueuedAt) / 60000
	if elapsedMin > e.params.LimitOrderTimeoutMinutes {
		e.log.Infof("%s: limit order expired after %dm, cancelling", symbol, elapsedMin)
		s.pendingLimit = nil
		return nil
	}
	if c.OpenTime <= order.EnqueuedAt {
		return nil // one-bar delay: cannot fill on the bar it was placed on
	}

	limitF, _ := order.Signal.Price.Float64()
	var touched bool
	switch order.Signal.Direction {
	case breakout.Long:
		touched = c.Low <= limitF
	case breakout.Short:
		touched = c.High >= limitF
	}
	if !touched {
		return nil
	}
	return e.fillLimit(ctx, symbol, s, c)
}

// fillMarket fills at the candle's open plus adverse slippage.
func (e *Engine) fillMarket(ctx context.Context, symbol string, s *symbolState, c candle.Candle) error {
	order := s.pendingMarket
	s.pendingMarket = nil

	entry := decimal.NewFromFloat(c.Open)
	entry = applySlippage(entry, order.Signal.Direction, e.params.Slippage, true)
	return e.openPosition(ctx, symbol, s, order, entry, c.OpenTime, e.params.TradingFeeTaker)
}

// fillLimit fills at the signal's limit price plus half slippage.
func (e *Engine) fillLimit(ctx context.Context, symbol string, s *symbolState, c candle.Candle) error {
	order := s.pendingLimit
	s.pendingLimit = nil

	entry := applySlippage(order.Signal.Price, order.Signal.Direction, e.params.Slippage/2, true)
	return e.openPosition(ctx, symbol, s, order, entry, c.OpenTime, e.params.TradingFeeTaker)
}

func (e *Engine) openPosition(ctx context.Context, symbol string, s *symbolState, order *PendingOrder, entry decimal.Decimal, entryTime int64, feeRate float64) error {
	fee := entry.Mul(order.Size).Mul(decimal.NewFromFloat(feeRate))

	rec := trade.Trade{
		Symbol:     symbol,
		Direction:  order.Signal.Direction,
		EntryTime:  entryTime,
		EntryPrice: entry,
		Size:       order.Size,
		StopLoss:   order.Signal.StopLoss,
		TakeProfit: order.Signal.TakeProfit,
		Status:     trade.StatusOpen,
		Metadata:   order.Signal.Metadata,
	}
	id, err := e.trades.SaveTrade(ctx, rec)
	if err != nil {
		return err
	}

	e.portfolio.DeductFee(fee)
	s.position = &ActivePosition{
		TradeID:    id,
		Symbol:     symbol,
		Direction:  order.Signal.Direction,
		EntryPrice: entry,
		Size:       order.Size,
		StopLoss:   order.Signal.StopLoss,
		TakeProfit: order.Signal.TakeProfit,
		EntryTime:  entryTime,
		EntryFee:   fee,
	}
	e.log.Infof("%s: position opened %s entry=%s size=%s fee=%s", symbol, order.Signal.Direction, entry.String(), order.Size.String(), fee.String())
	return nil
}

// managePosition checks liquidation, then stop-loss, then take-profit,
// in that strict order of precedence.
func (e *Engine) managePosition(ctx context.Context, symbol string, s *symbolState, c candle.Candle) error {
	pos := s.position
	liqLevel := liquidationPrice(pos.EntryPrice, pos.Direction, e.params.Leverage, e.params.MaintenanceMargin)

	switch pos.Direction {
	case breakout.Long:
		if c.Low <= mustFloat(liqLevel) {
			return e.closePosition(ctx, s, liqLevel, c.CloseTime, trade.ExitLiquidated)
		}
		if c.Low <= mustFloat(pos.StopLoss) {
			exit := applySlippage(pos.StopLoss, pos.Direction, e.params.Slippage, false)
			return e.closePosition(ctx, s, exit, c.CloseTime, trade.ExitStopLoss)
		}
		if c.High >= mustFloat(pos.TakeProfit) {
			exit := applySlippage(pos.TakeProfit, pos.Direction, e.params.Slippage, false)
			return e.closePosition(ctx, s, exit, c.CloseTime, trade.ExitTakeProfit)
		}
	case breakout.Short:
		if c.High >= mustFloat(liqLevel) {
			return e.closePosition(ctx, s, liqLevel, c.CloseTime, trade.ExitLiquidated)
		}
		if c.High >= mustFloat(pos.StopLoss) {
			exit := applySlippage(pos.StopLoss, pos.Direction, e.params.Slippage, false)
			return e.closePosition(ctx, s, exit, c.CloseTime, trade.ExitStopLoss)
		}
		if c.Low <= mustFloat(pos.TakeProfit) {
			exit := applySlippage(pos.TakeProfit, pos.Direction, e.params.Slippage, false)
			return e.closePosition(ctx, s, exit, c.CloseTime, trade.ExitTakeProfit)
		}
	}
	return nil
}

func (e *Engine) closePosition(ctx context.Context, s *symbolState, exit decimal.Decimal, at int64, reason trade.ExitReason) error {
	pos := s.position

	feeRate := e.params.TradingFeeTaker
	if reason == trade.ExitTakeProfit {
		feeRate = e.params.TradingFeeMaker
	}
	exitFee := exit.Mul(pos.Size).Mul(decimal.NewFromFloat(feeRate))

	sign := decimal.NewFromInt(1)
	if pos.Direction == breakout.Short {
		sign = decimal.NewFromInt(-1)
	}
	gross := exit.Sub(pos.EntryPrice).Mul(pos.Size).Mul(sign)
	net := gross.Sub(pos.EntryFee).Sub(exitFee)

	exitF, _ := exit.Float64()
	if _, err := e.trades.CloseTrade(ctx, pos.TradeID, exitF, at, reason); err != nil {
		return err
	}
	// net already has both EntryFee and exitFee subtracted; ApplyTradeResult
	// carries the whole fee-adjusted delta into balance. Do not also
	// DeductFee(exitFee) here, or the exit fee is charged twice.
	e.portfolio.ApplyTradeResult(net, at)

	e.log.Infof("%s: position closed reason=%s exit=%s net_pnl=%s", pos.Symbol, reason, exit.String(), net.String())
	s.position = nil
	return nil
}

// applySlippage always worsens the fill for the trader. Opening a LONG
// or closing a SHORT is a buy, filled higher; closing a LONG or opening
// a SHORT is a sell, filled lower.
func applySlippage(price decimal.Decimal, dir breakout.Direction, rate float64, entering bool) decimal.Decimal {
	if rate == 0 {
		return price
	}
	buySide := (dir == breakout.Long && entering) || (dir == breakout.Short && !entering)
	if buySide {
		return price.Mul(decimal.NewFromFloat(1 + rate))
	}
	return price.Mul(decimal.NewFromFloat(1 - rate))
}

// liquidationPrice computes entry*(1 - 1/leverage + maintenance) for
// LONG, entry*(1 + 1/leverage - maintenance) for SHORT.
func liquidationPrice(entry decimal.Decimal, dir breakout.Direction, leverage, maintenance float64) decimal.Decimal {
	inv := decimal.NewFromFloat(1 / leverage)
	m := decimal.NewFromFloat(maintenance)
	if dir == breakout.Long {
		return entry.Mul(decimal.NewFromInt(1).Sub(inv).Add(m))
	}
	return entry.Mul(decimal.NewFromInt(1).Add(inv).Sub(m))
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
