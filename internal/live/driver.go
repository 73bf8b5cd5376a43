package live

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tradeengine/internal/candle"
	"tradeengine/internal/execution"
	"tradeengine/internal/logger"
	"tradeengine/internal/store"
	"tradeengine/internal/strategy"
)

// Source is the subset of the exchange gateway the live driver polls.
// Satisfied by *binance.Source.
type Source interface {
	FetchCandles(ctx context.Context, symbol string, tf candle.Timeframe, limit int, endTime int64) ([]candle.Candle, error)
}

// Config configures the polling loop.
type Config struct {
	Symbols         []string
	PollInterval    time.Duration // how often every symbol is polled, e.g. 15s
	FetchLimit      int           // candles requested per poll, e.g. 5
	InitialLoadBars int           // candles bootstrapped per timeframe before the poll loop starts, e.g. 300
	Buffer1mSize    int           // sliding window size kept in memory, e.g. 500
	Buffer5mSize    int           // e.g. 500
}

func (c Config) withDefaults() Config {
	out := c
	if out.PollInterval <= 0 {
		out.PollInterval = 15 * time.Second
	}
	if out.FetchLimit <= 0 {
		out.FetchLimit = 5
	}
	if out.InitialLoadBars <= 0 {
		out.InitialLoadBars = 300
	}
	if out.Buffer1mSize <= 0 {
		out.Buffer1mSize = 500
	}
	if out.Buffer5mSize <= 0 {
		out.Buffer5mSize = 500
	}
	return out
}

// Driver polls Source on a fixed interval, maintains a sliding candle
// buffer per symbol/timeframe, feeds every newly-closed 1m bar through
// the execution engine, then asks the orchestrator once per poll for a
// signal on the updated windows.
type Driver struct {
	cfg          Config
	source       Source
	candles      store.CandleStore
	orchestrator *strategy.Orchestrator
	engine       *execution.Engine
	log          *logger.Logger

	buf     *buffer
	stopped atomic.Bool
}

// New constructs a Driver from already-wired components.
func New(cfg Config, source Source, candles store.CandleStore, orchestrator *strategy.Orchestrator, engine *execution.Engine, log *logger.Logger) *Driver {
	return &Driver{
		cfg:          cfg.withDefaults(),
		source:       source,
		candles:      candles,
		orchestrator: orchestrator,
		engine:       engine,
		log:          log,
		buf:          newBuffer(),
	}
}

// Stop requests the polling loop to exit after its current tick. Run
// also returns immediately once ctx is cancelled.
func (d *Driver) Stop() {
	d.stopped.Store(true)
}

// Run polls every configured symbol on cfg.PollInterval until ctx is
// cancelled or Stop is called. A fetch failure for one symbol is
// logged and skipped; it never aborts the loop, since a live driver
// must keep running through transient exchange/network errors.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.bootstrap(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.log.Infof("live: polling %d symbols every %s", len(d.cfg.Symbols), d.cfg.PollInterval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if d.stopped.Load() {
				return nil
			}
			d.pollOnce(ctx)
		}
	}
}

// bootstrap seeds every symbol's sliding buffer with its most recent
// InitialLoadBars candles of each timeframe before the poll loop starts,
// so the first live tick already has a full range/EMA200 lookback
// instead of building one up poll by poll. Seeded bars are persisted but
// never fed through the engine/orchestrator; they are history, not new
// closes to trade against.
func (d *Driver) bootstrap(ctx context.Context) error {
	type fetched struct {
		symbol string
		m1, m5 []candle.Candle
	}
	results := make([]fetched, len(d.cfg.Symbols))

	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range d.cfg.Symbols {
		i, sym := i, sym
		g.Go(func() error {
			m1, err := d.source.FetchCandles(gctx, sym, candle.TF1m, d.cfg.InitialLoadBars, 0)
			if err != nil {
				return fmt.Errorf("live: bootstrap %s 1m: %w", sym, err)
			}
			m5, err := d.source.FetchCandles(gctx, sym, candle.TF5m, d.cfg.InitialLoadBars, 0)
			if err != nil {
				return fmt.Errorf("live: bootstrap %s 5m: %w", sym, err)
			}
			results[i] = fetched{symbol: sym, m1: m1, m5: m5}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	for _, r := range results {
		m1, m5 := closedOnly(r.m1, now), closedOnly(r.m5, now)
		newM1 := d.buf.Put(r.symbol, candle.TF1m, m1, d.cfg.Buffer1mSize)
		newM5 := d.buf.Put(r.symbol, candle.TF5m, m5, d.cfg.Buffer5mSize)
		if len(newM1) > 0 {
			if err := d.candles.SaveCandles(ctx, newM1); err != nil {
				d.log.Warnf("live: persist bootstrap %s 1m failed: %v", r.symbol, err)
			}
		}
		if len(newM5) > 0 {
			if err := d.candles.SaveCandles(ctx, newM5); err != nil {
				d.log.Warnf("live: persist bootstrap %s 5m failed: %v", r.symbol, err)
			}
		}
		d.log.Infof("live: bootstrapped %s with %d 1m / %d 5m candles", r.symbol, len(m1), len(m5))
	}
	return nil
}

// pollOnce fans the per-symbol fetch out via errgroup (mirroring the
// backtest driver's warm-up fan-out), then processes each symbol's
// newly-closed bars sequentially so engine/orchestrator state is never
// touched from more than one goroutine at a time.
func (d *Driver) pollOnce(ctx context.Context) {
	type fetched struct {
		symbol string
		m1, m5 []candle.Candle
	}
	results := make([]fetched, len(d.cfg.Symbols))

	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range d.cfg.Symbols {
		i, sym := i, sym
		g.Go(func() error {
			m1, err := d.source.FetchCandles(gctx, sym, candle.TF1m, d.cfg.FetchLimit, 0)
			if err != nil {
				d.log.Warnf("live: fetch %s 1m failed: %v", sym, err)
				return nil
			}
			m5, err := d.source.FetchCandles(gctx, sym, candle.TF5m, d.cfg.FetchLimit, 0)
			if err != nil {
				d.log.Warnf("live: fetch %s 5m failed: %v", sym, err)
				return nil
			}
			results[i] = fetched{symbol: sym, m1: m1, m5: m5}
			return nil
		})
	}
	_ = g.Wait() // errors are already logged and swallowed per-symbol above

	now := time.Now().UnixMilli()
	for _, r := range results {
		if r.symbol == "" {
			continue
		}
		d.processSymbol(ctx, r.symbol, closedOnly(r.m1, now), closedOnly(r.m5, now))
	}
}

// closedOnly drops any trailing candle whose CloseTime is still in the
// future, i.e. the bar currently forming on the exchange.
func closedOnly(cs []candle.Candle, nowMs int64) []candle.Candle {
	n := len(cs)
	for n > 0 && cs[n-1].CloseTime > nowMs {
		n--
	}
	return cs[:n]
}

func (d *Driver) processSymbol(ctx context.Context, symbol string, m1, m5 []candle.Candle) {
	newM5 := d.buf.Put(symbol, candle.TF5m, m5, d.cfg.Buffer5mSize)
	if len(newM5) > 0 {
		if err := d.candles.SaveCandles(ctx, newM5); err != nil {
			d.log.Warnf("live: persist %s 5m failed: %v", symbol, err)
		}
	}

	newM1 := d.buf.Put(symbol, candle.TF1m, m1, d.cfg.Buffer1mSize)
	if len(newM1) == 0 {
		return
	}
	if err := d.candles.SaveCandles(ctx, newM1); err != nil {
		d.log.Warnf("live: persist %s 1m failed: %v", symbol, err)
	}

	m5Window := d.buf.Window(symbol, candle.TF5m)
	for _, closedBar := range newM1 {
		if err := d.engine.OnMarketData(ctx, closedBar); err != nil {
			d.log.Warnf("%s: OnMarketData error: %v", symbol, err)
		}
	}
	m1Window := d.buf.Window(symbol, candle.TF1m)

	sig := d.orchestrator.GenerateSignal(symbol, m5Window, m1Window, now(m1Window))
	if sig == nil {
		return
	}
	if err := d.engine.PlaceOrder(*sig); err != nil {
		d.log.Warnf("%s: order rejected: %v", symbol, err)
	}
}

func now(m1 []candle.Candle) int64 {
	if len(m1) == 0 {
		return time.Now().UnixMilli()
	}
	return m1[len(m1)-1].CloseTime
}
