// Package backtest drives the strategy against already-archived candle
// history with a single sequential clock: warm up every symbol's
// windows, then advance one 1m bar at a time, windowing each timeframe
// to exclude the bar currently forming.
package backtest

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"tradeengine/internal/candle"
	"tradeengine/internal/execution"
	"tradeengine/internal/logger"
	"tradeengine/internal/portfolio"
	"tradeengine/internal/store"
	"tradeengine/internal/strategy"
)

// minCoverageRatio is the fraction of the expected candle count that
// must already be archived before warm-up skips downloading the gap.
const minCoverageRatio = 0.95

// maxGapFillBatch mirrors the exchange gateway's per-call candle limit.
const maxGapFillBatch = 1500

// Source is the subset of the exchange gateway the backtest driver can
// use to back-fill gaps in archived history before a run starts.
// Satisfied by *binance.Source; nil disables gap-filling entirely.
type Source interface {
	FetchCandles(ctx context.Context, symbol string, tf candle.Timeframe, limit int, endTime int64) ([]candle.Candle, error)
}

// Config describes one backtest run.
type Config struct {
	Symbols  []string
	StartTS  int64 // inclusive, epoch ms
	EndTS    int64 // inclusive, epoch ms

	// Warmup5mBars/Warmup1mBars is how far before StartTS each window is
	// seeded so the first evaluated tick already has a full range/EMA200
	// lookback.
	Warmup5mBars int
	Warmup1mBars int
}

func (c Config) withDefaults() Config {
	out := c
	if out.Warmup5mBars <= 0 {
		out.Warmup5mBars = 300 // 300*5m = 25h, comfortably covers EMA200
	}
	if out.Warmup1mBars <= 0 {
		out.Warmup1mBars = 180
	}
	return out
}

// symbolWindow holds one symbol's full fetched candle series plus the
// cursor of how many 1m bars have been consumed so far.
type symbolWindow struct {
	symbol string
	m5     []candle.Candle
	m1     []candle.Candle
	cursor1m int
	cursor5m int
}

// Driver runs a backtest to completion against a CandleStore, feeding
// every closed bar through the orchestrator and execution engine in
// strict order: 5m housekeeping happens inside GenerateSignal itself,
// so the driver's only job is to keep 1m as the tick source and hand
// each symbol a correctly-windowed slice of both timeframes.
type Driver struct {
	candles      store.CandleStore
	source       Source
	orchestrator *strategy.Orchestrator
	engine       *execution.Engine
	portfolioMgr *portfolio.Manager
	log          *logger.Logger
}

// New constructs a Driver from already-wired components. source may be
// nil, in which case warm-up trusts the candle store's existing
// coverage and never reaches out to the exchange.
func New(candles store.CandleStore, source Source, orchestrator *strategy.Orchestrator, engine *execution.Engine, portfolioMgr *portfolio.Manager, log *logger.Logger) *Driver {
	return &Driver{candles: candles, source: source, orchestrator: orchestrator, engine: engine, portfolioMgr: portfolioMgr, log: log}
}

// Run executes the backtest end to end and returns the final equity
// curve recorded by the portfolio manager.
func (d *Driver) Run(ctx context.Context, cfg Config) ([]portfolio.EquityPoint, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("backtest: no symbols configured")
	}

	windows, err := d.warmup(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ticks := globalTickSet(windows)
	d.log.Infof("backtest: %d symbols, %d ticks, range [%d,%d]", len(windows), len(ticks), cfg.StartTS, cfg.EndTS)

	for _, now := range ticks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if now < cfg.StartTS {
			continue // warm-up bars only seed the windows
		}
		for _, w := range windows {
			d.stepSymbol(ctx, w, now)
		}
	}

	for _, w := range windows {
		if err := d.engine.ForceClosePosition(ctx, w.symbol, cfg.EndTS); err != nil {
			d.log.Warnf("backtest: force-close %s failed: %v", w.symbol, err)
		}
	}

	return d.portfolioMgr.EquityCurve(), nil
}

// warmup ensures the candle store has at least minCoverageRatio of the
// expected candle count over each symbol's window (downloading and
// persisting the gap through Source when it doesn't), then fetches
// each symbol's candle windows in parallel via errgroup, strictly
// before the sequential clock starts. Warm-up is the only place
// fetches run concurrently; the clock itself is single-threaded.
func (d *Driver) warmup(ctx context.Context, cfg Config) ([]*symbolWindow, error) {
	windows := make([]*symbolWindow, len(cfg.Symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range cfg.Symbols {
		i, sym := i, sym
		g.Go(func() error {
			m5Start := cfg.StartTS - int64(cfg.Warmup5mBars)*5*60*1000
			m1Start := cfg.StartTS - int64(cfg.Warmup1mBars)*60*1000

			if err := d.ensureCoverage(gctx, sym, candle.TF5m, m5Start, cfg.EndTS); err != nil {
				return err
			}
			if err := d.ensureCoverage(gctx, sym, candle.TF1m, m1Start, cfg.EndTS); err != nil {
				return err
			}

			m5, err := d.candles.GetCandles(gctx, sym, candle.TF5m, m5Start, cfg.EndTS)
			if err != nil {
				return fmt.Errorf("backtest: warmup %s 5m: %w", sym, err)
			}
			m1, err := d.candles.GetCandles(gctx, sym, candle.TF1m, m1Start, cfg.EndTS)
			if err != nil {
				return fmt.Errorf("backtest: warmup %s 1m: %w", sym, err)
			}
			if len(m1) == 0 {
				return fmt.Errorf("backtest: no 1m candles for %s in range", sym)
			}
			windows[i] = &symbolWindow{symbol: sym, m5: m5, m1: m1}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return windows, nil
}

// ensureCoverage downloads and persists the gap between what the
// candle store already has and [t0, t1] whenever stored coverage falls
// below minCoverageRatio of the expected candle count, resuming from
// the most recently stored candle rather than re-downloading the whole
// window. A nil Source leaves the store's existing coverage untouched.
func (d *Driver) ensureCoverage(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) error {
	if d.source == nil || t1 <= t0 {
		return nil
	}
	expected := expectedCandleCount(tf, t0, t1)
	if expected <= 0 {
		return nil
	}
	got, err := d.candles.CountInRange(ctx, symbol, tf, t0, t1)
	if err != nil {
		return fmt.Errorf("backtest: coverage check %s %s: %w", symbol, tf, err)
	}
	if float64(got)/float64(expected) >= minCoverageRatio {
		return nil
	}

	resumeFrom := t0
	if last, err := d.candles.GetLastCandle(ctx, symbol, tf); err == nil && last != nil && last.CloseTime >= t0 && last.CloseTime < t1 {
		resumeFrom = last.CloseTime
	}

	d.log.Infof("backtest: %s %s coverage %d/%d below %.0f%%, downloading gap from %d", symbol, tf, got, expected, minCoverageRatio*100, resumeFrom)
	return d.fillGap(ctx, symbol, tf, resumeFrom, t1)
}

// fillGap pages backward from t1 in maxGapFillBatch chunks until the
// downloaded history reaches back past resumeFrom, persisting each
// batch as it arrives.
func (d *Driver) fillGap(ctx context.Context, symbol string, tf candle.Timeframe, resumeFrom, t1 int64) error {
	cursor := t1
	for cursor > resumeFrom {
		batch, err := d.source.FetchCandles(ctx, symbol, tf, maxGapFillBatch, cursor)
		if err != nil {
			return fmt.Errorf("backtest: gap-fill %s %s: %w", symbol, tf, err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := d.candles.SaveCandles(ctx, batch); err != nil {
			return fmt.Errorf("backtest: persist gap-fill %s %s: %w", symbol, tf, err)
		}
		oldest := batch[0].OpenTime
		if oldest >= cursor {
			return nil // no progress; avoid spinning
		}
		cursor = oldest - 1
	}
	return nil
}

// expectedCandleCount estimates how many candles a fully covered
// [t0, t1] window should contain for tf.
func expectedCandleCount(tf candle.Timeframe, t0, t1 int64) int {
	var stepMillis int64
	switch tf {
	case candle.TF1m:
		stepMillis = 60 * 1000
	case candle.TF5m:
		stepMillis = 5 * 60 * 1000
	default:
		return 0
	}
	if t1 <= t0 {
		return 0
	}
	return int((t1 - t0) / stepMillis)
}

// globalTickSet returns the sorted, de-duplicated set of every 1m
// CloseTime across every symbol's window, warm-up bars included (Run
// skips the ticks before cfg.StartTS). This is the single global clock
// every symbol advances against.
func globalTickSet(windows []*symbolWindow) []int64 {
	seen := make(map[int64]struct{})
	for _, w := range windows {
		for _, c := range w.m1 {
			seen[c.CloseTime] = struct{}{}
		}
	}
	out := make([]int64, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// stepSymbol advances one symbol past `now` if it has a bar closing at
// exactly `now`, feeding the engine first and the orchestrator second,
// each with anti-look-ahead windowing (the bar at the cursor itself is
// included since it has just closed; nothing beyond it is visible).
func (d *Driver) stepSymbol(ctx context.Context, w *symbolWindow, now int64) {
	for w.cursor1m < len(w.m1) && w.m1[w.cursor1m].CloseTime < now {
		w.cursor1m++
	}
	if w.cursor1m >= len(w.m1) || w.m1[w.cursor1m].CloseTime != now {
		return // this symbol has no bar closing at this tick
	}
	current := w.m1[w.cursor1m]
	w.cursor1m++

	if err := d.engine.OnMarketData(ctx, current); err != nil {
		d.log.Warnf("%s: OnMarketData error: %v", w.symbol, err)
	}

	for w.cursor5m < len(w.m5) && w.m5[w.cursor5m].CloseTime <= now {
		w.cursor5m++
	}
	m5Window := w.m5[:w.cursor5m]
	m1Window := w.m1[:w.cursor1m]

	sig := d.orchestrator.GenerateSignal(w.symbol, m5Window, m1Window, now)
	if sig == nil {
		return
	}
	if err := d.engine.PlaceOrder(*sig); err != nil {
		d.log.Warnf("%s: order rejected: %v", w.symbol, err)
	}
}
