// Package app assembles every component into a runnable backtest or
// live application: a thin App type holding the wired graph, with
// RunBacktest/RunLive as the entry points once Build has constructed it.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tradeengine/internal/backtest"
	"tradeengine/internal/backtest/report"
	"tradeengine/internal/config"
	"tradeengine/internal/execution"
	"tradeengine/internal/live"
	"tradeengine/internal/logger"
	"tradeengine/internal/portfolio"
	"tradeengine/internal/store"
	"tradeengine/internal/strategy"
	transporthttp "tradeengine/internal/transport/http"
)

// defaultBacktestSymbolCount/defaultBacktestDays are the CLI's positional
// overrides applied when `backtest [symbols] [days]` omits either
// argument: the first 3 configured symbols, over the trailing 7
// days ending now.
const (
	defaultBacktestSymbolCount = 3
	defaultBacktestDays        = 7
	dayMillis                  = 24 * 60 * 60 * 1000
)

// App holds every wired component. Build (wire_gen.go) is the only
// constructor; callers never assemble one field at a time.
type App struct {
	cfg     *config.Config
	cfgPath string
	log     *logger.Logger

	candles store.CandleStore
	trades  store.TradeStore
	closeFn func() error

	gateway      live.Source
	orchestrator *strategy.Orchestrator
	engine       *execution.Engine
	portfolioMgr *portfolio.Manager
	httpServer   *transporthttp.Server
}

// onConfigChange applies a reloaded config's risk/execution/strategy
// tunables to the running pipeline. Store, gateway and HTTP addr
// changes require a restart and are intentionally not re-applied here.
func (a *App) onConfigChange(cfg *config.Config, err error) {
	if err != nil {
		a.log.Infof("app: config reload failed, keeping previous settings: %v", err)
		return
	}
	a.cfg = cfg
	a.portfolioMgr.UpdateParams(cfg.ToPortfolioParams())
	a.engine.UpdateParams(cfg.ToExecutionParams())
	a.orchestrator.UpdateParams(cfg.ToStrategyParams())
	a.log.Infof("app: config reloaded")
}

// Close releases every resource Build opened (database handles, etc).
func (a *App) Close() error {
	if a == nil || a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

// RunBacktest drives a historical run end to end and writes the report
// artifacts (equity chart HTML, trade ledger CSV) under
// cfg.Backtest.ReportDir. symbolsOverride/daysOverride are the CLI's
// `backtest [symbols] [days]` positional arguments; an empty/zero value
// falls back to defaultBacktestSymbolCount configured symbols and
// defaultBacktestDays trailing days ending now, unless the config file
// names an explicit start_time/end_time window.
func (a *App) RunBacktest(ctx context.Context, symbolsOverride []string, daysOverride int) error {
	symbols := symbolsOverride
	if len(symbols) == 0 {
		symbols = defaultBacktestSymbols(a.cfg.Symbols)
	}

	startTS, endTS, err := a.backtestWindow(daysOverride)
	if err != nil {
		return err
	}

	driver := backtest.New(a.candles, a.gateway, a.orchestrator, a.engine, a.portfolioMgr, a.log)
	curve, err := driver.Run(ctx, backtest.Config{
		Symbols:      symbols,
		StartTS:      startTS,
		EndTS:        endTS,
		Warmup5mBars: a.cfg.Backtest.Warmup5mBars,
		Warmup1mBars: a.cfg.Backtest.Warmup1mBars,
	})
	if err != nil {
		return fmt.Errorf("app: backtest run: %w", err)
	}
	return a.writeReports(ctx, symbols, curve)
}

// backtestWindow resolves the backtest time range: an explicit CLI
// days override always wins; otherwise an explicit config-file
// start_time/end_time window is honored; otherwise defaultBacktestDays
// trailing days ending now.
func (a *App) backtestWindow(daysOverride int) (startTS, endTS int64, err error) {
	if daysOverride > 0 {
		end := time.Now().UnixMilli()
		return end - int64(daysOverride)*dayMillis, end, nil
	}
	if a.cfg.Backtest.StartTime != "" && a.cfg.Backtest.EndTime != "" {
		return a.cfg.Backtest.Window()
	}
	end := time.Now().UnixMilli()
	return end - int64(defaultBacktestDays)*dayMillis, end, nil
}

// defaultBacktestSymbols returns the first defaultBacktestSymbolCount
// configured symbols, or all of them if fewer are configured.
func defaultBacktestSymbols(configured []string) []string {
	n := defaultBacktestSymbolCount
	if len(configured) < n {
		n = len(configured)
	}
	return configured[:n]
}

func (a *App) writeReports(ctx context.Context, symbols []string, curve []portfolio.EquityPoint) error {
	dir := a.cfg.Backtest.ReportDir
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("app: create report dir: %w", err)
	}

	label := "portfolio"
	if len(symbols) == 1 {
		label = symbols[0]
	}

	eqFile, err := os.Create(dir + "/equity.html")
	if err != nil {
		return fmt.Errorf("app: create equity report: %w", err)
	}
	defer eqFile.Close()
	if err := report.EquityChart(curve, label, eqFile); err != nil {
		return fmt.Errorf("app: render equity chart: %w", err)
	}

	for _, symbol := range symbols {
		csvFile, err := os.Create(fmt.Sprintf("%s/trades_%s.csv", dir, symbol))
		if err != nil {
			return fmt.Errorf("app: create trade ledger for %s: %w", symbol, err)
		}
		err = report.TradeLedgerCSV(ctx, a.trades, symbol, csvFile)
		csvFile.Close()
		if err != nil {
			return fmt.Errorf("app: render trade ledger for %s: %w", symbol, err)
		}
	}
	a.log.Infof("app: backtest report written to %s", dir)
	return nil
}

// RunLive starts the monitoring HTTP server, a config file watcher,
// and the polling live driver, and runs until ctx is cancelled or any
// of them fails.
func (a *App) RunLive(ctx context.Context) error {
	if a.cfgPath != "" {
		if err := config.Watch(a.cfgPath, a.onConfigChange); err != nil {
			a.log.Infof("app: config hot-reload disabled: %v", err)
		}
	}

	driver := live.New(live.Config{
		Symbols:         a.cfg.Symbols,
		PollInterval:    a.cfg.Live.PollIntervalDuration(),
		FetchLimit:      a.cfg.Live.FetchLimit,
		InitialLoadBars: a.cfg.Live.InitialLoadBars,
		Buffer1mSize:    a.cfg.Live.Buffer1mSize,
		Buffer5mSize:    a.cfg.Live.Buffer5mSize,
	}, a.gateway, a.candles, a.orchestrator, a.engine, a.log)

	group, gctx := errgroup.WithContext(ctx)
	if a.httpServer != nil {
		group.Go(func() error {
			if err := a.httpServer.Start(gctx); err != nil {
				return fmt.Errorf("app: monitoring http server: %w", err)
			}
			return nil
		})
	}
	group.Go(func() error {
		return driver.Run(gctx)
	})
	return group.Wait()
}
