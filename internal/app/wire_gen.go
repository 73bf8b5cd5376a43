//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject

package app

import (
	"context"
	"fmt"

	"tradeengine/internal/config"
	"tradeengine/internal/execution"
	"tradeengine/internal/gateway/binance"
	"tradeengine/internal/logger"
	"tradeengine/internal/portfolio"
	"tradeengine/internal/store"
	"tradeengine/internal/store/clickhousestore"
	"tradeengine/internal/store/sqlstore"
	"tradeengine/internal/strategy"
	transporthttp "tradeengine/internal/transport/http"
)

// Build wires every component in startup order: stores, then the
// exchange gateway, then portfolio, execution and the strategy
// orchestrator, finally the monitoring HTTP server for live mode. It
// is the hand-written equivalent of a wire-generated injector; no
// //go:build wireinject file exists in this tree, so this is the only
// constructor path actually compiled.
func Build(ctx context.Context, cfgPath string, cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	candles, trades, closeFn, err := buildStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	gw, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Gateway.RESTBaseURL,
		HTTPTimeout:  cfg.Gateway.HTTPTimeoutDuration(),
		ProxyEnabled: cfg.Gateway.ProxyEnabled,
		RESTProxyURL: cfg.Gateway.RESTProxyURL,
		APIKey:       cfg.Gateway.APIKey,
		APISecret:    cfg.Gateway.APISecret,
	}, log)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("app: build gateway: %w", err)
	}

	portfolioMgr := portfolio.New(cfg.ToPortfolioParams(), log)
	engine := execution.New(cfg.ToExecutionParams(), trades, portfolioMgr, log)
	orchestrator := strategy.New(cfg.ToStrategyParams(), log)

	// Built unconditionally; RunBacktest never starts it, since a
	// finished historical run has no live state worth polling.
	httpServer := transporthttp.New(transporthttp.Config{
		Addr:      cfg.HTTP.Addr,
		Portfolio: portfolioMgr,
		Engine:    engine,
		Symbols:   cfg.Symbols,
		Log:       log,
	})

	return &App{
		cfg:          cfg,
		cfgPath:      cfgPath,
		log:          log,
		candles:      candles,
		trades:       trades,
		closeFn:      closeFn,
		gateway:      gw,
		orchestrator: orchestrator,
		engine:       engine,
		portfolioMgr: portfolioMgr,
		httpServer:   httpServer,
	}, nil
}

// buildStores opens the trade database (always SQLite) and the candle
// store (SQLite or ClickHouse, per cfg.Store.Driver), returning a
// closer that releases whichever handles were opened.
func buildStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.CandleStore, store.TradeStore, func() error, error) {
	sqlDB, err := sqlstore.Open(cfg.Store.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("app: open sqlite store: %w", err)
	}
	trades := sqlDB.Trades()

	switch cfg.Store.Driver {
	case "clickhouse":
		ch, err := clickhousestore.New(ctx, clickhousestore.Config{
			Addr:     cfg.Store.ClickHouseAddr,
			Database: cfg.Store.ClickHouseDatabase,
			Username: cfg.Store.ClickHouseUsername,
			Password: cfg.Store.ClickHousePassword,
		})
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, nil, fmt.Errorf("app: open clickhouse store: %w", err)
		}
		log.Infof("app: candles backed by clickhouse at %v", cfg.Store.ClickHouseAddr)
		closeFn := func() error {
			chErr := ch.Close()
			sqlErr := sqlDB.Close()
			if chErr != nil {
				return chErr
			}
			return sqlErr
		}
		return ch, trades, closeFn, nil
	default:
		log.Infof("app: candles and trades backed by sqlite at %s", cfg.Store.DSN)
		return sqlDB.Candles(), trades, sqlDB.Close, nil
	}
}
