package config

import (
	"tradeengine/internal/breakout"
	"tradeengine/internal/execution"
	"tradeengine/internal/portfolio"
	"tradeengine/internal/pullback"
	"tradeengine/internal/rangedetect"
	"tradeengine/internal/regime"
	"tradeengine/internal/strategy"
)

// defaultExec/defaultPortfolio/defaultStrategy are the recommended
// defaults each pipeline package already carries as its own
// DefaultParams(); applyDefaults fills unset config fields from these
// instead of repeating the numbers here.
var (
	defaultExec      = execution.DefaultParams()
	defaultPortfolio = portfolio.DefaultParams()
	defaultStrategy  = strategy.DefaultParams()
)

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppLogPath  = "/data/logs/tradeengine-live.log"

	defaultStoreDriver = "sqlite"
	defaultStoreDSN    = "tradeengine.db"

	defaultGatewayREST      = "https://fapi.binance.com"
	defaultGatewayTimeoutS  = 10

	defaultHTTPAddr = ":8080"

	defaultLivePollSeconds     = 15
	defaultLiveFetchLimit      = 5
	defaultLiveInitialLoadBars = 300
	defaultLiveBufferSize      = 500

	defaultBacktestWarmup5m  = 300
	defaultBacktestWarmup1m  = 180
	defaultBacktestReportDir = "reports"
)

// applyDefaults fills every sub-config's unset fields by delegating to
// each sub-struct's own applyDefaults.
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Gateway.applyDefaults(keys)
	c.HTTP.applyDefaults(keys)
	c.Live.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Execution.applyDefaults(keys)
	c.Range.applyDefaults(keys)
	c.Breakout.applyDefaults(keys)
	c.Pullback.applyDefaults(keys)
	c.Regime.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.driver", &s.Driver, defaultStoreDriver),
		stringFieldDefault("store.dsn", &s.DSN, defaultStoreDSN),
	)
}

func (g *GatewayConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("gateway.rest_base_url", &g.RESTBaseURL, defaultGatewayREST),
		fieldDefault{
			key:   "gateway.http_timeout_seconds",
			need:  func() bool { return g.HTTPTimeoutSeconds <= 0 },
			apply: func() { g.HTTPTimeoutSeconds = defaultGatewayTimeoutS },
		},
	)
}

func (h *HTTPConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("http.addr", &h.Addr, defaultHTTPAddr),
	)
}

func (l *LiveConfig) applyDefaults(keys keySet) {
	if l == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "live.poll_interval_seconds",
			need:  func() bool { return l.PollIntervalSeconds <= 0 },
			apply: func() { l.PollIntervalSeconds = defaultLivePollSeconds },
		},
		fieldDefault{
			key:   "live.fetch_limit",
			need:  func() bool { return l.FetchLimit <= 0 },
			apply: func() { l.FetchLimit = defaultLiveFetchLimit },
		},
		fieldDefault{
			key:   "live.initial_load_bars",
			need:  func() bool { return l.InitialLoadBars <= 0 },
			apply: func() { l.InitialLoadBars = defaultLiveInitialLoadBars },
		},
		fieldDefault{
			key:   "live.buffer_1m_size",
			need:  func() bool { return l.Buffer1mSize <= 0 },
			apply: func() { l.Buffer1mSize = defaultLiveBufferSize },
		},
		fieldDefault{
			key:   "live.buffer_5m_size",
			need:  func() bool { return l.Buffer5mSize <= 0 },
			apply: func() { l.Buffer5mSize = defaultLiveBufferSize },
		},
	)
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("backtest.report_dir", &b.ReportDir, defaultBacktestReportDir),
		fieldDefault{
			key:   "backtest.warmup_5m_bars",
			need:  func() bool { return b.Warmup5mBars <= 0 },
			apply: func() { b.Warmup5mBars = defaultBacktestWarmup5m },
		},
		fieldDefault{
			key:   "backtest.warmup_1m_bars",
			need:  func() bool { return b.Warmup1mBars <= 0 },
			apply: func() { b.Warmup1mBars = defaultBacktestWarmup1m },
		},
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "risk.initial_balance",
			need:  func() bool { return r.InitialBalance <= 0 },
			apply: func() { r.InitialBalance = defaultPortfolio.InitialBalance },
		},
		fieldDefault{
			key:   "risk.risk_percent_per_trade",
			need:  func() bool { return r.RiskPercentPerTrade <= 0 },
			apply: func() { r.RiskPercentPerTrade = defaultExec.RiskPercentPerTrade },
		},
		fieldDefault{
			key:   "risk.max_daily_loss_percent",
			need:  func() bool { return r.MaxDailyLossPercent <= 0 },
			apply: func() { r.MaxDailyLossPercent = defaultPortfolio.DailyLossLimitPercent },
		},
		fieldDefault{
			key:   "risk.max_consecutive_losses",
			need:  func() bool { return r.MaxConsecutiveLosses <= 0 },
			apply: func() { r.MaxConsecutiveLosses = defaultPortfolio.ConsecutiveLossLimit },
		},
	)
}

func (e *ExecutionConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "execution.rr_ratio",
			need:  func() bool { return e.RRRatio <= 0 },
			apply: func() { e.RRRatio = defaultStrategy.RRRatio },
		},
		fieldDefault{
			key:   "execution.trading_fee_maker",
			need:  func() bool { return e.TradingFeeMaker <= 0 },
			apply: func() { e.TradingFeeMaker = defaultExec.TradingFeeMaker },
		},
		fieldDefault{
			key:   "execution.trading_fee_taker",
			need:  func() bool { return e.TradingFeeTaker <= 0 },
			apply: func() { e.TradingFeeTaker = defaultExec.TradingFeeTaker },
		},
		fieldDefault{
			key:   "execution.slippage",
			need:  func() bool { return e.Slippage <= 0 },
			apply: func() { e.Slippage = defaultExec.Slippage },
		},
		fieldDefault{
			key:   "execution.leverage",
			need:  func() bool { return e.Leverage <= 0 },
			apply: func() { e.Leverage = defaultExec.Leverage },
		},
		fieldDefault{
			key:   "execution.maintenance_margin",
			need:  func() bool { return e.MaintenanceMargin <= 0 },
			apply: func() { e.MaintenanceMargin = defaultExec.MaintenanceMargin },
		},
		fieldDefault{
			key:   "execution.limit_order_timeout_minutes",
			need:  func() bool { return e.LimitOrderTimeoutMinutes <= 0 },
			apply: func() { e.LimitOrderTimeoutMinutes = defaultExec.LimitOrderTimeoutMinutes },
		},
		fieldDefault{
			key:   "execution.wait_pullback_timeout_min",
			need:  func() bool { return e.WaitPullbackTimeoutMin <= 0 },
			apply: func() { e.WaitPullbackTimeoutMin = defaultStrategy.WaitPullbackTimeoutMin },
		},
	)
}

func (r *RangeConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	def := defaultStrategy.Range
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "range.window",
			need:  func() bool { return r.Window <= 0 },
			apply: func() { r.Window = def.Window },
		},
		fieldDefault{
			key:   "range.min_size_multiplier",
			need:  func() bool { return r.MinSizeMultiplier <= 0 },
			apply: func() { r.MinSizeMultiplier = def.MinSizeMultiplier },
		},
		fieldDefault{
			key:   "range.max_size_multiplier",
			need:  func() bool { return r.MaxSizeMultiplier <= 0 },
			apply: func() { r.MaxSizeMultiplier = def.MaxSizeMultiplier },
		},
		fieldDefault{
			key:   "range.atr_period",
			need:  func() bool { return r.ATRPeriod <= 0 },
			apply: func() { r.ATRPeriod = def.ATRPeriod },
		},
	)
}

func (b *BreakoutConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	def := defaultStrategy.Breakout
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "breakout.atr_multiplier",
			need:  func() bool { return b.ATRMultiplier <= 0 },
			apply: func() { b.ATRMultiplier = def.ATRMultiplier },
		},
		fieldDefault{
			key:   "breakout.min_body_percent",
			need:  func() bool { return b.MinBodyPercent <= 0 },
			apply: func() { b.MinBodyPercent = def.MinBodyPercent },
		},
		fieldDefault{
			key:   "breakout.volume_period",
			need:  func() bool { return b.VolumePeriod <= 0 },
			apply: func() { b.VolumePeriod = def.VolumePeriod },
		},
		fieldDefault{
			key:   "breakout.atr_period",
			need:  func() bool { return b.ATRPeriod <= 0 },
			apply: func() { b.ATRPeriod = def.ATRPeriod },
		},
	)
}

func (p *PullbackConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	def := defaultStrategy.Pullback
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "pullback.max_depth_percent",
			need:  func() bool { return p.MaxDepthPercent <= 0 },
			apply: func() { p.MaxDepthPercent = def.MaxDepthPercent },
		},
		fieldDefault{
			key:   "pullback.price_tolerance_percent",
			need:  func() bool { return p.PriceTolerancePercent <= 0 },
			apply: func() { p.PriceTolerancePercent = def.PriceTolerancePercent },
		},
	)
}

func (r *RegimeConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	def := defaultStrategy.Regime
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "regime.adx_period",
			need:  func() bool { return r.ADXPeriod <= 0 },
			apply: func() { r.ADXPeriod = def.ADXPeriod },
		},
		fieldDefault{
			key:   "regime.adx_min",
			need:  func() bool { return r.ADXMin <= 0 },
			apply: func() { r.ADXMin = def.ADXMin },
		},
		fieldDefault{
			key:   "regime.adx_max",
			need:  func() bool { return r.ADXMax <= 0 },
			apply: func() { r.ADXMax = def.ADXMax },
		},
		fieldDefault{
			key:   "regime.atr_period",
			need:  func() bool { return r.ATRPeriod <= 0 },
			apply: func() { r.ATRPeriod = def.ATRPeriod },
		},
		fieldDefault{
			key:   "regime.vol_min_percent",
			need:  func() bool { return r.VolMinPct <= 0 },
			apply: func() { r.VolMinPct = def.VolMinPct },
		},
		fieldDefault{
			key:   "regime.vol_max_percent",
			need:  func() bool { return r.VolMaxPct <= 0 },
			apply: func() { r.VolMaxPct = def.VolMaxPct },
		},
	)
}

// Helper functions shared by every applyDefaults implementation above.

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && *target == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// regimeParams/rangeParams/breakoutParams/pullbackParams translate a
// decoded config sub-struct into the Params type its package expects,
// used by Config.ToStrategyParams.
func regimeParams(c RegimeConfig) regime.Params {
	return regime.Params{
		ADXPeriod: c.ADXPeriod,
		ADXMin:    c.ADXMin,
		ADXMax:    c.ADXMax,
		ATRPeriod: c.ATRPeriod,
		VolMinPct: c.VolMinPct,
		VolMaxPct: c.VolMaxPct,
	}
}

func rangeParams(c RangeConfig) rangedetect.Params {
	return rangedetect.Params{
		Window:            c.Window,
		MinSizeMultiplier: c.MinSizeMultiplier,
		MaxSizeMultiplier: c.MaxSizeMultiplier,
		ATRPeriod:         c.ATRPeriod,
	}
}

func breakoutParams(c BreakoutConfig) breakout.Params {
	return breakout.Params{
		ATRMultiplier:  c.ATRMultiplier,
		MinBodyPercent: c.MinBodyPercent,
		VolumePeriod:   c.VolumePeriod,
		ATRPeriod:      c.ATRPeriod,
	}
}

func pullbackParams(c PullbackConfig) pullback.Params {
	return pullback.Params{
		MaxDepthPercent:       c.MaxDepthPercent,
		PriceTolerancePercent: c.PriceTolerancePercent,
	}
}
