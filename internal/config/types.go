package config

import (
	"fmt"
	"strings"
	"time"

	"tradeengine/internal/execution"
	"tradeengine/internal/portfolio"
	"tradeengine/internal/strategy"
)

// Config is the full application configuration. Every sub-struct maps
// 1:1 onto a pipeline component's own Params type via a To*Params method
// below, so numbers aren't duplicated by hand between config and code.
type Config struct {
	App      AppConfig      `toml:"app"`
	Store    StoreConfig    `toml:"store"`
	Gateway  GatewayConfig  `toml:"gateway"`
	HTTP     HTTPConfig     `toml:"http"`
	Live     LiveConfig     `toml:"live"`
	Backtest BacktestConfig `toml:"backtest"`

	Symbols []string `toml:"symbols"`

	Risk      RiskConfig      `toml:"risk"`
	Execution ExecutionConfig `toml:"execution"`
	Range     RangeConfig     `toml:"range"`
	Breakout  BreakoutConfig  `toml:"breakout"`
	Pullback  PullbackConfig  `toml:"pullback"`
	Regime    RegimeConfig    `toml:"regime"`
}

// AppConfig carries ambient, non-strategy settings.
type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// StoreConfig selects and configures the persistence backend. Trades
// always live in the SQLite database named by DSN; when Driver is
// "clickhouse", candles are archived there instead and ClickHouseAddr/
// ClickHouseDatabase select the cluster, while DSN still backs trades.
type StoreConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "clickhouse"
	DSN    string `toml:"dsn"`

	ClickHouseAddr     []string `toml:"clickhouse_addr"`
	ClickHouseDatabase string   `toml:"clickhouse_database"`
	ClickHouseUsername string   `toml:"clickhouse_username"`
	ClickHousePassword string   `toml:"clickhouse_password"`
}

// GatewayConfig configures the exchange data-feed/order client.
type GatewayConfig struct {
	RESTBaseURL        string `toml:"rest_base_url"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
	ProxyEnabled       bool   `toml:"proxy_enabled"`
	RESTProxyURL       string `toml:"rest_proxy_url"`
	APIKey             string `toml:"api_key"`
	APISecret          string `toml:"api_secret"`
}

// HTTPTimeoutDuration converts HTTPTimeoutSeconds to a time.Duration
// for binance.Config.
func (g GatewayConfig) HTTPTimeoutDuration() time.Duration {
	return time.Duration(g.HTTPTimeoutSeconds) * time.Second
}

// HTTPConfig configures the live-mode read-only monitoring surface.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// LiveConfig configures the live polling driver.
type LiveConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	FetchLimit          int `toml:"fetch_limit"`
	InitialLoadBars     int `toml:"initial_load_bars"`
	Buffer1mSize        int `toml:"buffer_1m_size"`
	Buffer5mSize        int `toml:"buffer_5m_size"`
}

// BacktestConfig configures the backtest driver's historical run.
// StartTime/EndTime name an explicit window; when either is empty the
// CLI's `backtest [symbols] [days]` positional arguments (or their
// defaults) determine the window instead.
type BacktestConfig struct {
	StartTime    string `toml:"start_time"` // RFC3339
	EndTime      string `toml:"end_time"`
	Warmup5mBars int    `toml:"warmup_5m_bars"`
	Warmup1mBars int    `toml:"warmup_1m_bars"`
	ReportDir    string `toml:"report_dir"`
}

// Window parses StartTime/EndTime (RFC3339) into epoch-millisecond
// bounds for backtest.Config.
func (b BacktestConfig) Window() (startTS, endTS int64, err error) {
	start, err := time.Parse(time.RFC3339, b.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("backtest.start_time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, b.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("backtest.end_time: %w", err)
	}
	return start.UnixMilli(), end.UnixMilli(), nil
}

// PollIntervalDuration converts PollIntervalSeconds to a time.Duration
// for live.Config.
func (l LiveConfig) PollIntervalDuration() time.Duration {
	return time.Duration(l.PollIntervalSeconds) * time.Second
}

// RiskConfig maps onto portfolio.Params plus the per-trade sizing input
// consumed by execution.Params.
type RiskConfig struct {
	InitialBalance       float64 `toml:"initial_balance"`
	RiskPercentPerTrade  float64 `toml:"risk_percent_per_trade"`
	MaxDailyLossPercent  float64 `toml:"max_daily_loss_percent"`
	MaxConsecutiveLosses int     `toml:"max_consecutive_losses"`
}

// ExecutionConfig maps onto execution.Params plus the reward-ratio and
// pullback-wait inputs that live on strategy.Params.
type ExecutionConfig struct {
	RRRatio                  float64 `toml:"rr_ratio"`
	TradingFeeMaker          float64 `toml:"trading_fee_maker"`
	TradingFeeTaker          float64 `toml:"trading_fee_taker"`
	Slippage                 float64 `toml:"slippage"`
	Leverage                 float64 `toml:"leverage"`
	MaintenanceMargin        float64 `toml:"maintenance_margin"`
	LimitOrderTimeoutMinutes int64   `toml:"limit_order_timeout_minutes"`
	WaitPullbackTimeoutMin   int64   `toml:"wait_pullback_timeout_min"`
}

// RangeConfig maps onto rangedetect.Params.
type RangeConfig struct {
	Window            int     `toml:"window"`
	MinSizeMultiplier float64 `toml:"min_size_multiplier"`
	MaxSizeMultiplier float64 `toml:"max_size_multiplier"`
	ATRPeriod         int     `toml:"atr_period"`
}

// BreakoutConfig maps onto breakout.Params.
type BreakoutConfig struct {
	ATRMultiplier  float64 `toml:"atr_multiplier"`
	MinBodyPercent float64 `toml:"min_body_percent"`
	VolumePeriod   int     `toml:"volume_period"`
	ATRPeriod      int     `toml:"atr_period"`
}

// PullbackConfig maps onto pullback.Params.
type PullbackConfig struct {
	MaxDepthPercent       float64 `toml:"max_depth_percent"`
	PriceTolerancePercent float64 `toml:"price_tolerance_percent"`
}

// RegimeConfig maps onto regime.Params.
type RegimeConfig struct {
	ADXPeriod int     `toml:"adx_period"`
	ADXMin    float64 `toml:"adx_min"`
	ADXMax    float64 `toml:"adx_max"`
	ATRPeriod int     `toml:"atr_period"`
	VolMinPct float64 `toml:"vol_min_percent"`
	VolMaxPct float64 `toml:"vol_max_percent"`
}

// ToPortfolioParams builds the portfolio.Manager input from Risk.
func (c Config) ToPortfolioParams() portfolio.Params {
	return portfolio.Params{
		InitialBalance:        c.Risk.InitialBalance,
		DailyLossLimitPercent: c.Risk.MaxDailyLossPercent,
		ConsecutiveLossLimit:  c.Risk.MaxConsecutiveLosses,
	}
}

// ToExecutionParams builds the execution.Engine input from Risk+Execution.
func (c Config) ToExecutionParams() execution.Params {
	return execution.Params{
		RiskPercentPerTrade:      c.Risk.RiskPercentPerTrade,
		TradingFeeMaker:          c.Execution.TradingFeeMaker,
		TradingFeeTaker:          c.Execution.TradingFeeTaker,
		Slippage:                 c.Execution.Slippage,
		Leverage:                 c.Execution.Leverage,
		MaintenanceMargin:        c.Execution.MaintenanceMargin,
		LimitOrderTimeoutMinutes: c.Execution.LimitOrderTimeoutMinutes,
	}
}

// ToStrategyParams builds the strategy.Orchestrator input from every
// detector sub-struct plus Execution's reward-ratio/wait-timeout fields.
func (c Config) ToStrategyParams() strategy.Params {
	return strategy.Params{
		Regime:   regimeParams(c.Regime),
		Range:    rangeParams(c.Range),
		Breakout: breakoutParams(c.Breakout),
		Pullback: pullbackParams(c.Pullback),

		RRRatio:                c.Execution.RRRatio,
		WaitPullbackTimeoutMin: c.Execution.WaitPullbackTimeoutMin,
	}
}

// keySet tracks the dotted config paths explicitly set in the merged
// YAML, so applyDefaults only fills paths the file left untouched.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault is one (key, need, apply) triple consumed by
// applyFieldDefaults: apply runs unless the key was explicitly set in
// the file, or need reports the field already has a usable value.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
