package config

import (
	"fmt"
	"strings"
)

// validate runs every sub-config's numeric-range checks.
func validate(c *Config) error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols requires at least one entry")
	}
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symbols contains an empty entry")
		}
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if err := c.Gateway.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Execution.validate(); err != nil {
		return err
	}
	if err := c.Range.validate(); err != nil {
		return err
	}
	if err := c.Breakout.validate(); err != nil {
		return err
	}
	if err := c.Pullback.validate(); err != nil {
		return err
	}
	if err := c.Regime.validate(); err != nil {
		return err
	}
	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case "sqlite", "clickhouse":
	default:
		return fmt.Errorf("store.driver must be 'sqlite' or 'clickhouse', got %q", s.Driver)
	}
	if strings.TrimSpace(s.DSN) == "" {
		return fmt.Errorf("store.dsn cannot be empty")
	}
	if s.Driver == "clickhouse" {
		if len(s.ClickHouseAddr) == 0 {
			return fmt.Errorf("store.clickhouse_addr required when store.driver is clickhouse")
		}
		if strings.TrimSpace(s.ClickHouseDatabase) == "" {
			return fmt.Errorf("store.clickhouse_database required when store.driver is clickhouse")
		}
	}
	return nil
}

func (g *GatewayConfig) validate() error {
	if strings.TrimSpace(g.RESTBaseURL) == "" {
		return fmt.Errorf("gateway.rest_base_url cannot be empty")
	}
	if g.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("gateway.http_timeout_seconds must be > 0")
	}
	if g.ProxyEnabled && strings.TrimSpace(g.RESTProxyURL) == "" {
		return fmt.Errorf("gateway.proxy_enabled is true but rest_proxy_url is empty")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.InitialBalance <= 0 {
		return fmt.Errorf("risk.initial_balance must be > 0")
	}
	if r.RiskPercentPerTrade <= 0 || r.RiskPercentPerTrade > 100 {
		return fmt.Errorf("risk.risk_percent_per_trade must be in (0,100]")
	}
	if r.MaxDailyLossPercent <= 0 || r.MaxDailyLossPercent > 100 {
		return fmt.Errorf("risk.max_daily_loss_percent must be in (0,100]")
	}
	if r.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("risk.max_consecutive_losses must be > 0")
	}
	return nil
}

func (e *ExecutionConfig) validate() error {
	if e.RRRatio <= 0 {
		return fmt.Errorf("execution.rr_ratio must be > 0")
	}
	if e.TradingFeeMaker < 0 || e.TradingFeeTaker < 0 {
		return fmt.Errorf("execution trading fees must be >= 0")
	}
	if e.Slippage < 0 {
		return fmt.Errorf("execution.slippage must be >= 0")
	}
	if e.Leverage <= 0 {
		return fmt.Errorf("execution.leverage must be > 0")
	}
	if e.MaintenanceMargin <= 0 || e.MaintenanceMargin >= 1 {
		return fmt.Errorf("execution.maintenance_margin must be in (0,1)")
	}
	if e.LimitOrderTimeoutMinutes <= 0 {
		return fmt.Errorf("execution.limit_order_timeout_minutes must be > 0")
	}
	if e.WaitPullbackTimeoutMin <= 0 {
		return fmt.Errorf("execution.wait_pullback_timeout_min must be > 0")
	}
	return nil
}

func (r *RangeConfig) validate() error {
	if r.Window <= 0 {
		return fmt.Errorf("range.window must be > 0")
	}
	if r.MinSizeMultiplier <= 0 || r.MaxSizeMultiplier <= r.MinSizeMultiplier {
		return fmt.Errorf("range.min_size_multiplier/max_size_multiplier must satisfy 0 < min < max")
	}
	if r.ATRPeriod <= 0 {
		return fmt.Errorf("range.atr_period must be > 0")
	}
	return nil
}

func (b *BreakoutConfig) validate() error {
	if b.ATRMultiplier <= 0 {
		return fmt.Errorf("breakout.atr_multiplier must be > 0")
	}
	if b.MinBodyPercent <= 0 || b.MinBodyPercent > 100 {
		return fmt.Errorf("breakout.min_body_percent must be in (0,100]")
	}
	if b.VolumePeriod <= 0 {
		return fmt.Errorf("breakout.volume_period must be > 0")
	}
	if b.ATRPeriod <= 0 {
		return fmt.Errorf("breakout.atr_period must be > 0")
	}
	return nil
}

func (p *PullbackConfig) validate() error {
	if p.MaxDepthPercent <= 0 || p.MaxDepthPercent > 100 {
		return fmt.Errorf("pullback.max_depth_percent must be in (0,100]")
	}
	if p.PriceTolerancePercent <= 0 {
		return fmt.Errorf("pullback.price_tolerance_percent must be > 0")
	}
	return nil
}

func (r *RegimeConfig) validate() error {
	if r.ADXPeriod <= 0 {
		return fmt.Errorf("regime.adx_period must be > 0")
	}
	if r.ADXMin < 0 || r.ADXMax <= r.ADXMin {
		return fmt.Errorf("regime.adx_min/adx_max must satisfy 0 <= min < max")
	}
	if r.ATRPeriod <= 0 {
		return fmt.Errorf("regime.atr_period must be > 0")
	}
	if r.VolMinPct < 0 || r.VolMaxPct <= r.VolMinPct {
		return fmt.Errorf("regime.vol_min_percent/vol_max_percent must satisfy 0 <= min < max")
	}
	return nil
}
