package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	c := &Config{
		Symbols: []string{"BTCUSDT"},
		Store:   StoreConfig{Driver: "sqlite", DSN: "tradeengine.db"},
		Gateway: GatewayConfig{RESTBaseURL: "https://fapi.binance.com", HTTPTimeoutSeconds: 10},
		Risk: RiskConfig{
			InitialBalance:        1000,
			RiskPercentPerTrade:   1,
			MaxDailyLossPercent:   5,
			MaxConsecutiveLosses:  3,
		},
		Execution: ExecutionConfig{
			RRRatio:                  2,
			TradingFeeMaker:          0.0002,
			TradingFeeTaker:          0.0004,
			Slippage:                 0,
			Leverage:                 10,
			MaintenanceMargin:        0.005,
			LimitOrderTimeoutMinutes: 30,
			WaitPullbackTimeoutMin:   15,
		},
		Range:    RangeConfig{Window: 30, MinSizeMultiplier: 1.2, MaxSizeMultiplier: 3.5, ATRPeriod: 14},
		Breakout: BreakoutConfig{ATRMultiplier: 0.5, MinBodyPercent: 60, VolumePeriod: 20, ATRPeriod: 14},
		Pullback: PullbackConfig{MaxDepthPercent: 50, PriceTolerancePercent: 0.3},
		Regime:   RegimeConfig{ADXPeriod: 14, ADXMin: 15, ADXMax: 50, ATRPeriod: 14, VolMinPct: 0.1, VolMaxPct: 5},
	}
	return c
}

func TestValidateAcceptsFullyPopulatedConfig(t *testing.T) {
	assert.NoError(t, validate(validConfig()))
}

func TestValidateRejectsNoSymbols(t *testing.T) {
	c := validConfig()
	c.Symbols = nil
	assert.Error(t, validate(c))
}

func TestValidateRejectsBlankSymbol(t *testing.T) {
	c := validConfig()
	c.Symbols = []string{"BTCUSDT", "  "}
	assert.Error(t, validate(c))
}

func TestValidateRejectsUnknownStoreDriver(t *testing.T) {
	c := validConfig()
	c.Store.Driver = "postgres"
	assert.Error(t, validate(c))
}

func TestValidateRejectsClickHouseWithoutAddr(t *testing.T) {
	c := validConfig()
	c.Store.Driver = "clickhouse"
	c.Store.ClickHouseDatabase = "trades"
	assert.Error(t, validate(c))
}

func TestValidateRejectsEmptyRESTBaseURL(t *testing.T) {
	c := validConfig()
	c.Gateway.RESTBaseURL = ""
	assert.Error(t, validate(c))
}

func TestValidateRejectsProxyEnabledWithoutURL(t *testing.T) {
	c := validConfig()
	c.Gateway.ProxyEnabled = true
	c.Gateway.RESTProxyURL = ""
	assert.Error(t, validate(c))
}

func TestValidateRejectsZeroInitialBalance(t *testing.T) {
	c := validConfig()
	c.Risk.InitialBalance = 0
	assert.Error(t, validate(c))
}

func TestValidateRejectsRiskPercentOutOfRange(t *testing.T) {
	c := validConfig()
	c.Risk.RiskPercentPerTrade = 101
	assert.Error(t, validate(c))
}

func TestValidateRejectsMaintenanceMarginAtBoundary(t *testing.T) {
	c := validConfig()
	c.Execution.MaintenanceMargin = 1
	assert.Error(t, validate(c))
}

func TestValidateRejectsRangeMinNotLessThanMax(t *testing.T) {
	c := validConfig()
	c.Range.MinSizeMultiplier = 3.5
	c.Range.MaxSizeMultiplier = 3.5
	assert.Error(t, validate(c))
}

func TestValidateRejectsRegimeADXMinNotLessThanMax(t *testing.T) {
	c := validConfig()
	c.Regime.ADXMin = 50
	c.Regime.ADXMax = 50
	assert.Error(t, validate(c))
}
