package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsFillsUnsetFieldsOnly(t *testing.T) {
	c := &Config{}
	c.applyDefaults(keySet{})

	assert.Equal(t, defaultAppEnv, c.App.Env)
	assert.Equal(t, defaultStoreDriver, c.Store.Driver)
	assert.Equal(t, defaultGatewayREST, c.Gateway.RESTBaseURL)
	assert.Equal(t, defaultGatewayTimeoutS, c.Gateway.HTTPTimeoutSeconds)
	assert.Equal(t, defaultHTTPAddr, c.HTTP.Addr)
	assert.Equal(t, defaultLivePollSeconds, c.Live.PollIntervalSeconds)
	assert.Equal(t, defaultLiveInitialLoadBars, c.Live.InitialLoadBars)
	assert.Equal(t, defaultBacktestWarmup5m, c.Backtest.Warmup5mBars)
	assert.Equal(t, defaultPortfolio.InitialBalance, c.Risk.InitialBalance)
	assert.Equal(t, defaultStrategy.RRRatio, c.Execution.RRRatio)
	assert.Equal(t, defaultStrategy.Range.Window, c.Range.Window)
	assert.Equal(t, defaultStrategy.Breakout.ATRMultiplier, c.Breakout.ATRMultiplier)
	assert.Equal(t, defaultStrategy.Pullback.MaxDepthPercent, c.Pullback.MaxDepthPercent)
	assert.Equal(t, defaultStrategy.Regime.ADXMin, c.Regime.ADXMin)
}

func TestApplyDefaultsLeavesExplicitlySetFieldsAlone(t *testing.T) {
	c := &Config{}
	c.Store.Driver = "clickhouse"
	keys := keySet{}
	keys.mark("store.driver")

	c.applyDefaults(keys)

	assert.Equal(t, "clickhouse", c.Store.Driver)
	// store.dsn was never marked as set, so it still gets the default.
	assert.Equal(t, defaultStoreDSN, c.Store.DSN)
}

func TestApplyDefaultsLeavesNonZeroNumericFieldsAlone(t *testing.T) {
	c := &Config{}
	c.Execution.Leverage = 20
	c.applyDefaults(keySet{})

	assert.Equal(t, 20.0, c.Execution.Leverage)
}

func TestKeySetMarkAndIsSetAreCaseInsensitive(t *testing.T) {
	keys := keySet{}
	keys.mark("Risk.Initial_Balance")

	assert.True(t, keys.isSet("risk.initial_balance"))
	assert.False(t, keys.isSet("risk.risk_percent_per_trade"))
}

func TestKeySetIsSetOnEmptySetIsAlwaysFalse(t *testing.T) {
	keys := keySet{}
	assert.False(t, keys.isSet("anything"))
}

func TestFlattenConfigKeysMarksLeafPaths(t *testing.T) {
	settings := map[string]any{
		"store": map[string]any{
			"driver": "sqlite",
			"dsn":    "tradeengine.db",
		},
		"symbols": []any{"BTCUSDT", "ETHUSDT"},
	}
	dest := keySet{}
	collectSettingsKeys(settings, dest)

	assert.True(t, dest.isSet("store.driver"))
	assert.True(t, dest.isSet("store.dsn"))
	assert.True(t, dest.isSet("symbols"))
}
