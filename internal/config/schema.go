package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema is a JSON Schema document covering the symbols, risk,
// execution, range, breakout, pullback and regime settings that
// validate() also checks (store and gateway settings are checked by
// validate() only), compiled once and reused for every Load call.
var configSchema = map[string]any{
	"type":     "object",
	"required": []string{"symbols", "risk", "execution"},
	"properties": map[string]any{
		"symbols": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
		"risk": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"initial_balance":         map[string]any{"type": "number", "exclusiveMinimum": 0},
				"risk_percent_per_trade":  map[string]any{"type": "number", "exclusiveMinimum": 0, "maximum": 100},
				"max_daily_loss_percent":  map[string]any{"type": "number", "exclusiveMinimum": 0, "maximum": 100},
				"max_consecutive_losses":  map[string]any{"type": "integer", "exclusiveMinimum": 0},
			},
		},
		"execution": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"rr_ratio":                    map[string]any{"type": "number", "exclusiveMinimum": 0},
				"trading_fee_maker":            map[string]any{"type": "number", "minimum": 0},
				"trading_fee_taker":            map[string]any{"type": "number", "minimum": 0},
				"slippage":                     map[string]any{"type": "number", "minimum": 0},
				"leverage":                     map[string]any{"type": "number", "exclusiveMinimum": 0},
				"maintenance_margin":           map[string]any{"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
				"limit_order_timeout_minutes":  map[string]any{"type": "integer", "exclusiveMinimum": 0},
				"wait_pullback_timeout_min":    map[string]any{"type": "integer", "exclusiveMinimum": 0},
			},
		},
		"range": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"window":              map[string]any{"type": "integer", "exclusiveMinimum": 0},
				"min_size_multiplier": map[string]any{"type": "number", "exclusiveMinimum": 0},
				"max_size_multiplier": map[string]any{"type": "number", "exclusiveMinimum": 0},
				"atr_period":          map[string]any{"type": "integer", "exclusiveMinimum": 0},
			},
		},
		"breakout": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"atr_multiplier":   map[string]any{"type": "number", "exclusiveMinimum": 0},
				"min_body_percent": map[string]any{"type": "number", "exclusiveMinimum": 0, "maximum": 100},
				"volume_period":    map[string]any{"type": "integer", "exclusiveMinimum": 0},
				"atr_period":       map[string]any{"type": "integer", "exclusiveMinimum": 0},
			},
		},
		"pullback": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"max_depth_percent":        map[string]any{"type": "number", "exclusiveMinimum": 0, "maximum": 100},
				"price_tolerance_percent":  map[string]any{"type": "number", "exclusiveMinimum": 0},
			},
		},
		"regime": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"adx_period":      map[string]any{"type": "integer", "exclusiveMinimum": 0},
				"adx_min":         map[string]any{"type": "number", "minimum": 0},
				"adx_max":         map[string]any{"type": "number", "minimum": 0},
				"atr_period":      map[string]any{"type": "integer", "exclusiveMinimum": 0},
				"vol_min_percent": map[string]any{"type": "number", "minimum": 0},
				"vol_max_percent": map[string]any{"type": "number", "minimum": 0},
			},
		},
	},
}

var (
	compiledSchemaOnce sync.Once
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
)

func compileConfigSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		raw, err := json.Marshal(configSchema)
		if err != nil {
			compiledSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config.json", strings.NewReader(string(raw))); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("config.json")
	})
	return compiledSchema, compiledSchemaErr
}

// validateSchema runs the decoded settings map (viper's AllSettings, not
// the typed Config) against configSchema, catching malformed types and
// out-of-range values the defaults pass never gets a chance to see
// because they were present but wrong, not merely absent.
func validateSchema(settings map[string]any) error {
	schema, err := compileConfigSchema()
	if err != nil {
		return fmt.Errorf("config: compiling schema: %w", err)
	}
	if err := schema.Validate(settings); err != nil {
		return fmt.Errorf("config: schema validation failed: %w", err)
	}
	return nil
}
