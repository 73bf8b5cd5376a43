package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSchemaAcceptsMinimalSettings(t *testing.T) {
	settings := map[string]any{
		"symbols": []any{"BTCUSDT"},
		"risk": map[string]any{
			"initial_balance": 1000.0,
		},
		"execution": map[string]any{
			"rr_ratio": 2.0,
		},
	}
	assert.NoError(t, validateSchema(settings))
}

func TestValidateSchemaRejectsMissingRequiredTopLevelField(t *testing.T) {
	settings := map[string]any{
		"symbols": []any{"BTCUSDT"},
	}
	assert.Error(t, validateSchema(settings))
}

func TestValidateSchemaRejectsEmptySymbolsArray(t *testing.T) {
	settings := map[string]any{
		"symbols":   []any{},
		"risk":      map[string]any{"initial_balance": 1000.0},
		"execution": map[string]any{"rr_ratio": 2.0},
	}
	assert.Error(t, validateSchema(settings))
}

func TestValidateSchemaRejectsOutOfRangeRiskPercent(t *testing.T) {
	settings := map[string]any{
		"symbols": []any{"BTCUSDT"},
		"risk": map[string]any{
			"initial_balance":        1000.0,
			"risk_percent_per_trade": 150.0,
		},
		"execution": map[string]any{"rr_ratio": 2.0},
	}
	assert.Error(t, validateSchema(settings))
}

func TestValidateSchemaRejectsWrongType(t *testing.T) {
	settings := map[string]any{
		"symbols": "BTCUSDT",
		"risk":    map[string]any{"initial_balance": 1000.0},
		"execution": map[string]any{"rr_ratio": 2.0},
	}
	assert.Error(t, validateSchema(settings))
}
