package models_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-roi-engine/internal/models"
)

func TestROIBreakdown_MarshalJSON(t *testing.T) {
	tests := []struct {
		rate string
		want string
	}{
		{"8.9", "8.90"},
		{"10", "10.00"},
		{"10.38", "10.38"},
	}

	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			b := models.ROIBreakdown{
				Scheme:        models.SchemeGeneral,
				Regime:        models.RegimeSmall,
				BenchmarkRate: decimal.RequireFromString("8.25"),
				SpreadSource:  "base-general[<=50]",
				FinalRate:     decimal.RequireFromString(tt.rate),
				TableVersion:  "builtin",
			}

			data, err := json.Marshal(b)
			require.NoError(t, err)

			var out map[string]any
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, tt.want, out["final_rate"])
			assert.Equal(t, "8.25", out["benchmark_rate"])
			assert.Equal(t, "general", out["scheme"])
			assert.Equal(t, "base-general[<=50]", out["spread_source"])

			var back models.ROIBreakdown
			require.NoError(t, json.Unmarshal(data, &back))
			assert.True(t, b.FinalRate.Equal(back.FinalRate))
		})
	}
}
