package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RatePlaces is the number of decimal places of a final rate.
const RatePlaces = 2

// Regime is the amount-driven lookup path used to resolve a spread.
type Regime string

const (
	// RegimeSmall resolves a flat spread from the scheme's amount bands.
	RegimeSmall Regime = "small"
	// RegimeMid resolves from an internal rating table, possibly nested by collateral band.
	RegimeMid Regime = "mid"
	// RegimeLarge resolves from an internal x external rating matrix.
	RegimeLarge Regime = "large"
)

// ROIBreakdown is the itemized result of a resolution.
//
// FinalRate = BenchmarkRate + ResolvedSpread + TenurePremium - CollateralConcession,
// rounded half away from zero to two places, and raised to BenchmarkRate when
// FloorApplied is set.
type ROIBreakdown struct {
	Scheme               Scheme          `json:"scheme"`
	Regime               Regime          `json:"regime"`
	BenchmarkRate        decimal.Decimal `json:"benchmark_rate"`
	TableSpread          decimal.Decimal `json:"table_spread"`
	SchemeAdjustment     decimal.Decimal `json:"scheme_adjustment"`
	ResolvedSpread       decimal.Decimal `json:"resolved_spread"`
	SpreadSource         string          `json:"spread_source"`
	TenurePremium        decimal.Decimal `json:"tenure_premium"`
	CollateralConcession decimal.Decimal `json:"collateral_concession"`
	FloorApplied         bool            `json:"floor_applied"`
	FinalRate            decimal.Decimal `json:"final_rate"`
	TableVersion         string          `json:"table_version"`
}

// MarshalJSON renders FinalRate with exactly RatePlaces decimals, so 8.9
// is sent as "8.90".
func (b ROIBreakdown) MarshalJSON() ([]byte, error) {
	type breakdown ROIBreakdown
	return json.Marshal(struct {
		breakdown
		FinalRate string `json:"final_rate"`
	}{
		breakdown: breakdown(b),
		FinalRate: b.FinalRate.StringFixed(RatePlaces),
	})
}
