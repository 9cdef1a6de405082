package models

import (
	"github.com/shopspring/decimal"
)

// SchemeSummary is the client-facing view of a scheme's rules. Optional
// limits are omitted when the scheme does not impose them.
type SchemeSummary struct {
	Scheme           Scheme           `json:"scheme"`
	LoanTypes        []LoanType       `json:"loan_types"`
	SecurityTypes    []SecurityType   `json:"security_types"`
	MaxAmount        *decimal.Decimal `json:"max_amount,omitempty"`
	GuaranteeCap     *decimal.Decimal `json:"guarantee_cap,omitempty"`
	WorstRating      InternalRating   `json:"worst_rating,omitempty"`
	FlatBandCeiling  decimal.Decimal  `json:"flat_band_ceiling"`
	LargeFloor       *decimal.Decimal `json:"large_floor,omitempty"`
	TenureThreshold  *decimal.Decimal `json:"tenure_threshold,omitempty"`
	FloorAtBenchmark bool             `json:"floor_at_benchmark"`
}
