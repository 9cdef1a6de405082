package models

import (
	"github.com/shopspring/decimal"
)

// LoanRequest is the fully populated input to the engine. Optional enum fields
// are empty when absent.
type LoanRequest struct {
	BenchmarkRate      decimal.Decimal `json:"benchmark_rate"`
	Amount             decimal.Decimal `json:"amount"`
	Scheme             Scheme          `json:"scheme"`
	LoanType           LoanType        `json:"loan_type"`
	SecurityType       SecurityType    `json:"security_type"`
	CollateralCoverage CollateralBand  `json:"collateral_coverage,omitempty"`
	Tenure             TenureBand      `json:"tenure,omitempty"`
	InternalRating     InternalRating  `json:"internal_rating,omitempty"`
	ExternalRating     ExternalRating  `json:"external_rating,omitempty"`
}

// WithDefaultBenchmark returns a copy with the benchmark filled in when unset.
func (r LoanRequest) WithDefaultBenchmark(def decimal.Decimal) LoanRequest {
	if r.BenchmarkRate.IsZero() {
		r.BenchmarkRate = def
	}
	return r
}

// ValidateLoanRequest checks every field against its declared domain. It does
// not apply scheme rules.
func ValidateLoanRequest(r *LoanRequest) error {
	if r.BenchmarkRate.IsNegative() || r.BenchmarkRate.IsZero() {
		return NewInvalidInput("benchmark_rate", r.BenchmarkRate.String(), ErrNotPositive)
	}

	if !r.Amount.IsPositive() {
		return NewInvalidInput("amount", r.Amount.String(), ErrNotPositive)
	}

	if r.Scheme == "" {
		return NewInvalidInput("scheme", "", ErrFieldRequired)
	}
	if !r.Scheme.IsValid() {
		return NewInvalidInput("scheme", string(r.Scheme), ErrUnknownScheme)
	}

	if r.LoanType == "" {
		return NewInvalidInput("loan_type", "", ErrFieldRequired)
	}
	if !r.LoanType.IsValid() {
		return NewInvalidInput("loan_type", string(r.LoanType), ErrUnknownEnumValue)
	}

	if r.SecurityType == "" {
		return NewInvalidInput("security_type", "", ErrFieldRequired)
	}
	if !r.SecurityType.IsValid() {
		return NewInvalidInput("security_type", string(r.SecurityType), ErrUnknownEnumValue)
	}

	switch {
	case r.CollateralCoverage != "" && !r.CollateralCoverage.IsValid():
		return NewInvalidInput("collateral_coverage", string(r.CollateralCoverage), ErrUnknownEnumValue)
	case r.SecurityType.RequiresCoverage() && r.CollateralCoverage == "":
		return NewInvalidInput("collateral_coverage", "", ErrFieldRequired)
	case !r.SecurityType.RequiresCoverage() && r.CollateralCoverage != "":
		return NewInvalidInput("collateral_coverage", string(r.CollateralCoverage), ErrFieldNotAllowed)
	}

	if r.Tenure != "" && !r.Tenure.IsValid() {
		return NewInvalidInput("tenure", string(r.Tenure), ErrUnknownEnumValue)
	}

	if r.InternalRating != "" && !r.InternalRating.IsValid() {
		return NewInvalidInput("internal_rating", string(r.InternalRating), ErrUnknownEnumValue)
	}

	if r.ExternalRating != "" && !r.ExternalRating.IsValid() {
		return NewInvalidInput("external_rating", string(r.ExternalRating), ErrUnknownEnumValue)
	}

	return nil
}
