// Package models defines the data structures for the ROI engine.
package models

import (
	"strconv"
	"strings"
)

// Scheme identifies a lending scheme.
type Scheme string

const (
	SchemeGeneral    Scheme = "general"
	SchemeStartUp    Scheme = "startup"
	SchemeMudra      Scheme = "mudra"
	SchemeDigiMSME   Scheme = "digi_msme"
	SchemeNariShakti Scheme = "nari_shakti"
)

// ValidSchemes returns all valid scheme values.
func ValidSchemes() []Scheme {
	return []Scheme{SchemeGeneral, SchemeStartUp, SchemeMudra, SchemeDigiMSME, SchemeNariShakti}
}

// IsValid checks if the scheme is valid.
func (s Scheme) IsValid() bool {
	for _, valid := range ValidSchemes() {
		if s == valid {
			return true
		}
	}
	return false
}

// LoanType is the facility type.
type LoanType string

const (
	LoanTypeCashCredit LoanType = "cash_credit"
	LoanTypeTermLoan   LoanType = "term_loan"
	LoanTypeOverdraft  LoanType = "overdraft"
)

// ValidLoanTypes returns all valid loan type values.
func ValidLoanTypes() []LoanType {
	return []LoanType{LoanTypeCashCredit, LoanTypeTermLoan, LoanTypeOverdraft}
}

// IsValid checks if the loan type is valid.
func (l LoanType) IsValid() bool {
	for _, valid := range ValidLoanTypes() {
		if l == valid {
			return true
		}
	}
	return false
}

// SecurityType is how the exposure is secured.
type SecurityType string

const (
	SecurityCollateral SecurityType = "collateral"
	SecurityCGTMSE     SecurityType = "cgtmse"
	SecurityHybrid     SecurityType = "hybrid"
)

// ValidSecurityTypes returns all valid security type values.
func ValidSecurityTypes() []SecurityType {
	return []SecurityType{SecurityCollateral, SecurityCGTMSE, SecurityHybrid}
}

// IsValid checks if the security type is valid.
func (s SecurityType) IsValid() bool {
	for _, valid := range ValidSecurityTypes() {
		if s == valid {
			return true
		}
	}
	return false
}

// RequiresCoverage reports whether a collateral coverage band must accompany
// this security type. Guarantee-backed exposures carry none.
func (s SecurityType) RequiresCoverage() bool {
	return s == SecurityCollateral || s == SecurityHybrid
}

// CollateralBand is an ordered collateral coverage band.
type CollateralBand string

const (
	CollateralBelow50   CollateralBand = "lt50"
	Collateral50To75    CollateralBand = "50-75"
	Collateral75To100   CollateralBand = "75-100"
	Collateral100To125  CollateralBand = "100-125"
	Collateral125To150  CollateralBand = "125-150"
	Collateral150OrMore CollateralBand = "gte150"
)

// ValidCollateralBands returns all bands in ascending order of coverage.
func ValidCollateralBands() []CollateralBand {
	return []CollateralBand{
		CollateralBelow50,
		Collateral50To75,
		Collateral75To100,
		Collateral100To125,
		Collateral125To150,
		Collateral150OrMore,
	}
}

// IsValid checks if the collateral band is valid.
func (c CollateralBand) IsValid() bool {
	return c.Rank() >= 0
}

// Rank returns the band's position in ascending order, or -1 if unknown.
func (c CollateralBand) Rank() int {
	for i, valid := range ValidCollateralBands() {
		if c == valid {
			return i
		}
	}
	return -1
}

// AtLeast reports whether c covers at least as much as floor.
func (c CollateralBand) AtLeast(floor CollateralBand) bool {
	return c.Rank() >= floor.Rank()
}

// TenureBand is a term loan tenure bucket.
type TenureBand string

const (
	Tenure1To3Years   TenureBand = "1-3y"
	Tenure3To5Years   TenureBand = "3-5y"
	Tenure5To10Years  TenureBand = "5-10y"
	TenureOver10Years TenureBand = "gt10y"
)

// ValidTenureBands returns all valid tenure bands in ascending order.
func ValidTenureBands() []TenureBand {
	return []TenureBand{Tenure1To3Years, Tenure3To5Years, Tenure5To10Years, TenureOver10Years}
}

// IsValid checks if the tenure band is valid.
func (t TenureBand) IsValid() bool {
	for _, valid := range ValidTenureBands() {
		if t == valid {
			return true
		}
	}
	return false
}

// InternalRating is the bank's internal credit rating, CR1 (best) to CR10.
type InternalRating string

// CollapsedHighRiskTier is the single key some tables use for CR8, CR9 and CR10.
const CollapsedHighRiskTier = "CR8-CR10"

// collapseFrom is the first tier folded into CollapsedHighRiskTier.
const collapseFrom = 8

// ValidInternalRatings returns CR1..CR10 in order of increasing risk.
func ValidInternalRatings() []InternalRating {
	ratings := make([]InternalRating, 0, 10)
	for i := 1; i <= 10; i++ {
		ratings = append(ratings, InternalRating("CR"+strconv.Itoa(i)))
	}
	return ratings
}

// Rank returns 1..10, or 0 if the rating is unknown.
func (r InternalRating) Rank() int {
	s := string(r)
	if !strings.HasPrefix(s, "CR") {
		return 0
	}
	n, err := strconv.Atoi(s[2:])
	if err != nil || n < 1 || n > 10 || s != "CR"+strconv.Itoa(n) {
		return 0
	}
	return n
}

// IsValid checks if the internal rating is valid.
func (r InternalRating) IsValid() bool {
	return r.Rank() > 0
}

// WorseThan reports whether r carries more risk than other.
func (r InternalRating) WorseThan(other InternalRating) bool {
	return r.Rank() > other.Rank()
}

// TableKey returns the key used by a rating table. Tables that collapse the
// high-risk tiers look up CR8, CR9 and CR10 under CollapsedHighRiskTier.
func (r InternalRating) TableKey(collapsed bool) string {
	if collapsed && r.Rank() >= collapseFrom {
		return CollapsedHighRiskTier
	}
	return string(r)
}

// ExternalRating is an external agency rating, long-term or short-term.
type ExternalRating string

const (
	ExternalAAA       ExternalRating = "AAA"
	ExternalAA        ExternalRating = "AA"
	ExternalA         ExternalRating = "A"
	ExternalBBB       ExternalRating = "BBB"
	ExternalBBOrBelow ExternalRating = "BB&Below"

	ExternalA1Plus ExternalRating = "A1+"
	ExternalA1     ExternalRating = "A1"
	ExternalA2     ExternalRating = "A2"
	ExternalA3     ExternalRating = "A3"
)

// LongTermExternalRatings returns the long-term scale used as table keys.
func LongTermExternalRatings() []ExternalRating {
	return []ExternalRating{ExternalAAA, ExternalAA, ExternalA, ExternalBBB, ExternalBBOrBelow}
}

// shortTermEquivalents maps short-term ratings to their long-term table key.
var shortTermEquivalents = map[ExternalRating]ExternalRating{
	ExternalA1Plus: ExternalAAA,
	ExternalA1:     ExternalAA,
	ExternalA2:     ExternalA,
	ExternalA3:     ExternalBBB,
}

// IsValid checks if the external rating is valid.
func (e ExternalRating) IsValid() bool {
	for _, valid := range LongTermExternalRatings() {
		if e == valid {
			return true
		}
	}
	_, ok := shortTermEquivalents[e]
	return ok
}

// LongTerm returns the long-term equivalent used to key rating tables.
func (e ExternalRating) LongTerm() ExternalRating {
	if lt, ok := shortTermEquivalents[e]; ok {
		return lt
	}
	return e
}
