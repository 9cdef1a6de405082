// Package eligibility holds the per-scheme rule table and the validator that
// applies it. Rules are data; adding a scheme means adding a row, not a branch.
package eligibility

import (
	"github.com/shopspring/decimal"

	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/ratetable"
)

// CollateralFloor is a minimum coverage band. Empty selectors match anything;
// FromTier matches that tier and every riskier one.
type CollateralFloor struct {
	LoanTypes     []models.LoanType
	SecurityTypes []models.SecurityType
	FromTier      models.InternalRating
	Minimum       models.CollateralBand
}

// SchemeRule is the declarative rule set of one scheme. Amounts are in lakhs.
type SchemeRule struct {
	Scheme        models.Scheme
	LoanTypes     []models.LoanType
	SecurityTypes []models.SecurityType

	// MaxAmount is the scheme ceiling; zero means none.
	MaxAmount decimal.Decimal
	// GuaranteeCap is the largest CGTMSE-backed amount; zero means none.
	GuaranteeCap decimal.Decimal
	// WorstRating is the riskiest internal tier admitted; empty admits all.
	WorstRating models.InternalRating

	// FlatBandCeiling is the last amount priced from AmountBandTable.
	// Above it the internal rating is mandatory.
	FlatBandCeiling decimal.Decimal
	// LargeFloor is the amount above which the large regime applies and the
	// external rating is mandatory; zero means the scheme has no large regime.
	LargeFloor decimal.Decimal

	AmountBandTable string
	MidTable        string
	LargeTable      string

	TenureThreshold decimal.Decimal
	TenureEmbedded  bool

	ConcessionSecurity  []models.SecurityType
	SpreadAdjustment    decimal.Decimal
	LoanTypeAdjustments map[models.LoanType]decimal.Decimal
	// SecurityAdjustments are spread changes earned by the security itself,
	// such as the guarantee discount. They are not collateral concessions.
	SecurityAdjustments map[models.SecurityType]decimal.Decimal
	FloorAtBenchmark    bool

	CollateralFloors []CollateralFloor
}

// Regime returns the pricing regime for amount. Every threshold is an
// inclusive upper bound of the regime below it.
func (r SchemeRule) Regime(amount decimal.Decimal) models.Regime {
	switch {
	case amount.LessThanOrEqual(r.FlatBandCeiling):
		return models.RegimeSmall
	case !r.LargeFloor.IsZero() && amount.GreaterThan(r.LargeFloor):
		return models.RegimeLarge
	default:
		return models.RegimeMid
	}
}

// PermitsLoanType checks the scheme's facility list.
func (r SchemeRule) PermitsLoanType(t models.LoanType) bool {
	return containsLoanType(r.LoanTypes, t)
}

// PermitsSecurityType checks the scheme's security list.
func (r SchemeRule) PermitsSecurityType(t models.SecurityType) bool {
	return containsSecurityType(r.SecurityTypes, t)
}

// TenureApplies reports whether a tenure premium is charged on req.
func (r SchemeRule) TenureApplies(req *models.LoanRequest) bool {
	return req.LoanType == models.LoanTypeTermLoan &&
		!r.TenureEmbedded &&
		req.Amount.GreaterThan(r.TenureThreshold)
}

// ConcessionApplies reports whether the security type earns a collateral
// concession under this scheme.
func (r SchemeRule) ConcessionApplies(t models.SecurityType) bool {
	return t.RequiresCoverage() && containsSecurityType(r.ConcessionSecurity, t)
}

// Adjustment is the scheme-wide spread adjustment plus any loan-type add-on
// and security discount.
func (r SchemeRule) Adjustment(t models.LoanType, sec models.SecurityType) decimal.Decimal {
	return r.SpreadAdjustment.Add(r.LoanTypeAdjustments[t]).Add(r.SecurityAdjustments[sec])
}

// ToSummary converts a SchemeRule to its client-facing summary.
func (r SchemeRule) ToSummary() models.SchemeSummary {
	s := models.SchemeSummary{
		Scheme:           r.Scheme,
		LoanTypes:        r.LoanTypes,
		SecurityTypes:    r.SecurityTypes,
		MaxAmount:        nonZero(r.MaxAmount),
		GuaranteeCap:     nonZero(r.GuaranteeCap),
		WorstRating:      r.WorstRating,
		FlatBandCeiling:  r.FlatBandCeiling,
		LargeFloor:       nonZero(r.LargeFloor),
		FloorAtBenchmark: r.FloorAtBenchmark,
	}
	if r.PermitsLoanType(models.LoanTypeTermLoan) && !r.TenureEmbedded {
		s.TenureThreshold = &r.TenureThreshold
	}
	return s
}

func nonZero(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}

// Matches reports whether the floor applies to req.
func (f CollateralFloor) Matches(req *models.LoanRequest) bool {
	if len(f.LoanTypes) > 0 && !containsLoanType(f.LoanTypes, req.LoanType) {
		return false
	}
	if len(f.SecurityTypes) > 0 && !containsSecurityType(f.SecurityTypes, req.SecurityType) {
		return false
	}
	if f.FromTier != "" {
		if req.InternalRating == "" || f.FromTier.WorseThan(req.InternalRating) {
			return false
		}
	}
	return req.SecurityType.RequiresCoverage()
}

func containsLoanType(list []models.LoanType, t models.LoanType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsSecurityType(list []models.SecurityType, t models.SecurityType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

var (
	allLoanTypes       = models.ValidLoanTypes()
	allSecurityTypes   = models.ValidSecurityTypes()
	coverageSecurities = []models.SecurityType{models.SecurityCollateral, models.SecurityHybrid}

	// guaranteeDiscount applies where the scheme's tables do not already
	// price the guarantee in.
	guaranteeDiscount = map[models.SecurityType]decimal.Decimal{
		models.SecurityCGTMSE: decimal.RequireFromString("-0.25"),
	}
)

func lakhs(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var rules = map[models.Scheme]SchemeRule{
	models.SchemeGeneral: {
		Scheme:             models.SchemeGeneral,
		LoanTypes:          allLoanTypes,
		SecurityTypes:      allSecurityTypes,
		GuaranteeCap:       lakhs("500"),
		FlatBandCeiling:    lakhs("50"),
		LargeFloor:         lakhs("2500"),
		AmountBandTable:    ratetable.TableBaseGeneral,
		MidTable:           ratetable.TableRatingMidStandard,
		LargeTable:         ratetable.TableRatingLarge,
		TenureThreshold:    lakhs("10"),
		ConcessionSecurity: coverageSecurities,
		LoanTypeAdjustments: map[models.LoanType]decimal.Decimal{
			models.LoanTypeOverdraft: lakhs("0.50"),
		},
		SecurityAdjustments: guaranteeDiscount,
		CollateralFloors: []CollateralFloor{
			{
				LoanTypes:     []models.LoanType{models.LoanTypeTermLoan},
				SecurityTypes: []models.SecurityType{models.SecurityCollateral},
				Minimum:       models.Collateral50To75,
			},
			{
				FromTier: "CR7",
				Minimum:  models.Collateral100To125,
			},
		},
	},
	models.SchemeStartUp: {
		Scheme:              models.SchemeStartUp,
		LoanTypes:           []models.LoanType{models.LoanTypeCashCredit, models.LoanTypeTermLoan},
		SecurityTypes:       allSecurityTypes,
		MaxAmount:           lakhs("2500"),
		GuaranteeCap:        lakhs("500"),
		WorstRating:         "CR6",
		FlatBandCeiling:     lakhs("10"),
		LargeFloor:          lakhs("500"),
		AmountBandTable:     ratetable.TableBaseStartUp,
		MidTable:            ratetable.TableRatingMidStandard,
		LargeTable:          ratetable.TableRatingLarge,
		TenureThreshold:     lakhs("10"),
		ConcessionSecurity:  coverageSecurities,
		SpreadAdjustment:    lakhs("-0.50"),
		SecurityAdjustments: guaranteeDiscount,
	},
	models.SchemeMudra: {
		Scheme:          models.SchemeMudra,
		LoanTypes:       []models.LoanType{models.LoanTypeCashCredit, models.LoanTypeTermLoan},
		SecurityTypes:   []models.SecurityType{models.SecurityCGTMSE},
		MaxAmount:       lakhs("20"),
		FlatBandCeiling: lakhs("20"),
		AmountBandTable: ratetable.TableBaseMudra,
		TenureEmbedded:  true,
	},
	models.SchemeDigiMSME: {
		Scheme:             models.SchemeDigiMSME,
		LoanTypes:          []models.LoanType{models.LoanTypeCashCredit, models.LoanTypeOverdraft},
		SecurityTypes:      coverageSecurities,
		MaxAmount:          lakhs("500"),
		FlatBandCeiling:    lakhs("10"),
		LargeFloor:         lakhs("50"),
		AmountBandTable:    ratetable.TableBaseDigiMSME,
		MidTable:           ratetable.TableRatingDigiMSME,
		LargeTable:         ratetable.TableRatingLarge,
		TenureThreshold:    lakhs("10"),
		ConcessionSecurity: []models.SecurityType{models.SecurityCollateral},
		SpreadAdjustment:   lakhs("-0.75"),
		LoanTypeAdjustments: map[models.LoanType]decimal.Decimal{
			models.LoanTypeOverdraft: lakhs("0.25"),
		},
		FloorAtBenchmark: true,
		CollateralFloors: []CollateralFloor{
			{Minimum: models.Collateral50To75},
			{
				LoanTypes: []models.LoanType{models.LoanTypeOverdraft},
				Minimum:   models.Collateral100To125,
			},
		},
	},
	models.SchemeNariShakti: {
		Scheme:             models.SchemeNariShakti,
		LoanTypes:          allLoanTypes,
		SecurityTypes:      allSecurityTypes,
		FlatBandCeiling:    lakhs("10"),
		LargeFloor:         lakhs("1000"),
		AmountBandTable:    ratetable.TableBaseNariShakti,
		MidTable:           ratetable.TableRatingMidCollapsed,
		LargeTable:         ratetable.TableRatingLarge,
		TenureThreshold:    lakhs("25"),
		ConcessionSecurity: coverageSecurities,
		SpreadAdjustment:   lakhs("-0.05"),
		LoanTypeAdjustments: map[models.LoanType]decimal.Decimal{
			models.LoanTypeOverdraft: lakhs("0.25"),
		},
		SecurityAdjustments: guaranteeDiscount,
		CollateralFloors: []CollateralFloor{
			{
				FromTier: "CR8",
				Minimum:  models.Collateral125To150,
			},
		},
	},
}

// Rules returns every scheme rule in scheme order.
func Rules() []SchemeRule {
	out := make([]SchemeRule, 0, len(rules))
	for _, s := range models.ValidSchemes() {
		out = append(out, rules[s])
	}
	return out
}

// RuleFor returns the rule of a scheme.
func RuleFor(scheme models.Scheme) (SchemeRule, bool) {
	r, ok := rules[scheme]
	return r, ok
}
