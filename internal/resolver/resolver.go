// Package resolver turns a loan request into an itemized rate. It validates
// the request, applies the scheme's eligibility rules, picks the pricing
// regime, reads the rate tables and composes the final rate.
//
// A Resolver holds only immutable references and is safe for concurrent use.
package resolver

import (
	"errors"

	"github.com/shopspring/decimal"

	"msme-roi-engine/internal/eligibility"
	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/ratetable"
)

// RatePlaces is the number of decimal places of a final rate.
const RatePlaces = models.RatePlaces

// Resolver computes rates against one rate table store.
type Resolver struct {
	store            *ratetable.Store
	defaultBenchmark decimal.Decimal
}

// New creates a resolver. defaultBenchmark is used for requests that carry
// no benchmark rate.
func New(store *ratetable.Store, defaultBenchmark decimal.Decimal) *Resolver {
	return &Resolver{store: store, defaultBenchmark: defaultBenchmark}
}

// TableVersion returns the version of the underlying store.
func (r *Resolver) TableVersion() string {
	return r.store.Version()
}

// Resolve returns the rate breakdown for req, or one of
// *models.InvalidInputError, *models.IneligibleError or
// *models.ResolutionError.
func (r *Resolver) Resolve(req models.LoanRequest) (*models.ROIBreakdown, error) {
	req = req.WithDefaultBenchmark(r.defaultBenchmark)
	if err := models.ValidateLoanRequest(&req); err != nil {
		return nil, err
	}

	rule, ok := eligibility.RuleFor(req.Scheme)
	if !ok {
		return nil, models.NewInvalidInput("scheme", string(req.Scheme), models.ErrUnknownScheme)
	}

	if err := eligibility.Validate(rule, &req).Err(); err != nil {
		return nil, err
	}

	b := &models.ROIBreakdown{
		Scheme:        req.Scheme,
		Regime:        rule.Regime(req.Amount),
		BenchmarkRate: req.BenchmarkRate,
		TableVersion:  r.store.Version(),
	}

	spread, err := r.spread(rule, b.Regime, &req)
	if err != nil {
		return nil, err
	}
	b.TableSpread = spread.Value
	b.SpreadSource = spread.Source
	b.SchemeAdjustment = rule.Adjustment(req.LoanType, req.SecurityType)
	b.ResolvedSpread = b.TableSpread.Add(b.SchemeAdjustment)

	b.TenurePremium = decimal.Zero
	if rule.TenureApplies(&req) {
		premium, err := r.store.TenurePremium(req.Tenure)
		if err != nil {
			return nil, resolutionError(rule.Scheme, ratetable.TableTenurePremium, string(req.Tenure), err)
		}
		b.TenurePremium = premium.Value
	}

	b.CollateralConcession = decimal.Zero
	if rule.ConcessionApplies(req.SecurityType) {
		concession, err := r.store.CollateralConcession(req.CollateralCoverage)
		if err != nil {
			return nil, resolutionError(rule.Scheme, ratetable.TableCollateralConcession, string(req.CollateralCoverage), err)
		}
		b.CollateralConcession = concession.Value
	}

	rate := b.BenchmarkRate.Add(b.ResolvedSpread).Add(b.TenurePremium).Sub(b.CollateralConcession)
	if rule.FloorAtBenchmark && rate.LessThan(b.BenchmarkRate) {
		rate = b.BenchmarkRate
		b.FloorApplied = true
	}
	b.FinalRate = rate.Round(RatePlaces)

	return b, nil
}

func (r *Resolver) spread(rule eligibility.SchemeRule, regime models.Regime, req *models.LoanRequest) (ratetable.Lookup, error) {
	var (
		table  string
		key    string
		lookup ratetable.Lookup
		err    error
	)

	switch regime {
	case models.RegimeSmall:
		table, key = rule.AmountBandTable, req.Amount.String()
		lookup, err = r.store.BaseSpreadForAmount(table, req.Amount)
	case models.RegimeMid:
		table, key = rule.MidTable, string(req.InternalRating)
		lookup, err = r.store.RatingSpread(table, req.InternalRating, req.CollateralCoverage)
	case models.RegimeLarge:
		table, key = rule.LargeTable, string(req.InternalRating)+"]["+string(req.ExternalRating)
		lookup, err = r.store.ExternalRatingSpread(table, req.InternalRating, req.ExternalRating)
	}

	if err != nil {
		return ratetable.Lookup{}, resolutionError(rule.Scheme, table, key, err)
	}
	return lookup, nil
}

// resolutionError reports the table and key the store could not find,
// preferring the store's own view of them.
func resolutionError(scheme models.Scheme, table, key string, err error) *models.ResolutionError {
	var keyErr *ratetable.KeyError
	if errors.As(err, &keyErr) {
		if keyErr.Table != "" {
			table = keyErr.Table
		}
		key = keyErr.Key
	}
	return &models.ResolutionError{Scheme: scheme, Table: table, Key: key, Err: err}
}
