package eligibility_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-roi-engine/internal/eligibility"
	"msme-roi-engine/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rule(t *testing.T, scheme models.Scheme) eligibility.SchemeRule {
	t.Helper()
	r, ok := eligibility.RuleFor(scheme)
	require.True(t, ok, "no rule for %s", scheme)
	return r
}

func generalRequest() *models.LoanRequest {
	return &models.LoanRequest{
		BenchmarkRate:      dec("8.25"),
		Amount:             dec("40"),
		Scheme:             models.SchemeGeneral,
		LoanType:           models.LoanTypeCashCredit,
		SecurityType:       models.SecurityCollateral,
		CollateralCoverage: models.Collateral75To100,
	}
}

func TestRules_CoverEveryScheme(t *testing.T) {
	all := eligibility.Rules()
	require.Len(t, all, len(models.ValidSchemes()))

	for i, s := range models.ValidSchemes() {
		assert.Equal(t, s, all[i].Scheme)
		assert.NotEmpty(t, all[i].AmountBandTable, "%s has no amount band table", s)
		assert.NotEmpty(t, all[i].LoanTypes)
		assert.NotEmpty(t, all[i].SecurityTypes)
	}

	_, ok := eligibility.RuleFor("unknown")
	assert.False(t, ok)
}

func TestRegime_BoundariesAreInclusive(t *testing.T) {
	general := rule(t, models.SchemeGeneral)

	assert.Equal(t, models.RegimeSmall, general.Regime(dec("50")))
	assert.Equal(t, models.RegimeMid, general.Regime(dec("50.01")))
	assert.Equal(t, models.RegimeMid, general.Regime(dec("2500")))
	assert.Equal(t, models.RegimeLarge, general.Regime(dec("2500.01")))

	mudra := rule(t, models.SchemeMudra)
	assert.Equal(t, models.RegimeSmall, mudra.Regime(dec("20")))
}

func TestValidate_Eligible(t *testing.T) {
	res := eligibility.Validate(rule(t, models.SchemeGeneral), generalRequest())
	assert.True(t, res.Eligible)
	assert.NoError(t, res.Err())
}

func TestValidate_SchemeChecks(t *testing.T) {
	tests := []struct {
		name   string
		scheme models.Scheme
		mutate func(r *models.LoanRequest)
		want   models.IneligibleReason
	}{
		{
			name:   "overdraft not offered by startup",
			scheme: models.SchemeStartUp,
			mutate: func(r *models.LoanRequest) { r.LoanType = models.LoanTypeOverdraft },
			want:   models.ReasonLoanTypeNotPermitted,
		},
		{
			name:   "mudra is guarantee only",
			scheme: models.SchemeMudra,
			mutate: func(r *models.LoanRequest) { r.Amount = dec("5") },
			want:   models.ReasonSecurityTypeNotPermitted,
		},
		{
			name:   "digi msme rejects cgtmse",
			scheme: models.SchemeDigiMSME,
			mutate: func(r *models.LoanRequest) {
				r.SecurityType = models.SecurityCGTMSE
				r.CollateralCoverage = ""
			},
			want: models.ReasonSecurityTypeNotPermitted,
		},
		{
			name:   "mudra limit",
			scheme: models.SchemeMudra,
			mutate: func(r *models.LoanRequest) {
				r.Amount = dec("20.5")
				r.SecurityType = models.SecurityCGTMSE
				r.CollateralCoverage = ""
			},
			want: models.ReasonAmountAboveSchemeLimit,
		},
		{
			name:   "guarantee cover",
			scheme: models.SchemeGeneral,
			mutate: func(r *models.LoanRequest) {
				r.Amount = dec("600")
				r.SecurityType = models.SecurityCGTMSE
				r.CollateralCoverage = ""
				r.InternalRating = "CR2"
			},
			want: models.ReasonGuaranteeCoverExceeded,
		},
		{
			name:   "startup minimum rating",
			scheme: models.SchemeStartUp,
			mutate: func(r *models.LoanRequest) {
				r.Amount = dec("100")
				r.InternalRating = "CR7"
			},
			want: models.ReasonRatingBelowMinimum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := generalRequest()
			req.Scheme = tt.scheme
			tt.mutate(req)

			res := eligibility.Validate(rule(t, tt.scheme), req)
			assert.False(t, res.Eligible)
			assert.Equal(t, tt.want, res.Reason)
			assert.NotEmpty(t, res.Detail)

			var ineligible *models.IneligibleError
			require.ErrorAs(t, res.Err(), &ineligible)
			assert.Equal(t, tt.want, ineligible.Result.Reason)
		})
	}
}

func TestValidate_GuaranteeCapIsInclusive(t *testing.T) {
	req := generalRequest()
	req.Amount = dec("500")
	req.SecurityType = models.SecurityCGTMSE
	req.CollateralCoverage = ""
	req.InternalRating = "CR2"

	res := eligibility.Validate(rule(t, models.SchemeGeneral), req)
	assert.True(t, res.Eligible)
}

func TestValidate_MandatoryFields(t *testing.T) {
	general := rule(t, models.SchemeGeneral)

	t.Run("internal rating above flat ceiling", func(t *testing.T) {
		req := generalRequest()
		req.Amount = dec("100")

		res := eligibility.Validate(general, req)
		assert.Equal(t, models.ReasonMissingInternalRating, res.Reason)
	})

	t.Run("not required on the boundary", func(t *testing.T) {
		req := generalRequest()
		req.Amount = dec("50")

		assert.True(t, eligibility.Validate(general, req).Eligible)
	})

	t.Run("external rating in large regime", func(t *testing.T) {
		req := generalRequest()
		req.Amount = dec("6000")
		req.InternalRating = "CR2"

		res := eligibility.Validate(general, req)
		assert.Equal(t, models.ReasonMissingExternalRating, res.Reason)
	})

	t.Run("tenure for term loans above threshold", func(t *testing.T) {
		req := generalRequest()
		req.LoanType = models.LoanTypeTermLoan
		req.Amount = dec("10.5")

		res := eligibility.Validate(general, req)
		assert.Equal(t, models.ReasonMissingTenure, res.Reason)

		req.Amount = dec("10")
		assert.True(t, eligibility.Validate(general, req).Eligible)
	})

	t.Run("mudra embeds tenure", func(t *testing.T) {
		req := &models.LoanRequest{
			BenchmarkRate: dec("8.25"),
			Amount:        dec("15"),
			Scheme:        models.SchemeMudra,
			LoanType:      models.LoanTypeTermLoan,
			SecurityType:  models.SecurityCGTMSE,
		}
		assert.True(t, eligibility.Validate(rule(t, models.SchemeMudra), req).Eligible)
	})
}

func TestValidate_CollateralFloorBeforeMandatoryFields(t *testing.T) {
	req := generalRequest()
	req.LoanType = models.LoanTypeTermLoan
	req.Amount = dec("100")
	req.CollateralCoverage = models.CollateralBelow50

	// Both the floor and the missing rating fail; the floor is reported.
	res := eligibility.Validate(rule(t, models.SchemeGeneral), req)
	assert.Equal(t, models.ReasonInsufficientCollateral, res.Reason)
}

func TestValidate_EveryDeclaredFloorRejects(t *testing.T) {
	for _, r := range eligibility.Rules() {
		for i, floor := range r.CollateralFloors {
			req := floorRequest(r, floor)

			below := models.ValidCollateralBands()[floor.Minimum.Rank()-1]
			req.CollateralCoverage = below
			res := eligibility.Validate(r, req)
			assert.False(t, res.Eligible, "%s floor %d at %s", r.Scheme, i, below)
			assert.Equal(t, models.ReasonInsufficientCollateral, res.Reason, "%s floor %d", r.Scheme, i)

			req.CollateralCoverage = models.Collateral150OrMore
			res = eligibility.Validate(r, req)
			assert.True(t, res.Eligible, "%s floor %d: %s", r.Scheme, i, res.Detail)
		}
	}
}

// floorRequest builds a small-regime request the floor applies to.
func floorRequest(r eligibility.SchemeRule, floor eligibility.CollateralFloor) *models.LoanRequest {
	loanType := r.LoanTypes[0]
	if len(floor.LoanTypes) > 0 {
		loanType = floor.LoanTypes[0]
	}

	security := models.SecurityCollateral
	if len(floor.SecurityTypes) > 0 {
		security = floor.SecurityTypes[0]
	}

	tier := models.InternalRating("CR1")
	if floor.FromTier != "" {
		tier = floor.FromTier
	}

	return &models.LoanRequest{
		BenchmarkRate:  dec("8.25"),
		Amount:         dec("1"),
		Scheme:         r.Scheme,
		LoanType:       loanType,
		SecurityType:   security,
		InternalRating: tier,
	}
}

func TestCollateralFloor_TierSelector(t *testing.T) {
	floor := eligibility.CollateralFloor{FromTier: "CR8", Minimum: models.Collateral125To150}

	req := generalRequest()
	req.InternalRating = "CR7"
	assert.False(t, floor.Matches(req))

	for _, tier := range []models.InternalRating{"CR8", "CR9", "CR10"} {
		req.InternalRating = tier
		assert.True(t, floor.Matches(req), tier)
	}

	req.InternalRating = ""
	assert.False(t, floor.Matches(req))

	req.InternalRating = "CR9"
	req.SecurityType = models.SecurityCGTMSE
	req.CollateralCoverage = ""
	assert.False(t, floor.Matches(req))
}

func TestSchemeRule_Adjustment(t *testing.T) {
	digi := rule(t, models.SchemeDigiMSME)

	assert.True(t, dec("-0.75").Equal(digi.Adjustment(models.LoanTypeCashCredit, models.SecurityCollateral)))
	assert.True(t, dec("-0.50").Equal(digi.Adjustment(models.LoanTypeOverdraft, models.SecurityCollateral)))

	assert.True(t, digi.ConcessionApplies(models.SecurityCollateral))
	assert.False(t, digi.ConcessionApplies(models.SecurityHybrid))

	general := rule(t, models.SchemeGeneral)
	assert.False(t, general.ConcessionApplies(models.SecurityCGTMSE))
}

func TestSchemeRule_GuaranteeDiscount(t *testing.T) {
	tests := []struct {
		scheme models.Scheme
		want   string
	}{
		{models.SchemeGeneral, "-0.25"},
		{models.SchemeStartUp, "-0.75"},
		{models.SchemeNariShakti, "-0.30"},
		{models.SchemeMudra, "0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			r := rule(t, tt.scheme)
			got := r.Adjustment(models.LoanTypeCashCredit, models.SecurityCGTMSE)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
			assert.False(t, r.ConcessionApplies(models.SecurityCGTMSE))
		})
	}

	general := rule(t, models.SchemeGeneral)
	assert.True(t, decimal.Zero.Equal(general.Adjustment(models.LoanTypeCashCredit, models.SecurityCollateral)))
}

func TestSchemeRule_ToSummary(t *testing.T) {
	mudra := rule(t, models.SchemeMudra).ToSummary()
	require.NotNil(t, mudra.MaxAmount)
	assert.True(t, dec("20").Equal(*mudra.MaxAmount))
	assert.Nil(t, mudra.LargeFloor)
	assert.Nil(t, mudra.TenureThreshold, "tenure is embedded in mudra bands")

	digi := rule(t, models.SchemeDigiMSME).ToSummary()
	assert.True(t, digi.FloorAtBenchmark)
	assert.Nil(t, digi.TenureThreshold, "digi_msme has no term loans")
	require.NotNil(t, digi.LargeFloor)
	assert.True(t, dec("50").Equal(*digi.LargeFloor))

	general := rule(t, models.SchemeGeneral).ToSummary()
	assert.Nil(t, general.MaxAmount)
	require.NotNil(t, general.TenureThreshold)
	assert.True(t, dec("10").Equal(*general.TenureThreshold))
}
