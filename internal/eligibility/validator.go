package eligibility

import (
	"fmt"

	"msme-roi-engine/internal/models"
)

// Validate applies rule to a request that already passed input validation.
// Scheme permissions are checked first, then collateral floors, then the
// fields the amount makes mandatory.
func Validate(rule SchemeRule, req *models.LoanRequest) models.EligibilityResult {
	if res := checkScheme(rule, req); !res.Eligible {
		return res
	}
	if res := checkCollateralFloors(rule, req); !res.Eligible {
		return res
	}
	return checkMandatoryFields(rule, req)
}

func checkScheme(rule SchemeRule, req *models.LoanRequest) models.EligibilityResult {
	if !rule.PermitsLoanType(req.LoanType) {
		return models.Ineligible(models.ReasonLoanTypeNotPermitted,
			fmt.Sprintf("%s does not offer %s", rule.Scheme, req.LoanType))
	}

	if !rule.PermitsSecurityType(req.SecurityType) {
		return models.Ineligible(models.ReasonSecurityTypeNotPermitted,
			fmt.Sprintf("%s does not accept %s security", rule.Scheme, req.SecurityType))
	}

	if !rule.MaxAmount.IsZero() && req.Amount.GreaterThan(rule.MaxAmount) {
		return models.Ineligible(models.ReasonAmountAboveSchemeLimit,
			fmt.Sprintf("amount %sL exceeds %s limit of %sL", req.Amount, rule.Scheme, rule.MaxAmount))
	}

	if req.SecurityType == models.SecurityCGTMSE && !rule.GuaranteeCap.IsZero() && req.Amount.GreaterThan(rule.GuaranteeCap) {
		return models.Ineligible(models.ReasonGuaranteeCoverExceeded,
			fmt.Sprintf("amount %sL exceeds guarantee cover of %sL", req.Amount, rule.GuaranteeCap))
	}

	if rule.WorstRating != "" && req.InternalRating != "" && req.InternalRating.WorseThan(rule.WorstRating) {
		return models.Ineligible(models.ReasonRatingBelowMinimum,
			fmt.Sprintf("%s is below the %s minimum of %s", req.InternalRating, rule.Scheme, rule.WorstRating))
	}

	return models.Eligible()
}

func checkCollateralFloors(rule SchemeRule, req *models.LoanRequest) models.EligibilityResult {
	for _, floor := range rule.CollateralFloors {
		if !floor.Matches(req) {
			continue
		}
		if !req.CollateralCoverage.AtLeast(floor.Minimum) {
			return models.Ineligible(models.ReasonInsufficientCollateral,
				fmt.Sprintf("coverage %s is below the required %s", req.CollateralCoverage, floor.Minimum))
		}
	}
	return models.Eligible()
}

func checkMandatoryFields(rule SchemeRule, req *models.LoanRequest) models.EligibilityResult {
	regime := rule.Regime(req.Amount)

	if regime != models.RegimeSmall && req.InternalRating == "" {
		return models.Ineligible(models.ReasonMissingInternalRating,
			fmt.Sprintf("internal rating is required above %sL", rule.FlatBandCeiling))
	}

	if regime == models.RegimeLarge && req.ExternalRating == "" {
		return models.Ineligible(models.ReasonMissingExternalRating,
			fmt.Sprintf("external rating is required above %sL", rule.LargeFloor))
	}

	if rule.TenureApplies(req) && req.Tenure == "" {
		return models.Ineligible(models.ReasonMissingTenure,
			fmt.Sprintf("tenure is required for term loans above %sL", rule.TenureThreshold))
	}

	return models.Eligible()
}
