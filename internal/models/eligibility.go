package models

// IneligibleReason is the enumerated scheme-rule violation code.
type IneligibleReason string

const (
	ReasonLoanTypeNotPermitted     IneligibleReason = "loan_type_not_permitted"
	ReasonSecurityTypeNotPermitted IneligibleReason = "security_type_not_permitted"
	ReasonAmountAboveSchemeLimit   IneligibleReason = "amount_above_scheme_limit"
	ReasonGuaranteeCoverExceeded   IneligibleReason = "guarantee_cover_exceeded"
	ReasonRatingBelowMinimum       IneligibleReason = "rating_below_scheme_minimum"
	ReasonInsufficientCollateral   IneligibleReason = "insufficient_collateral"
	ReasonMissingInternalRating    IneligibleReason = "missing_internal_rating"
	ReasonMissingExternalRating    IneligibleReason = "missing_external_rating"
	ReasonMissingTenure            IneligibleReason = "missing_tenure"
)

// EligibilityResult is either eligible, or ineligible with a reason.
type EligibilityResult struct {
	Eligible bool             `json:"eligible"`
	Reason   IneligibleReason `json:"reason,omitempty"`
	Detail   string           `json:"detail,omitempty"`
}

// Eligible returns the passing result.
func Eligible() EligibilityResult {
	return EligibilityResult{Eligible: true}
}

// Ineligible returns a failing result.
func Ineligible(reason IneligibleReason, detail string) EligibilityResult {
	return EligibilityResult{Reason: reason, Detail: detail}
}

// Err returns nil when eligible, an *IneligibleError otherwise.
func (r EligibilityResult) Err() error {
	if r.Eligible {
		return nil
	}
	return &IneligibleError{Result: r}
}
