package resolver

import (
	"fmt"

	"msme-roi-engine/internal/eligibility"
	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/ratetable"
)

// AuditCoverage walks every table key a legal request can reach under rules
// and returns one *models.ResolutionError per gap. An empty result means no
// eligible request can fail resolution against store.
func AuditCoverage(store *ratetable.Store, rules []eligibility.SchemeRule) []error {
	var gaps []error
	for _, rule := range rules {
		gaps = append(gaps, auditRule(store, rule)...)
	}
	return gaps
}

func auditRule(store *ratetable.Store, rule eligibility.SchemeRule) []error {
	var gaps []error
	gap := func(table, key string, err error) {
		gaps = append(gaps, resolutionError(rule.Scheme, table, key, err))
	}

	ceiling, ok := store.AmountCeiling(rule.AmountBandTable)
	switch {
	case !ok:
		gap(rule.AmountBandTable, "", models.ErrUnknownKey)
	case ceiling.LessThan(rule.FlatBandCeiling):
		gap(rule.AmountBandTable, rule.FlatBandCeiling.String(),
			fmt.Errorf("bands end at %s: %w", ceiling, models.ErrUnknownKey))
	}

	tiers := permittedTiers(rule)
	bands := models.ValidCollateralBands()

	if midReachable(rule) {
		kind, _ := store.Kind(rule.MidTable)
		for _, tier := range tiers {
			if kind != ratetable.KindRatingCollateral {
				if _, err := store.RatingSpread(rule.MidTable, tier, ""); err != nil {
					gap(rule.MidTable, string(tier), err)
				}
				continue
			}
			if rule.PermitsSecurityType(models.SecurityCGTMSE) {
				gap(rule.MidTable, string(tier), fmt.Errorf("guarantee-backed loans carry no collateral band: %w", models.ErrUnknownKey))
			}
			for _, band := range bands {
				if _, err := store.RatingSpread(rule.MidTable, tier, band); err != nil {
					gap(rule.MidTable, string(tier)+"]["+string(band), err)
				}
			}
		}
	}

	if largeReachable(rule) {
		for _, tier := range tiers {
			for _, ext := range models.LongTermExternalRatings() {
				if _, err := store.ExternalRatingSpread(rule.LargeTable, tier, ext); err != nil {
					gap(rule.LargeTable, string(tier)+"]["+string(ext), err)
				}
			}
		}
	}

	if rule.PermitsLoanType(models.LoanTypeTermLoan) && !rule.TenureEmbedded {
		for _, band := range models.ValidTenureBands() {
			if _, err := store.TenurePremium(band); err != nil {
				gap(ratetable.TableTenurePremium, string(band), err)
			}
		}
	}

	if len(rule.ConcessionSecurity) > 0 {
		for _, band := range bands {
			if _, err := store.CollateralConcession(band); err != nil {
				gap(ratetable.TableCollateralConcession, string(band), err)
			}
		}
	}

	return gaps
}

func permittedTiers(rule eligibility.SchemeRule) []models.InternalRating {
	var tiers []models.InternalRating
	for _, tier := range models.ValidInternalRatings() {
		if rule.WorstRating != "" && tier.WorseThan(rule.WorstRating) {
			break
		}
		tiers = append(tiers, tier)
	}
	return tiers
}

func midReachable(rule eligibility.SchemeRule) bool {
	if !rule.MaxAmount.IsZero() && rule.MaxAmount.LessThanOrEqual(rule.FlatBandCeiling) {
		return false
	}
	return rule.LargeFloor.IsZero() || rule.LargeFloor.GreaterThan(rule.FlatBandCeiling)
}

func largeReachable(rule eligibility.SchemeRule) bool {
	if rule.LargeFloor.IsZero() {
		return false
	}
	return rule.MaxAmount.IsZero() || rule.MaxAmount.GreaterThan(rule.LargeFloor)
}
