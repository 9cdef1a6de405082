package models

import (
	"strings"
)

// normalizeToken lowercases and strips separators that vary between
// front-ends ("Term Loan", "term-loan", "TERM_LOAN").
func normalizeToken(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized
}

// normalizeBand strips spaces and percent signs and unifies range dashes, so
// "75 - 100 %", "75–100%" and "75-100" compare equal.
func normalizeBand(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "", "%", "", "–", "-", "—", "-", "to", "-", "years", "y", "yrs", "y", "yr", "y").Replace(normalized)
	return normalized
}

var schemeAliases = map[string]Scheme{
	"general":           SchemeGeneral,
	"none":              SchemeGeneral,
	"msme":              SchemeGeneral,
	"default":           SchemeGeneral,
	"startup":           SchemeStartUp,
	"start_up":          SchemeStartUp,
	"union_start_up":    SchemeStartUp,
	"union_startup":     SchemeStartUp,
	"mudra":             SchemeMudra,
	"pmmy":              SchemeMudra,
	"digi_msme":         SchemeDigiMSME,
	"digimsme":          SchemeDigiMSME,
	"union_digi_msme":   SchemeDigiMSME,
	"digital":           SchemeDigiMSME,
	"nari_shakti":       SchemeNariShakti,
	"narishakti":        SchemeNariShakti,
	"union_nari_shakti": SchemeNariShakti,
	"women":             SchemeNariShakti,
}

var loanTypeAliases = map[string]LoanType{
	"cash_credit":     LoanTypeCashCredit,
	"cashcredit":      LoanTypeCashCredit,
	"cc":              LoanTypeCashCredit,
	"working_capital": LoanTypeCashCredit,
	"wc":              LoanTypeCashCredit,
	"term_loan":       LoanTypeTermLoan,
	"termloan":        LoanTypeTermLoan,
	"tl":              LoanTypeTermLoan,
	"overdraft":       LoanTypeOverdraft,
	"od":              LoanTypeOverdraft,
}

var securityTypeAliases = map[string]SecurityType{
	"collateral":         SecurityCollateral,
	"collateral_backed":  SecurityCollateral,
	"secured":            SecurityCollateral,
	"cgtmse":             SecurityCGTMSE,
	"cgfmu":              SecurityCGTMSE,
	"guarantee":          SecurityCGTMSE,
	"credit_guarantee":   SecurityCGTMSE,
	"hybrid":             SecurityHybrid,
	"cgtmse_collateral":  SecurityHybrid,
	"partial_collateral": SecurityHybrid,
}

var collateralBandAliases = map[string]CollateralBand{
	"lt50":    CollateralBelow50,
	"<50":     CollateralBelow50,
	"0-50":    CollateralBelow50,
	"50-75":   Collateral50To75,
	"75-100":  Collateral75To100,
	"100-125": Collateral100To125,
	"125-150": Collateral125To150,
	"gte150":  Collateral150OrMore,
	">=150":   Collateral150OrMore,
	"≥150":    Collateral150OrMore,
	"150+":    Collateral150OrMore,
}

var tenureBandAliases = map[string]TenureBand{
	"1-3y":    Tenure1To3Years,
	"1-3":     Tenure1To3Years,
	"3-5y":    Tenure3To5Years,
	"3-5":     Tenure3To5Years,
	"5-10y":   Tenure5To10Years,
	"5-10":    Tenure5To10Years,
	"gt10y":   TenureOver10Years,
	">10y":    TenureOver10Years,
	">10":     TenureOver10Years,
	"10+":     TenureOver10Years,
	"10y+":    TenureOver10Years,
	"above10": TenureOver10Years,
}

var externalRatingAliases = map[string]ExternalRating{
	"aaa":        ExternalAAA,
	"aa":         ExternalAA,
	"a":          ExternalA,
	"bbb":        ExternalBBB,
	"bb&below":   ExternalBBOrBelow,
	"bb":         ExternalBBOrBelow,
	"bbandbelow": ExternalBBOrBelow,
	"unrated":    ExternalBBOrBelow,
	"a1+":        ExternalA1Plus,
	"a1":         ExternalA1,
	"a2":         ExternalA2,
	"a3":         ExternalA3,
}

// ParseScheme maps a loose scheme name onto a Scheme. Empty input yields an
// empty scheme and no error.
func ParseScheme(s string) (Scheme, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	if v, ok := schemeAliases[normalizeToken(s)]; ok {
		return v, nil
	}
	return "", NewInvalidInput("scheme", s, ErrUnknownScheme)
}

// ParseLoanType maps a loose loan type onto a LoanType.
func ParseLoanType(s string) (LoanType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	if v, ok := loanTypeAliases[normalizeToken(s)]; ok {
		return v, nil
	}
	return "", NewInvalidInput("loan_type", s, ErrUnknownEnumValue)
}

// ParseSecurityType maps a loose security description onto a SecurityType.
func ParseSecurityType(s string) (SecurityType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	if v, ok := securityTypeAliases[normalizeToken(s)]; ok {
		return v, nil
	}
	return "", NewInvalidInput("security_type", s, ErrUnknownEnumValue)
}

// ParseCollateralBand maps "75-100%", "<50%", "≥150%" and similar onto a band.
func ParseCollateralBand(s string) (CollateralBand, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	if v, ok := collateralBandAliases[normalizeBand(s)]; ok {
		return v, nil
	}
	return "", NewInvalidInput("collateral_coverage", s, ErrUnknownEnumValue)
}

// ParseTenureBand maps "1-3", "1–3y", ">10y", "10+" and similar onto a band.
func ParseTenureBand(s string) (TenureBand, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	if v, ok := tenureBandAliases[normalizeBand(s)]; ok {
		return v, nil
	}
	return "", NewInvalidInput("tenure", s, ErrUnknownEnumValue)
}

// ParseInternalRating accepts "CR3", "cr3" or "3".
func ParseInternalRating(s string) (InternalRating, error) {
	trimmed := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if trimmed == "" {
		return "", nil
	}
	if !strings.HasPrefix(trimmed, "CR") {
		trimmed = "CR" + trimmed
	}
	r := InternalRating(trimmed)
	if !r.IsValid() {
		return "", NewInvalidInput("internal_rating", s, ErrUnknownEnumValue)
	}
	return r, nil
}

// ParseExternalRating maps agency notations onto an ExternalRating. Short-term
// ratings are kept as given; tables resolve them through LongTerm.
func ParseExternalRating(s string) (ExternalRating, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	normalized := strings.ToLower(strings.NewReplacer(" ", "", "/", "").Replace(strings.TrimSpace(s)))
	if v, ok := externalRatingAliases[normalized]; ok {
		return v, nil
	}
	return "", NewInvalidInput("external_rating", s, ErrUnknownEnumValue)
}
