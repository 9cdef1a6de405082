package ratetable

import (
	"github.com/shopspring/decimal"

	"msme-roi-engine/internal/models"
)

// BuiltinVersion identifies the tables compiled into the binary.
const BuiltinVersion = "builtin-2024.10"

// Table ids referenced by the scheme rules.
const (
	TableBaseGeneral    = "base-general"
	TableBaseStartUp    = "base-startup"
	TableBaseMudra      = "base-mudra"
	TableBaseDigiMSME   = "base-digi-msme"
	TableBaseNariShakti = "base-nari-shakti"

	TableRatingMidStandard  = "rating-mid-standard"
	TableRatingMidCollapsed = "rating-mid-collapsed"
	TableRatingDigiMSME     = "rating-digi-msme-collateral"
	TableRatingLarge        = "rating-large-standard"

	TableTenurePremium        = "tenure-premium"
	TableCollateralConcession = "collateral-concession"
)

type bandRow struct {
	upTo   string
	spread string
}

// Flat spreads by amount band (lakhs, inclusive upper bound).
var builtinAmountBands = map[string][]bandRow{
	TableBaseGeneral:    {{"0.5", "1.50"}, {"2", "1.75"}, {"10", "2.00"}, {"50", "2.25"}},
	TableBaseStartUp:    {{"2", "1.50"}, {"10", "1.75"}},
	TableBaseMudra:      {{"0.5", "1.60"}, {"5", "1.85"}, {"10", "2.10"}, {"20", "2.35"}},
	TableBaseDigiMSME:   {{"2", "1.60"}, {"10", "1.85"}},
	TableBaseNariShakti: {{"2", "1.40"}, {"10", "1.65"}},
}

// Flat spreads by internal rating.
var builtinFlatRatings = map[string]map[string]string{
	TableRatingMidStandard: {
		"CR1": "0.50", "CR2": "0.75", "CR3": "1.75", "CR4": "2.00", "CR5": "3.50",
		"CR6": "6.85", "CR7": "6.95", "CR8": "7.05", "CR9": "7.05", "CR10": "7.05",
	},
	TableRatingMidCollapsed: {
		"CR1": "0.45", "CR2": "0.70", "CR3": "1.60", "CR4": "1.85", "CR5": "3.25",
		"CR6": "6.50", "CR7": "6.75", models.CollapsedHighRiskTier: "7.00",
	},
}

var externalColumns = []models.ExternalRating{
	models.ExternalAAA, models.ExternalAA, models.ExternalA, models.ExternalBBB, models.ExternalBBOrBelow,
}

// Large exposure spreads, internal rating x external rating.
var builtinExternalMatrix = map[string]map[string][]string{
	TableRatingLarge: {
		//                           AAA     AA      A       BBB     BB&Below
		"CR1":                        {"0.25", "0.35", "0.50", "0.75", "1.00"},
		"CR2":                        {"0.40", "0.50", "0.65", "0.90", "1.15"},
		"CR3":                        {"1.00", "1.15", "1.35", "1.60", "1.90"},
		"CR4":                        {"1.25", "1.40", "1.60", "1.85", "2.15"},
		"CR5":                        {"2.50", "2.65", "2.90", "3.20", "3.50"},
		"CR6":                        {"5.50", "5.70", "6.00", "6.35", "6.85"},
		"CR7":                        {"5.75", "5.95", "6.25", "6.60", "6.95"},
		models.CollapsedHighRiskTier: {"6.00", "6.25", "6.55", "6.90", "7.05"},
	},
}

var collateralColumns = models.ValidCollateralBands()

// Mid-regime spreads nested by collateral coverage, internal rating x band.
var builtinCollateralMatrix = map[string]map[string][]string{
	TableRatingDigiMSME: {
		//                           <50     50-75   75-100  100-125 125-150 >=150
		"CR1":                        {"0.90", "0.80", "0.70", "0.60", "0.55", "0.50"},
		"CR2":                        {"1.15", "1.05", "0.95", "0.85", "0.80", "0.75"},
		"CR3":                        {"2.15", "2.05", "1.95", "1.85", "1.80", "1.75"},
		"CR4":                        {"2.40", "2.30", "2.20", "2.10", "2.05", "2.00"},
		"CR5":                        {"3.90", "3.80", "3.70", "3.60", "3.55", "3.50"},
		"CR6":                        {"7.25", "7.15", "7.05", "6.95", "6.90", "6.85"},
		"CR7":                        {"7.35", "7.25", "7.15", "7.05", "7.00", "6.95"},
		models.CollapsedHighRiskTier: {"7.45", "7.35", "7.25", "7.15", "7.10", "7.05"},
	},
}

var builtinTenurePremium = map[models.TenureBand]string{
	models.Tenure1To3Years:   "0.10",
	models.Tenure3To5Years:   "0.25",
	models.Tenure5To10Years:  "0.50",
	models.TenureOver10Years: "1.00",
}

var builtinConcession = map[models.CollateralBand]string{
	models.CollateralBelow50:   "0.00",
	models.Collateral50To75:    "0.05",
	models.Collateral75To100:   "0.10",
	models.Collateral100To125:  "0.20",
	models.Collateral125To150:  "0.25",
	models.Collateral150OrMore: "0.50",
}

// BuiltinEntries returns the compiled-in tables as flat rows.
func BuiltinEntries() []Entry {
	var entries []Entry
	d := decimal.RequireFromString

	for id, rows := range builtinAmountBands {
		for _, r := range rows {
			entries = append(entries, Entry{TableID: id, Kind: KindAmountBand, Key: r.upTo, Value: d(r.spread)})
		}
	}
	for id, tiers := range builtinFlatRatings {
		for tier, v := range tiers {
			entries = append(entries, Entry{TableID: id, Kind: KindRatingFlat, Key: tier, Value: d(v)})
		}
	}
	for id, tiers := range builtinExternalMatrix {
		for tier, row := range tiers {
			for i, v := range row {
				entries = append(entries, Entry{TableID: id, Kind: KindRatingExternal, Key: tier, SubKey: string(externalColumns[i]), Value: d(v)})
			}
		}
	}
	for id, tiers := range builtinCollateralMatrix {
		for tier, row := range tiers {
			for i, v := range row {
				entries = append(entries, Entry{TableID: id, Kind: KindRatingCollateral, Key: tier, SubKey: string(collateralColumns[i]), Value: d(v)})
			}
		}
	}
	for band, v := range builtinTenurePremium {
		entries = append(entries, Entry{TableID: TableTenurePremium, Kind: KindTenurePremium, Key: string(band), Value: d(v)})
	}
	for band, v := range builtinConcession {
		entries = append(entries, Entry{TableID: TableCollateralConcession, Kind: KindCollateralConcession, Key: string(band), Value: d(v)})
	}

	return entries
}

// Builtin returns a store over the compiled-in tables.
func Builtin() *Store {
	return MustBuild(BuiltinVersion, BuiltinEntries())
}
