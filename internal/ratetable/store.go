// Package ratetable holds the immutable spread, premium and concession tables
// the resolver reads from. A Store is built once and never mutated, so it can
// be shared by any number of goroutines without locking.
package ratetable

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"msme-roi-engine/internal/models"
)

// TableKind says how a table is keyed.
type TableKind string

const (
	KindAmountBand           TableKind = "amount_band"
	KindRatingFlat           TableKind = "rating_flat"
	KindRatingExternal       TableKind = "rating_external"
	KindRatingCollateral     TableKind = "rating_collateral"
	KindTenurePremium        TableKind = "tenure_premium"
	KindCollateralConcession TableKind = "collateral_concession"
)

// ValidKinds returns every table kind.
func ValidKinds() []TableKind {
	return []TableKind{
		KindAmountBand,
		KindRatingFlat,
		KindRatingExternal,
		KindRatingCollateral,
		KindTenurePremium,
		KindCollateralConcession,
	}
}

// IsValid checks if the kind is known.
func (k TableKind) IsValid() bool {
	for _, valid := range ValidKinds() {
		if k == valid {
			return true
		}
	}
	return false
}

// Lookup is a resolved table value and the path that produced it.
type Lookup struct {
	Value  decimal.Decimal
	Source string
}

// KeyError is returned when a table or key is absent. It unwraps to
// models.ErrUnknownKey.
type KeyError struct {
	Table string
	Key   string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%v: %s[%s]", models.ErrUnknownKey, e.Table, e.Key)
}

func (e *KeyError) Unwrap() error { return models.ErrUnknownKey }

type amountBand struct {
	upTo   decimal.Decimal
	spread decimal.Decimal
}

type cell struct {
	tier string
	sub  string
}

type ratingTable struct {
	kind      TableKind
	collapsed bool
	cells     map[cell]decimal.Decimal
}

// Store is a read-only set of rate tables.
type Store struct {
	version      string
	amountBands  map[string][]amountBand
	ratings      map[string]*ratingTable
	tenureID     string
	tenure       map[models.TenureBand]decimal.Decimal
	concessionID string
	concession   map[models.CollateralBand]decimal.Decimal
}

// Version identifies the data set the store was built from.
func (s *Store) Version() string {
	return s.version
}

// Kind returns the kind of the named table.
func (s *Store) Kind(tableID string) (TableKind, bool) {
	if _, ok := s.amountBands[tableID]; ok {
		return KindAmountBand, true
	}
	if t, ok := s.ratings[tableID]; ok {
		return t.kind, true
	}
	switch tableID {
	case "":
		return "", false
	case s.tenureID:
		return KindTenurePremium, true
	case s.concessionID:
		return KindCollateralConcession, true
	}
	return "", false
}

// Collapsed reports whether a rating table keys CR8..CR10 as one tier.
func (s *Store) Collapsed(tableID string) bool {
	t, ok := s.ratings[tableID]
	return ok && t.collapsed
}

// AmountCeiling returns the upper bound of the last band of an amount table.
func (s *Store) AmountCeiling(tableID string) (decimal.Decimal, bool) {
	bands, ok := s.amountBands[tableID]
	if !ok || len(bands) == 0 {
		return decimal.Zero, false
	}
	return bands[len(bands)-1].upTo, true
}

// BaseSpreadForAmount returns the flat spread of the first band whose
// inclusive upper bound is at or above amount. An amount above every band is
// an unknown key; callers must use a rating table for it.
func (s *Store) BaseSpreadForAmount(tableID string, amount decimal.Decimal) (Lookup, error) {
	bands, ok := s.amountBands[tableID]
	if !ok {
		return Lookup{}, &KeyError{Table: tableID, Key: amount.String()}
	}
	for _, b := range bands {
		if amount.LessThanOrEqual(b.upTo) {
			return Lookup{
				Value:  b.spread,
				Source: fmt.Sprintf("%s[<=%s]", tableID, b.upTo.String()),
			}, nil
		}
	}
	return Lookup{}, &KeyError{Table: tableID, Key: amount.String()}
}

// RatingSpread looks up a tier in a flat rating table, or a tier and
// collateral band in a collateral-nested table. The band is ignored by flat
// tables.
func (s *Store) RatingSpread(tableID string, tier models.InternalRating, band models.CollateralBand) (Lookup, error) {
	t, ok := s.ratings[tableID]
	if !ok {
		return Lookup{}, &KeyError{Table: tableID, Key: string(tier)}
	}

	key := cell{tier: tier.TableKey(t.collapsed)}
	switch t.kind {
	case KindRatingFlat:
	case KindRatingCollateral:
		key.sub = string(band)
	default:
		return Lookup{}, fmt.Errorf("table %s is %s, not a rating table: %w", tableID, t.kind, models.ErrUnknownKey)
	}

	return t.get(tableID, key)
}

// ExternalRatingSpread looks up a tier and external rating in a large
// exposure matrix. Short-term ratings resolve through their declared
// long-term equivalent.
func (s *Store) ExternalRatingSpread(tableID string, tier models.InternalRating, ext models.ExternalRating) (Lookup, error) {
	t, ok := s.ratings[tableID]
	if !ok {
		return Lookup{}, &KeyError{Table: tableID, Key: string(tier) + "][" + string(ext)}
	}
	if t.kind != KindRatingExternal {
		return Lookup{}, fmt.Errorf("table %s is %s, not an external rating matrix: %w", tableID, t.kind, models.ErrUnknownKey)
	}

	return t.get(tableID, cell{tier: tier.TableKey(t.collapsed), sub: string(ext.LongTerm())})
}

// TenurePremium returns the premium for a tenure band.
func (s *Store) TenurePremium(band models.TenureBand) (Lookup, error) {
	v, ok := s.tenure[band]
	if !ok {
		return Lookup{}, &KeyError{Table: s.tenureID, Key: string(band)}
	}
	return Lookup{Value: v, Source: fmt.Sprintf("%s[%s]", s.tenureID, band)}, nil
}

// CollateralConcession returns the concession for a coverage band.
func (s *Store) CollateralConcession(band models.CollateralBand) (Lookup, error) {
	v, ok := s.concession[band]
	if !ok {
		return Lookup{}, &KeyError{Table: s.concessionID, Key: string(band)}
	}
	return Lookup{Value: v, Source: fmt.Sprintf("%s[%s]", s.concessionID, band)}, nil
}

func (t *ratingTable) get(tableID string, key cell) (Lookup, error) {
	v, ok := t.cells[key]
	if !ok {
		k := key.tier
		if key.sub != "" {
			k += "][" + key.sub
		}
		return Lookup{}, &KeyError{Table: tableID, Key: k}
	}
	source := fmt.Sprintf("%s[%s]", tableID, key.tier)
	if key.sub != "" {
		source += "[" + key.sub + "]"
	}
	return Lookup{Value: v, Source: source}, nil
}

// Entries flattens the store back into rows, ordered by table and key.
func (s *Store) Entries() []Entry {
	var entries []Entry

	for id, bands := range s.amountBands {
		for _, b := range bands {
			entries = append(entries, Entry{TableID: id, Kind: KindAmountBand, Key: b.upTo.String(), Value: b.spread})
		}
	}
	for id, t := range s.ratings {
		for c, v := range t.cells {
			entries = append(entries, Entry{TableID: id, Kind: t.kind, Key: c.tier, SubKey: c.sub, Value: v})
		}
	}
	for band, v := range s.tenure {
		entries = append(entries, Entry{TableID: s.tenureID, Kind: KindTenurePremium, Key: string(band), Value: v})
	}
	for band, v := range s.concession {
		entries = append(entries, Entry{TableID: s.concessionID, Kind: KindCollateralConcession, Key: string(band), Value: v})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TableID != b.TableID {
			return a.TableID < b.TableID
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.SubKey < b.SubKey
	})
	return entries
}
