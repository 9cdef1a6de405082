package ratetable

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"msme-roi-engine/internal/models"
)

// Build errors
var (
	ErrDuplicateEntry  = errors.New("duplicate entry")
	ErrKindConflict    = errors.New("table declared with more than one kind")
	ErrInvalidKey      = errors.New("invalid key")
	ErrInvalidSubKey   = errors.New("invalid sub key")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrMixedCollapse   = errors.New("table mixes CR8-CR10 with individual CR8..CR10 keys")
	ErrSecondTable     = errors.New("only one table of this kind is allowed")
	ErrMissingTable    = errors.New("required table missing")
	ErrEmptyVersion    = errors.New("version cannot be empty")
	ErrInvalidTableRef = errors.New("table id cannot be empty")
)

// Entry is one row of a rate table in flat form, as stored in CSV files and
// in Postgres. Key is a band upper bound (lakhs), an internal rating tier, a
// tenure band or a collateral band depending on Kind; SubKey is the external
// rating or collateral band of nested rating tables.
type Entry struct {
	TableID string          `json:"table_id"`
	Kind    TableKind       `json:"kind"`
	Key     string          `json:"key"`
	SubKey  string          `json:"sub_key,omitempty"`
	Value   decimal.Decimal `json:"value"`
}

// Build validates entries and assembles an immutable Store. All problems are
// reported together.
func Build(version string, entries []Entry) (*Store, error) {
	if version == "" {
		return nil, ErrEmptyVersion
	}

	s := &Store{
		version:     version,
		amountBands: make(map[string][]amountBand),
		ratings:     make(map[string]*ratingTable),
		tenure:      make(map[models.TenureBand]decimal.Decimal),
		concession:  make(map[models.CollateralBand]decimal.Decimal),
	}

	var errs []error
	kinds := make(map[string]TableKind)

	for i, e := range entries {
		if err := s.add(kinds, e); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s %s/%s): %w", i+1, e.TableID, e.Key, e.SubKey, err))
		}
	}

	for id, bands := range s.amountBands {
		sort.Slice(bands, func(i, j int) bool { return bands[i].upTo.LessThan(bands[j].upTo) })
		for i := 1; i < len(bands); i++ {
			if bands[i].upTo.Equal(bands[i-1].upTo) {
				errs = append(errs, fmt.Errorf("%s: band <=%s: %w", id, bands[i].upTo, ErrDuplicateEntry))
			}
		}
		s.amountBands[id] = bands
	}

	for id, t := range s.ratings {
		if err := t.checkCollapse(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}

	if s.tenureID == "" {
		errs = append(errs, fmt.Errorf("%s: %w", KindTenurePremium, ErrMissingTable))
	}
	if s.concessionID == "" {
		errs = append(errs, fmt.Errorf("%s: %w", KindCollateralConcession, ErrMissingTable))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// MustBuild is Build for package-level data that is known to be valid.
func MustBuild(version string, entries []Entry) *Store {
	s, err := Build(version, entries)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) add(kinds map[string]TableKind, e Entry) error {
	if e.TableID == "" {
		return ErrInvalidTableRef
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: kind %q", ErrInvalidKey, e.Kind)
	}
	if prev, ok := kinds[e.TableID]; ok && prev != e.Kind {
		return fmt.Errorf("%w: %s and %s", ErrKindConflict, prev, e.Kind)
	}
	kinds[e.TableID] = e.Kind
	if e.Value.IsNegative() {
		return ErrNegativeValue
	}

	switch e.Kind {
	case KindAmountBand:
		upTo, err := decimal.NewFromString(e.Key)
		if err != nil || !upTo.IsPositive() {
			return fmt.Errorf("%w: band upper bound %q", ErrInvalidKey, e.Key)
		}
		if e.SubKey != "" {
			return fmt.Errorf("%w: amount bands take no sub key", ErrInvalidSubKey)
		}
		s.amountBands[e.TableID] = append(s.amountBands[e.TableID], amountBand{upTo: upTo, spread: e.Value})

	case KindRatingFlat, KindRatingExternal, KindRatingCollateral:
		if !validTierKey(e.Key) {
			return fmt.Errorf("%w: tier %q", ErrInvalidKey, e.Key)
		}
		if err := validSubKey(e.Kind, e.SubKey); err != nil {
			return err
		}
		t, ok := s.ratings[e.TableID]
		if !ok {
			t = &ratingTable{kind: e.Kind, cells: make(map[cell]decimal.Decimal)}
			s.ratings[e.TableID] = t
		}
		c := cell{tier: e.Key, sub: e.SubKey}
		if _, dup := t.cells[c]; dup {
			return ErrDuplicateEntry
		}
		t.cells[c] = e.Value
		if e.Key == models.CollapsedHighRiskTier {
			t.collapsed = true
		}

	case KindTenurePremium:
		if s.tenureID != "" && s.tenureID != e.TableID {
			return ErrSecondTable
		}
		band := models.TenureBand(e.Key)
		if !band.IsValid() {
			return fmt.Errorf("%w: tenure band %q", ErrInvalidKey, e.Key)
		}
		if _, dup := s.tenure[band]; dup {
			return ErrDuplicateEntry
		}
		s.tenureID = e.TableID
		s.tenure[band] = e.Value

	case KindCollateralConcession:
		if s.concessionID != "" && s.concessionID != e.TableID {
			return ErrSecondTable
		}
		band := models.CollateralBand(e.Key)
		if !band.IsValid() {
			return fmt.Errorf("%w: collateral band %q", ErrInvalidKey, e.Key)
		}
		if _, dup := s.concession[band]; dup {
			return ErrDuplicateEntry
		}
		s.concessionID = e.TableID
		s.concession[band] = e.Value
	}

	return nil
}

func validTierKey(key string) bool {
	return key == models.CollapsedHighRiskTier || models.InternalRating(key).IsValid()
}

func validSubKey(kind TableKind, sub string) error {
	switch kind {
	case KindRatingFlat:
		if sub != "" {
			return fmt.Errorf("%w: flat rating tables take no sub key", ErrInvalidSubKey)
		}
	case KindRatingExternal:
		ext := models.ExternalRating(sub)
		if !ext.IsValid() || ext.LongTerm() != ext {
			return fmt.Errorf("%w: external rating %q must be on the long-term scale", ErrInvalidSubKey, sub)
		}
	case KindRatingCollateral:
		if !models.CollateralBand(sub).IsValid() {
			return fmt.Errorf("%w: collateral band %q", ErrInvalidSubKey, sub)
		}
	}
	return nil
}

func (t *ratingTable) checkCollapse() error {
	if !t.collapsed {
		return nil
	}
	for c := range t.cells {
		if models.InternalRating(c.tier).Rank() >= 8 {
			return ErrMixedCollapse
		}
	}
	return nil
}
