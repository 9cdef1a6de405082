package ratetable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/ratetable"
)

// minimalEntries is the smallest valid table set.
func minimalEntries() []ratetable.Entry {
	return []ratetable.Entry{
		{TableID: "tenure", Kind: ratetable.KindTenurePremium, Key: "1-3y", Value: dec("0.10")},
		{TableID: "concession", Kind: ratetable.KindCollateralConcession, Key: "75-100", Value: dec("0.10")},
	}
}

func TestBuild_SortsAmountBands(t *testing.T) {
	entries := append(minimalEntries(),
		ratetable.Entry{TableID: "base", Kind: ratetable.KindAmountBand, Key: "50", Value: dec("2.25")},
		ratetable.Entry{TableID: "base", Kind: ratetable.KindAmountBand, Key: "10", Value: dec("2.00")},
	)

	store, err := ratetable.Build("v1", entries)
	require.NoError(t, err)

	got, err := store.BaseSpreadForAmount("base", dec("10"))
	require.NoError(t, err)
	assert.True(t, dec("2.00").Equal(got.Value))
}

func TestBuild_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name  string
		extra []ratetable.Entry
		want  error
	}{
		{
			name: "duplicate band",
			extra: []ratetable.Entry{
				{TableID: "base", Kind: ratetable.KindAmountBand, Key: "10", Value: dec("2.00")},
				{TableID: "base", Kind: ratetable.KindAmountBand, Key: "10.0", Value: dec("2.10")},
			},
			want: ratetable.ErrDuplicateEntry,
		},
		{
			name: "duplicate rating cell",
			extra: []ratetable.Entry{
				{TableID: "mid", Kind: ratetable.KindRatingFlat, Key: "CR1", Value: dec("0.50")},
				{TableID: "mid", Kind: ratetable.KindRatingFlat, Key: "CR1", Value: dec("0.55")},
			},
			want: ratetable.ErrDuplicateEntry,
		},
		{
			name: "mixed collapse",
			extra: []ratetable.Entry{
				{TableID: "mid", Kind: ratetable.KindRatingFlat, Key: "CR9", Value: dec("7.05")},
				{TableID: "mid", Kind: ratetable.KindRatingFlat, Key: models.CollapsedHighRiskTier, Value: dec("7.05")},
			},
			want: ratetable.ErrMixedCollapse,
		},
		{
			name: "kind conflict",
			extra: []ratetable.Entry{
				{TableID: "mid", Kind: ratetable.KindRatingFlat, Key: "CR1", Value: dec("0.50")},
				{TableID: "mid", Kind: ratetable.KindRatingExternal, Key: "CR1", SubKey: "AAA", Value: dec("0.50")},
			},
			want: ratetable.ErrKindConflict,
		},
		{
			name: "short term sub key",
			extra: []ratetable.Entry{
				{TableID: "large", Kind: ratetable.KindRatingExternal, Key: "CR1", SubKey: "A1+", Value: dec("0.25")},
			},
			want: ratetable.ErrInvalidSubKey,
		},
		{
			name: "negative value",
			extra: []ratetable.Entry{
				{TableID: "base", Kind: ratetable.KindAmountBand, Key: "10", Value: dec("-1")},
			},
			want: ratetable.ErrNegativeValue,
		},
		{
			name: "bad tier",
			extra: []ratetable.Entry{
				{TableID: "mid", Kind: ratetable.KindRatingFlat, Key: "CR0", Value: dec("0.50")},
			},
			want: ratetable.ErrInvalidKey,
		},
		{
			name: "second tenure table",
			extra: []ratetable.Entry{
				{TableID: "tenure-2", Kind: ratetable.KindTenurePremium, Key: "3-5y", Value: dec("0.25")},
			},
			want: ratetable.ErrSecondTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ratetable.Build("v1", append(minimalEntries(), tt.extra...))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuild_RequiresTenureAndConcessionTables(t *testing.T) {
	_, err := ratetable.Build("v1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ratetable.ErrMissingTable)

	_, err = ratetable.Build("", minimalEntries())
	assert.ErrorIs(t, err, ratetable.ErrEmptyVersion)
}

func TestEntries_RebuildMatchesBuiltin(t *testing.T) {
	builtin := ratetable.Builtin()

	rebuilt, err := ratetable.Build("copy", builtin.Entries())
	require.NoError(t, err)
	assert.Equal(t, builtin.Entries(), rebuilt.Entries())

	want, err := builtin.ExternalRatingSpread(ratetable.TableRatingLarge, "CR9", models.ExternalA)
	require.NoError(t, err)
	got, err := rebuilt.ExternalRatingSpread(ratetable.TableRatingLarge, "CR9", models.ExternalA)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
