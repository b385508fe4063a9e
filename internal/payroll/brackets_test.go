package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bracket(order int, lower, upper, rate, deduction string) TaxBracket {
	b := TaxBracket{Order: order, Lower: d(lower), Rate: d(rate), FixedDeduction: d(deduction), Active: true}
	if upper != "" {
		b.Upper = dp(upper)
	}
	return b
}

func TestDefaultBracketTable(t *testing.T) {
	table := DefaultBracketTable()
	require.NotNil(t, table)
	assert.Equal(t, 2025, table.EffectiveYear)

	brackets := table.Brackets()
	require.Len(t, brackets, 12)
	for i := 1; i < len(brackets); i++ {
		require.NotNil(t, brackets[i-1].Upper)
		assert.True(t, brackets[i].Lower.Equal(brackets[i-1].Upper.Add(oneCent)), "bracket %d", brackets[i].Order)
	}
	assert.Nil(t, brackets[11].Upper)
}

func TestBracketLookup(t *testing.T) {
	table := DefaultBracketTable()

	tests := []struct {
		name    string
		income  string
		order   int
		wantTax string
	}{
		{"zero income", "0", 1, "0"},
		{"upper edge of first bracket", "100000", 1, "0"},
		{"first cent of second bracket", "100000.01", 2, "0"},
		{"inside second bracket", "120000", 2, "2600"},
		{"upper edge of second bracket", "150000", 2, "6500"},
		{"first cent of third bracket", "150000.01", 3, "12500"},
		{"inside fourth bracket", "250400", 4, "40322"},
		{"sub-cent income rounds into lower bracket", "100000.004", 1, "0"},
		{"top bracket", "12000000", 12, "2842250"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, b, err := table.Tax(d(tt.income))
			require.NoError(t, err)
			assert.Equal(t, tt.order, b.Order)
			assertMoney(t, tt.wantTax, tax)
		})
	}
}

func TestBracketLookupNegativeIncome(t *testing.T) {
	_, err := DefaultBracketTable().Find(d("-1"))
	assert.ErrorIs(t, err, ErrNegativeIncome)
}

func TestBracketMonotonicWithinBracket(t *testing.T) {
	table := DefaultBracketTable()
	for _, b := range table.Brackets() {
		if b.Upper == nil {
			continue
		}
		lo := b.Lower.Add(oneCent)
		hi := b.Upper.Sub(oneCent)
		taxLo, _, err := table.Tax(lo)
		require.NoError(t, err)
		taxHi, _, err := table.Tax(hi)
		require.NoError(t, err)
		assert.True(t, taxLo.LessThanOrEqual(taxHi), "bracket %d", b.Order)
		assert.False(t, taxLo.IsNegative())
	}
}

func TestNewBracketTableValidation(t *testing.T) {
	tests := []struct {
		name     string
		brackets []TaxBracket
		want     error
	}{
		{"empty", nil, ErrEmptyBracketTable},
		{
			"does not start at zero",
			[]TaxBracket{bracket(1, "10", "", "0", "0")},
			ErrBracketGap,
		},
		{
			"gap between brackets",
			[]TaxBracket{bracket(1, "0", "100", "0", "0"), bracket(2, "100.02", "", "10", "0")},
			ErrBracketGap,
		},
		{
			"overlapping brackets",
			[]TaxBracket{bracket(1, "0", "100", "0", "0"), bracket(2, "100", "", "10", "0")},
			ErrBracketOverlap,
		},
		{
			"bounded top bracket",
			[]TaxBracket{bracket(1, "0", "100", "0", "0")},
			ErrBracketGap,
		},
		{
			"unbounded bracket in the middle",
			[]TaxBracket{bracket(1, "0", "", "0", "0"), bracket(2, "100.01", "", "10", "0")},
			ErrBracketOverlap,
		},
		{
			"upper below lower",
			[]TaxBracket{bracket(1, "0", "0", "0", "0"), bracket(2, "0.01", "", "10", "0")},
			ErrBracketBounds,
		},
		{
			"rate above 100",
			[]TaxBracket{bracket(1, "0", "", "101", "0")},
			ErrBracketRate,
		},
		{
			"negative deduction",
			[]TaxBracket{bracket(1, "0", "", "10", "-1")},
			ErrBracketRate,
		},
		{
			"sub-cent bound",
			[]TaxBracket{bracket(1, "0", "100.005", "0", "0"), bracket(2, "100.015", "", "10", "0")},
			ErrBracketBounds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBracketTable(2025, tt.brackets)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNewBracketTableSortsAndSkipsInactive(t *testing.T) {
	inactive := bracket(9, "50", "60", "99", "0")
	inactive.Active = false
	table, err := NewBracketTable(2026, []TaxBracket{
		bracket(2, "1000.01", "", "10", "100"),
		inactive,
		bracket(1, "0", "1000", "0", "0"),
	})
	require.NoError(t, err)

	got := table.Brackets()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Order)
	assert.Equal(t, 2, got[1].Order)

	b, err := table.Find(decimal.NewFromInt(55))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Order)
}

func TestBracketFileRoundTrip(t *testing.T) {
	table := DefaultBracketTable()
	out, err := MarshalBracketFile(table, "copy")
	require.NoError(t, err)

	back, label, err := ParseBracketFile(out)
	require.NoError(t, err)
	assert.Equal(t, "copy", label)
	assert.Equal(t, table.EffectiveYear, back.EffectiveYear)
	require.Len(t, back.Brackets(), len(table.Brackets()))
	for i, b := range back.Brackets() {
		want := table.Brackets()[i]
		assert.True(t, want.Lower.Equal(b.Lower))
		assert.True(t, want.Rate.Equal(b.Rate))
		assert.True(t, want.FixedDeduction.Equal(b.FixedDeduction))
	}
}

func TestParseBracketFileErrors(t *testing.T) {
	_, _, err := ParseBracketFile([]byte("version: 2\neffective_year: 2025\n"))
	assert.ErrorIs(t, err, ErrBracketFile)

	_, _, err = ParseBracketFile([]byte(`version: 1
effective_year: 2025
brackets:
  - order: 1
    lower: "zero"
    rate: "0"
`))
	assert.ErrorIs(t, err, ErrBracketFile)

	_, _, err = ParseBracketFile([]byte(`version: 1
effective_year: 2025
brackets:
  - order: 1
    lower: "0"
    upper: "100"
    rate: "0"
`))
	assert.ErrorIs(t, err, ErrBracketGap)
}
