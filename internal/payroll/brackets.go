package payroll

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// TaxBracket is one row of a progressive IRT table. Bounds follow the X.01
// convention: both ends are inclusive at cent precision and the next bracket
// starts one cent above this one's upper bound. A nil Upper is unbounded.
type TaxBracket struct {
	Order          int              `json:"order"`
	Lower          decimal.Decimal  `json:"lower"`
	Upper          *decimal.Decimal `json:"upper"`
	Rate           decimal.Decimal  `json:"rate"`
	FixedDeduction decimal.Decimal  `json:"fixed_deduction"`
	Description    string           `json:"description,omitempty"`
	Active         bool             `json:"active"`
}

// Contains reports whether a cent-rounded income falls inside the bracket.
func (b TaxBracket) Contains(income decimal.Decimal) bool {
	if income.LessThan(b.Lower) {
		return false
	}
	return b.Upper == nil || income.LessThanOrEqual(*b.Upper)
}

// Tax applies rate to the whole income and subtracts the fixed deduction:
// max(0, income*rate/100 - deduction).
func (b TaxBracket) Tax(income decimal.Decimal) decimal.Decimal {
	return nonNegative(RoundMoney(PercentOf(income, b.Rate).Sub(b.FixedDeduction)))
}

// BracketTable is a validated, immutable bracket set for one effective year.
type BracketTable struct {
	EffectiveYear int
	brackets      []TaxBracket
}

// NewBracketTable validates that the active brackets partition [0, inf) and
// returns them as a table sorted by lower bound. Inactive rows are dropped.
func NewBracketTable(effectiveYear int, brackets []TaxBracket) (*BracketTable, error) {
	if effectiveYear < 2000 || effectiveYear > 2100 {
		return nil, fmt.Errorf("%w: effective year %d", ErrInvalidYear, effectiveYear)
	}

	active := make([]TaxBracket, 0, len(brackets))
	for _, b := range brackets {
		if b.Active {
			active = append(active, b)
		}
	}
	if len(active) == 0 {
		return nil, ErrEmptyBracketTable
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Lower.LessThan(active[j].Lower)
	})

	for i, b := range active {
		if err := validateBracket(b); err != nil {
			return nil, err
		}
		if i == 0 {
			if !b.Lower.IsZero() {
				return nil, fmt.Errorf("%w: first bracket starts at %s, not 0", ErrBracketGap, b.Lower)
			}
			continue
		}
		prev := active[i-1]
		if prev.Upper == nil {
			return nil, fmt.Errorf("%w: bracket %d follows unbounded bracket %d", ErrBracketOverlap, b.Order, prev.Order)
		}
		want := prev.Upper.Add(oneCent)
		switch {
		case b.Lower.GreaterThan(want):
			return nil, fmt.Errorf("%w: between %s and %s", ErrBracketGap, prev.Upper, b.Lower)
		case b.Lower.LessThan(want):
			return nil, fmt.Errorf("%w: bracket %d starts at %s, inside bracket %d", ErrBracketOverlap, b.Order, b.Lower, prev.Order)
		}
	}

	if last := active[len(active)-1]; last.Upper != nil {
		return nil, fmt.Errorf("%w: no bracket above %s", ErrBracketGap, last.Upper)
	}

	return &BracketTable{EffectiveYear: effectiveYear, brackets: active}, nil
}

func validateBracket(b TaxBracket) error {
	if b.Lower.IsNegative() || !b.Lower.Equal(RoundMoney(b.Lower)) {
		return fmt.Errorf("%w: bracket %d lower bound %s", ErrBracketBounds, b.Order, b.Lower)
	}
	if b.Upper != nil {
		if !b.Upper.GreaterThan(b.Lower) || !b.Upper.Equal(RoundMoney(*b.Upper)) {
			return fmt.Errorf("%w: bracket %d upper bound %s", ErrBracketBounds, b.Order, b.Upper)
		}
	}
	if b.Rate.IsNegative() || b.Rate.GreaterThan(hundred) {
		return fmt.Errorf("%w: bracket %d rate %s", ErrBracketRate, b.Order, b.Rate)
	}
	if b.FixedDeduction.IsNegative() {
		return fmt.Errorf("%w: bracket %d deduction %s", ErrBracketRate, b.Order, b.FixedDeduction)
	}
	return nil
}

// Brackets returns a copy of the table rows in ascending order.
func (t *BracketTable) Brackets() []TaxBracket {
	out := make([]TaxBracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// Find returns the single bracket containing income, rounded to cents.
func (t *BracketTable) Find(income decimal.Decimal) (TaxBracket, error) {
	if income.IsNegative() {
		return TaxBracket{}, fmt.Errorf("%w: %s", ErrNegativeIncome, income)
	}
	income = RoundMoney(income)

	i := sort.Search(len(t.brackets), func(i int) bool {
		u := t.brackets[i].Upper
		return u == nil || income.LessThanOrEqual(*u)
	})
	if i == len(t.brackets) || !t.brackets[i].Contains(income) {
		return TaxBracket{}, fmt.Errorf("%w: %s", ErrNoBracket, income)
	}
	return t.brackets[i], nil
}

// Tax looks up the bracket for income and applies it.
func (t *BracketTable) Tax(income decimal.Decimal) (decimal.Decimal, TaxBracket, error) {
	b, err := t.Find(income)
	if err != nil {
		return decimal.Zero, TaxBracket{}, err
	}
	return b.Tax(RoundMoney(income)), b, nil
}
