package payroll

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed irt_2025.yaml
var defaultBracketFile []byte

// BracketFile is the on-disk YAML form of a bracket table. Amounts are kept
// as strings so they round-trip without float conversion.
type BracketFile struct {
	Version       int                `yaml:"version"`
	EffectiveYear int                `yaml:"effective_year"`
	Label         string             `yaml:"label,omitempty"`
	Brackets      []bracketFileEntry `yaml:"brackets"`
}

type bracketFileEntry struct {
	Order          int    `yaml:"order"`
	Lower          string `yaml:"lower"`
	Upper          string `yaml:"upper"`
	Rate           string `yaml:"rate"`
	FixedDeduction string `yaml:"fixed_deduction"`
	Description    string `yaml:"description,omitempty"`
}

// ParseBracketFile decodes and validates a version 1 bracket file. An empty
// upper bound marks the unbounded top bracket.
func ParseBracketFile(b []byte) (*BracketTable, string, error) {
	var f BracketFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBracketFile, err)
	}
	if f.Version != 1 {
		return nil, "", fmt.Errorf("%w: unsupported version %d", ErrBracketFile, f.Version)
	}

	brackets := make([]TaxBracket, 0, len(f.Brackets))
	for _, e := range f.Brackets {
		tb, err := e.bracket()
		if err != nil {
			return nil, "", err
		}
		brackets = append(brackets, tb)
	}

	t, err := NewBracketTable(f.EffectiveYear, brackets)
	if err != nil {
		return nil, "", err
	}
	return t, f.Label, nil
}

func (e bracketFileEntry) bracket() (TaxBracket, error) {
	num := func(field, s string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: bracket %d %s %q", ErrBracketFile, e.Order, field, s)
		}
		return d, nil
	}

	tb := TaxBracket{Order: e.Order, Description: e.Description, Active: true}
	var err error
	if tb.Lower, err = num("lower", e.Lower); err != nil {
		return TaxBracket{}, err
	}
	if e.Upper != "" {
		u, err := num("upper", e.Upper)
		if err != nil {
			return TaxBracket{}, err
		}
		tb.Upper = &u
	}
	if tb.Rate, err = num("rate", e.Rate); err != nil {
		return TaxBracket{}, err
	}
	if e.FixedDeduction == "" {
		tb.FixedDeduction = decimal.Zero
	} else if tb.FixedDeduction, err = num("fixed_deduction", e.FixedDeduction); err != nil {
		return TaxBracket{}, err
	}
	return tb, nil
}

// MarshalBracketFile encodes a table in the format ParseBracketFile reads.
func MarshalBracketFile(t *BracketTable, label string) ([]byte, error) {
	f := BracketFile{Version: 1, EffectiveYear: t.EffectiveYear, Label: label}
	for _, b := range t.brackets {
		e := bracketFileEntry{
			Order:          b.Order,
			Lower:          b.Lower.String(),
			Rate:           b.Rate.String(),
			FixedDeduction: b.FixedDeduction.String(),
			Description:    b.Description,
		}
		if b.Upper != nil {
			e.Upper = b.Upper.String()
		}
		f.Brackets = append(f.Brackets, e)
	}
	return yaml.Marshal(&f)
}

// DefaultBracketTable returns the embedded 2025 table. It panics only if the
// embedded file is broken, which the package tests guard against.
func DefaultBracketTable() *BracketTable {
	t, _, err := ParseBracketFile(defaultBracketFile)
	if err != nil {
		panic(fmt.Sprintf("payroll: embedded bracket table: %v", err))
	}
	return t
}
