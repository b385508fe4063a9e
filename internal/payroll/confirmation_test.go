package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(t *testing.T, p Period) []Record {
	t.Helper()
	table := DefaultBracketTable()
	var out []Record
	for i, base := range []string{"150000", "300000"} {
		rec, err := Compute(Input{
			Employee: Employee{ID: int64(i + 1), Name: "E", BaseSalary: d(base), Active: true},
			Period:   p,
		}, table, DefaultConfig())
		require.NoError(t, err)
		out = append(out, *rec)
	}
	return out
}

func TestNewConfirmation(t *testing.T) {
	p := Period{Month: 6, Year: 2025}
	records := sampleRecords(t, p)

	c, err := NewConfirmation(p, records, true)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Totals.Employees)

	entries := c.LedgerEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, CategorySalaries, entries[0].Category)
	assert.True(t, entries[0].Amount.Equal(c.Totals.NetSalary))
	assert.Equal(t, CategoryEmployerSS, entries[1].Category)
	assertMoney(t, "36000", entries[1].Amount)
	for _, e := range entries {
		assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), e.Date)
	}
}

func TestNewConfirmationWithoutSync(t *testing.T) {
	p := Period{Month: 6, Year: 2025}
	c, err := NewConfirmation(p, sampleRecords(t, p), false)
	require.NoError(t, err)
	assert.Nil(t, c.LedgerEntries())
}

func TestNewConfirmationRejects(t *testing.T) {
	p := Period{Month: 6, Year: 2025}

	_, err := NewConfirmation(p, nil, true)
	assert.ErrorIs(t, err, ErrEmptyPeriod)

	records := sampleRecords(t, p)
	records[1].Month = 7
	_, err = NewConfirmation(p, records, true)
	assert.ErrorIs(t, err, ErrRecordPeriodMismatch)

	records = sampleRecords(t, p)
	records[1].EmployeeID = records[0].EmployeeID
	_, err = NewConfirmation(p, records, true)
	assert.ErrorIs(t, err, ErrDuplicateRecord)
	assert.ErrorIs(t, err, ErrValidation)
}
