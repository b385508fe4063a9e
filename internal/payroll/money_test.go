package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(16500000), ToCents(d("165000")))
	assert.Equal(t, int64(1), ToCents(d("0.005")))
	assertMoney(t, "1250.5", FromCents(125050))
}

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":          "0,00",
		"999":        "999,00",
		"165000":     "165 000,00",
		"1234567.8":  "1 234 567,80",
		"-4500.456":  "-4 500,46",
		"1000000.01": "1 000 000,01",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMoney(d(in)), in)
	}
}

func TestParseMoney(t *testing.T) {
	v, err := ParseMoney("150000.005")
	require.NoError(t, err)
	assertMoney(t, "150000.01", v)

	_, err = ParseMoney("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPeriod(t *testing.T) {
	_, err := NewPeriod(13, 2025)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = NewPeriod(1, 1999)
	assert.ErrorIs(t, err, ErrInvalidYear)

	p, err := NewPeriod(2, 2024)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), p.LastDay())
	assert.Equal(t, "02/2024", p.String())
	assert.Equal(t, Period{Month: 1, Year: 2024}, p.Prev())
	assert.Equal(t, Period{Month: 1, Year: 2025}, Period{Month: 12, Year: 2024}.Next())
	assert.Equal(t, Period{Month: 12, Year: 2023}, Period{Month: 1, Year: 2024}.Prev())
}
