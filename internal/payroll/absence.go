package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type AbsenceKind string

const (
	AbsenceUnjustified AbsenceKind = "unjustified"
	AbsenceJustified   AbsenceKind = "justified"
)

// Absence is the monthly absence sheet for one employee. WorkingDays zero
// means the configured default.
type Absence struct {
	EmployeeID     int64            `json:"employee_id"`
	Month          int              `json:"month"`
	Year           int              `json:"year"`
	DaysAbsent     int              `json:"days_absent"`
	Kind           AbsenceKind      `json:"kind"`
	WorkingDays    int              `json:"working_days,omitempty"`
	ManualDiscount *decimal.Decimal `json:"manual_discount,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

func (a Absence) Validate() error {
	if _, err := NewPeriod(a.Month, a.Year); err != nil {
		return err
	}
	if a.DaysAbsent < 0 || a.DaysAbsent > 31 {
		return fmt.Errorf("%w: %d days absent", ErrInvalidAbsence, a.DaysAbsent)
	}
	if a.WorkingDays < 0 || a.WorkingDays > 31 {
		return fmt.Errorf("%w: %d working days", ErrInvalidAbsence, a.WorkingDays)
	}
	switch a.Kind {
	case AbsenceUnjustified, AbsenceJustified:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidAbsence, a.Kind)
	}
	if a.ManualDiscount != nil && a.ManualDiscount.IsNegative() {
		return fmt.Errorf("%w: negative manual discount", ErrInvalidAbsence)
	}
	return nil
}

// AbsenceDiscount is the amount taken off base for the month. A manual
// discount wins; otherwise unjustified days are charged at base/workingDays.
// The result is clamped to [0, base].
func AbsenceDiscount(base decimal.Decimal, a *Absence, cfg Config) decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch {
	case a.ManualDiscount != nil:
		d = *a.ManualDiscount
	case a.Kind == AbsenceUnjustified && a.DaysAbsent > 0:
		days := a.WorkingDays
		if days <= 0 {
			days = cfg.WorkingDays
		}
		if days <= 0 {
			days = 1
		}
		d = base.Div(decimal.NewFromInt(int64(days))).Mul(decimal.NewFromInt(int64(a.DaysAbsent)))
	default:
		return decimal.Zero
	}
	return decimal.Min(nonNegative(RoundMoney(d)), base)
}
