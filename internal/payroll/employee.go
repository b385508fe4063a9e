package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Employee is the payroll view of a worker. ManualSubsidy switches subsidy
// resolution: nil resolves automatically, zero pays none, a positive amount
// replaces every subsidy with a single manual line.
type Employee struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	CategoryID    *int64           `json:"category_id,omitempty"`
	BaseSalary    decimal.Decimal  `json:"base_salary"`
	ManualSubsidy *decimal.Decimal `json:"manual_subsidy,omitempty"`
	Active        bool             `json:"active"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrInvalidName
	}
	if e.BaseSalary.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeSalary, e.BaseSalary)
	}
	if e.ManualSubsidy != nil && e.ManualSubsidy.IsNegative() {
		return fmt.Errorf("%w: manual subsidy %s", ErrInvalidAmount, e.ManualSubsidy)
	}
	return nil
}

// EmployeeUpdate lists the fields a PATCH may change.
type EmployeeUpdate struct {
	Name               *string          `json:"name,omitempty"`
	CategoryID         *int64           `json:"category_id,omitempty"`
	ClearCategory      bool             `json:"clear_category,omitempty"`
	BaseSalary         *decimal.Decimal `json:"base_salary,omitempty"`
	ManualSubsidy      *decimal.Decimal `json:"manual_subsidy,omitempty"`
	ClearManualSubsidy bool             `json:"clear_manual_subsidy,omitempty"`
	Active             *bool            `json:"active,omitempty"`
}

// Apply returns e with the update applied, validated.
func (u EmployeeUpdate) Apply(e Employee) (Employee, error) {
	if u.Name != nil {
		e.Name = strings.TrimSpace(*u.Name)
	}
	switch {
	case u.ClearCategory:
		e.CategoryID = nil
	case u.CategoryID != nil:
		id := *u.CategoryID
		e.CategoryID = &id
	}
	if u.BaseSalary != nil {
		e.BaseSalary = RoundMoney(*u.BaseSalary)
	}
	switch {
	case u.ClearManualSubsidy:
		e.ManualSubsidy = nil
	case u.ManualSubsidy != nil:
		v := RoundMoney(*u.ManualSubsidy)
		e.ManualSubsidy = &v
	}
	if u.Active != nil {
		e.Active = *u.Active
	}
	return e, e.Validate()
}
