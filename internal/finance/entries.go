package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
	SaleCancelled SaleStatus = "cancelled"
)

// Sale is the part of a point-of-sale ticket the income statement reads.
// Total includes tax. Only completed sales count as revenue.
type Sale struct {
	ID          string          `json:"id"`
	Total       decimal.Decimal `json:"total"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
	Status      SaleStatus      `json:"status"`
	SoldAt      time.Time       `json:"sold_at"`
}

func (s Sale) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"total": s.Total, "tax": s.Tax, "discount": s.Discount, "cost of goods": s.CostOfGoods,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: sale %s %s", payroll.ErrInvalidAmount, name, v)
		}
	}
	if s.Tax.GreaterThan(s.Total) {
		return fmt.Errorf("%w: tax exceeds total", payroll.ErrInvalidAmount)
	}
	switch s.Status {
	case SaleCompleted, SalePending, SaleCancelled:
	default:
		return fmt.Errorf("%w: sale status %q", payroll.ErrValidation, s.Status)
	}
	if s.SoldAt.IsZero() {
		return fmt.Errorf("%w: sale date is required", payroll.ErrValidation)
	}
	return nil
}

// Expense is a ledger expense. Payroll confirmation posts two of these per
// period; everything else is entered by hand.
type Expense struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Paid        bool            `json:"paid"`
	Notes       string          `json:"notes,omitempty"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: expense category", payroll.ErrInvalidName)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: expense description", payroll.ErrInvalidName)
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: expense amount %s", payroll.ErrInvalidAmount, e.Amount)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: expense date is required", payroll.ErrValidation)
	}
	return nil
}
