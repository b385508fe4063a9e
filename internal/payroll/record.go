package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one employee's computed payroll for one month. BaseSalary is the
// base after absence discounts; OriginalBaseSalary is the contract amount.
type Record struct {
	ID                     int64           `json:"id,omitempty"`
	EmployeeID             int64           `json:"employee_id"`
	EmployeeName           string          `json:"employee_name"`
	Month                  int             `json:"month"`
	Year                   int             `json:"year"`
	OriginalBaseSalary     decimal.Decimal `json:"original_base_salary"`
	AbsenceDeduction       decimal.Decimal `json:"absence_deduction"`
	BaseSalary             decimal.Decimal `json:"base_salary"`
	SubsidyTotal           decimal.Decimal `json:"subsidy_total"`
	SubsidyExempt          decimal.Decimal `json:"subsidy_exempt"`
	SubsidyTaxable         decimal.Decimal `json:"subsidy_taxable"`
	GrossSalary            decimal.Decimal `json:"gross_salary"`
	SocialSecurityBase     decimal.Decimal `json:"social_security_base"`
	EmployeeSocialSecurity decimal.Decimal `json:"employee_social_security"`
	EmployerSocialSecurity decimal.Decimal `json:"employer_social_security"`
	FixedDeduction         decimal.Decimal `json:"fixed_deduction"`
	TaxableIncome          decimal.Decimal `json:"taxable_income"`
	BracketOrder           int             `json:"bracket_order"`
	BracketRate            decimal.Decimal `json:"bracket_rate"`
	IncomeTax              decimal.Decimal `json:"income_tax"`
	TotalDeductions        decimal.Decimal `json:"total_deductions"`
	NetSalary              decimal.Decimal `json:"net_salary"`
	TotalEmployerCost      decimal.Decimal `json:"total_employer_cost"`
	SubsidySource          SubsidySource   `json:"subsidy_source"`
	Details                []SubsidyDetail `json:"details"`
	ComputedAt             time.Time       `json:"computed_at"`
	Notes                  string          `json:"notes,omitempty"`
}

func (r Record) Period() Period {
	return Period{Month: r.Month, Year: r.Year}
}

// SubsidyDetail is a subsidy line frozen into a record.
type SubsidyDetail struct {
	ID            int64           `json:"id,omitempty"`
	RecordID      int64           `json:"record_id,omitempty"`
	SubsidyID     *int64          `json:"subsidy_id,omitempty"`
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	ExemptAmount  decimal.Decimal `json:"exempt_amount"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
}

type PaymentState string

const (
	PaymentPending PaymentState = "pending"
	PaymentPaid    PaymentState = "paid"
)

func ParsePaymentState(s string) (PaymentState, error) {
	switch PaymentState(s) {
	case PaymentPending, PaymentPaid:
		return PaymentState(s), nil
	case "pendente":
		return PaymentPending, nil
	case "pago":
		return PaymentPaid, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, s)
}

// PaymentStatus tracks whether an employee was paid for a month. It exists
// independently of any record.
type PaymentStatus struct {
	EmployeeID int64           `json:"employee_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Status     PaymentState    `json:"status"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
}

func (s PaymentStatus) Validate() error {
	if _, err := NewPeriod(s.Month, s.Year); err != nil {
		return err
	}
	if _, err := ParsePaymentState(string(s.Status)); err != nil {
		return err
	}
	if s.AmountPaid.IsNegative() {
		return fmt.Errorf("%w: negative amount paid", ErrInvalidPaymentStatus)
	}
	return nil
}

// PeriodTotals aggregates the records of one period.
type PeriodTotals struct {
	Employees              int             `json:"employees"`
	BaseSalary             decimal.Decimal `json:"base_salary"`
	SubsidyTotal           decimal.Decimal `json:"subsidy_total"`
	GrossSalary            decimal.Decimal `json:"gross_salary"`
	EmployeeSocialSecurity decimal.Decimal `json:"employee_social_security"`
	EmployerSocialSecurity decimal.Decimal `json:"employer_social_security"`
	IncomeTax              decimal.Decimal `json:"income_tax"`
	NetSalary              decimal.Decimal `json:"net_salary"`
	TotalEmployerCost      decimal.Decimal `json:"total_employer_cost"`
}

func SumRecords(records []Record) PeriodTotals {
	t := PeriodTotals{
		Employees:              len(records),
		BaseSalary:             decimal.Zero,
		SubsidyTotal:           decimal.Zero,
		GrossSalary:            decimal.Zero,
		EmployeeSocialSecurity: decimal.Zero,
		EmployerSocialSecurity: decimal.Zero,
		IncomeTax:              decimal.Zero,
		NetSalary:              decimal.Zero,
		TotalEmployerCost:      decimal.Zero,
	}
	for _, r := range records {
		t.BaseSalary = t.BaseSalary.Add(r.BaseSalary)
		t.SubsidyTotal = t.SubsidyTotal.Add(r.SubsidyTotal)
		t.GrossSalary = t.GrossSalary.Add(r.GrossSalary)
		t.EmployeeSocialSecurity = t.EmployeeSocialSecurity.Add(r.EmployeeSocialSecurity)
		t.EmployerSocialSecurity = t.EmployerSocialSecurity.Add(r.EmployerSocialSecurity)
		t.IncomeTax = t.IncomeTax.Add(r.IncomeTax)
		t.NetSalary = t.NetSalary.Add(r.NetSalary)
		t.TotalEmployerCost = t.TotalEmployerCost.Add(r.TotalEmployerCost)
	}
	return t
}
