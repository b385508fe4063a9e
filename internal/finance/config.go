package finance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

// Config drives the tax estimates and the payroll fallback of the income
// statement. Percentages are 0..100; factors are fractions of base salary.
type Config struct {
	EstimatedIncomeTaxPercent decimal.Decimal `json:"estimated_income_tax_percent"`
	StampDutyPercent          decimal.Decimal `json:"stamp_duty_percent"`
	StampDutyRevenueFloor     decimal.Decimal `json:"stamp_duty_revenue_floor"`
	EstimatedSalaryFactor     decimal.Decimal `json:"estimated_salary_factor"`
	EstimatedEmployerSSFactor decimal.Decimal `json:"estimated_employer_ss_factor"`
	EstimatedEmployeeSSFactor decimal.Decimal `json:"estimated_employee_ss_factor"`
	EstimatedWithholdFactor   decimal.Decimal `json:"estimated_withhold_factor"`
}

func DefaultConfig() Config {
	return Config{
		EstimatedIncomeTaxPercent: decimal.Zero,
		StampDutyPercent:          decimal.Zero,
		StampDutyRevenueFloor:     decimal.Zero,
		EstimatedSalaryFactor:     decimal.RequireFromString("0.87"),
		EstimatedEmployerSSFactor: decimal.RequireFromString("0.08"),
		EstimatedEmployeeSSFactor: decimal.RequireFromString("0.03"),
		EstimatedWithholdFactor:   decimal.RequireFromString("0.10"),
	}
}

func (c Config) Validate() error {
	hundred := decimal.NewFromInt(100)
	if c.EstimatedIncomeTaxPercent.IsNegative() || c.EstimatedIncomeTaxPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: estimated income tax percent %s", payroll.ErrInvalidConfig, c.EstimatedIncomeTaxPercent)
	}
	if c.StampDutyPercent.IsNegative() || c.StampDutyPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: stamp duty percent %s", payroll.ErrInvalidConfig, c.StampDutyPercent)
	}
	if c.StampDutyRevenueFloor.IsNegative() {
		return fmt.Errorf("%w: stamp duty floor %s", payroll.ErrInvalidConfig, c.StampDutyRevenueFloor)
	}
	one := decimal.NewFromInt(1)
	for _, f := range []decimal.Decimal{
		c.EstimatedSalaryFactor, c.EstimatedEmployerSSFactor,
		c.EstimatedEmployeeSSFactor, c.EstimatedWithholdFactor,
	} {
		if f.IsNegative() || f.GreaterThan(one) {
			return fmt.Errorf("%w: estimate factor %s", payroll.ErrInvalidConfig, f)
		}
	}
	return nil
}

// ConfigUpdate is an allow-listed partial update.
type ConfigUpdate struct {
	EstimatedIncomeTaxPercent *decimal.Decimal `json:"estimated_income_tax_percent,omitempty"`
	StampDutyPercent          *decimal.Decimal `json:"stamp_duty_percent,omitempty"`
	StampDutyRevenueFloor     *decimal.Decimal `json:"stamp_duty_revenue_floor,omitempty"`
	EstimatedSalaryFactor     *decimal.Decimal `json:"estimated_salary_factor,omitempty"`
	EstimatedEmployerSSFactor *decimal.Decimal `json:"estimated_employer_ss_factor,omitempty"`
	EstimatedEmployeeSSFactor *decimal.Decimal `json:"estimated_employee_ss_factor,omitempty"`
	EstimatedWithholdFactor   *decimal.Decimal `json:"estimated_withhold_factor,omitempty"`
}

func (u ConfigUpdate) Apply(c Config) (Config, error) {
	set := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.EstimatedIncomeTaxPercent, u.EstimatedIncomeTaxPercent)
	set(&c.StampDutyPercent, u.StampDutyPercent)
	set(&c.StampDutyRevenueFloor, u.StampDutyRevenueFloor)
	set(&c.EstimatedSalaryFactor, u.EstimatedSalaryFactor)
	set(&c.EstimatedEmployerSSFactor, u.EstimatedEmployerSSFactor)
	set(&c.EstimatedEmployeeSSFactor, u.EstimatedEmployeeSSFactor)
	set(&c.EstimatedWithholdFactor, u.EstimatedWithholdFactor)
	return c, c.Validate()
}
