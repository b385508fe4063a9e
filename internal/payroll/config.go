package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the payroll parameters. It is loaded by the caller and passed
// into every calculation.
type Config struct {
	EmployeeSocialSecurityRate decimal.Decimal `json:"employee_social_security_rate"`
	EmployerSocialSecurityRate decimal.Decimal `json:"employer_social_security_rate"`
	FixedDeduction             decimal.Decimal `json:"fixed_deduction"`
	WorkingDays                int             `json:"working_days"`
	ManualSubsidyExemption     decimal.Decimal `json:"manual_subsidy_exemption"`
}

// DefaultConfig returns INSS at 3% / 8%, a 60 000 fixed deduction, 22 working
// days and a 30 000 exemption ceiling for manual subsidies.
func DefaultConfig() Config {
	return Config{
		EmployeeSocialSecurityRate: decimal.NewFromInt(3),
		EmployerSocialSecurityRate: decimal.NewFromInt(8),
		FixedDeduction:             decimal.NewFromInt(60000),
		WorkingDays:                22,
		ManualSubsidyExemption:     decimal.NewFromInt(30000),
	}
}

func (c Config) Validate() error {
	for name, rate := range map[string]decimal.Decimal{
		"employee social security rate": c.EmployeeSocialSecurityRate,
		"employer social security rate": c.EmployerSocialSecurityRate,
	} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s %s", ErrInvalidConfig, name, rate)
		}
	}
	if c.FixedDeduction.IsNegative() {
		return fmt.Errorf("%w: fixed deduction %s", ErrInvalidConfig, c.FixedDeduction)
	}
	if c.WorkingDays < 1 || c.WorkingDays > 31 {
		return fmt.Errorf("%w: working days %d", ErrInvalidConfig, c.WorkingDays)
	}
	if c.ManualSubsidyExemption.IsNegative() {
		return fmt.Errorf("%w: manual subsidy exemption %s", ErrInvalidConfig, c.ManualSubsidyExemption)
	}
	return nil
}

// ConfigUpdate is an allow-listed partial update; nil fields are left alone.
type ConfigUpdate struct {
	EmployeeSocialSecurityRate *decimal.Decimal `json:"employee_social_security_rate,omitempty"`
	EmployerSocialSecurityRate *decimal.Decimal `json:"employer_social_security_rate,omitempty"`
	FixedDeduction             *decimal.Decimal `json:"fixed_deduction,omitempty"`
	WorkingDays                *int             `json:"working_days,omitempty"`
	ManualSubsidyExemption     *decimal.Decimal `json:"manual_subsidy_exemption,omitempty"`
}

// Apply returns c with the update's fields set, validated.
func (u ConfigUpdate) Apply(c Config) (Config, error) {
	if u.EmployeeSocialSecurityRate != nil {
		c.EmployeeSocialSecurityRate = *u.EmployeeSocialSecurityRate
	}
	if u.EmployerSocialSecurityRate != nil {
		c.EmployerSocialSecurityRate = *u.EmployerSocialSecurityRate
	}
	if u.FixedDeduction != nil {
		c.FixedDeduction = *u.FixedDeduction
	}
	if u.WorkingDays != nil {
		c.WorkingDays = *u.WorkingDays
	}
	if u.ManualSubsidyExemption != nil {
		c.ManualSubsidyExemption = *u.ManualSubsidyExemption
	}
	return c, c.Validate()
}
