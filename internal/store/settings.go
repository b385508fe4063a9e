package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

const (
	sectionPayroll = "payroll"
	sectionFinance = "finance"
	sectionModules = "modules"
)

// Settings rows override the defaults one name at a time; a missing row
// keeps the default value.

func (s *Store) PayrollConfig(ctx context.Context) (payroll.Config, error) {
	cfg := payroll.DefaultConfig()
	values, err := s.loadSection(ctx, sectionPayroll)
	if err != nil {
		return cfg, err
	}
	for name, dst := range map[string]*decimal.Decimal{
		"employee_ss_rate":         &cfg.EmployeeSocialSecurityRate,
		"employer_ss_rate":         &cfg.EmployerSocialSecurityRate,
		"fixed_deduction":          &cfg.FixedDeduction,
		"manual_subsidy_exemption": &cfg.ManualSubsidyExemption,
	} {
		if err := readDecimal(values, sectionPayroll, name, dst); err != nil {
			return cfg, err
		}
	}
	if v, ok := values["working_days"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: payroll.working_days %q", payroll.ErrInvalidConfig, v)
		}
		cfg.WorkingDays = n
	}
	return cfg, cfg.Validate()
}

func (s *Store) SavePayrollConfig(ctx context.Context, cfg payroll.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.saveSection(ctx, sectionPayroll, map[string]string{
		"employee_ss_rate":         cfg.EmployeeSocialSecurityRate.String(),
		"employer_ss_rate":         cfg.EmployerSocialSecurityRate.String(),
		"fixed_deduction":          cfg.FixedDeduction.String(),
		"working_days":             strconv.Itoa(cfg.WorkingDays),
		"manual_subsidy_exemption": cfg.ManualSubsidyExemption.String(),
	})
}

func (s *Store) FinanceConfig(ctx context.Context) (finance.Config, error) {
	cfg := finance.DefaultConfig()
	values, err := s.loadSection(ctx, sectionFinance)
	if err != nil {
		return cfg, err
	}
	for name, dst := range financeFields(&cfg) {
		if err := readDecimal(values, sectionFinance, name, dst); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

func (s *Store) SaveFinanceConfig(ctx context.Context, cfg finance.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	values := map[string]string{}
	for name, v := range financeFields(&cfg) {
		values[name] = v.String()
	}
	return s.saveSection(ctx, sectionFinance, values)
}

func financeFields(cfg *finance.Config) map[string]*decimal.Decimal {
	return map[string]*decimal.Decimal{
		"estimated_income_tax_percent": &cfg.EstimatedIncomeTaxPercent,
		"stamp_duty_percent":           &cfg.StampDutyPercent,
		"stamp_duty_revenue_floor":     &cfg.StampDutyRevenueFloor,
		"estimated_salary_factor":      &cfg.EstimatedSalaryFactor,
		"estimated_employer_ss_factor": &cfg.EstimatedEmployerSSFactor,
		"estimated_employee_ss_factor": &cfg.EstimatedEmployeeSSFactor,
		"estimated_withhold_factor":    &cfg.EstimatedWithholdFactor,
	}
}

func (s *Store) ModuleConfig(ctx context.Context) (payroll.ModuleConfig, error) {
	cfg := payroll.DefaultModuleConfig()
	values, err := s.loadSection(ctx, sectionModules)
	if err != nil {
		return cfg, err
	}
	for name, dst := range map[string]*bool{
		"sales_enabled":   &cfg.SalesEnabled,
		"payroll_enabled": &cfg.PayrollEnabled,
	} {
		if v, ok := values[name]; ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return cfg, fmt.Errorf("%w: modules.%s %q", payroll.ErrInvalidConfig, name, v)
			}
			*dst = b
		}
	}
	if v, ok := values["mode"]; ok {
		m, err := payroll.ParseIntegrationMode(v)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = m
	}
	return cfg, nil
}

func (s *Store) SaveModuleConfig(ctx context.Context, cfg payroll.ModuleConfig) error {
	if _, err := payroll.ParseIntegrationMode(string(cfg.Mode)); err != nil {
		return err
	}
	return s.saveSection(ctx, sectionModules, map[string]string{
		"sales_enabled":   strconv.FormatBool(cfg.SalesEnabled),
		"payroll_enabled": strconv.FormatBool(cfg.PayrollEnabled),
		"mode":            string(cfg.Mode),
	})
}

func (s *Store) loadSection(ctx context.Context, section string) (map[string]string, error) {
	rows, err := s.reader.QueryContext(ctx, `SELECT name, value FROM settings WHERE section = ?`, section)
	if err != nil {
		return nil, fmt.Errorf("load %s settings: %w", section, err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[name] = value
	}
	return values, rows.Err()
}

func (s *Store) saveSection(ctx context.Context, section string, values map[string]string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for name, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (section, name, value) VALUES (?, ?, ?)
			 ON CONFLICT(section, name) DO UPDATE SET value = excluded.value`,
			section, name, value,
		); err != nil {
			return fmt.Errorf("upsert setting %s.%s: %w", section, name, err)
		}
	}
	return tx.Commit()
}

func readDecimal(values map[string]string, section, name string, dst *decimal.Decimal) error {
	v, ok := values[name]
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fmt.Errorf("%w: %s.%s %q", payroll.ErrInvalidConfig, section, name, v)
	}
	*dst = d
	return nil
}
