package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Input is everything Compute needs for one employee and month.
type Input struct {
	Employee    Employee
	Period      Period
	Subsidies   []Subsidy
	Assignments []Assignment
	Absence     *Absence
}

// Compute runs the payroll pipeline for one employee against a bracket
// table. It has no side effects; ComputedAt is left for the caller.
func Compute(in Input, table *BracketTable, cfg Config) (*Record, error) {
	if table == nil {
		return nil, ErrNoBracketTable
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := NewPeriod(in.Period.Month, in.Period.Year)
	if err != nil {
		return nil, err
	}
	emp := in.Employee
	if !emp.Active {
		return nil, fmt.Errorf("%w: id %d", ErrEmployeeInactive, emp.ID)
	}
	if emp.BaseSalary.IsNegative() {
		return nil, fmt.Errorf("%w: employee %d", ErrNegativeSalary, emp.ID)
	}

	original := RoundMoney(emp.BaseSalary)
	discount := AbsenceDiscount(original, in.Absence, cfg)
	base := original.Sub(discount)

	subs := ResolveSubsidies(emp, p.Month, base, in.Subsidies, in.Assignments, cfg)

	gross := base.Add(subs.Total)
	ssBase := base.Add(subs.SocialSecurityBase())
	employeeSS := RoundMoney(PercentOf(ssBase, cfg.EmployeeSocialSecurityRate))
	employerSS := RoundMoney(PercentOf(ssBase, cfg.EmployerSocialSecurityRate))

	fixed := RoundMoney(cfg.FixedDeduction)
	taxable := nonNegative(base.Sub(employeeSS).Sub(fixed).Add(subs.IncomeTaxBase()))

	tax, bracket, err := table.Tax(taxable)
	if err != nil {
		return nil, err
	}

	deductions := employeeSS.Add(tax)
	rec := &Record{
		EmployeeID:             emp.ID,
		EmployeeName:           emp.Name,
		Month:                  p.Month,
		Year:                   p.Year,
		OriginalBaseSalary:     original,
		AbsenceDeduction:       discount,
		BaseSalary:             base,
		SubsidyTotal:           subs.Total,
		SubsidyExempt:          subs.Exempt,
		SubsidyTaxable:         subs.Taxable,
		GrossSalary:            gross,
		SocialSecurityBase:     ssBase,
		EmployeeSocialSecurity: employeeSS,
		EmployerSocialSecurity: employerSS,
		FixedDeduction:         fixed,
		TaxableIncome:          taxable,
		BracketOrder:           bracket.Order,
		BracketRate:            bracket.Rate,
		IncomeTax:              tax,
		TotalDeductions:        deductions,
		NetSalary:              nonNegative(gross.Sub(deductions)),
		TotalEmployerCost:      gross.Add(employerSS),
		SubsidySource:          subs.Source,
		Details:                make([]SubsidyDetail, 0, len(subs.Lines)),
	}
	for _, l := range subs.Lines {
		rec.Details = append(rec.Details, SubsidyDetail{
			SubsidyID:     l.SubsidyID,
			Name:          l.Name,
			Value:         l.Value,
			ExemptAmount:  l.Exempt,
			TaxableAmount: l.Taxable,
		})
	}
	return rec, nil
}

// Calculator loads an employee's inputs through the readers and runs Compute.
type Calculator struct {
	employees EmployeeReader
	subsidies SubsidyReader
	brackets  BracketReader
	absences  AbsenceReader
	now       func() time.Time
}

func NewCalculator(e EmployeeReader, s SubsidyReader, b BracketReader, a AbsenceReader) *Calculator {
	return &Calculator{employees: e, subsidies: s, brackets: b, absences: a, now: time.Now}
}

// Calculate computes, without persisting, the payroll of one active employee.
func (c *Calculator) Calculate(ctx context.Context, cfg Config, employeeID int64, p Period) (*Record, error) {
	if _, err := NewPeriod(p.Month, p.Year); err != nil {
		return nil, err
	}
	emp, err := c.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	table, err := c.brackets.BracketTable(ctx, p.Year)
	if err != nil {
		return nil, err
	}
	subs, err := c.subsidies.ListActiveSubsidies(ctx)
	if err != nil {
		return nil, err
	}
	return c.calculate(ctx, cfg, *emp, p, table, subs)
}

func (c *Calculator) calculate(ctx context.Context, cfg Config, emp Employee, p Period, table *BracketTable, subs []Subsidy) (*Record, error) {
	if !emp.Active {
		return nil, fmt.Errorf("%w: id %d", ErrEmployeeInactive, emp.ID)
	}
	assignments, err := c.subsidies.ListAssignments(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	absence, err := c.absences.GetAbsence(ctx, emp.ID, p)
	if err != nil {
		return nil, err
	}
	rec, err := Compute(Input{
		Employee:    emp,
		Period:      p,
		Subsidies:   subs,
		Assignments: assignments,
		Absence:     absence,
	}, table, cfg)
	if err != nil {
		return nil, err
	}
	rec.ComputedAt = c.now().UTC()
	return rec, nil
}

// Failure is an employee the period run could not compute.
type Failure struct {
	EmployeeID int64  `json:"employee_id"`
	Error      string `json:"error"`
	Err        error  `json:"-"`
}

type PeriodCalculation struct {
	Period   Period       `json:"period"`
	Records  []Record     `json:"records"`
	Failures []Failure    `json:"failures,omitempty"`
	Totals   PeriodTotals `json:"totals"`
}

// CalculatePeriod computes every listed employee, or every active employee
// when ids is empty. Per-employee failures are collected rather than aborting
// the run; configuration errors still abort since no employee can succeed.
func (c *Calculator) CalculatePeriod(ctx context.Context, cfg Config, p Period, ids []int64) (*PeriodCalculation, error) {
	if _, err := NewPeriod(p.Month, p.Year); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := c.brackets.BracketTable(ctx, p.Year)
	if err != nil {
		return nil, err
	}
	subs, err := c.subsidies.ListActiveSubsidies(ctx)
	if err != nil {
		return nil, err
	}

	var employees []Employee
	if len(ids) == 0 {
		if employees, err = c.employees.ListActiveEmployees(ctx); err != nil {
			return nil, err
		}
	}
	out := &PeriodCalculation{Period: p, Records: []Record{}}
	for _, id := range ids {
		e, err := c.employees.GetEmployee(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				out.Failures = append(out.Failures, Failure{EmployeeID: id, Error: err.Error(), Err: err})
				continue
			}
			return nil, err
		}
		employees = append(employees, *e)
	}

	for _, e := range employees {
		rec, err := c.calculate(ctx, cfg, e, p, table, subs)
		if err != nil {
			if errors.Is(err, ErrConfiguration) {
				return nil, err
			}
			out.Failures = append(out.Failures, Failure{EmployeeID: e.ID, Error: err.Error(), Err: err})
			continue
		}
		out.Records = append(out.Records, *rec)
	}
	out.Totals = SumRecords(out.Records)
	return out, nil
}
