package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReaders struct {
	employees   map[int64]Employee
	subsidies   []Subsidy
	assignments map[int64][]Assignment
	absences    map[int64]*Absence
	table       *BracketTable
}

func (s *stubReaders) GetEmployee(_ context.Context, id int64) (*Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &e, nil
}

func (s *stubReaders) ListActiveEmployees(context.Context) ([]Employee, error) {
	var out []Employee
	for id := int64(1); id <= int64(len(s.employees))+10; id++ {
		if e, ok := s.employees[id]; ok && e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubReaders) ListActiveSubsidies(context.Context) ([]Subsidy, error) {
	return s.subsidies, nil
}

func (s *stubReaders) ListAssignments(_ context.Context, employeeID int64) ([]Assignment, error) {
	return s.assignments[employeeID], nil
}

func (s *stubReaders) BracketTable(context.Context, int) (*BracketTable, error) {
	if s.table == nil {
		return nil, ErrNoBracketTable
	}
	return s.table, nil
}

func (s *stubReaders) GetAbsence(_ context.Context, employeeID int64, _ Period) (*Absence, error) {
	return s.absences[employeeID], nil
}

func newStubCalculator(s *stubReaders) *Calculator {
	c := NewCalculator(s, s, s, s)
	c.now = func() time.Time { return time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC) }
	return c
}

func assertIdentities(t *testing.T, r *Record) {
	t.Helper()
	assert.True(t, r.GrossSalary.Equal(r.BaseSalary.Add(r.SubsidyTotal)), "gross = base + subsidies")
	assert.True(t, r.NetSalary.Equal(r.GrossSalary.Sub(r.EmployeeSocialSecurity).Sub(r.IncomeTax)), "net = gross - ss - tax")
	assert.True(t, r.TotalDeductions.Equal(r.EmployeeSocialSecurity.Add(r.IncomeTax)))
	assert.True(t, r.TotalEmployerCost.Equal(r.GrossSalary.Add(r.EmployerSocialSecurity)))
}

func TestCalculateExemptFixedSubsidy(t *testing.T) {
	s := &stubReaders{
		employees: map[int64]Employee{1: {ID: 1, Name: "Ana", BaseSalary: d("150000"), Active: true}},
		subsidies: []Subsidy{fixedSubsidy(1, "Alimentação", "15000", "15000")},
		table:     DefaultBracketTable(),
	}
	rec, err := newStubCalculator(s).Calculate(context.Background(), DefaultConfig(), 1, Period{Month: 3, Year: 2025})
	require.NoError(t, err)

	assertMoney(t, "165000", rec.GrossSalary)
	assertMoney(t, "150000", rec.SocialSecurityBase)
	assertMoney(t, "4500", rec.EmployeeSocialSecurity)
	assertMoney(t, "12000", rec.EmployerSocialSecurity)
	assertMoney(t, "85500", rec.TaxableIncome)
	assert.Equal(t, 1, rec.BracketOrder)
	assertMoney(t, "0", rec.IncomeTax)
	assertMoney(t, "160500", rec.NetSalary)
	assertMoney(t, "177000", rec.TotalEmployerCost)
	require.Len(t, rec.Details, 1)
	assertMoney(t, "15000", rec.Details[0].ExemptAmount)
	assert.Equal(t, time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC), rec.ComputedAt)
	assertIdentities(t, rec)
}

func TestCalculateTaxablePercentageSubsidy(t *testing.T) {
	pct := fixedSubsidy(1, "Desempenho", "0", "10000")
	pct.Kind = KindPercentage
	pct.Percentage = d("10")
	s := &stubReaders{
		employees: map[int64]Employee{1: {ID: 1, Name: "Bruno", BaseSalary: d("300000"), Active: true}},
		subsidies: []Subsidy{pct},
		table:     DefaultBracketTable(),
	}
	rec, err := newStubCalculator(s).Calculate(context.Background(), DefaultConfig(), 1, Period{Month: 5, Year: 2025})
	require.NoError(t, err)

	assertMoney(t, "330000", rec.GrossSalary)
	assertMoney(t, "320000", rec.SocialSecurityBase)
	assertMoney(t, "9600", rec.EmployeeSocialSecurity)
	assertMoney(t, "25600", rec.EmployerSocialSecurity)
	assertMoney(t, "250400", rec.TaxableIncome)
	assert.Equal(t, 4, rec.BracketOrder)
	assertMoney(t, "40322", rec.IncomeTax)
	assertMoney(t, "280078", rec.NetSalary)
	assertIdentities(t, rec)
}

func TestCalculateSubsidyFlags(t *testing.T) {
	noSS := fixedSubsidy(1, "Abono", "20000", "0")
	noSS.CountsTowardSocialSecurity = false
	noIRT := fixedSubsidy(2, "Renda", "40000", "0")
	noIRT.CountsTowardIncomeTax = false
	s := &stubReaders{
		employees: map[int64]Employee{1: {ID: 1, Name: "Carla", BaseSalary: d("200000"), Active: true}},
		subsidies: []Subsidy{noSS, noIRT},
		table:     DefaultBracketTable(),
	}
	rec, err := newStubCalculator(s).Calculate(context.Background(), DefaultConfig(), 1, Period{Month: 1, Year: 2025})
	require.NoError(t, err)

	assertMoney(t, "260000", rec.GrossSalary)
	// 200000 + 40000 (noIRT still counts toward SS)
	assertMoney(t, "240000", rec.SocialSecurityBase)
	assertMoney(t, "7200", rec.EmployeeSocialSecurity)
	// 200000 - 7200 - 60000 + 20000 (noSS still counts toward IRT)
	assertMoney(t, "152800", rec.TaxableIncome)
	assertMoney(t, "12948", rec.IncomeTax)
	assertIdentities(t, rec)
}

func TestCalculateAbsenceDiscount(t *testing.T) {
	s := &stubReaders{
		employees: map[int64]Employee{1: {ID: 1, Name: "Dário", BaseSalary: d("220000"), Active: true}},
		absences: map[int64]*Absence{1: {
			EmployeeID: 1, Month: 4, Year: 2025, DaysAbsent: 2, Kind: AbsenceUnjustified,
		}},
		table: DefaultBracketTable(),
	}
	rec, err := newStubCalculator(s).Calculate(context.Background(), DefaultConfig(), 1, Period{Month: 4, Year: 2025})
	require.NoError(t, err)

	assertMoney(t, "220000", rec.OriginalBaseSalary)
	assertMoney(t, "20000", rec.AbsenceDeduction)
	assertMoney(t, "200000", rec.BaseSalary)
	assertMoney(t, "134000", rec.TaxableIncome)
	assertMoney(t, "4420", rec.IncomeTax)
	assertMoney(t, "189580", rec.NetSalary)
	assertIdentities(t, rec)
}

func TestCalculateLowSalaryClampsTaxableIncome(t *testing.T) {
	s := &stubReaders{
		employees: map[int64]Employee{1: {ID: 1, Name: "Eva", BaseSalary: d("40000"), Active: true}},
		table:     DefaultBracketTable(),
	}
	rec, err := newStubCalculator(s).Calculate(context.Background(), DefaultConfig(), 1, Period{Month: 1, Year: 2025})
	require.NoError(t, err)
	assertMoney(t, "0", rec.TaxableIncome)
	assertMoney(t, "0", rec.IncomeTax)
	assertMoney(t, "38800", rec.NetSalary)
}

func TestCalculateErrors(t *testing.T) {
	s := &stubReaders{
		employees: map[int64]Employee{
			1: {ID: 1, Name: "Ana", BaseSalary: d("150000"), Active: true},
			2: {ID: 2, Name: "Bia", BaseSalary: d("150000"), Active: false},
		},
	}
	calc := newStubCalculator(s)
	ctx := context.Background()
	p := Period{Month: 1, Year: 2025}

	_, err := calc.Calculate(ctx, DefaultConfig(), 1, p)
	assert.ErrorIs(t, err, ErrConfiguration, "missing table must not default to zero tax")

	s.table = DefaultBracketTable()
	_, err = calc.Calculate(ctx, DefaultConfig(), 99, p)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = calc.Calculate(ctx, DefaultConfig(), 2, p)
	assert.ErrorIs(t, err, ErrEmployeeInactive)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = calc.Calculate(ctx, DefaultConfig(), 1, Period{Month: 0, Year: 2025})
	assert.ErrorIs(t, err, ErrValidation)

	bad := DefaultConfig()
	bad.WorkingDays = 0
	_, err = calc.Calculate(ctx, bad, 1, p)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCalculatePeriod(t *testing.T) {
	s := &stubReaders{
		employees: map[int64]Employee{
			1: {ID: 1, Name: "Ana", BaseSalary: d("150000"), Active: true},
			2: {ID: 2, Name: "Bruno", BaseSalary: d("300000"), Active: true},
			3: {ID: 3, Name: "Carla", BaseSalary: d("90000"), Active: false},
		},
		table: DefaultBracketTable(),
	}
	calc := newStubCalculator(s)
	ctx := context.Background()
	p := Period{Month: 2, Year: 2025}

	run, err := calc.CalculatePeriod(ctx, DefaultConfig(), p, nil)
	require.NoError(t, err)
	require.Len(t, run.Records, 2)
	assert.Empty(t, run.Failures)
	assert.Equal(t, 2, run.Totals.Employees)
	assertMoney(t, "450000", run.Totals.GrossSalary)
	assertMoney(t, "36000", run.Totals.EmployerSocialSecurity)

	run, err = calc.CalculatePeriod(ctx, DefaultConfig(), p, []int64{1, 3, 42})
	require.NoError(t, err)
	require.Len(t, run.Records, 1)
	require.Len(t, run.Failures, 2)
	assert.ErrorIs(t, run.Failures[0].Err, ErrEmployeeNotFound)
	assert.ErrorIs(t, run.Failures[1].Err, ErrEmployeeInactive)

	s.table = nil
	_, err = calc.CalculatePeriod(ctx, DefaultConfig(), p, nil)
	assert.ErrorIs(t, err, ErrNoBracketTable)
}

func TestAbsenceDiscount(t *testing.T) {
	cfg := DefaultConfig()
	base := d("110000")

	assertMoney(t, "0", AbsenceDiscount(base, nil, cfg))
	assertMoney(t, "0", AbsenceDiscount(base, &Absence{DaysAbsent: 3, Kind: AbsenceJustified}, cfg))
	assertMoney(t, "15000", AbsenceDiscount(base, &Absence{DaysAbsent: 3, Kind: AbsenceUnjustified}, cfg))
	assertMoney(t, "22000", AbsenceDiscount(base, &Absence{DaysAbsent: 4, Kind: AbsenceUnjustified, WorkingDays: 20}, cfg))
	assertMoney(t, "7000", AbsenceDiscount(base, &Absence{DaysAbsent: 3, Kind: AbsenceJustified, ManualDiscount: dp("7000")}, cfg))
	assertMoney(t, "110000", AbsenceDiscount(base, &Absence{DaysAbsent: 30, Kind: AbsenceUnjustified}, cfg))
}
