package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sgva.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

var march2025 = payroll.Period{Month: 3, Year: 2025}

// seedPayroll creates one employee on 150 000 with a 15 000 fully exempt
// meal subsidy paid to everyone.
func seedPayroll(t *testing.T, s *Store) *payroll.Employee {
	t.Helper()
	ctx := context.Background()
	emp := &payroll.Employee{Name: "Ana Silva", BaseSalary: d("150000"), Active: true}
	require.NoError(t, s.CreateEmployee(ctx, emp))
	require.NoError(t, s.CreateSubsidy(ctx, &payroll.Subsidy{
		Name:                       "Alimentação",
		Kind:                       payroll.KindFixed,
		Target:                     payroll.TargetEveryone,
		Value:                      d("15000"),
		ExemptionCeiling:           d("30000"),
		CountsTowardSocialSecurity: true,
		CountsTowardIncomeTax:      true,
		Active:                     true,
	}))
	return emp
}

func confirmMarch(t *testing.T, s *Store, sync bool) (*payroll.ConfirmationResult, error) {
	t.Helper()
	ctx := context.Background()
	calc := payroll.NewCalculator(s, s, s, s)
	run, err := calc.CalculatePeriod(ctx, payroll.DefaultConfig(), march2025, nil)
	require.NoError(t, err)
	require.Empty(t, run.Failures)
	c, err := payroll.NewConfirmation(march2025, run.Records, sync)
	require.NoError(t, err)
	return s.ConfirmPeriod(ctx, c)
}

func TestBracketTableFallsBackToEarlierYear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	table, err := s.BracketTable(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2025, table.EffectiveYear)
	assert.Len(t, table.Brackets(), 12)

	later, err := s.BracketTable(ctx, 2030)
	require.NoError(t, err)
	assert.Equal(t, 2025, later.EffectiveYear)

	_, err = s.BracketTable(ctx, 2024)
	assert.ErrorIs(t, err, payroll.ErrNoBracketTable)
	assert.ErrorIs(t, err, payroll.ErrConfiguration)
}

func TestReplaceAndRestoreBrackets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	flat, err := payroll.NewBracketTable(2025, []payroll.TaxBracket{
		{Order: 1, Lower: d("0"), Rate: d("10"), FixedDeduction: d("0"), Active: true},
	})
	require.NoError(t, err)

	snapID, err := s.ReplaceBracketTable(ctx, flat, "")
	require.NoError(t, err)
	assert.NotZero(t, snapID)

	got, err := s.BracketTable(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, got.Brackets(), 1)

	snaps, err := s.ListBracketSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 12, snaps[0].Brackets)
	assert.Contains(t, snaps[0].Label, "IRT 2025")

	restored, err := s.RestoreBracketSnapshot(ctx, snapID)
	require.NoError(t, err)
	assert.Len(t, restored.Brackets(), 12)

	got, err = s.BracketTable(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, got.Brackets(), 12)

	// The flat table was snapshotted by the restore.
	snaps, err = s.ListBracketSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 1, snaps[0].Brackets)

	_, err = s.RestoreBracketSnapshot(ctx, 999)
	assert.ErrorIs(t, err, payroll.ErrSnapshotNotFound)
}

func TestEmployeeCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cat := &payroll.Category{Name: "Operários"}
	require.NoError(t, s.CreateCategory(ctx, cat))
	err := s.CreateCategory(ctx, &payroll.Category{Name: "Operários"})
	assert.ErrorIs(t, err, payroll.ErrValidation)

	manual := d("20000")
	emp := &payroll.Employee{Name: "  João  ", CategoryID: &cat.ID, BaseSalary: d("200000"), ManualSubsidy: &manual, Active: true}
	require.NoError(t, s.CreateEmployee(ctx, emp))
	assert.Equal(t, "João", emp.Name)

	got, err := s.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assertMoney(t, "200000", got.BaseSalary)
	require.NotNil(t, got.ManualSubsidy)
	assertMoney(t, "20000", *got.ManualSubsidy)
	assert.Equal(t, cat.ID, *got.CategoryID)

	inactive := false
	updated, err := s.UpdateEmployee(ctx, emp.ID, payroll.EmployeeUpdate{Active: &inactive, ClearManualSubsidy: true})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Nil(t, updated.ManualSubsidy)

	active, err := s.ListActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = s.GetEmployee(ctx, 999)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)

	missing := int64(42)
	err = s.CreateEmployee(ctx, &payroll.Employee{Name: "X", CategoryID: &missing, BaseSalary: d("1")})
	assert.ErrorIs(t, err, payroll.ErrCategoryNotFound)
}

func TestAbsenceRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	emp := seedPayroll(t, s)

	none, err := s.GetAbsence(ctx, emp.ID, march2025)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, s.UpsertAbsence(ctx, &payroll.Absence{
		EmployeeID: emp.ID, Month: 3, Year: 2025, DaysAbsent: 2, Kind: payroll.AbsenceUnjustified,
	}))
	got, err := s.GetAbsence(ctx, emp.ID, march2025)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.DaysAbsent)
	assert.Nil(t, got.ManualDiscount)
}

func TestAssignToCategory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cat := &payroll.Category{Name: "Motoristas"}
	require.NoError(t, s.CreateCategory(ctx, cat))
	for _, name := range []string{"A", "B"} {
		require.NoError(t, s.CreateEmployee(ctx, &payroll.Employee{Name: name, CategoryID: &cat.ID, BaseSalary: d("100000"), Active: true}))
	}
	sub := &payroll.Subsidy{Name: "Risco", Kind: payroll.KindPercentage, Target: payroll.TargetIndividual, Percentage: d("5"), Active: true}
	require.NoError(t, s.CreateSubsidy(ctx, sub))
	assert.Equal(t, 1, sub.Installments)

	override := d("7000")
	n, err := s.AssignToCategory(ctx, sub.ID, cat.ID, &override)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	links, err := s.ListAssignments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assertMoney(t, "7000", *links[0].OverrideValue)

	require.NoError(t, s.DeleteSubsidy(ctx, sub.ID))
	links, err = s.ListAssignments(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestConfirmPeriodWritesRecordsAndExpenses(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	emp := seedPayroll(t, s)

	res, err := confirmMarch(t, s, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedCount)
	assert.True(t, res.Synced)
	assert.Len(t, res.LedgerEntryIDs, 2)
	assertMoney(t, "160500", res.Totals.NetSalary)

	sum, err := s.GetPeriod(ctx, march2025)
	require.NoError(t, err)
	assert.Equal(t, res.PeriodID, sum.ID)
	require.Len(t, sum.Records, 1)
	rec := sum.Records[0]
	assert.Equal(t, emp.ID, rec.EmployeeID)
	assertMoney(t, "165000", rec.GrossSalary)
	assertMoney(t, "12000", rec.EmployerSocialSecurity)
	require.Len(t, rec.Details, 1)
	assert.Equal(t, "Alimentação", rec.Details[0].Name)

	require.Len(t, sum.Payments, 1)
	assert.Equal(t, payroll.PaymentPaid, sum.Payments[0].Status)
	assertMoney(t, "160500", sum.Payments[0].AmountPaid)

	expenses, err := s.ListExpenses(ctx, ExpenseFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	byCategory := map[string]finance.Expense{}
	for _, e := range expenses {
		byCategory[e.Category] = e
		assert.Equal(t, "2025-03-31", e.Date.Format(dateLayout))
		assert.Equal(t, "1 funcionários", e.Notes)
	}
	assertMoney(t, "160500", byCategory[payroll.CategorySalaries].Amount)
	assertMoney(t, "12000", byCategory[payroll.CategoryEmployerSS].Amount)

	got, err := s.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assertMoney(t, "160500", got.NetSalary)
	_, err = s.GetRecord(ctx, 999)
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
}

func TestConfirmPeriodTwiceIsDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPayroll(t, s)

	_, err := confirmMarch(t, s, true)
	require.NoError(t, err)

	_, err = confirmMarch(t, s, true)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)

	expenses, err := s.ListExpenses(ctx, ExpenseFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestConfirmPeriodWithoutSyncPostsNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPayroll(t, s)

	res, err := confirmMarch(t, s, false)
	require.NoError(t, err)
	assert.Empty(t, res.LedgerEntryIDs)

	expenses, err := s.ListExpenses(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestConfirmPeriodIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPayroll(t, s)

	calc := payroll.NewCalculator(s, s, s, s)
	run, err := calc.CalculatePeriod(ctx, payroll.DefaultConfig(), march2025, nil)
	require.NoError(t, err)

	ghost := run.Records[0]
	ghost.EmployeeID = 999
	ghost.Details = nil
	c, err := payroll.NewConfirmation(march2025, append(run.Records, ghost), true)
	require.NoError(t, err)

	_, err = s.ConfirmPeriod(ctx, c)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)

	_, err = s.GetPeriod(ctx, march2025)
	assert.ErrorIs(t, err, payroll.ErrPeriodNotFound)
	records, err := s.ListRecords(ctx, march2025)
	require.NoError(t, err)
	assert.Empty(t, records)
	expenses, err := s.ListExpenses(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, expenses)
	payments, err := s.ListPaymentStatuses(ctx, march2025)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestDeletePeriodAllowsReconfirm(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPayroll(t, s)

	_, err := confirmMarch(t, s, true)
	require.NoError(t, err)

	require.NoError(t, s.DeletePeriod(ctx, march2025))
	assert.ErrorIs(t, s.DeletePeriod(ctx, march2025), payroll.ErrPeriodNotFound)

	expenses, err := s.ListExpenses(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, expenses)

	_, err = confirmMarch(t, s, true)
	require.NoError(t, err)
}

func TestSetPaymentStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	emp := seedPayroll(t, s)
	s.now = func() time.Time { return time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC) }

	st := &payroll.PaymentStatus{EmployeeID: emp.ID, Month: 3, Year: 2025, Status: "pago", AmountPaid: d("160500")}
	require.NoError(t, s.SetPaymentStatus(ctx, st))
	assert.Equal(t, payroll.PaymentPaid, st.Status)
	require.NotNil(t, st.PaidAt)

	require.NoError(t, s.SetPaymentStatus(ctx, &payroll.PaymentStatus{
		EmployeeID: emp.ID, Month: 3, Year: 2025, Status: payroll.PaymentPending, AmountPaid: decimal.Zero,
	}))
	list, err := s.ListPaymentStatuses(ctx, march2025)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, payroll.PaymentPending, list[0].Status)
	assert.Nil(t, list[0].PaidAt)

	err = s.SetPaymentStatus(ctx, &payroll.PaymentStatus{EmployeeID: 999, Month: 3, Year: 2025, Status: payroll.PaymentPaid})
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestSettingsDefaultsAndRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cfg, err := s.PayrollConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, payroll.DefaultConfig(), cfg)

	cfg.WorkingDays = 21
	cfg.FixedDeduction = d("70000")
	require.NoError(t, s.SavePayrollConfig(ctx, cfg))
	got, err := s.PayrollConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, got.WorkingDays)
	assertMoney(t, "70000", got.FixedDeduction)

	fin, err := s.FinanceConfig(ctx)
	require.NoError(t, err)
	fin.StampDutyPercent = d("1")
	require.NoError(t, s.SaveFinanceConfig(ctx, fin))
	fin, err = s.FinanceConfig(ctx)
	require.NoError(t, err)
	assertMoney(t, "1", fin.StampDutyPercent)
	assertMoney(t, "0.87", fin.EstimatedSalaryFactor)

	mods, err := s.ModuleConfig(ctx)
	require.NoError(t, err)
	assert.True(t, mods.SyncPayrollToSales())
	mods.Mode = payroll.ModeSalesPayroll
	require.NoError(t, s.SaveModuleConfig(ctx, mods))
	mods, err = s.ModuleConfig(ctx)
	require.NoError(t, err)
	assert.False(t, mods.SyncPayrollToSales())

	bad := payroll.DefaultConfig()
	bad.WorkingDays = 0
	assert.ErrorIs(t, s.SavePayrollConfig(ctx, bad), payroll.ErrInvalidConfig)
}

func TestIncomeStatementPrefersActualPayroll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPayroll(t, s)

	require.NoError(t, s.CreateSale(ctx, &finance.Sale{
		Total: d("500000"), Tax: d("0"), SoldAt: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.CreateSale(ctx, &finance.Sale{
		Total: d("90000"), Status: finance.SaleCancelled, SoldAt: time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.CreateExpense(ctx, &finance.Expense{
		Category: "Marketing", Description: "Panfletos", Amount: d("10000"),
		Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), Paid: true,
	}))

	before, err := s.IncomeStatement(ctx, march2025)
	require.NoError(t, err)
	assert.Equal(t, finance.SourceEstimate, before.Personnel.Source)
	assertMoney(t, "130500", before.Personnel.Salaries)

	_, err = confirmMarch(t, s, true)
	require.NoError(t, err)

	st, err := s.IncomeStatement(ctx, march2025)
	require.NoError(t, err)
	assertMoney(t, "500000", st.GrossRevenue)
	assertMoney(t, "10000", st.OperatingExpenses.Total)
	assertMoney(t, "10000", st.OperatingExpenses.Commercial)
	assert.Equal(t, finance.SourceActual, st.Personnel.Source)
	assertMoney(t, "165000", st.Personnel.Salaries)
	assertMoney(t, "12000", st.Personnel.EmployerSocialSecurity)
	assertMoney(t, "313000", st.ProfitBeforeTax)
	assertMoney(t, "313000", st.NetProfit)
}
