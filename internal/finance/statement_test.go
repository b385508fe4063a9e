package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgva-ao/sgva/internal/payroll"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func baseInputs() Inputs {
	return Inputs{
		Period: payroll.Period{Month: 3, Year: 2025},
		Sales: SalesSummary{
			Count:        4,
			GrossWithTax: d("1140000"),
			Tax:          d("140000"),
			Discounts:    d("20000"),
			CostOfGoods:  d("380000"),
		},
		Expenses: []ExpenseTotal{
			{Category: "escritorio", Amount: d("15000")},
			{Category: "publicidade", Amount: d("25000")},
			{Category: "renda", Amount: d("60000")},
			{Category: "consultoria", FiscalCode: "ADM-02", Amount: d("10000")},
		},
	}
}

func TestBuildUsesConfirmedPayroll(t *testing.T) {
	in := baseInputs()
	in.Payroll = &PayrollSummary{
		Employees:              1,
		BaseSalary:             d("100000"),
		GrossSalary:            d("103300"),
		EmployeeSocialSecurity: d("3100"),
		EmployerSocialSecurity: d("8264"),
		IncomeTax:              d("0"),
		NetSalary:              d("100200"),
	}
	// A hire after confirmation must not change the period's personnel cost.
	in.ActiveBaseSalaries = d("400000")
	in.ActiveEmployees = 2
	// Posted payroll expenses are never operating expenses.
	in.Expenses = append(in.Expenses,
		ExpenseTotal{Category: payroll.CategorySalaries, Amount: d("100200")},
		ExpenseTotal{Category: payroll.CategoryEmployerSS, Amount: d("8264")},
	)

	s, err := Build(in, DefaultConfig())
	require.NoError(t, err)

	assertMoney(t, "1000000", s.GrossRevenue, "gross revenue")
	assertMoney(t, "980000", s.NetRevenue, "net revenue")
	assertMoney(t, "600000", s.GrossProfit, "gross profit")
	assertMoney(t, "25000", s.OperatingExpenses.Administrative, "administrative")
	assertMoney(t, "25000", s.OperatingExpenses.Commercial, "commercial")
	assertMoney(t, "60000", s.OperatingExpenses.Operational, "operational")
	assertMoney(t, "110000", s.OperatingExpenses.Total, "opex")
	assert.Len(t, s.OperatingExpenses.ByCategory, 4)
	assertMoney(t, "490000", s.OperatingProfit, "operating profit")

	assert.Equal(t, SourceActual, s.Personnel.Source)
	assert.Equal(t, 1, s.Personnel.Employees)
	assertMoney(t, "103300", s.Personnel.Salaries, "salaries")
	assertMoney(t, "111564", s.Personnel.Total, "personnel")
	assertMoney(t, "378436", s.ProfitBeforeTax, "profit before tax")
	assertMoney(t, "378436", s.NetProfit, "net profit")
	assertMoney(t, "60", s.GrossMargin, "gross margin")
	assertMoney(t, "49", s.OperatingMargin, "operating margin")
	assertMoney(t, "37.84", s.NetMargin, "net margin")
}

func TestBuildEstimatesWithoutPayroll(t *testing.T) {
	in := baseInputs()
	in.ActiveBaseSalaries = d("500000")
	in.ActiveEmployees = 3

	s, err := Build(in, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, SourceEstimate, s.Personnel.Source)
	assert.Equal(t, 3, s.Personnel.Employees)
	assertMoney(t, "435000", s.Personnel.Salaries, "salaries")
	assertMoney(t, "40000", s.Personnel.EmployerSocialSecurity, "employer ss")
	assertMoney(t, "15000", s.Personnel.EmployeeSocialSecurity, "employee ss")
	assertMoney(t, "50000", s.Personnel.IncomeTaxWithheld, "irt")
	assertMoney(t, "15000", s.ProfitBeforeTax, "profit before tax")
}

func TestBuildPostedPayrollExpenses(t *testing.T) {
	in := baseInputs()
	in.ActiveBaseSalaries = d("500000")
	in.Expenses = append(in.Expenses,
		ExpenseTotal{Category: payroll.CategorySalaries, Amount: d("90000")},
		ExpenseTotal{Category: payroll.CategoryEmployerSS, Amount: d("8000")},
	)

	s, err := Build(in, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, SourcePosted, s.Personnel.Source)
	assertMoney(t, "98000", s.Personnel.Total, "personnel")
	assertMoney(t, "110000", s.OperatingExpenses.Total, "opex")
}

func TestBuildTaxes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EstimatedIncomeTaxPercent = d("25")
	cfg.StampDutyPercent = d("1")
	cfg.StampDutyRevenueFloor = d("1000000")

	in := baseInputs()
	in.Payroll = &PayrollSummary{GrossSalary: d("100000"), EmployerSocialSecurity: d("8000")}

	s, err := Build(in, cfg)
	require.NoError(t, err)
	assertMoney(t, "382000", s.ProfitBeforeTax, "profit before tax")
	assertMoney(t, "95500", s.EstimatedIncomeTax, "irt")
	assertMoney(t, "11400", s.StampDuty, "stamp duty")
	assertMoney(t, "275100", s.NetProfit, "net profit")

	cfg.StampDutyRevenueFloor = d("2000000")
	s, err = Build(in, cfg)
	require.NoError(t, err)
	assertMoney(t, "0", s.StampDuty, "stamp duty below floor")

	in.Payroll = &PayrollSummary{GrossSalary: d("900000"), EmployerSocialSecurity: d("72000")}
	s, err = Build(in, cfg)
	require.NoError(t, err)
	assert.True(t, s.ProfitBeforeTax.IsNegative())
	assertMoney(t, "0", s.EstimatedIncomeTax, "irt on a loss")
}

func TestBuildWithoutRevenue(t *testing.T) {
	s, err := Build(Inputs{Period: payroll.Period{Month: 1, Year: 2025}}, DefaultConfig())
	require.NoError(t, err)
	assertMoney(t, "0", s.GrossMargin, "gross margin")
	assertMoney(t, "0", s.NetMargin, "net margin")
	assert.Equal(t, SourceEstimate, s.Personnel.Source)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StampDutyPercent = d("-1")
	_, err := Build(baseInputs(), cfg)
	assert.ErrorIs(t, err, payroll.ErrConfiguration)
}

func TestGroupFor(t *testing.T) {
	tests := []struct {
		category, code string
		want           Group
	}{
		{"material", "", GroupAdministrative},
		{"qualquer", "ADM01", GroupAdministrative},
		{"marketing", "", GroupCommercial},
		{"feiras", "com-9", GroupCommercial},
		{"renda", "", GroupOperational},
		{"salarios", "ADM01", GroupPayroll},
		{"inss_patronal", "", GroupPayroll},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GroupFor(tt.category, tt.code), tt.category)
	}
}
