// Package finance builds the monthly income statement (DRE) from sales,
// expenses and payroll figures supplied by the caller.
package finance

import (
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

// SalesSummary aggregates the completed sales of a period.
type SalesSummary struct {
	Count        int             `json:"count"`
	GrossWithTax decimal.Decimal `json:"gross_with_tax"`
	Tax          decimal.Decimal `json:"tax"`
	Discounts    decimal.Decimal `json:"discounts"`
	CostOfGoods  decimal.Decimal `json:"cost_of_goods"`
}

// ExpenseTotal is the paid total of one expense category in a period.
type ExpenseTotal struct {
	Category   string          `json:"category"`
	FiscalCode string          `json:"fiscal_code,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// PayrollSummary aggregates the confirmed payroll records of a period.
type PayrollSummary struct {
	Employees              int             `json:"employees"`
	BaseSalary             decimal.Decimal `json:"base_salary"`
	GrossSalary            decimal.Decimal `json:"gross_salary"`
	EmployeeSocialSecurity decimal.Decimal `json:"employee_social_security"`
	EmployerSocialSecurity decimal.Decimal `json:"employer_social_security"`
	IncomeTax              decimal.Decimal `json:"income_tax"`
	NetSalary              decimal.Decimal `json:"net_salary"`
}

// Inputs is what Build needs. Payroll is nil when the period has no
// confirmed records; only then is the estimate used.
type Inputs struct {
	Period             payroll.Period
	Sales              SalesSummary
	Expenses           []ExpenseTotal
	Payroll            *PayrollSummary
	ActiveBaseSalaries decimal.Decimal
	ActiveEmployees    int
}

type Group string

const (
	GroupAdministrative Group = "administrative"
	GroupCommercial     Group = "commercial"
	GroupOperational    Group = "operational"
	GroupPayroll        Group = "payroll"
)

var (
	administrativeCategories = []string{"administrativas", "escritorio", "material"}
	commercialCategories     = []string{"marketing", "vendas", "publicidade"}
)

// GroupFor classifies an expense category. The fiscal code prefix (ADM, COM)
// wins over the category name. Payroll categories are kept apart so they are
// never counted as operating expenses.
func GroupFor(category, fiscalCode string) Group {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == payroll.CategorySalaries || c == payroll.CategoryEmployerSS {
		return GroupPayroll
	}
	code := strings.ToUpper(fiscalCode)
	switch {
	case strings.HasPrefix(code, "ADM"), slices.Contains(administrativeCategories, c):
		return GroupAdministrative
	case strings.HasPrefix(code, "COM"), slices.Contains(commercialCategories, c):
		return GroupCommercial
	}
	return GroupOperational
}

type OperatingExpenses struct {
	Administrative decimal.Decimal `json:"administrative"`
	Commercial     decimal.Decimal `json:"commercial"`
	Operational    decimal.Decimal `json:"operational"`
	Total          decimal.Decimal `json:"total"`
	ByCategory     []ExpenseTotal  `json:"by_category"`
}

type PersonnelSource string

const (
	// SourceActual uses confirmed payroll records.
	SourceActual PersonnelSource = "actual"
	// SourcePosted uses salary expenses posted without confirmed records.
	SourcePosted PersonnelSource = "posted"
	// SourceEstimate applies the configured factors to active base salaries.
	SourceEstimate PersonnelSource = "estimate"
)

type PersonnelCost struct {
	Source                 PersonnelSource `json:"source"`
	Salaries               decimal.Decimal `json:"salaries"`
	EmployerSocialSecurity decimal.Decimal `json:"employer_social_security"`
	Total                  decimal.Decimal `json:"total"`
	BaseSalary             decimal.Decimal `json:"base_salary"`
	EmployeeSocialSecurity decimal.Decimal `json:"employee_social_security"`
	IncomeTaxWithheld      decimal.Decimal `json:"income_tax_withheld"`
	Employees              int             `json:"employees"`
}

// IncomeStatement is the DRE for one month. Margins are percentages of
// GrossRevenue, which excludes the tax collected.
type IncomeStatement struct {
	Period                    payroll.Period    `json:"period"`
	GrossRevenueWithTax       decimal.Decimal   `json:"gross_revenue_with_tax"`
	TaxCollected              decimal.Decimal   `json:"tax_collected"`
	GrossRevenue              decimal.Decimal   `json:"gross_revenue"`
	Deductions                decimal.Decimal   `json:"deductions"`
	NetRevenue                decimal.Decimal   `json:"net_revenue"`
	CostOfGoodsSold           decimal.Decimal   `json:"cost_of_goods_sold"`
	GrossProfit               decimal.Decimal   `json:"gross_profit"`
	GrossMargin               decimal.Decimal   `json:"gross_margin"`
	OperatingExpenses         OperatingExpenses `json:"operating_expenses"`
	OperatingProfit           decimal.Decimal   `json:"operating_profit"`
	OperatingMargin           decimal.Decimal   `json:"operating_margin"`
	Personnel                 PersonnelCost     `json:"personnel"`
	ProfitBeforeTax           decimal.Decimal   `json:"profit_before_tax"`
	EstimatedIncomeTaxPercent decimal.Decimal   `json:"estimated_income_tax_percent"`
	EstimatedIncomeTax        decimal.Decimal   `json:"estimated_income_tax"`
	StampDutyPercent          decimal.Decimal   `json:"stamp_duty_percent"`
	StampDutyRevenueFloor     decimal.Decimal   `json:"stamp_duty_revenue_floor"`
	StampDuty                 decimal.Decimal   `json:"stamp_duty"`
	NetProfit                 decimal.Decimal   `json:"net_profit"`
	NetMargin                 decimal.Decimal   `json:"net_margin"`
}

// Build computes the income statement. It is pure; every figure is rounded to
// cents at the step that produces it.
func Build(in Inputs, cfg Config) (*IncomeStatement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	round := payroll.RoundMoney

	s := &IncomeStatement{Period: in.Period}
	s.GrossRevenueWithTax = round(in.Sales.GrossWithTax)
	s.TaxCollected = round(in.Sales.Tax)
	s.GrossRevenue = s.GrossRevenueWithTax.Sub(s.TaxCollected)
	s.Deductions = round(in.Sales.Discounts)
	s.NetRevenue = s.GrossRevenue.Sub(s.Deductions)
	s.CostOfGoodsSold = round(in.Sales.CostOfGoods)
	s.GrossProfit = s.NetRevenue.Sub(s.CostOfGoodsSold)

	posted := struct{ salaries, employerSS decimal.Decimal }{decimal.Zero, decimal.Zero}
	opex := OperatingExpenses{
		Administrative: decimal.Zero,
		Commercial:     decimal.Zero,
		Operational:    decimal.Zero,
		ByCategory:     []ExpenseTotal{},
	}
	for _, e := range in.Expenses {
		amount := round(e.Amount)
		switch GroupFor(e.Category, e.FiscalCode) {
		case GroupPayroll:
			if strings.EqualFold(strings.TrimSpace(e.Category), payroll.CategorySalaries) {
				posted.salaries = posted.salaries.Add(amount)
			} else {
				posted.employerSS = posted.employerSS.Add(amount)
			}
			continue
		case GroupAdministrative:
			opex.Administrative = opex.Administrative.Add(amount)
		case GroupCommercial:
			opex.Commercial = opex.Commercial.Add(amount)
		default:
			opex.Operational = opex.Operational.Add(amount)
		}
		opex.ByCategory = append(opex.ByCategory, ExpenseTotal{Category: e.Category, FiscalCode: e.FiscalCode, Amount: amount})
	}
	sort.Slice(opex.ByCategory, func(i, j int) bool {
		return opex.ByCategory[i].Category < opex.ByCategory[j].Category
	})
	opex.Total = opex.Administrative.Add(opex.Commercial).Add(opex.Operational)
	s.OperatingExpenses = opex
	s.OperatingProfit = s.GrossProfit.Sub(opex.Total)

	switch {
	case in.Payroll != nil:
		p := in.Payroll
		s.Personnel = PersonnelCost{
			Source:                 SourceActual,
			Salaries:               round(p.GrossSalary),
			EmployerSocialSecurity: round(p.EmployerSocialSecurity),
			BaseSalary:             round(p.BaseSalary),
			EmployeeSocialSecurity: round(p.EmployeeSocialSecurity),
			IncomeTaxWithheld:      round(p.IncomeTax),
			Employees:              p.Employees,
		}
	case !posted.salaries.IsZero():
		s.Personnel = PersonnelCost{
			Source:                 SourcePosted,
			Salaries:               posted.salaries,
			EmployerSocialSecurity: posted.employerSS,
			BaseSalary:             decimal.Zero,
			EmployeeSocialSecurity: decimal.Zero,
			IncomeTaxWithheld:      decimal.Zero,
		}
	default:
		base := round(in.ActiveBaseSalaries)
		s.Personnel = PersonnelCost{
			Source:                 SourceEstimate,
			Salaries:               round(base.Mul(cfg.EstimatedSalaryFactor)),
			EmployerSocialSecurity: round(base.Mul(cfg.EstimatedEmployerSSFactor)),
			BaseSalary:             base,
			EmployeeSocialSecurity: round(base.Mul(cfg.EstimatedEmployeeSSFactor)),
			IncomeTaxWithheld:      round(base.Mul(cfg.EstimatedWithholdFactor)),
			Employees:              in.ActiveEmployees,
		}
	}
	s.Personnel.Total = s.Personnel.Salaries.Add(s.Personnel.EmployerSocialSecurity)

	s.ProfitBeforeTax = s.OperatingProfit.Sub(s.Personnel.Total)

	s.EstimatedIncomeTaxPercent = cfg.EstimatedIncomeTaxPercent
	s.EstimatedIncomeTax = decimal.Zero
	if s.ProfitBeforeTax.IsPositive() && cfg.EstimatedIncomeTaxPercent.IsPositive() {
		s.EstimatedIncomeTax = round(payroll.PercentOf(s.ProfitBeforeTax, cfg.EstimatedIncomeTaxPercent))
	}

	s.StampDutyPercent = cfg.StampDutyPercent
	s.StampDutyRevenueFloor = cfg.StampDutyRevenueFloor
	s.StampDuty = decimal.Zero
	if cfg.StampDutyPercent.IsPositive() &&
		(!cfg.StampDutyRevenueFloor.IsPositive() || s.GrossRevenueWithTax.GreaterThanOrEqual(cfg.StampDutyRevenueFloor)) {
		s.StampDuty = round(payroll.PercentOf(s.GrossRevenueWithTax, cfg.StampDutyPercent))
	}

	s.NetProfit = s.ProfitBeforeTax.Sub(s.EstimatedIncomeTax).Sub(s.StampDuty)

	s.GrossMargin = margin(s.GrossProfit, s.GrossRevenue)
	s.OperatingMargin = margin(s.OperatingProfit, s.GrossRevenue)
	s.NetMargin = margin(s.NetProfit, s.GrossRevenue)
	return s, nil
}

func margin(profit, revenue decimal.Decimal) decimal.Decimal {
	if !revenue.IsPositive() {
		return decimal.Zero
	}
	return profit.Mul(decimal.NewFromInt(100)).Div(revenue).Round(2)
}
