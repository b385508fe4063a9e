package store

import (
	"context"
	"fmt"

	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

// IncomeStatementInputs gathers the month's figures for finance.Build:
// completed sales, paid expenses by category, the confirmed payroll totals
// when records exist, and the active salary base for the estimate.
func (s *Store) IncomeStatementInputs(ctx context.Context, p payroll.Period) (finance.Inputs, error) {
	in := finance.Inputs{Period: p, Expenses: []finance.ExpenseTotal{}}
	prefix := monthPrefix(p.Year, p.Month)

	var gross, tax, discount, cost int64
	err := s.reader.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(tax), 0),
			COALESCE(SUM(discount), 0), COALESCE(SUM(cost_of_goods), 0)
		 FROM sales WHERE status = 'completed' AND substr(sold_at, 1, 7) = ?`, prefix,
	).Scan(&in.Sales.Count, &gross, &tax, &discount, &cost)
	if err != nil {
		return in, fmt.Errorf("sales summary: %w", err)
	}
	in.Sales.GrossWithTax = payroll.FromCents(gross)
	in.Sales.Tax = payroll.FromCents(tax)
	in.Sales.Discounts = payroll.FromCents(discount)
	in.Sales.CostOfGoods = payroll.FromCents(cost)

	rows, err := s.reader.QueryContext(ctx,
		`SELECT e.category, COALESCE(c.fiscal_code, ''), SUM(e.amount)
		 FROM expenses e
		 LEFT JOIN expense_categories c ON c.name = e.category
		 WHERE e.paid = 1 AND substr(e.expense_date, 1, 7) = ?
		 GROUP BY e.category
		 ORDER BY e.category`, prefix)
	if err != nil {
		return in, fmt.Errorf("expense totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t finance.ExpenseTotal
		var amount int64
		if err := rows.Scan(&t.Category, &t.FiscalCode, &amount); err != nil {
			return in, fmt.Errorf("scan expense total: %w", err)
		}
		t.Amount = payroll.FromCents(amount)
		in.Expenses = append(in.Expenses, t)
	}
	if err := rows.Err(); err != nil {
		return in, err
	}
	rows.Close()

	var (
		n                           int
		base, grossPay, empSS, erSS int64
		incomeTax, net              int64
	)
	err = s.reader.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(base_salary), 0), COALESCE(SUM(gross_salary), 0),
			COALESCE(SUM(employee_ss), 0), COALESCE(SUM(employer_ss), 0),
			COALESCE(SUM(income_tax), 0), COALESCE(SUM(net_salary), 0)
		 FROM payroll_records WHERE year = ? AND month = ?`, p.Year, p.Month,
	).Scan(&n, &base, &grossPay, &empSS, &erSS, &incomeTax, &net)
	if err != nil {
		return in, fmt.Errorf("payroll summary: %w", err)
	}
	if n > 0 {
		in.Payroll = &finance.PayrollSummary{
			Employees:              n,
			BaseSalary:             payroll.FromCents(base),
			GrossSalary:            payroll.FromCents(grossPay),
			EmployeeSocialSecurity: payroll.FromCents(empSS),
			EmployerSocialSecurity: payroll.FromCents(erSS),
			IncomeTax:              payroll.FromCents(incomeTax),
			NetSalary:              payroll.FromCents(net),
		}
	}

	var active int64
	err = s.reader.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(base_salary), 0) FROM employees WHERE active = 1`,
	).Scan(&in.ActiveEmployees, &active)
	if err != nil {
		return in, fmt.Errorf("active salaries: %w", err)
	}
	in.ActiveBaseSalaries = payroll.FromCents(active)
	return in, nil
}

// IncomeStatement loads the inputs and the finance settings and builds the
// statement for p.
func (s *Store) IncomeStatement(ctx context.Context, p payroll.Period) (*finance.IncomeStatement, error) {
	in, err := s.IncomeStatementInputs(ctx, p)
	if err != nil {
		return nil, err
	}
	cfg, err := s.FinanceConfig(ctx)
	if err != nil {
		return nil, err
	}
	return finance.Build(in, cfg)
}
