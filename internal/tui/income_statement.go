package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

type statementLoadedMsg struct {
	period payroll.Period
	st     *finance.IncomeStatement
	err    error
}

type statementModel struct {
	period  payroll.Period
	st      *finance.IncomeStatement
	loading bool
	err     error
	width   int
	height  int
}

func (m *statementModel) init(c *client.Client, p payroll.Period) tea.Cmd {
	m.period = p
	m.loading = true
	return func() tea.Msg {
		st, err := c.IncomeStatement(context.Background(), p)
		return statementLoadedMsg{period: p, st: st, err: err}
	}
}

func (m statementModel) update(msg tea.Msg) (statementModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statementLoadedMsg:
		if msg.period != m.period {
			return m, nil
		}
		m.loading = false
		m.st = msg.st
		m.err = msg.err
	}
	return m, nil
}

func (m *statementModel) view() string {
	if m.loading {
		return "Loading income statement..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.st == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	st := m.st
	w := m.width
	if w < 60 || w > 90 {
		w = 80
	}
	labelW := w - 24

	row := func(label string, v decimal.Decimal) {
		b.WriteString(fmt.Sprintf("    %-*s %16s\n", labelW, label, formatSigned(v)))
	}
	pct := func(label string, v decimal.Decimal) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("    %-*s %15s%%", labelW, label, v.StringFixed(1))) + "\n")
	}
	rule := func(r string) {
		b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat(r, w-8)))
	}
	section := func(title string) {
		b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(title)))
	}

	b.WriteString(titleStyle.Render(centerStr("INCOME STATEMENT (DRE) "+st.Period.String(), w)))
	b.WriteString("\n\n")

	section("Revenue")
	row("Gross revenue (with tax)", st.GrossRevenueWithTax)
	row("Tax collected", st.TaxCollected.Neg())
	row("Gross revenue", st.GrossRevenue)
	row("Discounts and cancellations", st.Deductions.Neg())
	rule("─")
	row("Net revenue", st.NetRevenue)
	row("Cost of goods sold", st.CostOfGoodsSold.Neg())
	rule("─")
	row("Gross profit", st.GrossProfit)
	pct("gross margin", st.GrossMargin)
	b.WriteString("\n")

	section("Operating expenses")
	if len(st.OperatingExpenses.ByCategory) == 0 {
		b.WriteString(dimStyle.Render("    (no entries)") + "\n")
	}
	for _, e := range st.OperatingExpenses.ByCategory {
		label := e.Category
		if e.FiscalCode != "" {
			label += " [" + e.FiscalCode + "]"
		}
		row(label, e.Amount.Neg())
	}
	row("Total operating expenses", st.OperatingExpenses.Total.Neg())
	rule("─")
	row("Operating profit", st.OperatingProfit)
	pct("operating margin", st.OperatingMargin)
	b.WriteString("\n")

	source := successStyle.Render(string(st.Personnel.Source))
	if st.Personnel.Source == finance.SourceEstimate {
		source = warnStyle.Render(string(st.Personnel.Source))
	}
	section("Personnel")
	b.WriteString(fmt.Sprintf("    %d employees, %s\n", st.Personnel.Employees, source))
	row("Salaries", st.Personnel.Salaries.Neg())
	row("INSS employer", st.Personnel.EmployerSocialSecurity.Neg())
	rule("─")
	row("Profit before tax", st.ProfitBeforeTax)
	row(fmt.Sprintf("Income tax estimate (%s%%)", st.EstimatedIncomeTaxPercent), st.EstimatedIncomeTax.Neg())
	row(fmt.Sprintf("Stamp duty (%s%%)", st.StampDutyPercent), st.StampDuty.Neg())
	rule("═")

	net := fmt.Sprintf("    %-*s %16s", labelW, "NET PROFIT", formatSigned(st.NetProfit))
	if st.NetProfit.IsNegative() {
		b.WriteString(errorStyle.Render(net))
	} else {
		b.WriteString(successStyle.Render(net))
	}
	b.WriteString("\n")
	pct("net margin", st.NetMargin)

	return b.String()
}
