package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

type payslipLoadedMsg struct {
	record *payroll.Record
	err    error
}

type payslipModel struct {
	record  *payroll.Record
	loading bool
	err     error
	width   int
}

// init shows rec right away. Stored records are reloaded so the subsidy
// lines come from the database.
func (m *payslipModel) init(c *client.Client, rec payroll.Record) tea.Cmd {
	m.record = &rec
	m.err = nil
	if rec.ID == 0 {
		return nil
	}
	m.loading = true
	return func() tea.Msg {
		r, err := c.Record(context.Background(), rec.ID)
		return payslipLoadedMsg{record: r, err: err}
	}
}

func (m payslipModel) update(msg tea.Msg) (payslipModel, tea.Cmd) {
	switch msg := msg.(type) {
	case payslipLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.record != nil {
			m.record = msg.record
		}
	}
	return m, nil
}

func (m *payslipModel) view() string {
	if m.loading {
		return "Loading payslip..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	r := m.record
	if r == nil {
		return ""
	}

	var b strings.Builder
	line := func(label string, v decimal.Decimal) {
		b.WriteString(fmt.Sprintf("%s %16s\n", labelStyle.Render(label), money(v)))
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("Payslip: %s (%s)", r.EmployeeName, r.Period())))
	b.WriteString("\n")

	line("Base salary", r.OriginalBaseSalary)
	if !r.AbsenceDeduction.IsZero() {
		line("Absences", r.AbsenceDeduction.Neg())
		line("Base after absences", r.BaseSalary)
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-24s %14s %14s %14s", "SUBSIDY", "VALUE", "EXEMPT", "TAXABLE")))
	b.WriteString("\n")
	if len(r.Details) == 0 {
		b.WriteString(dimStyle.Render("  (none)") + "\n")
	}
	for _, d := range r.Details {
		b.WriteString(fmt.Sprintf("  %-24s %14s %14s %14s\n", d.Name, money(d.Value), money(d.ExemptAmount), money(d.TaxableAmount)))
	}
	b.WriteString(dimStyle.Render("  source: "+string(r.SubsidySource)) + "\n\n")

	line("Gross salary", r.GrossSalary)
	line("INSS base", r.SocialSecurityBase)
	line("INSS employee", r.EmployeeSocialSecurity.Neg())
	line("Taxable income", r.TaxableIncome)
	b.WriteString(dimStyle.Render(fmt.Sprintf("  bracket %d at %s%%", r.BracketOrder, r.BracketRate)) + "\n")
	line("IRT", r.IncomeTax.Neg())
	b.WriteString(totalStyle.Render(fmt.Sprintf("%s %16s", labelStyle.Render("Net salary"), money(r.NetSalary))) + "\n\n")
	line("INSS employer", r.EmployerSocialSecurity)
	line("Employer cost", r.TotalEmployerCost)

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
