package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

// periodLoadedMsg carries either the stored period or, when it has not been
// confirmed yet, a fresh calculation of it.
type periodLoadedMsg struct {
	period  payroll.Period
	summary *payroll.PeriodSummary
	preview *payroll.PeriodCalculation
	err     error
}

type periodConfirmRequestMsg struct{ period payroll.Period }

type periodConfirmedMsg struct {
	result *payroll.ConfirmationResult
	err    error
}

type periodDeleteRequestMsg struct{ period payroll.Period }

type periodDeletedMsg struct {
	period payroll.Period
	err    error
}

type paymentRequestMsg struct {
	period     payroll.Period
	employeeID int64
	status     payroll.PaymentState
	amount     decimal.Decimal
}

type paymentSetMsg struct {
	status *payroll.PaymentStatus
	err    error
}

type periodModel struct {
	period     payroll.Period
	records    []payroll.Record
	failures   []payroll.Failure
	totals     payroll.PeriodTotals
	payments   map[int64]payroll.PaymentStatus
	confirmed  bool
	synced     bool
	cursor     int
	loading    bool
	err        error
	width      int
	height     int
	confirming bool
	deleting   bool
}

func loadPeriod(c *client.Client, p payroll.Period) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sum, err := c.Period(ctx, p)
		if err == nil {
			return periodLoadedMsg{period: p, summary: sum}
		}
		if !errors.Is(err, payroll.ErrNotFound) {
			return periodLoadedMsg{period: p, err: err}
		}
		run, err := c.CalculatePeriod(ctx, p, nil)
		return periodLoadedMsg{period: p, preview: run, err: err}
	}
}

func (m *periodModel) init(c *client.Client, p payroll.Period) tea.Cmd {
	if p != m.period {
		m.cursor = 0
	}
	m.period = p
	m.loading = true
	m.confirming = false
	m.deleting = false
	return loadPeriod(c, p)
}

func (m periodModel) update(msg tea.Msg) (periodModel, tea.Cmd) {
	switch msg := msg.(type) {
	case periodLoadedMsg:
		if msg.period != m.period {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.records, m.failures, m.payments = nil, nil, nil
		m.confirmed, m.synced = false, false
		switch {
		case msg.summary != nil:
			m.confirmed = true
			m.synced = msg.summary.Synced
			m.records = msg.summary.Records
			m.totals = msg.summary.Totals
			m.payments = make(map[int64]payroll.PaymentStatus, len(msg.summary.Payments))
			for _, st := range msg.summary.Payments {
				m.payments[st.EmployeeID] = st
			}
		case msg.preview != nil:
			m.records = msg.preview.Records
			m.failures = msg.preview.Failures
			m.totals = msg.preview.Totals
		}
		if m.cursor >= len(m.records) {
			m.cursor = max(len(m.records)-1, 0)
		}

	case paymentSetMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.payments != nil {
			m.payments[msg.status.EmployeeID] = *msg.status
		}

	case tea.KeyMsg:
		if m.confirming || m.deleting {
			p := m.period
			yes := msg.String() == "y" || msg.String() == "Y"
			confirming := m.confirming
			m.confirming, m.deleting = false, false
			if !yes {
				return m, nil
			}
			if confirming {
				return m, func() tea.Msg { return periodConfirmRequestMsg{period: p} }
			}
			return m, func() tea.Msg { return periodDeleteRequestMsg{period: p} }
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.records)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Confirm):
			if !m.confirmed && len(m.records) > 0 && len(m.failures) == 0 {
				m.confirming = true
				m.err = nil
			}
		case key.Matches(msg, keys.Delete):
			if m.confirmed {
				m.deleting = true
				m.err = nil
			}
		case key.Matches(msg, keys.Pay):
			rec, ok := m.selected()
			if !ok || !m.confirmed {
				return m, nil
			}
			req := paymentRequestMsg{period: m.period, employeeID: rec.EmployeeID, status: payroll.PaymentPaid, amount: rec.NetSalary}
			if m.payments[rec.EmployeeID].Status == payroll.PaymentPaid {
				req.status, req.amount = payroll.PaymentPending, decimal.Zero
			}
			return m, func() tea.Msg { return req }
		}
	}
	return m, nil
}

func (m *periodModel) selected() (payroll.Record, bool) {
	if m.cursor >= 0 && m.cursor < len(m.records) {
		return m.records[m.cursor], true
	}
	return payroll.Record{}, false
}

func (m *periodModel) view() string {
	if m.loading {
		return "Loading payroll " + m.period.String() + "..."
	}

	var b strings.Builder

	state := warnStyle.Render("preview, not confirmed")
	if m.confirmed {
		state = successStyle.Render("confirmed")
		if m.synced {
			state += dimStyle.Render("  posted to expenses")
		}
	}
	b.WriteString(titleStyle.Render("Payroll " + m.period.String()))
	b.WriteString("\n" + state + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if len(m.records) == 0 && len(m.failures) == 0 {
		b.WriteString(dimStyle.Render("No active employees for this period."))
		return b.String()
	}

	header := fmt.Sprintf("  %-5s %-24s %14s %14s %14s %12s %12s %14s %-7s",
		"ID", "NAME", "BASE", "SUBSIDIES", "GROSS", "INSS", "IRT", "NET", "PAID")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 10
	if maxRows < 1 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.records) && i < start+maxRows; i++ {
		r := m.records[i]
		name := r.EmployeeName
		if len(name) > 22 {
			name = name[:22] + ".."
		}
		paid := ""
		if m.confirmed {
			paid = string(payroll.PaymentPending)
			if st, ok := m.payments[r.EmployeeID]; ok {
				paid = string(st.Status)
			}
		}
		line := fmt.Sprintf("  %-5d %-24s %14s %14s %14s %12s %12s %14s %-7s",
			r.EmployeeID, name, money(r.BaseSalary), money(r.SubsidyTotal), money(r.GrossSalary),
			money(r.EmployeeSocialSecurity), money(r.IncomeTax), money(r.NetSalary), paid)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	t := m.totals
	b.WriteString(totalStyle.Render(fmt.Sprintf("  %-5s %-24s %14s %14s %14s %12s %12s %14s",
		"", fmt.Sprintf("TOTAL (%d)", t.Employees), money(t.BaseSalary), money(t.SubsidyTotal), money(t.GrossSalary),
		money(t.EmployeeSocialSecurity), money(t.IncomeTax), money(t.NetSalary))))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  Employer INSS %s  Employer cost %s",
		money(t.EmployerSocialSecurity), money(t.TotalEmployerCost))))
	b.WriteString("\n")

	for _, f := range m.failures {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  employee %d: %s", f.EmployeeID, f.Error)))
	}

	switch {
	case m.confirming:
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("  Confirm payroll %s for %d employees? (y/n)", m.period, t.Employees)))
	case m.deleting:
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete payroll %s and its expenses? (y/n)", m.period)))
	}
	return b.String()
}
