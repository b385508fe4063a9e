package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

type mode int

const (
	modePayroll mode = iota
	modePayslip
	modeEmployees
	modeStatement
	modeBrackets
)

var tabModes = []mode{modePayroll, modeEmployees, modeStatement, modeBrackets}

func tabLabel(m mode) string {
	switch m {
	case modePayroll:
		return "Payroll"
	case modeEmployees:
		return "Employees"
	case modeStatement:
		return "DRE"
	case modeBrackets:
		return "IRT"
	default:
		return ""
	}
}

type App struct {
	client        *client.Client
	period        payroll.Period
	mode          mode
	tabIndex      int
	width, height int
	statusMsg     string
	errMsg        string

	payroll   periodModel
	payslip   payslipModel
	employees employeeListModel
	statement statementModel
	brackets  bracketsModel
}

// NewApp opens on the payroll of p.
func NewApp(c *client.Client, p payroll.Period) *App {
	return &App{
		client: c,
		period: p,
		mode:   modePayroll,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.payroll.init(a.client, a.period),
		a.employees.init(a.client),
		a.statement.init(a.client, a.period),
		a.brackets.init(a.client, a.period.Year),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.payroll.width = msg.Width
		a.payroll.height = msg.Height - 6
		a.payslip.width = msg.Width
		a.employees.width = msg.Width
		a.employees.height = msg.Height - 6
		a.statement.width = msg.Width
		a.statement.height = msg.Height - 6
		a.brackets.width = msg.Width
		a.brackets.height = msg.Height - 6
		return a, nil
	}

	// Loads are fired for every view at once, so results are routed by type
	// rather than by the active mode.
	switch typedMsg := msg.(type) {
	case periodLoadedMsg:
		var cmd tea.Cmd
		a.payroll, cmd = a.payroll.update(msg)
		return a, cmd
	case payslipLoadedMsg:
		var cmd tea.Cmd
		a.payslip, cmd = a.payslip.update(msg)
		return a, cmd
	case employeesLoadedMsg:
		var cmd tea.Cmd
		a.employees, cmd = a.employees.update(msg, a.client)
		return a, cmd
	case statementLoadedMsg:
		var cmd tea.Cmd
		a.statement, cmd = a.statement.update(msg)
		return a, cmd
	case bracketsLoadedMsg:
		var cmd tea.Cmd
		a.brackets, cmd = a.brackets.update(msg)
		return a, cmd

	case periodConfirmRequestMsg:
		p := typedMsg.period
		return a, func() tea.Msg {
			res, err := a.client.ConfirmPeriod(context.Background(), p, nil)
			return periodConfirmedMsg{result: res, err: err}
		}
	case periodConfirmedMsg:
		if typedMsg.err != nil {
			a.setError(typedMsg.err)
			return a, nil
		}
		a.setStatus("Payroll " + typedMsg.result.Period.String() + " confirmed")
		return a, a.reloadPeriod()
	case periodDeleteRequestMsg:
		p := typedMsg.period
		return a, func() tea.Msg {
			err := a.client.DeletePeriod(context.Background(), p)
			return periodDeletedMsg{period: p, err: err}
		}
	case periodDeletedMsg:
		if typedMsg.err != nil {
			a.setError(typedMsg.err)
			return a, nil
		}
		a.setStatus("Payroll " + typedMsg.period.String() + " deleted")
		return a, a.reloadPeriod()
	case paymentRequestMsg:
		req := typedMsg
		return a, func() tea.Msg {
			st, err := a.client.SetPayment(context.Background(), req.period, req.employeeID, string(req.status), req.amount)
			return paymentSetMsg{status: st, err: err}
		}
	case paymentSetMsg:
		a.payroll, _ = a.payroll.update(msg)
		if typedMsg.err == nil {
			a.setStatus("Payment status saved")
		}
		return a, nil
	}

	// A pending y/n prompt takes every key.
	if a.mode == modePayroll && (a.payroll.confirming || a.payroll.deleting) {
		var cmd tea.Cmd
		a.payroll, cmd = a.payroll.update(msg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg, a.errMsg = "", ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg, a.errMsg = "", ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			if a.mode == modePayslip {
				a.mode = modePayroll
			}
			return a, nil

		case key.Matches(msg, keys.PrevMonth):
			if a.mode != modePayslip {
				a.period = a.period.Prev()
				return a, a.reloadPeriod()
			}

		case key.Matches(msg, keys.NextMonth):
			if a.mode != modePayslip {
				a.period = a.period.Next()
				return a, a.reloadPeriod()
			}

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshTab()

		case key.Matches(msg, keys.Enter):
			if a.mode == modePayroll {
				if rec, ok := a.payroll.selected(); ok {
					a.mode = modePayslip
					return a, a.payslip.init(a.client, rec)
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.mode {
	case modePayroll:
		a.payroll, cmd = a.payroll.update(msg)
	case modePayslip:
		a.payslip, cmd = a.payslip.update(msg)
	case modeEmployees:
		a.employees, cmd = a.employees.update(msg, a.client)
	case modeStatement:
		a.statement, cmd = a.statement.update(msg)
	case modeBrackets:
		a.brackets, cmd = a.brackets.update(msg)
	}
	return a, cmd
}

func (a *App) setStatus(s string) { a.statusMsg, a.errMsg = s, "" }

func (a *App) setError(err error) { a.statusMsg, a.errMsg = "", err.Error() }

// reloadPeriod refreshes every view that depends on the selected period.
func (a *App) reloadPeriod() tea.Cmd {
	return tea.Batch(
		a.payroll.init(a.client, a.period),
		a.statement.init(a.client, a.period),
		a.brackets.init(a.client, a.period.Year),
	)
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modePayroll:
		return a.payroll.init(a.client, a.period)
	case modeEmployees:
		return a.employees.init(a.client)
	case modeStatement:
		return a.statement.init(a.client, a.period)
	case modeBrackets:
		return a.brackets.init(a.client, a.period.Year)
	}
	return nil
}

func (a *App) helpText() string {
	switch a.mode {
	case modePayroll:
		return "tab:switch  ←/→:month  enter:payslip  c:confirm  d:delete  p:paid  r:refresh  q:quit"
	case modePayslip:
		return "esc:back  q:quit"
	case modeEmployees:
		return "tab:switch  a:show inactive  r:refresh  q:quit"
	default:
		return "tab:switch  ←/→:month  r:refresh  q:quit"
	}
}

func (a *App) View() string {
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		tabs += " "
	}
	tabs += periodStyle.Render(a.period.String())

	var content string
	switch a.mode {
	case modePayroll:
		content = a.payroll.view()
	case modePayslip:
		content = a.payslip.view()
	case modeEmployees:
		content = a.employees.view()
	case modeStatement:
		content = a.statement.view()
	case modeBrackets:
		content = a.brackets.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}
	if a.errMsg != "" {
		status = errorStyle.Render(a.errMsg)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		dimStyle.Render(a.helpText()),
	)
}
