package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

type employeesLoadedMsg struct {
	employees  []payroll.Employee
	categories map[int64]string
	err        error
}

type employeeListModel struct {
	employees    []payroll.Employee
	categories   map[int64]string
	showInactive bool
	cursor       int
	loading      bool
	err          error
	width        int
	height       int
}

func (m *employeeListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	activeOnly := !m.showInactive
	return func() tea.Msg {
		ctx := context.Background()
		emps, err := c.ListEmployees(ctx, activeOnly)
		if err != nil {
			return employeesLoadedMsg{err: err}
		}
		cats, err := c.ListCategories(ctx)
		if err != nil {
			return employeesLoadedMsg{err: err}
		}
		names := make(map[int64]string, len(cats))
		for _, cat := range cats {
			names[cat.ID] = cat.Name
		}
		return employeesLoadedMsg{employees: emps, categories: names}
	}
}

func (m employeeListModel) update(msg tea.Msg, c *client.Client) (employeeListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case employeesLoadedMsg:
		m.loading = false
		m.employees = msg.employees
		m.categories = msg.categories
		m.err = msg.err
		if m.cursor >= len(m.employees) {
			m.cursor = max(len(m.employees)-1, 0)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.employees)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Inactive):
			m.showInactive = !m.showInactive
			return m, m.init(c)
		}
	}
	return m, nil
}

func (m *employeeListModel) view() string {
	if m.loading {
		return "Loading employees..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.employees) == 0 {
		return dimStyle.Render("No employees. Add one with: sgva employee create")
	}

	var b strings.Builder

	title := "Employees"
	if m.showInactive {
		title += " (including inactive)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-5s %-30s %-18s %16s %16s %s", "ID", "NAME", "CATEGORY", "BASE SALARY", "MANUAL SUBSIDY", "ACTIVE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.employees) && i < start+maxRows; i++ {
		e := m.employees[i]
		name := e.Name
		if len(name) > 28 {
			name = name[:28] + ".."
		}
		category := ""
		if e.CategoryID != nil {
			category = m.categories[*e.CategoryID]
		}
		manual := ""
		if e.ManualSubsidy != nil {
			manual = money(*e.ManualSubsidy)
		}
		active := "yes"
		if !e.Active {
			active = "no"
		}

		line := fmt.Sprintf("  %-5d %-30s %-18s %16s %16s %s", e.ID, name, category, money(e.BaseSalary), manual, active)
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case !e.Active:
			b.WriteString(dimStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d employees", len(m.employees)))
	return b.String()
}
