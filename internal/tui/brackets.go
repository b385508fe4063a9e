package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sgva-ao/sgva/internal/client"
)

type bracketsLoadedMsg struct {
	year  int
	table *client.BracketTable
	err   error
}

type bracketsModel struct {
	year    int
	table   *client.BracketTable
	loading bool
	err     error
	width   int
	height  int
}

func (m *bracketsModel) init(c *client.Client, year int) tea.Cmd {
	m.year = year
	m.loading = true
	return func() tea.Msg {
		t, err := c.Brackets(context.Background(), year)
		return bracketsLoadedMsg{year: year, table: t, err: err}
	}
}

func (m bracketsModel) update(msg tea.Msg) (bracketsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case bracketsLoadedMsg:
		if msg.year != m.year {
			return m, nil
		}
		m.loading = false
		m.table = msg.table
		m.err = msg.err
	}
	return m, nil
}

func (m *bracketsModel) view() string {
	if m.loading {
		return "Loading IRT table..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.table == nil {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf("IRT brackets for %d", m.year)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if m.table.EffectiveYear != m.year {
		b.WriteString(warnStyle.Render(fmt.Sprintf("No table for %d, using the %d table", m.year, m.table.EffectiveYear)))
		b.WriteString("\n\n")
	}

	header := fmt.Sprintf("  %-4s %18s %18s %8s %16s  %s", "#", "FROM", "TO", "RATE", "DEDUCTION", "")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, br := range m.table.Brackets {
		upper := "and above"
		if br.Upper != nil {
			upper = money(*br.Upper)
		}
		line := fmt.Sprintf("  %-4d %18s %18s %7s%% %16s  %s",
			br.Order, money(br.Lower), upper, br.Rate, money(br.FixedDeduction), br.Description)
		if br.Rate.IsZero() {
			b.WriteString(dimStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + dimStyle.Render("  tax = taxable income x rate - deduction"))
	return b.String()
}
