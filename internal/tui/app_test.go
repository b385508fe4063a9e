package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

var march = payroll.Period{Month: 3, Year: 2025}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func preview(records ...payroll.Record) periodLoadedMsg {
	return periodLoadedMsg{
		period:  march,
		preview: &payroll.PeriodCalculation{Period: march, Records: records, Totals: payroll.SumRecords(records)},
	}
}

func record(id int64, net int64) payroll.Record {
	return payroll.Record{EmployeeID: id, EmployeeName: "Ana", Month: 3, Year: 2025, NetSalary: decimal.NewFromInt(net)}
}

func TestPeriodIgnoresStaleLoads(t *testing.T) {
	m := periodModel{period: payroll.Period{Month: 4, Year: 2025}, loading: true}
	m, _ = m.update(preview(record(1, 1000)))
	assert.True(t, m.loading)
	assert.Empty(t, m.records)
}

func TestPeriodConfirmPrompt(t *testing.T) {
	m := periodModel{period: march, loading: true}
	m, _ = m.update(preview(record(1, 1000), record(2, 2000)))
	require.Len(t, m.records, 2)
	assert.False(t, m.confirmed)
	assert.Equal(t, 2, m.totals.Employees)

	m, _ = m.update(runeKey("c"))
	require.True(t, m.confirming)

	m, cmd := m.update(runeKey("y"))
	assert.False(t, m.confirming)
	require.NotNil(t, cmd)
	assert.Equal(t, periodConfirmRequestMsg{period: march}, cmd())

	m, _ = m.update(runeKey("c"))
	m, cmd = m.update(runeKey("n"))
	assert.False(t, m.confirming)
	assert.Nil(t, cmd)
}

func TestPeriodWithFailuresCannotConfirm(t *testing.T) {
	msg := preview(record(1, 1000))
	msg.preview.Failures = []payroll.Failure{{EmployeeID: 9, Error: "employee not found"}}

	m := periodModel{period: march}
	m, _ = m.update(msg)
	m, _ = m.update(runeKey("c"))
	assert.False(t, m.confirming)
	assert.Contains(t, m.view(), "employee 9")
}

func TestPayToggle(t *testing.T) {
	rec := record(1, 1000)
	m := periodModel{period: march}
	m, _ = m.update(periodLoadedMsg{period: march, summary: &payroll.PeriodSummary{
		Period: march, Records: []payroll.Record{rec}, Totals: payroll.SumRecords([]payroll.Record{rec}),
	}})
	require.True(t, m.confirmed)

	m, cmd := m.update(runeKey("p"))
	require.NotNil(t, cmd)
	req := cmd().(paymentRequestMsg)
	assert.Equal(t, payroll.PaymentPaid, req.status)
	assert.True(t, req.amount.Equal(decimal.NewFromInt(1000)))

	m, _ = m.update(paymentSetMsg{status: &payroll.PaymentStatus{EmployeeID: 1, Status: payroll.PaymentPaid}})
	_, cmd = m.update(runeKey("p"))
	req = cmd().(paymentRequestMsg)
	assert.Equal(t, payroll.PaymentPending, req.status)
	assert.True(t, req.amount.IsZero())
}

func TestAppMonthNavigation(t *testing.T) {
	a := NewApp(client.New("http://127.0.0.1:0"), payroll.Period{Month: 1, Year: 2025})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.NotNil(t, cmd)
	assert.Equal(t, payroll.Period{Month: 12, Year: 2024}, a.period)
	assert.Equal(t, a.period, a.payroll.period)
	assert.Equal(t, 2024, a.brackets.year)

	a.Update(tea.KeyMsg{Type: tea.KeyRight})
	a.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, payroll.Period{Month: 2, Year: 2025}, a.period)
	assert.Contains(t, a.View(), "02/2025")
}

func TestAppPayslipEscape(t *testing.T) {
	a := NewApp(client.New("http://127.0.0.1:0"), march)
	a.Init()
	a.Update(preview(record(1, 1000)))

	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modePayslip, a.mode)
	assert.Contains(t, a.View(), "Payslip: Ana")

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modePayroll, a.mode)
}
