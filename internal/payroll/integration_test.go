package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntegrationMode(t *testing.T) {
	tests := map[string]IntegrationMode{
		"none":          ModeNone,
		"nenhuma":       ModeNone,
		"folha->vendas": ModePayrollSales,
		"Vendas->Folha": ModeSalesPayroll,
		" bidirecional": ModeBidirectional,
	}
	for in, want := range tests {
		got, err := ParseIntegrationMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseIntegrationMode("sideways")
	assert.ErrorIs(t, err, ErrInvalidIntegrationMode)
}

func TestSyncPolicy(t *testing.T) {
	tests := []struct {
		cfg    ModuleConfig
		toSale bool
		toPay  bool
	}{
		{ModuleConfig{true, true, ModeBidirectional}, true, true},
		{ModuleConfig{true, true, ModePayrollSales}, true, false},
		{ModuleConfig{true, true, ModeSalesPayroll}, false, true},
		{ModuleConfig{true, true, ModeNone}, false, false},
		{ModuleConfig{false, true, ModeBidirectional}, false, false},
		{ModuleConfig{true, false, ModePayrollSales}, false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.toSale, tt.cfg.SyncPayrollToSales(), "%+v", tt.cfg)
		assert.Equal(t, tt.toPay, tt.cfg.SyncSalesToPayroll(), "%+v", tt.cfg)
	}
}

func TestModuleConfigUpdate(t *testing.T) {
	mode := "folha->vendas"
	off := false
	got, err := ModuleConfigUpdate{Mode: &mode, SalesEnabled: &off}.Apply(DefaultModuleConfig())
	require.NoError(t, err)
	assert.Equal(t, ModePayrollSales, got.Mode)
	assert.False(t, got.SalesEnabled)
	assert.True(t, got.PayrollEnabled)

	bad := "x"
	_, err = ModuleConfigUpdate{Mode: &bad}.Apply(DefaultModuleConfig())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConfigUpdate(t *testing.T) {
	days := 20
	rate := d("4")
	got, err := ConfigUpdate{WorkingDays: &days, EmployeeSocialSecurityRate: &rate}.Apply(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 20, got.WorkingDays)
	assertMoney(t, "4", got.EmployeeSocialSecurityRate)
	assertMoney(t, "60000", got.FixedDeduction)

	neg := d("-1")
	_, err = ConfigUpdate{FixedDeduction: &neg}.Apply(DefaultConfig())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestEmployeeUpdate(t *testing.T) {
	cat := int64(3)
	e := Employee{ID: 1, Name: "Ana", CategoryID: &cat, BaseSalary: d("100000"), ManualSubsidy: dp("0"), Active: true}

	name := "  Ana Paula "
	salary := d("120000.456")
	got, err := EmployeeUpdate{Name: &name, BaseSalary: &salary, ClearCategory: true, ClearManualSubsidy: true}.Apply(e)
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", got.Name)
	assertMoney(t, "120000.46", got.BaseSalary)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.ManualSubsidy)

	negative := d("-1")
	_, err = EmployeeUpdate{BaseSalary: &negative}.Apply(e)
	assert.ErrorIs(t, err, ErrNegativeSalary)
}
