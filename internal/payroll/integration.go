package payroll

import (
	"fmt"
	"strings"
)

// IntegrationMode says which way data flows between the sales and payroll
// modules.
type IntegrationMode string

const (
	ModeNone          IntegrationMode = "none"
	ModePayrollSales  IntegrationMode = "payroll->sales"
	ModeSalesPayroll  IntegrationMode = "sales->payroll"
	ModeBidirectional IntegrationMode = "bidirectional"
)

var modeAliases = map[string]IntegrationMode{
	"none":           ModeNone,
	"nenhuma":        ModeNone,
	"payroll->sales": ModePayrollSales,
	"folha->vendas":  ModePayrollSales,
	"sales->payroll": ModeSalesPayroll,
	"vendas->folha":  ModeSalesPayroll,
	"bidirectional":  ModeBidirectional,
	"bidirecional":   ModeBidirectional,
}

// ParseIntegrationMode accepts the English names and the Portuguese ones
// stored by older installations.
func ParseIntegrationMode(s string) (IntegrationMode, error) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidIntegrationMode, s)
	}
	return m, nil
}

type ModuleConfig struct {
	SalesEnabled   bool            `json:"sales_enabled"`
	PayrollEnabled bool            `json:"payroll_enabled"`
	Mode           IntegrationMode `json:"mode"`
}

func DefaultModuleConfig() ModuleConfig {
	return ModuleConfig{SalesEnabled: true, PayrollEnabled: true, Mode: ModeBidirectional}
}

// SyncPayrollToSales reports whether confirming a payroll period should post
// its totals to the expense ledger.
func (c ModuleConfig) SyncPayrollToSales() bool {
	if !c.SalesEnabled || !c.PayrollEnabled {
		return false
	}
	return c.Mode == ModePayrollSales || c.Mode == ModeBidirectional
}

func (c ModuleConfig) SyncSalesToPayroll() bool {
	if !c.SalesEnabled || !c.PayrollEnabled {
		return false
	}
	return c.Mode == ModeSalesPayroll || c.Mode == ModeBidirectional
}

type ModuleConfigUpdate struct {
	SalesEnabled   *bool   `json:"sales_enabled,omitempty"`
	PayrollEnabled *bool   `json:"payroll_enabled,omitempty"`
	Mode           *string `json:"mode,omitempty"`
}

func (u ModuleConfigUpdate) Apply(c ModuleConfig) (ModuleConfig, error) {
	if u.SalesEnabled != nil {
		c.SalesEnabled = *u.SalesEnabled
	}
	if u.PayrollEnabled != nil {
		c.PayrollEnabled = *u.PayrollEnabled
	}
	if u.Mode != nil {
		m, err := ParseIntegrationMode(*u.Mode)
		if err != nil {
			return c, err
		}
		c.Mode = m
	}
	return c, nil
}
