package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

func (c *Client) CreateSale(ctx context.Context, sale *finance.Sale) (*finance.Sale, error) {
	var result finance.Sale
	if err := c.post(ctx, "/api/v1/sales", sale, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateExpense(ctx context.Context, e *finance.Expense) (*finance.Expense, error) {
	var result finance.Expense
	if err := c.post(ctx, "/api/v1/expenses", e, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListExpenses(ctx context.Context, p payroll.Period, category string) ([]finance.Expense, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(p.Year))
	params.Set("month", strconv.Itoa(p.Month))
	if category != "" {
		params.Set("category", category)
	}
	var result []finance.Expense
	if err := c.get(ctx, "/api/v1/expenses?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) IncomeStatement(ctx context.Context, p payroll.Period) (*finance.IncomeStatement, error) {
	var result finance.IncomeStatement
	path := fmt.Sprintf("/api/v1/reports/income-statement?year=%d&month=%d", p.Year, p.Month)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PayrollSettings(ctx context.Context) (*payroll.Config, error) {
	var result payroll.Config
	if err := c.get(ctx, "/api/v1/settings/payroll", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdatePayrollSettings(ctx context.Context, u payroll.ConfigUpdate) (*payroll.Config, error) {
	var result payroll.Config
	if err := c.put(ctx, "/api/v1/settings/payroll", u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) FinanceSettings(ctx context.Context) (*finance.Config, error) {
	var result finance.Config
	if err := c.get(ctx, "/api/v1/settings/finance", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateFinanceSettings(ctx context.Context, u finance.ConfigUpdate) (*finance.Config, error) {
	var result finance.Config
	if err := c.put(ctx, "/api/v1/settings/finance", u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type ModuleSettings struct {
	payroll.ModuleConfig
	SyncPayrollToSales bool `json:"sync_payroll_to_sales"`
}

func (c *Client) ModuleSettings(ctx context.Context) (*ModuleSettings, error) {
	var result ModuleSettings
	if err := c.get(ctx, "/api/v1/settings/modules", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateModuleSettings(ctx context.Context, u payroll.ModuleConfigUpdate) (*ModuleSettings, error) {
	var result ModuleSettings
	if err := c.put(ctx, "/api/v1/settings/modules", u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
