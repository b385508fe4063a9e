package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

type BracketTable struct {
	EffectiveYear int                  `json:"effective_year"`
	Brackets      []payroll.TaxBracket `json:"brackets"`
	SnapshotID    int64                `json:"snapshot_id,omitempty"`
}

type BracketSnapshot struct {
	ID            int64  `json:"id"`
	EffectiveYear int    `json:"effective_year"`
	Label         string `json:"label"`
	CreatedAt     string `json:"created_at"`
	Brackets      int    `json:"brackets"`
}

func (c *Client) Brackets(ctx context.Context, year int) (*BracketTable, error) {
	var result BracketTable
	if err := c.get(ctx, "/api/v1/tax-brackets?year="+strconv.Itoa(year), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportBrackets returns the table in force for year as a YAML bracket file.
func (c *Client) ExportBrackets(ctx context.Context, year int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/tax-brackets?format=yaml&year="+strconv.Itoa(year), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.roundTrip(req)
}

// ImportBrackets uploads a YAML bracket file for its effective year.
func (c *Client) ImportBrackets(ctx context.Context, year int, file []byte) (*BracketTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/api/v1/tax-brackets/"+strconv.Itoa(year), bytes.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/yaml")
	var result BracketTable
	if err := c.doRequest(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BracketSnapshots(ctx context.Context) ([]BracketSnapshot, error) {
	var result []BracketSnapshot
	if err := c.get(ctx, "/api/v1/tax-brackets/snapshots", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) RestoreBrackets(ctx context.Context, snapshotID int64) (*BracketTable, error) {
	var result BracketTable
	if err := c.post(ctx, fmt.Sprintf("/api/v1/tax-brackets/snapshots/%d/restore", snapshotID), struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Calculate(ctx context.Context, employeeID int64, p payroll.Period) (*payroll.Record, error) {
	body := map[string]any{"employee_id": employeeID, "month": p.Month, "year": p.Year}
	var result payroll.Record
	if err := c.post(ctx, "/api/v1/payroll/calculate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func periodPath(p payroll.Period) string {
	return fmt.Sprintf("/api/v1/payroll/periods/%d/%d", p.Year, p.Month)
}

func (c *Client) CalculatePeriod(ctx context.Context, p payroll.Period, employeeIDs []int64) (*payroll.PeriodCalculation, error) {
	var result payroll.PeriodCalculation
	body := map[string]any{"employee_ids": employeeIDs}
	if err := c.post(ctx, periodPath(p)+"/calculate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ConfirmPeriod(ctx context.Context, p payroll.Period, employeeIDs []int64) (*payroll.ConfirmationResult, error) {
	var result payroll.ConfirmationResult
	body := map[string]any{"employee_ids": employeeIDs}
	if err := c.post(ctx, periodPath(p)+"/confirm", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Period(ctx context.Context, p payroll.Period) (*payroll.PeriodSummary, error) {
	var result payroll.PeriodSummary
	if err := c.get(ctx, periodPath(p), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeletePeriod(ctx context.Context, p payroll.Period) error {
	return c.del(ctx, periodPath(p))
}

func (c *Client) Record(ctx context.Context, id int64) (*payroll.Record, error) {
	var result payroll.Record
	if err := c.get(ctx, fmt.Sprintf("/api/v1/payroll/records/%d", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Payments(ctx context.Context, p payroll.Period) ([]payroll.PaymentStatus, error) {
	var result []payroll.PaymentStatus
	if err := c.get(ctx, periodPath(p)+"/payments", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) SetPayment(ctx context.Context, p payroll.Period, employeeID int64, status string, amount decimal.Decimal) (*payroll.PaymentStatus, error) {
	body := map[string]any{"status": status, "amount_paid": amount}
	var result payroll.PaymentStatus
	path := periodPath(p) + "/payments/" + url.PathEscape(strconv.FormatInt(employeeID, 10))
	if err := c.put(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
