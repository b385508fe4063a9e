package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
	"github.com/sgva-ao/sgva/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sgva.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ts := httptest.NewServer(New(st, "").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+"/api/v1"+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func seed(t *testing.T, ts *httptest.Server) payroll.Employee {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/employees", map[string]any{"name": "Ana Silva", "base_salary": "150000"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	emp := decode[payroll.Employee](t, resp)

	resp = do(t, ts, http.MethodPost, "/subsidies", map[string]any{
		"name": "Alimentação", "kind": "fixed", "target": "everyone",
		"value": "15000", "exemption_ceiling": "30000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return emp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCalculateEmployee(t *testing.T) {
	ts := newTestServer(t)
	emp := seed(t, ts)

	resp := do(t, ts, http.MethodPost, "/payroll/calculate", calculateRequest{EmployeeID: emp.ID, Month: 3, Year: 2025})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[payroll.Record](t, resp)
	assert.True(t, decimal.RequireFromString("160500").Equal(rec.NetSalary), rec.NetSalary.String())

	resp = do(t, ts, http.MethodPost, "/payroll/calculate", calculateRequest{EmployeeID: 99, Month: 3, Year: 2025})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/payroll/calculate", calculateRequest{EmployeeID: emp.ID, Month: 13, Year: 2025})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/payroll/calculate", calculateRequest{EmployeeID: emp.ID, Month: 3, Year: 2020})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "bracket")
}

func TestConfirmTwiceConflicts(t *testing.T) {
	ts := newTestServer(t)
	seed(t, ts)

	resp := do(t, ts, http.MethodPost, "/payroll/periods/2025/3/confirm", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[payroll.ConfirmationResult](t, resp)
	assert.Equal(t, 1, res.ProcessedCount)
	assert.True(t, res.Synced)
	assert.Len(t, res.LedgerEntryIDs, 2)

	resp = do(t, ts, http.MethodPost, "/payroll/periods/2025/3/confirm", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/expenses?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]finance.Expense](t, resp), 2)

	resp = do(t, ts, http.MethodGet, "/payroll/periods/2025/3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[payroll.PeriodSummary](t, resp)
	assert.Len(t, sum.Records, 1)

	resp = do(t, ts, http.MethodDelete, "/payroll/periods/2025/3", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, ts, http.MethodGet, "/payroll/periods/2025/3", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConfirmRespectsIntegrationMode(t *testing.T) {
	ts := newTestServer(t)
	seed(t, ts)

	resp := do(t, ts, http.MethodPut, "/settings/modules", map[string]any{"mode": "vendas->folha"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mods := decode[moduleSettingsResponse](t, resp)
	assert.Equal(t, payroll.ModeSalesPayroll, mods.Mode)
	assert.False(t, mods.SyncPayrollToSales)

	resp = do(t, ts, http.MethodPost, "/payroll/periods/2025/3/confirm", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[payroll.ConfirmationResult](t, resp)
	assert.False(t, res.Synced)
	assert.Empty(t, res.LedgerEntryIDs)

	resp = do(t, ts, http.MethodPut, "/settings/modules", map[string]any{"mode": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfirmEmptyPeriod(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodPost, "/payroll/periods/2025/3/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfirmWithFailingEmployee(t *testing.T) {
	ts := newTestServer(t)
	emp := seed(t, ts)

	resp := do(t, ts, http.MethodPost, "/payroll/periods/2025/3/confirm", periodRequest{EmployeeIDs: []int64{emp.ID, 404}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[confirmFailure](t, resp)
	require.Len(t, body.Failures, 1)
	assert.Equal(t, int64(404), body.Failures[0].EmployeeID)

	resp = do(t, ts, http.MethodGet, "/payroll/periods/2025/3", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplaceBracketsFromYAML(t *testing.T) {
	ts := newTestServer(t)

	file := `version: 1
effective_year: 2026
label: teste
brackets:
  - order: 1
    lower: "0"
    upper: "200000"
    rate: "0"
    fixed_deduction: "0"
  - order: 2
    lower: "200000.01"
    upper: ""
    rate: "10"
    fixed_deduction: "20000"
`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/tax-brackets/2026", strings.NewReader(file))
	require.NoError(t, err)
	req.Header.Set("Content-Type", yamlContentType)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/tax-brackets?year=2027", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table := decode[bracketTableResponse](t, resp)
	assert.Equal(t, 2026, table.EffectiveYear)
	assert.Len(t, table.Brackets, 2)

	resp = do(t, ts, http.MethodPut, "/tax-brackets/2025", replaceBracketsRequest{Brackets: []payroll.TaxBracket{
		{Order: 1, Lower: decimal.NewFromInt(10), Rate: decimal.Zero, Active: true},
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIncomeStatementEndpoint(t *testing.T) {
	ts := newTestServer(t)
	seed(t, ts)

	resp := do(t, ts, http.MethodPost, "/sales", map[string]any{
		"total": "500000", "tax": "0", "sold_at": "2025-03-10T14:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/reports/income-statement?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[finance.IncomeStatement](t, resp)
	assert.Equal(t, finance.SourceEstimate, st.Personnel.Source)

	resp = do(t, ts, http.MethodGet, "/reports/income-statement?year=2025", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsUpdateRejectsInvalid(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPut, "/settings/payroll", map[string]any{"working_days": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPut, "/settings/finance", map[string]any{"stamp_duty_percent": "1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decode[finance.Config](t, resp)
	assert.True(t, decimal.NewFromInt(1).Equal(cfg.StampDutyPercent))
}
