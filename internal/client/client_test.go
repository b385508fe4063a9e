package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgva-ao/sgva/internal/payroll"
	"github.com/sgva-ao/sgva/internal/server"
	"github.com/sgva-ao/sgva/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sgva.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ts := httptest.NewServer(server.New(st, "").Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestPayrollRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	emp, err := c.CreateEmployee(ctx, &payroll.Employee{Name: "Ana", BaseSalary: decimal.NewFromInt(300000), Active: true})
	require.NoError(t, err)

	p := payroll.Period{Month: 6, Year: 2025}
	rec, err := c.Calculate(ctx, emp.ID, p)
	require.NoError(t, err)
	assert.Equal(t, emp.ID, rec.EmployeeID)

	res, err := c.ConfirmPeriod(ctx, p, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedCount)

	_, err = c.ConfirmPeriod(ctx, p, nil)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)

	sum, err := c.Period(ctx, p)
	require.NoError(t, err)
	require.Len(t, sum.Records, 1)
	assert.True(t, rec.NetSalary.Equal(sum.Records[0].NetSalary))

	require.NoError(t, c.DeletePeriod(ctx, p))
	_, err = c.Period(ctx, p)
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestBracketExportImport(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	file, err := c.ExportBrackets(ctx, 2025)
	require.NoError(t, err)
	assert.Contains(t, string(file), "effective_year: 2025")

	table, err := c.ImportBrackets(ctx, 2025, file)
	require.NoError(t, err)
	assert.Len(t, table.Brackets, 12)
	assert.NotZero(t, table.SnapshotID)

	snaps, err := c.BracketSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	_, err = c.ImportBrackets(ctx, 2026, file)
	assert.ErrorIs(t, err, payroll.ErrValidation)
}
