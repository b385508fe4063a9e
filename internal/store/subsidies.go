package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

func (s *Store) CreateSubsidy(ctx context.Context, sub *payroll.Subsidy) error {
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Installments == 0 {
		sub.Installments = 1
	}
	if err := sub.Validate(); err != nil {
		return err
	}
	if sub.CategoryID != nil {
		if err := s.categoryExists(ctx, *sub.CategoryID); err != nil {
			return err
		}
	}

	res, err := s.writer.ExecContext(ctx,
		`INSERT INTO subsidies (name, kind, target, category_id, value, percentage, exemption_ceiling,
			payment_months, installments, counts_ss, counts_irt, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Name, string(sub.Kind), string(sub.Target), sub.CategoryID,
		payroll.ToCents(sub.Value), sub.Percentage.String(), payroll.ToCents(sub.ExemptionCeiling),
		formatMonths(sub.PaymentMonths), sub.Installments,
		boolToInt(sub.CountsTowardSocialSecurity), boolToInt(sub.CountsTowardIncomeTax), boolToInt(sub.Active),
	)
	if err != nil {
		return fmt.Errorf("insert subsidy: %w", err)
	}
	sub.ID, err = res.LastInsertId()
	return err
}

const subsidyColumns = `id, name, kind, target, category_id, value, percentage, exemption_ceiling,
	payment_months, installments, counts_ss, counts_irt, active`

func (s *Store) GetSubsidy(ctx context.Context, id int64) (*payroll.Subsidy, error) {
	row := s.reader.QueryRowContext(ctx, `SELECT `+subsidyColumns+` FROM subsidies WHERE id = ?`, id)
	sub, err := scanSubsidy(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", payroll.ErrSubsidyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get subsidy: %w", err)
	}
	return sub, nil
}

func (s *Store) ListSubsidies(ctx context.Context, activeOnly bool) ([]payroll.Subsidy, error) {
	query := `SELECT ` + subsidyColumns + ` FROM subsidies`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list subsidies: %w", err)
	}
	defer rows.Close()

	subs := []payroll.Subsidy{}
	for rows.Next() {
		sub, err := scanSubsidy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subsidy: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *Store) ListActiveSubsidies(ctx context.Context) ([]payroll.Subsidy, error) {
	return s.ListSubsidies(ctx, true)
}

func (s *Store) UpdateSubsidy(ctx context.Context, id int64, u payroll.SubsidyUpdate) (*payroll.Subsidy, error) {
	cur, err := s.GetSubsidy(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := u.Apply(*cur)
	if err != nil {
		return nil, err
	}
	if next.CategoryID != nil {
		if err := s.categoryExists(ctx, *next.CategoryID); err != nil {
			return nil, err
		}
	}

	_, err = s.writer.ExecContext(ctx,
		`UPDATE subsidies SET name = ?, kind = ?, target = ?, category_id = ?, value = ?, percentage = ?,
			exemption_ceiling = ?, payment_months = ?, installments = ?, counts_ss = ?, counts_irt = ?, active = ?
		 WHERE id = ?`,
		next.Name, string(next.Kind), string(next.Target), next.CategoryID,
		payroll.ToCents(next.Value), next.Percentage.String(), payroll.ToCents(next.ExemptionCeiling),
		formatMonths(next.PaymentMonths), next.Installments,
		boolToInt(next.CountsTowardSocialSecurity), boolToInt(next.CountsTowardIncomeTax), boolToInt(next.Active),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update subsidy: %w", err)
	}
	return &next, nil
}

// DeleteSubsidy removes a definition and its assignments. Confirmed payroll
// details keep their name and amounts with a NULL subsidy reference.
func (s *Store) DeleteSubsidy(ctx context.Context, id int64) error {
	res, err := s.writer.ExecContext(ctx, `DELETE FROM subsidies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subsidy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", payroll.ErrSubsidyNotFound, id)
	}
	return nil
}

// UpsertAssignment creates or updates the (employee, subsidy) link.
func (s *Store) UpsertAssignment(ctx context.Context, a payroll.Assignment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.GetEmployee(ctx, a.EmployeeID); err != nil {
		return err
	}
	if _, err := s.GetSubsidy(ctx, a.SubsidyID); err != nil {
		return err
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO employee_subsidies (employee_id, subsidy_id, override_value, active) VALUES (?, ?, ?, ?)
		 ON CONFLICT(employee_id, subsidy_id) DO UPDATE SET
			override_value = excluded.override_value,
			active = excluded.active`,
		a.EmployeeID, a.SubsidyID, centsPtr(a.OverrideValue), boolToInt(a.Active),
	)
	if err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, employeeID, subsidyID int64) error {
	res, err := s.writer.ExecContext(ctx,
		`DELETE FROM employee_subsidies WHERE employee_id = ? AND subsidy_id = ?`, employeeID, subsidyID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: employee %d subsidy %d", payroll.ErrSubsidyNotFound, employeeID, subsidyID)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, employeeID int64) ([]payroll.Assignment, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT employee_id, subsidy_id, override_value, active FROM employee_subsidies
		 WHERE employee_id = ? ORDER BY subsidy_id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	out := []payroll.Assignment{}
	for rows.Next() {
		var a payroll.Assignment
		var override sql.NullInt64
		var active int
		if err := rows.Scan(&a.EmployeeID, &a.SubsidyID, &override, &active); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.OverrideValue = centsFromNull(override)
		a.Active = active == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

// AssignToCategory links the subsidy to every active employee in a category,
// updating existing links. It returns how many employees were linked.
func (s *Store) AssignToCategory(ctx context.Context, subsidyID, categoryID int64, override *decimal.Decimal) (int, error) {
	if _, err := s.GetSubsidy(ctx, subsidyID); err != nil {
		return 0, err
	}
	if err := s.categoryExists(ctx, categoryID); err != nil {
		return 0, err
	}
	if override != nil && override.IsNegative() {
		return 0, fmt.Errorf("%w: negative override", payroll.ErrInvalidAssignment)
	}

	res, err := s.writer.ExecContext(ctx,
		`INSERT INTO employee_subsidies (employee_id, subsidy_id, override_value, active)
		 SELECT id, ?, ?, 1 FROM employees WHERE category_id = ? AND active = 1
		 ON CONFLICT(employee_id, subsidy_id) DO UPDATE SET
			override_value = excluded.override_value,
			active = 1`,
		subsidyID, centsPtr(override), categoryID,
	)
	if err != nil {
		return 0, fmt.Errorf("assign subsidy to category: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanSubsidy(row rowScanner) (*payroll.Subsidy, error) {
	var (
		sub                         payroll.Subsidy
		kind, target, pct, months   string
		category                    sql.NullInt64
		value, ceiling              int64
		countsSS, countsIRT, active int
	)
	if err := row.Scan(&sub.ID, &sub.Name, &kind, &target, &category, &value, &pct, &ceiling,
		&months, &sub.Installments, &countsSS, &countsIRT, &active); err != nil {
		return nil, err
	}
	sub.Kind = payroll.CalculationKind(kind)
	sub.Target = payroll.TargetKind(target)
	if category.Valid {
		id := category.Int64
		sub.CategoryID = &id
	}
	sub.Value = payroll.FromCents(value)
	p, err := decimal.NewFromString(pct)
	if err != nil {
		return nil, fmt.Errorf("subsidy %d percentage %q: %w", sub.ID, pct, err)
	}
	sub.Percentage = p
	sub.ExemptionCeiling = payroll.FromCents(ceiling)
	sub.PaymentMonths = parseMonths(months)
	sub.CountsTowardSocialSecurity = countsSS == 1
	sub.CountsTowardIncomeTax = countsIRT == 1
	sub.Active = active == 1
	return &sub, nil
}

// Payment months are stored as "6,12"; empty means every month.
func formatMonths(months []int) string {
	sorted := append([]int(nil), months...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for i, m := range sorted {
		if i > 0 && sorted[i-1] == m {
			continue
		}
		parts = append(parts, strconv.Itoa(m))
	}
	return strings.Join(parts, ",")
}

func parseMonths(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		if m, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, m)
		}
	}
	return out
}
