package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sgva-ao/sgva/internal/payroll"
)

func (s *Store) CreateCategory(ctx context.Context, c *payroll.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return payroll.ErrInvalidName
	}
	res, err := s.writer.ExecContext(ctx,
		`INSERT INTO employee_categories (name, description) VALUES (?, ?)`, c.Name, c.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q already exists", payroll.ErrValidation, c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListCategories(ctx context.Context) ([]payroll.Category, error) {
	rows, err := s.reader.QueryContext(ctx, `SELECT id, name, description FROM employee_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []payroll.Category{}
	for rows.Next() {
		var c payroll.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) categoryExists(ctx context.Context, id int64) error {
	var n int
	if err := s.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM employee_categories WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", payroll.ErrCategoryNotFound, id)
	}
	return nil
}

func (s *Store) CreateEmployee(ctx context.Context, e *payroll.Employee) error {
	e.Name = strings.TrimSpace(e.Name)
	e.BaseSalary = payroll.RoundMoney(e.BaseSalary)
	if err := e.Validate(); err != nil {
		return err
	}
	if e.CategoryID != nil {
		if err := s.categoryExists(ctx, *e.CategoryID); err != nil {
			return err
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	res, err := s.writer.ExecContext(ctx,
		`INSERT INTO employees (name, category_id, base_salary, manual_subsidy, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, e.CategoryID, payroll.ToCents(e.BaseSalary), centsPtr(e.ManualSubsidy), boolToInt(e.Active), formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

const employeeColumns = `id, name, category_id, base_salary, manual_subsidy, active, created_at`

func (s *Store) GetEmployee(ctx context.Context, id int64) (*payroll.Employee, error) {
	row := s.reader.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", payroll.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]payroll.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	args := []any{}

	if filter.ActiveOnly {
		query += ` AND active = 1`
	}
	if filter.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	query += ` ORDER BY id`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	employees := []payroll.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (s *Store) ListActiveEmployees(ctx context.Context) ([]payroll.Employee, error) {
	return s.ListEmployees(ctx, EmployeeFilter{ActiveOnly: true})
}

// UpdateEmployee applies an allow-listed update and writes the full row back.
func (s *Store) UpdateEmployee(ctx context.Context, id int64, u payroll.EmployeeUpdate) (*payroll.Employee, error) {
	cur, err := s.GetEmployee(ctx, id)
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
		`UPDATE employees SET name = ?, category_id = ?, base_salary = ?, manual_subsidy = ?, active = ? WHERE id = ?`,
		next.Name, next.CategoryID, payroll.ToCents(next.BaseSalary), centsPtr(next.ManualSubsidy), boolToInt(next.Active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return &next, nil
}

// UpsertAbsence records the absence sheet for one employee and month.
func (s *Store) UpsertAbsence(ctx context.Context, a *payroll.Absence) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.GetEmployee(ctx, a.EmployeeID); err != nil {
		return err
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO absences (employee_id, year, month, days_absent, kind, working_days, manual_discount, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id, year, month) DO UPDATE SET
			days_absent = excluded.days_absent,
			kind = excluded.kind,
			working_days = excluded.working_days,
			manual_discount = excluded.manual_discount,
			notes = excluded.notes`,
		a.EmployeeID, a.Year, a.Month, a.DaysAbsent, string(a.Kind), a.WorkingDays, centsPtr(a.ManualDiscount), a.Notes,
	)
	if err != nil {
		return fmt.Errorf("upsert absence: %w", err)
	}
	return nil
}

func (s *Store) GetAbsence(ctx context.Context, employeeID int64, p payroll.Period) (*payroll.Absence, error) {
	a := payroll.Absence{EmployeeID: employeeID, Month: p.Month, Year: p.Year}
	var kind string
	var discount sql.NullInt64
	err := s.reader.QueryRowContext(ctx,
		`SELECT days_absent, kind, working_days, manual_discount, notes
		 FROM absences WHERE employee_id = ? AND year = ? AND month = ?`,
		employeeID, p.Year, p.Month,
	).Scan(&a.DaysAbsent, &kind, &a.WorkingDays, &discount, &a.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get absence: %w", err)
	}
	a.Kind = payroll.AbsenceKind(kind)
	a.ManualDiscount = centsFromNull(discount)
	return &a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*payroll.Employee, error) {
	var (
		e         payroll.Employee
		category  sql.NullInt64
		base      int64
		manual    sql.NullInt64
		active    int
		createdAt string
	)
	if err := row.Scan(&e.ID, &e.Name, &category, &base, &manual, &active, &createdAt); err != nil {
		return nil, err
	}
	if category.Valid {
		id := category.Int64
		e.CategoryID = &id
	}
	e.BaseSalary = payroll.FromCents(base)
	e.ManualSubsidy = centsFromNull(manual)
	e.Active = active == 1
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}
