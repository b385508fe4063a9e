package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sgva-ao/sgva/internal/payroll"
)

type migration func(ctx context.Context, tx *sql.Tx) error

// migrations run in order, once each; index i upgrades to version i+1.
var migrations = []migration{
	migrateV1,
	migrateV2,
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](ctx, tx); err != nil {
			return fmt.Errorf("migration v%d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("record schema version %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			section TEXT NOT NULL,
			name    TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (section, name)
		)`,

		`CREATE TABLE IF NOT EXISTS employee_categories (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		)`,

		// Money columns are integer cents.
		`CREATE TABLE IF NOT EXISTS employees (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			name           TEXT NOT NULL,
			category_id    INTEGER REFERENCES employee_categories(id) ON DELETE SET NULL,
			base_salary    INTEGER NOT NULL CHECK (base_salary >= 0),
			manual_subsidy INTEGER CHECK (manual_subsidy IS NULL OR manual_subsidy >= 0),
			active         INTEGER NOT NULL DEFAULT 1,
			created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_employees_category ON employees(category_id)`,

		`CREATE TABLE IF NOT EXISTS subsidies (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			name              TEXT NOT NULL,
			kind              TEXT NOT NULL CHECK (kind IN ('fixed','percentage')),
			target            TEXT NOT NULL CHECK (target IN ('everyone','category','individual')),
			category_id       INTEGER REFERENCES employee_categories(id) ON DELETE SET NULL,
			value             INTEGER NOT NULL DEFAULT 0,
			percentage        TEXT NOT NULL DEFAULT '0',
			exemption_ceiling INTEGER NOT NULL DEFAULT 0,
			payment_months    TEXT NOT NULL DEFAULT '',
			installments      INTEGER NOT NULL DEFAULT 1,
			counts_ss         INTEGER NOT NULL DEFAULT 1,
			counts_irt        INTEGER NOT NULL DEFAULT 1,
			active            INTEGER NOT NULL DEFAULT 1,
			created_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS employee_subsidies (
			employee_id    INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			subsidy_id     INTEGER NOT NULL REFERENCES subsidies(id) ON DELETE CASCADE,
			override_value INTEGER,
			active         INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (employee_id, subsidy_id)
		)`,

		`CREATE TABLE IF NOT EXISTS absences (
			employee_id     INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			year            INTEGER NOT NULL,
			month           INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			days_absent     INTEGER NOT NULL DEFAULT 0,
			kind            TEXT NOT NULL CHECK (kind IN ('unjustified','justified')),
			working_days    INTEGER NOT NULL DEFAULT 0,
			manual_discount INTEGER,
			notes           TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (employee_id, year, month)
		)`,

		// A NULL upper bound is the unbounded top bracket.
		`CREATE TABLE IF NOT EXISTS tax_brackets (
			effective_year  INTEGER NOT NULL,
			ord             INTEGER NOT NULL,
			lower_bound     INTEGER NOT NULL,
			upper_bound     INTEGER,
			rate            TEXT NOT NULL,
			fixed_deduction INTEGER NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			active          INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (effective_year, ord)
		)`,
		`CREATE TABLE IF NOT EXISTS tax_bracket_snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			effective_year INTEGER NOT NULL,
			label          TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tax_bracket_snapshot_rows (
			snapshot_id     INTEGER NOT NULL REFERENCES tax_bracket_snapshots(id) ON DELETE CASCADE,
			ord             INTEGER NOT NULL,
			lower_bound     INTEGER NOT NULL,
			upper_bound     INTEGER,
			rate            TEXT NOT NULL,
			fixed_deduction INTEGER NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			active          INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (snapshot_id, ord)
		)`,

		// One row per confirmed period. The primary key is what makes a
		// second concurrent confirmation fail.
		`CREATE TABLE IF NOT EXISTS payroll_periods (
			year                   INTEGER NOT NULL,
			month                  INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			id                     TEXT NOT NULL UNIQUE,
			synced                 INTEGER NOT NULL DEFAULT 0,
			salaries_expense_id    TEXT,
			employer_ss_expense_id TEXT,
			confirmed_at           TEXT NOT NULL,
			PRIMARY KEY (year, month)
		)`,

		`CREATE TABLE IF NOT EXISTS payroll_records (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id          INTEGER NOT NULL REFERENCES employees(id),
			employee_name        TEXT NOT NULL,
			year                 INTEGER NOT NULL,
			month                INTEGER NOT NULL,
			original_base_salary INTEGER NOT NULL,
			absence_deduction    INTEGER NOT NULL,
			base_salary          INTEGER NOT NULL,
			subsidy_total        INTEGER NOT NULL,
			subsidy_exempt       INTEGER NOT NULL,
			subsidy_taxable      INTEGER NOT NULL,
			gross_salary         INTEGER NOT NULL,
			ss_base              INTEGER NOT NULL,
			employee_ss          INTEGER NOT NULL,
			employer_ss          INTEGER NOT NULL,
			fixed_deduction      INTEGER NOT NULL,
			taxable_income       INTEGER NOT NULL,
			bracket_order        INTEGER NOT NULL,
			bracket_rate         TEXT NOT NULL,
			income_tax           INTEGER NOT NULL,
			total_deductions     INTEGER NOT NULL,
			net_salary           INTEGER NOT NULL,
			total_employer_cost  INTEGER NOT NULL,
			subsidy_source       TEXT NOT NULL,
			computed_at          TEXT NOT NULL,
			notes                TEXT NOT NULL DEFAULT '',
			UNIQUE (employee_id, year, month),
			FOREIGN KEY (year, month) REFERENCES payroll_periods(year, month) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payroll_records_period ON payroll_records(year, month)`,

		`CREATE TABLE IF NOT EXISTS payroll_subsidy_details (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id      INTEGER NOT NULL REFERENCES payroll_records(id) ON DELETE CASCADE,
			subsidy_id     INTEGER REFERENCES subsidies(id) ON DELETE SET NULL,
			name           TEXT NOT NULL,
			value          INTEGER NOT NULL,
			exempt_amount  INTEGER NOT NULL,
			taxable_amount INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payroll_subsidy_details_record ON payroll_subsidy_details(record_id)`,

		`CREATE TABLE IF NOT EXISTS payment_statuses (
			employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			year        INTEGER NOT NULL,
			month       INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			status      TEXT NOT NULL CHECK (status IN ('pending','paid')),
			amount_paid INTEGER NOT NULL DEFAULT 0,
			paid_at     TEXT,
			PRIMARY KEY (employee_id, year, month)
		)`,

		`CREATE TABLE IF NOT EXISTS expense_categories (
			name        TEXT PRIMARY KEY,
			fiscal_code TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id            TEXT PRIMARY KEY,
			category      TEXT NOT NULL,
			description   TEXT NOT NULL,
			amount        INTEGER NOT NULL CHECK (amount >= 0),
			expense_date  TEXT NOT NULL,
			paid          INTEGER NOT NULL DEFAULT 1,
			notes         TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(expense_date)`,

		`CREATE TABLE IF NOT EXISTS sales (
			id            TEXT PRIMARY KEY,
			total         INTEGER NOT NULL CHECK (total >= 0),
			tax           INTEGER NOT NULL DEFAULT 0,
			discount      INTEGER NOT NULL DEFAULT 0,
			cost_of_goods INTEGER NOT NULL DEFAULT 0,
			status        TEXT NOT NULL CHECK (status IN ('completed','pending','cancelled')),
			sold_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales(sold_at)`,

		// Trigger: confirmed payroll records are immutable; supersede by
		// deleting the period.
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_payroll_records
		BEFORE UPDATE ON payroll_records
		BEGIN
			SELECT RAISE(ABORT, 'confirmed payroll records cannot be modified');
		END`,

		// Trigger: a record can only join a period while it has no ledger
		// postings yet, so late inserts cannot skew the posted totals.
		`CREATE TRIGGER IF NOT EXISTS trg_period_closed
		BEFORE INSERT ON payroll_records
		WHEN (SELECT salaries_expense_id FROM payroll_periods WHERE year = NEW.year AND month = NEW.month) IS NOT NULL
		BEGIN
			SELECT RAISE(ABORT, 'payroll period already posted to the ledger');
		END`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// migrateV2 seeds the default IRT table and the fiscal codes the income
// statement groups expenses by.
func migrateV2(ctx context.Context, tx *sql.Tx) error {
	table := payroll.DefaultBracketTable()
	if err := insertBrackets(ctx, tx, table); err != nil {
		return err
	}

	categories := []struct{ name, code string }{
		{"administrativas", "ADM"},
		{"escritorio", "ADM"},
		{"material", "ADM"},
		{"marketing", "COM"},
		{"vendas", "COM"},
		{"publicidade", "COM"},
		{payroll.CategorySalaries, "PES"},
		{payroll.CategoryEmployerSS, "PES"},
	}
	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO expense_categories (name, fiscal_code) VALUES (?, ?)`, c.name, c.code,
		); err != nil {
			return fmt.Errorf("seed expense category %s: %w", c.name, err)
		}
	}
	return nil
}
