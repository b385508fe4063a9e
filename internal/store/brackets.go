package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

// BracketSnapshot is a saved copy of a table taken before it was replaced.
type BracketSnapshot struct {
	ID            int64  `json:"id"`
	EffectiveYear int    `json:"effective_year"`
	Label         string `json:"label"`
	CreatedAt     string `json:"created_at"`
	Brackets      int    `json:"brackets"`
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BracketTable returns the table in force for year: the one with the greatest
// effective year not after it.
func (s *Store) BracketTable(ctx context.Context, year int) (*payroll.BracketTable, error) {
	var effective sql.NullInt64
	err := s.reader.QueryRowContext(ctx,
		`SELECT MAX(effective_year) FROM tax_brackets WHERE effective_year <= ?`, year,
	).Scan(&effective)
	if err != nil {
		return nil, fmt.Errorf("find bracket table: %w", err)
	}
	if !effective.Valid {
		return nil, fmt.Errorf("%w: year %d", payroll.ErrNoBracketTable, year)
	}

	brackets, err := loadBrackets(ctx, s.reader,
		`SELECT ord, lower_bound, upper_bound, rate, fixed_deduction, description, active
		 FROM tax_brackets WHERE effective_year = ? ORDER BY ord`, effective.Int64)
	if err != nil {
		return nil, err
	}
	return payroll.NewBracketTable(int(effective.Int64), brackets)
}

// ListBracketYears returns the effective years with a stored table.
func (s *Store) ListBracketYears(ctx context.Context) ([]int, error) {
	rows, err := s.reader.QueryContext(ctx, `SELECT DISTINCT effective_year FROM tax_brackets ORDER BY effective_year`)
	if err != nil {
		return nil, fmt.Errorf("list bracket years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan bracket year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// ReplaceBracketTable swaps the table for table.EffectiveYear in one
// transaction. The outgoing table, if any, is snapshotted under label first;
// the returned id is zero when there was nothing to snapshot.
func (s *Store) ReplaceBracketTable(ctx context.Context, table *payroll.BracketTable, label string) (int64, error) {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snapshotID, err := s.snapshotBrackets(ctx, tx, table.EffectiveYear, label)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tax_brackets WHERE effective_year = ?`, table.EffectiveYear); err != nil {
		return 0, fmt.Errorf("delete brackets: %w", err)
	}
	if err := insertBrackets(ctx, tx, table); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	log.Printf("tax brackets for %d replaced (%d brackets, snapshot %d)", table.EffectiveYear, len(table.Brackets()), snapshotID)
	return snapshotID, nil
}

func (s *Store) snapshotBrackets(ctx context.Context, tx *sql.Tx, year int, label string) (int64, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tax_brackets WHERE effective_year = ?`, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("count brackets: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	if label == "" {
		label = fmt.Sprintf("IRT %d antes de %s", year, s.now().UTC().Format(dateLayout))
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tax_bracket_snapshots (effective_year, label, created_at) VALUES (?, ?, ?)`,
		year, label, formatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tax_bracket_snapshot_rows (snapshot_id, ord, lower_bound, upper_bound, rate, fixed_deduction, description, active)
		 SELECT ?, ord, lower_bound, upper_bound, rate, fixed_deduction, description, active
		 FROM tax_brackets WHERE effective_year = ?`, id, year,
	); err != nil {
		return 0, fmt.Errorf("copy snapshot rows: %w", err)
	}
	return id, nil
}

func (s *Store) ListBracketSnapshots(ctx context.Context) ([]BracketSnapshot, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT s.id, s.effective_year, s.label, s.created_at, COUNT(r.ord)
		 FROM tax_bracket_snapshots s
		 LEFT JOIN tax_bracket_snapshot_rows r ON r.snapshot_id = s.id
		 GROUP BY s.id
		 ORDER BY s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []BracketSnapshot{}
	for rows.Next() {
		var snap BracketSnapshot
		if err := rows.Scan(&snap.ID, &snap.EffectiveYear, &snap.Label, &snap.CreatedAt, &snap.Brackets); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// RestoreBracketSnapshot replaces the snapshot's year with its rows. The
// table being replaced is itself snapshotted, so a restore can be undone.
func (s *Store) RestoreBracketSnapshot(ctx context.Context, id int64) (*payroll.BracketTable, error) {
	var year int
	var label string
	err := s.reader.QueryRowContext(ctx,
		`SELECT effective_year, label FROM tax_bracket_snapshots WHERE id = ?`, id).Scan(&year, &label)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", payroll.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	brackets, err := loadBrackets(ctx, s.reader,
		`SELECT ord, lower_bound, upper_bound, rate, fixed_deduction, description, active
		 FROM tax_bracket_snapshot_rows WHERE snapshot_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, err
	}
	table, err := payroll.NewBracketTable(year, brackets)
	if err != nil {
		return nil, err
	}
	if _, err := s.ReplaceBracketTable(ctx, table, "antes de restaurar: "+label); err != nil {
		return nil, err
	}
	return table, nil
}

func insertBrackets(ctx context.Context, tx *sql.Tx, table *payroll.BracketTable) error {
	for _, b := range table.Brackets() {
		var upper *int64
		if b.Upper != nil {
			u := payroll.ToCents(*b.Upper)
			upper = &u
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tax_brackets (effective_year, ord, lower_bound, upper_bound, rate, fixed_deduction, description, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			table.EffectiveYear, b.Order, payroll.ToCents(b.Lower), upper, b.Rate.String(),
			payroll.ToCents(b.FixedDeduction), b.Description, boolToInt(b.Active),
		)
		if err != nil {
			return fmt.Errorf("insert bracket %d: %w", b.Order, err)
		}
	}
	return nil
}

func loadBrackets(ctx context.Context, q querier, query string, args ...any) ([]payroll.TaxBracket, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load brackets: %w", err)
	}
	defer rows.Close()

	var brackets []payroll.TaxBracket
	for rows.Next() {
		var (
			b         payroll.TaxBracket
			lower     int64
			upper     sql.NullInt64
			rate      string
			deduction int64
			active    int
		)
		if err := rows.Scan(&b.Order, &lower, &upper, &rate, &deduction, &b.Description, &active); err != nil {
			return nil, fmt.Errorf("scan bracket: %w", err)
		}
		b.Lower = payroll.FromCents(lower)
		if upper.Valid {
			u := payroll.FromCents(upper.Int64)
			b.Upper = &u
		}
		if b.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("%w: stored rate %q", payroll.ErrBracketRate, rate)
		}
		b.FixedDeduction = payroll.FromCents(deduction)
		b.Active = active == 1
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}
