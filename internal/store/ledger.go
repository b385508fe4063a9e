package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

// CreateExpense records a hand-entered expense. Unknown categories are
// registered without a fiscal code so they group as operational.
func (s *Store) CreateExpense(ctx context.Context, e *finance.Expense) error {
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	e.Amount = payroll.RoundMoney(e.Amount)
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertExpense(ctx, tx, e.ID, e.Category, e.Description, e.Amount, e.Date, e.Paid, e.Notes); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense %s already exists", payroll.ErrValidation, e.ID)
		}
		return err
	}
	return tx.Commit()
}

func insertExpense(ctx context.Context, tx *sql.Tx, id, category, description string, amount decimal.Decimal, date time.Time, paid bool, notes string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO expense_categories (name, fiscal_code) VALUES (?, '')`, category,
	); err != nil {
		return fmt.Errorf("register expense category: %w", err)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, category, description, amount, expense_date, paid, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, category, description, payroll.ToCents(amount), date.Format(dateLayout), boolToInt(paid), notes,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]finance.Expense, error) {
	query := `SELECT id, category, description, amount, expense_date, paid, notes FROM expenses WHERE 1=1`
	args := []any{}

	if filter.Year != 0 && filter.Month != 0 {
		query += ` AND substr(expense_date, 1, 7) = ?`
		args = append(args, monthPrefix(filter.Year, filter.Month))
	} else if filter.Year != 0 {
		query += ` AND substr(expense_date, 1, 4) = ?`
		args = append(args, fmt.Sprintf("%04d", filter.Year))
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, strings.ToLower(filter.Category))
	}
	query += ` ORDER BY expense_date DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []finance.Expense{}
	for rows.Next() {
		var e finance.Expense
		var amount int64
		var date string
		var paid int
		if err := rows.Scan(&e.ID, &e.Category, &e.Description, &amount, &date, &paid, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = payroll.FromCents(amount)
		e.Date, _ = time.Parse(dateLayout, date)
		e.Paid = paid == 1
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateSale stores the revenue side of a ticket.
func (s *Store) CreateSale(ctx context.Context, sale *finance.Sale) error {
	if sale.Status == "" {
		sale.Status = finance.SaleCompleted
	}
	if err := sale.Validate(); err != nil {
		return err
	}
	if sale.ID == "" {
		sale.ID = uuid.Must(uuid.NewV7()).String()
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO sales (id, total, tax, discount, cost_of_goods, status, sold_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, payroll.ToCents(sale.Total), payroll.ToCents(sale.Tax), payroll.ToCents(sale.Discount),
		payroll.ToCents(sale.CostOfGoods), string(sale.Status), formatTime(sale.SoldAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sale %s already exists", payroll.ErrValidation, sale.ID)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func monthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
