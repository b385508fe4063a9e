package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

// ConfirmPeriod writes a confirmed period in one transaction: the period
// marker, one record with its subsidy details and a paid status per employee,
// and, when c.Sync is set, the two aggregate expenses. Any failure rolls the
// whole period back. A period that already has records, or a concurrent
// confirmation that wins the race, yields ErrDuplicatePeriod.
func (s *Store) ConfirmPeriod(ctx context.Context, c *payroll.Confirmation) (*payroll.ConfirmationResult, error) {
	p := c.Period
	now := s.now().UTC()

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payroll_records WHERE year = ? AND month = ?`, p.Year, p.Month,
	).Scan(&existing); err != nil {
		return nil, fmt.Errorf("check existing records: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %s has %d records", payroll.ErrDuplicatePeriod, p, existing)
	}

	periodID := uuid.Must(uuid.NewV7()).String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payroll_periods (year, month, id, synced, confirmed_at) VALUES (?, ?, ?, ?, ?)`,
		p.Year, p.Month, periodID, boolToInt(c.Sync), formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", payroll.ErrDuplicatePeriod, p)
		}
		return nil, fmt.Errorf("insert payroll period: %w", err)
	}

	for i := range c.Records {
		rec := &c.Records[i]
		if err := insertRecord(ctx, tx, rec); err != nil {
			switch {
			case isUniqueViolation(err):
				return nil, fmt.Errorf("%w: employee %d in %s", payroll.ErrDuplicatePeriod, rec.EmployeeID, p)
			case isForeignKeyViolation(err):
				return nil, fmt.Errorf("%w: %d", payroll.ErrEmployeeNotFound, rec.EmployeeID)
			}
			return nil, fmt.Errorf("insert payroll record for employee %d: %w", rec.EmployeeID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO payment_statuses (employee_id, year, month, status, amount_paid, paid_at)
			 VALUES (?, ?, ?, 'paid', ?, ?)`,
			rec.EmployeeID, p.Year, p.Month, payroll.ToCents(rec.NetSalary), formatTime(now),
		); err != nil {
			return nil, fmt.Errorf("mark employee %d paid: %w", rec.EmployeeID, err)
		}
	}

	entryIDs := []string{}
	for _, e := range c.LedgerEntries() {
		id := uuid.Must(uuid.NewV7()).String()
		if err := insertExpense(ctx, tx, id, e.Category, e.Description, e.Amount, e.Date, true, e.Notes); err != nil {
			return nil, err
		}
		entryIDs = append(entryIDs, id)
	}
	if len(entryIDs) == 2 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE payroll_periods SET salaries_expense_id = ?, employer_ss_expense_id = ? WHERE year = ? AND month = ?`,
			entryIDs[0], entryIDs[1], p.Year, p.Month,
		); err != nil {
			return nil, fmt.Errorf("link period expenses: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Printf("payroll %s confirmed: %d records, net %s, synced=%t", p, len(c.Records), payroll.FormatMoney(c.Totals.NetSalary), c.Sync)
	return &payroll.ConfirmationResult{
		PeriodID:       periodID,
		Period:         p,
		LedgerEntryIDs: entryIDs,
		ProcessedCount: len(c.Records),
		Synced:         c.Sync,
		Totals:         c.Totals,
		ConfirmedAt:    now,
	}, nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, r *payroll.Record) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payroll_records (
			employee_id, employee_name, year, month,
			original_base_salary, absence_deduction, base_salary,
			subsidy_total, subsidy_exempt, subsidy_taxable, gross_salary,
			ss_base, employee_ss, employer_ss, fixed_deduction, taxable_income,
			bracket_order, bracket_rate, income_tax, total_deductions, net_salary,
			total_employer_cost, subsidy_source, computed_at, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.EmployeeID, r.EmployeeName, r.Year, r.Month,
		payroll.ToCents(r.OriginalBaseSalary), payroll.ToCents(r.AbsenceDeduction), payroll.ToCents(r.BaseSalary),
		payroll.ToCents(r.SubsidyTotal), payroll.ToCents(r.SubsidyExempt), payroll.ToCents(r.SubsidyTaxable), payroll.ToCents(r.GrossSalary),
		payroll.ToCents(r.SocialSecurityBase), payroll.ToCents(r.EmployeeSocialSecurity), payroll.ToCents(r.EmployerSocialSecurity),
		payroll.ToCents(r.FixedDeduction), payroll.ToCents(r.TaxableIncome),
		r.BracketOrder, r.BracketRate.String(), payroll.ToCents(r.IncomeTax), payroll.ToCents(r.TotalDeductions), payroll.ToCents(r.NetSalary),
		payroll.ToCents(r.TotalEmployerCost), string(r.SubsidySource), formatTime(r.ComputedAt), r.Notes,
	)
	if err != nil {
		return err
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range r.Details {
		det := &r.Details[i]
		det.RecordID = r.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO payroll_subsidy_details (record_id, subsidy_id, name, value, exempt_amount, taxable_amount)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, det.SubsidyID, det.Name,
			payroll.ToCents(det.Value), payroll.ToCents(det.ExemptAmount), payroll.ToCents(det.TaxableAmount),
		)
		if err != nil {
			return fmt.Errorf("insert subsidy detail %q: %w", det.Name, err)
		}
		if det.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

// DeletePeriod supersedes a confirmed period: its marker, records (details
// cascade), payment statuses and the expenses it posted go in one
// transaction.
func (s *Store) DeletePeriod(ctx context.Context, p payroll.Period) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var salariesID, employerID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT salaries_expense_id, employer_ss_expense_id FROM payroll_periods WHERE year = ? AND month = ?`,
		p.Year, p.Month,
	).Scan(&salariesID, &employerID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", payroll.ErrPeriodNotFound, p)
	}
	if err != nil {
		return fmt.Errorf("get payroll period: %w", err)
	}

	for _, id := range []sql.NullString{salariesID, employerID} {
		if !id.Valid {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id.String); err != nil {
			return fmt.Errorf("delete period expense: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payment_statuses WHERE year = ? AND month = ?`, p.Year, p.Month); err != nil {
		return fmt.Errorf("delete payment statuses: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payroll_periods WHERE year = ? AND month = ?`, p.Year, p.Month); err != nil {
		return fmt.Errorf("delete payroll period: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("payroll %s deleted", p)
	return nil
}

// GetPeriod returns a confirmed period with its records and payments.
func (s *Store) GetPeriod(ctx context.Context, p payroll.Period) (*payroll.PeriodSummary, error) {
	sum := payroll.PeriodSummary{Period: p}
	var synced int
	var confirmedAt string
	err := s.reader.QueryRowContext(ctx,
		`SELECT id, synced, confirmed_at FROM payroll_periods WHERE year = ? AND month = ?`, p.Year, p.Month,
	).Scan(&sum.ID, &synced, &confirmedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", payroll.ErrPeriodNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("get payroll period: %w", err)
	}
	sum.Synced = synced == 1
	sum.ConfirmedAt = parseTime(confirmedAt)

	if sum.Records, err = s.ListRecords(ctx, p); err != nil {
		return nil, err
	}
	if sum.Payments, err = s.ListPaymentStatuses(ctx, p); err != nil {
		return nil, err
	}
	sum.Totals = payroll.SumRecords(sum.Records)
	return &sum, nil
}

const recordColumns = `id, employee_id, employee_name, year, month,
	original_base_salary, absence_deduction, base_salary,
	subsidy_total, subsidy_exempt, subsidy_taxable, gross_salary,
	ss_base, employee_ss, employer_ss, fixed_deduction, taxable_income,
	bracket_order, bracket_rate, income_tax, total_deductions, net_salary,
	total_employer_cost, subsidy_source, computed_at, notes`

func (s *Store) ListRecords(ctx context.Context, p payroll.Period) ([]payroll.Record, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM payroll_records WHERE year = ? AND month = ? ORDER BY employee_id`,
		p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("list payroll records: %w", err)
	}
	defer rows.Close()

	records := []payroll.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payroll record: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range records {
		if records[i].Details, err = s.listDetails(ctx, records[i].ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Store) GetRecord(ctx context.Context, id int64) (*payroll.Record, error) {
	r, err := scanRecord(s.reader.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM payroll_records WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", payroll.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get payroll record: %w", err)
	}
	if r.Details, err = s.listDetails(ctx, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) listDetails(ctx context.Context, recordID int64) ([]payroll.SubsidyDetail, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, record_id, subsidy_id, name, value, exempt_amount, taxable_amount
		 FROM payroll_subsidy_details WHERE record_id = ? ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list subsidy details: %w", err)
	}
	defer rows.Close()

	details := []payroll.SubsidyDetail{}
	for rows.Next() {
		var det payroll.SubsidyDetail
		var subsidyID sql.NullInt64
		var value, exempt, taxable int64
		if err := rows.Scan(&det.ID, &det.RecordID, &subsidyID, &det.Name, &value, &exempt, &taxable); err != nil {
			return nil, fmt.Errorf("scan subsidy detail: %w", err)
		}
		if subsidyID.Valid {
			id := subsidyID.Int64
			det.SubsidyID = &id
		}
		det.Value = payroll.FromCents(value)
		det.ExemptAmount = payroll.FromCents(exempt)
		det.TaxableAmount = payroll.FromCents(taxable)
		details = append(details, det)
	}
	return details, rows.Err()
}

func scanRecord(row rowScanner) (*payroll.Record, error) {
	var (
		r          payroll.Record
		cents      [16]int64
		rate       string
		source     string
		computedAt string
	)
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.Year, &r.Month,
		&cents[0], &cents[1], &cents[2],
		&cents[3], &cents[4], &cents[5], &cents[6],
		&cents[7], &cents[8], &cents[9], &cents[10], &cents[11],
		&r.BracketOrder, &rate, &cents[12], &cents[13], &cents[14],
		&cents[15], &source, &computedAt, &r.Notes,
	)
	if err != nil {
		return nil, err
	}
	for i, dst := range []*decimal.Decimal{
		&r.OriginalBaseSalary, &r.AbsenceDeduction, &r.BaseSalary,
		&r.SubsidyTotal, &r.SubsidyExempt, &r.SubsidyTaxable, &r.GrossSalary,
		&r.SocialSecurityBase, &r.EmployeeSocialSecurity, &r.EmployerSocialSecurity, &r.FixedDeduction, &r.TaxableIncome,
		&r.IncomeTax, &r.TotalDeductions, &r.NetSalary,
		&r.TotalEmployerCost,
	} {
		*dst = payroll.FromCents(cents[i])
	}
	if r.BracketRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("record %d bracket rate %q: %w", r.ID, rate, err)
	}
	r.SubsidySource = payroll.SubsidySource(source)
	r.ComputedAt = parseTime(computedAt)
	return &r, nil
}

// SetPaymentStatus upserts one employee's payment status for a month. A paid
// status without a timestamp is stamped now; pending clears it.
func (s *Store) SetPaymentStatus(ctx context.Context, st *payroll.PaymentStatus) error {
	state, err := payroll.ParsePaymentState(string(st.Status))
	if err != nil {
		return err
	}
	st.Status = state
	if err := st.Validate(); err != nil {
		return err
	}
	if _, err := s.GetEmployee(ctx, st.EmployeeID); err != nil {
		return err
	}

	var paidAt *string
	switch st.Status {
	case payroll.PaymentPaid:
		if st.PaidAt == nil {
			t := s.now().UTC()
			st.PaidAt = &t
		}
		v := formatTime(*st.PaidAt)
		paidAt = &v
	default:
		st.PaidAt = nil
	}

	_, err = s.writer.ExecContext(ctx,
		`INSERT INTO payment_statuses (employee_id, year, month, status, amount_paid, paid_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id, year, month) DO UPDATE SET
			status = excluded.status,
			amount_paid = excluded.amount_paid,
			paid_at = excluded.paid_at`,
		st.EmployeeID, st.Year, st.Month, string(st.Status), payroll.ToCents(st.AmountPaid), paidAt,
	)
	if err != nil {
		return fmt.Errorf("upsert payment status: %w", err)
	}
	return nil
}

func (s *Store) ListPaymentStatuses(ctx context.Context, p payroll.Period) ([]payroll.PaymentStatus, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT employee_id, status, amount_paid, paid_at FROM payment_statuses
		 WHERE year = ? AND month = ? ORDER BY employee_id`, p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("list payment statuses: %w", err)
	}
	defer rows.Close()

	out := []payroll.PaymentStatus{}
	for rows.Next() {
		st := payroll.PaymentStatus{Month: p.Month, Year: p.Year}
		var status string
		var amount int64
		var paidAt sql.NullString
		if err := rows.Scan(&st.EmployeeID, &status, &amount, &paidAt); err != nil {
			return nil, fmt.Errorf("scan payment status: %w", err)
		}
		st.Status = payroll.PaymentState(status)
		st.AmountPaid = payroll.FromCents(amount)
		if paidAt.Valid {
			t := parseTime(paidAt.String)
			st.PaidAt = &t
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
