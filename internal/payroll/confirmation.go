package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Expense categories the payroll posts when a period is confirmed. The
// income statement leaves both out of operating expenses.
const (
	CategorySalaries   = "salarios"
	CategoryEmployerSS = "inss_patronal"
)

// LedgerEntry is an aggregate expense posted for a confirmed period.
type LedgerEntry struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Notes       string          `json:"notes,omitempty"`
}

// Confirmation is a validated batch ready to be written as one period.
type Confirmation struct {
	Period  Period
	Records []Record
	Sync    bool
	Totals  PeriodTotals
}

// NewConfirmation checks that records is a non-empty batch for p with one
// record per employee. sync is the injected integration decision.
func NewConfirmation(p Period, records []Record, sync bool) (*Confirmation, error) {
	if _, err := NewPeriod(p.Month, p.Year); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPeriod, p)
	}
	seen := make(map[int64]bool, len(records))
	for _, r := range records {
		if r.Period() != p {
			return nil, fmt.Errorf("%w: employee %d has %s, want %s", ErrRecordPeriodMismatch, r.EmployeeID, r.Period(), p)
		}
		if seen[r.EmployeeID] {
			return nil, fmt.Errorf("%w: employee %d", ErrDuplicateRecord, r.EmployeeID)
		}
		seen[r.EmployeeID] = true
	}
	return &Confirmation{Period: p, Records: records, Sync: sync, Totals: SumRecords(records)}, nil
}

// LedgerEntries returns the two aggregates to post, or nil when sync is off.
func (c *Confirmation) LedgerEntries() []LedgerEntry {
	if !c.Sync {
		return nil
	}
	date := c.Period.LastDay()
	notes := fmt.Sprintf("%d funcionários", c.Totals.Employees)
	return []LedgerEntry{
		{
			Category:    CategorySalaries,
			Description: "Folha de pagamento " + c.Period.String(),
			Amount:      c.Totals.NetSalary,
			Date:        date,
			Notes:       notes,
		},
		{
			Category:    CategoryEmployerSS,
			Description: "INSS patronal " + c.Period.String(),
			Amount:      c.Totals.EmployerSocialSecurity,
			Date:        date,
			Notes:       notes,
		},
	}
}

// ConfirmationResult reports what a confirmation wrote.
type ConfirmationResult struct {
	PeriodID       string       `json:"period_id"`
	Period         Period       `json:"period"`
	LedgerEntryIDs []string     `json:"ledger_entry_ids"`
	ProcessedCount int          `json:"processed_count"`
	Synced         bool         `json:"synced"`
	Totals         PeriodTotals `json:"totals"`
	ConfirmedAt    time.Time    `json:"confirmed_at"`
}

// PeriodSummary is the stored view of a confirmed period.
type PeriodSummary struct {
	ID          string          `json:"id"`
	Period      Period          `json:"period"`
	Synced      bool            `json:"synced"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
	Records     []Record        `json:"records"`
	Payments    []PaymentStatus `json:"payments"`
	Totals      PeriodTotals    `json:"totals"`
}
