package payroll

import "context"

// EmployeeReader returns ErrEmployeeNotFound for unknown ids.
type EmployeeReader interface {
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	ListActiveEmployees(ctx context.Context) ([]Employee, error)
}

type SubsidyReader interface {
	ListActiveSubsidies(ctx context.Context) ([]Subsidy, error)
	ListAssignments(ctx context.Context, employeeID int64) ([]Assignment, error)
}

// BracketReader returns the table in force for year, or ErrNoBracketTable.
type BracketReader interface {
	BracketTable(ctx context.Context, year int) (*BracketTable, error)
}

// AbsenceReader returns nil, nil when nothing was recorded for the period.
type AbsenceReader interface {
	GetAbsence(ctx context.Context, employeeID int64, p Period) (*Absence, error)
}
