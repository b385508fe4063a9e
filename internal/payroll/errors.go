package payroll

import "errors"

// Error kinds. Every error produced by this package (and by the store for
// domain conditions) wraps exactly one of these.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrDuplicatePeriod = errors.New("payroll period already confirmed")
	ErrValidation      = errors.New("validation error")
)

var (
	ErrEmptyBracketTable = kind(ErrConfiguration, "tax bracket table is empty")
	ErrBracketGap        = kind(ErrConfiguration, "tax brackets leave a gap")
	ErrBracketOverlap    = kind(ErrConfiguration, "tax brackets overlap")
	ErrBracketBounds     = kind(ErrConfiguration, "invalid tax bracket bounds")
	ErrBracketRate       = kind(ErrConfiguration, "invalid tax bracket rate or deduction")
	ErrNoBracketTable    = kind(ErrConfiguration, "no tax bracket table configured")
	ErrNoBracket         = kind(ErrConfiguration, "no tax bracket matches income")
	ErrInvalidConfig     = kind(ErrConfiguration, "invalid payroll configuration")
	ErrBracketFile       = kind(ErrConfiguration, "invalid tax bracket file")

	ErrEmployeeNotFound = kind(ErrNotFound, "employee not found")
	ErrEmployeeInactive = kind(ErrNotFound, "employee is inactive")
	ErrSubsidyNotFound  = kind(ErrNotFound, "subsidy not found")
	ErrCategoryNotFound = kind(ErrNotFound, "employee category not found")
	ErrRecordNotFound   = kind(ErrNotFound, "payroll record not found")
	ErrPeriodNotFound   = kind(ErrNotFound, "payroll period not confirmed")
	ErrSnapshotNotFound = kind(ErrNotFound, "tax bracket snapshot not found")

	ErrInvalidMonth           = kind(ErrValidation, "month must be between 1 and 12")
	ErrInvalidYear            = kind(ErrValidation, "year out of range")
	ErrNegativeSalary         = kind(ErrValidation, "base salary cannot be negative")
	ErrNegativeIncome         = kind(ErrValidation, "income cannot be negative")
	ErrInvalidName            = kind(ErrValidation, "name is required")
	ErrInvalidSubsidy         = kind(ErrValidation, "invalid subsidy definition")
	ErrInvalidAssignment      = kind(ErrValidation, "invalid subsidy assignment")
	ErrInvalidAbsence         = kind(ErrValidation, "invalid absence record")
	ErrInvalidPaymentStatus   = kind(ErrValidation, "invalid payment status")
	ErrInvalidIntegrationMode = kind(ErrValidation, "invalid integration mode")
	ErrInvalidAmount          = kind(ErrValidation, "invalid amount")
	ErrEmptyPeriod            = kind(ErrValidation, "no payroll records to confirm")
	ErrRecordPeriodMismatch   = kind(ErrValidation, "payroll record belongs to another period")
	ErrDuplicateRecord        = kind(ErrValidation, "employee appears twice in the period")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func kind(k error, msg string) error {
	return &kindError{msg: msg, kind: k}
}
