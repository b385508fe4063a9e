package payroll

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type CalculationKind string

const (
	KindFixed      CalculationKind = "fixed"
	KindPercentage CalculationKind = "percentage"
)

type TargetKind string

const (
	TargetEveryone   TargetKind = "everyone"
	TargetCategory   TargetKind = "category"
	TargetIndividual TargetKind = "individual"
)

// Subsidy is a company subsidy definition. PaymentMonths empty means every
// month. Installments spreads the value across that many payments.
type Subsidy struct {
	ID                         int64           `json:"id"`
	Name                       string          `json:"name"`
	Kind                       CalculationKind `json:"kind"`
	Target                     TargetKind      `json:"target"`
	CategoryID                 *int64          `json:"category_id,omitempty"`
	Value                      decimal.Decimal `json:"value"`
	Percentage                 decimal.Decimal `json:"percentage"`
	ExemptionCeiling           decimal.Decimal `json:"exemption_ceiling"`
	PaymentMonths              []int           `json:"payment_months,omitempty"`
	Installments               int             `json:"installments"`
	CountsTowardSocialSecurity bool            `json:"counts_toward_social_security"`
	CountsTowardIncomeTax      bool            `json:"counts_toward_income_tax"`
	Active                     bool            `json:"active"`
}

func (s Subsidy) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidName
	}
	switch s.Kind {
	case KindFixed:
		if s.Value.IsNegative() {
			return fmt.Errorf("%w: negative value %s", ErrInvalidSubsidy, s.Value)
		}
	case KindPercentage:
		if s.Percentage.IsNegative() || s.Percentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage %s", ErrInvalidSubsidy, s.Percentage)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSubsidy, s.Kind)
	}
	switch s.Target {
	case TargetEveryone, TargetIndividual:
	case TargetCategory:
		if s.CategoryID == nil {
			return fmt.Errorf("%w: category target without category", ErrInvalidSubsidy)
		}
	default:
		return fmt.Errorf("%w: unknown target %q", ErrInvalidSubsidy, s.Target)
	}
	if s.ExemptionCeiling.IsNegative() {
		return fmt.Errorf("%w: negative exemption ceiling", ErrInvalidSubsidy)
	}
	for _, m := range s.PaymentMonths {
		if m < 1 || m > 12 {
			return fmt.Errorf("%w: payment month %d", ErrInvalidSubsidy, m)
		}
	}
	if s.Installments < 0 {
		return fmt.Errorf("%w: installments %d", ErrInvalidSubsidy, s.Installments)
	}
	return nil
}

// PaidIn reports whether the subsidy is paid in month.
func (s Subsidy) PaidIn(month int) bool {
	return len(s.PaymentMonths) == 0 || slices.Contains(s.PaymentMonths, month)
}

// SubsidyUpdate lists the fields a PATCH may change.
type SubsidyUpdate struct {
	Name                       *string          `json:"name,omitempty"`
	Kind                       *CalculationKind `json:"kind,omitempty"`
	Target                     *TargetKind      `json:"target,omitempty"`
	CategoryID                 *int64           `json:"category_id,omitempty"`
	Value                      *decimal.Decimal `json:"value,omitempty"`
	Percentage                 *decimal.Decimal `json:"percentage,omitempty"`
	ExemptionCeiling           *decimal.Decimal `json:"exemption_ceiling,omitempty"`
	PaymentMonths              *[]int           `json:"payment_months,omitempty"`
	Installments               *int             `json:"installments,omitempty"`
	CountsTowardSocialSecurity *bool            `json:"counts_toward_social_security,omitempty"`
	CountsTowardIncomeTax      *bool            `json:"counts_toward_income_tax,omitempty"`
	Active                     *bool            `json:"active,omitempty"`
}

func (u SubsidyUpdate) Apply(s Subsidy) (Subsidy, error) {
	if u.Name != nil {
		s.Name = strings.TrimSpace(*u.Name)
	}
	if u.Kind != nil {
		s.Kind = *u.Kind
	}
	if u.Target != nil {
		s.Target = *u.Target
	}
	if u.CategoryID != nil {
		id := *u.CategoryID
		s.CategoryID = &id
	}
	if u.Value != nil {
		s.Value = RoundMoney(*u.Value)
	}
	if u.Percentage != nil {
		s.Percentage = *u.Percentage
	}
	if u.ExemptionCeiling != nil {
		s.ExemptionCeiling = RoundMoney(*u.ExemptionCeiling)
	}
	if u.PaymentMonths != nil {
		s.PaymentMonths = slices.Clone(*u.PaymentMonths)
	}
	if u.Installments != nil {
		s.Installments = *u.Installments
	}
	if u.CountsTowardSocialSecurity != nil {
		s.CountsTowardSocialSecurity = *u.CountsTowardSocialSecurity
	}
	if u.CountsTowardIncomeTax != nil {
		s.CountsTowardIncomeTax = *u.CountsTowardIncomeTax
	}
	if u.Active != nil {
		s.Active = *u.Active
	}
	if s.Target != TargetCategory {
		s.CategoryID = nil
	}
	return s, s.Validate()
}

// Assignment links one employee to one subsidy. OverrideValue, when set,
// replaces the computed amount for fixed and percentage subsidies alike.
type Assignment struct {
	EmployeeID    int64            `json:"employee_id"`
	SubsidyID     int64            `json:"subsidy_id"`
	OverrideValue *decimal.Decimal `json:"override_value,omitempty"`
	Active        bool             `json:"active"`
}

func (a Assignment) Validate() error {
	if a.EmployeeID <= 0 || a.SubsidyID <= 0 {
		return fmt.Errorf("%w: employee %d subsidy %d", ErrInvalidAssignment, a.EmployeeID, a.SubsidyID)
	}
	if a.OverrideValue != nil && a.OverrideValue.IsNegative() {
		return fmt.Errorf("%w: negative override %s", ErrInvalidAssignment, a.OverrideValue)
	}
	return nil
}

type SubsidySource string

const (
	SourceAutomatic  SubsidySource = "automatic"
	SourceManual     SubsidySource = "manual"
	SourceManualZero SubsidySource = "manual_zero"
)

// SubsidyLine is one subsidy applied to one payroll. SubsidyID is nil for the
// manual line.
type SubsidyLine struct {
	SubsidyID                  *int64          `json:"subsidy_id,omitempty"`
	Name                       string          `json:"name"`
	Value                      decimal.Decimal `json:"value"`
	Exempt                     decimal.Decimal `json:"exempt"`
	Taxable                    decimal.Decimal `json:"taxable"`
	CountsTowardSocialSecurity bool            `json:"counts_toward_social_security"`
	CountsTowardIncomeTax      bool            `json:"counts_toward_income_tax"`
}

type SubsidyResult struct {
	Lines   []SubsidyLine   `json:"lines"`
	Total   decimal.Decimal `json:"total"`
	Exempt  decimal.Decimal `json:"exempt"`
	Taxable decimal.Decimal `json:"taxable"`
	Source  SubsidySource   `json:"source"`
}

// SocialSecurityBase sums the taxable part of lines that count toward SS.
func (r SubsidyResult) SocialSecurityBase() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range r.Lines {
		if l.CountsTowardSocialSecurity {
			sum = sum.Add(l.Taxable)
		}
	}
	return sum
}

// IncomeTaxBase sums the taxable part of lines that count toward IRT.
func (r SubsidyResult) IncomeTaxBase() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range r.Lines {
		if l.CountsTowardIncomeTax {
			sum = sum.Add(l.Taxable)
		}
	}
	return sum
}

// ResolveSubsidies selects and values the subsidies that apply to emp in
// month. base is the salary percentages are computed on. subsidies is the
// active catalogue and assignments the employee's own assignment rows.
func ResolveSubsidies(emp Employee, month int, base decimal.Decimal, subsidies []Subsidy, assignments []Assignment, cfg Config) SubsidyResult {
	res := SubsidyResult{Total: decimal.Zero, Exempt: decimal.Zero, Taxable: decimal.Zero, Source: SourceAutomatic}

	if emp.ManualSubsidy != nil {
		v := RoundMoney(*emp.ManualSubsidy)
		if v.IsZero() {
			res.Source = SourceManualZero
			return res
		}
		res.Source = SourceManual
		res.add(split(SubsidyLine{
			Name:                       "Subsídio manual",
			CountsTowardSocialSecurity: true,
			CountsTowardIncomeTax:      true,
		}, v, cfg.ManualSubsidyExemption))
		return res
	}

	type match struct {
		sub      Subsidy
		override *decimal.Decimal
	}
	byID := make(map[int64]Subsidy, len(subsidies))
	for _, s := range subsidies {
		if s.Active {
			byID[s.ID] = s
		}
	}

	matched := make(map[int64]match)
	for _, a := range assignments {
		if !a.Active || a.EmployeeID != emp.ID {
			continue
		}
		if s, ok := byID[a.SubsidyID]; ok {
			matched[s.ID] = match{sub: s, override: a.OverrideValue}
		}
	}
	for _, s := range byID {
		if _, ok := matched[s.ID]; ok {
			continue
		}
		switch s.Target {
		case TargetEveryone:
			matched[s.ID] = match{sub: s}
		case TargetCategory:
			if emp.CategoryID != nil && s.CategoryID != nil && *emp.CategoryID == *s.CategoryID {
				matched[s.ID] = match{sub: s}
			}
		}
	}

	ids := make([]int64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		m := matched[id]
		if !m.sub.PaidIn(month) {
			continue
		}
		raw := m.sub.Value
		if m.sub.Kind == KindPercentage {
			raw = PercentOf(base, m.sub.Percentage)
		}
		if m.override != nil {
			raw = *m.override
		}
		if n := m.sub.Installments; n > 1 {
			raw = raw.Div(decimal.NewFromInt(int64(n)))
		}
		sid := m.sub.ID
		res.add(split(SubsidyLine{
			SubsidyID:                  &sid,
			Name:                       m.sub.Name,
			CountsTowardSocialSecurity: m.sub.CountsTowardSocialSecurity,
			CountsTowardIncomeTax:      m.sub.CountsTowardIncomeTax,
		}, nonNegative(RoundMoney(raw)), m.sub.ExemptionCeiling))
	}
	return res
}

// split clamps the exempt share to [0, value].
func split(l SubsidyLine, value, ceiling decimal.Decimal) SubsidyLine {
	l.Value = value
	l.Exempt = decimal.Min(value, nonNegative(ceiling))
	l.Taxable = value.Sub(l.Exempt)
	return l
}

func (r *SubsidyResult) add(l SubsidyLine) {
	r.Lines = append(r.Lines, l)
	r.Total = r.Total.Add(l.Value)
	r.Exempt = r.Exempt.Add(l.Exempt)
	r.Taxable = r.Taxable.Add(l.Taxable)
}
