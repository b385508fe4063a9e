package tui

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

func money(d decimal.Decimal) string {
	return payroll.FormatMoney(d)
}

func formatSigned(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + money(d.Neg()) + ")"
	}
	return money(d)
}

func centerStr(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
