package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/finance"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Financial reports",
}

var reportMonth, reportYear int

var dreCmd = &cobra.Command{
	Use:   "dre",
	Short: "Show the income statement (DRE) for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := period(reportMonth, reportYear)
		if err != nil {
			return err
		}
		st, err := client.New(flagServer).IncomeStatement(context.Background(), p)
		if err != nil {
			return err
		}
		printIncomeStatement(st)
		return nil
	},
}

func printIncomeStatement(st *finance.IncomeStatement) {
	w := 60
	row := func(label string, v decimal.Decimal) {
		fmt.Printf("  %-*s%18s\n", w-20, label, formatSigned(v))
	}
	rule := func(r string) { fmt.Printf("%*s%s\n", w-16, "", strings.Repeat(r, 16)) }

	fmt.Println()
	fmt.Println(center("INCOME STATEMENT "+st.Period.String(), w))
	fmt.Println(center(strings.Repeat("=", 24), w))
	fmt.Println()

	row("Gross revenue (with tax)", st.GrossRevenueWithTax)
	row("Tax collected", st.TaxCollected.Neg())
	row("Gross revenue", st.GrossRevenue)
	row("Deductions", st.Deductions.Neg())
	rule("─")
	row("Net revenue", st.NetRevenue)
	row("Cost of goods sold", st.CostOfGoodsSold.Neg())
	rule("─")
	row("Gross profit", st.GrossProfit)
	fmt.Printf("  %-*s%17s%%\n", w-20, "  margin", st.GrossMargin.StringFixed(1))
	fmt.Println()

	fmt.Println("  OPERATING EXPENSES")
	for _, e := range st.OperatingExpenses.ByCategory {
		label := "  " + e.Category
		if e.FiscalCode != "" {
			label += " [" + e.FiscalCode + "]"
		}
		row(label, e.Amount.Neg())
	}
	row("Total operating expenses", st.OperatingExpenses.Total.Neg())
	rule("─")
	row("Operating profit", st.OperatingProfit)
	fmt.Println()

	fmt.Printf("  PERSONNEL (%s, %d employees)\n", st.Personnel.Source, st.Personnel.Employees)
	row("  Salaries", st.Personnel.Salaries.Neg())
	row("  INSS employer", st.Personnel.EmployerSocialSecurity.Neg())
	row("Total personnel", st.Personnel.Total.Neg())
	rule("─")
	row("Profit before tax", st.ProfitBeforeTax)
	row("Income tax (estimate "+st.EstimatedIncomeTaxPercent.String()+"%)", st.EstimatedIncomeTax.Neg())
	row("Stamp duty ("+st.StampDutyPercent.String()+"%)", st.StampDuty.Neg())
	rule("═")
	row("NET PROFIT", st.NetProfit)
	fmt.Printf("  %-*s%17s%%\n", w-20, "  margin", st.NetMargin.StringFixed(1))
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func formatSigned(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + money(d.Neg()) + ")"
	}
	return money(d)
}

func init() {
	periodFlags(dreCmd, &reportMonth, &reportYear)
	reportCmd.AddCommand(dreCmd)
	rootCmd.AddCommand(reportCmd)
}
