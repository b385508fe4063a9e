package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

var payrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Calculate, confirm and inspect payroll periods",
}

var (
	payMonth     int
	payYear      int
	payEmployees []int64
)

var payrollCalcCmd = &cobra.Command{
	Use:   "calc <employee-id>",
	Short: "Calculate one employee's payslip without saving it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := period(payMonth, payYear)
		if err != nil {
			return err
		}
		rec, err := client.New(flagServer).Calculate(context.Background(), id, p)
		if err != nil {
			return err
		}
		printPayslip(rec)
		return nil
	},
}

var payrollPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Calculate a whole period without saving it",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := period(payMonth, payYear)
		if err != nil {
			return err
		}
		run, err := client.New(flagServer).CalculatePeriod(context.Background(), p, payEmployees)
		if err != nil {
			return err
		}
		printRecords(run.Records, run.Totals)
		for _, f := range run.Failures {
			fmt.Printf("FAILED employee %d: %s\n", f.EmployeeID, f.Error)
		}
		return nil
	},
}

var payrollConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm a period: save every record and post the expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := period(payMonth, payYear)
		if err != nil {
			return err
		}
		res, err := client.New(flagServer).ConfirmPeriod(context.Background(), p, payEmployees)
		if err != nil {
			return err
		}
		fmt.Printf("Payroll %s confirmed: %d employees, net %s, employer cost %s\n",
			res.Period, res.ProcessedCount, payroll.FormatMoney(res.Totals.NetSalary), payroll.FormatMoney(res.Totals.TotalEmployerCost))
		if res.Synced {
			fmt.Printf("Posted %d expense entries.\n", len(res.LedgerEntryIDs))
		}
		return nil
	},
}

var payrollShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a confirmed period",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := period(payMonth, payYear)
		if err != nil {
			return err
		}
		sum, err := client.New(flagServer).Period(context.Background(), p)
		if err != nil {
			return err
		}
		fmt.Printf("Payroll %s confirmed %s (synced: %t)\n\n", sum.Period, sum.ConfirmedAt.Format("2006-01-02 15:04"), sum.Synced)
		printRecords(sum.Records, sum.Totals)
		return nil
	},
}

var payrollDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a confirmed period and the expenses it posted",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := period(payMonth, payYear)
		if err != nil {
			return err
		}
		if err := client.New(flagServer).DeletePeriod(context.Background(), p); err != nil {
			return err
		}
		fmt.Printf("Payroll %s deleted.\n", p)
		return nil
	},
}

var payAmount string

var payrollPayCmd = &cobra.Command{
	Use:   "pay <employee-id> <paid|pending>",
	Short: "Set an employee's payment status for a period",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := period(payMonth, payYear)
		if err != nil {
			return err
		}
		amount, err := optionalMoney(payAmount)
		if err != nil {
			return err
		}
		st, err := client.New(flagServer).SetPayment(context.Background(), p, id, args[1], amount)
		if err != nil {
			return err
		}
		fmt.Printf("Employee %d %s: %s\n", st.EmployeeID, st.Status, payroll.FormatMoney(st.AmountPaid))
		return nil
	},
}

var payrollPaymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "List payment statuses for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := period(payMonth, payYear)
		if err != nil {
			return err
		}
		list, err := client.New(flagServer).Payments(context.Background(), p)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Printf("No payments recorded for %s.\n", p)
			return nil
		}
		for _, st := range list {
			paid := ""
			if st.PaidAt != nil {
				paid = st.PaidAt.Format("2006-01-02")
			}
			fmt.Printf("%-6d %-8s %16s  %s\n", st.EmployeeID, st.Status, money(st.AmountPaid), paid)
		}
		return nil
	},
}

func printPayslip(r *payroll.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	line := func(label, v string) { fmt.Fprintf(w, "%s\t%s\t\n", label, v) }
	fmt.Printf("%s, %s\n\n", r.EmployeeName, r.Period())
	line("Base salary", money(r.OriginalBaseSalary))
	if !r.AbsenceDeduction.IsZero() {
		line("Absences", money(r.AbsenceDeduction.Neg()))
	}
	for _, d := range r.Details {
		line("  "+d.Name, money(d.Value))
	}
	line("Gross", money(r.GrossSalary))
	line("INSS employee", money(r.EmployeeSocialSecurity.Neg()))
	line("Taxable income", money(r.TaxableIncome))
	line("IRT (bracket "+strconv.Itoa(r.BracketOrder)+", "+r.BracketRate.String()+"%)", money(r.IncomeTax.Neg()))
	line("Net", money(r.NetSalary))
	line("INSS employer", money(r.EmployerSocialSecurity))
	line("Employer cost", money(r.TotalEmployerCost))
	w.Flush()
}

func money(d decimal.Decimal) string { return payroll.FormatMoney(d) }

func printRecords(records []payroll.Record, t payroll.PeriodTotals) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ID\tNAME\tBASE\tSUBSIDIES\tGROSS\tINSS\tIRT\tNET\t")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", r.EmployeeID, r.EmployeeName,
			money(r.BaseSalary), money(r.SubsidyTotal), money(r.GrossSalary),
			money(r.EmployeeSocialSecurity), money(r.IncomeTax), money(r.NetSalary))
	}
	fmt.Fprintf(w, "\tTOTAL (%d)\t%s\t%s\t%s\t%s\t%s\t%s\t\n", t.Employees,
		money(t.BaseSalary), money(t.SubsidyTotal), money(t.GrossSalary),
		money(t.EmployeeSocialSecurity), money(t.IncomeTax), money(t.NetSalary))
	w.Flush()
}

func init() {
	for _, c := range []*cobra.Command{payrollCalcCmd, payrollPreviewCmd, payrollConfirmCmd, payrollShowCmd, payrollDeleteCmd, payrollPayCmd, payrollPaymentsCmd} {
		periodFlags(c, &payMonth, &payYear)
	}
	payrollPreviewCmd.Flags().Int64SliceVar(&payEmployees, "employee", nil, "Limit to these employee IDs")
	payrollConfirmCmd.Flags().Int64SliceVar(&payEmployees, "employee", nil, "Limit to these employee IDs")
	payrollPayCmd.Flags().StringVar(&payAmount, "amount", "", "Amount paid")

	payrollCmd.AddCommand(payrollCalcCmd, payrollPreviewCmd, payrollConfirmCmd, payrollShowCmd, payrollDeleteCmd, payrollPayCmd, payrollPaymentsCmd)
	rootCmd.AddCommand(payrollCmd)
}
