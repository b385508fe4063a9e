package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Record sales",
}

var (
	saleTax      string
	saleDiscount string
	saleCost     string
	saleDate     string
)

var saleAddCmd = &cobra.Command{
	Use:   "add <total>",
	Short: "Record a completed sale (total includes tax)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &finance.Sale{Status: finance.SaleCompleted, SoldAt: time.Now()}
		var err error
		if s.Total, err = payroll.ParseMoney(args[0]); err != nil {
			return err
		}
		if s.Tax, err = optionalMoney(saleTax); err != nil {
			return err
		}
		if s.Discount, err = optionalMoney(saleDiscount); err != nil {
			return err
		}
		if s.CostOfGoods, err = optionalMoney(saleCost); err != nil {
			return err
		}
		if saleDate != "" {
			if s.SoldAt, err = time.ParseInLocation("2006-01-02", saleDate, time.Local); err != nil {
				return fmt.Errorf("invalid date %q: %w", saleDate, err)
			}
		}

		created, err := client.New(flagServer).CreateSale(context.Background(), s)
		if err != nil {
			return err
		}
		fmt.Printf("Sale %s: %s on %s\n", created.ID, money(created.Total), created.SoldAt.Format("2006-01-02"))
		return nil
	},
}

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record and list expenses",
}

var (
	expDescription string
	expDate        string
	expNotes       string
	expPending     bool
	expMonth       int
	expYear        int
	expCategory    string
)

var expenseAddCmd = &cobra.Command{
	Use:   "add <category> <amount>",
	Short: "Record an expense",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := payroll.ParseMoney(args[1])
		if err != nil {
			return err
		}
		e := &finance.Expense{
			Category:    args[0],
			Description: expDescription,
			Amount:      amount,
			Date:        time.Now(),
			Paid:        !expPending,
			Notes:       expNotes,
		}
		if expDate != "" {
			if e.Date, err = time.ParseInLocation("2006-01-02", expDate, time.Local); err != nil {
				return fmt.Errorf("invalid date %q: %w", expDate, err)
			}
		}

		created, err := client.New(flagServer).CreateExpense(context.Background(), e)
		if err != nil {
			return err
		}
		fmt.Printf("Expense %s: %s %s\n", created.ID, created.Category, money(created.Amount))
		return nil
	},
}

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a month's expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := period(expMonth, expYear)
		if err != nil {
			return err
		}
		list, err := client.New(flagServer).ListExpenses(context.Background(), p, expCategory)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No expenses.")
			return nil
		}

		fmt.Printf("%-10s %-16s %-36s %16s %s\n", "DATE", "CATEGORY", "DESCRIPTION", "AMOUNT", "PAID")
		for _, e := range list {
			desc := e.Description
			if len(desc) > 34 {
				desc = desc[:32] + ".."
			}
			paid := "yes"
			if !e.Paid {
				paid = "no"
			}
			fmt.Printf("%-10s %-16s %-36s %16s %s\n", e.Date.Format("2006-01-02"), e.Category, desc, money(e.Amount), paid)
		}
		return nil
	},
}

func init() {
	saleAddCmd.Flags().StringVar(&saleTax, "tax", "", "Tax included in the total")
	saleAddCmd.Flags().StringVar(&saleDiscount, "discount", "", "Discount given")
	saleAddCmd.Flags().StringVar(&saleCost, "cost", "", "Cost of goods sold")
	saleAddCmd.Flags().StringVar(&saleDate, "date", "", "Sale date (YYYY-MM-DD, default today)")
	saleCmd.AddCommand(saleAddCmd)

	expenseAddCmd.Flags().StringVar(&expDescription, "description", "", "Description")
	expenseAddCmd.Flags().StringVar(&expDate, "date", "", "Expense date (YYYY-MM-DD, default today)")
	expenseAddCmd.Flags().StringVar(&expNotes, "notes", "", "Notes")
	expenseAddCmd.Flags().BoolVar(&expPending, "pending", false, "Not paid yet")
	periodFlags(expenseListCmd, &expMonth, &expYear)
	expenseListCmd.Flags().StringVar(&expCategory, "category", "", "Only this category")
	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd)

	rootCmd.AddCommand(saleCmd, expenseCmd)
}
