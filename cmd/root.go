package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/payroll"
)

var (
	flagServer string
	flagDB     string
)

var rootCmd = &cobra.Command{
	Use:   "sgva",
	Short: "Angolan payroll and income statement",
	Long:  "Payroll (INSS, IRT, subsidies) and monthly income statement for small businesses, backed by SQLite.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "http://localhost:8890", "Server address")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "sgva.db", "SQLite database path")
}

func Execute() error {
	return rootCmd.Execute()
}

// periodFlags adds --month/--year to a command.
func periodFlags(cmd *cobra.Command, month, year *int) {
	cmd.Flags().IntVar(month, "month", 0, "Month (1-12)")
	cmd.Flags().IntVar(year, "year", 0, "Year")
	cmd.MarkFlagRequired("month")
	cmd.MarkFlagRequired("year")
}

func period(month, year int) (payroll.Period, error) {
	p, err := payroll.NewPeriod(month, year)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("period %02d/%d: %w", month, year, err)
	}
	return p, nil
}
