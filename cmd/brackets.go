package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

var bracketsCmd = &cobra.Command{
	Use:   "brackets",
	Short: "Show, import and restore IRT bracket tables",
}

var bracketsYear int

var bracketsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the table in force for a year",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := client.New(flagServer).Brackets(context.Background(), bracketsYear)
		if err != nil {
			return err
		}

		fmt.Printf("IRT table effective %d\n\n", table.EffectiveYear)
		fmt.Printf("%-4s %18s %18s %8s %14s\n", "#", "FROM", "TO", "RATE", "DEDUCTION")
		for _, b := range table.Brackets {
			upper := "∞"
			if b.Upper != nil {
				upper = payroll.FormatMoney(*b.Upper)
			}
			fmt.Printf("%-4d %18s %18s %7s%% %14s\n",
				b.Order, payroll.FormatMoney(b.Lower), upper, b.Rate.String(), payroll.FormatMoney(b.FixedDeduction))
		}
		return nil
	},
}

var bracketsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the table as a YAML bracket file (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := client.New(flagServer).ExportBrackets(context.Background(), bracketsYear)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err = os.Stdout.Write(b)
			return err
		}
		return os.WriteFile(args[0], b, 0o644)
	},
}

var bracketsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the table for the file's effective year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		// Validate locally first so a broken file never reaches the server.
		table, _, err := payroll.ParseBracketFile(b)
		if err != nil {
			return err
		}

		res, err := client.New(flagServer).ImportBrackets(context.Background(), table.EffectiveYear, b)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d brackets for %d.", len(res.Brackets), res.EffectiveYear)
		if res.SnapshotID != 0 {
			fmt.Printf(" Previous table saved as snapshot %d.", res.SnapshotID)
		}
		fmt.Println()
		return nil
	},
}

var bracketsSnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		snaps, err := client.New(flagServer).BracketSnapshots(context.Background())
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, s := range snaps {
			fmt.Printf("%-4d %d  %-40s %2d brackets  %s\n", s.ID, s.EffectiveYear, s.Label, s.Brackets, s.CreatedAt)
		}
		return nil
	},
}

var bracketsRestoreCmd = &cobra.Command{
	Use:   "restore <snapshot-id>",
	Short: "Restore a saved table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		table, err := client.New(flagServer).RestoreBrackets(context.Background(), id)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d brackets for %d.\n", len(table.Brackets), table.EffectiveYear)
		return nil
	},
}

func init() {
	bracketsShowCmd.Flags().IntVar(&bracketsYear, "year", time.Now().Year(), "Payroll year")
	bracketsExportCmd.Flags().IntVar(&bracketsYear, "year", time.Now().Year(), "Payroll year")

	bracketsCmd.AddCommand(bracketsShowCmd, bracketsExportCmd, bracketsImportCmd, bracketsSnapshotsCmd, bracketsRestoreCmd)
	rootCmd.AddCommand(bracketsCmd)
}
