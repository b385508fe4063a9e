package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change payroll, finance and module settings",
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		ctx := context.Background()

		pc, err := c.PayrollSettings(ctx)
		if err != nil {
			return err
		}
		fc, err := c.FinanceSettings(ctx)
		if err != nil {
			return err
		}
		mc, err := c.ModuleSettings(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"payroll": pc, "finance": fc, "modules": mc})
	},
}

// Updates are JSON documents with only the fields to change, e.g.
//
//	sgva settings payroll '{"working_days": 21}'
var settingsPayrollCmd = &cobra.Command{
	Use:   "payroll <json>",
	Short: "Update payroll settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u payroll.ConfigUpdate
		if err := json.Unmarshal([]byte(args[0]), &u); err != nil {
			return err
		}
		cfg, err := client.New(flagServer).UpdatePayrollSettings(context.Background(), u)
		if err != nil {
			return err
		}
		return printJSON(cfg)
	},
}

var settingsFinanceCmd = &cobra.Command{
	Use:   "finance <json>",
	Short: "Update finance settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u finance.ConfigUpdate
		if err := json.Unmarshal([]byte(args[0]), &u); err != nil {
			return err
		}
		cfg, err := client.New(flagServer).UpdateFinanceSettings(context.Background(), u)
		if err != nil {
			return err
		}
		return printJSON(cfg)
	},
}

var settingsModulesCmd = &cobra.Command{
	Use:   "modules <json>",
	Short: "Update module flags and integration mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u payroll.ModuleConfigUpdate
		if err := json.Unmarshal([]byte(args[0]), &u); err != nil {
			return err
		}
		cfg, err := client.New(flagServer).UpdateModuleSettings(context.Background(), u)
		if err != nil {
			return err
		}
		return printJSON(cfg)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsPayrollCmd, settingsFinanceCmd, settingsModulesCmd)
	rootCmd.AddCommand(settingsCmd)
}
