package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

var subsidyCmd = &cobra.Command{
	Use:   "subsidy",
	Short: "Manage subsidies and assignments",
}

// subsidy create
var (
	subName        string
	subKind        string
	subTarget      string
	subCategory    int64
	subValue       string
	subPercent     string
	subCeiling     string
	subMonths      string
	subInstall     int
	subNoSS        bool
	subNoIncomeTax bool
)

var subsidyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a subsidy definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		sub := &payroll.Subsidy{
			Name:                       subName,
			Kind:                       payroll.CalculationKind(subKind),
			Target:                     payroll.TargetKind(subTarget),
			Installments:               subInstall,
			CountsTowardSocialSecurity: !subNoSS,
			CountsTowardIncomeTax:      !subNoIncomeTax,
			Active:                     true,
		}
		if subCategory != 0 {
			sub.CategoryID = &subCategory
		}
		var err error
		if sub.Value, err = optionalMoney(subValue); err != nil {
			return err
		}
		if sub.ExemptionCeiling, err = optionalMoney(subCeiling); err != nil {
			return err
		}
		if subPercent != "" {
			if sub.Percentage, err = decimal.NewFromString(subPercent); err != nil {
				return fmt.Errorf("invalid percentage: %s", subPercent)
			}
		}
		if sub.PaymentMonths, err = parseMonthList(subMonths); err != nil {
			return err
		}

		created, err := c.CreateSubsidy(context.Background(), sub)
		if err != nil {
			return err
		}
		fmt.Printf("Subsidy created: %d %s (%s, %s)\n", created.ID, created.Name, created.Kind, created.Target)
		return nil
	},
}

var subsidyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subsidy definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		subs, err := c.ListSubsidies(context.Background())
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Println("No subsidies found.")
			return nil
		}

		fmt.Printf("%-4s %-24s %-10s %-10s %14s %14s %-8s %s\n", "ID", "NAME", "KIND", "TARGET", "VALUE", "EXEMPT UP TO", "MONTHS", "ACTIVE")
		for _, s := range subs {
			value := payroll.FormatMoney(s.Value)
			if s.Kind == payroll.KindPercentage {
				value = s.Percentage.String() + "%"
			}
			months := "all"
			if len(s.PaymentMonths) > 0 {
				parts := make([]string, len(s.PaymentMonths))
				for i, m := range s.PaymentMonths {
					parts[i] = strconv.Itoa(m)
				}
				months = strings.Join(parts, ",")
			}
			fmt.Printf("%-4d %-24s %-10s %-10s %14s %14s %-8s %t\n",
				s.ID, s.Name, s.Kind, s.Target, value, payroll.FormatMoney(s.ExemptionCeiling), months, s.Active)
		}
		return nil
	},
}

// subsidy update
var (
	subUpdValue  string
	subUpdActive bool
)

var subsidyUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a subsidy's value or active flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var u payroll.SubsidyUpdate
		if cmd.Flags().Changed("value") {
			v, err := payroll.ParseMoney(subUpdValue)
			if err != nil {
				return err
			}
			u.Value = &v
		}
		if cmd.Flags().Changed("active") {
			u.Active = &subUpdActive
		}
		sub, err := c.UpdateSubsidy(context.Background(), id, u)
		if err != nil {
			return err
		}
		fmt.Printf("Subsidy %d updated: value %s, active %t\n", sub.ID, payroll.FormatMoney(sub.Value), sub.Active)
		return nil
	},
}

var subsidyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a subsidy definition and its assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := client.New(flagServer).DeleteSubsidy(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("Subsidy %d deleted.\n", id)
		return nil
	},
}

var subOverride string

var subsidyAssignCmd = &cobra.Command{
	Use:   "assign <employee-id> <subsidy-id>",
	Short: "Assign a subsidy to one employee",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		employeeID, err := parseID(args[0])
		if err != nil {
			return err
		}
		subsidyID, err := parseID(args[1])
		if err != nil {
			return err
		}
		override, err := overrideFlag(cmd)
		if err != nil {
			return err
		}
		if _, err := client.New(flagServer).Assign(context.Background(), employeeID, subsidyID, override); err != nil {
			return err
		}
		fmt.Printf("Subsidy %d assigned to employee %d.\n", subsidyID, employeeID)
		return nil
	},
}

var subsidyUnassignCmd = &cobra.Command{
	Use:   "unassign <employee-id> <subsidy-id>",
	Short: "Remove a subsidy from one employee",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		employeeID, err := parseID(args[0])
		if err != nil {
			return err
		}
		subsidyID, err := parseID(args[1])
		if err != nil {
			return err
		}
		return client.New(flagServer).Unassign(context.Background(), employeeID, subsidyID)
	},
}

var subsidyAssignCategoryCmd = &cobra.Command{
	Use:   "assign-category <subsidy-id> <category-id>",
	Short: "Assign a subsidy to every active employee in a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subsidyID, err := parseID(args[0])
		if err != nil {
			return err
		}
		categoryID, err := parseID(args[1])
		if err != nil {
			return err
		}
		override, err := overrideFlag(cmd)
		if err != nil {
			return err
		}
		res, err := client.New(flagServer).AssignToCategory(context.Background(), subsidyID, categoryID, override)
		if err != nil {
			return err
		}
		fmt.Printf("Subsidy %d assigned to %d employees.\n", res.SubsidyID, res.Assigned)
		return nil
	},
}

func overrideFlag(cmd *cobra.Command) (*decimal.Decimal, error) {
	if !cmd.Flags().Changed("override") {
		return nil, nil
	}
	v, err := payroll.ParseMoney(subOverride)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return payroll.ParseMoney(s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}

// parseMonthList reads "6,12" into month numbers.
func parseMonthList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var months []int
	for _, part := range strings.Split(s, ",") {
		m, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || m < 1 || m > 12 {
			return nil, fmt.Errorf("invalid month: %s", part)
		}
		months = append(months, m)
	}
	return months, nil
}

func init() {
	f := subsidyCreateCmd.Flags()
	f.StringVar(&subName, "name", "", "Subsidy name")
	f.StringVar(&subKind, "kind", string(payroll.KindFixed), "fixed or percentage")
	f.StringVar(&subTarget, "target", string(payroll.TargetEveryone), "everyone, category or individual")
	f.Int64Var(&subCategory, "category", 0, "Category ID for category targets")
	f.StringVar(&subValue, "value", "", "Fixed monthly value")
	f.StringVar(&subPercent, "percent", "", "Percentage of base salary")
	f.StringVar(&subCeiling, "exempt-up-to", "", "Exemption ceiling")
	f.StringVar(&subMonths, "months", "", "Payment months, e.g. 6,12 (default: every month)")
	f.IntVar(&subInstall, "installments", 1, "Number of installments")
	f.BoolVar(&subNoSS, "no-ss", false, "Exclude from the social security base")
	f.BoolVar(&subNoIncomeTax, "no-irt", false, "Exclude from taxable income")
	subsidyCreateCmd.MarkFlagRequired("name")

	subsidyUpdateCmd.Flags().StringVar(&subUpdValue, "value", "", "New fixed value")
	subsidyUpdateCmd.Flags().BoolVar(&subUpdActive, "active", true, "Active flag")

	subsidyAssignCmd.Flags().StringVar(&subOverride, "override", "", "Amount replacing the computed value")
	subsidyAssignCategoryCmd.Flags().StringVar(&subOverride, "override", "", "Amount replacing the computed value")

	subsidyCmd.AddCommand(subsidyCreateCmd, subsidyListCmd, subsidyUpdateCmd, subsidyDeleteCmd,
		subsidyAssignCmd, subsidyUnassignCmd, subsidyAssignCategoryCmd)
	rootCmd.AddCommand(subsidyCmd)
}
