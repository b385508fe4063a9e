package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage employees, categories and absences",
}

// employee create
var (
	empCreateName     string
	empCreateSalary   string
	empCreateCategory int64
	empCreateManual   string
)

var employeeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an employee",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		salary, err := payroll.ParseMoney(empCreateSalary)
		if err != nil {
			return err
		}
		emp := &payroll.Employee{Name: empCreateName, BaseSalary: salary, Active: true}
		if empCreateCategory != 0 {
			emp.CategoryID = &empCreateCategory
		}
		if cmd.Flags().Changed("manual-subsidy") {
			v, err := payroll.ParseMoney(empCreateManual)
			if err != nil {
				return err
			}
			emp.ManualSubsidy = &v
		}

		created, err := c.CreateEmployee(context.Background(), emp)
		if err != nil {
			return err
		}
		fmt.Printf("Employee created: %d %s, base %s\n", created.ID, created.Name, payroll.FormatMoney(created.BaseSalary))
		return nil
	},
}

// employee list
var empListAll bool

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		employees, err := c.ListEmployees(context.Background(), !empListAll)
		if err != nil {
			return err
		}
		if len(employees) == 0 {
			fmt.Println("No employees found.")
			return nil
		}

		fmt.Printf("%-6s %-30s %8s %16s %16s %s\n", "ID", "NAME", "CATEGORY", "BASE", "MANUAL SUBSIDY", "ACTIVE")
		fmt.Printf("%-6s %-30s %8s %16s %16s %s\n", "--", "----", "--------", "----", "--------------", "------")
		for _, e := range employees {
			name := e.Name
			if len(name) > 28 {
				name = name[:28] + ".."
			}
			category, manual := "-", "-"
			if e.CategoryID != nil {
				category = strconv.FormatInt(*e.CategoryID, 10)
			}
			if e.ManualSubsidy != nil {
				manual = payroll.FormatMoney(*e.ManualSubsidy)
			}
			fmt.Printf("%-6d %-30s %8s %16s %16s %t\n", e.ID, name, category, payroll.FormatMoney(e.BaseSalary), manual, e.Active)
		}
		return nil
	},
}

// employee update
var (
	empUpdateName        string
	empUpdateSalary      string
	empUpdateCategory    int64
	empUpdateManual      string
	empUpdateClearManual bool
	empUpdateActive      bool
)

var employeeUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid employee id: %s", args[0])
		}

		var u payroll.EmployeeUpdate
		if cmd.Flags().Changed("name") {
			u.Name = &empUpdateName
		}
		if cmd.Flags().Changed("salary") {
			v, err := payroll.ParseMoney(empUpdateSalary)
			if err != nil {
				return err
			}
			u.BaseSalary = &v
		}
		if cmd.Flags().Changed("category") {
			if empUpdateCategory == 0 {
				u.ClearCategory = true
			} else {
				u.CategoryID = &empUpdateCategory
			}
		}
		if cmd.Flags().Changed("manual-subsidy") {
			v, err := payroll.ParseMoney(empUpdateManual)
			if err != nil {
				return err
			}
			u.ManualSubsidy = &v
		}
		u.ClearManualSubsidy = empUpdateClearManual
		if cmd.Flags().Changed("active") {
			u.Active = &empUpdateActive
		}

		emp, err := c.UpdateEmployee(context.Background(), id, u)
		if err != nil {
			return err
		}
		fmt.Printf("Employee %d updated: %s, base %s, active %t\n", emp.ID, emp.Name, payroll.FormatMoney(emp.BaseSalary), emp.Active)
		return nil
	},
}

// employee category
var employeeCategoryCmd = &cobra.Command{
	Use:   "category <name> [description]",
	Short: "Create an employee category, or list them with no arguments",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		ctx := context.Background()

		if len(args) == 0 {
			cats, err := c.ListCategories(ctx)
			if err != nil {
				return err
			}
			for _, cat := range cats {
				fmt.Printf("%-6d %-24s %s\n", cat.ID, cat.Name, cat.Description)
			}
			return nil
		}

		desc := ""
		if len(args) == 2 {
			desc = args[1]
		}
		cat, err := c.CreateCategory(ctx, args[0], desc)
		if err != nil {
			return err
		}
		fmt.Printf("Category created: %d %s\n", cat.ID, cat.Name)
		return nil
	},
}

// employee absence
var (
	absMonth     int
	absYear      int
	absDays      int
	absJustified bool
	absWorking   int
	absDiscount  string
	absNotes     string
)

var employeeAbsenceCmd = &cobra.Command{
	Use:   "absence <id>",
	Short: "Record absences for a month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid employee id: %s", args[0])
		}
		p, err := period(absMonth, absYear)
		if err != nil {
			return err
		}

		a := &payroll.Absence{
			EmployeeID:  id,
			Month:       p.Month,
			Year:        p.Year,
			DaysAbsent:  absDays,
			Kind:        payroll.AbsenceUnjustified,
			WorkingDays: absWorking,
			Notes:       absNotes,
		}
		if absJustified {
			a.Kind = payroll.AbsenceJustified
		}
		if cmd.Flags().Changed("discount") {
			v, err := payroll.ParseMoney(absDiscount)
			if err != nil {
				return err
			}
			a.ManualDiscount = &v
		}

		saved, err := c.SetAbsence(context.Background(), a)
		if err != nil {
			return err
		}
		fmt.Printf("Absence recorded for employee %d in %02d/%d: %d days (%s)\n", saved.EmployeeID, saved.Month, saved.Year, saved.DaysAbsent, saved.Kind)
		return nil
	},
}

func init() {
	employeeCreateCmd.Flags().StringVar(&empCreateName, "name", "", "Employee name")
	employeeCreateCmd.Flags().StringVar(&empCreateSalary, "salary", "", "Monthly base salary")
	employeeCreateCmd.Flags().Int64Var(&empCreateCategory, "category", 0, "Category ID")
	employeeCreateCmd.Flags().StringVar(&empCreateManual, "manual-subsidy", "", "Fixed monthly subsidy replacing automatic ones (0 = none)")
	employeeCreateCmd.MarkFlagRequired("name")
	employeeCreateCmd.MarkFlagRequired("salary")

	employeeListCmd.Flags().BoolVar(&empListAll, "all", false, "Include inactive employees")

	employeeUpdateCmd.Flags().StringVar(&empUpdateName, "name", "", "New name")
	employeeUpdateCmd.Flags().StringVar(&empUpdateSalary, "salary", "", "New base salary")
	employeeUpdateCmd.Flags().Int64Var(&empUpdateCategory, "category", 0, "New category ID (0 clears)")
	employeeUpdateCmd.Flags().StringVar(&empUpdateManual, "manual-subsidy", "", "Manual subsidy amount")
	employeeUpdateCmd.Flags().BoolVar(&empUpdateClearManual, "clear-manual-subsidy", false, "Return to automatic subsidies")
	employeeUpdateCmd.Flags().BoolVar(&empUpdateActive, "active", true, "Active flag")

	periodFlags(employeeAbsenceCmd, &absMonth, &absYear)
	employeeAbsenceCmd.Flags().IntVar(&absDays, "days", 0, "Days absent")
	employeeAbsenceCmd.Flags().BoolVar(&absJustified, "justified", false, "Absence is justified (no discount)")
	employeeAbsenceCmd.Flags().IntVar(&absWorking, "working-days", 0, "Working days in the month (default from settings)")
	employeeAbsenceCmd.Flags().StringVar(&absDiscount, "discount", "", "Manual discount overriding the computed one")
	employeeAbsenceCmd.Flags().StringVar(&absNotes, "notes", "", "Notes")

	employeeCmd.AddCommand(employeeCreateCmd, employeeListCmd, employeeUpdateCmd, employeeCategoryCmd, employeeAbsenceCmd)
	rootCmd.AddCommand(employeeCmd)
}
