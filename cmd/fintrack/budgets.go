package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly category budgets",
	}
	cmd.AddCommand(listBudgetsCmd(false))
	cmd.AddCommand(listBudgetsCmd(true))
	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(deleteBudgetCmd())
	return cmd
}

// monthFlag parses --month, defaulting to the current month.
func monthFlag(raw string) (core.Date, error) {
	if raw == "" {
		return core.Today().MonthStart(), nil
	}
	return core.ParseMonth(raw)
}

func listBudgetsCmd(alertsOnly bool) *cobra.Command {
	var month string
	use, short := "list", "Show budgets with spending for a month"
	if alertsOnly {
		use, short = "alerts", "Show budgets at or above 80% of their limit"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := cli.Bootstrap(ctx, cli.Options{Component: applog.ComponentCLI})
			if err != nil {
				return err
			}
			defer app.Close()

			var budgets []core.BudgetWithSpending
			if alertsOnly {
				budgets, err = app.Budgets.ComputeAlerts(ctx, m)
			} else {
				budgets, err = app.Budgets.ListBudgetsWithSpending(ctx, m)
			}
			if err != nil {
				return err
			}
			renderBudgets(os.Stdout, m, budgets)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default current month)")
	return cmd
}

func setBudgetCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "set <category-id> <limit>",
		Short: "Create or replace a category's monthly limit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q", args[0])
			}
			limit, err := core.ParseMoney(args[1])
			if err != nil {
				return err
			}
			m, err := monthFlag(month)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := cli.Bootstrap(ctx, cli.Options{Component: applog.ComponentCLI})
			if err != nil {
				return err
			}
			defer app.Close()
			warnEphemeral(app.Config.DataBackend)

			b, err := app.Budgets.SetBudget(ctx, categoryID, limit, m)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Budget %d: %s for category %d in %s",
				b.ID, b.LimitAmount, b.CategoryID, b.Month.MonthKey())))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default current month)")
	return cmd
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid budget id %q", args[0])
			}
			ctx := cmd.Context()
			app, err := cli.Bootstrap(ctx, cli.Options{Component: applog.ComponentCLI})
			if err != nil {
				return err
			}
			defer app.Close()
			warnEphemeral(app.Config.DataBackend)

			if err := app.Budgets.DeleteBudget(ctx, id); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Budget %d deleted", id)))
			return nil
		},
	}
}

func renderBudgets(out io.Writer, month core.Date, budgets []core.BudgetWithSpending) {
	fmt.Fprintln(out, titleStyle.Render("Budgets "+month.MonthKey()))
	if len(budgets) == 0 {
		fmt.Fprintln(out, subtleStyle.Render("No budgets for this month."))
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Category"),
		headerStyle.Render("Limit"),
		headerStyle.Render("Spent"),
		headerStyle.Render("%"),
		headerStyle.Render("Status"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 4), strings.Repeat("-", 16), strings.Repeat("-", 10),
		strings.Repeat("-", 10), strings.Repeat("-", 6), strings.Repeat("-", 8))
	for _, b := range budgets {
		status := string(b.Status)
		if b.Status == core.StatusOver {
			status += " by " + b.OverAmount.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.CategoryName, b.LimitAmount, b.Spent,
			b.Percentage.StringFixed(1), statusStyle(b.Status).Render(status))
	}
}

// warnEphemeral notes that writes to the memory backend vanish on exit.
func warnEphemeral(backend string) {
	if backend == config.BackendMemory {
		fmt.Fprintln(os.Stderr, warningStyle.Render("! memory backend: changes are not persisted"))
	}
}
