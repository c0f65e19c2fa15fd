package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets/google"
)

func reportCmd() *cobra.Command {
	var (
		date        string
		granularity string
		export      bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise income and expenses for a period",
		Long: `Print totals and per-category expenses for the day, week or month
containing --date. With --export the summary and that month's budgets are
written to the configured Google spreadsheet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref := core.Today()
			if date != "" {
				d, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				ref = d
			}
			g, err := core.ParseGranularity(granularity)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := cli.Bootstrap(ctx, cli.Options{Component: applog.ComponentCLI})
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := app.Reports.Summary(ctx, ref, g)
			if err != nil {
				return err
			}
			renderSummary(os.Stdout, summary)

			if !export {
				return nil
			}
			cfg := app.Config
			if !cfg.ExportEnabled() {
				return fmt.Errorf("export requested but GOOGLE_SPREADSHEET_ID is not set")
			}
			budgets, err := app.Budgets.ListBudgetsWithSpending(ctx, ref)
			if err != nil {
				return err
			}
			exp, err := google.New(ctx, google.Options{
				SpreadsheetID:   cfg.GoogleSpreadsheetID,
				SheetName:       cfg.GoogleSheetName,
				CredentialsJSON: cfg.GoogleServiceAccountJSON,
				CredentialsFile: cfg.GoogleServiceAccountFile,
			})
			if err != nil {
				return err
			}
			rng, err := exp.ExportSummary(ctx, summary, budgets)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ Exported to " + rng))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&granularity, "granularity", string(core.GranularityMonth), "day, week or month")
	cmd.Flags().BoolVar(&export, "export", false, "also write the report to Google Sheets")
	return cmd
}

var reportLabels = map[core.Granularity]string{
	core.GranularityDay:   "Daily",
	core.GranularityWeek:  "Weekly",
	core.GranularityMonth: "Monthly",
}

func renderSummary(out io.Writer, s core.PeriodSummary) {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s report %s", reportLabels[s.Granularity], s.Period)))
	fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("%d days", s.Period.Days())))

	net := successStyle
	if s.Totals.Net.Cents < 0 {
		net = errorStyle
	}
	fmt.Fprintf(out, "%s %s\n", boldStyle.Render("Income:  "), s.Totals.Income)
	fmt.Fprintf(out, "%s %s\n", boldStyle.Render("Expenses:"), s.Totals.Expenses)
	fmt.Fprintf(out, "%s %s\n", boldStyle.Render("Net:     "), net.Render(s.Totals.Net.String()))
	fmt.Fprintf(out, "%s %d\n\n", boldStyle.Render("Count:   "), s.TransactionCount)

	if len(s.ByCategory) == 0 {
		fmt.Fprintln(out, subtleStyle.Render("No expenses in this period."))
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("Category"), headerStyle.Render("Amount"))
	fmt.Fprintf(w, "%s\t%s\n", strings.Repeat("-", 20), strings.Repeat("-", 10))
	for _, b := range core.SortBucketsByAmount(s.ByCategory) {
		fmt.Fprintf(w, "%s\t%s\n", b.CategoryName, b.Amount)
	}
}
