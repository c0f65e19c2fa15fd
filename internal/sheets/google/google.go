package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base tab name reports are written to.
const DefaultSheetName = "Report"

// Options configures the exporter.
type Options struct {
	SpreadsheetID string
	// SheetName is the base tab name; the report's year is prefixed.
	SheetName string
	// Service account credentials: inline JSON wins over the file path.
	CredentialsJSON string
	CredentialsFile string
}

// Exporter writes period reports to a Google spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, opts Options) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return newExporter(svc, spreadsheetID, opts.SheetName), nil
}

func newExporter(svc *gsheet.Service, spreadsheetID, sheetBase string) *Exporter {
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = DefaultSheetName
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}
}

func credentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		// Also check the standard Google Cloud environment variable
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportSummary replaces the report tab for the summary's year with the
// totals, category buckets and budget rows. It returns the written range.
func (e *Exporter) ExportSummary(ctx context.Context, summary core.PeriodSummary, budgets []core.BudgetWithSpending) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(e.sheetBase, summary.Period.Start.Year())

	clearRange := fmt.Sprintf("%s!A:F", sheet)
	_, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := BuildRows(summary, budgets)
	writeRange := fmt.Sprintf("%s!A1:F%d", sheet, len(rows))
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Report exported",
		applog.FieldOperation, applog.OpExport,
		"range", writeRange,
		"period", summary.Period.String(),
		"rows", len(rows))
	return writeRange, nil
}

// BuildRows lays out a report as sheet rows. Amounts are plain decimal
// strings so USER_ENTERED parses them as numbers.
func BuildRows(summary core.PeriodSummary, budgets []core.BudgetWithSpending) [][]any {
	rows := [][]any{
		{"Report", string(summary.Granularity), summary.Period.Start.String(), summary.Period.End.String()},
		{},
		{"Income", summary.Totals.Income.String()},
		{"Expenses", summary.Totals.Expenses.String()},
		{"Net", summary.Totals.Net.String()},
		{"Transactions", summary.TransactionCount},
		{},
		{"Category", "Amount", "Color", "Icon"},
	}
	for _, b := range summary.ByCategory {
		rows = append(rows, []any{b.CategoryName, b.Amount.String(), b.Color, string(b.Icon)})
	}
	if len(budgets) == 0 {
		return rows
	}
	rows = append(rows, []any{}, []any{"Budget", "Month", "Limit", "Spent", "Percentage", "Status"})
	for _, b := range budgets {
		rows = append(rows, []any{
			b.CategoryName,
			b.Month.MonthKey(),
			b.LimitAmount.String(),
			b.Spent.String(),
			b.Percentage.StringFixed(2),
			string(b.Status),
		})
	}
	return rows
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
