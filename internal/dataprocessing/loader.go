package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"auditpulse/internal/risk"
)

// DataLoadError reports a source that is unreadable, malformed, or missing
// required columns. It is fatal to session start and not retried.
type DataLoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Source, e.Reason)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// requiredColumns lists the dataset schema in canonical (snake_case) form.
var requiredColumns = []string{
	"taxpayer_id",
	"taxpayer_name",
	"sector",
	"region",
	"annual_revenue_usd",
	"outstanding_debt_zig",
	"prediction_score",
	"late_filings_last_12m",
	"previous_audit_violations",
	"fiscal_device_uptime_pct",
	"vat_to_sales_ratio",
}

// quadrantColumn is optional; when present, labels are preserved and the
// classifier treats the table as pre-labeled.
const quadrantColumn = "risk_quadrant"

// Loader reads taxpayer tables from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to the default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "dataset_loader"))}
}

// Load reads the source into records, dispatching on file extension.
// Supported formats: .csv and .xlsx.
func (l *Loader) Load(ctx context.Context, source string) ([]risk.TaxpayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".csv":
		return l.LoadCSV(source)
	case ".xlsx":
		return l.LoadXLSX(source)
	default:
		return nil, &DataLoadError{Source: source, Reason: "unsupported file format"}
	}
}

// LoadCSV reads a CSV dataset. A UTF-8 BOM is tolerated and stripped.
func (l *Loader) LoadCSV(source string) ([]risk.TaxpayerRecord, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, &DataLoadError{Source: source, Reason: "source unreadable", Err: err}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, &DataLoadError{Source: source, Reason: "source unreadable", Err: err}
	}
	content = stripBOM(content)

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &DataLoadError{Source: source, Reason: "malformed CSV", Err: err}
	}

	return l.parseRows(source, rows)
}

// LoadXLSX reads the first sheet of an Excel workbook.
func (l *Loader) LoadXLSX(source string) ([]risk.TaxpayerRecord, error) {
	f, err := excelize.OpenFile(source)
	if err != nil {
		return nil, &DataLoadError{Source: source, Reason: "source unreadable", Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &DataLoadError{Source: source, Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &DataLoadError{Source: source, Reason: "failed to read sheet", Err: err}
	}

	return l.parseRows(source, rows)
}

// parseRows converts header + data rows into records, validating the schema.
func (l *Loader) parseRows(source string, rows [][]string) ([]risk.TaxpayerRecord, error) {
	if len(rows) == 0 {
		return nil, &DataLoadError{Source: source, Reason: "source is empty"}
	}

	columns, missing := mapColumns(rows[0])
	if len(missing) > 0 {
		return nil, &DataLoadError{
			Source: source,
			Reason: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}

	records := make([]risk.TaxpayerRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec, err := l.parseRecord(row, columns)
		if err != nil {
			return nil, &DataLoadError{
				Source: source,
				Reason: fmt.Sprintf("malformed row %d", i+2),
				Err:    err,
			}
		}
		l.warnOutOfRange(rec)
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &DataLoadError{Source: source, Reason: "no data rows"}
	}

	l.logger.Info("dataset loaded",
		slog.String("source", source),
		slog.Int("records", len(records)))

	return records, nil
}

// mapColumns resolves header cells to canonical column names, returning the
// index map and any required columns that were not found. Header matching is
// case-insensitive and ignores surrounding whitespace.
func mapColumns(header []string) (map[string]int, []string) {
	indices := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if name == "" {
			continue
		}
		if _, taken := indices[name]; !taken {
			indices[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := indices[col]; !ok {
			missing = append(missing, col)
		}
	}
	return indices, missing
}

func (l *Loader) parseRecord(row []string, columns map[string]int) (risk.TaxpayerRecord, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rec risk.TaxpayerRecord
	var err error

	rec.TaxpayerID = cell("taxpayer_id")
	if rec.TaxpayerID == "" {
		return rec, fmt.Errorf("empty taxpayer_id")
	}
	rec.TaxpayerName = cell("taxpayer_name")
	rec.Sector = cell("sector")
	rec.Region = cell("region")

	if rec.AnnualRevenueUSD, err = parseFloat("annual_revenue_usd", cell("annual_revenue_usd")); err != nil {
		return rec, err
	}
	if rec.OutstandingDebtZiG, err = parseFloat("outstanding_debt_zig", cell("outstanding_debt_zig")); err != nil {
		return rec, err
	}
	if rec.PredictionScore, err = parseFloat("prediction_score", cell("prediction_score")); err != nil {
		return rec, err
	}
	if rec.LateFilingsLast12M, err = parseInt("late_filings_last_12m", cell("late_filings_last_12m")); err != nil {
		return rec, err
	}
	if rec.PreviousViolations, err = parseInt("previous_audit_violations", cell("previous_audit_violations")); err != nil {
		return rec, err
	}
	if rec.FiscalDeviceUptimePct, err = parseFloat("fiscal_device_uptime_pct", cell("fiscal_device_uptime_pct")); err != nil {
		return rec, err
	}
	if rec.VATToSalesRatio, err = parseFloat("vat_to_sales_ratio", cell("vat_to_sales_ratio")); err != nil {
		return rec, err
	}

	if label := cell(quadrantColumn); label != "" {
		q := risk.Quadrant(label)
		if q.IsValid() {
			rec.Quadrant = q
		} else {
			l.logger.Warn("unrecognized risk_quadrant label, leaving record unlabeled",
				slog.String("taxpayer_id", rec.TaxpayerID),
				slog.String("label", label))
		}
	}

	return rec, nil
}

// warnOutOfRange flags values that violate the documented ranges. These are
// integrity warnings, not load failures: the row stays in the table.
func (l *Loader) warnOutOfRange(rec risk.TaxpayerRecord) {
	warn := func(field string, value float64) {
		l.logger.Warn("value outside expected range",
			slog.String("taxpayer_id", rec.TaxpayerID),
			slog.String("field", field),
			slog.Float64("value", value))
	}

	if rec.PredictionScore < 0 || rec.PredictionScore > 100 {
		warn("prediction_score", rec.PredictionScore)
	}
	if rec.FiscalDeviceUptimePct < 0 || rec.FiscalDeviceUptimePct > 100 {
		warn("fiscal_device_uptime_pct", rec.FiscalDeviceUptimePct)
	}
	if rec.AnnualRevenueUSD < 0 {
		warn("annual_revenue_usd", rec.AnnualRevenueUSD)
	}
	if rec.OutstandingDebtZiG < 0 {
		warn("outstanding_debt_zig", rec.OutstandingDebtZiG)
	}
	if rec.LateFilingsLast12M < 0 {
		warn("late_filings_last_12m", float64(rec.LateFilingsLast12M))
	}
	if rec.PreviousViolations < 0 {
		warn("previous_audit_violations", float64(rec.PreviousViolations))
	}
}

func parseFloat(field, value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty %s", field)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return v, nil
}

func parseInt(field, value string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("empty %s", field)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return v, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func stripBOM(content []byte) []byte {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:]
	}
	return content
}
