package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"auditpulse/internal/risk"
)

// auditListHeader is the column order of every export, matching the
// canonical dataset schema plus the computed quadrant.
var auditListHeader = []string{
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
	"risk_quadrant",
}

func recordRow(rec risk.TaxpayerRecord) []string {
	return []string{
		rec.TaxpayerID,
		rec.TaxpayerName,
		rec.Sector,
		rec.Region,
		formatFloat(rec.AnnualRevenueUSD),
		formatFloat(rec.OutstandingDebtZiG),
		formatFloat(rec.PredictionScore),
		strconv.Itoa(rec.LateFilingsLast12M),
		strconv.Itoa(rec.PreviousViolations),
		formatFloat(rec.FiscalDeviceUptimePct),
		formatFloat(rec.VATToSalesRatio),
		string(rec.Quadrant),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV streams the audit list to w as UTF-8 CSV with a BOM prefix so
// Excel opens it correctly.
func WriteCSV(w io.Writer, records []risk.TaxpayerRecord) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(auditListHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(recordRow(rec)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVWriter writes audit-list report files under a reports directory.
type CSVWriter struct {
	reportsDir string
	logger     *slog.Logger
}

// NewCSVWriter creates a file-based CSV writer rooted at reportsDir.
func NewCSVWriter(reportsDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		reportsDir: reportsDir,
		logger:     logger.With(slog.String("component", "csv_exporter")),
	}
}

// WriteAuditList writes the records to a CSV file named filename inside the
// reports directory, creating it if needed, and returns the full path.
func (w *CSVWriter) WriteAuditList(filename string, records []risk.TaxpayerRecord) (string, error) {
	fullPath := w.resolvePath(filename)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, records); err != nil {
		return "", err
	}

	w.logger.Info("audit list exported",
		slog.String("path", fullPath),
		slog.Int("records", len(records)))

	return fullPath, nil
}

func (w *CSVWriter) resolvePath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(w.reportsDir, filename)
}
