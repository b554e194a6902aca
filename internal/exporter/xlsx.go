package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"auditpulse/internal/risk"
)

const auditListSheet = "Audit List"

// WriteXLSX streams the audit list to w as an Excel workbook with a single
// sheet. Numeric fields are written as numbers, not strings.
func WriteXLSX(w io.Writer, records []risk.TaxpayerRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(auditListSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]interface{}, len(auditListHeader))
	for i, col := range auditListHeader {
		header[i] = col
	}
	if err := f.SetSheetRow(auditListSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		row := []interface{}{
			rec.TaxpayerID,
			rec.TaxpayerName,
			rec.Sector,
			rec.Region,
			rec.AnnualRevenueUSD,
			rec.OutstandingDebtZiG,
			rec.PredictionScore,
			rec.LateFilingsLast12M,
			rec.PreviousViolations,
			rec.FiscalDeviceUptimePct,
			rec.VATToSalesRatio,
			string(rec.Quadrant),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve cell for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(auditListSheet, cell, &row); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// XLSXWriter writes audit-list workbooks under a reports directory.
type XLSXWriter struct {
	reportsDir string
	logger     *slog.Logger
}

// NewXLSXWriter creates a file-based XLSX writer rooted at reportsDir.
func NewXLSXWriter(reportsDir string, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{
		reportsDir: reportsDir,
		logger:     logger.With(slog.String("component", "xlsx_exporter")),
	}
}

// WriteAuditList writes the records to an XLSX file named filename inside
// the reports directory and returns the full path.
func (w *XLSXWriter) WriteAuditList(filename string, records []risk.TaxpayerRecord) (string, error) {
	fullPath := filename
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(w.reportsDir, filename)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	if err := WriteXLSX(file, records); err != nil {
		return "", err
	}

	w.logger.Info("audit list exported",
		slog.String("path", fullPath),
		slog.Int("records", len(records)))

	return fullPath, nil
}
