package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"auditpulse/internal/risk"
)

const csvHeader = "taxpayer_id,taxpayer_name,sector,region,annual_revenue_usd,outstanding_debt_zig,prediction_score,late_filings_last_12m,previous_audit_violations,fiscal_device_uptime_pct,vat_to_sales_ratio"

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempCSV(t, csvHeader+"\n"+
		"T1,Acme Ltd,Retail,Harare,500000,12000,85.5,3,1,92.5,0.14\n"+
		"T2,Globex,Mining,Bulawayo,900000,3000,40,0,0,99,0.18\n")

	loader := NewLoader(nil)
	records, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "T1", records[0].TaxpayerID)
	assert.Equal(t, "Acme Ltd", records[0].TaxpayerName)
	assert.Equal(t, "Retail", records[0].Sector)
	assert.Equal(t, "Harare", records[0].Region)
	assert.InDelta(t, 500_000, records[0].AnnualRevenueUSD, 1e-9)
	assert.InDelta(t, 12_000, records[0].OutstandingDebtZiG, 1e-9)
	assert.InDelta(t, 85.5, records[0].PredictionScore, 1e-9)
	assert.Equal(t, 3, records[0].LateFilingsLast12M)
	assert.Equal(t, 1, records[0].PreviousViolations)
	assert.InDelta(t, 92.5, records[0].FiscalDeviceUptimePct, 1e-9)
	assert.InDelta(t, 0.14, records[0].VATToSalesRatio, 1e-9)
	assert.Empty(t, records[0].Quadrant, "no risk_quadrant column means unlabeled")
}

func TestLoadCSVWithBOM(t *testing.T) {
	path := writeTempCSV(t, "\xEF\xBB\xBF"+csvHeader+"\n"+
		"T1,Acme,Retail,Harare,100,1,50,0,0,100,0.1\n")

	records, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "T1", records[0].TaxpayerID)
}

func TestLoadCSVHeaderCaseInsensitive(t *testing.T) {
	upper := "Taxpayer_ID,Taxpayer_Name,SECTOR,Region,Annual_Revenue_USD,Outstanding_Debt_ZiG,Prediction_Score,Late_Filings_Last_12M,Previous_Audit_Violations,Fiscal_Device_Uptime_Pct,VAT_to_Sales_Ratio"
	path := writeTempCSV(t, upper+"\n"+
		"T1,Acme,Retail,Harare,100,1,50,0,0,100,0.1\n")

	records, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadCSVThousandsSeparators(t *testing.T) {
	path := writeTempCSV(t, csvHeader+"\n"+
		`T1,Acme,Retail,Harare,"1,500,000","12,000",85,3,1,92,0.14`+"\n")

	records, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 1_500_000, records[0].AnnualRevenueUSD, 1e-9)
}

func TestLoadCSVSkipsBlankRows(t *testing.T) {
	path := writeTempCSV(t, csvHeader+"\n"+
		"T1,Acme,Retail,Harare,100,1,50,0,0,100,0.1\n"+
		",,,,,,,,,,\n"+
		"T2,Globex,Mining,Bulawayo,200,2,60,1,0,95,0.2\n")

	records, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadCSVPreLabeledQuadrant(t *testing.T) {
	path := writeTempCSV(t, csvHeader+",risk_quadrant\n"+
		"T1,Acme,Retail,Harare,100,1,85,0,0,100,0.1,HighRisk/HighImpact\n"+
		"T2,Globex,Mining,Bulawayo,200,2,60,1,0,95,0.2,NotAQuadrant\n")

	records, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, risk.QuadrantHighRiskHighImpact, records[0].Quadrant)
	assert.Empty(t, records[1].Quadrant, "unrecognized label stays unlabeled")
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{
			name:    "missing required column",
			content: "taxpayer_id,sector\nT1,Retail\n",
			reason:  "missing required columns",
		},
		{
			name:    "empty file",
			content: "",
			reason:  "source is empty",
		},
		{
			name:    "header only",
			content: csvHeader + "\n",
			reason:  "no data rows",
		},
		{
			name:    "malformed numeric cell",
			content: csvHeader + "\nT1,Acme,Retail,Harare,abc,1,50,0,0,100,0.1\n",
			reason:  "malformed row",
		},
		{
			name:    "empty taxpayer id",
			content: csvHeader + "\n,Acme,Retail,Harare,100,1,50,0,0,100,0.1\n",
			reason:  "malformed row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, tt.content)

			_, err := NewLoader(nil).Load(context.Background(), path)

			var loadErr *DataLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Contains(t, loadErr.Reason, tt.reason)
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := NewLoader(nil).Load(context.Background(), path)

	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Reason, "unsupported file format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Reason, "source unreadable")
}

func TestLoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(nil).Load(ctx, "whatever.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{
		"taxpayer_id", "taxpayer_name", "sector", "region",
		"annual_revenue_usd", "outstanding_debt_zig", "prediction_score",
		"late_filings_last_12m", "previous_audit_violations",
		"fiscal_device_uptime_pct", "vat_to_sales_ratio",
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	row := []interface{}{"T1", "Acme", "Retail", "Harare", 500000, 12000, 85.5, 3, 1, 92.5, 0.14}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))

	path := filepath.Join(t.TempDir(), "dataset.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "T1", records[0].TaxpayerID)
	assert.InDelta(t, 85.5, records[0].PredictionScore, 1e-9)
	assert.Equal(t, 3, records[0].LateFilingsLast12M)
}
