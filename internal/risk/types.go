package risk

// Quadrant is the derived risk classification for a taxpayer, combining the
// prediction-score cutoff with the revenue-percentile threshold.
type Quadrant string

const (
	QuadrantHighRiskHighImpact Quadrant = "HighRisk/HighImpact"
	QuadrantHighRiskLowImpact  Quadrant = "HighRisk/LowImpact"
	QuadrantLowRiskHighImpact  Quadrant = "LowRisk/HighImpact"
	QuadrantLowRiskLowImpact   Quadrant = "LowRisk/LowImpact"
)

// Quadrants lists all four values in a fixed display order.
var Quadrants = []Quadrant{
	QuadrantHighRiskHighImpact,
	QuadrantHighRiskLowImpact,
	QuadrantLowRiskHighImpact,
	QuadrantLowRiskLowImpact,
}

// IsValid reports whether q is one of the four recognized quadrant labels.
func (q Quadrant) IsValid() bool {
	switch q {
	case QuadrantHighRiskHighImpact, QuadrantHighRiskLowImpact,
		QuadrantLowRiskHighImpact, QuadrantLowRiskLowImpact:
		return true
	}
	return false
}

// TaxpayerRecord is one row of the dataset. Quadrant is empty until the
// classifier runs, unless the source carried a pre-labeled risk_quadrant
// column.
type TaxpayerRecord struct {
	TaxpayerID            string   `json:"taxpayer_id"`
	TaxpayerName          string   `json:"taxpayer_name"`
	Sector                string   `json:"sector"`
	Region                string   `json:"region"`
	AnnualRevenueUSD      float64  `json:"annual_revenue_usd"`
	OutstandingDebtZiG    float64  `json:"outstanding_debt_zig"`
	PredictionScore       float64  `json:"prediction_score"`
	LateFilingsLast12M    int      `json:"late_filings_last_12m"`
	PreviousViolations    int      `json:"previous_audit_violations"`
	FiscalDeviceUptimePct float64  `json:"fiscal_device_uptime_pct"`
	VATToSalesRatio       float64  `json:"vat_to_sales_ratio"`
	Quadrant              Quadrant `json:"risk_quadrant,omitempty"`
}

// Column identifies a record attribute usable for grouping or aggregation.
type Column string

const (
	ColumnSector   Column = "sector"
	ColumnRegion   Column = "region"
	ColumnQuadrant Column = "risk_quadrant"
	ColumnScore    Column = "prediction_score"
	ColumnRevenue  Column = "annual_revenue_usd"
	ColumnDebt     Column = "outstanding_debt_zig"
)

// Categorical returns the string value of a categorical column. The second
// return is false for numeric columns.
func (c Column) Categorical(rec TaxpayerRecord) (string, bool) {
	switch c {
	case ColumnSector:
		return rec.Sector, true
	case ColumnRegion:
		return rec.Region, true
	case ColumnQuadrant:
		return string(rec.Quadrant), true
	}
	return "", false
}

// Numeric returns the float value of a numeric column. The second return is
// false for categorical columns.
func (c Column) Numeric(rec TaxpayerRecord) (float64, bool) {
	switch c {
	case ColumnScore:
		return rec.PredictionScore, true
	case ColumnRevenue:
		return rec.AnnualRevenueUSD, true
	case ColumnDebt:
		return rec.OutstandingDebtZiG, true
	}
	return 0, false
}
