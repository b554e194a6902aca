package risk

import (
	"log/slog"
	"math"
	"sort"
)

const (
	// HighRiskScoreCutoff is the prediction score at or above which a
	// taxpayer counts as high risk.
	HighRiskScoreCutoff = 70.0

	// ImpactQuantile is the revenue quantile that separates high-impact
	// taxpayers from the rest of the population.
	ImpactQuantile = 0.75
)

// Classifier derives the risk quadrant for each record from two thresholds:
// a fixed score cutoff and a revenue quantile computed over the full,
// unfiltered table.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger falls back to the default.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger.With(slog.String("component", "classifier"))}
}

// Classify returns a copy of records with the Quadrant field populated,
// together with the revenue threshold that was applied.
//
// When every record is already labeled and force is false, the input labels
// are preserved unchanged; the threshold is still computed and returned so
// callers can report it. Setting force recomputes all labels, which is the
// explicit knob for refreshing stale upstream labels.
//
// Scores outside [0,100] are classified anyway (the comparison against the
// cutoff still holds) but reported as a data-integrity warning.
func (c *Classifier) Classify(records []TaxpayerRecord, force bool) ([]TaxpayerRecord, float64) {
	threshold := RevenueThreshold(records)

	out := make([]TaxpayerRecord, len(records))
	copy(out, records)

	if !force && allLabeled(out) {
		c.logger.Debug("records already labeled, skipping classification",
			slog.Int("records", len(out)),
			slog.Float64("revenue_threshold", threshold))
		return out, threshold
	}

	for i := range out {
		if out[i].PredictionScore < 0 || out[i].PredictionScore > 100 {
			c.logger.Warn("prediction score outside expected range",
				slog.String("taxpayer_id", out[i].TaxpayerID),
				slog.Float64("score", out[i].PredictionScore))
		}
		out[i].Quadrant = quadrantFor(out[i], threshold)
	}

	c.logger.Info("classified records",
		slog.Int("records", len(out)),
		slog.Float64("revenue_threshold", threshold),
		slog.Bool("forced", force))

	return out, threshold
}

// quadrantFor labels a single record. Ties at either threshold count as high
// (inclusive comparison).
func quadrantFor(rec TaxpayerRecord, revenueThreshold float64) Quadrant {
	highRisk := rec.PredictionScore >= HighRiskScoreCutoff
	highImpact := rec.AnnualRevenueUSD >= revenueThreshold

	switch {
	case highRisk && highImpact:
		return QuadrantHighRiskHighImpact
	case highRisk:
		return QuadrantHighRiskLowImpact
	case highImpact:
		return QuadrantLowRiskHighImpact
	default:
		return QuadrantLowRiskLowImpact
	}
}

// allLabeled reports whether every record carries a recognized quadrant label.
func allLabeled(records []TaxpayerRecord) bool {
	if len(records) == 0 {
		return false
	}
	for _, rec := range records {
		if !rec.Quadrant.IsValid() {
			return false
		}
	}
	return true
}

// RevenueThreshold computes the impact threshold: the 75th percentile of
// annual revenue over all records.
func RevenueThreshold(records []TaxpayerRecord) float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		values = append(values, rec.AnnualRevenueUSD)
	}
	return Quantile(values, ImpactQuantile)
}

// Quantile returns the value at quantile q (0..1) using linear interpolation
// between closest ranks, matching the standard definition used by most
// statistics packages.
func Quantile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	index := q * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
