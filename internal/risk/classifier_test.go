package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{
			name:   "interpolates between two values",
			values: []float64{50_000, 100_000},
			q:      0.75,
			want:   87_500,
		},
		{
			name:   "median of odd count",
			values: []float64{3, 1, 2},
			q:      0.5,
			want:   2,
		},
		{
			name:   "single value",
			values: []float64{42},
			q:      0.75,
			want:   42,
		},
		{
			name:   "q zero returns minimum",
			values: []float64{5, 1, 9},
			q:      0,
			want:   1,
		},
		{
			name:   "q one returns maximum",
			values: []float64{5, 1, 9},
			q:      1,
			want:   9,
		},
		{
			name:   "empty input",
			values: nil,
			q:      0.75,
			want:   0,
		},
		{
			name:   "exact rank needs no interpolation",
			values: []float64{10, 20, 30, 40, 50},
			q:      0.75,
			want:   40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.values, tt.q), 1e-9)
		})
	}
}

func TestQuantileDoesNotMutateInput(t *testing.T) {
	values := []float64{9, 1, 5}
	Quantile(values, 0.5)
	assert.Equal(t, []float64{9, 1, 5}, values)
}

func TestClassifierQuadrants(t *testing.T) {
	// Threshold over these four revenues is the 75th percentile of
	// {10k, 20k, 30k, 40k} = 37.5k.
	records := []TaxpayerRecord{
		{TaxpayerID: "T1", PredictionScore: 90, AnnualRevenueUSD: 40_000},
		{TaxpayerID: "T2", PredictionScore: 70, AnnualRevenueUSD: 10_000},
		{TaxpayerID: "T3", PredictionScore: 69.9, AnnualRevenueUSD: 30_000},
		{TaxpayerID: "T4", PredictionScore: 10, AnnualRevenueUSD: 20_000},
	}

	c := NewClassifier(nil)
	classified, threshold := c.Classify(records, false)

	require.Len(t, classified, 4)
	assert.InDelta(t, 37_500, threshold, 1e-9)

	assert.Equal(t, QuadrantHighRiskHighImpact, classified[0].Quadrant)
	assert.Equal(t, QuadrantHighRiskLowImpact, classified[1].Quadrant, "score 70 is inclusive")
	assert.Equal(t, QuadrantLowRiskLowImpact, classified[2].Quadrant)
	assert.Equal(t, QuadrantLowRiskLowImpact, classified[3].Quadrant)
}

func TestClassifierRevenueBoundaryInclusive(t *testing.T) {
	// All revenues equal, so the threshold equals every revenue and each
	// record is high impact.
	records := []TaxpayerRecord{
		{TaxpayerID: "T1", PredictionScore: 50, AnnualRevenueUSD: 1000},
		{TaxpayerID: "T2", PredictionScore: 80, AnnualRevenueUSD: 1000},
	}

	classified, threshold := NewClassifier(nil).Classify(records, false)

	assert.InDelta(t, 1000, threshold, 1e-9)
	assert.Equal(t, QuadrantLowRiskHighImpact, classified[0].Quadrant)
	assert.Equal(t, QuadrantHighRiskHighImpact, classified[1].Quadrant)
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	records := []TaxpayerRecord{
		{TaxpayerID: "T1", PredictionScore: 90, AnnualRevenueUSD: 100},
	}

	NewClassifier(nil).Classify(records, false)

	assert.Empty(t, records[0].Quadrant, "input slice must stay unlabeled")
}

func TestClassifyPreLabeledIsNoOp(t *testing.T) {
	records := []TaxpayerRecord{
		// Deliberately mislabeled relative to the thresholds.
		{TaxpayerID: "T1", PredictionScore: 90, AnnualRevenueUSD: 100, Quadrant: QuadrantLowRiskLowImpact},
		{TaxpayerID: "T2", PredictionScore: 10, AnnualRevenueUSD: 100, Quadrant: QuadrantHighRiskHighImpact},
	}

	classified, _ := NewClassifier(nil).Classify(records, false)

	assert.Equal(t, QuadrantLowRiskLowImpact, classified[0].Quadrant)
	assert.Equal(t, QuadrantHighRiskHighImpact, classified[1].Quadrant)
}

func TestClassifyForceRelabels(t *testing.T) {
	records := []TaxpayerRecord{
		{TaxpayerID: "T1", PredictionScore: 90, AnnualRevenueUSD: 100, Quadrant: QuadrantLowRiskLowImpact},
	}

	classified, _ := NewClassifier(nil).Classify(records, true)

	assert.Equal(t, QuadrantHighRiskHighImpact, classified[0].Quadrant)
}

func TestClassifyPartiallyLabeledRelabelsAll(t *testing.T) {
	records := []TaxpayerRecord{
		{TaxpayerID: "T1", PredictionScore: 90, AnnualRevenueUSD: 100, Quadrant: QuadrantLowRiskLowImpact},
		{TaxpayerID: "T2", PredictionScore: 10, AnnualRevenueUSD: 100},
	}

	classified, _ := NewClassifier(nil).Classify(records, false)

	// One unlabeled record means the whole table is reclassified.
	assert.Equal(t, QuadrantHighRiskHighImpact, classified[0].Quadrant)
	assert.Equal(t, QuadrantLowRiskHighImpact, classified[1].Quadrant)
}
