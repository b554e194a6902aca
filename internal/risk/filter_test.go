package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func filterFixture() []TaxpayerRecord {
	return []TaxpayerRecord{
		{TaxpayerID: "T1", Sector: "Retail", Region: "Harare", PredictionScore: 85, AnnualRevenueUSD: 500_000, OutstandingDebtZiG: 10_000, Quadrant: QuadrantHighRiskHighImpact},
		{TaxpayerID: "T2", Sector: "Mining", Region: "Bulawayo", PredictionScore: 40, AnnualRevenueUSD: 900_000, OutstandingDebtZiG: 5_000, Quadrant: QuadrantLowRiskHighImpact},
		{TaxpayerID: "T3", Sector: "Retail", Region: "Bulawayo", PredictionScore: 72, AnnualRevenueUSD: 50_000, OutstandingDebtZiG: 20_000, Quadrant: QuadrantHighRiskLowImpact},
	}
}

func allPredicates() Predicates {
	return Predicates{
		Sectors:      []string{"Retail", "Mining"},
		Regions:      []string{"Harare", "Bulawayo"},
		Quadrants:    Quadrants,
		ScoreRange:   Range{Min: 0, Max: 100},
		RevenueRange: Range{Min: 0, Max: 1_000_000},
		DebtRange:    Range{Min: 0, Max: 100_000},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Predicates)
		wantIDs []string
	}{
		{
			name:    "all-inclusive predicates match everything",
			mutate:  func(p *Predicates) {},
			wantIDs: []string{"T1", "T2", "T3"},
		},
		{
			name:    "empty sector set matches nothing",
			mutate:  func(p *Predicates) { p.Sectors = nil },
			wantIDs: []string{},
		},
		{
			name:    "empty quadrant set matches nothing",
			mutate:  func(p *Predicates) { p.Quadrants = []Quadrant{} },
			wantIDs: []string{},
		},
		{
			name:    "sector membership",
			mutate:  func(p *Predicates) { p.Sectors = []string{"Mining"} },
			wantIDs: []string{"T2"},
		},
		{
			name:    "region and sector conjunction",
			mutate: func(p *Predicates) {
				p.Sectors = []string{"Retail"}
				p.Regions = []string{"Bulawayo"}
			},
			wantIDs: []string{"T3"},
		},
		{
			name:    "score range bounds are inclusive",
			mutate:  func(p *Predicates) { p.ScoreRange = Range{Min: 72, Max: 85} },
			wantIDs: []string{"T1", "T3"},
		},
		{
			name:    "revenue range excludes below minimum",
			mutate:  func(p *Predicates) { p.RevenueRange = Range{Min: 400_000, Max: 1_000_000} },
			wantIDs: []string{"T1", "T2"},
		},
		{
			name:    "debt range",
			mutate:  func(p *Predicates) { p.DebtRange = Range{Min: 0, Max: 9_999} },
			wantIDs: []string{"T2"},
		},
		{
			name: "no match is a valid empty result",
			mutate: func(p *Predicates) {
				p.Sectors = []string{"Agriculture"}
			},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := allPredicates()
			tt.mutate(&p)

			got := Filter(filterFixture(), p)

			ids := make([]string, 0, len(got))
			for _, rec := range got {
				ids = append(ids, rec.TaxpayerID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFilterPreservesInputOrder(t *testing.T) {
	records := filterFixture()
	got := Filter(records, allPredicates())

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].TaxpayerID < got[i].TaxpayerID,
			"fixture ids are ascending, so output order must be too")
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	records := filterFixture()
	original := make([]TaxpayerRecord, len(records))
	copy(original, records)

	p := allPredicates()
	p.Sectors = []string{"Retail"}
	Filter(records, p)

	assert.Equal(t, original, records)
}

func TestRangeContains(t *testing.T) {
	r := Range{Min: 10, Max: 20}

	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.True(t, r.Contains(15))
	assert.False(t, r.Contains(9.999))
	assert.False(t, r.Contains(20.001))
}
