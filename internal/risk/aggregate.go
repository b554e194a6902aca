package risk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// AlertScoreThreshold is the mean prediction score above which the current
// selection is flagged as a critically high risk profile.
const AlertScoreThreshold = 75.0

// Summary holds the headline metrics for a (filtered) set of records. All
// fields are zero for an empty set.
type Summary struct {
	Count        int     `json:"count"`
	AvgScore     float64 `json:"avg_score"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalDebt    float64 `json:"total_debt"`
}

// HighRiskAlert reports whether the selection's average score crosses the
// alert threshold. Always false for an empty selection.
func (s Summary) HighRiskAlert() bool {
	return s.Count > 0 && s.AvgScore > AlertScoreThreshold
}

// Summarize computes the summary metrics for records.
func Summarize(records []TaxpayerRecord) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	scores := make([]float64, len(records))
	revenues := make([]float64, len(records))
	debts := make([]float64, len(records))
	for i, rec := range records {
		scores[i] = rec.PredictionScore
		revenues[i] = rec.AnnualRevenueUSD
		debts[i] = rec.OutstandingDebtZiG
	}

	return Summary{
		Count:        len(records),
		AvgScore:     meanOf(scores),
		TotalRevenue: sumOf(revenues),
		TotalDebt:    sumOf(debts),
	}
}

// GroupMean is the mean of a numeric column over one combination of grouping
// values.
type GroupMean struct {
	Key   []string `json:"key"`
	Mean  float64  `json:"mean"`
	Count int      `json:"count"`
}

// GroupMeans groups records by the given categorical columns and computes the
// mean of valueCol per group. Only combinations present in the data appear in
// the result, ordered lexicographically by key for deterministic output.
func GroupMeans(records []TaxpayerRecord, groupCols []Column, valueCol Column) ([]GroupMean, error) {
	if len(groupCols) == 0 {
		return nil, fmt.Errorf("group means: no grouping columns given")
	}

	type bucket struct {
		key    []string
		values []float64
	}
	buckets := make(map[string]*bucket)

	for _, rec := range records {
		key := make([]string, len(groupCols))
		for i, col := range groupCols {
			v, ok := col.Categorical(rec)
			if !ok {
				return nil, fmt.Errorf("group means: column %q is not categorical", col)
			}
			key[i] = v
		}
		value, ok := valueCol.Numeric(rec)
		if !ok {
			return nil, fmt.Errorf("group means: column %q is not numeric", valueCol)
		}

		joined := strings.Join(key, "\x00")
		b, exists := buckets[joined]
		if !exists {
			b = &bucket{key: key}
			buckets[joined] = b
		}
		b.values = append(b.values, value)
	}

	result := make([]GroupMean, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, GroupMean{
			Key:   b.key,
			Mean:  meanOf(b.values),
			Count: len(b.values),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return lessKey(result[i].Key, result[j].Key)
	})
	return result, nil
}

// TreeNode is one node of a hierarchy-weights tree. Weight is the sum of the
// value column over contributing rows; Color is the mean of the color column
// over the same rows, intended for downstream chart coloring.
type TreeNode struct {
	Name     string      `json:"name"`
	Weight   float64     `json:"weight"`
	Color    float64     `json:"color"`
	Children []*TreeNode `json:"children,omitempty"`
}

// HierarchyWeights builds a rooted tree whose levels follow pathCols in
// order. An empty record set yields a bare root with zero weight.
func HierarchyWeights(records []TaxpayerRecord, rootName string, pathCols []Column, valueCol, colorCol Column) (*TreeNode, error) {
	if len(pathCols) == 0 {
		return nil, fmt.Errorf("hierarchy weights: no path columns given")
	}
	for _, col := range pathCols {
		if _, ok := col.Categorical(TaxpayerRecord{}); !ok {
			return nil, fmt.Errorf("hierarchy weights: column %q is not categorical", col)
		}
	}
	if _, ok := valueCol.Numeric(TaxpayerRecord{}); !ok {
		return nil, fmt.Errorf("hierarchy weights: column %q is not numeric", valueCol)
	}
	if _, ok := colorCol.Numeric(TaxpayerRecord{}); !ok {
		return nil, fmt.Errorf("hierarchy weights: column %q is not numeric", colorCol)
	}

	type accum struct {
		node   *TreeNode
		colors []float64
		kids   map[string]*accum
	}
	newAccum := func(name string) *accum {
		return &accum{node: &TreeNode{Name: name}, kids: make(map[string]*accum)}
	}
	root := newAccum(rootName)

	for _, rec := range records {
		value, _ := valueCol.Numeric(rec)
		color, _ := colorCol.Numeric(rec)

		cursor := root
		cursor.node.Weight += value
		cursor.colors = append(cursor.colors, color)

		for _, col := range pathCols {
			label, _ := col.Categorical(rec)
			child, ok := cursor.kids[label]
			if !ok {
				child = newAccum(label)
				cursor.kids[label] = child
				cursor.node.Children = append(cursor.node.Children, child.node)
			}
			child.node.Weight += value
			child.colors = append(child.colors, color)
			cursor = child
		}
	}

	// Resolve colors and order children by name, depth first.
	var finalize func(a *accum)
	finalize = func(a *accum) {
		a.node.Color = meanOf(a.colors)
		sort.Slice(a.node.Children, func(i, j int) bool {
			return a.node.Children[i].Name < a.node.Children[j].Name
		})
		for _, kid := range a.kids {
			finalize(kid)
		}
	}
	finalize(root)

	return root.node, nil
}

// RiskFactor is one labeled value of the dossier's risk-driver breakdown.
type RiskFactor struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// RiskFactors projects a record into the fixed four-item risk-driver view.
// Uptime is inverted into downtime so every factor reads as "higher is
// riskier"; the VAT ratio is scaled to a percentage for readability.
func RiskFactors(rec TaxpayerRecord) []RiskFactor {
	return []RiskFactor{
		{Label: "Late Filings", Value: float64(rec.LateFilingsLast12M)},
		{Label: "Previous Violations", Value: float64(rec.PreviousViolations)},
		{Label: "Device Downtime (%)", Value: 100 - rec.FiscalDeviceUptimePct},
		{Label: "VAT to Sales Ratio", Value: rec.VATToSalesRatio * 100},
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

func sumOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s, err := stats.Sum(values)
	if err != nil {
		return 0
	}
	return s
}

func lessKey(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
