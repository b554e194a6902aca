package risk

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the interval, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Predicates is the bundle of filter criteria applied as a logical AND.
//
// Set predicates use literal membership semantics: an empty set matches no
// rows. Callers that want "no filter" must supply the full set of observed
// values (see Session.Options).
type Predicates struct {
	Sectors      []string   `json:"sectors"`
	Regions      []string   `json:"regions"`
	Quadrants    []Quadrant `json:"quadrants"`
	ScoreRange   Range      `json:"score_range"`
	RevenueRange Range      `json:"revenue_range"`
	DebtRange    Range      `json:"debt_range"`
}

// Filter returns the subset of records satisfying all six predicates,
// preserving input order. It never mutates records; an empty result is a
// valid outcome, not an error.
func Filter(records []TaxpayerRecord, p Predicates) []TaxpayerRecord {
	sectors := toSet(p.Sectors)
	regions := toSet(p.Regions)
	quadrants := make(map[Quadrant]struct{}, len(p.Quadrants))
	for _, q := range p.Quadrants {
		quadrants[q] = struct{}{}
	}

	matched := make([]TaxpayerRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := sectors[rec.Sector]; !ok {
			continue
		}
		if _, ok := regions[rec.Region]; !ok {
			continue
		}
		if _, ok := quadrants[rec.Quadrant]; !ok {
			continue
		}
		if !p.ScoreRange.Contains(rec.PredictionScore) {
			continue
		}
		if !p.RevenueRange.Contains(rec.AnnualRevenueUSD) {
			continue
		}
		if !p.DebtRange.Contains(rec.OutstandingDebtZiG) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
