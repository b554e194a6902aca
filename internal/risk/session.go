package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// LoaderFunc reads a tabular source into records. Implementations live
// outside this package (see internal/dataprocessing); the pipeline itself
// performs no I/O.
type LoaderFunc func(ctx context.Context, source string) ([]TaxpayerRecord, error)

// Session is the immutable, classified view of one data source for the life
// of an analyst session. All fields are populated once at build time and
// never mutated, so a Session is safe for concurrent readers.
type Session struct {
	ID               string
	Source           string
	RevenueThreshold float64
	LoadedAt         time.Time

	records []TaxpayerRecord
	index   map[string]int
}

// Records returns the classified base table. Callers must treat the slice as
// read-only; Filter already copies matching rows into a fresh slice.
func (s *Session) Records() []TaxpayerRecord {
	return s.records
}

// Resolve looks up a single taxpayer by raw id.
func (s *Session) Resolve(id string) (TaxpayerRecord, error) {
	return Resolve(s.records, s.index, id)
}

// FilterOptions describes the observed value space of the base table: the
// distinct categorical values and the min/max of each numeric filter column.
// Feeding it back into Predicates yields the identity filter.
type FilterOptions struct {
	Sectors      []string   `json:"sectors"`
	Regions      []string   `json:"regions"`
	Quadrants    []Quadrant `json:"quadrants"`
	ScoreRange   Range      `json:"score_range"`
	RevenueRange Range      `json:"revenue_range"`
	DebtRange    Range      `json:"debt_range"`
}

// UniversalPredicates converts the options into the all-inclusive predicate
// configuration.
func (o FilterOptions) UniversalPredicates() Predicates {
	return Predicates{
		Sectors:      o.Sectors,
		Regions:      o.Regions,
		Quadrants:    o.Quadrants,
		ScoreRange:   o.ScoreRange,
		RevenueRange: o.RevenueRange,
		DebtRange:    o.DebtRange,
	}
}

// Options computes the observed value space of the session's base table.
func (s *Session) Options() FilterOptions {
	sectors := make(map[string]struct{})
	regions := make(map[string]struct{})
	quadrants := make(map[Quadrant]struct{})

	opts := FilterOptions{
		// Score is a bounded scale; expose the full control range.
		ScoreRange: Range{Min: 0, Max: 100},
	}

	for i, rec := range s.records {
		sectors[rec.Sector] = struct{}{}
		regions[rec.Region] = struct{}{}
		quadrants[rec.Quadrant] = struct{}{}

		if i == 0 {
			opts.RevenueRange = Range{Min: rec.AnnualRevenueUSD, Max: rec.AnnualRevenueUSD}
			opts.DebtRange = Range{Min: rec.OutstandingDebtZiG, Max: rec.OutstandingDebtZiG}
			continue
		}
		opts.RevenueRange = widen(opts.RevenueRange, rec.AnnualRevenueUSD)
		opts.DebtRange = widen(opts.DebtRange, rec.OutstandingDebtZiG)
	}

	opts.Sectors = sortedKeys(sectors)
	opts.Regions = sortedKeys(regions)
	for _, q := range Quadrants {
		if _, ok := quadrants[q]; ok {
			opts.Quadrants = append(opts.Quadrants, q)
		}
	}
	return opts
}

func widen(r Range, v float64) Range {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store caches one Session per data source for the lifetime of the process.
// It replaces ad-hoc global memoization with an explicit, injectable handle:
// loads are deduplicated with singleflight so concurrent first requests for
// the same source trigger a single read, and invalidation happens only at
// session boundaries via Invalidate.
type Store struct {
	loader     LoaderFunc
	classifier *Classifier
	logger     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	group    singleflight.Group
}

// NewStore creates a session store around the given loader.
func NewStore(loader LoaderFunc, classifier *Classifier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		loader:     loader,
		classifier: classifier,
		logger:     logger.With(slog.String("component", "session_store")),
		sessions:   make(map[string]*Session),
	}
}

// Get returns the cached session for source, building it on first use.
func (st *Store) Get(ctx context.Context, source string) (*Session, error) {
	st.mu.RLock()
	if s, ok := st.sessions[source]; ok {
		st.mu.RUnlock()
		return s, nil
	}
	st.mu.RUnlock()

	v, err, _ := st.group.Do(source, func() (interface{}, error) {
		// Re-check under the group: another caller may have built it.
		st.mu.RLock()
		if s, ok := st.sessions[source]; ok {
			st.mu.RUnlock()
			return s, nil
		}
		st.mu.RUnlock()

		s, err := st.build(ctx, source)
		if err != nil {
			return nil, err
		}

		st.mu.Lock()
		st.sessions[source] = s
		st.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Invalidate drops the cached session for source. The next Get rebuilds it.
func (st *Store) Invalidate(source string) {
	st.mu.Lock()
	delete(st.sessions, source)
	st.mu.Unlock()
	st.logger.Info("session invalidated", slog.String("source", source))
}

func (st *Store) build(ctx context.Context, source string) (*Session, error) {
	start := time.Now()

	records, err := st.loader(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load dataset %q: %w", source, err)
	}

	classified, threshold := st.classifier.Classify(records, false)
	index := BuildIndex(classified, st.logger)

	s := &Session{
		ID:               uuid.New().String(),
		Source:           source,
		RevenueThreshold: threshold,
		LoadedAt:         time.Now(),
		records:          classified,
		index:            index,
	}

	st.logger.Info("session built",
		slog.String("session_id", s.ID),
		slog.String("source", source),
		slog.Int("records", len(classified)),
		slog.Float64("revenue_threshold", threshold),
		slog.Duration("elapsed", time.Since(start)))

	return s, nil
}
