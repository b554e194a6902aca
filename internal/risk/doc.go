// Package risk implements the audit-prioritization pipeline that powers the
// AuditPulse dashboard.
//
// The pipeline is a one-way data flow over an immutable in-memory table of
// taxpayer records:
//
//	Loader -> Classifier (one-time enrichment) -> Filter (per interaction)
//	       -> Aggregation / Resolver (per view)
//
// # Components
//
//   - types.go: TaxpayerRecord, Quadrant, column accessors
//   - classifier.go: risk-quadrant classification from a score cutoff and a
//     revenue-percentile threshold computed over the full population
//   - filter.go: conjunction of set and range predicates
//   - aggregate.go: summaries, grouped means, hierarchy weights, risk factors
//   - resolve.go: single-taxpayer lookup with a duplicate-id integrity check
//   - session.go: session-scoped cache of the loaded and classified table
//
// # Invariants
//
// The revenue-impact threshold is a property of the entire unfiltered dataset
// (its 75th percentile) and is fixed for the life of a session. Filtering
// produces derived views and never mutates the base table, so every function
// in this package is safe for concurrent readers without locking. The only
// synchronized structure is the session Store, which deduplicates concurrent
// loads of the same source.
//
// All aggregation functions treat an empty input as a valid state and return
// zero values or empty structures rather than errors.
package risk
