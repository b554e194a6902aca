// Package dataprocessing reads taxpayer datasets from CSV and Excel sources
// into the in-memory table consumed by the risk pipeline.
//
// Parsing is deliberately forgiving about presentation (UTF-8 BOM, header
// spelling variants, blank trailing rows) and strict about substance: a
// missing required column, an unparsable numeric cell, or an empty table is a
// DataLoadError, fatal to session start. Out-of-range values and unknown
// quadrant labels are data-integrity warnings: logged, never fatal.
package dataprocessing
