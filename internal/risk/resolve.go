package risk

import (
	"errors"
	"log/slog"
)

// ErrNotFound is returned when a taxpayer id resolves to zero records. It is
// recoverable: callers should re-prompt rather than abort the session.
var ErrNotFound = errors.New("taxpayer not found")

// BuildIndex maps taxpayer ids to their first position in table order.
// Duplicate ids violate the table's uniqueness invariant; the first
// occurrence wins and each duplicate is logged as a data-integrity warning.
func BuildIndex(records []TaxpayerRecord, logger *slog.Logger) map[string]int {
	if logger == nil {
		logger = slog.Default()
	}
	index := make(map[string]int, len(records))
	for i, rec := range records {
		if first, dup := index[rec.TaxpayerID]; dup {
			logger.Warn("duplicate taxpayer id, keeping first occurrence",
				slog.String("taxpayer_id", rec.TaxpayerID),
				slog.Int("first_row", first),
				slog.Int("duplicate_row", i))
			continue
		}
		index[rec.TaxpayerID] = i
	}
	return index
}

// Resolve returns the record for id using a previously built index.
func Resolve(records []TaxpayerRecord, index map[string]int, id string) (TaxpayerRecord, error) {
	pos, ok := index[id]
	if !ok {
		return TaxpayerRecord{}, ErrNotFound
	}
	return records[pos], nil
}
