package services

import "errors"

// Service-level sentinel errors. The transport layer maps these to API
// error responses.
var (
	// ErrTaxpayerNotFound indicates the requested taxpayer id resolved to
	// zero records.
	ErrTaxpayerNotFound = errors.New("taxpayer not found")

	// ErrDatasetUnavailable indicates the configured dataset could not be
	// loaded. Fatal to the request; the session store does not retry.
	ErrDatasetUnavailable = errors.New("dataset unavailable")

	// ErrUnsupportedFormat indicates an export format other than csv or xlsx.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
