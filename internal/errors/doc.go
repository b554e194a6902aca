// Package errors defines the API error model and the centralized handler
// that renders errors as JSON envelopes.
package errors
