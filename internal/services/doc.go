// Package services orchestrates the risk pipeline for the presentation
// boundary: session access, filtering, aggregation, dossier resolution,
// export, and the high-risk alert signal.
package services
