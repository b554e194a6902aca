// Package http contains the chi HTTP handlers serving the dashboard API:
// filter options, query, heatmap, treemap, taxpayer dossier, export, and
// health.
package http
