package http

import (
	"context"
	"io"

	"auditpulse/internal/risk"
	"auditpulse/internal/services"
)

// DashboardServiceInterface is the service surface the handlers depend on.
// Defined here so tests can substitute a stub.
type DashboardServiceInterface interface {
	Options(ctx context.Context) (*risk.FilterOptions, error)
	Query(ctx context.Context, p risk.Predicates) (*services.QueryResult, error)
	Heatmap(ctx context.Context, p risk.Predicates) (*services.HeatmapResult, error)
	Treemap(ctx context.Context, p risk.Predicates) (*risk.TreeNode, error)
	Dossier(ctx context.Context, id string) (*services.Dossier, error)
	Export(ctx context.Context, w io.Writer, p risk.Predicates, format services.ExportFormat) (int, error)
	Health(ctx context.Context) services.HealthStatus
}
