package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"auditpulse/internal/exporter"
	"auditpulse/internal/risk"
	"auditpulse/internal/websocket"
)

// ExportFormat selects the audit-list download encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat normalizes a format string from the query parameter.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type for download responses.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns the suggested download filename.
func (f ExportFormat) Filename() string {
	return "audit_list." + string(f)
}

// QueryResult is the response of a dashboard query: headline metrics, the
// alert flag, and the master audit list sorted by prediction score
// descending.
type QueryResult struct {
	Summary risk.Summary          `json:"summary"`
	Alert   bool                  `json:"alert"`
	Records []risk.TaxpayerRecord `json:"records"`
}

// HeatmapCell is the mean prediction score of one region and sector
// combination present in the filtered set.
type HeatmapCell struct {
	Region    string  `json:"region"`
	Sector    string  `json:"sector"`
	MeanScore float64 `json:"mean_score"`
	Count     int     `json:"count"`
}

// HeatmapResult carries the cells plus the distinct axis values, both sorted,
// so the frontend can lay out the grid without another pass.
type HeatmapResult struct {
	Regions []string      `json:"regions"`
	Sectors []string      `json:"sectors"`
	Cells   []HeatmapCell `json:"cells"`
}

// Dossier is the single-taxpayer drill-down view.
type Dossier struct {
	Record           risk.TaxpayerRecord `json:"record"`
	RiskFactors      []risk.RiskFactor   `json:"risk_factors"`
	RevenueThreshold float64             `json:"revenue_threshold"`
}

// HealthStatus reports service readiness and dataset state.
type HealthStatus struct {
	Status   string    `json:"status"`
	Source   string    `json:"source"`
	Records  int       `json:"records,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// DashboardService runs the risk pipeline over the configured dataset.
type DashboardService struct {
	store  *risk.Store
	source string
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewDashboardService creates the service. hub may be nil when alert
// streaming is not wired (the riskreport CLI).
func NewDashboardService(store *risk.Store, source string, hub *websocket.Hub, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:  store,
		source: source,
		hub:    hub,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

func (s *DashboardService) session(ctx context.Context) (*risk.Session, error) {
	sess, err := s.store.Get(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	return sess, nil
}

// Options returns the observed value space of the base table, seeding the
// dashboard filter controls.
func (s *DashboardService) Options(ctx context.Context) (*risk.FilterOptions, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	opts := sess.Options()
	return &opts, nil
}

// Query filters the base table, computes the headline metrics, and returns
// the master audit list sorted by prediction score descending. When the
// selection's mean score crosses the alert threshold, the alert is also
// broadcast to websocket subscribers.
func (s *DashboardService) Query(ctx context.Context, p risk.Predicates) (*QueryResult, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	filtered := risk.Filter(sess.Records(), p)
	summary := risk.Summarize(filtered)

	// Stable sort keeps table order among equal scores.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PredictionScore > filtered[j].PredictionScore
	})

	result := &QueryResult{
		Summary: summary,
		Alert:   summary.HighRiskAlert(),
		Records: filtered,
	}

	if result.Alert && s.hub != nil {
		s.hub.BroadcastAlert(websocket.AlertMessage{
			Type:     "high_risk_alert",
			Message:  "Selection has a critically high average risk profile",
			AvgScore: summary.AvgScore,
			Count:    summary.Count,
		})
	}

	s.logger.DebugContext(ctx, "query evaluated",
		slog.Int("matched", summary.Count),
		slog.Float64("avg_score", summary.AvgScore),
		slog.Bool("alert", result.Alert))

	return result, nil
}

// Heatmap computes the mean prediction score by region and sector over the
// filtered set.
func (s *DashboardService) Heatmap(ctx context.Context, p risk.Predicates) (*HeatmapResult, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	filtered := risk.Filter(sess.Records(), p)
	groups, err := risk.GroupMeans(filtered, []risk.Column{risk.ColumnRegion, risk.ColumnSector}, risk.ColumnScore)
	if err != nil {
		return nil, fmt.Errorf("heatmap aggregation: %w", err)
	}

	result := &HeatmapResult{Cells: make([]HeatmapCell, 0, len(groups))}
	regions := make(map[string]struct{})
	sectors := make(map[string]struct{})
	for _, g := range groups {
		regions[g.Key[0]] = struct{}{}
		sectors[g.Key[1]] = struct{}{}
		result.Cells = append(result.Cells, HeatmapCell{
			Region:    g.Key[0],
			Sector:    g.Key[1],
			MeanScore: g.Mean,
			Count:     g.Count,
		})
	}
	result.Regions = sortedStrings(regions)
	result.Sectors = sortedStrings(sectors)
	return result, nil
}

// treemapRoot labels the top of the debt-weighted hierarchy.
const treemapRoot = "All Taxpayers"

// Treemap builds the debt-weighted hierarchy root, region, sector, quadrant,
// colored by mean prediction score, over the filtered set.
func (s *DashboardService) Treemap(ctx context.Context, p risk.Predicates) (*risk.TreeNode, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	filtered := risk.Filter(sess.Records(), p)
	tree, err := risk.HierarchyWeights(filtered, treemapRoot,
		[]risk.Column{risk.ColumnRegion, risk.ColumnSector, risk.ColumnQuadrant},
		risk.ColumnDebt, risk.ColumnScore)
	if err != nil {
		return nil, fmt.Errorf("treemap aggregation: %w", err)
	}
	return tree, nil
}

// Dossier resolves a single taxpayer by raw id and projects the risk-factor
// breakdown.
func (s *DashboardService) Dossier(ctx context.Context, id string) (*Dossier, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := sess.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTaxpayerNotFound, id)
	}

	return &Dossier{
		Record:           rec,
		RiskFactors:      risk.RiskFactors(rec),
		RevenueThreshold: sess.RevenueThreshold,
	}, nil
}

// Export streams the filtered audit list to w in the given format and
// returns the number of exported records. Records are sorted by prediction
// score descending, matching the master list.
func (s *DashboardService) Export(ctx context.Context, w io.Writer, p risk.Predicates, format ExportFormat) (int, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return 0, err
	}

	filtered := risk.Filter(sess.Records(), p)
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PredictionScore > filtered[j].PredictionScore
	})

	switch format {
	case FormatCSV:
		err = exporter.WriteCSV(w, filtered)
	case FormatXLSX:
		err = exporter.WriteXLSX(w, filtered)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return 0, fmt.Errorf("export audit list: %w", err)
	}

	s.logger.InfoContext(ctx, "audit list exported",
		slog.String("format", string(format)),
		slog.Int("records", len(filtered)))

	return len(filtered), nil
}

// Health reports dataset readiness. A load failure degrades the status
// instead of erroring so the health endpoint always answers.
func (s *DashboardService) Health(ctx context.Context) HealthStatus {
	sess, err := s.store.Get(ctx, s.source)
	if err != nil {
		return HealthStatus{
			Status: "degraded",
			Source: s.source,
			Error:  err.Error(),
		}
	}
	return HealthStatus{
		Status:   "healthy",
		Source:   s.source,
		Records:  len(sess.Records()),
		LoadedAt: sess.LoadedAt,
	}
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
