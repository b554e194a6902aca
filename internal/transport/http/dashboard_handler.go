package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "auditpulse/internal/errors"
	"auditpulse/internal/risk"
	"auditpulse/internal/services"
)

// DashboardHandler serves the dashboard API.
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/options", h.GetOptions)
	r.Post("/query", h.Query)
	r.Post("/heatmap", h.Heatmap)
	r.Post("/treemap", h.Treemap)
	r.Get("/taxpayer/{id}", h.GetTaxpayer)
	r.Post("/export", h.Export)

	return r
}

// RangePayload is the wire form of an inclusive numeric interval.
type RangePayload struct {
	Min float64 `json:"min"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

// QueryRequest is the predicate configuration sent by the dashboard. A nil
// (absent) set or range means "all observed values"; an explicit empty array
// keeps literal exclude-all semantics.
type QueryRequest struct {
	Sectors      *[]string     `json:"sectors"`
	Regions      *[]string     `json:"regions"`
	Quadrants    *[]string     `json:"quadrants" validate:"omitempty,dive,oneof=HighRisk/HighImpact HighRisk/LowImpact LowRisk/HighImpact LowRisk/LowImpact"`
	ScoreRange   *RangePayload `json:"score_range" validate:"omitempty"`
	RevenueRange *RangePayload `json:"revenue_range" validate:"omitempty"`
	DebtRange    *RangePayload `json:"debt_range" validate:"omitempty"`
}

// predicates materializes the request against the observed value space,
// filling absent fields with the all-inclusive defaults.
func (req *QueryRequest) predicates(opts *risk.FilterOptions) risk.Predicates {
	p := opts.UniversalPredicates()

	if req.Sectors != nil {
		p.Sectors = *req.Sectors
	}
	if req.Regions != nil {
		p.Regions = *req.Regions
	}
	if req.Quadrants != nil {
		quadrants := make([]risk.Quadrant, len(*req.Quadrants))
		for i, q := range *req.Quadrants {
			quadrants[i] = risk.Quadrant(q)
		}
		p.Quadrants = quadrants
	}
	if req.ScoreRange != nil {
		p.ScoreRange = risk.Range{Min: req.ScoreRange.Min, Max: req.ScoreRange.Max}
	}
	if req.RevenueRange != nil {
		p.RevenueRange = risk.Range{Min: req.RevenueRange.Min, Max: req.RevenueRange.Max}
	}
	if req.DebtRange != nil {
		p.DebtRange = risk.Range{Min: req.DebtRange.Min, Max: req.DebtRange.Max}
	}
	return p
}

// decodePredicates parses, validates, and materializes the request body.
// An empty body is allowed and means "no filtering".
func (h *DashboardHandler) decodePredicates(r *http.Request) (risk.Predicates, error) {
	var req QueryRequest
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(&req)
		// io.EOF means an empty body, which is a valid "no filtering" request.
		if err != nil && !errors.Is(err, io.EOF) {
			return risk.Predicates{}, apierrors.NewWithDetails(
				http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		}
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return risk.Predicates{}, apierrors.ErrValidation(first.Field(),
				fmt.Sprintf("failed %q validation", first.Tag()))
		}
		return risk.Predicates{}, apierrors.ErrValidationFailed
	}

	opts, err := h.service.Options(r.Context())
	if err != nil {
		return risk.Predicates{}, err
	}
	return req.predicates(opts), nil
}

// GetOptions handles GET /api/dashboard/options.
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   opts,
	})
}

// Query handles POST /api/dashboard/query.
func (h *DashboardHandler) Query(w http.ResponseWriter, r *http.Request) {
	p, err := h.decodePredicates(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Query(r.Context(), p)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  result.Summary.Count,
	})
}

// Heatmap handles POST /api/dashboard/heatmap.
func (h *DashboardHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	p, err := h.decodePredicates(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Heatmap(r.Context(), p)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  len(result.Cells),
	})
}

// Treemap handles POST /api/dashboard/treemap.
func (h *DashboardHandler) Treemap(w http.ResponseWriter, r *http.Request) {
	p, err := h.decodePredicates(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	tree, err := h.service.Treemap(r.Context(), p)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   tree,
	})
}

// GetTaxpayer handles GET /api/dashboard/taxpayer/{id}.
func (h *DashboardHandler) GetTaxpayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Taxpayer id is required"))
		return
	}

	dossier, err := h.service.Dossier(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dossier,
	})
}

// Export handles POST /api/dashboard/export?format=csv|xlsx, streaming the
// filtered audit list as a download.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := services.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "Format must be csv or xlsx"))
		return
	}

	p, err := h.decodePredicates(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))

	count, err := h.service.Export(r.Context(), w, p, format)
	if err != nil {
		// Headers may already be sent; log instead of rendering a second body.
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "export streamed",
		slog.String("format", string(format)),
		slog.Int("records", count))
}

// handleServiceError maps service sentinels to API errors before delegating
// to the centralized handler.
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrTaxpayerNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("Taxpayer"))
	case errors.Is(err, services.ErrDatasetUnavailable):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetUnloaded)
	case errors.Is(err, services.ErrUnsupportedFormat):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "Format must be csv or xlsx"))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
