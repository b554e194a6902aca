package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"
)

// ErrorHandler renders errors as JSON envelopes and logs them with the
// request trace context.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates an ErrorHandler. A nil logger falls back to the
// slog default.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{logger: logger.With(slog.String("component", "error_handler"))}
}

// HandleError writes the error to the response. *APIError values render
// as-is; context cancellation maps to 408; everything else becomes a 500
// with the underlying error logged but not exposed.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := h.toAPIError(err)

	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", apiErr.StatusCode),
		slog.String("error_code", apiErr.ErrorCode),
		slog.String("error", err.Error()))

	if renderErr := render.Render(w, r, NewErrorResponse(apiErr)); renderErr != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error response",
			slog.String("error", renderErr.Error()))
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}

func (h *ErrorHandler) toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, context.Canceled):
		return New(http.StatusRequestTimeout, "REQUEST_CANCELLED", "Request was cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, "REQUEST_TIMEOUT", "Request timed out")
	default:
		return ErrInternalServer
	}
}

// NotFound handles requests for unknown routes.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, r, New(http.StatusNotFound, "ROUTE_NOT_FOUND", "The requested endpoint does not exist"))
}

// MethodNotAllowed handles requests with an unsupported method.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, r, New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed for this endpoint"))
}

// RecoverPanic is middleware that converts panics into 500 responses.
func (h *ErrorHandler) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())))
				h.HandleError(w, r, ErrInternalServer)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
