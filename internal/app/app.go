package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auditpulse/internal/config"
	"auditpulse/internal/dataprocessing"
	apierrors "auditpulse/internal/errors"
	"auditpulse/internal/infrastructure"
	custommw "auditpulse/internal/middleware"
	"auditpulse/internal/risk"
	"auditpulse/internal/services"
	handlers "auditpulse/internal/transport/http"
	ws "auditpulse/internal/websocket"
)

const (
	Version = "1.0.0"
	AppName = "AuditPulse - Tax Audit Risk Dashboard"
)

// Application is the main application container.
type Application struct {
	Config  *config.Config
	Router  *chi.Mux
	Server  *http.Server
	Hub     *ws.Hub
	Store   *risk.Store
	Service *services.DashboardService
	Logger  *slog.Logger

	registry *prometheus.Registry
	hubDone  context.CancelFunc
}

// NewApplication loads configuration, initializes logging, and wires all
// services, handlers, and middleware.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("dataset", cfg.Dataset.Path))

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() {
	a.Hub = ws.NewHub(a.Logger)

	loader := dataprocessing.NewLoader(a.Logger)
	classifier := risk.NewClassifier(a.Logger)
	a.Store = risk.NewStore(loader.Load, classifier, a.Logger)

	a.Service = services.NewDashboardService(a.Store, a.Config.Dataset.Path, a.Hub, a.Logger)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger)
	metrics := custommw.NewMetrics(a.registry)

	// Minimal middleware outside the API group so the websocket upgrade is
	// not wrapped by a buffering ResponseWriter.
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.HandleFunc("/ws", ws.ServeWS(a.Hub, a.Config.WebSocket, a.Logger))
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(metrics.Handler)
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(errorHandler.RecoverPanic)
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.Compress(5))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			healthHandler := handlers.NewHealthHandler(a.Service, a.Logger, Version)
			r.Mount("/health", healthHandler.Routes())

			dashboardHandler := handlers.NewDashboardHandler(a.Service, a.Logger, errorHandler)
			r.Mount("/dashboard", dashboardHandler.Routes())
		})
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the alert hub and the HTTP server. cancel is invoked when
// the server fails so Run can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	hubCtx, hubCancel := context.WithCancel(context.Background())
	a.hubDone = hubCancel
	go a.Hub.Run(hubCtx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully shuts down the server and the alert hub.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.hubDone != nil {
		a.hubDone()
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
