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
	"github.com/go-chi/render"

	"retailsight/internal/config"
	apierrors "retailsight/internal/errors"
	"retailsight/internal/infrastructure"
	customMiddleware "retailsight/internal/middleware"
	"retailsight/internal/operations"
	"retailsight/internal/services"
	"retailsight/internal/store"
	handlers "retailsight/internal/transport/http"
	ws "retailsight/internal/websocket"
)

const (
	Version = "1.0.0"
	AppName = "RetailSight Analytics Service"
)

// Application wires configuration, services, transport and the HTTP server.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Hub           *ws.Hub
	Manager       *operations.Manager
	Snapshots     *store.Snapshots
	RunService    *services.RunService
	RetailService *services.RetailService
	ChurnService  *services.ChurnService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
}

// NewApplication builds a fully wired application from the environment.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.Hub = hub

	var metrics *infrastructure.BusinessMetrics
	if a.OTelProviders.Meter != nil {
		var err error
		metrics, err = infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
	}

	a.Snapshots = store.NewSnapshots(a.Logger)
	a.Manager = operations.NewManager(a.Config.Server.RunTimeout, metrics, hub, a.Logger)
	a.RunService = services.NewRunService(a.Config, a.Manager, a.Snapshots, a.Logger)
	a.RetailService = services.NewRetailService(a.Snapshots, a.Logger)
	a.ChurnService = services.NewChurnService(a.Snapshots, a.Logger)

	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that never wraps the ResponseWriter may run before
	// the websocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Get("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		if a.OTelProviders.Meter != nil && a.OTelProviders.Tracer != nil {
			otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
			if err != nil {
				a.Logger.Error("failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
			} else {
				r.Use(otelMiddleware.Handler)
			}
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.Snapshots, Version, a.Logger)
			r.Mount("/health", healthHandler.Routes())

			retailHandler := handlers.NewRetailHandler(a.RetailService, a.Logger, errorHandler)
			r.Mount("/retail", retailHandler.Routes())

			churnHandler := handlers.NewChurnHandler(a.ChurnService, a.Logger, errorHandler)
			r.Mount("/churn", churnHandler.Routes())
		})

		// Run control gets the pipeline timeout, not the read timeout.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RunTimeout, a.Logger))

			runsHandler := handlers.NewRunsHandler(a.RunService, a.Logger, errorHandler)
			r.Mount("/runs", runsHandler.Routes())
		})
	})
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	origins = append(origins, a.Config.Security.AllowedOrigins...)

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := ws.ServeWS(a.Hub, w, r, a.Logger); err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
	}
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

// Start launches the HTTP server. It returns once the listener goroutine is
// running; server errors cancel the passed context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

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

// Stop gracefully shuts down the server, websocket hub and telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Shutdown()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run starts the application and blocks until an interrupt arrives.
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
