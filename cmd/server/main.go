package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spwebhooks/application"
	"spwebhooks/infrastructure/config"
	"spwebhooks/infrastructure/metrics"
	"spwebhooks/infrastructure/spclient"
	"spwebhooks/interfaces/web/handlers"
	"spwebhooks/logging"
	"spwebhooks/spauth"
)

func main() {
	// Create app-wide context for graceful shutdown
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Initialize configuration
	loadEnvironment()
	cfg := config.LoadAppConfigFromEnv()

	// Initialize logging
	logger := initializeLogging(cfg)

	// Initialize the process credential
	authCfg, credential := initializeCredential(logger)

	// Initialize metrics
	metrics.InitMetrics()

	// Build dependencies
	deps := buildDependencies(cfg, authCfg, credential, logger)

	// Start the renewal sweeper if configured
	startRenewalWorker(appCtx, deps, cfg)

	// Setup routes and start server
	router := setupRoutes(deps, cfg)
	startServer(router, cfg, logger, appCancel)
}

// ApplicationServices holds application services.
type ApplicationServices struct {
	WebhookService *application.WebhookService
	SiteService    *application.SiteService
}

// PresentationLayer groups all HTTP handlers.
type PresentationLayer struct {
	WebhookHandlers      *handlers.WebhookHandlers
	DebugHandlers        *handlers.DebugHandlers
	NotificationHandlers *handlers.NotificationHandlers
	SystemHandlers       *handlers.SystemHandlers
}

// Dependencies holds all application dependencies organized by layer.
type Dependencies struct {
	// Infrastructure
	Credential  azcore.TokenCredential
	Connections *spclient.ConnectionCache
	Logger      *logging.Logger

	// Application Layer
	Services *ApplicationServices

	// Presentation Layer
	Presentation *PresentationLayer
}

func loadEnvironment() {
	if err := godotenv.Load(); err != nil {
		println("No .env file found, using environment variables")
	} else {
		println("Loaded configuration from .env file")
	}
}

func initializeLogging(cfg *config.AppConfig) *logging.Logger {
	logger := logging.NewLogger(cfg.Logging)
	logging.SetDefault(logger)

	logger.Info("Application starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"log_format", cfg.Logging.Format,
		"tenant_prefix", cfg.Site.TenantPrefix,
		"site_path", cfg.Site.SiteRelativePath,
	)

	return logger
}

func initializeCredential(logger *logging.Logger) (spauth.Config, azcore.TokenCredential) {
	authCfg, err := spauth.FromEnv()
	if err != nil {
		logger.Error("Failed to load auth configuration", "error", err)
		os.Exit(1)
	}

	credential, err := spauth.NewTokenCredential(authCfg)
	if err != nil {
		logger.Error("Failed to initialize credential", "error", err)
		os.Exit(1)
	}

	logger.Info("Credential resolved",
		"strategy", string(spauth.ResolveStrategy(authCfg)),
		"local_environment", authCfg.LocalEnvironment,
	)
	return authCfg, credential
}

// buildApplicationServices creates application services with dependency injection.
func buildApplicationServices(cfg *config.AppConfig, authCfg spauth.Config, credential azcore.TokenCredential, connections *spclient.ConnectionCache) *ApplicationServices {
	webhookService := application.NewWebhookService(connections, cfg.Webhook)
	siteService := application.NewSiteService(connections, credential, authCfg, cfg.Site)

	return &ApplicationServices{
		WebhookService: webhookService,
		SiteService:    siteService,
	}
}

// buildPresentationLayer creates all HTTP handlers.
func buildPresentationLayer(services *ApplicationServices, connections *spclient.ConnectionCache) *PresentationLayer {
	return &PresentationLayer{
		WebhookHandlers:      handlers.NewWebhookHandlers(services.WebhookService, services.SiteService),
		DebugHandlers:        handlers.NewDebugHandlers(services.SiteService),
		NotificationHandlers: handlers.NewNotificationHandlers(),
		SystemHandlers:       handlers.NewSystemHandlers(connections),
	}
}

// buildDependencies creates all application dependencies.
func buildDependencies(cfg *config.AppConfig, authCfg spauth.Config, credential azcore.TokenCredential, logger *logging.Logger) *Dependencies {
	connections := spclient.NewConnectionCache(credential, authCfg, cfg.Site.UserAgent)

	services := buildApplicationServices(cfg, authCfg, credential, connections)
	presentation := buildPresentationLayer(services, connections)

	return &Dependencies{
		Credential:   credential,
		Connections:  connections,
		Services:     services,
		Presentation: presentation,
		Logger:       logger,
	}
}

// startRenewalWorker launches the subscription renewal sweeper when an
// interval and at least one list are configured.
func startRenewalWorker(appCtx context.Context, deps *Dependencies, cfg *config.AppConfig) {
	if cfg.Webhook.RenewalInterval <= 0 || len(cfg.Webhook.RenewalLists) == 0 {
		deps.Logger.Info("Renewal worker disabled")
		return
	}

	worker := application.NewRenewalWorker(deps.Services.WebhookService, deps.Services.SiteService, cfg.Webhook)
	go worker.Run(appCtx)
}

func setupRoutes(deps *Dependencies, cfg *config.AppConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	setupHTTPLogging(r, deps, cfg)
	r.Use(middleware.Recoverer)

	// System endpoints
	setupSystemRoutes(r, deps)

	// Webhook management and notification routes
	setupWebhookRoutes(r, deps)

	// Debug routes, only reachable with a configured key
	setupDebugRoutes(r, deps, cfg)

	return r
}

func setupHTTPLogging(r *chi.Mux, deps *Dependencies, cfg *config.AppConfig) {
	if cfg.HTTPLogPath == "" {
		// No HTTP logging configured, skip
		return
	}

	logFile, err := os.OpenFile(cfg.HTTPLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		deps.Logger.Error("Failed to open HTTP log file", "error", err, "path", cfg.HTTPLogPath)
		return
	}
	// Note: logFile is not closed here as it needs to stay open for the server lifetime

	httpLogger := httplog.NewLogger("spwebhooks", httplog.Options{
		Writer: logFile,
		JSON:   cfg.HTTPLogJSON,
	})
	r.Use(httplog.RequestLogger(httpLogger))

	deps.Logger.Info("HTTP request logging enabled", "path", cfg.HTTPLogPath)
}

func setupSystemRoutes(r *chi.Mux, deps *Dependencies) {
	r.Get("/health", deps.Presentation.SystemHandlers.Health)
	r.Handle("/metrics", promhttp.Handler())
}

func setupWebhookRoutes(r *chi.Mux, deps *Dependencies) {
	// Webhook subscription lifecycle
	r.Post("/api/lists/{listID}/webhooks", deps.Presentation.WebhookHandlers.Register)
	r.Get("/api/lists/{listID}/webhooks", deps.Presentation.WebhookHandlers.List)
	r.Get("/api/lists/{listID}/webhooks/{subscriptionID}", deps.Presentation.WebhookHandlers.Get)
	r.Patch("/api/lists/{listID}/webhooks/{subscriptionID}", deps.Presentation.WebhookHandlers.Renew)
	r.Delete("/api/lists/{listID}/webhooks/{subscriptionID}", deps.Presentation.WebhookHandlers.Delete)

	// SharePoint delivers notifications here
	r.Post("/api/notifications", deps.Presentation.NotificationHandlers.Receive)
}

func setupDebugRoutes(r *chi.Mux, deps *Dependencies, cfg *config.AppConfig) {
	if cfg.DebugAPIKey == "" {
		deps.Logger.Info("Debug endpoints disabled, no DEBUG_API_KEY configured")
		return
	}

	r.Group(func(r chi.Router) {
		r.Use(handlers.RequireDebugKey(cfg.DebugAPIKey))

		r.Get("/api/debug/token", deps.Presentation.DebugHandlers.Token)
		r.Get("/api/debug/site", deps.Presentation.DebugHandlers.Site)
		r.Get("/api/debug/lists/{listID}/changes", deps.Presentation.DebugHandlers.Changes)
	})

	deps.Logger.Info("Debug endpoints enabled")
}

func startServer(router *chi.Mux, cfg *config.AppConfig, logger *logging.Logger, appCancel context.CancelFunc) {
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sig
		logger.Info("Shutdown signal received")

		// Cancel app-wide context first to signal all services to shutdown
		appCancel()

		shutdownCtx, cancel := context.WithTimeout(serverCtx, cfg.ShutdownTimeout)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				logger.Error("Graceful shutdown timed out, forcing exit")
				os.Exit(1)
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			os.Exit(1)
		}
		serverStopCtx()
	}()

	logger.Info("Server starting", "address", cfg.HTTPAddr)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	<-serverCtx.Done()
	logger.Info("Server stopped")
}
