package main

import (
	"context"
	"os/signal"
	"syscall"

	"insight-service/internal/handler"
	"insight-service/internal/ingest"
	"insight-service/internal/llm"
	"insight-service/internal/middleware"
	"insight-service/internal/model"
	"insight-service/internal/narrative"
	"insight-service/pkg/config"
	"insight-service/pkg/database"
	"insight-service/pkg/jwtutil"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting insight service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Run migrations, then lock the tenant-scoped tables down with RLS
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.Workspace{},
		&model.ConnectorData{},
		&model.ConnectorDataChunk{},
		&model.RawConnectorRecord{},
		&model.BusinessMetric{},
		&model.Forecast{},
		&model.OptimizationRun{},
		&model.DataQualityAlert{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.SetupRLS(db); err != nil {
		log.Fatal("Failed to set up row-level security", zap.Error(err))
	}
	log.Info("Migrations and row-level security applied")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics()
	log.Info("Prometheus metrics initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional LLM enrichment; nil client means template output only
	enricher, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatal("Failed to initialize LLM client", zap.Error(err))
	}
	if enricher == nil {
		log.Info("LLM enrichment disabled, narrative uses template output")
	}

	// Domain services. The typed-nil check keeps a disabled client from
	// becoming a non-nil Enricher interface.
	ingestSvc := ingest.NewService(db, cfg.Ingest, log)
	var enrichOpt narrative.Enricher
	if enricher != nil {
		enrichOpt = enricher
	}
	generator := narrative.NewGenerator(narrative.NewGormStore(db), enrichOpt, log)

	// Background ELT consumer over the raw staging log
	consumer := ingest.NewConsumer(
		ingest.NewGormStagingStore(db),
		ingest.NewQualityChecker(ingest.NewGormAlertStore(db)),
		cfg.Ingest, log)
	go consumer.Run(ctx)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)

	// API routes - all require authentication and a tenant context
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.Use(middleware.RequireTenantContext)

	// Tenant management
	api.POST("/tenants", handler.CreateTenant)
	api.GET("/tenants/:id", handler.GetTenant)
	api.PATCH("/tenants/:id", handler.UpdateTenant)

	// Workspaces
	api.GET("/workspaces", handler.ListWorkspaces)
	api.POST("/workspaces", handler.CreateWorkspace)
	api.GET("/workspaces/:id", handler.GetWorkspace)
	api.PATCH("/workspaces/:id", handler.UpdateWorkspace)
	api.DELETE("/workspaces/:id", handler.DeleteWorkspace)

	// Connector ingestion
	ingestHandler := handler.NewIngestHandler(ingestSvc)
	api.POST("/ingest", ingestHandler.Ingest)
	api.GET("/connectors/:connector/:data_type", ingestHandler.Snapshot)

	// Narrative generation
	narrativeHandler := handler.NewNarrativeHandler(generator)
	api.POST("/narrative", narrativeHandler.Generate)

	// Business profile
	profileHandler := handler.NewProfileHandler(ingestSvc)
	api.GET("/profile", profileHandler.GetProfile)

	// Data quality alerts
	api.GET("/alerts", handler.ListAlerts)
	api.POST("/alerts/:id/resolve", handler.ResolveAlert)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
