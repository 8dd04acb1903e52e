package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mborgeson/portfolio-reports-api/api/swagger"
	"github.com/mborgeson/portfolio-reports-api/internal/handler"
	"github.com/mborgeson/portfolio-reports-api/internal/middleware"
	"github.com/mborgeson/portfolio-reports-api/internal/repository"
	"github.com/mborgeson/portfolio-reports-api/internal/service"
	"github.com/mborgeson/portfolio-reports-api/pkg/cache"
	"github.com/mborgeson/portfolio-reports-api/pkg/config"
	"github.com/mborgeson/portfolio-reports-api/pkg/database"
	"github.com/mborgeson/portfolio-reports-api/pkg/jobs"
	"github.com/mborgeson/portfolio-reports-api/pkg/logger"
	corsmiddleware "github.com/mborgeson/portfolio-reports-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mborgeson/portfolio-reports-api/pkg/middleware/requestid"
	"github.com/mborgeson/portfolio-reports-api/pkg/storage"
)

// @title Portfolio Reports API
// @version 1.0.0
// @description Report template catalog, wizard sessions, and asynchronous report generation
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewDownloadTokenSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	templateRepo := repository.NewTemplateRepository(db)
	reportRepo := repository.NewReportRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	sessionRepo := repository.NewWizardSessionRepository(redisClient, cfg.Wizard.SessionTTL, logr)

	metricsSvc := service.NewMetricsService()
	catalogSvc := service.NewCatalogService(templateRepo, cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr)
	exportSvc := service.NewExportService(portfolioRepo, catalogSvc, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.ResultTTL,
	}, logr)

	worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("report-generation", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})

	reportSvc := service.NewReportService(reportRepo, catalogSvc, queue, exportSvc, metricsSvc, validator.New(), logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.ResultTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})
	wizardSvc := service.NewWizardService(sessionRepo, catalogSvc, reportSvc, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	templateHandler := handler.NewTemplateHandler(catalogSvc)
	wizardHandler := handler.NewWizardHandler(wizardSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/templates", templateHandler.List)
		api.GET("/templates/:id", templateHandler.Get)

		api.POST("/wizard/sessions", wizardHandler.Open)
		api.GET("/wizard/sessions/:id", wizardHandler.Get)
		api.DELETE("/wizard/sessions/:id", wizardHandler.Close)
		api.PUT("/wizard/sessions/:id/template", wizardHandler.SelectTemplate)
		api.PUT("/wizard/sessions/:id/values", wizardHandler.SetValue)
		api.PUT("/wizard/sessions/:id/format", wizardHandler.SetFormat)
		api.GET("/wizard/sessions/:id/form", wizardHandler.Form)
		api.POST("/wizard/sessions/:id/advance", wizardHandler.Advance)
		api.POST("/wizard/sessions/:id/retreat", wizardHandler.Retreat)
		api.POST("/wizard/sessions/:id/retry", wizardHandler.Retry)

		api.POST("/reports", reportHandler.Generate)
		api.GET("/reports/:id", reportHandler.Status)
		api.GET("/export/:token", reportHandler.Download)

		api.GET("/system/metrics", metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
