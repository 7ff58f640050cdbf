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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-report-api/api/swagger"
	"github.com/noah-isme/sma-report-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-report-api/internal/middleware"
	"github.com/noah-isme/sma-report-api/internal/repository"
	"github.com/noah-isme/sma-report-api/internal/service"
	"github.com/noah-isme/sma-report-api/pkg/cache"
	"github.com/noah-isme/sma-report-api/pkg/config"
	"github.com/noah-isme/sma-report-api/pkg/database"
	"github.com/noah-isme/sma-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-report-api/pkg/middleware/requestid"
)

// @title SMA Report API
// @version 1.0.0
// @description Term and yearly academic report aggregation
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"postgres": db.PingContext}

	metrics := service.NewMetricsService()

	var (
		cacheRepo   service.CacheRepository
		redisClient *redis.Client
	)
	if cfg.Reports.SharedCacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, shared report cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	sharedCache := service.NewCacheService(cacheRepo, metrics, cfg.Reports.SharedCacheTTL, logr, cacheRepo != nil)

	students := repository.NewStudentRepository(db)
	classes := repository.NewClassRepository(db)
	subjects := repository.NewSubjectRepository(db)
	assessments := repository.NewAssessmentRepository(db)
	sequences := repository.NewSequenceRepository(db)
	validate := validator.New()

	reports := service.NewReportService(students, classes, subjects, assessments, sharedCache, metrics, service.ReportOptions{
		Workers:   cfg.Reports.WorkerConcurrency,
		Timeout:   cfg.Reports.Timeout,
		SharedTTL: cfg.Reports.SharedCacheTTL,
	}, logr)
	exports := service.NewExportService(reports, nil, nil, logr)
	assessmentSvc := service.NewAssessmentService(assessments, students, subjects, sharedCache, validate, logr)
	roster := service.NewRosterService(students, classes, sequences, cfg.Sequences.StudentCode, sharedCache, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	registerRoutes(r, cfg, routeHandlers{
		reports:     handler.NewReportHandler(reports, exports),
		assessments: handler.NewAssessmentHandler(assessmentSvc),
		roster:      handler.NewRosterHandler(roster),
		metrics:     handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env,
			"workers", cfg.Reports.WorkerConcurrency, "shared_cache", sharedCache.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeHandlers struct {
	reports     *handler.ReportHandler
	assessments *handler.AssessmentHandler
	roster      *handler.RosterHandler
	metrics     *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())

	reports := api.Group("/reports")
	reports.GET("/students/:id/terms/:term", h.reports.StudentTerm)
	reports.GET("/students/:id/terms", h.reports.StudentTerms)
	reports.GET("/students/:id/yearly", h.reports.StudentYearly)
	reports.GET("/classes/:id/terms/:term", h.reports.ClassTerm)
	reports.GET("/classes/:id/terms/:term/export", h.reports.ExportClassTerm)
	reports.GET("/classes/:id/yearly", h.reports.ClassYearly)
	reports.GET("/classes/:id/yearly/export", h.reports.ExportClassYearly)
	reports.GET("/classes/:id/roll/:roll/terms/:term", h.reports.RollNumberTerm)
	reports.GET("/classes/:id/roll/:roll/yearly", h.reports.RollNumberYearly)

	api.GET("/grading/preview", h.assessments.Preview)
	api.POST("/assessments", h.assessments.Record)

	api.PUT("/students/:id/class", h.roster.MoveStudent)
	api.POST("/students/codes", h.roster.NextCode)
}
