package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/trialworks/adherence-api/api/swagger"
	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/handler"
	"github.com/trialworks/adherence-api/internal/middleware"
	"github.com/trialworks/adherence-api/internal/models"
	"github.com/trialworks/adherence-api/internal/repository"
	"github.com/trialworks/adherence-api/internal/service"
	"github.com/trialworks/adherence-api/pkg/cache"
	"github.com/trialworks/adherence-api/pkg/config"
	"github.com/trialworks/adherence-api/pkg/database"
	"github.com/trialworks/adherence-api/pkg/export"
	"github.com/trialworks/adherence-api/pkg/jobs"
	"github.com/trialworks/adherence-api/pkg/logger"
	corsmiddleware "github.com/trialworks/adherence-api/pkg/middleware/cors"
	reqidmiddleware "github.com/trialworks/adherence-api/pkg/middleware/requestid"
)

// @title Trialworks Adherence API
// @version 1.0.0
// @description Adherence reporting and scheduling for study participants
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

	if err := dto.RegisterValidators(); err != nil {
		logr.Sugar().Fatalw("failed to register validators", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Adherence.CacheTTL, logr,
		cfg.Adherence.CacheEnabled && redisClient != nil)

	eventStreams := service.NewEventStreamService(logr)
	weekly := service.NewWeeklyService(eventStreams, logr)
	schedules := service.NewParticipantScheduleService(logr)

	adherence := service.NewAdherenceService(service.AdherenceServiceParams{
		Timelines:     repository.NewTimelineRepository(db),
		Records:       repository.NewAdherenceRecordRepository(db),
		Events:        repository.NewEventRepository(db),
		WeeklyReports: repository.NewWeeklyReportRepository(db),
		EventStreams:  eventStreams,
		Weekly:        weekly,
		Schedules:     schedules,
		Cache:         cacheSvc,
		Metrics:       metrics,
		CSV:           export.NewCSVExporter(cfg.Exports.CSVDelimRaw),
		PDF:           export.NewPDFExporter(cfg.Exports.PDFAuthor),
		Logger:        logr,
		Config: service.AdherenceConfig{
			CacheTTL:        cfg.Adherence.CacheTTL,
			DefaultTimeZone: cfg.Adherence.DefaultTimeZone,
			ExportMaxRows:   cfg.Exports.MaxRows,
		},
	})

	regenQueue := jobs.NewQueue("weekly-reports", adherence.HandleRegenerationJob, jobs.QueueConfig{
		Workers:    cfg.Adherence.WorkerCount,
		MaxRetries: cfg.Adherence.WorkerRetries,
		Logger:     logr,
	})
	regenQueue.Start(ctx)
	defer regenQueue.Stop()
	adherence.AttachQueue(regenQueue)

	auth := service.NewAuthService(repository.NewAccountRepository(db), logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(auth)
	adherenceHandler := handler.NewAdherenceHandler(adherence)
	scheduleHandler := handler.NewScheduleHandler(adherence)
	metricsHandler := handler.NewMetricsHandler(metrics, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	participants := api.Group("/studies/:studyId/participants/:userId")
	participants.Use(middleware.JWT(auth))
	participants.GET("/adherence/eventstream", adherenceHandler.EventStream)
	participants.GET("/adherence/weekly", adherenceHandler.Weekly)
	participants.GET("/schedule", scheduleHandler.Schedule)
	if cfg.Exports.Enabled {
		participants.GET("/schedule/export", scheduleHandler.Export)
	}
	writers := participants.Group("")
	writers.Use(middleware.RequireRole(models.RoleAdmin, models.RoleCoordinator))
	writers.POST("/adherence", adherenceHandler.UpsertRecord)
	writers.POST("/events", adherenceHandler.RecordEvent)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
