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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/aku-labs/academy-api/api/swagger"
	"github.com/aku-labs/academy-api/internal/handler"
	"github.com/aku-labs/academy-api/internal/middleware"
	"github.com/aku-labs/academy-api/internal/repository"
	"github.com/aku-labs/academy-api/internal/service"
	"github.com/aku-labs/academy-api/pkg/cache"
	"github.com/aku-labs/academy-api/pkg/config"
	"github.com/aku-labs/academy-api/pkg/database"
	"github.com/aku-labs/academy-api/pkg/export"
	"github.com/aku-labs/academy-api/pkg/jobs"
	"github.com/aku-labs/academy-api/pkg/logger"
	corsmiddleware "github.com/aku-labs/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/aku-labs/academy-api/pkg/middleware/requestid"
	"github.com/aku-labs/academy-api/pkg/storage"
)

// @title Academy Admin API
// @version 1.0.0
// @description Administration backend for a children's tech academy
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	leadRepo := repository.NewTrialLeadRepository(db)
	courseRepo := repository.NewVirtualCourseRepository(db)
	groupRepo := repository.NewCourseGroupRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	classLogRepo := repository.NewClassLogRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	reportJobRepo := repository.NewReportJobRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academy-api",
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, settingsRepo, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, nil, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, settingsRepo, nil, logr)
	leadSvc := service.NewTrialLeadService(leadRepo, studentRepo, nil, logr)
	courseSvc := service.NewVirtualCourseService(courseRepo, nil, logr)
	groupSvc := service.NewCourseGroupService(groupRepo, enrollmentRepo, courseRepo, studentRepo, nil, logr)
	classLogSvc := service.NewClassLogService(classLogRepo, studentRepo, nil, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, nil, logr)
	webhookSvc := service.NewWebhookService(leadRepo, cfg.Calendly.SigningKey, logr)
	importSvc := service.NewImportService(studentRepo, courseRepo, settingsRepo, logr)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Users:     handler.NewUserHandler(userSvc),
		Students:  handler.NewStudentHandler(studentSvc),
		Atts:      handler.NewAttendanceHandler(attendanceSvc),
		Payments:  handler.NewPaymentHandler(paymentSvc),
		Leads:     handler.NewLeadHandler(leadSvc),
		Courses:   handler.NewCourseHandler(courseSvc),
		Groups:    handler.NewGroupHandler(groupSvc),
		ClassLogs: handler.NewClassLogHandler(classLogSvc),
		Settings:  handler.NewSettingsHandler(settingsSvc),
		Webhooks:  handler.NewWebhookHandler(webhookSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc),
	}

	var dashboardSvc *service.DashboardService
	if cfg.Dashboard.Enabled {
		dashboardSvc = service.NewDashboardService(service.DashboardServiceParams{
			Students:   studentRepo,
			Attendance: attendanceRepo,
			Leads:      leadRepo,
			Payments:   paymentRepo,
			Cache:      cacheSvc,
			CacheTTL:   cfg.Dashboard.CacheTTL,
			Logger:     logr,
		})
		handlers.Dashboard = handler.NewDashboardHandler(dashboardSvc)
	}

	if cfg.Imports.Enabled {
		handlers.Imports = handler.NewImportHandler(importSvc, cfg.Imports.MaxBatchSize)
	}

	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(service.ExportServiceParams{
			Payments:   paymentRepo,
			Attendance: attendanceRepo,
			Students:   studentRepo,
			Storage:    fileStore,
			Signer:     signer,
			CSV:        export.NewCSVExporter(),
			PDF:        export.NewPDFExporter(),
			Logger:     logr,
			Config: service.ExportConfig{
				APIPrefix: cfg.APIPrefix,
				ResultTTL: cfg.Reports.SignedURLTTL,
			},
		})

		worker := service.NewReportWorker(reportJobRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)

		reportSvc := service.NewReportService(reportJobRepo, reportQueue, exportSvc, metricsSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		handlers.Reports = handler.NewReportHandler(reportSvc)

		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metricsSvc.SetReportQueueDepth(reportQueue.Depth())
				}
			}
		}()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, dashboardSvc, handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
