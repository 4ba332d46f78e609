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
	"github.com/go-playground/validator/v10"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/handler"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/middleware"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/repository"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/service"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/cache"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/config"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/database"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/jobs"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/logger"
	corsmiddleware "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/middleware/requestid"
)

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

	loc := time.Local
	if cfg.Attendance.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Attendance.Timezone)
		if err != nil {
			logr.Sugar().Fatalw("invalid timezone", "timezone", cfg.Attendance.Timezone, "error", err)
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Lookup caches fall back to the database when redis is down.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	attendanceRepo := repository.NewAttendanceRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	geofenceRepo := repository.NewGeofenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetricsService()

	var notifier *service.NotificationService
	alertQueue := jobs.NewQueue("alerts", func(ctx context.Context, job jobs.Job) error {
		return notifier.Deliver(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notifier = service.NewNotificationService(alertQueue, metrics, logr)
	alertQueue.Start(ctx)
	defer alertQueue.Stop()

	validate := validator.New()

	geofenceSvc := service.NewGeofenceService(geofenceRepo, cacheRepo, cfg.Attendance.GeofenceCacheTTL, logr)
	calendarSvc := service.NewCalendarService(calendarRepo, calendarRepo, cacheRepo, cfg.Attendance.HolidayCacheTTL, logr)
	shiftSvc := service.NewShiftService(employeeRepo, cfg.Attendance, logr)
	reconciliationSvc := service.NewReconciliationService(
		attendanceRepo, employeeRepo, shiftSvc, geofenceSvc, notifier,
		validate, logr, cfg.Attendance, loc,
	)
	correctionSvc := service.NewCorrectionService(
		attendanceRepo, employeeRepo, shiftSvc, notifier,
		validate, logr, cfg.Attendance, loc,
	)
	backfillSvc := service.NewBackfillService(
		attendanceRepo, employeeRepo, calendarSvc, calendarRepo, shiftSvc, metrics,
		validate, logr, cfg.Backfill, loc,
	)
	backfillSvc.Start(ctx)

	auditSvc := service.NewAuditService(auditRepo, logr)

	attendanceHandler := handler.NewAttendanceHandler(reconciliationSvc, correctionSvc)
	schedulerHandler := handler.NewSchedulerHandler(backfillSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		attendance := api.Group("/attendance")
		attendance.POST("/check-in", attendanceHandler.CheckIn)
		attendance.POST("/check-out", attendanceHandler.CheckOut)
		attendance.PATCH("/check-in", attendanceHandler.EditCheckIn)
		attendance.PATCH("/check-out", attendanceHandler.EditCheckOut)
		attendance.POST("/break", attendanceHandler.AddBreak)
		attendance.PATCH("/break", attendanceHandler.EditBreak)
		attendance.PATCH("/overtime", attendanceHandler.SetOvertime)
		attendance.POST("/mark-absent", attendanceHandler.MarkAbsent)
		attendance.GET("/records", attendanceHandler.List)
		attendance.GET("/records/:id", attendanceHandler.Get)
		attendance.PATCH("/records/:id", attendanceHandler.Update)
		attendance.DELETE("/records/:id", attendanceHandler.Delete)
		attendance.GET("/records/:id/audit", auditHandler.ListForRecord)

		scheduler := api.Group("/scheduler")
		scheduler.POST("/backfill", schedulerHandler.RunRange)
		scheduler.POST("/backfill/daily", schedulerHandler.RunDaily)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
