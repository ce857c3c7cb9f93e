package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/epiviu-api/api/swagger"
	"github.com/noah-isme/epiviu-api/internal/handler"
	"github.com/noah-isme/epiviu-api/internal/middleware"
	"github.com/noah-isme/epiviu-api/internal/repository"
	"github.com/noah-isme/epiviu-api/internal/service"
	"github.com/noah-isme/epiviu-api/pkg/cache"
	"github.com/noah-isme/epiviu-api/pkg/config"
	"github.com/noah-isme/epiviu-api/pkg/database"
	"github.com/noah-isme/epiviu-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/epiviu-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/epiviu-api/pkg/middleware/requestid"
)

// @title EpiViu API
// @version 1.0.0
// @description Shift-based sector visitation tracking
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to migrate schema", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	clock := service.Clock{Now: time.Now, Location: cfg.Location()}

	staffRepo := repository.NewStaffRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	visitRepo := repository.NewMissedVisitRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)
	auditSvc := service.NewAuditService(auditRepo, logr)

	authSvc := service.NewAuthService(staffRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	staffSvc := service.NewStaffService(staffRepo, cacheSvc, validate, logr)
	sectorSvc := service.NewSectorService(sectorRepo, staffRepo, cacheSvc, validate, logr)
	visitSvc := service.NewVisitService(visitRepo, sectorRepo, staffRepo, cacheSvc, metricsSvc, clock, logr)
	reportSvc := service.NewReportService(reportRepo, cacheSvc, clock, cfg.Reports.CacheTTL, logr).WithQueryObserver(metricsSvc)

	reportHandler := handler.NewReportHandler(reportSvc, nil)
	if cfg.Reports.ExportEnabled {
		reportHandler = handler.NewReportHandler(reportSvc, service.NewExportService(reportSvc, nil, logr))
	}

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Staff:   handler.NewStaffHandler(staffSvc),
		Sectors: handler.NewSectorHandler(sectorSvc),
		Visits:  handler.NewVisitHandler(visitSvc),
		Reports: reportHandler,
		Metrics: handler.NewMetricsHandler(metricsSvc, checks),
	}, handler.RouteDeps{
		Tokens: authSvc,
		Staff:  staffRepo,
		Audit:  auditSvc,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
