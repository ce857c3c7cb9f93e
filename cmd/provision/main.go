package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/epiviu-api/internal/repository"
	"github.com/noah-isme/epiviu-api/internal/service"
	"github.com/noah-isme/epiviu-api/pkg/cache"
	"github.com/noah-isme/epiviu-api/pkg/config"
	"github.com/noah-isme/epiviu-api/pkg/database"
	"github.com/noah-isme/epiviu-api/pkg/logger"
)

func main() {
	var (
		rosterPath string
		timeout    time.Duration
	)
	flag.StringVar(&rosterPath, "file", "roster.yaml", "Path to the YAML roster")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Provisioning timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	data, err := os.ReadFile(rosterPath)
	if err != nil {
		logr.Fatal("failed to read roster", zap.String("file", rosterPath), zap.Error(err))
	}
	roster, err := service.ParseRoster(data)
	if err != nil {
		logr.Fatal("invalid roster", zap.String("file", rosterPath), zap.Error(err))
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := repository.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to migrate schema", zap.Error(err))
	}

	validate := validator.New()
	staffRepo := repository.NewStaffRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, cached reports are not invalidated", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), nil, cfg.Reports.CacheTTL, logr, redisClient != nil)

	provisioner := service.NewProvisionService(
		staffRepo,
		service.NewStaffService(staffRepo, cacheSvc, validate, logr),
		service.NewSectorService(sectorRepo, staffRepo, cacheSvc, validate, logr),
		cacheSvc,
		logr,
	)
	result, err := provisioner.Apply(ctx, roster)
	if err != nil {
		logr.Fatal("provisioning failed", zap.Error(err))
	}
	logr.Sugar().Infow("provisioning finished", "file", rosterPath, "staffCreated", result.StaffCreated, "sectorsCreated", result.SectorsCreated)
}
