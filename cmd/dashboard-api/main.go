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
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/progreso-dashboard/api/swagger"
	"github.com/noah-isme/progreso-dashboard/internal/handler"
	"github.com/noah-isme/progreso-dashboard/internal/repository"
	"github.com/noah-isme/progreso-dashboard/internal/service"
	"github.com/noah-isme/progreso-dashboard/pkg/apiclient"
	"github.com/noah-isme/progreso-dashboard/pkg/cache"
	"github.com/noah-isme/progreso-dashboard/pkg/config"
	"github.com/noah-isme/progreso-dashboard/pkg/database"
	"github.com/noah-isme/progreso-dashboard/pkg/export"
	"github.com/noah-isme/progreso-dashboard/pkg/logger"
	"github.com/noah-isme/progreso-dashboard/pkg/storage"
)

// @title Progreso Dashboard API
// @version 1.0.0
// @description Competency progress dashboard and Excel bulk import
// @BasePath /api
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Progress.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, progress cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, service.CacheConfig{
		Enabled:    cacheRepo != nil,
		DefaultTTL: cfg.Progress.CacheTTL,
	}, logr)

	auditSvc, auditDB := newAuditService(ctx, cfg, metrics, logr)
	if auditDB != nil {
		defer auditDB.Close() //nolint:errcheck
	}
	// The audit queue outlives the signal context so uploads finishing during
	// shutdown are still recorded; Stop drains it after the server is down.
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	client := apiclient.New(apiclient.Config{
		BaseURL:  cfg.Upstream.BaseURL,
		Timeout:  cfg.Upstream.Timeout,
		Observer: metrics,
		Logger:   logr,
	})

	archive, err := storage.NewLocalStorage(cfg.Imports.ArchiveDir)
	if err != nil {
		logr.Fatal("failed to init archive storage", zap.Error(err))
	}

	validate := validator.New()
	progressSvc := service.NewProgressService(service.ProgressServiceParams{
		Source:    client,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
	})
	importSvc := service.NewImportService(service.ImportServiceParams{
		Uploader: client,
		Cache:    cacheSvc,
		Audit:    auditSvc,
		Archive:  archive,
		Metrics:  metrics,
		CSV:      export.NewCSVExporter(true),
		PDF:      export.NewPDFExporter("Progreso Dashboard"),
		Logger:   logr,
		Config: service.ImportServiceConfig{
			MaxFileSize:       cfg.Imports.MaxFileSizeBytes,
			AllowedExtensions: cfg.Imports.AllowedExtensions,
			ValidationDelay:   cfg.Imports.ValidationDelay,
			ArchiveTTL:        cfg.Imports.ArchiveTTL,
		},
	})
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})

	go runArchiveCleanup(ctx, importSvc, cfg.Imports.CleanupInterval, logr)

	router := newRouter(routerDeps{
		Config:   cfg,
		Logger:   logr,
		Auth:     authSvc,
		Metrics:  metrics,
		Progress: handler.NewProgressHandler(progressSvc),
		Imports:  handler.NewImportHandler(importSvc, auditSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
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

// newAuditService connects to Postgres only when auditing is on. A database
// that cannot be reached disables auditing instead of failing startup. The
// returned handle, when non-nil, must be closed by the caller.
func newAuditService(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.ImportAuditService, *sqlx.DB) {
	auditCfg := service.ImportAuditConfig{
		Enabled:    cfg.Imports.AuditEnabled,
		Workers:    cfg.Imports.AuditWorkers,
		MaxRetries: cfg.Imports.AuditRetries,
		RetryDelay: time.Second,
	}
	if !auditCfg.Enabled {
		return service.NewImportAuditService(nil, auditCfg, logr), nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Warn("postgres unavailable, import audit disabled", zap.Error(err))
		return service.NewImportAuditService(nil, auditCfg, logr), nil
	}
	repo := repository.NewImportAuditRepository(db, metrics)
	if err := repo.EnsureSchema(ctx); err != nil {
		logr.Warn("import audit schema not ready", zap.Error(err))
		_ = db.Close()
		return service.NewImportAuditService(nil, auditCfg, logr), nil
	}
	return service.NewImportAuditService(repo, auditCfg, logr), db
}

func runArchiveCleanup(ctx context.Context, imports *service.ImportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := imports.PurgeArchives(0); err != nil {
				logr.Warn("archive cleanup failed", zap.Error(err))
			}
		}
	}
}
