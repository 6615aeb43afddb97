package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/progreso-dashboard/internal/handler"
	"github.com/noah-isme/progreso-dashboard/internal/middleware"
	"github.com/noah-isme/progreso-dashboard/internal/models"
	"github.com/noah-isme/progreso-dashboard/internal/service"
	"github.com/noah-isme/progreso-dashboard/pkg/config"
	"github.com/noah-isme/progreso-dashboard/pkg/logger"
	corsmiddleware "github.com/noah-isme/progreso-dashboard/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/progreso-dashboard/pkg/middleware/requestid"
)

type routerDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Auth     *service.AuthService
	Metrics  *service.MetricsService
	Progress *handler.ProgressHandler
	Imports  *handler.ImportHandler
}

func newRouter(deps routerDeps) *gin.Engine {
	cfg := deps.Config
	metricsHandler := handler.NewMetricsHandler(deps.Metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.Auth))

	api.GET("/materias/progreso", deps.Progress.Subjects)
	api.GET("/materias/:name/rendimiento-paralelo", deps.Progress.Sections)
	api.GET("/materia/:name/elementos-por-paralelo", deps.Progress.Elements)
	api.GET("/materia/:name/graficos", deps.Progress.Charts)

	imports := api.Group("/imports")
	imports.POST("", deps.Imports.Open)
	imports.GET("/template", deps.Imports.Template)
	imports.GET("/history", middleware.RequireRoles(models.RoleAdmin), deps.Imports.History)
	imports.GET("/:id", deps.Imports.Get)
	imports.DELETE("/:id", deps.Imports.Discard)
	imports.POST("/:id/validate", deps.Imports.Validate)
	imports.POST("/:id/upload", deps.Imports.Upload)
	imports.GET("/:id/report", deps.Imports.Report)

	api.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Summary)

	return r
}
