package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-attendance-api/api/swagger"
	"github.com/noah-isme/lms-attendance-api/internal/handler"
	"github.com/noah-isme/lms-attendance-api/internal/lms"
	"github.com/noah-isme/lms-attendance-api/internal/middleware"
	"github.com/noah-isme/lms-attendance-api/internal/repository"
	"github.com/noah-isme/lms-attendance-api/internal/service"
	"github.com/noah-isme/lms-attendance-api/pkg/cache"
	"github.com/noah-isme/lms-attendance-api/pkg/config"
	"github.com/noah-isme/lms-attendance-api/pkg/database"
	"github.com/noah-isme/lms-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-attendance-api/pkg/middleware/requestid"
)

// @title LMS Attendance API
// @version 1.0.0
// @description Attendance resolution proxy in front of a TalentLMS-style API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Key lookups fall back to the database when Redis is down.
		logr.Warn("redis unavailable, continuing without key cache", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	keyRepo := repository.NewAPIKeyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	keySvc := service.NewAPIKeyService(keyRepo, cacheRepo, cfg.Attendance.KeyCacheTTL, validate, logr, metricsSvc)
	authSvc := service.NewAuthService(cfg.Auth, validate, logr)
	lmsClient := lms.New(cfg.LMS, cfg.Policy, logr, metricsSvc)
	attendanceSvc := service.NewAttendanceService(lmsClient, cfg.Policy, validate, logr, metricsSvc)

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, cfg.Attendance.DefaultView)
	keyHandler := handler.NewAPIKeyHandler(keySvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/token", authHandler.Token)

	keys := api.Group("/keys", middleware.JWT(authSvc))
	keys.POST("", keyHandler.Create)
	keys.GET("", keyHandler.List)
	keys.DELETE("/:id", keyHandler.Deactivate)

	protected := api.Group("", middleware.APIKey(keySvc))
	protected.GET("/attendance", attendanceHandler.Get)
	protected.GET("/attendance/export", attendanceHandler.Export)
	protected.GET("/training-units", attendanceHandler.Units)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
