package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-rollcall-api/api/swagger"
	"github.com/noah-isme/sma-rollcall-api/internal/handler"
	"github.com/noah-isme/sma-rollcall-api/internal/middleware"
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	"github.com/noah-isme/sma-rollcall-api/pkg/config"
	"github.com/noah-isme/sma-rollcall-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-rollcall-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-rollcall-api/pkg/middleware/requestid"
)

type handlers struct {
	terms      *handler.TermHandler
	rollCalls  *handler.RollCallHandler
	attendance *handler.AttendanceHandler
	grades     *handler.GradeHandler
	metrics    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret), middleware.WithResponseMeta())

	api.GET("/metrics/summary", admin, h.metrics.Summary)

	terms := api.Group("/terms")
	terms.GET("", h.terms.List)
	terms.GET("/active", h.terms.GetActive)
	terms.POST("", admin, middleware.Audit(logr, "term.create", "term"), h.terms.Create)
	terms.POST("/:id/close", admin, middleware.Audit(logr, "term.close", "term"), h.terms.Close)
	terms.POST("/:id/reopen", admin, middleware.Audit(logr, "term.reopen", "term"), h.terms.Reopen)

	sections := api.Group("/sections/:sectionId/roll-calls")
	sections.GET("", h.rollCalls.List)
	sections.GET("/eligibility", writers, h.rollCalls.Eligibility)
	sections.POST("", writers, middleware.Audit(logr, "rollcall.create", "roll_call"), h.rollCalls.Create)
	sections.GET("/by-date/:date", h.rollCalls.FindByDate)

	rollCalls := api.Group("/roll-calls/:id/attendance")
	rollCalls.GET("", h.attendance.Sheet)
	rollCalls.PUT("/:enrollmentId", writers, middleware.Audit(logr, "attendance.mark", "attendance_detail"), h.attendance.SetMark)
	rollCalls.PUT("/:enrollmentId/observation", writers, middleware.Audit(logr, "attendance.observation", "attendance_detail"), h.attendance.SetObservation)

	api.PUT("/grades", writers, middleware.Audit(logr, "grade.record", "grade"), h.grades.Record)

	return r
}
