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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-rollcall-api/internal/handler"
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/repository"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	"github.com/noah-isme/sma-rollcall-api/pkg/cache"
	"github.com/noah-isme/sma-rollcall-api/pkg/config"
	"github.com/noah-isme/sma-rollcall-api/pkg/database"
	"github.com/noah-isme/sma-rollcall-api/pkg/logger"
	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

// @title SMA Rollcall API
// @version 1.0.0
// @description Roll-call planning, attendance and term gating for the school dashboards
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var backend repository.Backend
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		backend = repository.NewPostgresBackend(db)
		checks["database"] = db.PingContext
	default:
		client := schoolapi.New(cfg.SchoolAPI, metrics, logr)
		backend = repository.NewRemoteBackend(client)
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			defer rdb.Close()
			cacheRepo = repository.NewCacheRepository(rdb, logr)
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ScopeTTL, logr, cacheRepo != nil)

	statuses := attendanceStatuses(cfg.Attendance.Statuses)
	validate := validator.New()

	terms := service.NewTermService(backend.Terms, cacheSvc, service.TermServiceConfig{
		PeriodID:     cfg.Terms.PeriodID,
		ActiveTermID: cfg.Terms.ActiveTermID,
		CacheTTL:     cfg.Terms.CacheTTL,
	}, validate, logr)
	scope := service.NewScopeService(backend.Scope, cacheSvc, cfg.Cache.ScopeTTL, logr)
	planner := service.NewRollCallPlannerService(backend.RollCalls, terms, scope, metrics, logr)
	ledgers := service.NewLedgerRegistry(service.LedgerDeps{
		RollCalls: backend.RollCalls,
		Details:   backend.Details,
		Roster:    backend.Roster,
		Terms:     terms,
		Statuses:  statuses,
		Metrics:   metrics,
		Logger:    logr,
	}, cfg.Attendance.LedgerIdleTTL)
	attendance := service.NewAttendanceService(ledgers, scope, statuses, validate, logr)
	grades := service.NewGradeService(backend.Grades, terms, backend.Roster, scope, validate, logr)

	router := newRouter(cfg, logr, metrics, handlers{
		terms:      handler.NewTermHandler(terms),
		rollCalls:  handler.NewRollCallHandler(planner),
		attendance: handler.NewAttendanceHandler(attendance),
		grades:     handler.NewGradeHandler(grades),
		metrics:    handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ledgers.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func attendanceStatuses(raw []string) []models.AttendanceStatus {
	if len(raw) == 0 {
		return models.DefaultAttendanceStatuses
	}
	statuses := make([]models.AttendanceStatus, 0, len(raw))
	for _, value := range raw {
		if status := models.NormalizeAttendanceStatus(value); status != "" {
			statuses = append(statuses, status)
		}
	}
	return statuses
}
