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

	_ "github.com/noah-isme/vtc-gradebook-api/api/swagger"
	"github.com/noah-isme/vtc-gradebook-api/internal/handler"
	"github.com/noah-isme/vtc-gradebook-api/internal/middleware"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	"github.com/noah-isme/vtc-gradebook-api/internal/service"
	"github.com/noah-isme/vtc-gradebook-api/pkg/cache"
	"github.com/noah-isme/vtc-gradebook-api/pkg/config"
	"github.com/noah-isme/vtc-gradebook-api/pkg/database"
	"github.com/noah-isme/vtc-gradebook-api/pkg/jobs"
	"github.com/noah-isme/vtc-gradebook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/vtc-gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vtc-gradebook-api/pkg/middleware/requestid"
)

// @title VTC Gradebook API
// @version 1.0.0
// @description Continuous assessment gradebooks for vocational training centres.
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, roster locks fall back to postgres", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	gradebookRepo := repository.NewGradebookRepository(db)
	componentRepo := repository.NewComponentRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	markRepo := repository.NewMarkRepository(db)
	queryRepo := repository.NewMarkQueryRepository(db)
	lockRepo := repository.NewLockRepository(redisClient, "vtc:", logr)

	validate := validator.New()
	metrics := service.NewMetricsService()
	auth := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	queue := jobs.NewQueue("roster", jobs.QueueConfig{
		Workers:    cfg.Roster.Workers,
		MaxRetries: cfg.Roster.Retries,
		Logger:     logr,
	})
	rosterSvc := service.NewRosterService(gradebookRepo, rosterRepo, lockRepo, queue, metrics, service.RosterConfig{LockTTL: cfg.Roster.LockTTL}, logr)
	queue.Handle(service.JobTypeRosterReconcile, rosterSvc.HandleJob)
	queue.Start(ctx)
	defer queue.Stop()

	gradebookSvc := service.NewGradebookService(gradebookRepo, componentRepo, rosterRepo, markRepo, validate, logr,
		service.WithRosterScheduler(rosterSvc, cfg.Roster.AutoReconcile))
	lifecycleSvc := service.NewLifecycleService(gradebookRepo, metrics, logr)
	componentSvc := service.NewComponentService(gradebookRepo, componentRepo, validate, logr)
	markSvc := service.NewMarkService(gradebookRepo, componentRepo, rosterRepo, markRepo, metrics, validate, logr)
	querySvc := service.NewMarkQueryService(gradebookRepo, componentRepo, rosterRepo, queryRepo, validate, logr)
	exportSvc := service.NewExportService(gradebookRepo, componentRepo, rosterRepo, metrics, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metrics))
	}

	registerRoutes(r, cfg, logr, auth, routeHandlers{
		gradebooks: handler.NewGradebookHandler(gradebookSvc, lifecycleSvc),
		components: handler.NewComponentHandler(componentSvc),
		marks:      handler.NewMarkHandler(markSvc),
		roster:     handler.NewRosterHandler(rosterSvc),
		queries:    handler.NewMarkQueryHandler(querySvc),
		exports:    handler.NewExportHandler(exportSvc),
		ops:        handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
