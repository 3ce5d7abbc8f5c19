package main

import (
	"alcyxob/fitness-schedule/internal/api"
	"alcyxob/fitness-schedule/internal/config"
	"alcyxob/fitness-schedule/internal/health"
	"alcyxob/fitness-schedule/internal/lock"
	"alcyxob/fitness-schedule/internal/observability"
	"alcyxob/fitness-schedule/internal/repository/mongo"
	"alcyxob/fitness-schedule/internal/service"
	"alcyxob/fitness-schedule/internal/storage"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Version is set via ldflags at build time
var Version = "dev"

// @title Fitness Schedule API
// @version 1.0
// @description Plans, plan application and per-user schedules.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("could not load config", slog.String("error", err.Error()))
		return 1
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid schedule timezone", slog.String("error", err.Error()))
		return 1
	}

	// --- Observability ---
	obs, err := observability.Init(ctx, observability.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		LogLevel:       cfg.SlogLevel(),
		LogOutput:      os.Stdout,
	})
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()
	slog.SetDefault(obs.Logger())
	slog.Info("starting fitness schedule server", slog.String("timezone", loc.String()))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		slog.Error("could not connect to MongoDB", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		slog.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			slog.Warn("failed to disconnect MongoDB", slog.String("error", err.Error()))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	slog.Info("database connection established", slog.String("database", cfg.Database.Name))

	go func() { // index creation runs in the background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
	}()

	// --- Apply lock ---
	var (
		locker      = lock.NewNoopLocker()
		redisClient redis.UniversalClient
	)
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisotel.InstrumentTracing(client); err != nil {
			slog.Error("failed to instrument redis tracing", slog.String("error", err.Error()))
			return 1
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			slog.Error("failed to instrument redis metrics", slog.String("error", err.Error()))
			return 1
		}
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect redis", slog.String("error", err.Error()))
			return 1
		}
		defer func() {
			if err := client.Close(); err != nil {
				slog.Warn("failed to close redis client", slog.String("error", err.Error()))
			}
		}()
		slog.Info("redis connected", slog.String("addr", cfg.Redis.Addr))

		redisClient = client
		locker = lock.NewRedisLocker(client, cfg.Redis.LockTTL, cfg.Redis.LockWait)
	} else {
		slog.Warn("redis not configured; plan applications are not serialized per user")
	}

	// --- Initialize Storage ---
	media := storage.NewDisabledStorage()
	if cfg.S3.Enabled() {
		media, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			slog.Error("failed to initialize S3 storage", slog.String("error", err.Error()))
			return 1
		}
	}

	// --- Initialize Repositories ---
	planRepo := mongo.NewMongoPlanRepository(appDB)
	scheduleRepo := mongo.NewMongoScheduleRepository(appDB)
	itemRepo := mongo.NewMongoItemRepository(appDB)
	txRunner := mongo.NewTxRunner(dbClient, cfg.Database.Transactions)

	applyMetrics, err := observability.NewApplyMetrics()
	if err != nil {
		slog.Error("failed to initialize apply metrics", slog.String("error", err.Error()))
		return 1
	}

	// --- Initialize Services ---
	planService := service.NewPlanService(planRepo, itemRepo)
	applyService := service.NewApplyService(planRepo, scheduleRepo, txRunner, locker, applyMetrics, loc)
	scheduleService := service.NewScheduleService(scheduleRepo, itemRepo, media, loc)

	checker := health.NewChecker(dbClient, redisClient, Version)

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestContext(slog.Default()))
	api.SetupRoutes(router, cfg.JWT.Secret, loc, checker, planService, applyService, scheduleService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("addr", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		slog.Error("listen error", slog.String("error", err.Error()))
		return 1
	case <-quit:
	}
	slog.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
		return 1
	}

	slog.Info("server exiting")
	return 0
}
