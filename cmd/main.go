package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vendor-service/internal/handler"
	"vendor-service/internal/jobs"
	"vendor-service/internal/middleware"
	"vendor-service/internal/performance"
	"vendor-service/internal/purchaseorder"
	"vendor-service/internal/repository"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer func() { _ = log.Sync() }()
	log.Info("Starting vendor service...", zap.String("environment", cfg.Server.Env))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg.Metrics.Prefix)
	log.Info("Prometheus metrics initialized", zap.String("prefix", cfg.Metrics.Prefix))

	// Initialize database and run migrations
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := jwtutil.NewJWTUtil(&cfg.JWT)

	vendors := repository.NewVendorRepo(db)
	orders := repository.NewPurchaseOrderRepo(db)
	history := repository.NewPerformanceLogRepo(db)
	jobRuns := repository.NewJobRunRepo(db)
	users := repository.NewUserRepo(db)

	// Workers are woken through Redis when configured, otherwise in-process
	var notifier jobs.Notifier = jobs.NewLocalNotifier()
	if cfg.Redis.Enabled() {
		rn, err := jobs.NewRedisNotifier(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("Redis unavailable, workers will rely on polling", zap.Error(err))
		} else {
			notifier = rn
			log.Info("Redis job notifier connected",
				zap.String("addr", cfg.Redis.Addr),
				zap.String("channel", cfg.Redis.Channel))
		}
	}
	defer func() { _ = notifier.Close() }()

	queue := jobs.NewQueue(jobRuns, notifier, log)
	engine := performance.NewEngine(db, vendors, orders, history, log)
	registry := jobs.NewRegistry()
	if err := performance.RegisterTasks(registry, engine); err != nil {
		log.Fatal("Failed to register job handlers", zap.Error(err))
	}
	worker := jobs.NewWorker(db, jobRuns, registry, notifier, cfg.Worker, log)

	poService := purchaseorder.NewService(db, vendors, orders, queue, log)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware())
	e.Use(logger.Middleware())

	handler.RegisterRoutes(e, handler.Handlers{
		Health:                handler.NewHealthHandler(db, jobRuns),
		Auth:                  handler.NewAuthHandler(users, tokens),
		Vendors:               handler.NewVendorHandler(vendors, history),
		PurchaseOrders:        handler.NewPurchaseOrderHandler(poService),
		HistoricalPerformance: handler.NewHistoricalPerformanceHandler(history),
	}, tokens)

	if count, err := vendors.Count(ctx); err == nil {
		prometheus.UpdateActiveVendors(count)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return worker.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error", zap.Error(err))
		return
	}
	log.Info("Service stopped")
}
