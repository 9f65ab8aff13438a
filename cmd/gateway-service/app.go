package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq" // PostgreSQL driver

	"easymo/internal/config"
	"easymo/internal/constants"
	"easymo/internal/logger"
	"easymo/internal/queue"
	"easymo/internal/routing"
	"easymo/internal/webhook"
	"easymo/internal/worker"
	"easymo/pkg/bootstrap"
	"easymo/pkg/health"
	"easymo/pkg/metrics"
	"easymo/pkg/middleware"
	"easymo/pkg/ratelimit"
)

type App struct {
	config      *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redisClient *redis.Client
	worker      *worker.Runtime
	server      *http.Server
	router      *gin.Engine
	sweeperStop chan struct{}
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
		sweeperStop: make(chan struct{}),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initWorker(); err != nil {
		return fmt.Errorf("failed to initialize worker: %w", err)
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redisClient = rdb

	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	return nil
}

func (a *App) initWorker() error {
	if !a.config.Worker.Enabled {
		a.logger.Info("Outbound worker disabled")
		return nil
	}

	q, err := queue.New(a.config.Queue, a.redisClient)
	if err != nil {
		return err
	}

	sender := worker.NewProviderClient(a.config.Worker, a.config.CircuitBreaker)
	a.worker = worker.NewRuntime(q, sender, a.logger)
	return nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	metrics.RegisterGatewayMetrics()

	limitStore := ratelimit.NewStore()
	limitStore.StartSweeper(constants.RateLimitSweepInterval, a.sweeperStop)
	limitCfg := ratelimit.Config{
		MaxRequests: a.config.RateLimit.MaxRequests,
		Window:      a.config.RateLimit.Window(),
	}

	msgRouter, err := routing.NewRouter(a.config.Destinations.URLMap())
	if err != nil {
		return err
	}

	handler := webhook.NewHandler(
		a.config.Webhook.VerifyToken,
		webhook.NewVerifier(a.config.Webhook.SigningSecret),
		webhook.NewNormalizer(a.logger),
		msgRouter,
		routing.NewForwarder(constants.DefaultForwardTimeout),
		limitStore,
		limitCfg,
		a.logger,
	)
	handler.RegisterRoutes(router, ratelimit.Middleware(limitStore, limitCfg))

	aggregator := health.NewAggregator()
	aggregator.Register(health.NewExternalAPIChecker(
		"external_api",
		a.config.Dependencies.ExternalAPI.URL,
		a.config.Dependencies.ExternalAPI.APIKey,
		a.config.Dependencies.ExternalAPI.TimeoutSeconds*time.Second,
	))
	aggregator.Register(health.NewRedisChecker(a.redisClient, constants.DefaultProbeTimeout))
	aggregator.Register(health.NewPostgresChecker(a.db, constants.DefaultProbeTimeout))
	if a.worker != nil {
		aggregator.WithWorker(func() health.WorkerReport {
			return health.WorkerReport{
				Running: a.worker.IsStarted(),
				Metrics: a.worker.GetMetrics(),
			}
		})
	}

	router.GET("/health", func(c *gin.Context) {
		report := aggregator.Report(c.Request.Context())
		statusCode := http.StatusOK
		if report.Status != health.StatusOK {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, report)
	})

	router.GET("/metrics", func(c *gin.Context) {
		snapshot := gin.H{
			"timestamp": time.Now().UTC(),
			"worker":    nil,
		}
		if a.worker != nil {
			snapshot["worker"] = gin.H{
				"running": a.worker.IsStarted(),
				"metrics": a.worker.GetMetrics(),
			}
		}
		c.JSON(http.StatusOK, snapshot)
	})

	router.GET("/metrics/prometheus", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) initServer() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeoutSeconds * time.Second,
		WriteTimeout: a.config.Server.WriteTimeoutSeconds * time.Second,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a.worker != nil {
		if err := a.worker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.worker != nil {
		if err := a.worker.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("worker shutdown error: %w", err))
		}
	}

	close(a.sweeperStop)

	dbErrs := a.dbConnector.ShutdownDatabases(a.redisClient, a.db)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
