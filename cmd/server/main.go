package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/followup/api/handler"
	"github.com/fastygo/followup/internal/config"
	"github.com/fastygo/followup/internal/infrastructure/journal"
	"github.com/fastygo/followup/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/followup/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/followup/internal/infrastructure/redis"
	"github.com/fastygo/followup/internal/middleware"
	"github.com/fastygo/followup/internal/query"
	"github.com/fastygo/followup/internal/router"
	"github.com/fastygo/followup/internal/services"
	"github.com/fastygo/followup/internal/services/lifecycle"
	"github.com/fastygo/followup/pkg/httpcontext"
	"github.com/fastygo/followup/pkg/logger"
	"github.com/fastygo/followup/repository/postgres"
	redisRepo "github.com/fastygo/followup/repository/redis"
	dashboardUC "github.com/fastygo/followup/usecase/dashboard"
	taskUC "github.com/fastygo/followup/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.WaitForSignal(context.Background())
	defer cancel()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	failureJournal, err := journal.Open(cfg.Journal.Path, "")
	if err != nil {
		zapLogger.Fatal("failed to open broadcast failure journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return failureJournal.Close()
	})

	mon := monitor.New(pool, redisClient, failureJournal, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	applicationRepo := postgres.NewApplicationRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	broadcaster := redisRepo.NewBroadcaster(redisClient)

	taskUseCase := taskUC.New(applicationRepo, taskRepo, broadcaster, services.NewJournalBridge(failureJournal), zapLogger)

	queryClient := query.NewClient(zapLogger)
	dashboardUseCase := dashboardUC.New(taskRepo, queryClient, cfg.Dashboard.Location, zapLogger)

	scheduler := services.NewScheduler(zapLogger)
	if err := scheduler.Every("dashboard.refresh", cfg.Dashboard.RefreshInterval, services.RefreshDashboard(dashboardUseCase)); err != nil {
		zapLogger.Fatal("scheduler setup failed", zap.Error(err))
	}
	retention := time.Duration(cfg.Journal.RetentionHours) * time.Hour
	if err := scheduler.Every("journal.prune", cfg.Journal.PruneInterval, services.PruneJournal(failureJournal, retention, zapLogger)); err != nil {
		zapLogger.Fatal("scheduler setup failed", zap.Error(err))
	}
	scheduler.Start()
	manager.Register("scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})

	if cfg.Dashboard.ListenBroadcast {
		listenCtx, stopListening := context.WithCancel(appCtx)
		listener := services.NewBroadcastListener(redisClient, dashboardUseCase, zapLogger)
		manager.Go(listenCtx, "broadcast_listener", listener.Run)
		manager.Register("broadcast_listener", func(ctx context.Context) error {
			stopListening()
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:      apiHandler.NewTaskHandler(taskUseCase, cfg.Dashboard.Location, ctxAdapter, zapLogger),
		Dashboard: apiHandler.NewDashboardHandler(dashboardUseCase, cfg.Dashboard.Location, cfg.AppName, ctxAdapter, zapLogger),
		Failures:  apiHandler.NewFailureHandler(failureJournal, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
