package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/eventbus"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	projectUC "github.com/fastygo/taskboard/usecase/project"
	"github.com/fastygo/taskboard/usecase/reaction"
	taskUC "github.com/fastygo/taskboard/usecase/task"
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

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	mon := monitor.New(10*time.Second, zapLogger)

	repos, err := openStorage(appCtx, cfg, mon, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage initialisation failed", zap.Error(err))
	}

	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	bus := eventbus.New(zapLogger,
		eventbus.WithMaxDepth(cfg.Events.MaxDepth),
		eventbus.WithMaxEvents(cfg.Events.MaxPerPublish),
	)
	if _, err := reaction.Register(bus, repos.tasks, repos.projects, reaction.Options{
		AutoCompleteProject: cfg.Events.AutoCompleteProject,
	}, zapLogger); err != nil {
		zapLogger.Fatal("event handler registration failed", zap.Error(err))
	}

	taskUseCase := taskUC.New(repos.tasks, repos.projects, bus, zapLogger)
	projectUseCase := projectUC.New(repos.projects, repos.tasks, bus, zapLogger)

	if cfg.Watcher.Enabled {
		watcher := services.NewDeadlineWatcher(repos.tasks, mon, zapLogger, services.WatcherConfig{
			Interval: cfg.Watcher.Interval,
			Window:   cfg.Watcher.Window,
		})
		watcher.Start()
		manager.Register("deadline_watcher", func(ctx context.Context) error {
			watcher.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:    apiHandler.NewTaskHandler(taskUseCase, cfg.Events.AutoCompleteProject, cfg.Watcher.Window, ctxAdapter, zapLogger),
		Project: apiHandler.NewProjectHandler(projectUseCase, taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, cfg.Storage.Driver, ctxAdapter, zapLogger),
	}

	if cfg.JWT.Secret == "" {
		zapLogger.Warn("JWT_SECRET not set, API routes are unauthenticated")
	}
	r := router.New(handlers, middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger))

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
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
