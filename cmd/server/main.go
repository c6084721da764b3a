package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/metorial/script-admin/internal/config"
	"github.com/metorial/script-admin/internal/controller"
	"github.com/metorial/script-admin/internal/discovery"
	"github.com/metorial/script-admin/internal/events"
	"github.com/metorial/script-admin/internal/health"
	"github.com/metorial/script-admin/internal/logging"
	"github.com/metorial/script-admin/internal/seed"
	"github.com/metorial/script-admin/internal/service"
	"github.com/metorial/script-admin/internal/stats"
	"github.com/metorial/script-admin/internal/store"
	"github.com/metorial/script-admin/internal/views"
	"github.com/metorial/script-admin/internal/web"
)

const (
	defaultCleanupInterval = time.Hour
	defaultHealthInterval  = 10 * time.Second
	shutdownTimeout        = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger.Desugar())

	catalog := seed.Default()
	if cfg.SeedFile != "" {
		if catalog, err = seed.Load(cfg.SeedFile); err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := service.NewMockService(cfg.RunDelay, logger)

	var runner service.Runner = mock
	if cfg.Backend == config.BackendExec {
		runner = service.NewExecRunner(cfg.Shell, cfg.RunTimeout, logger).WithDir(cfg.WorkDir)
	}

	var (
		persister service.Persister = mock
		history   web.HistoryReader
		pinger    health.Pinger
		db        *store.DB
	)
	scripts := catalog.Scripts

	if cfg.DBPath != "" {
		db, err = store.NewDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()

		seeded, err := db.SeedScripts(ctx, catalog.Scripts)
		if err != nil {
			return fmt.Errorf("seed scripts: %w", err)
		}
		if seeded > 0 {
			logger.Infow("seeded script store", "count", seeded)
		}

		if scripts, err = db.LoadScripts(ctx); err != nil {
			return fmt.Errorf("load scripts: %w", err)
		}

		persister, history, pinger = db, db, db
	}

	broker := events.NewBroker(64, logger)

	ctrl := controller.New(controller.Options{
		Runner:     runner,
		Persister:  persister,
		Categories: catalog.Categories,
		Scripts:    scripts,
		Publisher:  broker,
		Logger:     logger,
		RunTimeout: cfg.RunTimeout,
		NewID:      views.NewScriptID,
	})
	defer ctrl.Close()

	renderer, err := views.NewRenderer()
	if err != nil {
		return fmt.Errorf("initialize renderer: %w", err)
	}

	var hostStats web.StatsCollector
	if collector, err := stats.NewCollector(); err != nil {
		logger.Warnw("host stats unavailable", "error", err)
	} else {
		hostStats = collector
	}

	srv := web.NewServer(web.Options{
		Controller: ctrl,
		Renderer:   renderer,
		Broker:     broker,
		History:    history,
		Stats:      hostStats,
		Pinger:     pinger,
		Logger:     logger,
		RunTimeout: cfg.RunTimeout,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)

	var grpcServer *grpc.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		grpcServer = grpc.NewServer()
		monitor := health.NewMonitor(pinger, logger)
		monitor.Register(grpcServer)
		go monitor.Run(ctx, defaultHealthInterval)
		defer monitor.Shutdown()

		go func() {
			logger.Infow("gRPC health server listening", "port", cfg.GRPCPort)
			errChan <- grpcServer.Serve(lis)
		}()
	}

	if db != nil {
		go startMaintenanceTasks(ctx, db, cfg.HistoryRetention, logger)
	}

	if cfg.ConsulAddr != "" {
		registry, err := discovery.NewRegistry(cfg.ConsulAddr, logger)
		if err != nil {
			logger.Warnw("failed to create consul client", "error", err)
		} else if err := registry.Register(cfg.ServiceAddress, cfg.HTTPPort, cfg.GRPCPort); err != nil {
			logger.Warnw("failed to register with consul", "error", err)
		} else {
			defer registry.Deregister()
		}
	}

	go func() {
		logger.Infow("HTTP server listening", "port", cfg.HTTPPort, "backend", cfg.Backend, "scripts", len(scripts))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Infow("received signal", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("HTTP shutdown failed", "error", err)
	}
	return nil
}

func startMaintenanceTasks(ctx context.Context, db *store.DB, retention time.Duration, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := db.CleanupOldExecutions(ctx, retention)
			if err != nil {
				logger.Errorw("failed to clean up execution history", "error", err)
				continue
			}
			if removed > 0 {
				logger.Infow("cleaned up execution history", "removed", removed)
			}
		}
	}
}
