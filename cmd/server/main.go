// Package main implements the shop analyser HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/shopanalyser/backend/internal/app"
	"github.com/shopanalyser/backend/internal/config"
	"github.com/shopanalyser/backend/internal/store"
	"github.com/shopanalyser/backend/pkg/bootstrap"
	pcfg "github.com/shopanalyser/backend/pkg/config"
	"github.com/shopanalyser/backend/pkg/config/configloader"
	"github.com/shopanalyser/backend/pkg/messaging"
	pnats "github.com/shopanalyser/backend/pkg/nats"
	"github.com/shopanalyser/backend/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "shopanalyser"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, sets up the product store, and starts the HTTP and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down tracer provider", slog.Any("error", err))
			}
		}()
	}

	repo, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	publisher, pubCleanup, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer pubCleanup()

	httpServer, pprofServer := setupServers(repo, publisher, logger, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newStore builds the product store selected by the store driver. The returned
// cleanup releases the underlying resources and is safe to call once.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProductStore, func(), error) {
	switch cfg.Store.Driver {
	case pcfg.StoreDriverPostgres:
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		logger.Info("Successfully connected to the database!")
		if cfg.Database.Migrations != "" {
			if err := bootstrap.Migrate(cfg.Database.Migrations, cfg.Database.URL); err != nil {
				dbPool.Close()
				return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
			}
			logger.Info("Database migrations applied", slog.String("source", cfg.Database.Migrations))
		}
		return store.NewPgStore(dbPool), dbPool.Close, nil
	case pcfg.StoreDriverFile:
		fileStore, err := store.NewFileStore(cfg.Store.File, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open product file store: %w", err)
		}
		logger.Info("Product file store opened", slog.String("path", cfg.Store.File))
		return fileStore, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}

// newPublisher connects to NATS when messaging is enabled. A nil publisher
// disables stock alerts without affecting the rest of the service.
func newPublisher(cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.NATS.Enabled {
		return nil, func() {}, nil
	}
	nc, err := pnats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := pnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Successfully connected to NATS!", slog.String("url", cfg.NATS.Url))
	return pnats.NewNatsPublisher(js), nc.Close, nil
}

// setupServers initializes the HTTP and pprof servers with the provided store, publisher, logger, and configuration.
func setupServers(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger, cfg *config.Config) (*http.Server, *http.Server) {
	deps := app.SetupDependencies(repo, publisher, logger)
	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}
	return httpServer, pprofServer
}
