package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/crossdex/internal/db/redis"
	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/metrics"
	"github.com/kailas-cloud/crossdex/internal/renderer"
	"github.com/kailas-cloud/crossdex/internal/repository/snapshot"
	"github.com/kailas-cloud/crossdex/internal/repository/state"
	chiTransport "github.com/kailas-cloud/crossdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/crossdex/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/crossdex/internal/usecase/indexer"
	"github.com/kailas-cloud/crossdex/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  "Starts the orchestrator behind an HTTP API with Redis-backed request state and index snapshots.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	logger := c.logger
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting crossdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", c.cfg.HTTP.Port),
		zap.Strings("db_addrs", c.cfg.Database.Addrs),
		zap.Int("partitions", len(c.cfg.Index.Partitions)),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    c.cfg.Database.Addrs,
		Password: c.cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.WaitForReady(ctx, time.Duration(c.cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register orchestration metrics explicitly (no init())
	metrics.RegisterOrchestrationMetrics()

	states := state.New(store, c.cfg.Index.KeyPrefix)
	c.requests.WithStateStore(states)

	snaps := snapshot.New(store, c.cfg.Index.KeyPrefix)
	indexer := indexeruc.New(c.builder, c.index, snaps)

	// Restore the last snapshot; fall back to a full scan when the store
	// holds none and partitions are configured.
	if err := indexer.Restore(ctx); err != nil {
		if !errors.Is(err, domain.ErrIndexNotReady) {
			return fmt.Errorf("restore index snapshot: %w", err)
		}
		if len(c.cfg.Index.Partitions) > 0 {
			stats, err := indexer.Rebuild(ctx)
			if err != nil {
				return fmt.Errorf("initial index build: %w", err)
			}
			logger.Info("Built index from partitions",
				zap.Int("records", stats.Records),
				zap.Int("inconsistencies", stats.Inconsistencies),
			)
		} else {
			logger.Warn("No snapshot and no partitions configured; index stays not ready until a rebuild")
		}
	} else {
		logger.Info("Restored index snapshot", zap.Int("records", c.index.Len()))
		if len(c.cfg.Index.Partitions) > 0 {
			// Pick up files added to the partitions since the snapshot was taken.
			stats, err := indexer.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("refresh index after restore: %w", err)
			}
			logger.Info("Refreshed index from partitions",
				zap.Int("records", stats.Records),
				zap.Int("inconsistencies", stats.Inconsistencies),
			)
		}
	}

	healthSvc := healthuc.New(store, c.index)
	server := chiTransport.NewServer(
		c.requests, indexer, healthSvc, renderer.NewMarkdown(), c.index, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(c.cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", c.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(c.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(c.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(c.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
