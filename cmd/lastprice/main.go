package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/lastprice/internal/api"
	"github.com/rickgao/lastprice/internal/batch"
	"github.com/rickgao/lastprice/internal/clock"
	"github.com/rickgao/lastprice/internal/config"
	"github.com/rickgao/lastprice/internal/database"
	"github.com/rickgao/lastprice/internal/feed"
	"github.com/rickgao/lastprice/internal/mirror"
	"github.com/rickgao/lastprice/internal/prices"
	"github.com/rickgao/lastprice/internal/sequence"
	"github.com/rickgao/lastprice/internal/service"
	"github.com/rickgao/lastprice/internal/stream"
	"github.com/rickgao/lastprice/internal/version"
	"github.com/rickgao/lastprice/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/lastprice.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	// Set up structured logging
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting lastprice",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("lastprice failed", "error", err)
		os.Exit(1)
	}

	logger.Info("lastprice stopped")
}

func run(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) error {
	var sinks []feed.Sink

	// Price history
	var history *writer.HistoryWriter
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		history = writer.NewHistoryWriter(writer.WriterConfig{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
		}, pool, logger.With("component", "writer"))
		sinks = append(sinks, history)
	}

	repo := batch.NewRepository(clock.System{}, sequence.NewCounter(cfg.Service.IDSeed))
	market := prices.NewContainer()

	// Redis mirror
	var mirrorSink *mirror.Mirror
	if cfg.Redis.Enabled {
		logger.Info("connecting to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		rdb, err := mirror.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()

		mirrorSink = mirror.New(rdb, market.Get, mirror.Config{
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		}, logger.With("component", "mirror"))
		sinks = append(sinks, mirrorSink)
	}

	// WebSocket stream
	var hub *stream.Hub
	if cfg.Stream.Enabled {
		hub = stream.NewHub(stream.Config{
			SendBuffer:   cfg.Stream.SendBuffer,
			WriteTimeout: cfg.Stream.WriteTimeout,
		}, logger.With("component", "stream"))
		sinks = append(sinks, hub)
	}

	dispatcher := feed.NewDispatcher(cfg.Feed.BufferSize, sinks, logger.With("component", "feed"))

	svc := service.New(service.Config{
		SupportedInstruments: cfg.Service.SupportedInstruments,
		MaxActiveBatchRuns:   cfg.Service.MaxActiveBatchRuns,
		CleanupInterval:      cfg.Service.CleanupInterval,
		AbandonedTimeout:     cfg.Service.AbandonedBatchTimeout,
		CleanupLimit:         cfg.Service.CleanupLimit,
	}, repo, market, logger.With("component", "service"), service.WithNotifier(dispatcher))

	// Components outlive the signal context; each is stopped explicitly below.
	lifeCtx := context.WithoutCancel(ctx)

	// Start consumers before producers
	if history != nil {
		history.Start(lifeCtx)
	}
	if hub != nil {
		hub.Start(lifeCtx)
	}
	dispatcher.Start(lifeCtx)
	svc.Start(lifeCtx)

	opts := []api.ServerOption{
		api.WithHealthDetails(func() map[string]any {
			details := map[string]any{
				"instance_id": cfg.Instance.ID,
				"service":     svc.Stats(),
				"feed":        dispatcher.Stats(),
			}
			if history != nil {
				details["writer"] = history.Stats()
			}
			if mirrorSink != nil {
				details["mirror"] = mirrorSink.Stats()
			}
			if hub != nil {
				details["stream"] = hub.Stats()
			}
			return details
		}),
	}
	if hub != nil {
		opts = append(opts, api.WithHandler("GET "+cfg.Stream.Path, hub))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(svc, logger.With("component", "api"), opts...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", "error", err)
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			logger.Warn("sweeper stop incomplete", "error", err)
		}
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			logger.Warn("feed drain incomplete", "error", err)
		}
		if history != nil {
			history.Stop(shutdownCtx)
		}
		if hub != nil {
			hub.Stop(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
