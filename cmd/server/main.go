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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/jobboard/api"
	"github.com/garnizeh/jobboard/internal/backup"
	"github.com/garnizeh/jobboard/internal/config"
	"github.com/garnizeh/jobboard/internal/jobs"
	"github.com/garnizeh/jobboard/internal/seed"
	"github.com/garnizeh/jobboard/internal/storage"
	"github.com/garnizeh/jobboard/internal/uploads"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const shutdownGrace = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "jobboard: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	api.SetLogger(logger)
	logger.Info("starting jobboard server", slog.String("version", version), slog.String("build_time", buildTime))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, closeStore, err := storage.OpenRepo(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close storage", slog.Any("err", err))
		}
	}()

	if cfg.SeedDemo {
		if _, err := seed.Demo(ctx, repo, logger); err != nil {
			return fmt.Errorf("seed demo profiles: %w", err)
		}
	}

	var sched *backup.Scheduler
	if cfg.Backup.Schedule != "" {
		svc := backup.New(cfg.Backup.Dir, repo.Tables(), logger)
		sched, err = backup.NewScheduler(svc, cfg.Backup.Schedule, cfg.Backup.Keep, logger)
		if err != nil {
			return err
		}
	}

	handler := api.SetupRoutes(api.Deps{
		Jobs:          repo,
		Profiles:      repo,
		Verifications: repo,
		Agreements:    repo,
		Assigner:      jobs.NewManager(repo, logger),
		Uploads:       uploads.New(cfg.UploadDir, cfg.MaxUploadBytes),
		Version:       version,
		BuildTime:     buildTime,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		Timeout: cfg.APITimeout,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if sched != nil {
		sched.Start()
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		if sched != nil {
			sched.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
