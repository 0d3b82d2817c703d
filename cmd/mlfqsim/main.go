// Package main is the entry point for the MLFQ scheduler simulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/limiquantix/mlfq/internal/config"
	"github.com/limiquantix/mlfq/internal/repository/memory"
	"github.com/limiquantix/mlfq/internal/repository/redis"
	"github.com/limiquantix/mlfq/internal/server"
	"github.com/limiquantix/mlfq/internal/simulation"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	serve := flag.Bool("serve", false, "Serve the HTTP API instead of running the configured workload once")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		println("MLFQ Simulator")
		println("Version:", version)
		println("Commit:", commit)
		println("Build Date:", buildDate)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		println("Failed to load config:", err.Error())
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	defer logger.Sync()

	logger.Info("Starting MLFQ Simulator",
		zap.String("version", version),
		zap.String("commit", commit),
	)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal", zap.String("signal", sig.String()))
		cancel()
	}()

	repo, closeRepo, err := newRunRepository(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeRepo()

	svc := simulation.NewService(repo, cfg.Scheduler, cfg.Simulation, logger)

	if *serve {
		srv := server.New(cfg.Server, svc, repo, logger)
		if err := srv.Run(ctx); err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
		logger.Info("Goodbye!")
		return
	}

	run, err := svc.Run(ctx, cfg.Workload)
	if err != nil {
		logger.Error("Simulation failed", zap.Error(err))
		if run == nil {
			os.Exit(1)
		}
	}

	fmt.Printf("run %s: %s\n", run.ID, run.Status)
	fmt.Printf("  processes: %d finished of %d\n", run.Finished, run.ProcessCount)
	fmt.Printf("  ticks: %d  boosts: %d  elapsed: %s\n", run.Ticks, run.Boosts, run.Elapsed)
	fmt.Printf("  average turnaround: %s\n", run.AverageTurnaround())
	for _, c := range run.Completions {
		fmt.Printf("  %-20s %s\n", c.ProcessName, c.Elapsed)
	}

	if err != nil {
		os.Exit(1)
	}
}

// runStore is a run repository that can report its own health.
type runStore interface {
	simulation.RunRepository
	server.HealthChecker
}

// newRunRepository builds the run store selected by the storage backend.
func newRunRepository(cfg *config.Config, logger *zap.Logger) (runStore, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		cache, err := redis.NewCache(cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := cache.Close(); err != nil {
				logger.Warn("Failed to close Redis connection", zap.Error(err))
			}
		}
		return redis.NewRunRepository(cache, cfg.Storage.TTL), closeFn, nil
	default:
		logger.Info("Using in-memory run storage")
		return memory.NewRunRepository(cfg.Storage.TTL), func() {}, nil
	}
}

// setupLogger configures the zap logger based on configuration.
func setupLogger(cfg config.LoggingConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		panic("Failed to create logger: " + err.Error())
	}

	return logger
}
