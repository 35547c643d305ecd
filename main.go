// Command imagegen runs the text-to-image generation service: an HTTP API
// and browser UI over a locally hosted Stable Diffusion model.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"go_imagegen/core"
	"go_imagegen/db"
	"go_imagegen/logging"
	"go_imagegen/metrics"
	"go_imagegen/pipeline"
	"go_imagegen/shutdown"
	"go_imagegen/webui"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Note: .env file not found: %v\n", err)
	}

	// Service commands (install/uninstall/start/stop) exit early.
	if HandleServiceCommand(os.Args[1:]) {
		return
	}
	if isService, err := RunAsService(); err != nil {
		fmt.Printf("Service error: %v\n", err)
		os.Exit(core.ExitCodeError)
	} else if isService {
		return
	}

	os.Exit(run())
}

// run is the interactive entry point. Split from main so deferred cleanup
// runs before the process exits.
func run() int {
	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, core.GetEnvOrDefault("LOG_FILE", "imagegen.log"))
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}
	defer logger.Sync()

	printBanner(version)

	cfg, err := core.LoadConfig()
	if err != nil {
		if cfgErr, ok := core.IsConfigError(err); ok {
			printConfigError(cfgErr)
		}
		logger.Error("Failed to load configuration", zap.Error(err))
		return core.ExitCodeError
	}

	logger.Info("Configuration loaded",
		zap.String("addr", cfg.Addr()),
		zap.String("models_dir", cfg.ModelsDir),
		zap.Int("high_steps", cfg.HighQualitySteps),
		zap.Int("medium_steps", cfg.MediumQualitySteps),
		zap.Int("low_steps", cfg.LowQualitySteps),
		zap.Int("max_batch_size", cfg.MaxBatchSize),
		zap.Duration("generation_timeout", cfg.GenerationTimeout),
		zap.String("enhancer", cfg.EnhancerBackend),
		zap.Bool("dev_mode", isDevelopment),
	)

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("Failed to prepare directories", zap.Error(err))
		return core.ExitCodeError
	}

	shutdownMgr := shutdown.NewManager(logger)

	// Generation history store
	database, err := db.NewDatabaseWithMigrations(cfg.DatabasePath, cfg.MigrationsPath)
	if err != nil {
		logger.Error("Failed to open history database", zap.Error(err))
		return core.ExitCodeError
	}
	shutdownMgr.Register("database", 30, func(context.Context) error {
		return database.Close()
	})

	if err := database.Migrate(); err != nil {
		logger.Error("Failed to migrate history database", zap.Error(err))
		shutdownMgr.Shutdown()
		return core.ExitCodeError
	}

	repo := db.NewRepository(database)
	historyWriter := db.NewHistoryWriter(repo, logger)
	historyWriter.Start()
	shutdownMgr.Register("history-writer", 10, func(context.Context) error {
		historyWriter.Stop()
		return nil
	})

	// In-memory metrics for /api/status
	metricsStore := metrics.NewMetricsStore(metrics.StoreConfig{
		HistoryCapacity: 100,
		Version:         version,
	}, time.Now())

	// Prompt enhancer
	enhancer, err := pipeline.NewEnhancer(cfg)
	if err != nil {
		logger.Error("Failed to configure prompt enhancer", zap.Error(err))
		shutdownMgr.Shutdown()
		return core.ExitCodeError
	}

	// Model runtime manager (model loads lazily on first request)
	manager := pipeline.NewManager(cfg, logger)
	shutdownMgr.Register("model-runtime", 20, func(context.Context) error {
		return manager.Close()
	})

	processor := pipeline.NewProcessor(cfg, logger, manager, enhancer,
		historyWriter, metricsStore)

	serverCfg := webui.DefaultServerConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	serverCfg.MaxRequestBytes = cfg.MaxRequestBytes
	serverCfg.ModelName = filepath.Base(cfg.ResolveModelPath())

	server := webui.NewServer(serverCfg, processor, metricsStore, manager.Ready, logger)
	processor.AddObserver(server.Broadcaster())
	shutdownMgr.Register("http-server", 0, server.Shutdown)

	shutdownMgr.Start()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(shutdownMgr.Context())
	}()

	logger.Info("Service ready", zap.String("addr", server.Addr()))

	exitCode := core.ExitCodeSuccess
	select {
	case <-shutdownMgr.Context().Done():
		switch shutdownMgr.LastSignal() {
		case syscall.SIGTERM:
			exitCode = core.ExitCodeSIGTERM
		case os.Interrupt:
			exitCode = core.ExitCodeSIGINT
		}
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			exitCode = core.ExitCodeError
		}
	}

	shutdownMgr.Shutdown()

	logger.Info("Goodbye")
	return exitCode
}
