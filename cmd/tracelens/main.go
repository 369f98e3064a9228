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

	"github.com/sanspareilsmyn/tracelens/internal/config"
	"github.com/sanspareilsmyn/tracelens/internal/logging"
	"github.com/sanspareilsmyn/tracelens/internal/pipeline"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to the configuration file")
	logger     *zap.Logger
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize Configuration
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %s: %v\n", *configFile, err)
		return 1
	}

	// Initialize Logger
	var logErr error
	logger, logErr = logging.NewLogger(cfg.Log)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", logErr)
		return 1
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Infow("Logger initialized",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
	)
	sugar.Infow("Configuration loaded successfully", "path", *configFile)

	// Initialize Pipeline
	pipe, err := pipeline.New(cfg, logger, pipeline.Options{})
	if err != nil {
		sugar.Errorw("Failed to initialize pipeline", "error", err)
		return 1
	}

	// Handle Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run Pipeline
	sugar.Info("Starting analysis pipeline...")
	_, runErr := pipe.Run(ctx)

	if err := pipe.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
		sugar.Warnw("Failed to export metrics", "error", err)
	}

	// Evaluate Pipeline Result
	finalLogLevel := zapcore.InfoLevel
	shutdownReason := "gracefully"
	var finalErrorField = zap.Skip()
	exitCode := 0

	switch {
	case runErr == nil:
		sugar.Info("Pipeline execution completed without error.")
	case !pipeline.IsFatal(runErr):
		sugar.Info("Pipeline execution cancelled.")
	default:
		shutdownReason = "due to error"
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
		exitCode = 1
	}

	logger.Log(finalLogLevel, fmt.Sprintf("Pipeline shutdown %s.", shutdownReason),
		zap.String("reason", shutdownReason),
		finalErrorField,
	)
	sugar.Info("TraceLens finished.")
	return exitCode
}
