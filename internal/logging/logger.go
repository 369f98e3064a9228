package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sanspareilsmyn/tracelens/internal/config"
)

var ErrNoLogOutputs = errors.New("no logging outputs configured")

// Outputs are the console sinks. Tests swap them to capture log lines.
type Outputs struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewLogger builds the process logger from cfg, writing to the real stdout/stderr.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return NewLoggerTo(cfg, Outputs{Stdout: os.Stdout, Stderr: os.Stderr})
}

// NewLoggerTo builds a zap logger with a console or JSON core on out and,
// if enabled, a rotating JSON file core.
func NewLoggerTo(cfg config.LogConfig, out Outputs) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARN: %v, defaulting to INFO level\n", err)
		level = zapcore.InfoLevel
	}

	format := strings.ToLower(cfg.Format)
	cores := consoleCores(format, level, out)

	if cfg.FileLoggingEnabled {
		fileCore, err := fileCore(cfg, level)
		if err != nil {
			return nil, err
		}
		cores = append(cores, fileCore)
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("%w: format=%q file=%t", ErrNoLogOutputs, cfg.Format, cfg.FileLoggingEnabled)
	}

	opts := []zap.Option{zap.AddCaller()}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)
	logger.Debug("Zap logger constructed",
		zap.String("level", level.String()),
		zap.String("format", format),
		zap.Bool("file_logging_enabled", cfg.FileLoggingEnabled),
	)
	return logger, nil
}

// consoleCores splits console output: up to warn on stdout, error and above on stderr.
// The json format writes everything to stdout. Unknown formats produce no console core.
func consoleCores(format string, level zapcore.Level, out Outputs) []zapcore.Core {
	switch format {
	case "console":
		enc := buildEncoder(true)
		info := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(out.Stdout)), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= level && lvl < zapcore.ErrorLevel
		}))
		errs := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(out.Stderr)), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= level && lvl >= zapcore.ErrorLevel
		}))
		return []zapcore.Core{info, errs}
	case "json":
		return []zapcore.Core{zapcore.NewCore(buildEncoder(false), zapcore.Lock(zapcore.AddSync(out.Stdout)), level)}
	default:
		return nil
	}
}

func fileCore(cfg config.LogConfig, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", cfg.Directory, err)
	}
	ljack := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, cfg.Filename),
		MaxSize:    cfg.MaxSize,    // megabytes
		MaxBackups: cfg.MaxBackups, // files
		MaxAge:     cfg.MaxAge,     // days
		Compress:   cfg.Compress,
	}
	return zapcore.NewCore(buildEncoder(false), zapcore.AddSync(ljack), level), nil
}

func parseLevel(levelStr string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(levelStr))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level '%s'", levelStr)
	}
	return level, nil
}

func buildEncoder(console bool) zapcore.Encoder {
	if console {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}
