package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/viper"
)

const (
	defaultDatasetPath    = "dataset/azure_functions_invocation_trace.csv"
	defaultReferenceDate  = "2021-01-31"
	defaultHistogramBins  = 50
	defaultFocusDate      = "2021-02-12"
	defaultFocusHour      = 22
	defaultChartsEnabled  = true
	defaultChartOutputDir = "charts"
	defaultChartWidth     = 12.0
	defaultChartHeight    = 7.0
	defaultInteractive    = true
	defaultSelector       = true
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogFileEnabled = false
	defaultLogDirectory   = "log"
	defaultLogFilename    = "tracelens.log"
	defaultLogMaxSizeMB   = 100
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 7
	defaultLogCompress    = false

	// Environment variable prefix
	envPrefix = "TRACELENS"
)

type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Charts   ChartsConfig   `mapstructure:"charts"`
	Selector SelectorConfig `mapstructure:"selector"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

type AnalysisConfig struct {
	ReferenceDate string `mapstructure:"referenceDate"` // earliest record is shifted onto this date
	HistogramBins int    `mapstructure:"histogramBins"`
	FocusDate     string `mapstructure:"focusDate"` // date reported by stats_for_date
	FocusHour     int    `mapstructure:"focusHour"` // hour reported by stats_for_hour
}

type ChartsConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	OutputDir   string  `mapstructure:"outputDir"`
	Width       float64 `mapstructure:"width"`  // inches
	Height      float64 `mapstructure:"height"` // inches
	Interactive bool    `mapstructure:"interactive"`
}

type SelectorConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // empty disables the export
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"` // console or json
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`
}

// ReferenceDay returns the parsed reference date. Only valid after Load.
func (a AnalysisConfig) ReferenceDay() civil.Date {
	d, _ := civil.ParseDate(a.ReferenceDate)
	return d
}

// FocusDay returns the parsed focus date. Only valid after Load.
func (a AnalysisConfig) FocusDay() civil.Date {
	d, _ := civil.ParseDate(a.FocusDate)
	return d
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
// An empty configPath skips the file and uses defaults plus environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)
	setDefaults(v)

	if configPath != "" {
		if err := readConfigFile(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", defaultDatasetPath)
	v.SetDefault("analysis.referenceDate", defaultReferenceDate)
	v.SetDefault("analysis.histogramBins", defaultHistogramBins)
	v.SetDefault("analysis.focusDate", defaultFocusDate)
	v.SetDefault("analysis.focusHour", defaultFocusHour)
	v.SetDefault("charts.enabled", defaultChartsEnabled)
	v.SetDefault("charts.outputDir", defaultChartOutputDir)
	v.SetDefault("charts.width", defaultChartWidth)
	v.SetDefault("charts.height", defaultChartHeight)
	v.SetDefault("charts.interactive", defaultInteractive)
	v.SetDefault("selector.enabled", defaultSelector)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) || errors.Is(err, fs.ErrNotExist) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Dataset.Path == "" {
		return ErrEmptyDatasetPath
	}
	if _, err := civil.ParseDate(cfg.Analysis.ReferenceDate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReferenceDate, err)
	}
	if _, err := civil.ParseDate(cfg.Analysis.FocusDate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFocusDate, err)
	}
	if cfg.Analysis.HistogramBins <= 0 {
		return ErrInvalidHistogramBins
	}
	if cfg.Analysis.FocusHour < 0 || cfg.Analysis.FocusHour > 23 {
		return ErrInvalidFocusHour
	}
	if cfg.Charts.Enabled {
		if cfg.Charts.OutputDir == "" {
			return ErrEmptyChartOutputDir
		}
		if cfg.Charts.Width <= 0 || cfg.Charts.Height <= 0 {
			return ErrInvalidChartSize
		}
	}
	return nil
}
