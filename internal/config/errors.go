package config

import "errors"

var (
	ErrReadingConfigFile    = errors.New("failed to read config file")
	ErrUnmarshallingConfig  = errors.New("failed to unmarshal config")
	ErrConfigFileMissing    = errors.New("config file not found")
	ErrEmptyDatasetPath     = errors.New("dataset path cannot be empty")
	ErrInvalidReferenceDate = errors.New("analysis referenceDate must be a YYYY-MM-DD date")
	ErrInvalidFocusDate     = errors.New("analysis focusDate must be a YYYY-MM-DD date")
	ErrInvalidHistogramBins = errors.New("analysis histogramBins must be positive")
	ErrInvalidFocusHour     = errors.New("analysis focusHour must be within 0-23")
	ErrInvalidChartSize     = errors.New("chart width and height must be positive")
	ErrEmptyChartOutputDir  = errors.New("chart outputDir cannot be empty when charts are enabled")
)
