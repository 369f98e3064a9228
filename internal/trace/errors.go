package trace

import "errors"

var (
	// ErrDataLoad covers a missing, unreadable or malformed trace file.
	ErrDataLoad = errors.New("failed to load trace data")

	// ErrEmptyDataset is returned when an operation needs at least one invocation.
	ErrEmptyDataset = errors.New("trace dataset is empty")

	ErrMissingColumn = errors.New("required column missing")
	ErrMalformedRow  = errors.New("malformed row")
)
