package pipeline

import "errors"

var (
	ErrStageFailed      = errors.New("pipeline stage failed")
	ErrRendererCreation = errors.New("failed to create chart renderer")
	ErrReportFailed     = errors.New("failed to write report")
)
