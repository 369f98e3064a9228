package chart

import "errors"

var (
	ErrNoData       = errors.New("no data to plot")
	ErrRenderFailed = errors.New("failed to render chart")
	ErrViewFailed   = errors.New("failed to display chart")
)
