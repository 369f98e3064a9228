package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Kind identifies a chart type. It is used in file names and metric labels.
type Kind string

const (
	KindDurationHistogram      Kind = "duration_histogram"
	KindCountsByDate           Kind = "counts_by_date"
	KindMeanDurationByDate     Kind = "mean_duration_by_date"
	KindDurationBoxByDate      Kind = "duration_box_by_date"
	KindDurationBoxByDateLog   Kind = "duration_box_by_date_log"
	KindInvocationsByHour      Kind = "mean_invocations_by_hour"
	KindMeanDurationByHour     Kind = "mean_duration_by_hour"
	KindDurationBoxByHour      Kind = "duration_box_by_hour"
	KindDurationBoxByHourLog   Kind = "duration_box_by_hour_log"
	KindFunctionsPerApp        Kind = "functions_per_app"
	KindDailyInvocationsPerApp Kind = "mean_daily_invocations_per_app"
	KindAppAnalysis            Kind = "app_analysis"
	KindAppFunctionDurations   Kind = "app_function_durations"
	KindTemporalPattern        Kind = "temporal_pattern"
	KindFunctionDurations      Kind = "function_durations"
)

// Chart is a rendered chart on disk.
type Chart struct {
	Kind  Kind
	Title string
	Path  string
}

// dayPalette colours bars by day of week, Monday first.
var dayPalette = [7]color.RGBA{
	{R: 0xFF, G: 0x63, B: 0x47, A: 0xFF},
	{R: 0x46, G: 0x82, B: 0xB4, A: 0xFF},
	{R: 0x3C, G: 0xB3, B: 0x71, A: 0xFF},
	{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF},
	{R: 0xDA, G: 0x70, B: 0xD6, A: 0xFF},
	{R: 0xFF, G: 0x45, B: 0x00, A: 0xFF},
	{R: 0x1E, G: 0x90, B: 0xFF, A: 0xFF},
}

var (
	barColor   = color.RGBA{R: 0x46, G: 0x82, B: 0xB4, A: 0xFF}
	pointColor = color.RGBA{B: 0xFF, A: 0xB3}
)

// DayColor returns the palette entry for a Monday-based day index.
func DayColor(day int) color.RGBA {
	return dayPalette[((day%7)+7)%7]
}

// Renderer writes charts as PNG files into a directory.
type Renderer struct {
	dir    string
	width  vg.Length
	height vg.Length
	bins   int
	seq    int
	logger *zap.Logger
}

// Options configures a Renderer. Width and Height are in inches.
type Options struct {
	Dir           string
	Width, Height float64
	HistogramBins int
}

// NewRenderer creates the output directory and returns a Renderer writing into it.
func NewRenderer(opts Options, logger *zap.Logger) (*Renderer, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory '%s': %w", opts.Dir, err)
	}
	logger.Debug("Chart renderer initialized",
		zap.String("dir", opts.Dir),
		zap.Float64("width_in", opts.Width),
		zap.Float64("height_in", opts.Height),
		zap.Int("histogram_bins", opts.HistogramBins),
	)
	return &Renderer{
		dir:    opts.Dir,
		width:  vg.Length(opts.Width) * vg.Inch,
		height: vg.Length(opts.Height) * vg.Inch,
		bins:   opts.HistogramBins,
		logger: logger,
	}, nil
}

// nextPath numbers files so the output directory lists charts in pipeline order.
func (r *Renderer) nextPath(kind Kind, suffix string) string {
	r.seq++
	name := fmt.Sprintf("%02d_%s", r.seq, kind)
	if suffix != "" {
		name += "_" + sanitize(suffix)
	}
	return filepath.Join(r.dir, name+".png")
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// save writes a gonum plot to the next file for kind.
func (r *Renderer) save(p *plot.Plot, kind Kind, suffix string) (Chart, error) {
	path := r.nextPath(kind, suffix)
	if err := p.Save(r.width, r.height, path); err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, kind, err)
	}
	r.logger.Debug("Chart written", zap.String("kind", string(kind)), zap.String("path", path))
	return Chart{Kind: kind, Title: p.Title.Text, Path: path}, nil
}

// pixels converts a length to pixels at go-chart's default 96 DPI.
func pixels(l vg.Length) int {
	return int(l.Dots(96))
}
