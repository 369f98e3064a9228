package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/tracelens/internal/chart"
	"github.com/sanspareilsmyn/tracelens/internal/config"
	"github.com/sanspareilsmyn/tracelens/internal/drilldown"
	"github.com/sanspareilsmyn/tracelens/internal/metrics"
	"github.com/sanspareilsmyn/tracelens/internal/report"
	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

// Stage names, used for child loggers and the stage duration metric.
const (
	StageLoad     = "load"
	StageDerive   = "derive"
	StageDuration = "duration"
	StageDate     = "date"
	StageHour     = "hour"
	StageApp      = "app"
	StageSelector = "selector"
)

// headRows is how many rows are previewed after loading and deriving.
const headRows = 5

// Options overrides the interactive pieces that New would otherwise pick from the
// configuration and the terminal.
type Options struct {
	Out    io.Writer        // report output, os.Stdout when nil
	Viewer chart.Viewer     // replaces the configured chart viewer
	Picker drilldown.Picker // replaces the terminal picker and skips the TTY check
}

// Pipeline runs the analysis stages in order: load, derive, the duration, date,
// hour and app reports, then the optional application selector.
type Pipeline struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Recorder
	printer *report.Printer
	sink    *chart.Sink // nil when charts are disabled
	picker  drilldown.Picker

	charts []chart.Chart
}

// Result collects every stage's output.
type Result struct {
	Table     *trace.Table // derived, original identifiers
	Shift     time.Duration
	Durations DurationReport
	Dates     DateReport
	Hours     HourReport
	Apps      AppReport
	Charts    []chart.Chart
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// New wires the report printer, metrics recorder, chart sink and picker.
func New(cfg *config.Config, logger *zap.Logger, opts Options) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	p := &Pipeline{
		cfg:     cfg,
		logger:  logger.Named("pipeline"),
		metrics: metrics.NewRecorder(logger.Named("metrics")),
		printer: report.NewPrinter(out),
		picker:  opts.Picker,
	}

	if cfg.Charts.Enabled {
		renderer, err := chart.NewRenderer(chart.Options{
			Dir:           cfg.Charts.OutputDir,
			Width:         cfg.Charts.Width,
			Height:        cfg.Charts.Height,
			HistogramBins: cfg.Analysis.HistogramBins,
		}, logger.Named("chart"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRendererCreation, err)
		}

		viewer := opts.Viewer
		switch {
		case viewer != nil:
		case cfg.Charts.Interactive && stdinIsTerminal():
			viewer = chart.NewSystemViewer(logger.Named("viewer"))
		default:
			viewer = chart.NewNopViewer(logger.Named("viewer"))
		}
		p.sink = chart.NewSink(renderer, viewer, p.metrics, logger.Named("chart"))
		initLogger.Debug("Chart sink created", zap.String("dir", cfg.Charts.OutputDir), zap.String("viewer", fmt.Sprintf("%T", viewer)))
	}

	if p.picker == nil && cfg.Selector.Enabled && stdinIsTerminal() {
		p.picker = drilldown.PromptPicker{}
	}

	initLogger.Info("Pipeline instance created successfully",
		zap.Bool("charts", p.sink != nil),
		zap.Bool("selector", p.picker != nil),
	)
	return p, nil
}

// Metrics returns the run's metrics recorder.
func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}

// runStage times one stage and wraps its error with the stage name.
func runStage[T any](ctx context.Context, p *Pipeline, name string, fn func(*zap.Logger) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	logger := p.logger.Named(name)
	logger.Debug("Stage started")

	start := time.Now()
	out, err := fn(logger)
	p.metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrStageFailed, name, err)
	}
	return out, nil
}

// Run executes every stage in order and stops at the first fatal error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("Pipeline Run: Starting stages...", zap.String("dataset", p.cfg.Dataset.Path))

	table, err := runStage(ctx, p, StageLoad, p.load)
	if err != nil {
		return nil, err
	}
	res := &Result{Table: table}

	if res.Shift, err = runStage(ctx, p, StageDerive, func(l *zap.Logger) (time.Duration, error) {
		return p.derive(l, table)
	}); err != nil {
		return nil, err
	}
	if res.Durations, err = runStage(ctx, p, StageDuration, func(l *zap.Logger) (DurationReport, error) {
		return p.durations(ctx, l, table)
	}); err != nil {
		return nil, err
	}
	if res.Dates, err = runStage(ctx, p, StageDate, func(l *zap.Logger) (DateReport, error) {
		return p.dates(ctx, l, table)
	}); err != nil {
		return nil, err
	}
	if res.Hours, err = runStage(ctx, p, StageHour, func(l *zap.Logger) (HourReport, error) {
		return p.hours(ctx, l, table)
	}); err != nil {
		return nil, err
	}
	if res.Apps, err = runStage(ctx, p, StageApp, func(l *zap.Logger) (AppReport, error) {
		return p.apps(ctx, l, table)
	}); err != nil {
		return nil, err
	}
	if _, err = runStage(ctx, p, StageSelector, func(l *zap.Logger) (struct{}, error) {
		return struct{}{}, p.selector(ctx, l, res.Apps.Table)
	}); err != nil {
		return nil, err
	}

	res.Charts = p.charts
	if err := p.printer.Err(); err != nil {
		return res, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	p.logger.Info("Pipeline Run: All stages finished.", zap.Int("charts", len(p.charts)))
	return res, nil
}

// show renders and presents one chart when charts are enabled.
func (p *Pipeline) show(ctx context.Context, draw func(*chart.Renderer) (chart.Chart, error)) error {
	if p.sink == nil {
		return nil
	}
	c, err := p.sink.Show(ctx, draw)
	if c.Path != "" {
		p.charts = append(p.charts, c)
	}
	return err
}

// showAll stops at the first chart that fails.
func (p *Pipeline) showAll(ctx context.Context, draws ...func(*chart.Renderer) (chart.Chart, error)) error {
	for _, draw := range draws {
		if err := p.show(ctx, draw); err != nil {
			return err
		}
	}
	return nil
}

// IsFatal reports whether err should end the process with a failure status.
// Cancellation is a normal shutdown.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
