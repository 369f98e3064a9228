package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/tracelens/internal/analysis"
	"github.com/sanspareilsmyn/tracelens/internal/chart"
	"github.com/sanspareilsmyn/tracelens/internal/drilldown"
	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

// DurationReport is the output of the duration stage.
type DurationReport struct {
	Stats analysis.Summary
}

// DateReport is the output of the date stage.
type DateReport struct {
	Counts       []analysis.DateCount
	MeanDuration []analysis.DateValue
	FocusDate    string
	Focus        analysis.Summary
}

// HourReport is the output of the hour stage.
type HourReport struct {
	MeanInvocations []analysis.HourValue
	MeanDuration    []analysis.HourValue
	FocusHour       int
	Focus           []analysis.ColumnSummary
}

// AppReport is the output of the app stage. Table carries the anonymized app names
// and feeds the selector.
type AppReport struct {
	Table                 *trace.Table
	Renames               trace.RenameMap
	UniqueApps            int
	UniqueAppFunctions    int
	FunctionsPerApp       []analysis.AppCount
	FunctionCounts        analysis.Summary
	MeanDailyInvocations  []analysis.AppValue
	MeanDuration          []analysis.AppValue
	Profiles              []analysis.ApplicationProfile
	Correlation           float64
	CorrelationErr        error
	FunctionMeanDurations []analysis.AppFunctionValue
}

// noteSummary counts a describe() block that could not be fully computed.
func (p *Pipeline) noteSummary(statistic string, s analysis.Summary) {
	switch {
	case s.Count == 0:
		p.metrics.UndefinedStatistic(statistic, fmt.Errorf("%w: no samples", analysis.ErrUndefinedStatistic))
	case math.IsNaN(s.Std):
		p.metrics.UndefinedStatistic(statistic, fmt.Errorf("%w: std needs at least 2 samples", analysis.ErrUndefinedStatistic))
	}
}

func (p *Pipeline) load(logger *zap.Logger) (*trace.Table, error) {
	table, err := trace.Load(p.cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", trace.ErrEmptyDataset, p.cfg.Dataset.Path)
	}
	p.metrics.SetDatasetRows(table.Len())
	logger.Info("Trace loaded",
		zap.String("path", table.Schema.Path),
		zap.Int("rows", table.Len()),
		zap.Int64("bytes", table.Schema.Bytes),
	)

	p.printer.Section("Dataset")
	p.printer.Info(table.Schema)
	p.printer.Head(table.Head(headRows), false)
	return table, nil
}

func (p *Pipeline) derive(logger *zap.Logger, table *trace.Table) (time.Duration, error) {
	reference := p.cfg.Analysis.ReferenceDay()
	shift, err := trace.Derive(table, reference)
	if err != nil {
		return 0, err
	}
	logger.Info("Timestamps shifted", zap.Stringer("reference", reference), zap.Duration("shift", shift))

	p.printer.Section("Derived features")
	p.printer.Head(table.Head(headRows), true)
	return shift, nil
}

func (p *Pipeline) durations(ctx context.Context, logger *zap.Logger, table *trace.Table) (DurationReport, error) {
	rep := DurationReport{Stats: analysis.DurationStats(table)}
	p.noteSummary("duration_stats", rep.Stats)
	logger.Debug("Duration statistics computed", zap.Int("count", rep.Stats.Count))

	p.printer.Section("Invocation duration")
	p.printer.Summary(trace.ColumnDuration, rep.Stats)

	return rep, p.show(ctx, func(r *chart.Renderer) (chart.Chart, error) {
		return r.DurationHistogram(table.Durations())
	})
}

func (p *Pipeline) dates(ctx context.Context, logger *zap.Logger, table *trace.Table) (DateReport, error) {
	focus := p.cfg.Analysis.FocusDay()
	rep := DateReport{
		Counts:       analysis.CountsByDate(table),
		MeanDuration: analysis.MeanDurationByDate(table),
		FocusDate:    focus.String(),
		Focus:        analysis.StatsForDate(table, focus),
	}
	p.noteSummary("stats_for_date", rep.Focus)
	logger.Debug("Date statistics computed", zap.Int("dates", len(rep.Counts)))

	p.printer.Section("Invocations by date")
	p.printer.DateCounts(rep.Counts)
	p.printer.Section("Average duration by date")
	p.printer.DateValues("mean_duration", rep.MeanDuration)
	p.printer.Section(fmt.Sprintf("Duration statistics for %s", rep.FocusDate))
	p.printer.Summary(trace.ColumnDuration, rep.Focus)

	dates, durations := analysis.DurationsByDate(table)
	return rep, p.showAll(ctx,
		func(r *chart.Renderer) (chart.Chart, error) { return r.CountsByDate(rep.Counts) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.MeanDurationByDate(rep.MeanDuration) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.DurationBoxByDate(dates, durations, false) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.DurationBoxByDate(dates, durations, true) },
	)
}

func (p *Pipeline) hours(ctx context.Context, logger *zap.Logger, table *trace.Table) (HourReport, error) {
	rep := HourReport{
		MeanInvocations: analysis.MeanInvocationsByHour(table),
		MeanDuration:    analysis.MeanDurationByHour(table),
		FocusHour:       p.cfg.Analysis.FocusHour,
		Focus:           analysis.StatsForHour(table, p.cfg.Analysis.FocusHour),
	}
	p.noteSummary("stats_for_hour", rep.Focus[0].Summary)
	logger.Debug("Hour statistics computed", zap.Int("hours_with_invocations", len(rep.MeanDuration)))

	p.printer.Section("Average daily invocations by hour")
	p.printer.HourValues("mean_invocations", rep.MeanInvocations)
	p.printer.Section("Average duration by hour")
	p.printer.HourValues("mean_duration", rep.MeanDuration)
	p.printer.Section(fmt.Sprintf("Statistics for hour %d", rep.FocusHour))
	p.printer.ColumnSummaries(rep.Focus)

	durations := analysis.DurationsByHour(table)
	return rep, p.showAll(ctx,
		func(r *chart.Renderer) (chart.Chart, error) { return r.MeanInvocationsByHour(rep.MeanInvocations) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.MeanDurationByHour(rep.MeanDuration) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.DurationBoxByHour(durations, false) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.DurationBoxByHour(durations, true) },
	)
}

func (p *Pipeline) apps(ctx context.Context, logger *zap.Logger, table *trace.Table) (AppReport, error) {
	renamed, renames := trace.RenameApps(table)
	rep := AppReport{
		Table:                 renamed,
		Renames:               renames,
		UniqueApps:            analysis.UniqueApps(renamed),
		UniqueAppFunctions:    analysis.UniqueAppFunctions(renamed),
		FunctionsPerApp:       analysis.FunctionsPerApp(renamed),
		MeanDailyInvocations:  analysis.MeanDailyInvocationsPerApp(renamed),
		MeanDuration:          analysis.MeanDurationPerApp(renamed),
		Profiles:              analysis.Profiles(renamed),
		FunctionMeanDurations: analysis.MeanDurationPerAppFunction(renamed),
	}
	rep.FunctionCounts = analysis.FunctionCountSummary(rep.FunctionsPerApp)
	rep.Correlation, rep.CorrelationErr = analysis.AppFunctionCorrelation(rep.Profiles)
	if rep.CorrelationErr != nil {
		if !errors.Is(rep.CorrelationErr, analysis.ErrUndefinedStatistic) {
			return rep, rep.CorrelationErr
		}
		p.metrics.UndefinedStatistic("app_function_correlation", rep.CorrelationErr)
	}
	p.noteSummary("functions_per_app", rep.FunctionCounts)
	p.metrics.SetDatasetShape(rep.UniqueApps, rep.UniqueAppFunctions)
	logger.Info("Applications analyzed",
		zap.Int("apps", rep.UniqueApps),
		zap.Int("functions", rep.UniqueAppFunctions),
	)

	p.printer.Section("Applications")
	p.printer.CountValue("Unique applications", rep.UniqueApps)
	p.printer.CountValue("Unique (app, func) pairs", rep.UniqueAppFunctions)
	p.printer.Renames(renames, headRows)
	p.printer.Section("Functions per application")
	p.printer.AppCounts("num_functions", rep.FunctionsPerApp)
	p.printer.Summary("num_functions", rep.FunctionCounts)
	p.printer.Section("Average daily invocations per application")
	p.printer.AppValues("mean_daily_invocations", rep.MeanDailyInvocations)
	p.printer.Section("Average duration per application")
	p.printer.AppValues("mean_duration", rep.MeanDuration)
	p.printer.Section("Application analysis")
	p.printer.Profiles(rep.Profiles)
	p.printer.Statistic("Correlation between mean duration and num_functions", rep.Correlation, rep.CorrelationErr)
	p.printer.Section("Average duration per function")
	p.printer.AppFunctionValues("mean_duration", rep.FunctionMeanDurations)

	return rep, p.showAll(ctx,
		func(r *chart.Renderer) (chart.Chart, error) { return r.FunctionsPerApp(rep.FunctionsPerApp) },
		func(r *chart.Renderer) (chart.Chart, error) {
			return r.MeanDailyInvocationsPerApp(rep.MeanDailyInvocations)
		},
		func(r *chart.Renderer) (chart.Chart, error) { return r.AppAnalysis(rep.Profiles) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.AppFunctionDurations(rep.FunctionMeanDurations) },
	)
}

// selector drills into applications until the user closes the picker. Any failure
// inside the selector, including a chart that cannot be rendered or shown, closes
// only the selector and does not fail the run.
func (p *Pipeline) selector(ctx context.Context, logger *zap.Logger, table *trace.Table) error {
	if !p.cfg.Selector.Enabled {
		logger.Info("Selector disabled")
		return nil
	}
	if p.picker == nil {
		logger.Info("Selector skipped, stdin is not a terminal")
		return nil
	}

	sel := drilldown.NewSelector(table, p.picker, p.drillDown, logger)
	err := sel.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	logger.Warn("Selector closed on error", zap.Error(err))
	return nil
}

// drillDown reports one selected application and shows its charts.
func (p *Pipeline) drillDown(ctx context.Context, view *drilldown.AppView) error {
	durations := view.DurationsByFunction()
	summaries := make([]analysis.ColumnSummary, len(view.Functions))
	for i, fn := range view.Functions {
		summaries[i] = analysis.ColumnSummary{Column: fn, Summary: analysis.Describe(durations[i])}
	}

	p.printer.Section(fmt.Sprintf("Application %s", view.App))
	p.printer.Renames(view.Renames, 0)
	p.printer.ColumnSummaries(summaries)

	return p.showAll(ctx,
		func(r *chart.Renderer) (chart.Chart, error) { return r.TemporalPattern(view) },
		func(r *chart.Renderer) (chart.Chart, error) { return r.FunctionDurations(view) },
	)
}
