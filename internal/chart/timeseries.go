package chart

import (
	"fmt"
	"os"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/tracelens/internal/analysis"
	"github.com/sanspareilsmyn/tracelens/internal/drilldown"
)

// pointStyle renders points only, with no connecting line.
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    3,
		DotColor:    col,
	}
}

// padTimes makes sure a time series has at least two distinct x values. go-chart
// refuses to render a zero-width range.
func padTimes(xs []time.Time, ys []float64) ([]time.Time, []float64) {
	if len(xs) == 0 {
		return xs, ys
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x.Before(lo) {
			lo = x
		}
		if x.After(hi) {
			hi = x
		}
	}
	if hi.After(lo) {
		return xs, ys
	}
	return append(xs, lo.Add(time.Second)), append(ys, ys[0])
}

// valueRange pads [lo, hi] so a flat series still gets a visible y axis.
func valueRange(values []float64) *gochart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		pad := max(1, hi*0.1)
		return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

func (r *Renderer) renderTimeChart(ch gochart.Chart, kind Kind, suffix string) (Chart, error) {
	ch.Width = pixels(r.width)
	ch.Height = pixels(r.height)
	ch.Background = gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}

	path := r.nextPath(kind, suffix)
	f, err := os.Create(path)
	if err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, kind, err)
	}
	defer f.Close()

	if err := ch.Render(gochart.PNG, f); err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, kind, err)
	}
	if err := f.Close(); err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, kind, err)
	}
	r.logger.Debug("Chart written", zap.String("kind", string(kind)), zap.String("path", path))
	return Chart{Kind: kind, Title: ch.Title, Path: path}, nil
}

// MeanDurationByDate draws the daily mean duration as a line over calendar dates.
func (r *Renderer) MeanDurationByDate(values []analysis.DateValue) (Chart, error) {
	if len(values) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindMeanDurationByDate)
	}
	xs := make([]time.Time, len(values))
	ys := make([]float64, len(values))
	for i, v := range values {
		xs[i] = v.Date.In(time.UTC)
		ys[i] = v.Value
	}
	yRange := valueRange(ys)
	xs, ys = padTimes(xs, ys)

	ch := gochart.Chart{
		Title: "Average duration of invocations by Date",
		XAxis: gochart.XAxis{Name: "Date", ValueFormatter: gochart.TimeDateValueFormatter},
		YAxis: gochart.YAxis{Name: "Average duration of invocations (sec)", Range: yRange},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "mean duration",
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: gochart.ColorBlue,
					StrokeWidth: 2,
					DotWidth:    3,
					DotColor:    gochart.ColorBlue,
				},
			},
		},
	}
	return r.renderTimeChart(ch, KindMeanDurationByDate, "")
}

// TemporalPattern places each call of a drilled-down application at its start
// time, one row per function.
func (r *Renderer) TemporalPattern(view *drilldown.AppView) (Chart, error) {
	if len(view.Calls) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindTemporalPattern)
	}
	xs := make([]time.Time, len(view.Calls))
	ys := make([]float64, len(view.Calls))
	for i, c := range view.Calls {
		xs[i] = c.Start
		ys[i] = float64(view.FunctionIndex(c.Func))
	}
	xs, ys = padTimes(xs, ys)

	ticks := make([]gochart.Tick, len(view.Functions))
	for i, fn := range view.Functions {
		ticks[i] = gochart.Tick{Value: float64(i), Label: fn}
	}
	ch := gochart.Chart{
		Title: "Temporal pattern of the invocations by Function",
		XAxis: gochart.XAxis{Name: "Start time", ValueFormatter: gochart.TimeValueFormatter},
		YAxis: gochart.YAxis{
			Name:  "Function",
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(len(view.Functions)) - 0.5},
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    view.App,
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(gochart.ColorRed),
			},
		},
	}
	return r.renderTimeChart(ch, KindTemporalPattern, view.App)
}
