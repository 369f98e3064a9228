package chart

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"cloud.google.com/go/civil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/sanspareilsmyn/tracelens/internal/analysis"
	"github.com/sanspareilsmyn/tracelens/internal/drilldown"
	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

func rotateXLabels(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
}

// slotWidth is the width available to one of n categories along the x axis.
func (r *Renderer) slotWidth(n int) vg.Length {
	if n < 1 {
		n = 1
	}
	return r.width * 0.7 / vg.Length(n)
}

// DurationHistogram draws durations as a probability histogram: bar heights sum to 1.
func (r *Renderer) DurationHistogram(durations []float64) (Chart, error) {
	if len(durations) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindDurationHistogram)
	}
	h, err := plotter.NewHist(plotter.Values(durations), r.bins)
	if err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, KindDurationHistogram, err)
	}
	total := float64(len(durations))
	for i := range h.Bins {
		h.Bins[i].Weight /= total
	}
	h.FillColor = barColor

	p := newPlot("Distribution of invocation durations", "Duration (sec)", "Frequency of invocations")
	p.Add(h)
	return r.save(p, KindDurationHistogram, "")
}

// CountsByDate draws one bar per date, coloured by day of week, with a weekday legend.
func (r *Renderer) CountsByDate(counts []analysis.DateCount) (Chart, error) {
	if len(counts) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindCountsByDate)
	}
	p := newPlot("Distribution of invocations by Date", "Date", "Number of Invocations")

	labels := make([]string, len(counts))
	for i, c := range counts {
		labels[i] = c.Date.String()
	}
	width := r.slotWidth(len(counts))
	for day := 0; day < 7; day++ {
		values := make(plotter.Values, len(counts))
		for i, c := range counts {
			if c.DayOfWeek == day {
				values[i] = float64(c.Count)
			}
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, KindCountsByDate, err)
		}
		bars.Color = DayColor(day)
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf("day %d %s", day, trace.WeekdayName(day)), bars)
	}
	p.Legend.Top = true
	p.NominalX(labels...)
	rotateXLabels(p)
	return r.save(p, KindCountsByDate, "")
}

// boxes adds one box per non-empty group at x = group index.
func (r *Renderer) boxes(p *plot.Plot, kind Kind, groups [][]float64) error {
	width := r.slotWidth(len(groups)) * 0.8
	added := 0
	for i, values := range groups {
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(width, float64(i), plotter.Values(values))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRenderFailed, kind, err)
		}
		p.Add(box)
		added++
	}
	if added == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, kind)
	}
	return nil
}

// positive keeps values a log axis can show.
func positive(groups [][]float64) [][]float64 {
	out := make([][]float64, len(groups))
	for i, g := range groups {
		for _, v := range g {
			if v > 0 {
				out[i] = append(out[i], v)
			}
		}
	}
	return out
}

func useLogY(p *plot.Plot) {
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
}

// DurationBoxByDate draws a box plot of durations per date. With logScale the y axis
// is logarithmic and non-positive durations are left out.
func (r *Renderer) DurationBoxByDate(dates []civil.Date, durations [][]float64, logScale bool) (Chart, error) {
	kind, title := KindDurationBoxByDate, "Distribution of invocation durations by Date"
	if logScale {
		kind, title = KindDurationBoxByDateLog, title+" (with log scale)"
		durations = positive(durations)
	}
	p := newPlot(title, "Date", "Duration (sec)")
	if err := r.boxes(p, kind, durations); err != nil {
		return Chart{}, err
	}
	if logScale {
		useLogY(p)
	}
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.String()
	}
	p.NominalX(labels...)
	rotateXLabels(p)
	return r.save(p, kind, "")
}

func hourLabels() []string {
	labels := make([]string, 24)
	for h := range labels {
		labels[h] = strconv.Itoa(h)
	}
	return labels
}

// DurationBoxByHour draws a box plot of durations for each hour 0-23.
func (r *Renderer) DurationBoxByHour(durations [24][]float64, logScale bool) (Chart, error) {
	kind, title := KindDurationBoxByHour, "Distribution of invocation duration by Hour of Day"
	groups := durations[:]
	if logScale {
		kind, title = KindDurationBoxByHourLog, title+" (with log scale)"
		groups = positive(groups)
	}
	p := newPlot(title, "Hour of Day", "Duration (sec)")
	if err := r.boxes(p, kind, groups); err != nil {
		return Chart{}, err
	}
	if logScale {
		useLogY(p)
	}
	p.NominalX(hourLabels()...)
	return r.save(p, kind, "")
}

// MeanInvocationsByHour draws average daily invocations per hour slot.
func (r *Renderer) MeanInvocationsByHour(values []analysis.HourValue) (Chart, error) {
	if len(values) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindInvocationsByHour)
	}
	heights := make(plotter.Values, 24)
	for _, v := range values {
		heights[v.Hour] = v.Value
	}
	bars, err := plotter.NewBarChart(heights, r.slotWidth(24))
	if err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, KindInvocationsByHour, err)
	}
	bars.Color = barColor

	p := newPlot("Average daily invocations by Hour of Day", "Hour of the day", "Average Daily Invocations")
	p.Add(bars)
	p.NominalX(hourLabels()...)
	return r.save(p, KindInvocationsByHour, "")
}

// MeanDurationByHour draws the mean duration per hour as a line.
func (r *Renderer) MeanDurationByHour(values []analysis.HourValue) (Chart, error) {
	if len(values) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindMeanDurationByHour)
	}
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(v.Hour), Y: v.Value}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, KindMeanDurationByHour, err)
	}
	line.Color = barColor
	points.Color = barColor

	p := newPlot("Average duration of invocations by Hour of Day", "Hour of the day", "Average duration (sec)")
	p.Add(line, points)
	p.X.Min, p.X.Max = -0.5, 23.5
	p.NominalX(hourLabels()...)
	return r.save(p, KindMeanDurationByHour, "")
}

// FunctionsPerApp draws how many apps have each num_functions value.
func (r *Renderer) FunctionsPerApp(counts []analysis.AppCount) (Chart, error) {
	if len(counts) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindFunctionsPerApp)
	}
	apps := make(map[int]int)
	for _, c := range counts {
		apps[c.Count]++
	}
	numFuncs := make([]int, 0, len(apps))
	for n := range apps {
		numFuncs = append(numFuncs, n)
	}
	slices.Sort(numFuncs)

	heights := make(plotter.Values, len(numFuncs))
	labels := make([]string, len(numFuncs))
	for i, n := range numFuncs {
		heights[i] = float64(apps[n])
		labels[i] = strconv.Itoa(n)
	}
	bars, err := plotter.NewBarChart(heights, r.slotWidth(len(numFuncs)))
	if err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, KindFunctionsPerApp, err)
	}
	bars.Color = barColor

	p := newPlot("Distribution of the number of functions per application", "Number of Functions", "Number of Applications")
	p.Add(bars)
	p.NominalX(labels...)
	return r.save(p, KindFunctionsPerApp, "")
}

// MeanDailyInvocationsPerApp draws one bar per app in the order given (already sorted).
func (r *Renderer) MeanDailyInvocationsPerApp(values []analysis.AppValue) (Chart, error) {
	if len(values) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindDailyInvocationsPerApp)
	}
	heights := make(plotter.Values, len(values))
	labels := make([]string, len(values))
	for i, v := range values {
		heights[i] = v.Value
		labels[i] = v.App
	}
	bars, err := plotter.NewBarChart(heights, r.slotWidth(len(values)))
	if err != nil {
		return Chart{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, KindDailyInvocationsPerApp, err)
	}
	bars.Color = barColor

	p := newPlot("Applications vs Daily mean of invocations", "Application", "Daily mean of invocations")
	p.Add(bars)
	p.NominalX(labels...)
	rotateXLabels(p)
	return r.save(p, KindDailyInvocationsPerApp, "")
}

func (r *Renderer) scatter(p *plot.Plot, kind Kind, pts plotter.XYs) error {
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRenderFailed, kind, err)
	}
	s.GlyphStyle.Color = pointColor
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	return nil
}

// AppAnalysis plots each app's function count against its mean duration.
func (r *Renderer) AppAnalysis(profiles []analysis.ApplicationProfile) (Chart, error) {
	if len(profiles) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindAppAnalysis)
	}
	pts := make(plotter.XYs, len(profiles))
	for i, prof := range profiles {
		pts[i] = plotter.XY{X: float64(prof.NumFunctions), Y: prof.MeanDuration}
	}
	p := newPlot("Relationship between Number of functions and Average invocation duration per Application",
		"Number of functions", "Average invocation duration per Application (sec)")
	if err := r.scatter(p, KindAppAnalysis, pts); err != nil {
		return Chart{}, err
	}
	p.Add(plotter.NewGrid())
	return r.save(p, KindAppAnalysis, "")
}

// AppFunctionDurations plots every function's mean duration in its app's column.
func (r *Renderer) AppFunctionDurations(values []analysis.AppFunctionValue) (Chart, error) {
	if len(values) == 0 {
		return Chart{}, fmt.Errorf("%w: %s", ErrNoData, KindAppFunctionDurations)
	}
	column := make(map[string]int)
	var apps []string
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		x, ok := column[v.App]
		if !ok {
			x = len(apps)
			column[v.App] = x
			apps = append(apps, v.App)
		}
		pts[i] = plotter.XY{X: float64(x), Y: v.Value}
	}
	p := newPlot("Average duration of individual functions per application",
		"Application", "Average Duration of Individual Functions (sec)")
	if err := r.scatter(p, KindAppFunctionDurations, pts); err != nil {
		return Chart{}, err
	}
	p.Add(plotter.NewGrid())
	p.NominalX(apps...)
	rotateXLabels(p)
	return r.save(p, KindAppFunctionDurations, "")
}

// FunctionDurations draws one box per function of a drilled-down application.
func (r *Renderer) FunctionDurations(view *drilldown.AppView) (Chart, error) {
	p := newPlot("Distribution of the duration of invocations by Function", "Function", "Duration of Invocations (sec)")
	if err := r.boxes(p, KindFunctionDurations, view.DurationsByFunction()); err != nil {
		return Chart{}, err
	}
	p.NominalX(view.Functions...)
	return r.save(p, KindFunctionDurations, view.App)
}
