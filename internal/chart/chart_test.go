package chart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/tracelens/internal/analysis"
	"github.com/sanspareilsmyn/tracelens/internal/drilldown"
	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

func fixture(t *testing.T) *trace.Table {
	t.Helper()
	table, err := trace.Load(filepath.Join("..", "analysis", "testdata", "trace10.csv"))
	require.NoError(t, err)
	_, err = trace.Derive(table, trace.DefaultReferenceDate)
	require.NoError(t, err)
	return table
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{Dir: filepath.Join(t.TempDir(), "charts"), Width: 6, Height: 4, HistogramBins: 5}, zap.NewNop())
	require.NoError(t, err)
	return r
}

func assertPNG(t *testing.T, c Chart) {
	t.Helper()
	info, err := os.Stat(c.Path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, ".png", filepath.Ext(c.Path))
	assert.NotEmpty(t, c.Title)
}

func TestRenderer_AllCharts(t *testing.T) {
	table := fixture(t)
	r := newTestRenderer(t)
	dates, byDate := analysis.DurationsByDate(table)
	profiles := analysis.Profiles(table)
	view, err := drilldown.Select(table, "A")
	require.NoError(t, err)

	draws := map[Kind]func() (Chart, error){
		KindDurationHistogram:      func() (Chart, error) { return r.DurationHistogram(table.Durations()) },
		KindCountsByDate:           func() (Chart, error) { return r.CountsByDate(analysis.CountsByDate(table)) },
		KindMeanDurationByDate:     func() (Chart, error) { return r.MeanDurationByDate(analysis.MeanDurationByDate(table)) },
		KindDurationBoxByDate:      func() (Chart, error) { return r.DurationBoxByDate(dates, byDate, false) },
		KindDurationBoxByDateLog:   func() (Chart, error) { return r.DurationBoxByDate(dates, byDate, true) },
		KindInvocationsByHour:      func() (Chart, error) { return r.MeanInvocationsByHour(analysis.MeanInvocationsByHour(table)) },
		KindMeanDurationByHour:     func() (Chart, error) { return r.MeanDurationByHour(analysis.MeanDurationByHour(table)) },
		KindDurationBoxByHour:      func() (Chart, error) { return r.DurationBoxByHour(analysis.DurationsByHour(table), false) },
		KindDurationBoxByHourLog:   func() (Chart, error) { return r.DurationBoxByHour(analysis.DurationsByHour(table), true) },
		KindFunctionsPerApp:        func() (Chart, error) { return r.FunctionsPerApp(analysis.FunctionsPerApp(table)) },
		KindDailyInvocationsPerApp: func() (Chart, error) { return r.MeanDailyInvocationsPerApp(analysis.MeanDailyInvocationsPerApp(table)) },
		KindAppAnalysis:            func() (Chart, error) { return r.AppAnalysis(profiles) },
		KindAppFunctionDurations:   func() (Chart, error) { return r.AppFunctionDurations(analysis.MeanDurationPerAppFunction(table)) },
		KindTemporalPattern:        func() (Chart, error) { return r.TemporalPattern(view) },
		KindFunctionDurations:      func() (Chart, error) { return r.FunctionDurations(view) },
	}
	for kind, draw := range draws {
		t.Run(string(kind), func(t *testing.T) {
			c, err := draw()
			require.NoError(t, err)
			assert.Equal(t, kind, c.Kind)
			assertPNG(t, c)
		})
	}
}

func TestRenderer_SinglePointTimeSeries(t *testing.T) {
	r := newTestRenderer(t)
	c, err := r.MeanDurationByDate([]analysis.DateValue{{Date: trace.DefaultReferenceDate, Value: 2}})
	require.NoError(t, err)
	assertPNG(t, c)
}

func TestRenderer_NoData(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.DurationHistogram(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = r.MeanDurationByDate(nil)
	assert.ErrorIs(t, err, ErrNoData)

	var zeros [24][]float64
	zeros[3] = []float64{0, 0}
	_, err = r.DurationBoxByHour(zeros, true)
	assert.ErrorIs(t, err, ErrNoData, "log scale drops non-positive durations")
}

func TestRenderer_FileNames(t *testing.T) {
	r := newTestRenderer(t)
	assert.Equal(t, "01_function_durations_app_1_x.png", filepath.Base(r.nextPath(KindFunctionDurations, "app 1/x")))
	assert.Equal(t, "02_app_analysis.png", filepath.Base(r.nextPath(KindAppAnalysis, "")))
}

func TestDayColor(t *testing.T) {
	assert.Equal(t, dayPalette[0], DayColor(7))
	assert.Equal(t, dayPalette[6], DayColor(-1))
}

type recordingViewer struct {
	shown []Chart
	err   error
}

func (v *recordingViewer) Show(_ context.Context, c Chart) error {
	v.shown = append(v.shown, c)
	return v.err
}

type kindCounter map[string]int

func (k kindCounter) ChartRendered(kind string) { k[kind]++ }

func TestSink_Show(t *testing.T) {
	table := fixture(t)
	viewer := &recordingViewer{}
	counts := kindCounter{}
	sink := NewSink(newTestRenderer(t), viewer, counts, zap.NewNop())

	c, err := sink.Show(context.Background(), func(r *Renderer) (Chart, error) {
		return r.DurationHistogram(table.Durations())
	})
	require.NoError(t, err)
	assertPNG(t, c)
	assert.Equal(t, []Chart{c}, viewer.shown)
	assert.Equal(t, 1, counts[string(KindDurationHistogram)])

	c, err = sink.Show(context.Background(), func(r *Renderer) (Chart, error) {
		return r.DurationHistogram(nil)
	})
	require.NoError(t, err, "empty charts are skipped")
	assert.Empty(t, c.Path)
	assert.Len(t, viewer.shown, 1)

	viewer.err = ErrViewFailed
	_, err = sink.Show(context.Background(), func(r *Renderer) (Chart, error) {
		return r.DurationHistogram(table.Durations())
	})
	assert.ErrorIs(t, err, ErrViewFailed)
}

func TestSystemViewer(t *testing.T) {
	var opened, confirmed []string
	v := &SystemViewer{
		logger:  zap.NewNop(),
		open:    func(path string) error { opened = append(opened, path); return nil },
		confirm: func(label string) error { confirmed = append(confirmed, label); return nil },
	}
	c := Chart{Kind: KindAppAnalysis, Title: "App analysis", Path: "/tmp/02_app_analysis.png"}
	require.NoError(t, v.Show(context.Background(), c))
	assert.Equal(t, []string{c.Path}, opened)
	require.Len(t, confirmed, 1)
	assert.Contains(t, confirmed[0], "App analysis")

	boom := errors.New("no opener")
	v.open = func(string) error { return boom }
	err := v.Show(context.Background(), c)
	assert.ErrorIs(t, err, ErrViewFailed)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, v.Show(ctx, c), context.Canceled)
}
