package analysis

import (
	"math"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

var (
	day0 = civil.Date{Year: 2021, Month: 1, Day: 31}
	day1 = civil.Date{Year: 2021, Month: 2, Day: 1}
	day2 = civil.Date{Year: 2021, Month: 2, Day: 2}
)

// loadFixture loads testdata/trace10.csv, derives calendar fields and renames apps
// (A, B, C become app_1, app_2, app_3).
func loadFixture(t *testing.T) *trace.Table {
	t.Helper()
	table, err := trace.Load("testdata/trace10.csv")
	require.NoError(t, err)
	_, err = trace.Derive(table, trace.DefaultReferenceDate)
	require.NoError(t, err)
	renamed, _ := trace.RenameApps(table)
	return renamed
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5})
	assert.Equal(t, 10, s.Count)
	assert.InDelta(t, 5.5, s.Mean, 1e-12)
	assert.InDelta(t, 3.0276503540974917, s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 3.25, s.Q25, 1e-12)
	assert.InDelta(t, 5.5, s.Q50, 1e-12)
	assert.InDelta(t, 7.75, s.Q75, 1e-12)
	assert.Equal(t, 10.0, s.Max)
}

func TestDescribe_Degenerate(t *testing.T) {
	empty := Describe(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
	assert.True(t, math.IsNaN(empty.Max))

	single := Describe([]float64{4})
	assert.Equal(t, 4.0, single.Mean)
	assert.True(t, math.IsNaN(single.Std))
	assert.Equal(t, 4.0, single.Q25)
	assert.Equal(t, 4.0, single.Q75)
}

func TestMean_Empty(t *testing.T) {
	_, err := Mean(nil)
	assert.ErrorIs(t, err, ErrUndefinedStatistic)
}

func TestCorrelation(t *testing.T) {
	r, err := Correlation([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	tests := []struct {
		name string
		x, y []float64
	}{
		{"single point", []float64{1}, []float64{1}},
		{"no points", nil, nil},
		{"zero variance", []float64{1, 2, 3}, []float64{5, 5, 5}},
		{"length mismatch", []float64{1, 2}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Correlation(tt.x, tt.y)
			assert.ErrorIs(t, err, ErrUndefinedStatistic)
			assert.True(t, math.IsNaN(r))
		})
	}
}

func TestDurationStats(t *testing.T) {
	s := DurationStats(loadFixture(t))
	assert.Equal(t, 10, s.Count)
	assert.InDelta(t, 5.5, s.Mean, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
}

func TestDateAggregations(t *testing.T) {
	table := loadFixture(t)

	assert.Equal(t, []DateCount{
		{Date: day0, DayOfWeek: 6, Count: 4},
		{Date: day1, DayOfWeek: 0, Count: 5},
		{Date: day2, DayOfWeek: 1, Count: 1},
	}, CountsByDate(table))

	means := MeanDurationByDate(table)
	require.Len(t, means, 3)
	assert.Equal(t, day0, means[0].Date)
	assert.InDelta(t, 2.5, means[0].Value, 1e-12)
	assert.InDelta(t, 7.0, means[1].Value, 1e-12)
	assert.InDelta(t, 10.0, means[2].Value, 1e-12)

	s := StatsForDate(table, day1)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 7.0, s.Mean, 1e-12)
	assert.Equal(t, 5.0, s.Min)
	assert.Equal(t, 9.0, s.Max)

	none := StatsForDate(table, civil.Date{Year: 2020, Month: 1, Day: 1})
	assert.Equal(t, 0, none.Count)
	assert.True(t, math.IsNaN(none.Mean))

	dates, values := DurationsByDate(table)
	assert.Equal(t, []civil.Date{day0, day1, day2}, dates)
	assert.Equal(t, []float64{1, 2, 3, 4}, values[0])
	assert.Equal(t, []float64{10}, values[2])
	assert.Equal(t, 3, DistinctDates(table))
}

func TestHourAggregations(t *testing.T) {
	table := loadFixture(t)

	perHour := MeanInvocationsByHour(table)
	require.Len(t, perHour, 24)
	assert.InDelta(t, 1.0, perHour[0].Value, 1e-12)
	assert.InDelta(t, 1.0/3, perHour[1].Value, 1e-12)
	assert.InDelta(t, 4.0/3, perHour[5].Value, 1e-12)
	assert.InDelta(t, 2.0/3, perHour[6].Value, 1e-12)
	assert.Equal(t, 0.0, perHour[12].Value)

	durations := MeanDurationByHour(table)
	require.Len(t, durations, 4)
	assert.Equal(t, []int{0, 1, 5, 6}, []int{durations[0].Hour, durations[1].Hour, durations[2].Hour, durations[3].Hour})
	assert.InDelta(t, 16.0/3, durations[0].Value, 1e-12)
	assert.InDelta(t, 5.0, durations[2].Value, 1e-12)
	assert.InDelta(t, 8.5, durations[3].Value, 1e-12)

	byHour := DurationsByHour(table)
	assert.Equal(t, []float64{3, 4, 6, 7}, byHour[5])
	assert.Nil(t, byHour[23])

	stats := StatsForHour(table, 5)
	require.Len(t, stats, 3)
	assert.Equal(t, "duration", stats[0].Column)
	assert.Equal(t, 4, stats[0].Count)
	assert.InDelta(t, 5.0, stats[0].Mean, 1e-12)
	assert.Equal(t, 0.0, stats[1].Std)
	assert.InDelta(t, 3.0, stats[2].Mean, 1e-12)
}

func TestMeanInvocationsByHour_TwoDates(t *testing.T) {
	// hour 5 holds 4 invocations spread over 2 distinct dates
	table := &trace.Table{Invocations: []trace.Invocation{
		{Hour: 5, Date: day0}, {Hour: 5, Date: day0}, {Hour: 5, Date: day0},
		{Hour: 5, Date: day1}, {Hour: 9, Date: day1},
	}}
	perHour := MeanInvocationsByHour(table)
	assert.Equal(t, 2.0, perHour[5].Value)
	assert.Equal(t, 0.5, perHour[9].Value)

	assert.Nil(t, MeanInvocationsByHour(&trace.Table{}))
}

func TestFunctionsPerApp(t *testing.T) {
	table := &trace.Table{Invocations: []trace.Invocation{
		{App: "A", Func: "f1"}, {App: "B", Func: "g"}, {App: "A", Func: "f2"},
		{App: "A", Func: "f3"}, {App: "A", Func: "f1"}, {App: "B", Func: "g"},
	}}
	assert.Equal(t, []AppCount{{App: "A", Count: 3}, {App: "B", Count: 1}}, FunctionsPerApp(table))
	assert.Equal(t, []string{"A"}, EligibleApps(table))
}

func TestAppAggregations(t *testing.T) {
	table := loadFixture(t)

	assert.Equal(t, 3, UniqueApps(table))
	assert.Equal(t, 5, UniqueAppFunctions(table))

	counts := FunctionsPerApp(table)
	assert.Equal(t, []AppCount{{"app_1", 3}, {"app_2", 1}, {"app_3", 1}}, counts)
	summary := FunctionCountSummary(counts)
	assert.InDelta(t, 5.0/3, summary.Mean, 1e-12)
	assert.InDelta(t, 1.1547005383792515, summary.Std, 1e-12)

	assert.Equal(t, []AppValue{{"app_1", 2.5}, {"app_2", 1.5}, {"app_3", 1.0}}, MeanDailyInvocationsPerApp(table))

	durations := MeanDurationPerApp(table)
	require.Len(t, durations, 3)
	assert.InDelta(t, 4.2, durations[0].Value, 1e-12)
	assert.InDelta(t, 17.0/3, durations[1].Value, 1e-12)
	assert.InDelta(t, 8.5, durations[2].Value, 1e-12)

	perFunc := MeanDurationPerAppFunction(table)
	require.Len(t, perFunc, 5)
	assert.Equal(t, "app_1", perFunc[0].App)
	assert.Equal(t, "f1", perFunc[0].Func)
	assert.InDelta(t, 13.0/3, perFunc[0].Value, 1e-12)
	assert.Equal(t, "app_2", perFunc[2].App)
	assert.Equal(t, "f3", perFunc[3].Func)

	profiles := Profiles(table)
	require.Len(t, profiles, 3)
	assert.Equal(t, ApplicationProfile{App: "app_3", NumFunctions: 1, MeanDailyInvocations: 1, MeanDuration: 8.5}, profiles[2])

	r, err := AppFunctionCorrelation(profiles)
	require.NoError(t, err)
	assert.InDelta(t, -0.7615605166942095, r, 1e-9)

	assert.Equal(t, []string{"app_1"}, EligibleApps(table))
}

func TestMeanDailyInvocationsPerApp_TieBreak(t *testing.T) {
	table := &trace.Table{Invocations: []trace.Invocation{
		{App: "zz", Date: day0}, {App: "aa", Date: day0},
	}}
	assert.Equal(t, []AppValue{{"aa", 1}, {"zz", 1}}, MeanDailyInvocationsPerApp(table))
}

func TestAppFunctionCorrelation_SingleApp(t *testing.T) {
	table := &trace.Table{Invocations: []trace.Invocation{
		{App: "only", Func: "f1", Duration: 1, Date: day0},
		{App: "only", Func: "f2", Duration: 3, Date: day0},
	}}
	r, err := AppFunctionCorrelation(Profiles(table))
	assert.ErrorIs(t, err, ErrUndefinedStatistic)
	assert.True(t, math.IsNaN(r))
}
