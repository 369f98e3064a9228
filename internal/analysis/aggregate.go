package analysis

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

// groups collects row indices per key, keeping keys in first-seen order.
type groups[K comparable] struct {
	keys []K
	rows map[K][]int
}

func groupBy[K comparable](t *trace.Table, key func(trace.Invocation) K) groups[K] {
	g := groups[K]{rows: make(map[K][]int)}
	for i, inv := range t.Invocations {
		k := key(inv)
		if _, ok := g.rows[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.rows[k] = append(g.rows[k], i)
	}
	return g
}

func (g groups[K]) durations(t *trace.Table, k K) []float64 {
	idx := g.rows[k]
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = t.Invocations[r].Duration
	}
	return out
}

func (g groups[K]) meanDuration(t *trace.Table, k K) float64 {
	m, _ := Mean(g.durations(t, k))
	return m
}

func byDate(inv trace.Invocation) civil.Date { return inv.Date }
func byHour(inv trace.Invocation) int        { return inv.Hour }
func byApp(inv trace.Invocation) string      { return inv.App }

type appFunc struct{ app, fn string }

func byAppFunc(inv trace.Invocation) appFunc { return appFunc{inv.App, inv.Func} }

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// DurationStats describes the duration column over all invocations.
func DurationStats(t *trace.Table) Summary {
	return Describe(t.Durations())
}

// CountsByDate counts invocations per date, ascending by date. Each date carries
// the weekday of its first invocation.
func CountsByDate(t *trace.Table) []DateCount {
	g := groupBy(t, byDate)
	out := make([]DateCount, 0, len(g.keys))
	for _, d := range g.keys {
		rows := g.rows[d]
		out = append(out, DateCount{
			Date:      d,
			DayOfWeek: t.Invocations[rows[0]].DayOfWeek,
			Count:     len(rows),
		})
	}
	slices.SortFunc(out, func(a, b DateCount) int { return compareDates(a.Date, b.Date) })
	return out
}

// MeanDurationByDate is the mean duration per date, ascending by date.
func MeanDurationByDate(t *trace.Table) []DateValue {
	g := groupBy(t, byDate)
	out := make([]DateValue, 0, len(g.keys))
	for _, d := range g.keys {
		out = append(out, DateValue{Date: d, Value: g.meanDuration(t, d)})
	}
	slices.SortFunc(out, func(a, b DateValue) int { return compareDates(a.Date, b.Date) })
	return out
}

// StatsForDate describes durations of invocations that ended on d.
func StatsForDate(t *trace.Table, d civil.Date) Summary {
	return Describe(t.Filter(func(inv trace.Invocation) bool { return inv.Date == d }).Durations())
}

// DurationsByDate returns the duration samples per date, ascending by date.
func DurationsByDate(t *trace.Table) ([]civil.Date, [][]float64) {
	g := groupBy(t, byDate)
	dates := slices.Clone(g.keys)
	slices.SortFunc(dates, compareDates)
	values := make([][]float64, len(dates))
	for i, d := range dates {
		values[i] = g.durations(t, d)
	}
	return dates, values
}

// DistinctDates counts the dates present in the table.
func DistinctDates(t *trace.Table) int {
	return len(groupBy(t, byDate).keys)
}

// MeanInvocationsByHour returns, for every hour 0-23, the invocations in that hour
// divided by the number of distinct dates. Hours with no invocations report 0.
func MeanInvocationsByHour(t *trace.Table) []HourValue {
	days := DistinctDates(t)
	if days == 0 {
		return nil
	}
	var counts [24]int
	for _, inv := range t.Invocations {
		counts[inv.Hour]++
	}
	out := make([]HourValue, 24)
	for h := range out {
		out[h] = HourValue{Hour: h, Value: float64(counts[h]) / float64(days)}
	}
	return out
}

// MeanDurationByHour is the mean duration for each hour that has invocations.
func MeanDurationByHour(t *trace.Table) []HourValue {
	g := groupBy(t, byHour)
	out := make([]HourValue, 0, len(g.keys))
	for _, h := range g.keys {
		out = append(out, HourValue{Hour: h, Value: g.meanDuration(t, h)})
	}
	slices.SortFunc(out, func(a, b HourValue) int { return cmp.Compare(a.Hour, b.Hour) })
	return out
}

// DurationsByHour returns the duration samples for hours 0-23. Empty hours get a nil slice.
func DurationsByHour(t *trace.Table) [24][]float64 {
	var out [24][]float64
	for _, inv := range t.Invocations {
		out[inv.Hour] = append(out[inv.Hour], inv.Duration)
	}
	return out
}

// StatsForHour describes every numeric column over the invocations in hour h.
func StatsForHour(t *trace.Table, h int) []ColumnSummary {
	sub := t.Filter(func(inv trace.Invocation) bool { return inv.Hour == h })
	hours := make([]float64, sub.Len())
	days := make([]float64, sub.Len())
	for i, inv := range sub.Invocations {
		hours[i] = float64(inv.Hour)
		days[i] = float64(inv.DayOfWeek)
	}
	return []ColumnSummary{
		{Column: trace.ColumnDuration, Summary: Describe(sub.Durations())},
		{Column: "hour", Summary: Describe(hours)},
		{Column: "day_of_week", Summary: Describe(days)},
	}
}

// UniqueApps counts distinct apps.
func UniqueApps(t *trace.Table) int {
	return len(groupBy(t, byApp).keys)
}

// UniqueAppFunctions counts distinct (app, func) pairs.
func UniqueAppFunctions(t *trace.Table) int {
	return len(groupBy(t, byAppFunc).keys)
}

// FunctionsPerApp counts distinct functions per app, apps in first-seen order.
func FunctionsPerApp(t *trace.Table) []AppCount {
	g := groupBy(t, byApp)
	out := make([]AppCount, 0, len(g.keys))
	for _, app := range g.keys {
		funcs := make(map[string]struct{})
		for _, r := range g.rows[app] {
			funcs[t.Invocations[r].Func] = struct{}{}
		}
		out = append(out, AppCount{App: app, Count: len(funcs)})
	}
	return out
}

// FunctionCountSummary describes the num_functions distribution across apps.
func FunctionCountSummary(counts []AppCount) Summary {
	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
	}
	return Describe(values)
}

// MeanDailyInvocationsPerApp averages each app's per-date invocation count over
// the dates the app appears on. Sorted descending, ties by app name.
func MeanDailyInvocationsPerApp(t *trace.Table) []AppValue {
	out := meanDailyInvocations(t)
	slices.SortFunc(out, func(a, b AppValue) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.App, b.App)
	})
	return out
}

// meanDailyInvocations is MeanDailyInvocationsPerApp in app first-seen order.
func meanDailyInvocations(t *trace.Table) []AppValue {
	g := groupBy(t, byApp)
	out := make([]AppValue, 0, len(g.keys))
	for _, app := range g.keys {
		perDate := make(map[civil.Date]int)
		for _, r := range g.rows[app] {
			perDate[t.Invocations[r].Date]++
		}
		out = append(out, AppValue{App: app, Value: float64(len(g.rows[app])) / float64(len(perDate))})
	}
	return out
}

// MeanDurationPerApp is the mean duration per app, apps in first-seen order.
func MeanDurationPerApp(t *trace.Table) []AppValue {
	g := groupBy(t, byApp)
	out := make([]AppValue, 0, len(g.keys))
	for _, app := range g.keys {
		out = append(out, AppValue{App: app, Value: g.meanDuration(t, app)})
	}
	return out
}

// MeanDurationPerAppFunction is the mean duration per (app, func), first-seen order.
func MeanDurationPerAppFunction(t *trace.Table) []AppFunctionValue {
	g := groupBy(t, byAppFunc)
	out := make([]AppFunctionValue, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, AppFunctionValue{App: k.app, Func: k.fn, Value: g.meanDuration(t, k)})
	}
	return out
}

// Profiles builds one ApplicationProfile per app, apps in first-seen order.
func Profiles(t *trace.Table) []ApplicationProfile {
	funcs := FunctionsPerApp(t)
	daily := meanDailyInvocations(t)
	durations := MeanDurationPerApp(t)

	out := make([]ApplicationProfile, len(funcs))
	for i := range funcs {
		out[i] = ApplicationProfile{
			App:                  funcs[i].App,
			NumFunctions:         funcs[i].Count,
			MeanDailyInvocations: daily[i].Value,
			MeanDuration:         durations[i].Value,
		}
	}
	return out
}

// AppFunctionCorrelation is the Pearson correlation between per-app function count
// and per-app mean duration.
func AppFunctionCorrelation(profiles []ApplicationProfile) (float64, error) {
	numFuncs := make([]float64, len(profiles))
	meanDur := make([]float64, len(profiles))
	for i, p := range profiles {
		numFuncs[i] = float64(p.NumFunctions)
		meanDur[i] = p.MeanDuration
	}
	return Correlation(meanDur, numFuncs)
}

// EligibleApps lists apps with more than one distinct function, first-seen order.
func EligibleApps(t *trace.Table) []string {
	var out []string
	for _, c := range FunctionsPerApp(t) {
		if c.Count > 1 {
			out = append(out, c.App)
		}
	}
	return out
}
