package drilldown

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

// Call is one invocation of the selected application.
type Call struct {
	Func         string // locally renamed fun_<n>
	OriginalFunc string
	Start        time.Time
	End          time.Time
	Duration     float64 // seconds
}

// AppView is an independent copy of one application's invocations. Nothing in it
// aliases the table it was built from.
type AppView struct {
	App       string
	Functions []string // renamed functions in first-seen order
	Renames   trace.RenameMap
	Calls     []Call // ordered by Start
}

// secondsToDuration converts float seconds to a Duration, rounded to the nanosecond.
func secondsToDuration(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}

// Select builds the AppView for app: functions are renamed by first appearance and
// each call's start is reconstructed as end - duration.
func Select(t *trace.Table, app string) (*AppView, error) {
	var rows []trace.Invocation
	for _, inv := range t.Invocations {
		if inv.App == app {
			rows = append(rows, inv)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %w: %q", ErrSelection, ErrUnknownApp, app)
	}

	funcs := make([]string, len(rows))
	for i, inv := range rows {
		funcs[i] = inv.Func
	}
	renames := trace.NewRenameMap(trace.FunctionPrefix, funcs)

	calls := make([]Call, len(rows))
	for i, inv := range rows {
		renamed, _ := renames.Get(inv.Func)
		calls[i] = Call{
			Func:         renamed,
			OriginalFunc: inv.Func,
			Start:        inv.EndTimestamp.Add(-secondsToDuration(inv.Duration)),
			End:          inv.EndTimestamp,
			Duration:     inv.Duration,
		}
	}
	slices.SortStableFunc(calls, func(a, b Call) int { return a.Start.Compare(b.Start) })

	return &AppView{
		App:       app,
		Functions: renames.Renamed(),
		Renames:   renames,
		Calls:     calls,
	}, nil
}

// FunctionIndex returns the position of a renamed function in Functions.
func (v *AppView) FunctionIndex(fn string) int {
	return slices.Index(v.Functions, fn)
}

// DurationsByFunction groups call durations by function, in Functions order.
func (v *AppView) DurationsByFunction() [][]float64 {
	out := make([][]float64, len(v.Functions))
	for _, c := range v.Calls {
		i := v.FunctionIndex(c.Func)
		out[i] = append(out[i], c.Duration)
	}
	return out
}
