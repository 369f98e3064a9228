package trace

import (
	"time"

	"cloud.google.com/go/civil"
)

// Column names of the documented trace schema.
const (
	ColumnApp          = "app"
	ColumnFunc         = "func"
	ColumnEndTimestamp = "end_timestamp"
	ColumnDuration     = "duration"
)

// RequiredColumns must all be present in the CSV header.
var RequiredColumns = []string{ColumnApp, ColumnFunc, ColumnEndTimestamp, ColumnDuration}

// Invocation is one row of the trace plus the calendar fields derived from its
// shifted end timestamp.
type Invocation struct {
	App          string
	Func         string
	EndEpoch     float64   // raw end_timestamp, epoch seconds
	EndTimestamp time.Time // UTC, shifted once Derive has run
	Duration     float64   // seconds

	Hour      int // 0-23
	DayOfWeek int // 0=Monday .. 6=Sunday
	Date      civil.Date
}

// ColumnInfo describes one CSV column as loaded.
type ColumnInfo struct {
	Name    string
	Dtype   string // int64, float64 or object
	NonNull int
}

// Schema is the shape of the loaded CSV.
type Schema struct {
	Path    string
	Bytes   int64
	Rows    int
	Columns []ColumnInfo
}

// Table is the in-memory trace. Rows keep their CSV order.
type Table struct {
	Invocations []Invocation
	Schema      Schema
	Shift       time.Duration // offset applied by Derive
	Derived     bool
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Invocations)
}

// Head returns up to n leading invocations.
func (t *Table) Head(n int) []Invocation {
	n = min(max(n, 0), t.Len())
	if n == 0 {
		return nil
	}
	return t.Invocations[:n]
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	c.Invocations = make([]Invocation, len(t.Invocations))
	copy(c.Invocations, t.Invocations)
	c.Schema.Columns = append([]ColumnInfo(nil), t.Schema.Columns...)
	return &c
}

// Filter returns a new table holding copies of the invocations keep accepts.
func (t *Table) Filter(keep func(Invocation) bool) *Table {
	c := *t
	c.Invocations = nil
	for _, inv := range t.Invocations {
		if keep(inv) {
			c.Invocations = append(c.Invocations, inv)
		}
	}
	return &c
}

// Durations returns the duration column.
func (t *Table) Durations() []float64 {
	out := make([]float64, len(t.Invocations))
	for i, inv := range t.Invocations {
		out[i] = inv.Duration
	}
	return out
}
