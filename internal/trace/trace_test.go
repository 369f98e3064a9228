package trace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `app,func,end_timestamp,duration,extra
a9f3,f1,1612137600,1.5,x
a9f3,f2,1612141200.25,0.5,
b771,f1,1612224000,3,y
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	table, err := Load(writeFile(t, sampleCSV))
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, "a9f3", table.Invocations[0].App)
	assert.Equal(t, "f2", table.Invocations[1].Func)
	assert.Equal(t, 1612141200.25, table.Invocations[1].EndEpoch)
	assert.Equal(t, 3.0, table.Invocations[2].Duration)
	assert.Equal(t, time.Date(2021, 2, 1, 1, 0, 0, 250_000_000, time.UTC), table.Invocations[1].EndTimestamp)

	assert.Equal(t, 3, table.Schema.Rows)
	assert.Equal(t, int64(len(sampleCSV)), table.Schema.Bytes)
	assert.Equal(t, []ColumnInfo{
		{Name: "app", Dtype: "object", NonNull: 3},
		{Name: "func", Dtype: "object", NonNull: 3},
		{Name: "end_timestamp", Dtype: "float64", NonNull: 3},
		{Name: "duration", Dtype: "float64", NonNull: 3},
		{Name: "extra", Dtype: "object", NonNull: 2},
	}, table.Schema.Columns)
	assert.Len(t, table.Head(2), 2)
	assert.Len(t, table.Head(10), 3)
	assert.Empty(t, table.Head(-1))
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"missing duration column", "app,func,end_timestamp\na,f,1\n", ErrMissingColumn},
		{"empty file", "", ErrMissingColumn},
		{"negative duration", "app,func,end_timestamp,duration\na,f,1,-2\n", ErrMalformedRow},
		{"text timestamp", "app,func,end_timestamp,duration\na,f,soon,2\n", ErrMalformedRow},
		{"empty app", "app,func,end_timestamp,duration\n,f,1,2\n", ErrMalformedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataLoad)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
		assert.ErrorIs(t, err, ErrDataLoad)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoad_HeaderOnly(t *testing.T) {
	table, err := Load(writeFile(t, "app,func,end_timestamp,duration\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	_, err = Derive(table, DefaultReferenceDate)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestDerive_UniformShift(t *testing.T) {
	table, err := Parse([]byte(sampleCSV))
	require.NoError(t, err)
	original := make([]time.Time, table.Len())
	for i, inv := range table.Invocations {
		original[i] = inv.EndTimestamp
	}

	shift, err := Derive(table, DefaultReferenceDate)
	require.NoError(t, err)
	assert.Equal(t, shift, table.Shift)
	assert.True(t, table.Derived)

	earliest := table.Invocations[0].EndTimestamp
	for i, inv := range table.Invocations {
		assert.Equal(t, shift, inv.EndTimestamp.Sub(original[i]), "row %d", i)
		if inv.EndTimestamp.Before(earliest) {
			earliest = inv.EndTimestamp
		}
	}
	assert.True(t, earliest.Equal(DefaultReferenceDate.In(time.UTC)))
}

func TestDerive_CalendarFields(t *testing.T) {
	table, err := Parse([]byte(sampleCSV))
	require.NoError(t, err)
	_, err = Derive(table, DefaultReferenceDate)
	require.NoError(t, err)

	for _, inv := range table.Invocations {
		assert.Equal(t, civil.DateOf(inv.EndTimestamp), inv.Date)
		assert.Equal(t, inv.EndTimestamp.Hour(), inv.Hour)
		assert.Equal(t, Weekday(inv.EndTimestamp), inv.DayOfWeek)
	}

	// 2021-01-31 is a Sunday.
	first := table.Invocations[0]
	assert.Equal(t, civil.Date{Year: 2021, Month: 1, Day: 31}, first.Date)
	assert.Equal(t, 6, first.DayOfWeek)
	assert.Equal(t, 0, first.Hour)

	second := table.Invocations[1]
	assert.Equal(t, 1, second.Hour)

	// one day after the earliest row: Monday 2021-02-01
	third := table.Invocations[2]
	assert.Equal(t, civil.Date{Year: 2021, Month: 2, Day: 1}, third.Date)
	assert.Equal(t, 0, third.DayOfWeek)
}

func TestDerive_Idempotent(t *testing.T) {
	table, err := Parse([]byte(sampleCSV))
	require.NoError(t, err)
	_, err = Derive(table, DefaultReferenceDate)
	require.NoError(t, err)
	first := table.Clone()

	_, err = Derive(table, DefaultReferenceDate)
	require.NoError(t, err)
	assert.Equal(t, first.Invocations, table.Invocations)
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Monday", WeekdayName(0))
	assert.Equal(t, "Sunday", WeekdayName(6))
}

func TestRenameApps(t *testing.T) {
	table := &Table{Invocations: []Invocation{
		{App: "zeta"}, {App: "alpha"}, {App: "zeta"}, {App: "mid"}, {App: "alpha"},
	}}

	renamed, m := RenameApps(table)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Originals())
	assert.Equal(t, []string{"app_1", "app_2", "app_3"}, m.Renamed())

	var apps []string
	for _, inv := range renamed.Invocations {
		apps = append(apps, inv.App)
	}
	assert.Equal(t, []string{"app_1", "app_2", "app_1", "app_3", "app_2"}, apps)
	assert.Equal(t, "zeta", table.Invocations[0].App, "input table must not change")

	_, again := RenameApps(table)
	assert.Equal(t, m, again)

	seen := map[string]string{}
	for _, orig := range m.Originals() {
		to, ok := m.Get(orig)
		require.True(t, ok)
		_, dup := seen[to]
		assert.False(t, dup, "%s assigned twice", to)
		seen[to] = orig
	}
}

func TestWriteCSV_LoadsBack(t *testing.T) {
	data, err := WriteCSV([]Invocation{
		{App: "a", Func: "f", EndEpoch: 1612137600.5, Duration: 0.25},
	})
	require.NoError(t, err)

	table, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 1612137600.5, table.Invocations[0].EndEpoch)
	assert.Equal(t, 0.25, table.Invocations[0].Duration)
}

func TestTable_NilReceiver(t *testing.T) {
	var table *Table
	assert.Equal(t, 0, table.Len())
	assert.NotPanics(t, func() {
		assert.Empty(t, table.Head(5))
	})
}
