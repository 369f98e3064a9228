package trace

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// csvRecord is the wire form of one trace row.
type csvRecord struct {
	App          string  `csv:"app"`
	Func         string  `csv:"func"`
	EndTimestamp float64 `csv:"end_timestamp"`
	Duration     float64 `csv:"duration"`
}

// Load reads the trace CSV at path. Every failure wraps ErrDataLoad.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataLoad, err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataLoad, path, err)
	}
	table.Schema.Path = path
	table.Schema.Bytes = int64(len(data))
	return table, nil
}

// Parse decodes CSV bytes into a Table. The header must contain RequiredColumns.
func Parse(data []byte) (*Table, error) {
	raw, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}
	header := raw[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for _, col := range RequiredColumns {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var records []csvRecord
	if len(raw) > 1 {
		if err := gocsv.UnmarshalBytes(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
	}

	invocations := make([]Invocation, 0, len(records))
	for i, rec := range records {
		inv, err := rec.toInvocation()
		if err != nil {
			// +2: one for the header, one for 1-based line numbers
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, i+2, err)
		}
		invocations = append(invocations, inv)
	}

	return &Table{
		Invocations: invocations,
		Schema: Schema{
			Rows:    len(invocations),
			Columns: inferColumns(header, raw[1:]),
		},
	}, nil
}

func (r csvRecord) toInvocation() (Invocation, error) {
	switch {
	case r.App == "":
		return Invocation{}, fmt.Errorf("empty %s", ColumnApp)
	case r.Func == "":
		return Invocation{}, fmt.Errorf("empty %s", ColumnFunc)
	case math.IsNaN(r.EndTimestamp) || math.IsInf(r.EndTimestamp, 0):
		return Invocation{}, fmt.Errorf("non-finite %s", ColumnEndTimestamp)
	case math.IsNaN(r.Duration) || math.IsInf(r.Duration, 0) || r.Duration < 0:
		return Invocation{}, fmt.Errorf("invalid %s %v", ColumnDuration, r.Duration)
	}
	return Invocation{
		App:          r.App,
		Func:         r.Func,
		EndEpoch:     r.EndTimestamp,
		EndTimestamp: epochToTime(r.EndTimestamp),
		Duration:     r.Duration,
	}, nil
}

// epochToTime converts fractional epoch seconds to UTC with nanosecond precision.
func epochToTime(sec float64) time.Time {
	whole := math.Floor(sec)
	nanos := math.Round((sec - whole) * 1e9)
	return time.Unix(int64(whole), int64(nanos)).UTC()
}

// inferColumns reports per-column dtype and non-null counts from the raw cells.
func inferColumns(header []string, rows [][]string) []ColumnInfo {
	cols := make([]ColumnInfo, len(header))
	for c, name := range header {
		isInt, isFloat := true, true
		nonNull := 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[c])
			if cell == "" {
				continue
			}
			nonNull++
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		dtype := "object"
		switch {
		case nonNull == 0:
			dtype = "object"
		case isInt:
			dtype = "int64"
		case isFloat:
			dtype = "float64"
		}
		cols[c] = ColumnInfo{Name: name, Dtype: dtype, NonNull: nonNull}
	}
	return cols
}

// WriteCSV encodes invocations in the documented schema, using EndEpoch as end_timestamp.
func WriteCSV(invocations []Invocation) ([]byte, error) {
	records := make([]csvRecord, len(invocations))
	for i, inv := range invocations {
		records[i] = csvRecord{
			App:          inv.App,
			Func:         inv.Func,
			EndTimestamp: inv.EndEpoch,
			Duration:     inv.Duration,
		}
	}
	return gocsv.MarshalBytes(&records)
}
