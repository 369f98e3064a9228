// Package report prints analysis results as aligned text tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/sanspareilsmyn/tracelens/internal/analysis"
	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

// Undefined is printed in place of a statistic that has no value.
const Undefined = "undefined"

// Printer writes report sections to w. The first write error sticks and is
// returned by Err; later calls become no-ops.
type Printer struct {
	w   io.Writer
	err error
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// table writes a header row and rows through a tabwriter.
func (p *Printer) table(header []string, rows [][]string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	p.err = tw.Flush()
	p.printf("\n")
}

// Float formats v with up to six decimals and thousands separators. NaN and
// infinities print as Undefined.
func Float(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return humanize.CommafWithDigits(v, 6)
}

func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Section prints a titled separator.
func (p *Printer) Section(title string) {
	p.printf("\n== %s ==\n\n", title)
}

// Info prints the loaded schema: size, row count and per-column non-null counts and types.
func (p *Printer) Info(s trace.Schema) {
	p.printf("%s (%s)\n", s.Path, humanize.Bytes(uint64(max(s.Bytes, 0))))
	p.printf("RangeIndex: %s entries\n", Count(s.Rows))
	rows := make([][]string, len(s.Columns))
	for i, c := range s.Columns {
		rows[i] = []string{fmt.Sprint(i), c.Name, Count(c.NonNull) + " non-null", c.Dtype}
	}
	p.table([]string{"#", "Column", "Non-Null Count", "Dtype"}, rows)
}

// Head prints the given rows. Calendar columns are included once the table is derived.
func (p *Printer) Head(invocations []trace.Invocation, derived bool) {
	header := []string{trace.ColumnApp, trace.ColumnFunc, trace.ColumnEndTimestamp, trace.ColumnDuration}
	if derived {
		header = append(header, "hour", "day_of_week", "date")
	}
	rows := make([][]string, len(invocations))
	for i, inv := range invocations {
		row := []string{inv.App, inv.Func, Float(inv.EndEpoch), Float(inv.Duration)}
		if derived {
			row[2] = inv.EndTimestamp.Format("2006-01-02 15:04:05.000")
			row = append(row, fmt.Sprint(inv.Hour), fmt.Sprint(inv.DayOfWeek), inv.Date.String())
		}
		rows[i] = row
	}
	p.table(header, rows)
}

func summaryRows(s analysis.Summary) [][]string {
	return [][]string{
		{"count", Count(s.Count)},
		{"mean", Float(s.Mean)},
		{"std", Float(s.Std)},
		{"min", Float(s.Min)},
		{"25%", Float(s.Q25)},
		{"50%", Float(s.Q50)},
		{"75%", Float(s.Q75)},
		{"max", Float(s.Max)},
	}
}

// Summary prints a describe() block for one column.
func (p *Printer) Summary(column string, s analysis.Summary) {
	p.table([]string{"", column}, summaryRows(s))
}

// ColumnSummaries prints several describe() blocks side by side.
func (p *Printer) ColumnSummaries(cs []analysis.ColumnSummary) {
	header := []string{""}
	var rows [][]string
	for i, c := range cs {
		header = append(header, c.Column)
		for j, r := range summaryRows(c.Summary) {
			if i == 0 {
				rows = append(rows, []string{r[0]})
			}
			rows[j] = append(rows[j], r[1])
		}
	}
	p.table(header, rows)
}

func (p *Printer) DateCounts(counts []analysis.DateCount) {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Date.String(), fmt.Sprintf("%d %s", c.DayOfWeek, trace.WeekdayName(c.DayOfWeek)), Count(c.Count)}
	}
	p.table([]string{"date", "day_of_week", "count"}, rows)
}

func (p *Printer) DateValues(column string, values []analysis.DateValue) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v.Date.String(), Float(v.Value)}
	}
	p.table([]string{"date", column}, rows)
}

func (p *Printer) HourValues(column string, values []analysis.HourValue) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{fmt.Sprint(v.Hour), Float(v.Value)}
	}
	p.table([]string{"hour", column}, rows)
}

func (p *Printer) AppCounts(column string, counts []analysis.AppCount) {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.App, Count(c.Count)}
	}
	p.table([]string{trace.ColumnApp, column}, rows)
}

func (p *Printer) AppValues(column string, values []analysis.AppValue) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v.App, Float(v.Value)}
	}
	p.table([]string{trace.ColumnApp, column}, rows)
}

func (p *Printer) AppFunctionValues(column string, values []analysis.AppFunctionValue) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v.App, v.Func, Float(v.Value)}
	}
	p.table([]string{trace.ColumnApp, trace.ColumnFunc, column}, rows)
}

// Profiles prints the per-application analysis table.
func (p *Printer) Profiles(profiles []analysis.ApplicationProfile) {
	rows := make([][]string, len(profiles))
	for i, pr := range profiles {
		rows[i] = []string{pr.App, Float(pr.MeanDuration), Count(pr.NumFunctions), Float(pr.MeanDailyInvocations)}
	}
	p.table([]string{trace.ColumnApp, "mean_duration", "num_functions", "mean_daily_invocations"}, rows)
}

// Renames prints up to limit original to renamed pairs. limit <= 0 prints all.
func (p *Printer) Renames(m trace.RenameMap, limit int) {
	originals, renamed := m.Originals(), m.Renamed()
	n := len(originals)
	if limit > 0 && limit < n {
		n = limit
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{originals[i], renamed[i]}
	}
	p.table([]string{"original", "renamed"}, rows)
	if n < len(originals) {
		p.printf("... %s more\n\n", Count(len(originals)-n))
	}
}

// Value prints a single labelled number.
func (p *Printer) Value(label string, v float64) {
	p.printf("%s: %s\n", label, Float(v))
}

func (p *Printer) CountValue(label string, n int) {
	p.printf("%s: %s\n", label, Count(n))
}

// Statistic prints v, or Undefined with the reason when err is set.
func (p *Printer) Statistic(label string, v float64, err error) {
	if err != nil {
		p.printf("%s: %s (%v)\n", label, Undefined, err)
		return
	}
	p.Value(label, v)
}
