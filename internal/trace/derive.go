package trace

import (
	"time"

	"cloud.google.com/go/civil"
)

// DefaultReferenceDate is where the earliest invocation lands after Derive.
var DefaultReferenceDate = civil.Date{Year: 2021, Month: time.January, Day: 31}

// Derive converts end timestamps to calendar time, translates the whole series so the
// earliest invocation sits at midnight UTC of reference, and fills Hour, DayOfWeek and
// Date. The same shift is applied to every row. Derive always starts from EndEpoch,
// so running it again recomputes every derived column.
func Derive(t *Table, reference civil.Date) (time.Duration, error) {
	if t.Len() == 0 {
		return 0, ErrEmptyDataset
	}

	earliest := epochToTime(t.Invocations[0].EndEpoch)
	for _, inv := range t.Invocations[1:] {
		if ts := epochToTime(inv.EndEpoch); ts.Before(earliest) {
			earliest = ts
		}
	}

	shift := reference.In(time.UTC).Sub(earliest)
	for i := range t.Invocations {
		inv := &t.Invocations[i]
		inv.EndTimestamp = epochToTime(inv.EndEpoch).Add(shift)
		inv.deriveCalendar()
	}

	t.Shift = shift
	t.Derived = true
	return shift, nil
}

func (inv *Invocation) deriveCalendar() {
	inv.Hour = inv.EndTimestamp.Hour()
	inv.DayOfWeek = Weekday(inv.EndTimestamp)
	inv.Date = civil.DateOf(inv.EndTimestamp)
}

// Weekday maps t to 0=Monday .. 6=Sunday.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekdayName returns the English name for a Monday-based day index.
func WeekdayName(day int) string {
	return time.Weekday((day + 1) % 7).String()
}
