package analysis

import "cloud.google.com/go/civil"

// Summary is a describe()-style digest of one numeric column. Undefined fields are NaN.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// ColumnSummary names the column a Summary was taken over.
type ColumnSummary struct {
	Column string
	Summary
}

type DateCount struct {
	Date      civil.Date
	DayOfWeek int
	Count     int
}

type DateValue struct {
	Date  civil.Date
	Value float64
}

type HourValue struct {
	Hour  int
	Value float64
}

type AppCount struct {
	App   string
	Count int
}

type AppValue struct {
	App   string
	Value float64
}

type AppFunctionValue struct {
	App   string
	Func  string
	Value float64
}

// ApplicationProfile is the per-app digest used by the app-level reports.
type ApplicationProfile struct {
	App                  string
	NumFunctions         int
	MeanDailyInvocations float64
	MeanDuration         float64
}
