package analysis

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Describe summarizes values like pandas describe(): sample std (n-1) and
// linearly interpolated quartiles.
func Describe(values []float64) Summary {
	s := Summary{
		Count: len(values),
		Mean:  math.NaN(),
		Std:   math.NaN(),
		Min:   math.NaN(),
		Q25:   math.NaN(),
		Q50:   math.NaN(),
		Q75:   math.NaN(),
		Max:   math.NaN(),
	}
	if len(values) == 0 {
		return s
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if len(sorted) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.50)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// Mean returns the arithmetic mean, or ErrUndefinedStatistic for no values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), fmt.Errorf("%w: mean of zero values", ErrUndefinedStatistic)
	}
	return stat.Mean(values, nil), nil
}

// quantile interpolates between closest ranks (h = (n-1)p) over sorted data.
// gonum's stat.Quantile only offers the empirical and LinInterp estimators,
// neither of which reproduces this one.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// Correlation is the Pearson coefficient of x and y. It is undefined for fewer than
// two pairs or when either series has zero variance.
func Correlation(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return math.NaN(), fmt.Errorf("%w: series lengths differ (%d vs %d)", ErrUndefinedStatistic, len(x), len(y))
	}
	if len(x) < 2 {
		return math.NaN(), fmt.Errorf("%w: correlation needs at least 2 points, got %d", ErrUndefinedStatistic, len(x))
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN(), fmt.Errorf("%w: zero variance in one of the series", ErrUndefinedStatistic)
	}
	return r, nil
}
