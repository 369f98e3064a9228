package analysis

import "errors"

// ErrUndefinedStatistic marks a statistic that cannot be computed from the data at hand
// (too few points, zero variance). Callers report it as "undefined" and carry on.
var ErrUndefinedStatistic = errors.New("statistic undefined")
