package drilldown

import "errors"

var (
	// ErrSelection is returned when the selector has nothing to offer or is handed an
	// application it does not know. It closes the selector, not the run.
	ErrSelection = errors.New("application selection failed")

	ErrNoEligibleApps = errors.New("no application has more than one function")
	ErrUnknownApp     = errors.New("application not present in trace")
)
