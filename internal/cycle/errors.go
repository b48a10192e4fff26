// Package cycle implements the forecasting and statistics engine: cycle
// length estimation, phase partitioning and date-to-phase resolution.
//
// Every operation is a pure function of its inputs. The package never reads
// the clock, never mutates caller-supplied slices and keeps no state between
// calls, so results are reproducible and safe to compute concurrently for
// independent patients.
package cycle

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when fewer distinct start dates exist than
// the requested operation needs (two for statistics, one for a prediction
// base). It is an expected outcome, not a failure; callers apply their own
// defaults.
var ErrInsufficientData = errors.New("insufficient data")

// ErrNoDates is returned by operations that need at least one recorded start
// date to anchor on.
var ErrNoDates = errors.New("no recorded dates")

// DegenerateBoundaryError reports a phase partition whose follicular phase
// would be zero or negative days long. This happens when the menstrual
// duration is large relative to an implausibly short mean cycle length.
// It is surfaced rather than clamped so callers can decide policy.
type DegenerateBoundaryError struct {
	MeanLength     int
	MenstrualDays  int
	FollicularDays int
}

func (e *DegenerateBoundaryError) Error() string {
	return fmt.Sprintf("degenerate phase boundary: follicular duration %d for mean length %d and menstrual duration %d",
		e.FollicularDays, e.MeanLength, e.MenstrualDays)
}
