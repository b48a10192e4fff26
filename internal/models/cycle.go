// Package models contains data structures used throughout the application
package models

import "time"

// Phase-duration policy. These constants are the single source of truth for
// how a cycle is partitioned; no call site carries its own literals.
const (
	// DefaultCycleLength is assumed when fewer than two distinct start
	// dates exist for a patient.
	DefaultCycleLength = 28
	// MinCycleLength and MaxCycleLength bound the estimated mean cycle
	// length to the physiologically plausible range.
	MinCycleLength = 21
	MaxCycleLength = 35

	// DefaultMenstrualDays is used when no duration was recorded.
	DefaultMenstrualDays = 5
	// InitialFollicularDays is the follicular duration before the luteal
	// minimum rule redistributes days.
	InitialFollicularDays = 9
	// OvulationDays is fixed by policy.
	OvulationDays = 2
	// MinLutealDays is the floor below which the follicular phase absorbs
	// the deficit.
	MinLutealDays = 10

	// DefaultSpread is the dispersion assumed alongside DefaultCycleLength.
	DefaultSpread = 2
)

// Phase is one of the four named sub-phases of a cycle
type Phase string

const (
	PhaseMenstrual  Phase = "menstrual"
	PhaseFollicular Phase = "follicular"
	PhaseOvulation  Phase = "ovulation"
	PhaseLuteal     Phase = "luteal"
)

// Phases lists the sub-phases in cycle order
var Phases = []Phase{PhaseMenstrual, PhaseFollicular, PhaseOvulation, PhaseLuteal}

// Title returns a display name for the phase
func (p Phase) Title() string {
	switch p {
	case PhaseMenstrual:
		return "Menstrual"
	case PhaseFollicular:
		return "Follicular"
	case PhaseOvulation:
		return "Ovulation"
	case PhaseLuteal:
		return "Luteal"
	default:
		return string(p)
	}
}

// CycleStatistics holds the statistics derived from a patient's history.
// It is recomputed on every query and never cached.
type CycleStatistics struct {
	// MeanLength is the trend-adjusted mean cycle length in days,
	// clamped to [MinCycleLength, MaxCycleLength].
	MeanLength int `json:"meanLength"`
	// Spread is a dispersion measure over historical cycle lengths in
	// days. With tiny samples it is not asserted to be a true standard
	// deviation.
	Spread int `json:"spread"`
	// Trend is the estimated rate of change of consecutive cycle lengths
	// in days per cycle. Zero when fewer than two samples exist.
	Trend float64 `json:"trend"`
	// Samples is the number of consecutive-interval samples analyzed.
	Samples int `json:"samples"`
}

// Prediction method tags, recorded for observability only
const (
	MethodDefault       = "default"
	MethodSimpleAverage = "simple-average"
	MethodWeighted      = "weighted-average"
	MethodTrendAdjusted = "trend-adjusted"
)

// Prediction is a forecast of the next cycle start
type Prediction struct {
	Date           time.Time `json:"date"`
	ConfidenceLow  time.Time `json:"confidenceLow"`
	ConfidenceHigh time.Time `json:"confidenceHigh"`
	Method         string    `json:"method"`
	CyclesAnalyzed int       `json:"cyclesAnalyzed"`
}

// PhaseInterval is one sub-phase with an inclusive date range
type PhaseInterval struct {
	Phase Phase     `json:"phase"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Estimated marks intervals lying wholly outside the span of actual
	// observations; downstream rendering shows them as forecasts.
	Estimated bool `json:"estimated"`
}

// Days returns the interval length in days (inclusive of both ends)
func (p PhaseInterval) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Contains reports whether day falls inside the interval
func (p PhaseInterval) Contains(day time.Time) bool {
	return !day.Before(p.Start) && !day.After(p.End)
}

// PhaseTable is the ordered partition of one cycle into its four sub-phases
type PhaseTable []PhaseInterval

// Span returns the first and last day covered by the table
func (t PhaseTable) Span() (start, end time.Time) {
	if len(t) == 0 {
		return time.Time{}, time.Time{}
	}
	return t[0].Start, t[len(t)-1].End
}

// PhaseAt returns the interval containing day, if any
func (t PhaseTable) PhaseAt(day time.Time) (PhaseInterval, bool) {
	for _, iv := range t {
		if iv.Contains(day) {
			return iv, true
		}
	}
	return PhaseInterval{}, false
}

// CycleOutlook is the phase table for the most recent anchored cycle plus
// the forward prediction. The JSON name for the next start is kept from the
// data format of the original tracking sheets.
type CycleOutlook struct {
	Anchor     time.Time       `json:"anchor"`
	Stats      CycleStatistics `json:"stats"`
	Phases     PhaseTable      `json:"phases"`
	NextPeriod time.Time       `json:"siguiente_periodo"`
}
