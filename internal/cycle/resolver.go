package cycle

import (
	"math"
	"time"

	"github.com/mvaldes/ciclotrack/internal/models"
)

// Prediction tuning constants, fixed policy like the estimator's.
const (
	// trendOverrideThreshold is the absolute trend above which the
	// prediction shifts with the trend.
	trendOverrideThreshold = 0.5
	// trendOverrideFactor scales the trend into a day shift.
	trendOverrideFactor = 0.5
	// maxConfidenceMargin caps the confidence interval half-width in days.
	maxConfidenceMargin = 5
	// minDatesForTrendOverride is the minimum distinct dates before the
	// trend override may fire.
	minDatesForTrendOverride = 4
)

// OptimalMenstrualDuration picks the menstrual duration to use for phase
// boundaries from the recorded durations. An empty history falls back to the
// default; a single value is trusted as-is. With more history the most
// recent value wins when it sits within one day of the overall mean,
// otherwise the rounded mean wins over the outlier-looking recent value.
func OptimalMenstrualDuration(durations []int) int {
	switch len(durations) {
	case 0:
		return models.DefaultMenstrualDays
	case 1:
		return durations[0]
	}

	var sum int
	for _, d := range durations {
		sum += d
	}
	mean := float64(sum) / float64(len(durations))

	last := durations[len(durations)-1]
	if math.Abs(float64(last)-mean) <= 1 {
		return last
	}
	return int(math.Round(mean))
}

// PredictNext forecasts the next cycle start from the recorded history.
// With a single distinct date it still predicts using the default cycle
// length; with none it returns ErrNoDates.
func PredictNext(dates []time.Time, durations []int) (models.Prediction, error) {
	days := normalizeDates(dates)
	if len(days) == 0 {
		return models.Prediction{}, ErrNoDates
	}

	stats, err := EstimateStatistics(days)
	method := models.MethodSimpleAverage
	if err != nil {
		stats = models.CycleStatistics{
			MeanLength: models.DefaultCycleLength,
			Spread:     models.DefaultSpread,
		}
		method = models.MethodDefault
	} else if stats.Samples >= 4 {
		method = models.MethodWeighted
	}

	last := days[len(days)-1]
	predicted := last.AddDate(0, 0, stats.MeanLength)

	if math.Abs(stats.Trend) > trendOverrideThreshold && len(days) >= minDatesForTrendOverride {
		predicted = predicted.AddDate(0, 0, int(math.Round(stats.Trend*trendOverrideFactor)))
		method = models.MethodTrendAdjusted
	}

	margin := stats.Spread
	if margin > maxConfidenceMargin {
		margin = maxConfidenceMargin
	}

	return models.Prediction{
		Date:           predicted,
		ConfidenceLow:  predicted.AddDate(0, 0, -margin),
		ConfidenceHigh: predicted.AddDate(0, 0, margin),
		Method:         method,
		CyclesAnalyzed: len(days) - 1,
	}, nil
}

// PhasesForCycle builds the phase table for the cycle anchored at the most
// recent recorded date, together with the forward prediction. A patient with
// a single recorded date gets the default 28-day cycle.
func PhasesForCycle(dates []time.Time, durations []int) (models.CycleOutlook, error) {
	days := normalizeDates(dates)
	if len(days) == 0 {
		return models.CycleOutlook{}, ErrNoDates
	}

	stats, err := EstimateStatistics(days)
	if err != nil {
		stats = models.CycleStatistics{
			MeanLength: models.DefaultCycleLength,
			Spread:     models.DefaultSpread,
		}
	}

	anchor := days[len(days)-1]
	table, err := PartitionPhases(anchor, stats.MeanLength, OptimalMenstrualDuration(durations))
	if err != nil {
		return models.CycleOutlook{}, err
	}
	markEstimated(table, days)

	prediction, err := PredictNext(days, durations)
	if err != nil {
		return models.CycleOutlook{}, err
	}

	return models.CycleOutlook{
		Anchor:     anchor,
		Stats:      stats,
		Phases:     table,
		NextPeriod: prediction.Date,
	}, nil
}

// ResolvePhaseForDate answers which sub-phase the query date falls into.
// The cycle is anchored at the most recent recorded start on or before the
// query; queries predating all history are projected backward from the
// earliest record by whole cycle multiples, so extrapolated dates resolve
// with the same periodic rule as historical ones.
//
// Days inside the anchored cycle follow the partitioned table, which may
// redistribute follicular days to keep the luteal minimum. Days beyond it
// follow the fixed cumulative thresholds (menstrual, +9, +11), so for short
// mean lengths the two rules can disagree one period apart. The anchored
// table stays authoritative for the cycle it covers.
func ResolvePhaseForDate(dates []time.Time, durations []int, query time.Time) (models.Phase, error) {
	days := normalizeDates(dates)
	if len(days) == 0 {
		return "", ErrNoDates
	}

	stats, err := EstimateStatistics(days)
	if err != nil {
		stats = models.CycleStatistics{
			MeanLength: models.DefaultCycleLength,
			Spread:     models.DefaultSpread,
		}
	}
	menstrual := OptimalMenstrualDuration(durations)

	queryDay := models.DateOnly(query)
	anchor, ok := anchorOnOrBefore(days, queryDay)
	if !ok {
		anchor = backProject(days[0], queryDay, stats.MeanLength)
	}

	table, err := PartitionPhases(anchor, stats.MeanLength, menstrual)
	if err != nil {
		return "", err
	}
	if iv, found := table.PhaseAt(queryDay); found {
		return iv.Phase, nil
	}

	// Past the anchored cycle's luteal end. Days up to the next cycle's
	// predicted menstrual end belong to the following cycle's menstrual
	// phase; anything further out follows the periodic formula.
	nextStart := anchor.AddDate(0, 0, stats.MeanLength)
	if !queryDay.Before(nextStart) && !queryDay.After(nextStart.AddDate(0, 0, menstrual-1)) {
		return models.PhaseMenstrual, nil
	}

	dayInCycle := floorMod(models.DaysBetween(anchor, queryDay), stats.MeanLength)
	switch {
	case dayInCycle < menstrual:
		return models.PhaseMenstrual, nil
	case dayInCycle < menstrual+models.InitialFollicularDays:
		return models.PhaseFollicular, nil
	case dayInCycle < menstrual+models.InitialFollicularDays+models.OvulationDays:
		return models.PhaseOvulation, nil
	default:
		return models.PhaseLuteal, nil
	}
}

// anchorOnOrBefore returns the latest recorded day that is on or before the
// query day. Input must be sorted ascending.
func anchorOnOrBefore(days []time.Time, query time.Time) (time.Time, bool) {
	for i := len(days) - 1; i >= 0; i-- {
		if !days[i].After(query) {
			return days[i], true
		}
	}
	return time.Time{}, false
}

// backProject shifts earliest backward by whole cycle multiples until the
// resulting anchor is on or before the query day
func backProject(earliest, query time.Time, meanLength int) time.Time {
	delta := models.DaysBetween(query, earliest)
	cycles := (delta + meanLength - 1) / meanLength
	return earliest.AddDate(0, 0, -cycles*meanLength)
}

// floorMod normalizes a modulo into [0, m) even for negative values
func floorMod(v, m int) int {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

// markEstimated flags intervals lying wholly outside the span of actual
// observations; rendering shows those as forecasts rather than history
func markEstimated(table models.PhaseTable, days []time.Time) {
	if len(days) == 0 {
		return
	}
	first, last := days[0], days[len(days)-1]
	for i := range table {
		if table[i].Start.After(last) || table[i].End.Before(first) {
			table[i].Estimated = true
		}
	}
}
