package cycle

import (
	"math"
	"sort"
	"time"

	"github.com/mvaldes/ciclotrack/internal/models"
)

// Estimator tuning constants. The source tracking system treats these as
// fixed policy, not configuration.
const (
	// recentWeight is the share of the mean given to the recent tail of
	// cycle lengths when enough samples exist.
	recentWeight = 0.6
	// trendDamping scales the trend before it adjusts the mean, so a
	// noisy slope cannot drag the estimate around.
	trendDamping = 0.3
)

// EstimateStatistics derives mean cycle length, spread and trend from a
// patient's recorded start dates. The input may arrive unsorted and with
// duplicates; it is normalized first. Returns ErrInsufficientData when fewer
// than two distinct dates remain after normalization.
func EstimateStatistics(dates []time.Time) (models.CycleStatistics, error) {
	days := normalizeDates(dates)
	if len(days) < 2 {
		return models.CycleStatistics{}, ErrInsufficientData
	}

	diffs := make([]float64, 0, len(days)-1)
	for i := 0; i+1 < len(days); i++ {
		diffs = append(diffs, float64(models.DaysBetween(days[i], days[i+1])))
	}

	var mean, spread, trend float64
	switch n := len(diffs); {
	case n == 1:
		mean = diffs[0]
	case n <= 3:
		mean = average(diffs)
		spread = populationStdDev(diffs, mean)
		// Endpoint delta; too few samples for a regression to mean much
		trend = diffs[n-1] - diffs[0]
	default:
		recent := n / 3
		if recent < 2 {
			recent = 2
		}
		recentAvg := average(diffs[n-recent:])
		olderAvg := recentAvg
		if head := diffs[:n-recent]; len(head) > 0 {
			olderAvg = average(head)
		}
		mean = recentAvg*recentWeight + olderAvg*(1-recentWeight)
		spread = populationStdDev(diffs, average(diffs))
		trend = regressionSlope(diffs)
	}

	adjusted := mean + trend*trendDamping
	if math.IsNaN(adjusted) {
		return models.CycleStatistics{}, ErrInsufficientData
	}
	if adjusted < models.MinCycleLength {
		adjusted = models.MinCycleLength
	}
	if adjusted > models.MaxCycleLength {
		adjusted = models.MaxCycleLength
	}

	return models.CycleStatistics{
		MeanLength: int(math.Round(adjusted)),
		Spread:     int(math.Round(spread)),
		Trend:      trend,
		Samples:    len(diffs),
	}, nil
}

// IntervalLengths returns the gaps in days between consecutive recorded
// start dates after normalization. Empty when fewer than two distinct
// dates exist.
func IntervalLengths(dates []time.Time) []int {
	days := normalizeDates(dates)
	if len(days) < 2 {
		return nil
	}
	lengths := make([]int, 0, len(days)-1)
	for i := 0; i+1 < len(days); i++ {
		lengths = append(lengths, models.DaysBetween(days[i], days[i+1]))
	}
	return lengths
}

// normalizeDates truncates to calendar days, drops zero values, sorts
// ascending and collapses duplicates. The returned slice is always a fresh
// allocation; caller data is never touched.
func normalizeDates(dates []time.Time) []time.Time {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		days = append(days, models.DateOnly(d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := days[:0]
	for i, d := range days {
		if i == 0 || !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// regressionSlope fits an ordinary-least-squares line over (index, value)
// pairs and returns its slope in days per cycle
func regressionSlope(values []float64) float64 {
	var sumX, sumY, sumXY, sumX2 float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}

	n := float64(len(values))
	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}
