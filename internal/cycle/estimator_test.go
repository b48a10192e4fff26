package cycle

import (
	"errors"
	"testing"
	"time"

	"github.com/mvaldes/ciclotrack/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEstimateStatistics_TwoEqualGaps(t *testing.T) {
	dates := []time.Time{
		date(2024, 1, 1),
		date(2024, 1, 29),
		date(2024, 2, 26),
	}

	stats, err := EstimateStatistics(dates)
	if err != nil {
		t.Fatalf("EstimateStatistics failed: %v", err)
	}

	if stats.MeanLength != 28 {
		t.Errorf("MeanLength = %d, want 28", stats.MeanLength)
	}
	if stats.Spread != 0 {
		t.Errorf("Spread = %d, want 0", stats.Spread)
	}
	if stats.Trend != 0 {
		t.Errorf("Trend = %f, want 0", stats.Trend)
	}
	if stats.Samples != 2 {
		t.Errorf("Samples = %d, want 2", stats.Samples)
	}
}

func TestEstimateStatistics_ShrinkingTrend(t *testing.T) {
	// Gaps 24, 26, 23, 22: recent tail [23 22], older head [24 26]
	dates := []time.Time{
		date(2024, 1, 1),
		date(2024, 1, 25),
		date(2024, 2, 20),
		date(2024, 3, 14),
		date(2024, 4, 6),
	}

	stats, err := EstimateStatistics(dates)
	if err != nil {
		t.Fatalf("EstimateStatistics failed: %v", err)
	}

	if stats.Trend >= 0 {
		t.Errorf("Trend = %f, want negative", stats.Trend)
	}
	// Weighted mean is 23.5, damped further down by the negative slope,
	// so the estimate lands below the unweighted mean of 23.75
	if stats.MeanLength >= 24 {
		t.Errorf("MeanLength = %d, want < 24", stats.MeanLength)
	}
	if stats.MeanLength < models.MinCycleLength || stats.MeanLength > models.MaxCycleLength {
		t.Errorf("MeanLength = %d, outside [%d, %d]", stats.MeanLength, models.MinCycleLength, models.MaxCycleLength)
	}
}

func TestEstimateStatistics_ClampRange(t *testing.T) {
	tests := []struct {
		name string
		gaps []int
	}{
		{"very short cycles", []int{10, 11, 10}},
		{"very long cycles", []int{60, 58, 61}},
		{"single gap", []int{25}},
		{"mixed", []int{28, 35, 21, 30, 26}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := []time.Time{date(2024, 1, 1)}
			for _, g := range tt.gaps {
				dates = append(dates, dates[len(dates)-1].AddDate(0, 0, g))
			}

			stats, err := EstimateStatistics(dates)
			if err != nil {
				t.Fatalf("EstimateStatistics failed: %v", err)
			}
			if stats.MeanLength < models.MinCycleLength || stats.MeanLength > models.MaxCycleLength {
				t.Errorf("MeanLength = %d, outside [%d, %d]", stats.MeanLength, models.MinCycleLength, models.MaxCycleLength)
			}
			if stats.Spread < 0 {
				t.Errorf("Spread = %d, want >= 0", stats.Spread)
			}
		})
	}
}

func TestEstimateStatistics_InsufficientData(t *testing.T) {
	tests := []struct {
		name  string
		dates []time.Time
	}{
		{"empty", nil},
		{"single date", []time.Time{date(2024, 1, 1)}},
		{"duplicates of one date", []time.Time{date(2024, 1, 1), date(2024, 1, 1), date(2024, 1, 1)}},
		{"zero values only", []time.Time{{}, {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EstimateStatistics(tt.dates); !errors.Is(err, ErrInsufficientData) {
				t.Errorf("err = %v, want ErrInsufficientData", err)
			}
		})
	}
}

func TestEstimateStatistics_NormalizesInput(t *testing.T) {
	// Unsorted input with duplicates must produce the same result as the
	// clean equivalent
	clean := []time.Time{
		date(2024, 1, 1),
		date(2024, 1, 29),
		date(2024, 2, 26),
	}
	messy := []time.Time{
		date(2024, 2, 26),
		date(2024, 1, 1),
		date(2024, 1, 29),
		date(2024, 1, 29),
		time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC),
	}

	want, err := EstimateStatistics(clean)
	if err != nil {
		t.Fatalf("EstimateStatistics(clean) failed: %v", err)
	}
	got, err := EstimateStatistics(messy)
	if err != nil {
		t.Fatalf("EstimateStatistics(messy) failed: %v", err)
	}

	if got != want {
		t.Errorf("EstimateStatistics(messy) = %+v, want %+v", got, want)
	}
}

func TestEstimateStatistics_DoesNotMutateInput(t *testing.T) {
	dates := []time.Time{
		date(2024, 2, 26),
		date(2024, 1, 1),
		date(2024, 1, 29),
	}
	snapshot := make([]time.Time, len(dates))
	copy(snapshot, dates)

	if _, err := EstimateStatistics(dates); err != nil {
		t.Fatalf("EstimateStatistics failed: %v", err)
	}

	for i := range dates {
		if !dates[i].Equal(snapshot[i]) {
			t.Errorf("input slice mutated at %d: %v, want %v", i, dates[i], snapshot[i])
		}
	}
}

func TestEstimateStatistics_Idempotent(t *testing.T) {
	dates := []time.Time{
		date(2024, 1, 1),
		date(2024, 1, 25),
		date(2024, 2, 20),
		date(2024, 3, 14),
		date(2024, 4, 6),
	}

	first, err := EstimateStatistics(dates)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := EstimateStatistics(dates)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if first != second {
		t.Errorf("repeated call = %+v, want %+v", second, first)
	}
}

func TestRegressionSlope(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"flat", []float64{28, 28, 28, 28}, 0},
		{"rising by one", []float64{25, 26, 27, 28}, 1},
		{"shrinking", []float64{24, 26, 23, 22}, -0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := regressionSlope(tt.values)
			if got < tt.expected-0.001 || got > tt.expected+0.001 {
				t.Errorf("regressionSlope(%v) = %f, want %f", tt.values, got, tt.expected)
			}
		})
	}
}

func TestIntervalLengths(t *testing.T) {
	dates := []time.Time{
		date(2024, 2, 25), // unsorted on purpose
		date(2024, 1, 1),
		date(2024, 1, 29),
		date(2024, 1, 29), // duplicate
	}

	got := IntervalLengths(dates)
	want := []int{28, 27}
	if len(got) != len(want) {
		t.Fatalf("IntervalLengths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IntervalLengths()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if IntervalLengths([]time.Time{date(2024, 1, 1)}) != nil {
		t.Error("IntervalLengths() with one date should be nil")
	}
}
