// Package models contains data structures used throughout the application
package models

import "time"

// DateLayout is the calendar date format used across storage and the CLI.
const DateLayout = "2006-01-02"

// Patient represents a tracked subject identified by an opaque code
type Patient struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Observation represents a single recorded cycle start for a patient.
// Duration is the observed menstrual duration in days; it defaults to
// DefaultMenstrualDays when it was not recorded or was invalid.
type Observation struct {
	Code      string    `json:"code"`
	StartDate time.Time `json:"start_date"`
	Duration  int       `json:"duration"`
}

// Day returns the observation's start date truncated to a UTC calendar day
func (o *Observation) Day() time.Time {
	return DateOnly(o.StartDate)
}

// DateOnly truncates a time to its UTC calendar day
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b (negative if b
// precedes a). Both arguments are expected to be calendar days from DateOnly.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
