// Package store persists patients and their cycle reports as CSV tables,
// mirroring the tabular files the tracking sheets were kept in.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mvaldes/ciclotrack/internal/models"
)

const (
	patientsFile = "patients.csv"
	reportsFile  = "reports.csv"
)

var (
	patientsHeader = []string{"code", "name"}
	reportsHeader  = []string{"code", "start_date", "duration"}
)

// ErrDuplicateCode is returned when registering a patient code that exists
var ErrDuplicateCode = errors.New("patient code already registered")

// ErrUnknownPatient is returned when recording a report for an unknown code
var ErrUnknownPatient = errors.New("patient code not found")

// Store is a loadable/saveable tabular store of patients and reports.
// It is not safe for concurrent use; the application is single-user.
type Store struct {
	dir      string
	patients []models.Patient
	reports  []models.Observation

	// malformed counts rows dropped during load because their date could
	// not be parsed. Upstream data entry is expected to be imperfect, so
	// these are absence, not failure.
	malformed int
}

// Open loads the store from dir, starting empty when the files don't exist
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir}

	if err := s.loadPatients(); err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}
	if err := s.loadReports(); err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}

	return s, nil
}

// MalformedRows returns how many report rows were dropped during load
func (s *Store) MalformedRows() int {
	return s.malformed
}

// Patients returns a copy of all registered patients
func (s *Store) Patients() []models.Patient {
	out := make([]models.Patient, len(s.patients))
	copy(out, s.patients)
	return out
}

// FindPatient looks up a patient by code
func (s *Store) FindPatient(code string) (models.Patient, bool) {
	for _, p := range s.patients {
		if p.Code == code {
			return p, true
		}
	}
	return models.Patient{}, false
}

// RegisterPatient adds a new patient; codes are unique
func (s *Store) RegisterPatient(code, name string) error {
	if _, ok := s.FindPatient(code); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	s.patients = append(s.patients, models.Patient{Code: code, Name: name})
	return nil
}

// AddReport records a cycle start for a registered patient. A non-positive
// duration means the menstrual duration was not observed.
func (s *Store) AddReport(code string, startDate time.Time, duration int) error {
	if _, ok := s.FindPatient(code); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPatient, code)
	}
	if duration < 0 {
		duration = 0
	}
	s.reports = append(s.reports, models.Observation{
		Code:      code,
		StartDate: models.DateOnly(startDate),
		Duration:  duration,
	})
	return nil
}

// ObservationsFor returns the recorded start dates and observed durations
// for one patient, in insertion order. No ordering or uniqueness is
// guaranteed; the engine normalizes its own view. Durations contain only
// values that were actually observed.
func (s *Store) ObservationsFor(code string) (dates []time.Time, durations []int) {
	for _, r := range s.reports {
		if r.Code != code {
			continue
		}
		dates = append(dates, r.StartDate)
		if r.Duration > 0 {
			durations = append(durations, r.Duration)
		}
	}
	return dates, durations
}

// ReportCount returns how many reports exist for one patient
func (s *Store) ReportCount(code string) int {
	var n int
	for _, r := range s.reports {
		if r.Code == code {
			n++
		}
	}
	return n
}

// Save writes both tables back to disk
func (s *Store) Save() error {
	if err := s.savePatients(); err != nil {
		return fmt.Errorf("saving patients: %w", err)
	}
	if err := s.saveReports(); err != nil {
		return fmt.Errorf("saving reports: %w", err)
	}
	return nil
}

func (s *Store) loadPatients() error {
	rows, err := readCSV(filepath.Join(s.dir, patientsFile), patientsHeader)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		s.patients = append(s.patients, models.Patient{Code: row[0], Name: row[1]})
	}
	return nil
}

func (s *Store) loadReports() error {
	rows, err := readCSV(filepath.Join(s.dir, reportsFile), reportsHeader)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		startDate, err := time.Parse(models.DateLayout, row[1])
		if err != nil {
			// Malformed dates are treated as absent, not as a hard
			// failure
			s.malformed++
			continue
		}

		duration := 0
		if len(row) >= 3 && row[2] != "" {
			if v, err := strconv.Atoi(row[2]); err == nil && v > 0 {
				duration = v
			}
		}

		s.reports = append(s.reports, models.Observation{
			Code:      row[0],
			StartDate: models.DateOnly(startDate),
			Duration:  duration,
		})
	}
	return nil
}

func (s *Store) savePatients() error {
	rows := [][]string{patientsHeader}
	for _, p := range s.patients {
		rows = append(rows, []string{p.Code, p.Name})
	}
	return writeCSV(filepath.Join(s.dir, patientsFile), rows)
}

func (s *Store) saveReports() error {
	rows := [][]string{reportsHeader}
	for _, r := range s.reports {
		duration := ""
		if r.Duration > 0 {
			duration = strconv.Itoa(r.Duration)
		}
		rows = append(rows, []string{r.Code, r.StartDate.Format(models.DateLayout), duration})
	}
	return writeCSV(filepath.Join(s.dir, reportsFile), rows)
}

// readCSV reads all rows of a CSV file. A leading row matching the expected
// header is skipped; a header-less file keeps its first record. A missing
// file is an empty table.
func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path) //nolint:gosec // Data path is derived from app config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && isHeaderRow(rows[0], header) {
		rows = rows[1:]
	}
	return rows, nil
}

// isHeaderRow reports whether the row carries the expected column names,
// ignoring case and surrounding whitespace
func isHeaderRow(row, header []string) bool {
	if len(row) != len(header) {
		return false
	}
	for i := range header {
		if !strings.EqualFold(strings.TrimSpace(row[i]), header[i]) {
			return false
		}
	}
	return true
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path) //nolint:gosec // Data path is derived from app config
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
