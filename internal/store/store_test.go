package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOpen_EmptyDir(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := len(s.Patients()); got != 0 {
		t.Errorf("got %d patients, want 0", got)
	}
	if got := s.MalformedRows(); got != 0 {
		t.Errorf("MalformedRows = %d, want 0", got)
	}
}

func TestStore_RegisterPatient(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.RegisterPatient("001", "Ana"); err != nil {
		t.Fatalf("RegisterPatient failed: %v", err)
	}
	if err := s.RegisterPatient("001", "Other"); !errors.Is(err, ErrDuplicateCode) {
		t.Errorf("duplicate registration err = %v, want ErrDuplicateCode", err)
	}

	p, ok := s.FindPatient("001")
	if !ok {
		t.Fatal("FindPatient did not find registered patient")
	}
	if p.Name != "Ana" {
		t.Errorf("Name = %s, want Ana", p.Name)
	}
}

func TestStore_AddReport(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.AddReport("missing", date(2024, 1, 1), 5); !errors.Is(err, ErrUnknownPatient) {
		t.Errorf("unknown patient err = %v, want ErrUnknownPatient", err)
	}

	if err := s.RegisterPatient("001", "Ana"); err != nil {
		t.Fatalf("RegisterPatient failed: %v", err)
	}
	if err := s.AddReport("001", date(2024, 1, 1), 5); err != nil {
		t.Fatalf("AddReport failed: %v", err)
	}
	if err := s.AddReport("001", date(2024, 1, 29), 0); err != nil {
		t.Fatalf("AddReport without duration failed: %v", err)
	}

	dates, durations := s.ObservationsFor("001")
	if len(dates) != 2 {
		t.Errorf("got %d dates, want 2", len(dates))
	}
	// Only the observed duration makes it into the duration history
	if len(durations) != 1 || durations[0] != 5 {
		t.Errorf("durations = %v, want [5]", durations)
	}
	if got := s.ReportCount("001"); got != 2 {
		t.Errorf("ReportCount = %d, want 2", got)
	}
}

func TestStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.RegisterPatient("001", "Ana"); err != nil {
		t.Fatalf("RegisterPatient failed: %v", err)
	}
	if err := s.RegisterPatient("002", "Luz"); err != nil {
		t.Fatalf("RegisterPatient failed: %v", err)
	}
	if err := s.AddReport("001", date(2024, 1, 1), 6); err != nil {
		t.Fatalf("AddReport failed: %v", err)
	}
	if err := s.AddReport("001", date(2024, 1, 29), 0); err != nil {
		t.Fatalf("AddReport failed: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	if got := len(reloaded.Patients()); got != 2 {
		t.Errorf("got %d patients after reload, want 2", got)
	}
	dates, durations := reloaded.ObservationsFor("001")
	if len(dates) != 2 {
		t.Fatalf("got %d dates after reload, want 2", len(dates))
	}
	if !dates[0].Equal(date(2024, 1, 1)) || !dates[1].Equal(date(2024, 1, 29)) {
		t.Errorf("dates after reload = %v", dates)
	}
	if len(durations) != 1 || durations[0] != 6 {
		t.Errorf("durations after reload = %v, want [6]", durations)
	}
}

func TestStore_SkipsMalformedDates(t *testing.T) {
	dir := t.TempDir()
	csv := "code,start_date,duration\n" +
		"001,2024-01-01,5\n" +
		"001,not-a-date,5\n" +
		"001,,\n" +
		"001,2024-01-29,\n"
	if err := os.WriteFile(filepath.Join(dir, "reports.csv"), []byte(csv), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	dates, _ := s.ObservationsFor("001")
	if len(dates) != 2 {
		t.Errorf("got %d dates, want 2 (malformed rows skipped)", len(dates))
	}
	if got := s.MalformedRows(); got != 2 {
		t.Errorf("MalformedRows = %d, want 2", got)
	}
}

func TestStore_HeaderlessFileKeepsFirstRecord(t *testing.T) {
	dir := t.TempDir()
	patients := "001,Ana\n" +
		"002,Luz\n"
	reports := "001,2024-01-01,5\n" +
		"001,2024-01-29,\n"
	if err := os.WriteFile(filepath.Join(dir, "patients.csv"), []byte(patients), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "reports.csv"), []byte(reports), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := len(s.Patients()); got != 2 {
		t.Errorf("got %d patients, want 2 (first row is data, not a header)", got)
	}
	if _, ok := s.FindPatient("001"); !ok {
		t.Error("first patient row was dropped")
	}
	dates, _ := s.ObservationsFor("001")
	if len(dates) != 2 {
		t.Errorf("got %d dates, want 2 (first row is data, not a header)", len(dates))
	}
}

func TestIsHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		row      []string
		expected bool
	}{
		{"exact header", []string{"code", "name"}, true},
		{"case and spacing ignored", []string{" Code ", "NAME"}, true},
		{"data row", []string{"001", "Ana"}, false},
		{"wrong width", []string{"code"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHeaderRow(tt.row, patientsHeader); got != tt.expected {
				t.Errorf("isHeaderRow(%v) = %v, want %v", tt.row, got, tt.expected)
			}
		})
	}
}

func TestStore_InvalidDurationTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	csv := "code,start_date,duration\n" +
		"001,2024-01-01,abc\n" +
		"001,2024-01-29,-4\n"
	if err := os.WriteFile(filepath.Join(dir, "reports.csv"), []byte(csv), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	dates, durations := s.ObservationsFor("001")
	if len(dates) != 2 {
		t.Errorf("got %d dates, want 2", len(dates))
	}
	if len(durations) != 0 {
		t.Errorf("durations = %v, want none", durations)
	}
}
