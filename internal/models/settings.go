// Package models contains data structures used throughout the application
package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Settings contains all application settings
type Settings struct {
	mu sync.RWMutex `json:"-"`

	// Storage settings
	DataDir string `json:"dataDir"` // Directory holding patients.csv and reports.csv

	// Alert settings
	EnableUpcomingAlert bool `json:"enableUpcomingAlert"`
	AlertLeadDays       int  `json:"alertLeadDays"`      // Notify when the predicted start is this close
	RepeatAlertMinutes  int  `json:"repeatAlertMinutes"` // 0 = no repeat

	// Chart settings
	ChartDayWidth        int    `json:"chartDayWidth"` // Pixels per day
	ChartHeight          int    `json:"chartHeight"`
	ChartColorMenstrual  string `json:"chartColorMenstrual"` // Hex color
	ChartColorFollicular string `json:"chartColorFollicular"`
	ChartColorOvulation  string `json:"chartColorOvulation"`
	ChartColorLuteal     string `json:"chartColorLuteal"`
	ChartOutputDir       string `json:"chartOutputDir"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		DataDir: "",

		EnableUpcomingAlert: true,
		AlertLeadDays:       3,
		RepeatAlertMinutes:  0,

		ChartDayWidth:        28,
		ChartHeight:          180,
		ChartColorMenstrual:  "#f08080", // Light coral
		ChartColorFollicular: "#ffd700", // Gold
		ChartColorOvulation:  "#32cd32", // Lime green
		ChartColorLuteal:     "#87ceeb", // Sky blue
		ChartOutputDir:       "",
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	appDir := filepath.Join(configDir, "ciclotrack")
	if err := os.MkdirAll(appDir, 0750); err != nil {
		return "", err
	}

	return appDir, nil
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load loads settings from disk
func (s *Settings) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path) //nolint:gosec // Config path is controlled by the app, not user input
	if err != nil {
		if os.IsNotExist(err) {
			// Use defaults if file doesn't exist
			s.copySettingsFields(DefaultSettings())
			return nil
		}
		return err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return err
	}

	return nil
}

// Save saves settings to disk
func (s *Settings) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Clone creates a copy of the settings
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Settings{}
	clone.copySettingsFields(s)
	return clone
}

// Update updates settings from another Settings object
func (s *Settings) Update(other *Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	s.copySettingsFields(other)
}

// copySettingsFields copies all fields from other to s, excluding the mutex.
// The caller must hold the necessary locks on s and other (if other is shared)
func (s *Settings) copySettingsFields(other *Settings) {
	s.DataDir = other.DataDir
	s.EnableUpcomingAlert = other.EnableUpcomingAlert
	s.AlertLeadDays = other.AlertLeadDays
	s.RepeatAlertMinutes = other.RepeatAlertMinutes
	s.ChartDayWidth = other.ChartDayWidth
	s.ChartHeight = other.ChartHeight
	s.ChartColorMenstrual = other.ChartColorMenstrual
	s.ChartColorFollicular = other.ChartColorFollicular
	s.ChartColorOvulation = other.ChartColorOvulation
	s.ChartColorLuteal = other.ChartColorLuteal
	s.ChartOutputDir = other.ChartOutputDir
}

// ResolveDataDir returns the directory used for CSV storage, falling back to
// a "data" subdirectory of the config dir when none was configured
func (s *Settings) ResolveDataDir() (string, error) {
	s.mu.RLock()
	configured := s.DataDir
	s.mu.RUnlock()

	if configured != "" {
		if err := os.MkdirAll(configured, 0750); err != nil {
			return "", err
		}
		return configured, nil
	}

	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return "", err
	}
	return dataDir, nil
}

// PhaseColor returns the configured hex color for a phase
func (s *Settings) PhaseColor(phase Phase) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch phase {
	case PhaseMenstrual:
		return s.ChartColorMenstrual
	case PhaseFollicular:
		return s.ChartColorFollicular
	case PhaseOvulation:
		return s.ChartColorOvulation
	case PhaseLuteal:
		return s.ChartColorLuteal
	default:
		return "#808080" // Gray for unknown
	}
}
