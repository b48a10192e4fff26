// Package notify handles system notifications for upcoming predicted cycles
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/mvaldes/ciclotrack/internal/models"
)

// Manager sends upcoming-period alerts with per-patient repeat suppression
type Manager struct {
	settings      *models.Settings
	lastAlertTime map[string]time.Time
	mu            sync.Mutex

	// send is swappable for tests
	send func(title, message string) error
}

// NewManager creates a new notification manager
func NewManager(settings *models.Settings) *Manager {
	if settings == nil {
		settings = models.DefaultSettings()
	}
	return &Manager{
		settings:      settings,
		lastAlertTime: make(map[string]time.Time),
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// UpdateSettings updates the settings reference
func (m *Manager) UpdateSettings(settings *models.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

// CheckAndNotify sends an alert when the predicted next start falls within
// the configured lead window of the reference date. The reference date is an
// explicit parameter so the decision stays deterministic and testable.
// Returns whether a notification was sent.
func (m *Manager) CheckAndNotify(patient models.Patient, prediction models.Prediction, reference time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.settings.EnableUpcomingAlert {
		return false, nil
	}

	daysUntil := models.DaysBetween(models.DateOnly(reference), models.DateOnly(prediction.Date))
	if daysUntil < 0 || daysUntil > m.settings.AlertLeadDays {
		return false, nil
	}

	// Repeat suppression per patient
	if lastTime, ok := m.lastAlertTime[patient.Code]; ok {
		if m.settings.RepeatAlertMinutes > 0 {
			repeatDuration := time.Duration(m.settings.RepeatAlertMinutes) * time.Minute
			if time.Since(lastTime) < repeatDuration {
				return false, nil
			}
		} else {
			// No repeat, only alert once per run
			return false, nil
		}
	}

	title, message := formatNotification(patient, prediction, daysUntil)
	if err := m.send(title, message); err != nil {
		return false, err
	}

	m.lastAlertTime[patient.Code] = time.Now()
	return true, nil
}

// ClearAlertState clears the alert state for one patient, or all when the
// code is empty
func (m *Manager) ClearAlertState(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if code == "" {
		m.lastAlertTime = make(map[string]time.Time)
	} else {
		delete(m.lastAlertTime, code)
	}
}

// SendTestNotification sends a test notification
func (m *Manager) SendTestNotification() error {
	return m.send("Ciclotrack", "Test notification - alerts are working!")
}

// formatNotification creates the notification title and message
func formatNotification(patient models.Patient, prediction models.Prediction, daysUntil int) (string, string) {
	name := patient.Name
	if name == "" {
		name = patient.Code
	}

	var title, message string
	switch daysUntil {
	case 0:
		title = "Period expected today"
		message = fmt.Sprintf("%s: next period predicted for today (%s)", name, prediction.Date.Format(models.DateLayout))
	case 1:
		title = "Period expected tomorrow"
		message = fmt.Sprintf("%s: next period predicted for tomorrow (%s)", name, prediction.Date.Format(models.DateLayout))
	default:
		title = fmt.Sprintf("Period expected in %d days", daysUntil)
		message = fmt.Sprintf("%s: next period predicted for %s", name, prediction.Date.Format(models.DateLayout))
	}
	return title, message
}
