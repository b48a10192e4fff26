package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/mvaldes/ciclotrack/internal/models"
)

func testManager(settings *models.Settings) (*Manager, *[]string) {
	manager := NewManager(settings)
	var sent []string
	manager.send = func(title, message string) error {
		sent = append(sent, title+": "+message)
		return nil
	}
	return manager, &sent
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestManager_CheckAndNotify_LeadWindow(t *testing.T) {
	patient := models.Patient{Code: "P001", Name: "Ana"}

	tests := []struct {
		name       string
		predicted  string
		reference  string
		wantSent   bool
		wantInBody string
	}{
		{"Today", "2024-03-25", "2024-03-25", true, "today"},
		{"Tomorrow", "2024-03-25", "2024-03-24", true, "tomorrow"},
		{"Edge of window", "2024-03-25", "2024-03-22", true, "in 3 days"},
		{"Beyond window", "2024-03-25", "2024-03-21", false, ""},
		{"Already passed", "2024-03-25", "2024-03-26", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, sent := testManager(models.DefaultSettings())
			prediction := models.Prediction{Date: day(tt.predicted)}

			got, err := manager.CheckAndNotify(patient, prediction, day(tt.reference))
			if err != nil {
				t.Fatalf("CheckAndNotify() error = %v", err)
			}
			if got != tt.wantSent {
				t.Errorf("CheckAndNotify() = %v, want %v", got, tt.wantSent)
			}
			if tt.wantSent {
				if len(*sent) != 1 {
					t.Fatalf("sent %d notifications, want 1", len(*sent))
				}
				if !strings.Contains((*sent)[0], tt.wantInBody) {
					t.Errorf("notification %q missing %q", (*sent)[0], tt.wantInBody)
				}
			} else if len(*sent) != 0 {
				t.Errorf("sent %d notifications, want 0", len(*sent))
			}
		})
	}
}

func TestManager_CheckAndNotify_Disabled(t *testing.T) {
	settings := models.DefaultSettings()
	settings.EnableUpcomingAlert = false
	manager, sent := testManager(settings)

	patient := models.Patient{Code: "P001"}
	prediction := models.Prediction{Date: day("2024-03-25")}

	got, err := manager.CheckAndNotify(patient, prediction, day("2024-03-25"))
	if err != nil {
		t.Fatalf("CheckAndNotify() error = %v", err)
	}
	if got || len(*sent) != 0 {
		t.Errorf("CheckAndNotify() sent while disabled")
	}
}

func TestManager_CheckAndNotify_RepeatSuppression(t *testing.T) {
	manager, sent := testManager(models.DefaultSettings())

	patient := models.Patient{Code: "P001"}
	prediction := models.Prediction{Date: day("2024-03-25")}
	reference := day("2024-03-24")

	first, err := manager.CheckAndNotify(patient, prediction, reference)
	if err != nil {
		t.Fatalf("CheckAndNotify() error = %v", err)
	}
	if !first {
		t.Fatal("first CheckAndNotify() = false, want true")
	}

	// RepeatAlertMinutes 0 suppresses every later alert for the same code
	second, err := manager.CheckAndNotify(patient, prediction, reference)
	if err != nil {
		t.Fatalf("CheckAndNotify() error = %v", err)
	}
	if second {
		t.Error("second CheckAndNotify() = true, want suppressed")
	}

	// Another patient is tracked independently
	other := models.Patient{Code: "P002"}
	got, err := manager.CheckAndNotify(other, prediction, reference)
	if err != nil {
		t.Fatalf("CheckAndNotify() error = %v", err)
	}
	if !got {
		t.Error("CheckAndNotify() for second patient = false, want true")
	}

	if len(*sent) != 2 {
		t.Errorf("sent %d notifications, want 2", len(*sent))
	}
}

func TestManager_ClearAlertState(t *testing.T) {
	manager, sent := testManager(models.DefaultSettings())

	patient := models.Patient{Code: "P001"}
	prediction := models.Prediction{Date: day("2024-03-25")}
	reference := day("2024-03-24")

	if _, err := manager.CheckAndNotify(patient, prediction, reference); err != nil {
		t.Fatalf("CheckAndNotify() error = %v", err)
	}
	manager.ClearAlertState("P001")
	got, err := manager.CheckAndNotify(patient, prediction, reference)
	if err != nil {
		t.Fatalf("CheckAndNotify() error = %v", err)
	}
	if !got {
		t.Error("CheckAndNotify() after ClearAlertState = false, want true")
	}

	if len(*sent) != 2 {
		t.Errorf("sent %d notifications, want 2", len(*sent))
	}
}

func TestFormatNotification(t *testing.T) {
	patient := models.Patient{Code: "P001", Name: "Ana"}
	prediction := models.Prediction{Date: day("2024-03-25")}

	title, message := formatNotification(patient, prediction, 2)
	if !strings.Contains(title, "2 days") {
		t.Errorf("title = %q, want days count", title)
	}
	if !strings.Contains(message, "Ana") || !strings.Contains(message, "2024-03-25") {
		t.Errorf("message = %q, want name and date", message)
	}

	// Falls back to the code when no name is set
	_, message = formatNotification(models.Patient{Code: "P002"}, prediction, 0)
	if !strings.Contains(message, "P002") {
		t.Errorf("message = %q, want patient code fallback", message)
	}
}
