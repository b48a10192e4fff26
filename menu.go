package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mvaldes/ciclotrack/internal/models"
)

// MenuOption represents a menu choice
type MenuOption struct {
	Number  int
	Title   string
	Handler func() error
}

// MenuUI provides an interactive menu-based interface
type MenuUI struct {
	scanner *bufio.Scanner
	options []MenuOption
	env     *env
}

// NewMenuUI creates a new menu-based UI
func NewMenuUI(env *env) *MenuUI {
	ui := &MenuUI{
		scanner: bufio.NewScanner(os.Stdin),
		env:     env,
	}

	ui.options = []MenuOption{
		{1, "Register patient", ui.handleRegister},
		{2, "Record period start", ui.handleReport},
		{3, "Predict next period", ui.handlePredict},
		{4, "Phase calendar", ui.handlePhases},
		{5, "Resolve phase for a date", ui.handleResolve},
		{6, "Cycle statistics", ui.handleStats},
		{7, "Render phase chart", ui.handleChart},
		{8, "Exit", ui.handleExit},
	}

	return ui
}

// Run starts the interactive menu loop
func (ui *MenuUI) Run() error {
	fmt.Println("Ciclotrack - menstrual cycle tracking")
	fmt.Println("=====================================")

	for {
		fmt.Println()
		for _, option := range ui.options {
			fmt.Printf("%d. %s\n", option.Number, option.Title)
		}

		fmt.Printf("Choose an option (1-%d): ", len(ui.options))
		if !ui.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(ui.scanner.Text())
		if input == "" {
			continue
		}

		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(ui.options) {
			fmt.Printf("Invalid choice: %s. Please enter a number between 1-%d.\n", input, len(ui.options))
			continue
		}

		option := ui.options[choice-1]
		fmt.Printf("\n=== %s ===\n", option.Title)

		if err := option.Handler(); err != nil {
			fmt.Printf("Error: %v\n", err)
			log.Error().Err(err).Str("menu_option", option.Title).Msg("Menu handler failed")
		}

		if choice == len(ui.options) {
			break
		}
	}

	return nil
}

// prompt reads one trimmed line after showing a label
func (ui *MenuUI) prompt(label string) (string, bool) {
	fmt.Print(label)
	if !ui.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(ui.scanner.Text()), true
}

// promptCode asks for a patient code, offering the known ones
func (ui *MenuUI) promptCode() (string, error) {
	patients := ui.env.store.Patients()
	if len(patients) > 0 {
		fmt.Println("Known patients:")
		for _, p := range patients {
			fmt.Printf("  %s  %s (%d reports)\n", p.Code, p.Name, ui.env.store.ReportCount(p.Code))
		}
	}
	code, ok := ui.prompt("Patient code: ")
	if !ok || code == "" {
		return "", fmt.Errorf("no patient code entered")
	}
	return code, nil
}

func (ui *MenuUI) promptDay(label string) (time.Time, error) {
	raw, ok := ui.prompt(label)
	if !ok || raw == "" {
		return time.Time{}, fmt.Errorf("no date entered")
	}
	return parseDay(raw)
}

func (ui *MenuUI) handleRegister() error {
	code, ok := ui.prompt("New patient code: ")
	if !ok || code == "" {
		return fmt.Errorf("no patient code entered")
	}
	name, _ := ui.prompt("Patient name: ")

	if err := ui.env.store.RegisterPatient(code, name); err != nil {
		return err
	}
	if err := ui.env.store.Save(); err != nil {
		return err
	}
	fmt.Printf("Registered patient %s\n", code)
	return nil
}

func (ui *MenuUI) handleReport() error {
	code, err := ui.promptCode()
	if err != nil {
		return err
	}
	day, err := ui.promptDay("Period start date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}

	duration := 0
	if raw, ok := ui.prompt("Bleeding duration in days (empty if not observed): "); ok && raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q", raw)
		}
	}

	if err := ui.env.store.AddReport(code, day, duration); err != nil {
		return err
	}
	if err := ui.env.store.Save(); err != nil {
		return err
	}
	fmt.Printf("Recorded %s for patient %s\n", day.Format(models.DateLayout), code)
	return nil
}

func (ui *MenuUI) handlePredict() error {
	code, err := ui.promptCode()
	if err != nil {
		return err
	}
	return ui.env.predict(code, os.Stdout)
}

func (ui *MenuUI) handlePhases() error {
	code, err := ui.promptCode()
	if err != nil {
		return err
	}
	return ui.env.phases(code, os.Stdout)
}

func (ui *MenuUI) handleResolve() error {
	code, err := ui.promptCode()
	if err != nil {
		return err
	}
	day, err := ui.promptDay("Date to resolve (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	return ui.env.resolve(code, day, os.Stdout)
}

func (ui *MenuUI) handleStats() error {
	code, err := ui.promptCode()
	if err != nil {
		return err
	}
	return ui.env.stats(code, os.Stdout)
}

func (ui *MenuUI) handleChart() error {
	code, err := ui.promptCode()
	if err != nil {
		return err
	}

	var queries []time.Time
	for {
		raw, ok := ui.prompt("Date to mark on the chart (empty to finish): ")
		if !ok || raw == "" {
			break
		}
		day, err := parseDay(raw)
		if err != nil {
			fmt.Printf("%v\n", err)
			continue
		}
		queries = append(queries, day)
	}

	path, err := ui.env.renderChart(code, queries)
	if err != nil {
		return err
	}
	fmt.Printf("Chart written to %s\n", path)
	return nil
}

func (ui *MenuUI) handleExit() error {
	if err := ui.env.store.Save(); err != nil {
		log.Warn().Err(err).Msg("Could not save data on exit")
	}
	fmt.Println("Goodbye!")
	return nil
}
