// Package main is the entry point for the ciclotrack CLI
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mvaldes/ciclotrack/internal/chart"
	"github.com/mvaldes/ciclotrack/internal/cycle"
	"github.com/mvaldes/ciclotrack/internal/models"
	"github.com/mvaldes/ciclotrack/internal/notify"
	"github.com/mvaldes/ciclotrack/internal/store"
)

var (
	dataDir    string
	verbose    bool
	jsonOutput bool
)

// rootCmd is the base command for the ciclotrack CLI
var rootCmd = &cobra.Command{
	Use:   "ciclotrack",
	Short: "Menstrual cycle tracking and forecasting",
	Long: `Ciclotrack records menstrual cycle start dates per patient and derives
cycle statistics, phase calendars and next-period forecasts from them.
Run without a subcommand to use the interactive menu.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return NewMenuUI(env).Run()
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <code> <name>",
	Short: "Register a new patient",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := env.store.RegisterPatient(args[0], args[1]); err != nil {
			return err
		}
		if err := env.store.Save(); err != nil {
			return err
		}
		fmt.Printf("Registered patient %s (%s)\n", args[0], args[1])
		return nil
	},
}

var reportDuration int

var reportCmd = &cobra.Command{
	Use:   "report <code> <date>",
	Short: "Record a period start date",
	Long: `Record the start of a period for a patient. The date uses YYYY-MM-DD.
Pass --duration to also record the observed bleeding duration in days.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		day, err := parseDay(args[1])
		if err != nil {
			return err
		}
		if err := env.store.AddReport(args[0], day, reportDuration); err != nil {
			return err
		}
		if err := env.store.Save(); err != nil {
			return err
		}
		fmt.Printf("Recorded %s for patient %s\n", day.Format(models.DateLayout), args[0])
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <code>",
	Short: "Predict the next period start",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return env.predict(args[0], os.Stdout)
	},
}

var phasesCmd = &cobra.Command{
	Use:   "phases <code>",
	Short: "Show the phase calendar for the current cycle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return env.phases(args[0], os.Stdout)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <code> <date>",
	Short: "Resolve which phase a date falls in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		day, err := parseDay(args[1])
		if err != nil {
			return err
		}
		return env.resolve(args[0], day, os.Stdout)
	},
}

var chartOut string

var chartCmd = &cobra.Command{
	Use:   "chart <code> [date...]",
	Short: "Render a phase timeline chart to PNG",
	Long: `Render the phase timeline for a patient as a PNG image. With no dates the
chart covers the forecast cycle starting at the last recorded period. With
one or more dates the window is chosen to cover them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		queries := make([]time.Time, 0, len(args)-1)
		for _, raw := range args[1:] {
			day, err := parseDay(raw)
			if err != nil {
				return err
			}
			queries = append(queries, day)
		}
		path, err := env.renderChart(args[0], queries)
		if err != nil {
			return err
		}
		fmt.Printf("Chart written to %s\n", path)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <code>",
	Short: "Show cycle statistics and a length sparkline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return env.stats(args[0], os.Stdout)
	},
}

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test desktop notification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return env.notifier.SendTestNotification()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Directory holding the patient CSV files (default from settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")

	reportCmd.Flags().IntVar(&reportDuration, "duration", 0, "Observed bleeding duration in days (0 = not observed)")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "Output PNG path (default under the chart output directory)")

	rootCmd.AddCommand(registerCmd, reportCmd, predictCmd, phasesCmd, resolveCmd, chartCmd, statsCmd, notifyTestCmd)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cobra.OnInitialize(func() {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles the loaded settings, store and notifier for the command
// handlers and the interactive menu
type env struct {
	settings *models.Settings
	store    *store.Store
	notifier *notify.Manager
}

func newEnv() (*env, error) {
	settings := models.DefaultSettings()
	if err := settings.Load(); err != nil {
		log.Warn().Err(err).Msg("Could not load settings, using defaults")
	}
	if dataDir != "" {
		settings.DataDir = dataDir
	}

	dir, err := settings.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	st, err := store.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if n := st.MalformedRows(); n > 0 {
		log.Warn().Int("rows", n).Msg("Skipped malformed report rows")
	}
	log.Debug().Str("dir", dir).Int("patients", len(st.Patients())).Msg("Store opened")

	return &env{
		settings: settings,
		store:    st,
		notifier: notify.NewManager(settings),
	}, nil
}

// history loads a patient's observations, failing when the patient is
// unknown
func (e *env) history(code string) (models.Patient, []time.Time, []int, error) {
	patient, ok := e.store.FindPatient(code)
	if !ok {
		return models.Patient{}, nil, nil, fmt.Errorf("%w: %s", store.ErrUnknownPatient, code)
	}
	dates, durations := e.store.ObservationsFor(code)
	return patient, dates, durations, nil
}

func (e *env) predict(code string, w io.Writer) error {
	patient, dates, durations, err := e.history(code)
	if err != nil {
		return err
	}
	prediction, err := cycle.PredictNext(dates, durations)
	if err != nil {
		return err
	}

	if _, err := e.notifier.CheckAndNotify(patient, prediction, time.Now()); err != nil {
		log.Warn().Err(err).Msg("Could not send notification")
	}

	if jsonOutput {
		return writeJSON(w, prediction)
	}
	fmt.Fprintf(w, "Next period for %s: %s\n", displayName(patient), prediction.Date.Format(models.DateLayout))
	fmt.Fprintf(w, "Confidence window: %s to %s\n",
		prediction.ConfidenceLow.Format(models.DateLayout),
		prediction.ConfidenceHigh.Format(models.DateLayout))
	fmt.Fprintf(w, "Method: %s (%d cycles analyzed)\n", prediction.Method, prediction.CyclesAnalyzed)
	return nil
}

func (e *env) phases(code string, w io.Writer) error {
	patient, dates, durations, err := e.history(code)
	if err != nil {
		return err
	}
	outlook, err := cycle.PhasesForCycle(dates, durations)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, outlook)
	}

	fmt.Fprintf(w, "Cycle phases for %s (cycle starting %s):\n\n",
		displayName(patient), outlook.Anchor.Format(models.DateLayout))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tFROM\tTO\tDAYS\t")
	for _, interval := range outlook.Phases {
		marker := ""
		if interval.Estimated {
			marker = " (estimated)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%s\t\n",
			interval.Phase.Title(),
			interval.Start.Format(models.DateLayout),
			interval.End.Format(models.DateLayout),
			interval.Days(), marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nNext period expected: %s (mean length %d days)\n",
		outlook.NextPeriod.Format(models.DateLayout), outlook.Stats.MeanLength)
	return nil
}

func (e *env) resolve(code string, day time.Time, w io.Writer) error {
	patient, dates, durations, err := e.history(code)
	if err != nil {
		return err
	}
	phase, err := cycle.ResolvePhaseForDate(dates, durations, day)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, map[string]string{
			"code":  patient.Code,
			"date":  day.Format(models.DateLayout),
			"phase": string(phase),
		})
	}
	fmt.Fprintf(w, "%s is in the %s phase on %s\n",
		displayName(patient), phase.Title(), day.Format(models.DateLayout))
	return nil
}

func (e *env) stats(code string, w io.Writer) error {
	patient, dates, _, err := e.history(code)
	if err != nil {
		return err
	}
	stats, err := cycle.EstimateStatistics(dates)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, stats)
	}

	fmt.Fprintf(w, "Cycle statistics for %s:\n", displayName(patient))
	fmt.Fprintf(w, "  Mean length: %d days\n", stats.MeanLength)
	fmt.Fprintf(w, "  Spread:      %d days\n", stats.Spread)
	fmt.Fprintf(w, "  Trend:       %+.2f days/cycle\n", stats.Trend)
	fmt.Fprintf(w, "  Samples:     %d\n", stats.Samples)

	if lengths := cycle.IntervalLengths(dates); len(lengths) >= 2 {
		fmt.Fprintf(w, "\nCycle lengths:\n%s\n", chart.CycleLengthSparkline(lengths))
	}
	return nil
}

func (e *env) renderChart(code string, queries []time.Time) (string, error) {
	patient, dates, durations, err := e.history(code)
	if err != nil {
		return "", err
	}

	path := chartOut
	if path == "" {
		dir := e.settings.ChartOutputDir
		if dir == "" {
			dir = "."
		}
		stamp := time.Now().Format("20060102")
		path = filepath.Join(dir, fmt.Sprintf("cycle_%s_%s.png", patient.Code, stamp))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	timeline := chart.NewTimeline(e.settings)
	if err := timeline.Render(patient.Code, dates, durations, queries, path); err != nil {
		return "", err
	}
	return path, nil
}

func parseDay(raw string) (time.Time, error) {
	day, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return models.DateOnly(day), nil
}

func displayName(patient models.Patient) string {
	if patient.Name != "" {
		return patient.Name
	}
	return patient.Code
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
