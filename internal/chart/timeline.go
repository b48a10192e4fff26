// Package chart renders cycle phase timelines as PNG images and terminal
// sparklines
package chart

import (
	"fmt"
	"image/color"
	"sort"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/mvaldes/ciclotrack/internal/cycle"
	"github.com/mvaldes/ciclotrack/internal/models"
)

const (
	marginX   = 40
	marginTop = 56
	marginBot = 36

	// maxQueryDates caps the painted range like the source system did;
	// older query dates are dropped in favor of recent ones
	maxQueryDates = 6

	tickLabelEvery = 2 // Label every Nth day on the axis
)

// Timeline paints phase intervals and query markers over a date range
type Timeline struct {
	settings *models.Settings
}

// NewTimeline creates a timeline renderer
func NewTimeline(settings *models.Settings) *Timeline {
	if settings == nil {
		settings = models.DefaultSettings()
	}
	return &Timeline{settings: settings}
}

// Window is the date range a render covers, with a title describing how it
// was chosen
type Window struct {
	Start time.Time
	End   time.Time
	Title string
}

// WindowFor chooses the painted range from the query dates, the recorded
// history and the mean cycle length. No queries yields the forecast window
// from the latest record; a single future query does the same; a single
// historical query runs to the next record; multiple queries span from the
// first to one mean past the last.
func WindowFor(queries, recorded []time.Time, meanLength int) (Window, error) {
	if meanLength <= 0 {
		meanLength = models.DefaultCycleLength
	}

	qs := make([]time.Time, 0, len(queries))
	for _, q := range queries {
		if !q.IsZero() {
			qs = append(qs, models.DateOnly(q))
		}
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].Before(qs[j]) })
	if len(qs) > maxQueryDates {
		qs = qs[len(qs)-maxQueryDates:]
	}

	rec := make([]time.Time, 0, len(recorded))
	for _, r := range recorded {
		if !r.IsZero() {
			rec = append(rec, models.DateOnly(r))
		}
	}
	sort.Slice(rec, func(i, j int) bool { return rec[i].Before(rec[j]) })

	if len(qs) == 0 {
		if len(rec) == 0 {
			return Window{}, fmt.Errorf("no query dates and no recorded history")
		}
		last := rec[len(rec)-1]
		return Window{
			Start: last,
			End:   last.AddDate(0, 0, meanLength),
			Title: "Cycle forecast",
		}, nil
	}

	if len(qs) > 1 {
		return Window{
			Start: qs[0],
			End:   qs[len(qs)-1].AddDate(0, 0, meanLength),
			Title: "Cycle phases (range)",
		}, nil
	}

	query := qs[0]
	if len(rec) > 0 {
		last := rec[len(rec)-1]
		if !query.Before(last) {
			return Window{
				Start: last,
				End:   last.AddDate(0, 0, meanLength),
				Title: "Cycle forecast",
			}, nil
		}
		for _, r := range rec {
			if r.After(query) {
				return Window{Start: query, End: r, Title: "Cycle phases (history)"}, nil
			}
		}
	}
	return Window{
		Start: query,
		End:   query.AddDate(0, 0, meanLength),
		Title: "Cycle phases (history)",
	}, nil
}

// Render paints the phase timeline for one patient over the window derived
// from the query dates, and writes it as a PNG. Days past the latest
// recorded observation are painted translucent to read as forecast.
func (t *Timeline) Render(code string, dates []time.Time, durations []int, queries []time.Time, outPath string) error {
	stats, err := cycle.EstimateStatistics(dates)
	if err != nil {
		stats = models.CycleStatistics{MeanLength: models.DefaultCycleLength}
	}

	window, err := WindowFor(queries, dates, stats.MeanLength)
	if err != nil {
		return err
	}

	days := models.DaysBetween(window.Start, window.End) + 1
	if days < 2 {
		return fmt.Errorf("window too small: %d days", days)
	}

	// Resolve the phase of every day once up front
	phases := make([]models.Phase, days)
	for i := 0; i < days; i++ {
		phase, err := cycle.ResolvePhaseForDate(dates, durations, window.Start.AddDate(0, 0, i))
		if err != nil {
			return fmt.Errorf("resolving phase: %w", err)
		}
		phases[i] = phase
	}

	var lastRecorded time.Time
	for _, d := range dates {
		if day := models.DateOnly(d); day.After(lastRecorded) {
			lastRecorded = day
		}
	}

	dayWidth := float64(t.settings.ChartDayWidth)
	bandTop := float64(marginTop)
	bandBottom := bandTop + float64(t.settings.ChartHeight)
	width := marginX*2 + int(dayWidth)*days
	height := marginTop + t.settings.ChartHeight + marginBot

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	if err := loadFont(dc, 13); err != nil {
		return fmt.Errorf("loading font: %w", err)
	}

	// Merge consecutive same-phase days into blocks instead of painting
	// day by day
	blockStart := 0
	for i := 1; i <= days; i++ {
		if i < days && phases[i] == phases[blockStart] {
			continue
		}
		t.drawBlock(dc, window, phases[blockStart], blockStart, i, dayWidth, bandTop, bandBottom, lastRecorded)
		blockStart = i
	}

	// Axis ticks
	dc.SetRGB255(90, 90, 90)
	for i := 0; i < days; i += tickLabelEvery {
		day := window.Start.AddDate(0, 0, i)
		x := float64(marginX) + (float64(i)+0.5)*dayWidth
		dc.DrawStringAnchored(day.Format("Jan-02"), x, bandBottom+16, 0.5, 0.5)
	}

	// Query markers
	for _, q := range queries {
		day := models.DateOnly(q)
		offset := models.DaysBetween(window.Start, day)
		if offset < 0 || offset >= days {
			continue
		}
		x := float64(marginX) + (float64(offset)+0.5)*dayWidth

		dc.SetColor(color.Black)
		dc.SetDash(4, 4)
		dc.SetLineWidth(1)
		dc.DrawLine(x, bandTop-6, x, bandBottom+6)
		dc.Stroke()
		dc.SetDash()

		label := fmt.Sprintf("%s (%s)", day.Format(models.DateLayout), phases[offset].Title())
		dc.DrawStringAnchored(label, x, bandTop-16, 0.5, 0.5)
	}

	// Title
	dc.SetColor(color.Black)
	if err := loadFont(dc, 16); err == nil {
		dc.DrawStringAnchored(fmt.Sprintf("%s - Patient %s", window.Title, code), float64(width)/2, 22, 0.5, 0.5)
	}

	return dc.SavePNG(outPath)
}

// drawBlock paints one run of same-phase days and writes the phase name at
// its center
func (t *Timeline) drawBlock(dc *gg.Context, window Window, phase models.Phase, from, to int, dayWidth, bandTop, bandBottom float64, lastRecorded time.Time) {
	r, g, b := parseHexColor(t.settings.PhaseColor(phase))

	x := float64(marginX) + float64(from)*dayWidth
	w := float64(to-from) * dayWidth

	blockStartDay := window.Start.AddDate(0, 0, from)
	alpha := 230
	if !lastRecorded.IsZero() && blockStartDay.After(lastRecorded) {
		// Forecast day, not history
		alpha = 120
	}

	dc.SetRGBA255(int(r), int(g), int(b), alpha)
	dc.DrawRectangle(x, bandTop, w, bandBottom-bandTop)
	dc.Fill()

	// Dark text on bright blocks, white on dark ones
	brightness := (int(r)*299 + int(g)*587 + int(b)*114) / 1000
	if brightness > 128 {
		dc.SetColor(color.Black)
	} else {
		dc.SetColor(color.White)
	}
	if w >= 48 {
		dc.DrawStringAnchored(phase.Title(), x+w/2, (bandTop+bandBottom)/2, 0.5, 0.5)
	}
}

// loadFont helper to load font safely
func loadFont(dc *gg.Context, size float64) error {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face := truetype.NewFace(font, &truetype.Options{Size: size})
	dc.SetFontFace(face)
	return nil
}

// parseHexColor parses a hex color string to RGB values
func parseHexColor(hex string) (r, g, b byte) {
	if len(hex) == 7 && hex[0] == '#' {
		_, _ = fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	}
	return
}
