package cycle

import (
	"time"

	"github.com/mvaldes/ciclotrack/internal/models"
)

// PartitionPhases splits one cycle of meanLength days anchored at anchor
// into the four sub-phases. Ovulation is fixed at models.OvulationDays and
// the luteal phase never drops below models.MinLutealDays; the follicular
// phase absorbs any deficit. The four intervals are contiguous, inclusive on
// both ends and together cover exactly meanLength days.
//
// Returns a *DegenerateBoundaryError when the luteal minimum would push the
// follicular duration to zero or below.
func PartitionPhases(anchor time.Time, meanLength, menstrualDays int) (models.PhaseTable, error) {
	if menstrualDays <= 0 {
		menstrualDays = models.DefaultMenstrualDays
	}
	if meanLength <= 0 {
		meanLength = models.DefaultCycleLength
	}

	follicular := models.InitialFollicularDays
	luteal := meanLength - (menstrualDays + follicular + models.OvulationDays)
	if luteal < models.MinLutealDays {
		luteal = models.MinLutealDays
		follicular = meanLength - (menstrualDays + models.OvulationDays + luteal)
	}
	if follicular <= 0 {
		return nil, &DegenerateBoundaryError{
			MeanLength:     meanLength,
			MenstrualDays:  menstrualDays,
			FollicularDays: follicular,
		}
	}

	day := models.DateOnly(anchor)
	table := make(models.PhaseTable, 0, len(models.Phases))
	for _, span := range []struct {
		phase models.Phase
		days  int
	}{
		{models.PhaseMenstrual, menstrualDays},
		{models.PhaseFollicular, follicular},
		{models.PhaseOvulation, models.OvulationDays},
		{models.PhaseLuteal, luteal},
	} {
		end := day.AddDate(0, 0, span.days-1)
		table = append(table, models.PhaseInterval{Phase: span.phase, Start: day, End: end})
		day = end.AddDate(0, 0, 1)
	}

	return table, nil
}
