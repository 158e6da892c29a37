package planner

import (
	"time"

	"github.com/calbright/flowday/internal/models"
)

const (
	blockShort   = 60
	blockMedium  = 90
	blockDefault = 120

	// lowConfidence / mediumConfidence bound the auto-mode decision ladder
	lowConfidence    = 0.3
	mediumConfidence = 0.7
)

// ResolveBlockDuration maps a block mode to a duration in minutes. The fixed
// modes return their literal value, "custom" returns customDuration, and
// "auto" picks a duration from the calibration profile and pending workload.
// Unknown modes fall back to customDuration, or the default deep-work length
// when no custom duration is set.
func ResolveBlockDuration(mode string, customDuration int, calibration *models.CalibrationProfile, tasks []models.Task) int {
	switch models.BlockMode(mode) {
	case models.BlockMode60:
		return blockShort
	case models.BlockMode90:
		return blockMedium
	case models.BlockMode120:
		return blockDefault
	case models.BlockModeCustom:
		return customDuration
	case models.BlockModeAuto:
		return resolveAutoDuration(calibration, tasks, time.Now())
	default:
		if customDuration > 0 {
			return customDuration
		}
		return blockDefault
	}
}

// resolveAutoDuration is the adaptive ladder behind auto mode. It is
// deliberately conservative: whenever the profile is uncertain it shortens
// the block rather than committing to a full deep-work session. Branch order
// matters; later branches assume the earlier ones did not match.
func resolveAutoDuration(calibration *models.CalibrationProfile, tasks []models.Task, now time.Time) int {
	// No data at all: default to the canonical deep-work length
	if calibration == nil || calibration.Confidence == 0 {
		return blockDefault
	}

	// Still building trust in the profile
	if calibration.Confidence < lowConfidence {
		return blockMedium
	}

	if calibration.Confidence < mediumConfidence {
		avg := calibration.AvgHoursPerDay
		switch {
		case avg > 0 && avg < 3:
			return blockShort
		case avg >= 3 && avg <= 5:
			return blockMedium
		default:
			return blockDefault
		}
	}

	// High confidence: consult the actual workload first
	if mean, ok := meanActiveEstimate(tasks); ok {
		if mean < 25 {
			return blockShort
		}
		if mean < 50 {
			return blockMedium
		}
	}

	// Then today's typical energy
	if energy, ok := calibration.EnergyByDay[int(now.Weekday())]; ok {
		if energy <= 2 {
			return blockShort
		}
		if energy <= 3 {
			return blockMedium
		}
	}

	if calibration.AvgHoursPerDay > 0 && calibration.AvgHoursPerDay < 4 {
		return blockMedium
	}
	return blockDefault
}

// meanActiveEstimate averages estimated minutes over schedulable tasks,
// reporting ok=false when there are none to average.
func meanActiveEstimate(tasks []models.Task) (float64, bool) {
	sum, n := 0, 0
	for _, t := range tasks {
		if t.Schedulable() {
			sum += t.EstimatedMinutes
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}
