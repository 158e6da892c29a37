package planner

import (
	"math"
	"sort"

	"github.com/calbright/flowday/internal/models"
)

const (
	// MinFeedbackSamples is the minimum feedback count before any statistical
	// estimate is attempted. Below it the neutral default profile is returned.
	MinFeedbackSamples = 3
	// ConfidenceSaturation is the feedback count at which confidence reaches 1.0
	ConfidenceSaturation = 33
	// ChallengeMultiplier encodes the 4% challenge-skill sweet spot: ideal task
	// difficulty slightly exceeds current skill, per flow-state theory
	ChallengeMultiplier = 1.04
	// ChallengeSigma controls how sharply challenge-skill affinity falls off
	// with distance from the ideal difficulty
	ChallengeSigma = 2.0
	// StreakGapToleranceDays is the maximum gap between consecutive reviewed
	// days that still extends a streak. The half-day slack absorbs timezone
	// and rounding noise in stored dates.
	StreakGapToleranceDays = 1.5

	// FeedbackWindowSize is how many recent feedback entries feed a
	// calibration run
	FeedbackWindowSize = 200
	// PlanWindowSize is how many recent daily plans feed a calibration run
	PlanWindowSize = 30

	// defaultSkillLevel is the neutral skill estimate used until enough
	// feedback accumulates
	defaultSkillLevel = 5.0
	// defaultTooEasyDifficulty substitutes for an empty too_easy group
	defaultTooEasyDifficulty = 3.0
	// defaultTooHardDifficulty substitutes for an empty too_hard group
	defaultTooHardDifficulty = 7.0
)

// ComputeCalibrationProfile derives the user's current skill level, energy
// patterns, and review streak from historical feedback and daily summaries.
// It tolerates empty input and never fails: with fewer than MinFeedbackSamples
// entries it returns the neutral default profile, equivalent to running with
// no personalization at all.
func ComputeCalibrationProfile(feedback []models.FeedbackEntry, summaries []models.DailyPlan) models.CalibrationProfile {
	if len(feedback) < MinFeedbackSamples {
		return models.CalibrationProfile{
			SkillLevel:      defaultSkillLevel,
			IdealDifficulty: round2(defaultSkillLevel * ChallengeMultiplier),
			Confidence:      0,
			DataPoints:      len(feedback),
			EnergyByDay:     map[int]float64{},
			AvgHoursPerDay:  0,
			CurrentStreak:   0,
		}
	}

	var tooEasy, justRight, tooHard []float64
	for _, entry := range feedback {
		if entry.Rating == nil {
			continue
		}
		difficulty := float64(entry.TaskDifficulty)
		switch *entry.Rating {
		case models.RatingTooEasy:
			tooEasy = append(tooEasy, difficulty)
		case models.RatingJustRight:
			justRight = append(justRight, difficulty)
		case models.RatingTooHard:
			tooHard = append(tooHard, difficulty)
		}
	}

	var skill float64
	if len(justRight) > 0 {
		skill = median(justRight)
	} else {
		easyMean := meanOrDefault(tooEasy, defaultTooEasyDifficulty)
		hardMean := meanOrDefault(tooHard, defaultTooHardDifficulty)
		skill = (easyMean + hardMean) / 2
	}
	skill = clamp(skill, 1, 10)

	ideal := math.Min(10, skill*ChallengeMultiplier)
	confidence := math.Min(1, float64(len(feedback))/ConfidenceSaturation)

	return models.CalibrationProfile{
		SkillLevel:      round2(skill),
		IdealDifficulty: round2(ideal),
		Confidence:      round2(confidence),
		DataPoints:      len(feedback),
		EnergyByDay:     energyByWeekday(summaries),
		AvgHoursPerDay:  avgHoursPerDay(summaries),
		CurrentStreak:   reviewStreak(summaries),
	}
}

// ChallengeSkillScore rates how well a task difficulty matches the profile's
// ideal difficulty, in [0,1]. A Gaussian centered on the ideal difficulty is
// blended with the unpersonalized fallback heuristic using confidence as the
// mixing weight, so a low-confidence profile degrades smoothly to the same
// behavior as no profile at all.
func ChallengeSkillScore(taskDifficulty int, profile *models.CalibrationProfile) float64 {
	fallback := defaultChallengeScore(taskDifficulty)
	if profile == nil {
		return fallback
	}
	delta := float64(taskDifficulty) - profile.IdealDifficulty
	gaussian := math.Exp(-(delta * delta) / (2 * ChallengeSigma * ChallengeSigma))
	return gaussian*profile.Confidence + fallback*(1-profile.Confidence)
}

// defaultChallengeScore is the difficulty-agnostic heuristic used when no
// calibration signal exists: prefer mid-difficulty tasks.
func defaultChallengeScore(taskDifficulty int) float64 {
	return math.Max(0, 1-math.Abs(float64(taskDifficulty)-5)*0.15)
}

// energyByWeekday averages self-reported energy per weekday (0=Sunday)
func energyByWeekday(summaries []models.DailyPlan) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, s := range summaries {
		if s.EnergyRating == nil {
			continue
		}
		day := int(s.Date.Weekday())
		sums[day] += float64(*s.EnergyRating)
		counts[day]++
	}
	byDay := make(map[int]float64, len(sums))
	for day, sum := range sums {
		byDay[day] = round1(sum / float64(counts[day]))
	}
	return byDay
}

func avgHoursPerDay(summaries []models.DailyPlan) float64 {
	var sum float64
	var n int
	for _, s := range summaries {
		if s.HoursRequested == nil {
			continue
		}
		sum += *s.HoursRequested
		n++
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

// reviewStreak counts consecutive days (newest first) with a completed
// end-of-day review, allowing gaps up to StreakGapToleranceDays.
func reviewStreak(summaries []models.DailyPlan) int {
	var reviewed []models.DailyPlan
	for _, s := range summaries {
		if s.EODReviewCompleted {
			reviewed = append(reviewed, s)
		}
	}
	if len(reviewed) == 0 {
		return 0
	}
	sort.Slice(reviewed, func(i, j int) bool {
		return reviewed[i].Date.After(reviewed[j].Date)
	})
	streak := 1
	for i := 1; i < len(reviewed); i++ {
		gapDays := reviewed[i-1].Date.Sub(reviewed[i].Date).Hours() / 24
		if gapDays > StreakGapToleranceDays {
			break
		}
		streak++
	}
	return streak
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func meanOrDefault(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
