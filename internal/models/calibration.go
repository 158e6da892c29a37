package models

// CalibrationProfile is a statistical summary of the user's skill level and
// work patterns, recomputed from scratch from historical feedback on each
// request. It is a read-mostly value object, never incrementally updated.
type CalibrationProfile struct {
	SkillLevel      float64         `json:"skill_level"`      // 1-10
	IdealDifficulty float64         `json:"ideal_difficulty"` // skill * 1.04, capped at 10
	Confidence      float64         `json:"confidence"`       // 0-1
	DataPoints      int             `json:"data_points"`
	EnergyByDay     map[int]float64 `json:"energy_by_day"` // weekday 0=Sunday .. 6=Saturday -> mean energy 1-5
	AvgHoursPerDay  float64         `json:"avg_hours_per_day"`
	CurrentStreak   int             `json:"current_streak"` // consecutive days with a completed review
}
