package coach

import (
	"context"

	"github.com/calbright/flowday/internal/models"
)

// TaskDraft is a task suggestion produced by goal decomposition, before it
// is persisted as a real task.
type TaskDraft struct {
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Difficulty       int    `json:"difficulty"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Priority         int    `json:"priority"`
}

// Provider is the interface for coaching providers
type Provider interface {
	// DecomposeGoal breaks a project goal into concrete task drafts
	DecomposeGoal(ctx context.Context, goal string, profile *models.CalibrationProfile) ([]TaskDraft, error)

	// SummarizePlan produces a short motivational summary of a daily plan
	SummarizePlan(ctx context.Context, plan *models.DailyPlan, profile *models.CalibrationProfile) (string, error)
}

// NormalizeDraft clamps draft fields into valid ranges and snaps the time
// estimate to the nearest canonical block size.
func NormalizeDraft(d TaskDraft) TaskDraft {
	if d.Difficulty < 1 {
		d.Difficulty = 1
	}
	if d.Difficulty > 10 {
		d.Difficulty = 10
	}
	if d.Priority < 1 {
		d.Priority = 1
	}
	if d.Priority > 5 {
		d.Priority = 5
	}
	d.EstimatedMinutes = snapEstimate(d.EstimatedMinutes)
	return d
}

func snapEstimate(minutes int) int {
	if minutes <= 0 {
		return models.CanonicalEstimates[0]
	}
	best := models.CanonicalEstimates[0]
	for _, c := range models.CanonicalEstimates {
		if abs(minutes-c) < abs(minutes-best) {
			best = c
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
