package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusScheduled  TaskStatus = "scheduled"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusSkipped    TaskStatus = "skipped"
)

// CanonicalEstimates are the conventional estimate sizes offered by the UI.
// They are a convention, not a constraint: any positive estimate is accepted.
var CanonicalEstimates = []int{15, 30, 45, 60, 90, 120}

// Task represents a unit of work derived from a goal or entered directly
type Task struct {
	ID               uuid.UUID  `json:"id"`
	ProjectID        *uuid.UUID `json:"project_id,omitempty"`
	MilestoneID      *uuid.UUID `json:"milestone_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Difficulty       int        `json:"difficulty"` // 1-10
	Priority         int        `json:"priority"`   // 1-5, 5 highest
	Status           TaskStatus `json:"status"`
	SortOrder        int        `json:"sort_order"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Schedulable reports whether the task is eligible for daily scheduling
func (t *Task) Schedulable() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusScheduled
}
