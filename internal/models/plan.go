package models

import (
	"time"

	"github.com/google/uuid"
)

// BlockType signals the expected cognitive intensity of a block
type BlockType string

const (
	BlockTypeDeepWork    BlockType = "deep_work"
	BlockTypeShallowWork BlockType = "shallow_work"
)

// ScheduledTask is a task placed inside a block. SortOrder is the intra-block
// position (0 = first), independent of the task's own SortOrder field.
type ScheduledTask struct {
	Task      Task `json:"task"`
	SortOrder int  `json:"sort_order"`
}

// ScheduledBlock is a contiguous work window in a generated day plan
type ScheduledBlock struct {
	BlockNumber  int             `json:"block_number"` // 1-based
	StartTime    string          `json:"start_time"`   // HH:MM
	EndTime      string          `json:"end_time"`     // HH:MM
	BlockType    BlockType       `json:"block_type"`
	Tasks        []ScheduledTask `json:"tasks"`
	TotalMinutes int             `json:"total_minutes"`
}

// DailyPlan is the persisted record of one day's planning session
type DailyPlan struct {
	ID                   uuid.UUID        `json:"id"`
	Date                 time.Time        `json:"date"`
	StartTime            string           `json:"start_time"`
	HoursRequested       *float64         `json:"hours_requested,omitempty"`
	BlockDurationMinutes int              `json:"block_duration_minutes"`
	BreakDurationMinutes int              `json:"break_duration_minutes"`
	Blocks               []ScheduledBlock `json:"blocks"`
	EnergyRating         *int             `json:"energy_rating,omitempty"` // 1-5
	EODReviewCompleted   bool             `json:"eod_review_completed"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}
