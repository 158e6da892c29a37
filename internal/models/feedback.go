package models

import (
	"time"

	"github.com/google/uuid"
)

// DifficultyRating is the user's verdict on a completed task's difficulty
type DifficultyRating string

const (
	RatingTooEasy   DifficultyRating = "too_easy"
	RatingJustRight DifficultyRating = "just_right"
	RatingTooHard   DifficultyRating = "too_hard"
)

// FeedbackEntry records one completed task's difficulty feedback.
// TaskDifficulty is the task's difficulty at completion time, captured here
// so later edits to the task do not rewrite history.
type FeedbackEntry struct {
	ID             uuid.UUID         `json:"id"`
	TaskID         uuid.UUID         `json:"task_id"`
	Rating         *DifficultyRating `json:"rating,omitempty"`
	TaskDifficulty int               `json:"task_difficulty"`
	CreatedAt      time.Time         `json:"created_at"`
}
