package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/models"
)

// FeedbackRepository handles difficulty-feedback database operations
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback entry captured at task completion
func (r *FeedbackRepository) Create(ctx context.Context, entry *models.FeedbackEntry) error {
	query := `
		INSERT INTO feedback_entries (id, task_id, rating, task_difficulty, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	var rating sql.NullString
	if entry.Rating != nil {
		rating = sql.NullString{String: string(*entry.Rating), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.TaskID,
		rating,
		entry.TaskDifficulty,
		time.Now(),
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create feedback entry: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent feedback entries, newest first
func (r *FeedbackRepository) ListRecent(ctx context.Context, limit int) ([]models.FeedbackEntry, error) {
	query := `
		SELECT id, task_id, rating, task_difficulty, created_at
		FROM feedback_entries
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback entries: %w", err)
	}
	defer rows.Close()

	var entries []models.FeedbackEntry
	for rows.Next() {
		var entry models.FeedbackEntry
		var rating sql.NullString
		err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&rating,
			&entry.TaskDifficulty,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback entry: %w", err)
		}
		if rating.Valid {
			r := models.DifficultyRating(rating.String)
			entry.Rating = &r
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback entries: %w", err)
	}

	return entries, nil
}
