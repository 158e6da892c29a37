package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/models"
)

// DailyPlanRepository handles daily plan database operations
type DailyPlanRepository struct {
	db *DB
}

// NewDailyPlanRepository creates a new daily plan repository
func NewDailyPlanRepository(db *DB) *DailyPlanRepository {
	return &DailyPlanRepository{db: db}
}

// UpsertForDate saves the plan for its date, replacing any existing plan.
// Re-planning a day is a normal operation; the previous blocks are discarded.
func (r *DailyPlanRepository) UpsertForDate(ctx context.Context, plan *models.DailyPlan) error {
	blocksJSON, err := json.Marshal(plan.Blocks)
	if err != nil {
		return fmt.Errorf("failed to marshal blocks: %w", err)
	}

	var hours sql.NullFloat64
	if plan.HoursRequested != nil {
		hours = sql.NullFloat64{Float64: *plan.HoursRequested, Valid: true}
	}

	now := time.Now()
	query := `
		INSERT INTO daily_plans (id, plan_date, start_time, hours_requested, block_duration_minutes, break_duration_minutes, blocks, eod_review_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (plan_date) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			hours_requested = EXCLUDED.hours_requested,
			block_duration_minutes = EXCLUDED.block_duration_minutes,
			break_duration_minutes = EXCLUDED.break_duration_minutes,
			blocks = EXCLUDED.blocks,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		plan.ID,
		plan.Date,
		plan.StartTime,
		hours,
		plan.BlockDurationMinutes,
		plan.BreakDurationMinutes,
		blocksJSON,
		plan.EODReviewCompleted,
		now,
		now,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert daily plan: %w", err)
	}

	return nil
}

// GetByDate retrieves the plan for a calendar date
func (r *DailyPlanRepository) GetByDate(ctx context.Context, date time.Time) (*models.DailyPlan, error) {
	query := `
		SELECT id, plan_date, start_time, hours_requested, block_duration_minutes, break_duration_minutes, blocks, energy_rating, eod_review_completed, created_at, updated_at
		FROM daily_plans
		WHERE plan_date = $1
	`

	plan, err := scanDailyPlan(r.db.QueryRowContext(ctx, query, date))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("daily plan not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily plan: %w", err)
	}

	return plan, nil
}

// ListRecent retrieves the most recent daily plans, newest first. These are
// the daily-session summaries the calibration engine consumes.
func (r *DailyPlanRepository) ListRecent(ctx context.Context, limit int) ([]models.DailyPlan, error) {
	query := `
		SELECT id, plan_date, start_time, hours_requested, block_duration_minutes, break_duration_minutes, blocks, energy_rating, eod_review_completed, created_at, updated_at
		FROM daily_plans
		ORDER BY plan_date DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily plans: %w", err)
	}
	defer rows.Close()

	var plans []models.DailyPlan
	for rows.Next() {
		plan, err := scanDailyPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily plan: %w", err)
		}
		plans = append(plans, *plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily plans: %w", err)
	}

	return plans, nil
}

// MarkReviewed records the end-of-day review for a date
func (r *DailyPlanRepository) MarkReviewed(ctx context.Context, date time.Time, energyRating *int) error {
	var energy sql.NullInt64
	if energyRating != nil {
		energy = sql.NullInt64{Int64: int64(*energyRating), Valid: true}
	}

	query := `
		UPDATE daily_plans
		SET energy_rating = $2, eod_review_completed = TRUE, updated_at = $3
		WHERE plan_date = $1
	`

	result, err := r.db.ExecContext(ctx, query, date, energy, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark plan reviewed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("daily plan not found")
	}

	return nil
}

func scanDailyPlan(row rowScanner) (*models.DailyPlan, error) {
	plan := &models.DailyPlan{}
	var blocksJSON []byte
	var hours sql.NullFloat64
	var energy sql.NullInt64

	err := row.Scan(
		&plan.ID,
		&plan.Date,
		&plan.StartTime,
		&hours,
		&plan.BlockDurationMinutes,
		&plan.BreakDurationMinutes,
		&blocksJSON,
		&energy,
		&plan.EODReviewCompleted,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(blocksJSON) > 0 {
		if err := json.Unmarshal(blocksJSON, &plan.Blocks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal blocks: %w", err)
		}
	}
	if hours.Valid {
		plan.HoursRequested = &hours.Float64
	}
	if energy.Valid {
		rating := int(energy.Int64)
		plan.EnergyRating = &rating
	}

	return plan, nil
}
