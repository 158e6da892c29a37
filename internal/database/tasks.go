package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, project_id, milestone_id, title, description, estimated_minutes, difficulty, priority, status, sort_order, created_at, updated_at, completed_at`

// Create inserts a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, milestone_id, title, description, estimated_minutes, difficulty, priority, status, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.ProjectID,
		task.MilestoneID,
		task.Title,
		task.Description,
		task.EstimatedMinutes,
		task.Difficulty,
		task.Priority,
		task.Status,
		task.SortOrder,
		now,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// List retrieves tasks, optionally filtered by status and project, paginated.
// Results are ordered by sort_order then creation time.
func (r *TaskRepository) List(ctx context.Context, status *models.TaskStatus, projectID *uuid.UUID, page, pageSize int) ([]*models.Task, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(*status))
		argIndex++
	}
	if projectID != nil {
		where += fmt.Sprintf(" AND project_id = $%d", argIndex)
		args = append(args, *projectID)
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := "SELECT " + taskColumns + " FROM tasks" + where +
		fmt.Sprintf(" ORDER BY sort_order ASC, created_at ASC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, total, nil
}

// ListSchedulable retrieves all pending and scheduled tasks in sort order
func (r *TaskRepository) ListSchedulable(ctx context.Context) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE status IN ($1, $2)
		ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.TaskStatusPending, models.TaskStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedulable tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedulable tasks: %w", err)
	}

	return tasks, nil
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET project_id = $2, milestone_id = $3, title = $4, description = $5,
			estimated_minutes = $6, difficulty = $7, priority = $8, status = $9,
			sort_order = $10, updated_at = $11, completed_at = $12
		WHERE id = $1
		RETURNING updated_at
	`

	var completedAt sql.NullTime
	if task.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *task.CompletedAt, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.ProjectID,
		task.MilestoneID,
		task.Title,
		task.Description,
		task.EstimatedMinutes,
		task.Difficulty,
		task.Priority,
		task.Status,
		task.SortOrder,
		time.Now(),
		completedAt,
	).Scan(&task.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("task not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// MarkScheduled transitions the given pending tasks to scheduled status
func (r *TaskRepository) MarkScheduled(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = ANY($3) AND status = $4
	`
	_, err := r.db.ExecContext(ctx, query,
		models.TaskStatusScheduled,
		time.Now(),
		pq.Array(ids),
		models.TaskStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark tasks scheduled: %w", err)
	}

	return nil
}

// Delete deletes a task by ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var projectID, milestoneID uuid.NullUUID
	var completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&projectID,
		&milestoneID,
		&task.Title,
		&task.Description,
		&task.EstimatedMinutes,
		&task.Difficulty,
		&task.Priority,
		&task.Status,
		&task.SortOrder,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if projectID.Valid {
		task.ProjectID = &projectID.UUID
	}
	if milestoneID.Valid {
		task.MilestoneID = &milestoneID.UUID
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return task, nil
}
