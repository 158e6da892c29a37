package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/models"
	"github.com/google/uuid"
)

// ProjectRepository handles project and milestone database operations
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Status,
		now,
		now,
	).Scan(&project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	query := `
		SELECT id, name, description, status, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// List retrieves all projects, optionally filtered by status
func (r *ProjectRepository) List(ctx context.Context, status *models.ProjectStatus) ([]*models.Project, error) {
	query := `
		SELECT id, name, description, status, created_at, updated_at
		FROM projects
	`
	args := []any{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.Status,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Update updates an existing project
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, status = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Status,
		time.Now(),
	).Scan(&project.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("project not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// Delete deletes a project by ID
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("project not found")
	}

	return nil
}

// CreateMilestone inserts a new milestone under a project
func (r *ProjectRepository) CreateMilestone(ctx context.Context, milestone *models.Milestone) error {
	query := `
		INSERT INTO milestones (id, project_id, title, due_date, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	var dueDate sql.NullTime
	if milestone.DueDate != nil {
		dueDate = sql.NullTime{Time: *milestone.DueDate, Valid: true}
	}

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		milestone.ID,
		milestone.ProjectID,
		milestone.Title,
		dueDate,
		milestone.Completed,
		now,
		now,
	).Scan(&milestone.CreatedAt, &milestone.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}

	return nil
}

// ListMilestones retrieves all milestones for a project
func (r *ProjectRepository) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*models.Milestone, error) {
	query := `
		SELECT id, project_id, title, due_date, completed, created_at, updated_at
		FROM milestones
		WHERE project_id = $1
		ORDER BY due_date ASC NULLS LAST, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	var milestones []*models.Milestone
	for rows.Next() {
		milestone := &models.Milestone{}
		var dueDate sql.NullTime
		err := rows.Scan(
			&milestone.ID,
			&milestone.ProjectID,
			&milestone.Title,
			&dueDate,
			&milestone.Completed,
			&milestone.CreatedAt,
			&milestone.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		if dueDate.Valid {
			milestone.DueDate = &dueDate.Time
		}
		milestones = append(milestones, milestone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestones: %w", err)
	}

	return milestones, nil
}

// UpdateMilestone updates a milestone's title, due date and completion flag
func (r *ProjectRepository) UpdateMilestone(ctx context.Context, milestone *models.Milestone) error {
	query := `
		UPDATE milestones
		SET title = $2, due_date = $3, completed = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`

	var dueDate sql.NullTime
	if milestone.DueDate != nil {
		dueDate = sql.NullTime{Time: *milestone.DueDate, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		milestone.ID,
		milestone.Title,
		dueDate,
		milestone.Completed,
		time.Now(),
	).Scan(&milestone.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("milestone not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}

	return nil
}
