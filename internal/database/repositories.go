package database

import (
	"context"
	"time"

	"github.com/calbright/flowday/internal/models"
	"github.com/google/uuid"
)

// TaskRepositoryInterface defines the task operations consumed by handlers
// and workers. The interface enables mock implementations in tests.
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, status *models.TaskStatus, projectID *uuid.UUID, page, pageSize int) ([]*models.Task, int, error)
	ListSchedulable(ctx context.Context) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	MarkScheduled(ctx context.Context, ids []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProjectRepositoryInterface defines the project operations consumed by
// handlers and workers
type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, status *models.ProjectStatus) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateMilestone(ctx context.Context, milestone *models.Milestone) error
	ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*models.Milestone, error)
	UpdateMilestone(ctx context.Context, milestone *models.Milestone) error
}

// FeedbackRepositoryInterface defines the feedback operations consumed by
// handlers and workers
type FeedbackRepositoryInterface interface {
	Create(ctx context.Context, entry *models.FeedbackEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.FeedbackEntry, error)
}

// DailyPlanRepositoryInterface defines the daily plan operations consumed by
// handlers and workers
type DailyPlanRepositoryInterface interface {
	UpsertForDate(ctx context.Context, plan *models.DailyPlan) error
	GetByDate(ctx context.Context, date time.Time) (*models.DailyPlan, error)
	ListRecent(ctx context.Context, limit int) ([]models.DailyPlan, error)
	MarkReviewed(ctx context.Context, date time.Time, energyRating *int) error
}

// CalibrationRepositoryInterface defines calibration snapshot storage
type CalibrationRepositoryInterface interface {
	SaveSnapshot(ctx context.Context, date time.Time, profile *models.CalibrationProfile) error
	GetLatest(ctx context.Context) (*models.CalibrationProfile, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface        = (*TaskRepository)(nil)
	_ ProjectRepositoryInterface     = (*ProjectRepository)(nil)
	_ FeedbackRepositoryInterface    = (*FeedbackRepository)(nil)
	_ DailyPlanRepositoryInterface   = (*DailyPlanRepository)(nil)
	_ CalibrationRepositoryInterface = (*CalibrationRepository)(nil)
)
