package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/models"
	"github.com/calbright/flowday/internal/queue"
	"github.com/calbright/flowday/internal/services/coach"
	"github.com/google/uuid"
)

// mockTaskRepo implements database.TaskRepositoryInterface backed by a map
type mockTaskRepo struct {
	tasks       map[uuid.UUID]*models.Task
	schedulable []models.Task
	scheduled   []uuid.UUID

	createErr error
	listErr   error
	updateErr error
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task not found")
	}
	return task, nil
}

func (m *mockTaskRepo) List(ctx context.Context, status *models.TaskStatus, projectID *uuid.UUID, page, pageSize int) ([]*models.Task, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []*models.Task
	for _, task := range m.tasks {
		if status != nil && task.Status != *status {
			continue
		}
		if projectID != nil && (task.ProjectID == nil || *task.ProjectID != *projectID) {
			continue
		}
		out = append(out, task)
	}
	return out, len(out), nil
}

func (m *mockTaskRepo) ListSchedulable(ctx context.Context) ([]models.Task, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.schedulable, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.tasks[task.ID]; !ok {
		return fmt.Errorf("task not found")
	}
	task.UpdatedAt = time.Now()
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) MarkScheduled(ctx context.Context, ids []uuid.UUID) error {
	m.scheduled = append(m.scheduled, ids...)
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("task not found")
	}
	delete(m.tasks, id)
	return nil
}

// mockProjectRepo implements database.ProjectRepositoryInterface
type mockProjectRepo struct {
	projects   map[uuid.UUID]*models.Project
	milestones map[uuid.UUID][]*models.Milestone
	listErr    error
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{
		projects:   make(map[uuid.UUID]*models.Project),
		milestones: make(map[uuid.UUID][]*models.Milestone),
	}
}

func (m *mockProjectRepo) Create(ctx context.Context, project *models.Project) error {
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project not found")
	}
	return project, nil
}

func (m *mockProjectRepo) List(ctx context.Context, status *models.ProjectStatus) ([]*models.Project, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var projects []*models.Project
	for _, p := range m.projects {
		if status != nil && p.Status != *status {
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (m *mockProjectRepo) Update(ctx context.Context, project *models.Project) error {
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("project not found")
	}
	delete(m.projects, id)
	delete(m.milestones, id)
	return nil
}

func (m *mockProjectRepo) CreateMilestone(ctx context.Context, milestone *models.Milestone) error {
	m.milestones[milestone.ProjectID] = append(m.milestones[milestone.ProjectID], milestone)
	return nil
}

func (m *mockProjectRepo) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*models.Milestone, error) {
	return m.milestones[projectID], nil
}

func (m *mockProjectRepo) UpdateMilestone(ctx context.Context, milestone *models.Milestone) error {
	for i, existing := range m.milestones[milestone.ProjectID] {
		if existing.ID == milestone.ID {
			m.milestones[milestone.ProjectID][i] = milestone
			return nil
		}
	}
	return fmt.Errorf("milestone not found")
}

// mockFeedbackRepo implements database.FeedbackRepositoryInterface
type mockFeedbackRepo struct {
	entries   []models.FeedbackEntry
	createErr error
	listErr   error
}

func (m *mockFeedbackRepo) Create(ctx context.Context, entry *models.FeedbackEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockFeedbackRepo) ListRecent(ctx context.Context, limit int) ([]models.FeedbackEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.entries) > limit {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

// mockPlanRepo implements database.DailyPlanRepositoryInterface
type mockPlanRepo struct {
	plans     map[string]*models.DailyPlan // keyed by YYYY-MM-DD
	upsertErr error
	listErr   error
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*models.DailyPlan)}
}

func (m *mockPlanRepo) UpsertForDate(ctx context.Context, plan *models.DailyPlan) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()
	m.plans[plan.Date.Format(DateLayout)] = plan
	return nil
}

func (m *mockPlanRepo) GetByDate(ctx context.Context, date time.Time) (*models.DailyPlan, error) {
	plan, ok := m.plans[date.Format(DateLayout)]
	if !ok {
		return nil, fmt.Errorf("daily plan not found")
	}
	return plan, nil
}

func (m *mockPlanRepo) ListRecent(ctx context.Context, limit int) ([]models.DailyPlan, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.DailyPlan
	for _, plan := range m.plans {
		if len(out) == limit {
			break
		}
		out = append(out, *plan)
	}
	return out, nil
}

func (m *mockPlanRepo) MarkReviewed(ctx context.Context, date time.Time, energyRating *int) error {
	plan, ok := m.plans[date.Format(DateLayout)]
	if !ok {
		return fmt.Errorf("daily plan not found")
	}
	plan.EnergyRating = energyRating
	plan.EODReviewCompleted = true
	return nil
}

// mockCalibrationRepo implements database.CalibrationRepositoryInterface
type mockCalibrationRepo struct {
	snapshots int
	latest    *models.CalibrationProfile
}

func (m *mockCalibrationRepo) SaveSnapshot(ctx context.Context, date time.Time, profile *models.CalibrationProfile) error {
	m.snapshots++
	m.latest = profile
	return nil
}

func (m *mockCalibrationRepo) GetLatest(ctx context.Context) (*models.CalibrationProfile, error) {
	if m.latest == nil {
		return nil, fmt.Errorf("no calibration snapshot")
	}
	return m.latest, nil
}

// mockJobQueue implements queue.JobQueue, recording enqueued jobs
type mockJobQueue struct {
	jobs       []*queue.Job
	enqueueErr error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

// mockCoachProvider implements coach.Provider
type mockCoachProvider struct {
	summary    string
	summaryErr error
}

func (m *mockCoachProvider) DecomposeGoal(ctx context.Context, goal string, profile *models.CalibrationProfile) ([]coach.TaskDraft, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCoachProvider) SummarizePlan(ctx context.Context, plan *models.DailyPlan, profile *models.CalibrationProfile) (string, error) {
	if m.summaryErr != nil {
		return "", m.summaryErr
	}
	return m.summary, nil
}
