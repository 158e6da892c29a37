package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/models"
	"github.com/calbright/flowday/internal/queue"
	"github.com/calbright/flowday/internal/services/coach"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoalDecomposer processes goal decomposition jobs, turning project goals
// into pending tasks via the coaching provider.
type GoalDecomposer struct {
	provider        coach.Provider
	projectRepo     database.ProjectRepositoryInterface
	taskRepo        database.TaskRepositoryInterface
	calibrationRepo database.CalibrationRepositoryInterface
	jobQueue        queue.JobQueue // For re-enqueueing jobs with delays
	calibrator      *Calibrator
	logger          *zap.Logger
}

// NewGoalDecomposer creates a new goal decomposer
func NewGoalDecomposer(
	provider coach.Provider,
	projectRepo database.ProjectRepositoryInterface,
	taskRepo database.TaskRepositoryInterface,
	calibrationRepo database.CalibrationRepositoryInterface,
	jobQueue queue.JobQueue,
	calibrator *Calibrator,
	logger *zap.Logger,
) *GoalDecomposer {
	return &GoalDecomposer{
		provider:        provider,
		projectRepo:     projectRepo,
		taskRepo:        taskRepo,
		calibrationRepo: calibrationRepo,
		jobQueue:        jobQueue,
		calibrator:      calibrator,
		logger:          logger,
	}
}

// ProcessDecompositionJob processes a goal decomposition job
func (d *GoalDecomposer) ProcessDecompositionJob(ctx context.Context, job *queue.Job) error {
	if job.ProjectID == nil {
		return fmt.Errorf("project_id is required for goal decomposition job")
	}

	project, err := d.projectRepo.GetByID(ctx, *job.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	goal := project.Name
	if g, ok := job.Metadata["goal"].(string); ok && g != "" {
		goal = g
	}

	// Difficulty targeting uses the latest calibration snapshot when present
	profile, err := d.calibrationRepo.GetLatest(ctx)
	if err != nil {
		d.logger.Warn("calibration_snapshot_unavailable", zap.Error(err))
		profile = nil
	}

	drafts, err := d.provider.DecomposeGoal(ctx, goal, profile)
	if err != nil {
		return fmt.Errorf("failed to decompose goal: %w", err)
	}

	created := 0
	for i, draft := range drafts {
		task := &models.Task{
			ID:               uuid.New(),
			ProjectID:        &project.ID,
			Title:            draft.Title,
			Description:      draft.Description,
			EstimatedMinutes: draft.EstimatedMinutes,
			Difficulty:       draft.Difficulty,
			Priority:         draft.Priority,
			Status:           models.TaskStatusPending,
			SortOrder:        i,
		}
		if err := d.taskRepo.Create(ctx, task); err != nil {
			d.logger.Error("task_create_failed",
				zap.String("project_id", project.ID.String()),
				zap.String("title", draft.Title),
				zap.Error(err))
			continue
		}
		created++
	}

	if created == 0 {
		return fmt.Errorf("no tasks created from %d drafts", len(drafts))
	}

	d.logger.Info("goal_decomposed",
		zap.String("project_id", project.ID.String()),
		zap.Int("drafts", len(drafts)),
		zap.Int("created", created))
	return nil
}

// ProcessJob processes a job based on its type
func (d *GoalDecomposer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Respect NotBefore: ack and leave re-delivery to the delayed exchange
	if !job.ShouldProcess() {
		d.logger.Debug("job_not_ready",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore))
		if ackErr := msg.Ack(); ackErr != nil {
			d.logger.Error("job_ack_failed", zap.Error(ackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeGoalDecomposition:
		if err := d.ProcessDecompositionJob(ctx, job); err != nil {
			return d.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeCalibrationRefresh:
		if d.calibrator == nil {
			if nackErr := msg.Nack(false); nackErr != nil {
				d.logger.Error("job_nack_failed", zap.Error(nackErr))
			}
			return fmt.Errorf("no calibrator configured")
		}
		if err := d.calibrator.Refresh(ctx); err != nil {
			// Calibration refreshes are cheap to redo, do not requeue
			if nackErr := msg.Nack(false); nackErr != nil {
				d.logger.Error("job_nack_failed", zap.Error(nackErr))
			}
			return fmt.Errorf("calibration refresh failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack calibration job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			d.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles decomposition failures with retry logic tuned to
// the provider's error classes.
func (d *GoalDecomposer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	// Quota and rate limit errors re-enqueue with a NotBefore delay instead
	// of hammering the provider via immediate requeue
	if coach.IsQuotaError(err) || coach.IsRateLimitError(err) {
		retryDelay := coach.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		if job.CanRetry() && d.jobQueue != nil {
			delayedJob := &queue.Job{
				ID:         job.ID,
				Type:       job.Type,
				ProjectID:  job.ProjectID,
				NotBefore:  &notBefore,
				NotAfter:   job.NotAfter,
				Metadata:   job.Metadata,
				CreatedAt:  job.CreatedAt,
				RetryCount: job.RetryCount + 1,
				MaxRetries: job.MaxRetries,
			}

			if ackErr := msg.Ack(); ackErr != nil {
				d.logger.Error("job_ack_failed", zap.Error(ackErr))
			}

			if enqueueErr := d.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				d.logger.Error("job_reenqueue_failed",
					zap.String("job_id", job.ID.String()),
					zap.Error(enqueueErr))
				return fmt.Errorf("provider throttled, failed to re-enqueue: %w", enqueueErr)
			}

			d.logger.Warn("job_delayed",
				zap.String("job_id", job.ID.String()),
				zap.Time("not_before", notBefore),
				zap.Duration("delay", retryDelay),
				zap.Error(err))
			return nil
		}

		// No retries left, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("provider throttled (max retries): %w", err)
	}

	if job.CanRetry() {
		job.IncrementRetry()
		d.logger.Warn("job_retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err))
		if nackErr := msg.Nack(true); nackErr != nil {
			d.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	d.logger.Error("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.Int("retries", job.MaxRetries),
		zap.Error(err))
	if nackErr := msg.Nack(false); nackErr != nil {
		d.logger.Error("job_nack_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// Run consumes jobs until the context is cancelled
func (d *GoalDecomposer) Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	msgs, errs, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case consumeErr, ok := <-errs:
			if ok && consumeErr != nil {
				return fmt.Errorf("consumer error: %w", consumeErr)
			}
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if err := d.ProcessJob(ctx, msg); err != nil {
				d.logger.Error("job_processing_failed",
					zap.String("job_id", msg.Job.ID.String()),
					zap.String("job_type", string(msg.Job.Type)),
					zap.Error(err))
			}
		}
	}
}
