package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/planner"
	"go.uber.org/zap"
)

// Calibrator recomputes the calibration profile from recent feedback and
// plan history and persists the snapshot.
type Calibrator struct {
	feedbackRepo    database.FeedbackRepositoryInterface
	planRepo        database.DailyPlanRepositoryInterface
	calibrationRepo database.CalibrationRepositoryInterface
	logger          *zap.Logger
}

// NewCalibrator creates a new calibrator
func NewCalibrator(
	feedbackRepo database.FeedbackRepositoryInterface,
	planRepo database.DailyPlanRepositoryInterface,
	calibrationRepo database.CalibrationRepositoryInterface,
	logger *zap.Logger,
) *Calibrator {
	return &Calibrator{
		feedbackRepo:    feedbackRepo,
		planRepo:        planRepo,
		calibrationRepo: calibrationRepo,
		logger:          logger,
	}
}

// Refresh recomputes the calibration profile and saves a dated snapshot
func (c *Calibrator) Refresh(ctx context.Context) error {
	feedback, err := c.feedbackRepo.ListRecent(ctx, planner.FeedbackWindowSize)
	if err != nil {
		return fmt.Errorf("failed to load feedback: %w", err)
	}

	plans, err := c.planRepo.ListRecent(ctx, planner.PlanWindowSize)
	if err != nil {
		return fmt.Errorf("failed to load daily plans: %w", err)
	}

	profile := planner.ComputeCalibrationProfile(feedback, plans)

	if err := c.calibrationRepo.SaveSnapshot(ctx, time.Now(), &profile); err != nil {
		return fmt.Errorf("failed to save calibration snapshot: %w", err)
	}

	c.logger.Info("calibration_refreshed",
		zap.Float64("skill_level", profile.SkillLevel),
		zap.Float64("ideal_difficulty", profile.IdealDifficulty),
		zap.Float64("confidence", profile.Confidence),
		zap.Int("data_points", profile.DataPoints),
		zap.Int("streak", profile.CurrentStreak))
	return nil
}
