package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calbright/flowday/internal/models"
)

// CalibrationRepository stores dated calibration profile snapshots. Profiles
// are always recomputable from feedback; snapshots exist so the worker can
// keep a history of how the estimate drifted over time.
type CalibrationRepository struct {
	db *DB
}

// NewCalibrationRepository creates a new calibration repository
func NewCalibrationRepository(db *DB) *CalibrationRepository {
	return &CalibrationRepository{db: db}
}

// SaveSnapshot upserts the profile snapshot for a date
func (r *CalibrationRepository) SaveSnapshot(ctx context.Context, date time.Time, profile *models.CalibrationProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration profile: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calibration_snapshots (snapshot_date, profile, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (snapshot_date) DO UPDATE SET
			profile = EXCLUDED.profile,
			created_at = EXCLUDED.created_at
	`, date, profileJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save calibration snapshot: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent snapshot, or nil if none exists
func (r *CalibrationRepository) GetLatest(ctx context.Context) (*models.CalibrationProfile, error) {
	var profileJSON []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT profile FROM calibration_snapshots
		ORDER BY snapshot_date DESC
		LIMIT 1
	`).Scan(&profileJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calibration snapshot: %w", err)
	}

	profile := &models.CalibrationProfile{}
	if err := json.Unmarshal(profileJSON, profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calibration profile: %w", err)
	}

	return profile, nil
}
