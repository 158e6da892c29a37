package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/calbright/flowday/internal/models"
)

const defaultConfigKey = "default"

// PlannerSettingsRepository stores the operator-tunable planning defaults
type PlannerSettingsRepository struct {
	db *DB
}

// NewPlannerSettingsRepository creates a new planner settings repository
func NewPlannerSettingsRepository(db *DB) *PlannerSettingsRepository {
	return &PlannerSettingsRepository{db: db}
}

// Get retrieves the planner settings, or nil if none are stored
func (r *PlannerSettingsRepository) Get(ctx context.Context) (*models.PlannerSettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT config_key, day_start, default_hours, block_mode, custom_block_minutes, break_duration_minutes, created_at, updated_at
		FROM planner_settings WHERE config_key = $1
	`, defaultConfigKey)

	s := &models.PlannerSettings{}
	err := row.Scan(
		&s.ConfigKey,
		&s.DayStart,
		&s.DefaultHours,
		&s.BlockMode,
		&s.CustomBlockMinutes,
		&s.BreakDurationMinutes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get planner settings: %w", err)
	}
	return s, nil
}

// Set upserts the planner settings
func (r *PlannerSettingsRepository) Set(ctx context.Context, s *models.PlannerSettings) error {
	if s.DayStart == "" {
		return fmt.Errorf("day_start cannot be empty")
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO planner_settings (config_key, day_start, default_hours, block_mode, custom_block_minutes, break_duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (config_key) DO UPDATE SET
			day_start = EXCLUDED.day_start,
			default_hours = EXCLUDED.default_hours,
			block_mode = EXCLUDED.block_mode,
			custom_block_minutes = EXCLUDED.custom_block_minutes,
			break_duration_minutes = EXCLUDED.break_duration_minutes,
			updated_at = EXCLUDED.updated_at
	`, defaultConfigKey, s.DayStart, s.DefaultHours, s.BlockMode, s.CustomBlockMinutes, s.BreakDurationMinutes, now, now)
	if err != nil {
		return fmt.Errorf("set planner settings: %w", err)
	}
	return nil
}

// CorsConfigRepository stores the CORS policy served to the middleware
type CorsConfigRepository struct {
	db *DB
}

// NewCorsConfigRepository creates a new CORS config repository
func NewCorsConfigRepository(db *DB) *CorsConfigRepository {
	return &CorsConfigRepository{db: db}
}

// Get retrieves the CORS config, or nil if none is stored
func (r *CorsConfigRepository) Get(ctx context.Context) (*models.CorsConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at
		FROM cors_config WHERE config_key = $1
	`, defaultConfigKey)

	c := &models.CorsConfig{}
	err := row.Scan(
		&c.ConfigKey,
		&c.AllowedOrigins,
		&c.AllowCredentials,
		&c.MaxAge,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cors config: %w", err)
	}
	return c, nil
}

// Set upserts the CORS config. AllowedOrigins is comma-separated.
func (r *CorsConfigRepository) Set(ctx context.Context, c *models.CorsConfig) error {
	if c.AllowedOrigins == "" {
		return fmt.Errorf("allowed_origins cannot be empty")
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cors_config (config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (config_key) DO UPDATE SET
			allowed_origins = EXCLUDED.allowed_origins,
			allow_credentials = EXCLUDED.allow_credentials,
			max_age = EXCLUDED.max_age,
			updated_at = EXCLUDED.updated_at
	`, defaultConfigKey, c.AllowedOrigins, c.AllowCredentials, c.MaxAge, now, now)
	if err != nil {
		return fmt.Errorf("set cors config: %w", err)
	}
	return nil
}

// AllowedOriginsSlice splits a comma-separated origins string, trimming
// whitespace and dropping empty entries.
func AllowedOriginsSlice(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// RatelimitConfigRepository stores the request rate in ulule/limiter notation
type RatelimitConfigRepository struct {
	db *DB
}

// NewRatelimitConfigRepository creates a new rate limit config repository
func NewRatelimitConfigRepository(db *DB) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{db: db}
}

// Get retrieves the rate limit config, or nil if none is stored
func (r *RatelimitConfigRepository) Get(ctx context.Context) (*models.RatelimitConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT config_key, rate, created_at, updated_at
		FROM ratelimit_config WHERE config_key = $1
	`, defaultConfigKey)

	c := &models.RatelimitConfig{}
	err := row.Scan(&c.ConfigKey, &c.Rate, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ratelimit config: %w", err)
	}
	return c, nil
}

// Set upserts the rate limit config
func (r *RatelimitConfigRepository) Set(ctx context.Context, c *models.RatelimitConfig) error {
	if c.Rate == "" {
		return fmt.Errorf("rate cannot be empty")
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (config_key) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at
	`, defaultConfigKey, c.Rate, now, now)
	if err != nil {
		return fmt.Errorf("set ratelimit config: %w", err)
	}
	return nil
}
