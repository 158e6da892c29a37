package models

import "time"

// BlockMode selects how the planner chooses block length
type BlockMode string

const (
	BlockModeAuto   BlockMode = "auto"
	BlockMode60     BlockMode = "60"
	BlockMode90     BlockMode = "90"
	BlockMode120    BlockMode = "120"
	BlockModeCustom BlockMode = "custom"
)

// PlannerSettings are the operator-tunable planning defaults
type PlannerSettings struct {
	ConfigKey            string    `json:"config_key"`
	DayStart             string    `json:"day_start"` // HH:MM
	DefaultHours         float64   `json:"default_hours"`
	BlockMode            BlockMode `json:"block_mode"`
	CustomBlockMinutes   int       `json:"custom_block_minutes"`
	BreakDurationMinutes int       `json:"break_duration_minutes"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CorsConfig holds the allowed-origin policy served to the CORS middleware
type CorsConfig struct {
	ConfigKey        string    `json:"config_key"`
	AllowedOrigins   string    `json:"allowed_origins"` // comma-separated
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RatelimitConfig holds the request rate in ulule/limiter notation ("5-S", "100-M")
type RatelimitConfig struct {
	ConfigKey string    `json:"config_key"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
