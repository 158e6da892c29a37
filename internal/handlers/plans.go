package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/models"
	"github.com/calbright/flowday/internal/planner"
	"github.com/calbright/flowday/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// DateLayout is the wire format for plan dates
	DateLayout = "2006-01-02"

	// DefaultRecentPlans bounds GET /plans when no limit is given
	DefaultRecentPlans = 14
	// MaxRecentPlans is the hard cap for GET /plans
	MaxRecentPlans = 90
)

// PlanDefaults are the fallback planning parameters used when the database
// holds no planner settings row and the request leaves a field empty.
type PlanDefaults struct {
	DayStart     string  // HH:MM
	Hours        float64 // working hours per day
	BreakMinutes int
}

// PlanHandler handles daily plan generation, retrieval and review
type PlanHandler struct {
	taskRepo        database.TaskRepositoryInterface
	planRepo        database.DailyPlanRepositoryInterface
	feedbackRepo    database.FeedbackRepositoryInterface
	calibrationRepo database.CalibrationRepositoryInterface
	settingsRepo    *database.PlannerSettingsRepository
	defaults        PlanDefaults
	logger          *zap.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(
	taskRepo database.TaskRepositoryInterface,
	planRepo database.DailyPlanRepositoryInterface,
	feedbackRepo database.FeedbackRepositoryInterface,
	calibrationRepo database.CalibrationRepositoryInterface,
	settingsRepo *database.PlannerSettingsRepository,
	defaults PlanDefaults,
	logger *zap.Logger,
) *PlanHandler {
	return &PlanHandler{
		taskRepo:        taskRepo,
		planRepo:        planRepo,
		feedbackRepo:    feedbackRepo,
		calibrationRepo: calibrationRepo,
		settingsRepo:    settingsRepo,
		defaults:        defaults,
		logger:          logger,
	}
}

// RegisterRoutes registers plan routes on the given router.
// The router should already have the /plans prefix.
func (h *PlanHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPlans).Methods("GET")
	r.HandleFunc("/generate", h.GeneratePlan).Methods("POST")
	r.HandleFunc("/{date}", h.GetPlan).Methods("GET")
	r.HandleFunc("/{date}/review", h.ReviewPlan).Methods("POST")
}

// GeneratePlanRequest carries the optional overrides for one planning run.
// Every omitted field falls back to the stored planner settings, then to the
// server defaults.
type GeneratePlanRequest struct {
	Date               string   `json:"date,omitempty"`       // YYYY-MM-DD, default today
	StartTime          string   `json:"start_time,omitempty"` // HH:MM
	Hours              *float64 `json:"hours,omitempty" validate:"omitempty,gt=0,lte=24"`
	BlockMode          string   `json:"block_mode,omitempty" validate:"omitempty,oneof=auto 60 90 120 custom"`
	CustomBlockMinutes *int     `json:"custom_block_minutes,omitempty" validate:"omitempty,gte=15,lte=240"`
	BreakMinutes       *int     `json:"break_minutes,omitempty" validate:"omitempty,gte=0,lte=60"`
}

// ReviewPlanRequest records the end-of-day review
type ReviewPlanRequest struct {
	EnergyRating *int `json:"energy_rating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// GeneratePlanResponse bundles the saved plan with the calibration profile
// that shaped it, so clients can render both without a second round trip.
type GeneratePlanResponse struct {
	Plan        *models.DailyPlan          `json:"plan"`
	Calibration *models.CalibrationProfile `json:"calibration"`
}

// GeneratePlan builds the schedule for a date and persists it, replacing any
// existing plan for that date
func (h *PlanHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}
		if err := validation.Validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	planDate := time.Now().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse(DateLayout, req.Date)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid date, expected YYYY-MM-DD")
			return
		}
		planDate = parsed
	}

	settings := h.loadSettings(r)

	startTime := settings.DayStart
	if req.StartTime != "" {
		startTime = req.StartTime
	}
	hours := settings.DefaultHours
	if req.Hours != nil {
		hours = *req.Hours
	}
	blockMode := string(settings.BlockMode)
	if req.BlockMode != "" {
		blockMode = req.BlockMode
	}
	customMinutes := settings.CustomBlockMinutes
	if req.CustomBlockMinutes != nil {
		customMinutes = *req.CustomBlockMinutes
	}
	breakMinutes := settings.BreakDurationMinutes
	if req.BreakMinutes != nil {
		breakMinutes = *req.BreakMinutes
	}

	profile := h.computeProfile(r)

	tasks, err := h.taskRepo.ListSchedulable(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	blockMinutes := planner.ResolveBlockDuration(blockMode, customMinutes, profile, tasks)

	blocks, err := planner.GenerateDailySchedule(tasks, planner.ScheduleConfig{
		StartTime:            startTime,
		HoursRequested:       hours,
		BlockDurationMinutes: blockMinutes,
		BreakDurationMinutes: breakMinutes,
		Calibration:          profile,
	})
	if err != nil {
		if errors.Is(err, planner.ErrInvalidConfiguration) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid planning parameters: "+err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to generate schedule")
		return
	}

	plan := &models.DailyPlan{
		ID:                   uuid.New(),
		Date:                 planDate,
		StartTime:            startTime,
		HoursRequested:       &hours,
		BlockDurationMinutes: blockMinutes,
		BreakDurationMinutes: breakMinutes,
		Blocks:               blocks,
	}

	if err := h.planRepo.UpsertForDate(r.Context(), plan); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save plan")
		return
	}

	if ids := scheduledTaskIDs(blocks); len(ids) > 0 {
		if err := h.taskRepo.MarkScheduled(r.Context(), ids); err != nil {
			h.logger.Warn("mark_scheduled_failed",
				zap.String("plan_date", planDate.Format(DateLayout)),
				zap.Error(err))
		}
	}

	h.logger.Info("plan_generated",
		zap.String("plan_date", planDate.Format(DateLayout)),
		zap.Int("blocks", len(blocks)),
		zap.Int("block_minutes", blockMinutes),
		zap.Float64("skill_level", profile.SkillLevel))

	respondJSON(w, http.StatusCreated, GeneratePlanResponse{Plan: plan, Calibration: profile})
}

// ListPlans lists recent plans, newest first
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit := DefaultRecentPlans
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, MaxRecentPlans)
		}
	}

	plans, err := h.planRepo.ListRecent(r.Context(), limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve plans")
		return
	}

	respondJSON(w, http.StatusOK, plans)
}

// GetPlan retrieves the plan for a date
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parseDateVar(w, r)
	if !ok {
		return
	}

	plan, err := h.planRepo.GetByDate(r.Context(), date)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No plan exists for this date")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// ReviewPlan records the end-of-day review for a date's plan
func (h *PlanHandler) ReviewPlan(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parseDateVar(w, r)
	if !ok {
		return
	}

	var req ReviewPlanRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}
		if err := validation.Validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	if err := h.planRepo.MarkReviewed(r.Context(), date, req.EnergyRating); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No plan exists for this date")
		return
	}

	plan, err := h.planRepo.GetByDate(r.Context(), date)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve plan")
		return
	}

	h.logger.Info("plan_reviewed",
		zap.String("plan_date", date.Format(DateLayout)),
		zap.Bool("has_energy_rating", req.EnergyRating != nil))

	respondJSON(w, http.StatusOK, plan)
}

// loadSettings returns the stored planner settings, falling back to server
// defaults when no row exists or the query fails
func (h *PlanHandler) loadSettings(r *http.Request) *models.PlannerSettings {
	if h.settingsRepo != nil {
		if settings, err := h.settingsRepo.Get(r.Context()); err == nil && settings != nil {
			return settings
		}
	}
	return &models.PlannerSettings{
		DayStart:             h.defaults.DayStart,
		DefaultHours:         h.defaults.Hours,
		BlockMode:            models.BlockModeAuto,
		BreakDurationMinutes: h.defaults.BreakMinutes,
	}
}

// computeProfile recomputes the calibration profile from recent history and
// opportunistically refreshes the stored snapshot. Calibration inputs are
// best-effort: a failed read degrades to the neutral profile rather than
// failing the planning request.
func (h *PlanHandler) computeProfile(r *http.Request) *models.CalibrationProfile {
	feedback, err := h.feedbackRepo.ListRecent(r.Context(), planner.FeedbackWindowSize)
	if err != nil {
		h.logger.Warn("calibration_feedback_load_failed", zap.Error(err))
	}
	summaries, err := h.planRepo.ListRecent(r.Context(), planner.PlanWindowSize)
	if err != nil {
		h.logger.Warn("calibration_plans_load_failed", zap.Error(err))
	}

	profile := planner.ComputeCalibrationProfile(feedback, summaries)

	if h.calibrationRepo != nil {
		if err := h.calibrationRepo.SaveSnapshot(r.Context(), time.Now(), &profile); err != nil {
			h.logger.Warn("calibration_snapshot_failed", zap.Error(err))
		}
	}

	return &profile
}

func (h *PlanHandler) parseDateVar(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := time.Parse(DateLayout, mux.Vars(r)["date"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func scheduledTaskIDs(blocks []models.ScheduledBlock) []uuid.UUID {
	var ids []uuid.UUID
	for _, block := range blocks {
		for _, st := range block.Tasks {
			ids = append(ids, st.Task.ID)
		}
	}
	return ids
}
