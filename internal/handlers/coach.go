package handlers

import (
	"net/http"
	"time"

	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/planner"
	"github.com/calbright/flowday/internal/queue"
	"github.com/calbright/flowday/internal/services/coach"
	"github.com/calbright/flowday/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxGoalLength bounds the free-text goal accepted for decomposition
const MaxGoalLength = 2000

// CoachHandler handles AI coaching requests: goal decomposition and
// plan summaries
type CoachHandler struct {
	provider     coach.Provider
	projectRepo  database.ProjectRepositoryInterface
	planRepo     database.DailyPlanRepositoryInterface
	feedbackRepo database.FeedbackRepositoryInterface
	jobQueue     queue.JobQueue
	logger       *zap.Logger
}

// NewCoachHandler creates a new coach handler
func NewCoachHandler(
	provider coach.Provider,
	projectRepo database.ProjectRepositoryInterface,
	planRepo database.DailyPlanRepositoryInterface,
	feedbackRepo database.FeedbackRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *CoachHandler {
	return &CoachHandler{
		provider:     provider,
		projectRepo:  projectRepo,
		planRepo:     planRepo,
		feedbackRepo: feedbackRepo,
		jobQueue:     jobQueue,
		logger:       logger,
	}
}

// RegisterRoutes registers coach routes on the given router.
// The router should already have the /coach prefix.
func (h *CoachHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/goals", h.DecomposeGoal).Methods("POST")
	r.HandleFunc("/summary", h.SummarizePlan).Methods("POST")
}

// DecomposeGoalRequest asks for a project goal to be broken into tasks
type DecomposeGoalRequest struct {
	ProjectID uuid.UUID `json:"project_id" validate:"required"`
	Goal      string    `json:"goal,omitempty" validate:"max=2000"`
}

// SummarizePlanRequest asks for a narrative summary of a day's plan
type SummarizePlanRequest struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD, default today
}

// DecomposeGoal enqueues a background decomposition job for a project. The
// work runs asynchronously because LLM calls are slow and rate-limited.
func (h *CoachHandler) DecomposeGoal(w http.ResponseWriter, r *http.Request) {
	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background processing is not available")
		return
	}

	var req DecomposeGoalRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	// The project must exist before a job for it is queued
	if _, err := h.projectRepo.GetByID(r.Context(), req.ProjectID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}

	job := queue.NewJob(queue.JobTypeGoalDecomposition, &req.ProjectID)
	if goal := validation.SanitizeText(req.Goal); goal != "" {
		job.Metadata["goal"] = goal
	}

	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("decomposition_enqueue_failed",
			zap.String("project_id", req.ProjectID.String()),
			zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to schedule goal decomposition")
		return
	}

	h.logger.Info("decomposition_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("project_id", req.ProjectID.String()))

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.ID.String(),
		"project_id": req.ProjectID.String(),
		"status":     "queued",
	})
}

// SummarizePlan generates a short coaching summary of a day's plan. This
// call is synchronous: summaries are cheap single-shot completions.
func (h *CoachHandler) SummarizePlan(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI coaching is not configured")
		return
	}

	var req SummarizePlanRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}
	}

	date := time.Now().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse(DateLayout, req.Date)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	plan, err := h.planRepo.GetByDate(r.Context(), date)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No plan exists for this date")
		return
	}

	feedback, err := h.feedbackRepo.ListRecent(r.Context(), planner.FeedbackWindowSize)
	if err != nil {
		h.logger.Warn("summary_feedback_load_failed", zap.Error(err))
	}
	summaries, err := h.planRepo.ListRecent(r.Context(), planner.PlanWindowSize)
	if err != nil {
		h.logger.Warn("summary_plans_load_failed", zap.Error(err))
	}
	profile := planner.ComputeCalibrationProfile(feedback, summaries)

	summary, err := h.provider.SummarizePlan(r.Context(), plan, &profile)
	if err != nil {
		h.logger.Error("summary_failed",
			zap.String("plan_date", date.Format(DateLayout)),
			zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to generate plan summary")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"date":    date.Format(DateLayout),
		"summary": summary,
	})
}
