package handlers

import (
	"net/http"
	"time"

	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/planner"
	"github.com/calbright/flowday/internal/queue"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CalibrationHandler exposes the calibration profile and on-demand refresh
type CalibrationHandler struct {
	feedbackRepo    database.FeedbackRepositoryInterface
	planRepo        database.DailyPlanRepositoryInterface
	calibrationRepo database.CalibrationRepositoryInterface
	jobQueue        queue.JobQueue
	logger          *zap.Logger
}

// NewCalibrationHandler creates a new calibration handler
func NewCalibrationHandler(
	feedbackRepo database.FeedbackRepositoryInterface,
	planRepo database.DailyPlanRepositoryInterface,
	calibrationRepo database.CalibrationRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *CalibrationHandler {
	return &CalibrationHandler{
		feedbackRepo:    feedbackRepo,
		planRepo:        planRepo,
		calibrationRepo: calibrationRepo,
		jobQueue:        jobQueue,
		logger:          logger,
	}
}

// RegisterRoutes registers calibration routes on the given router.
// The router should already have the /calibration prefix.
func (h *CalibrationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProfile).Methods("GET")
	r.HandleFunc("/refresh", h.RefreshProfile).Methods("POST")
}

// GetProfile recomputes the calibration profile from recent history. The
// profile is derived, not stored state: reading it always reflects the
// latest feedback.
func (h *CalibrationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	feedback, err := h.feedbackRepo.ListRecent(r.Context(), planner.FeedbackWindowSize)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve feedback history")
		return
	}

	summaries, err := h.planRepo.ListRecent(r.Context(), planner.PlanWindowSize)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve plan history")
		return
	}

	profile := planner.ComputeCalibrationProfile(feedback, summaries)

	if h.calibrationRepo != nil {
		if err := h.calibrationRepo.SaveSnapshot(r.Context(), time.Now(), &profile); err != nil {
			h.logger.Warn("calibration_snapshot_failed", zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, profile)
}

// RefreshProfile enqueues a background calibration refresh and returns
// immediately
func (h *CalibrationHandler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background processing is not available")
		return
	}

	job := queue.NewJob(queue.JobTypeCalibrationRefresh, nil)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("calibration_refresh_enqueue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to schedule calibration refresh")
		return
	}

	h.logger.Info("calibration_refresh_enqueued", zap.String("job_id", job.ID.String()))

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID.String(),
		"status": "queued",
	})
}
