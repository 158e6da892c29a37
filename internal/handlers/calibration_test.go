package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calbright/flowday/internal/models"
	"github.com/calbright/flowday/internal/queue"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func newCalibrationRouter(feedbackRepo *mockFeedbackRepo, planRepo *mockPlanRepo, calibrationRepo *mockCalibrationRepo, jobQueue queue.JobQueue) *mux.Router {
	handler := NewCalibrationHandler(feedbackRepo, planRepo, calibrationRepo, jobQueue, zap.NewNop())
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/calibration").Subrouter())
	return router
}

func feedbackEntry(rating models.DifficultyRating, difficulty int) models.FeedbackEntry {
	return models.FeedbackEntry{
		ID:             uuid.New(),
		TaskID:         uuid.New(),
		Rating:         &rating,
		TaskDifficulty: difficulty,
		CreatedAt:      time.Now(),
	}
}

func TestGetProfile_NeutralWithoutHistory(t *testing.T) {
	t.Parallel()

	calibrationRepo := &mockCalibrationRepo{}
	router := newCalibrationRouter(&mockFeedbackRepo{}, newMockPlanRepo(), calibrationRepo, &mockJobQueue{})

	req := httptest.NewRequest(http.MethodGet, "/calibration", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec.Body)
	data := envelope["data"].(map[string]any)
	if got := data["skill_level"].(float64); got != 5.0 {
		t.Errorf("expected neutral skill 5.0, got %v", got)
	}
	if got := data["confidence"].(float64); got != 0.0 {
		t.Errorf("expected zero confidence, got %v", got)
	}
	if calibrationRepo.snapshots != 1 {
		t.Errorf("expected 1 snapshot, got %d", calibrationRepo.snapshots)
	}
}

func TestGetProfile_UsesFeedbackHistory(t *testing.T) {
	t.Parallel()

	feedbackRepo := &mockFeedbackRepo{entries: []models.FeedbackEntry{
		feedbackEntry(models.RatingJustRight, 6),
		feedbackEntry(models.RatingJustRight, 6),
		feedbackEntry(models.RatingJustRight, 6),
		feedbackEntry(models.RatingTooEasy, 3),
	}}
	router := newCalibrationRouter(feedbackRepo, newMockPlanRepo(), &mockCalibrationRepo{}, &mockJobQueue{})

	req := httptest.NewRequest(http.MethodGet, "/calibration", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	envelope := decodeEnvelope(t, rec.Body)
	data := envelope["data"].(map[string]any)
	if got := data["skill_level"].(float64); got != 6.0 {
		t.Errorf("expected skill 6.0 from just_right median, got %v", got)
	}
	if got := data["data_points"].(float64); got != 4 {
		t.Errorf("expected 4 data points, got %v", got)
	}
}

func TestGetProfile_FeedbackLoadError(t *testing.T) {
	t.Parallel()

	feedbackRepo := &mockFeedbackRepo{listErr: errors.New("db down")}
	router := newCalibrationRouter(feedbackRepo, newMockPlanRepo(), &mockCalibrationRepo{}, &mockJobQueue{})

	req := httptest.NewRequest(http.MethodGet, "/calibration", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRefreshProfile_EnqueuesJob(t *testing.T) {
	t.Parallel()

	jobQueue := &mockJobQueue{}
	router := newCalibrationRouter(&mockFeedbackRepo{}, newMockPlanRepo(), &mockCalibrationRepo{}, jobQueue)

	req := httptest.NewRequest(http.MethodPost, "/calibration/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if len(jobQueue.jobs) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(jobQueue.jobs))
	}
	if jobQueue.jobs[0].Type != queue.JobTypeCalibrationRefresh {
		t.Errorf("expected calibration_refresh job, got %s", jobQueue.jobs[0].Type)
	}
}

func TestRefreshProfile_EnqueueFailure(t *testing.T) {
	t.Parallel()

	jobQueue := &mockJobQueue{enqueueErr: errors.New("broker unavailable")}
	router := newCalibrationRouter(&mockFeedbackRepo{}, newMockPlanRepo(), &mockCalibrationRepo{}, jobQueue)

	req := httptest.NewRequest(http.MethodPost, "/calibration/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
