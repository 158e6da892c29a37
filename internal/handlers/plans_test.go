package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calbright/flowday/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func testPlanDefaults() PlanDefaults {
	return PlanDefaults{DayStart: "09:00", Hours: 6, BreakMinutes: 15}
}

func newPlanRouter(taskRepo *mockTaskRepo, planRepo *mockPlanRepo, feedbackRepo *mockFeedbackRepo, calibrationRepo *mockCalibrationRepo) *mux.Router {
	handler := NewPlanHandler(taskRepo, planRepo, feedbackRepo, calibrationRepo, nil, testPlanDefaults(), zap.NewNop())
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/plans").Subrouter())
	return router
}

func schedulableTask(title string, minutes, difficulty, priority int) models.Task {
	return models.Task{
		ID:               uuid.New(),
		Title:            title,
		EstimatedMinutes: minutes,
		Difficulty:       difficulty,
		Priority:         priority,
		Status:           models.TaskStatusPending,
	}
}

func TestGeneratePlan(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	taskRepo.schedulable = []models.Task{
		schedulableTask("Write spec", 60, 5, 4),
		schedulableTask("Review code", 30, 4, 3),
		schedulableTask("Answer mail", 15, 2, 2),
	}
	planRepo := newMockPlanRepo()
	calibrationRepo := &mockCalibrationRepo{}

	router := newPlanRouter(taskRepo, planRepo, &mockFeedbackRepo{}, calibrationRepo)

	body := `{"date":"2026-09-01","hours":4}`
	req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	plan, ok := planRepo.plans["2026-09-01"]
	if !ok {
		t.Fatal("expected plan to be persisted for 2026-09-01")
	}
	if plan.StartTime != "09:00" {
		t.Errorf("expected default start time 09:00, got %s", plan.StartTime)
	}
	if len(plan.Blocks) == 0 {
		t.Fatal("expected at least one block")
	}
	if len(taskRepo.scheduled) == 0 {
		t.Error("expected scheduled tasks to be marked")
	}
	if calibrationRepo.snapshots == 0 {
		t.Error("expected a calibration snapshot to be saved")
	}
}

func TestGeneratePlan_EmptyBodyUsesDefaults(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	taskRepo.schedulable = []models.Task{schedulableTask("Solo task", 30, 5, 3)}
	planRepo := newMockPlanRepo()

	router := newPlanRouter(taskRepo, planRepo, &mockFeedbackRepo{}, &mockCalibrationRepo{})

	req := httptest.NewRequest(http.MethodPost, "/plans/generate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	today := time.Now().Truncate(24 * time.Hour).Format(DateLayout)
	plan, ok := planRepo.plans[today]
	if !ok {
		t.Fatalf("expected plan persisted for today (%s)", today)
	}
	if plan.HoursRequested == nil || *plan.HoursRequested != 6 {
		t.Errorf("expected default 6 hours, got %v", plan.HoursRequested)
	}
	if plan.BreakDurationMinutes != 15 {
		t.Errorf("expected default 15 minute breaks, got %d", plan.BreakDurationMinutes)
	}
}

func TestGeneratePlan_NoTasks(t *testing.T) {
	t.Parallel()

	planRepo := newMockPlanRepo()
	router := newPlanRouter(newMockTaskRepo(), planRepo, &mockFeedbackRepo{}, &mockCalibrationRepo{})

	req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(`{"date":"2026-09-02"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	plan := planRepo.plans["2026-09-02"]
	if plan == nil {
		t.Fatal("expected empty plan to be persisted")
	}
	if len(plan.Blocks) != 0 {
		t.Errorf("expected no blocks without tasks, got %d", len(plan.Blocks))
	}
}

func TestGeneratePlan_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid date", `{"date":"September 1st"}`},
		{"invalid start time", `{"start_time":"25:99"}`},
		{"negative hours", `{"hours":-2}`},
		{"invalid block mode", `{"block_mode":"45"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			taskRepo := newMockTaskRepo()
			taskRepo.schedulable = []models.Task{schedulableTask("Any", 30, 5, 3)}
			router := newPlanRouter(taskRepo, newMockPlanRepo(), &mockFeedbackRepo{}, &mockCalibrationRepo{})

			req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGeneratePlan_ReplacesExistingPlan(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	taskRepo.schedulable = []models.Task{schedulableTask("Rework", 45, 5, 3)}
	planRepo := newMockPlanRepo()
	router := newPlanRouter(taskRepo, planRepo, &mockFeedbackRepo{}, &mockCalibrationRepo{})

	for _, body := range []string{
		`{"date":"2026-09-03","start_time":"08:00"}`,
		`{"date":"2026-09-03","start_time":"10:30"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
		}
	}

	plan := planRepo.plans["2026-09-03"]
	if plan == nil {
		t.Fatal("expected plan for 2026-09-03")
	}
	if plan.StartTime != "10:30" {
		t.Errorf("expected second run to replace the plan, start time is %s", plan.StartTime)
	}
}

func TestGetPlan(t *testing.T) {
	t.Parallel()

	planRepo := newMockPlanRepo()
	date, _ := time.Parse(DateLayout, "2026-09-04")
	planRepo.plans["2026-09-04"] = &models.DailyPlan{ID: uuid.New(), Date: date, StartTime: "09:00"}

	router := newPlanRouter(newMockTaskRepo(), planRepo, &mockFeedbackRepo{}, &mockCalibrationRepo{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing plan", "/plans/2026-09-04", http.StatusOK},
		{"missing plan", "/plans/2026-09-05", http.StatusNotFound},
		{"invalid date", "/plans/yesterday", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestReviewPlan(t *testing.T) {
	t.Parallel()

	planRepo := newMockPlanRepo()
	date, _ := time.Parse(DateLayout, "2026-09-06")
	planRepo.plans["2026-09-06"] = &models.DailyPlan{ID: uuid.New(), Date: date, StartTime: "09:00"}

	router := newPlanRouter(newMockTaskRepo(), planRepo, &mockFeedbackRepo{}, &mockCalibrationRepo{})

	req := httptest.NewRequest(http.MethodPost, "/plans/2026-09-06/review", bytes.NewBufferString(`{"energy_rating":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	plan := planRepo.plans["2026-09-06"]
	if !plan.EODReviewCompleted {
		t.Error("expected review flag to be set")
	}
	if plan.EnergyRating == nil || *plan.EnergyRating != 4 {
		t.Errorf("expected energy rating 4, got %v", plan.EnergyRating)
	}
}

func TestReviewPlan_Validation(t *testing.T) {
	t.Parallel()

	planRepo := newMockPlanRepo()
	date, _ := time.Parse(DateLayout, "2026-09-07")
	planRepo.plans["2026-09-07"] = &models.DailyPlan{ID: uuid.New(), Date: date}

	router := newPlanRouter(newMockTaskRepo(), planRepo, &mockFeedbackRepo{}, &mockCalibrationRepo{})

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"rating out of range", "/plans/2026-09-07/review", `{"energy_rating":6}`, http.StatusBadRequest},
		{"rating zero", "/plans/2026-09-07/review", `{"energy_rating":0}`, http.StatusBadRequest},
		{"no plan for date", "/plans/2026-09-08/review", `{"energy_rating":3}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d (body: %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestReviewPlan_NoBody(t *testing.T) {
	t.Parallel()

	planRepo := newMockPlanRepo()
	date, _ := time.Parse(DateLayout, "2026-09-09")
	planRepo.plans["2026-09-09"] = &models.DailyPlan{ID: uuid.New(), Date: date}

	router := newPlanRouter(newMockTaskRepo(), planRepo, &mockFeedbackRepo{}, &mockCalibrationRepo{})

	req := httptest.NewRequest(http.MethodPost, "/plans/2026-09-09/review", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	plan := planRepo.plans["2026-09-09"]
	if !plan.EODReviewCompleted {
		t.Error("expected review flag to be set")
	}
	if plan.EnergyRating != nil {
		t.Errorf("expected no energy rating, got %v", plan.EnergyRating)
	}
}
