package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calbright/flowday/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func newTaskRouter(taskRepo *mockTaskRepo, feedbackRepo *mockFeedbackRepo) *mux.Router {
	handler := NewTaskHandler(taskRepo, feedbackRepo)
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/tasks").Subrouter())
	return router
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return envelope
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid task",
			body:       `{"title":"Write report","estimated_minutes":60,"difficulty":5,"priority":3}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing title",
			body:       `{"estimated_minutes":60,"difficulty":5,"priority":3}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "difficulty out of range",
			body:       `{"title":"X","estimated_minutes":60,"difficulty":11,"priority":3}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "priority out of range",
			body:       `{"title":"X","estimated_minutes":60,"difficulty":5,"priority":6}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "estimate too large",
			body:       `{"title":"X","estimated_minutes":481,"difficulty":5,"priority":3}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			taskRepo := newMockTaskRepo()
			router := newTaskRouter(taskRepo, &mockFeedbackRepo{})

			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				if len(taskRepo.tasks) != 1 {
					t.Fatalf("expected 1 task created, got %d", len(taskRepo.tasks))
				}
				for _, task := range taskRepo.tasks {
					if task.Status != models.TaskStatusPending {
						t.Errorf("expected new task to be pending, got %s", task.Status)
					}
				}
			}
		})
	}
}

func TestCreateTask_StripsControlCharacters(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	router := newTaskRouter(taskRepo, &mockFeedbackRepo{})

	body := `{"title":"Write\u0000 report","estimated_minutes":30,"difficulty":4,"priority":2}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	for _, task := range taskRepo.tasks {
		if task.Title != "Write report" {
			t.Errorf("expected control characters stripped, got %q", task.Title)
		}
	}
}

func TestGetTask_NotFound(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskRepo(), &mockFeedbackRepo{})

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	envelope := decodeEnvelope(t, rec.Body)
	if envelope["success"] != false {
		t.Error("expected success=false in error envelope")
	}
}

func TestGetTask_InvalidID(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskRepo(), &mockFeedbackRepo{})

	req := httptest.NewRequest(http.MethodGet, "/tasks/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateTask_FieldValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid partial update", `{"priority":5}`, http.StatusOK},
		{"status transition", `{"status":"in_progress"}`, http.StatusOK},
		{"invalid status", `{"status":"done"}`, http.StatusBadRequest},
		{"empty title", `{"title":"   "}`, http.StatusBadRequest},
		{"negative sort order", `{"sort_order":-1}`, http.StatusBadRequest},
		{"zero estimate", `{"estimated_minutes":0}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			taskRepo := newMockTaskRepo()
			task := &models.Task{
				ID:               uuid.New(),
				Title:            "Original",
				EstimatedMinutes: 30,
				Difficulty:       5,
				Priority:         3,
				Status:           models.TaskStatusPending,
			}
			taskRepo.tasks[task.ID] = task

			router := newTaskRouter(taskRepo, &mockFeedbackRepo{})

			req := httptest.NewRequest(http.MethodPatch, "/tasks/"+task.ID.String(), bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	task := &models.Task{ID: uuid.New(), Title: "Remove me", Status: models.TaskStatusPending}
	taskRepo.tasks[task.ID] = task

	router := newTaskRouter(taskRepo, &mockFeedbackRepo{})

	req := httptest.NewRequest(http.MethodDelete, "/tasks/"+task.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(taskRepo.tasks) != 0 {
		t.Error("expected task to be deleted")
	}
}

func TestCompleteTask_RecordsFeedback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantRating *models.DifficultyRating
	}{
		{"with rating", `{"difficulty_rating":"just_right"}`, ratingPtr(models.RatingJustRight)},
		{"without body", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			taskRepo := newMockTaskRepo()
			feedbackRepo := &mockFeedbackRepo{}
			task := &models.Task{
				ID:         uuid.New(),
				Title:      "Finish draft",
				Difficulty: 7,
				Status:     models.TaskStatusScheduled,
			}
			taskRepo.tasks[task.ID] = task

			router := newTaskRouter(taskRepo, feedbackRepo)

			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(http.MethodPost, "/tasks/"+task.ID.String()+"/complete", bytes.NewBufferString(tt.body))
			} else {
				req = httptest.NewRequest(http.MethodPost, "/tasks/"+task.ID.String()+"/complete", nil)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
			}
			if task.Status != models.TaskStatusCompleted {
				t.Errorf("expected completed status, got %s", task.Status)
			}
			if task.CompletedAt == nil {
				t.Error("expected CompletedAt to be set")
			}
			if len(feedbackRepo.entries) != 1 {
				t.Fatalf("expected 1 feedback entry, got %d", len(feedbackRepo.entries))
			}

			entry := feedbackRepo.entries[0]
			if entry.TaskDifficulty != 7 {
				t.Errorf("expected difficulty snapshot 7, got %d", entry.TaskDifficulty)
			}
			if tt.wantRating == nil && entry.Rating != nil {
				t.Errorf("expected no rating, got %v", *entry.Rating)
			}
			if tt.wantRating != nil && (entry.Rating == nil || *entry.Rating != *tt.wantRating) {
				t.Errorf("expected rating %v, got %v", *tt.wantRating, entry.Rating)
			}
		})
	}
}

func TestCompleteTask_AlreadyCompleted(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	task := &models.Task{ID: uuid.New(), Title: "Done already", Status: models.TaskStatusCompleted}
	taskRepo.tasks[task.ID] = task

	router := newTaskRouter(taskRepo, &mockFeedbackRepo{})

	req := httptest.NewRequest(http.MethodPost, "/tasks/"+task.ID.String()+"/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestCompleteTask_InvalidRating(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	task := &models.Task{ID: uuid.New(), Title: "Rate me", Status: models.TaskStatusPending}
	taskRepo.tasks[task.ID] = task

	router := newTaskRouter(taskRepo, &mockFeedbackRepo{})

	req := httptest.NewRequest(http.MethodPost, "/tasks/"+task.ID.String()+"/complete", bytes.NewBufferString(`{"difficulty_rating":"impossible"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListTasks_StatusFilter(t *testing.T) {
	t.Parallel()

	taskRepo := newMockTaskRepo()
	pending := &models.Task{ID: uuid.New(), Title: "Pending", Status: models.TaskStatusPending}
	completed := &models.Task{ID: uuid.New(), Title: "Completed", Status: models.TaskStatusCompleted}
	taskRepo.tasks[pending.ID] = pending
	taskRepo.tasks[completed.ID] = completed

	router := newTaskRouter(taskRepo, &mockFeedbackRepo{})

	req := httptest.NewRequest(http.MethodGet, "/tasks?status=pending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	envelope := decodeEnvelope(t, rec.Body)
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in envelope")
	}
	tasks, ok := data["tasks"].([]any)
	if !ok {
		t.Fatal("expected tasks array")
	}
	if len(tasks) != 1 {
		t.Errorf("expected 1 pending task, got %d", len(tasks))
	}
}

func TestListTasks_InvalidStatus(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskRepo(), &mockFeedbackRepo{})

	req := httptest.NewRequest(http.MethodGet, "/tasks?status=bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func ratingPtr(r models.DifficultyRating) *models.DifficultyRating {
	return &r
}
