package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/models"
	"github.com/calbright/flowday/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// MaxTaskTitleLength is the maximum length for task titles
	MaxTaskTitleLength = 500
	// MaxTaskDescriptionLength is the maximum length for task descriptions
	MaxTaskDescriptionLength = 10000
	// DefaultPageSize is the default page size for pagination
	DefaultPageSize = 100
	// MaxPageSize is the maximum page size for pagination
	MaxPageSize = 500
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo     database.TaskRepositoryInterface
	feedbackRepo database.FeedbackRepositoryInterface
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskRepo database.TaskRepositoryInterface, feedbackRepo database.FeedbackRepositoryInterface) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo, feedbackRepo: feedbackRepo}
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title            string     `json:"title" validate:"required,min=1,max=500"`
	Description      string     `json:"description,omitempty" validate:"max=10000"`
	ProjectID        *uuid.UUID `json:"project_id,omitempty"`
	MilestoneID      *uuid.UUID `json:"milestone_id,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes" validate:"required,gt=0,lte=480"`
	Difficulty       int        `json:"difficulty" validate:"required,gte=1,lte=10"`
	Priority         int        `json:"priority" validate:"required,gte=1,lte=5"`
	SortOrder        int        `json:"sort_order" validate:"gte=0"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Title            *string            `json:"title,omitempty"`
	Description      *string            `json:"description,omitempty"`
	EstimatedMinutes *int               `json:"estimated_minutes,omitempty"`
	Difficulty       *int               `json:"difficulty,omitempty"`
	Priority         *int               `json:"priority,omitempty"`
	Status           *models.TaskStatus `json:"status,omitempty"`
	SortOrder        *int               `json:"sort_order,omitempty"`
}

// CompleteTaskRequest carries the optional difficulty verdict given at
// completion time
type CompleteTaskRequest struct {
	DifficultyRating *models.DifficultyRating `json:"difficulty_rating,omitempty"`
}

// ListTasksResponse represents the paginated response for listing tasks
type ListTasksResponse struct {
	Tasks      []*models.Task `json:"tasks"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// ListTasks lists tasks with pagination and optional status/project filters
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := DefaultPageSize
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 {
			pageSize = min(parsed, MaxPageSize)
		}
	}

	var status *models.TaskStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateTaskStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		sEnum := models.TaskStatus(s)
		status = &sEnum
	}

	var projectID *uuid.UUID
	if p := r.URL.Query().Get("project_id"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid project ID")
			return
		}
		projectID = &id
	}

	tasks, total, err := h.taskRepo.List(r.Context(), status, projectID, page, pageSize)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	respondJSON(w, http.StatusOK, ListTasksResponse{
		Tasks:      tasks,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	req.Description = validation.SanitizeText(req.Description)

	task := &models.Task{
		ID:               uuid.New(),
		ProjectID:        req.ProjectID,
		MilestoneID:      req.MilestoneID,
		Title:            req.Title,
		Description:      req.Description,
		EstimatedMinutes: req.EstimatedMinutes,
		Difficulty:       req.Difficulty,
		Priority:         req.Priority,
		Status:           models.TaskStatusPending,
		SortOrder:        req.SortOrder,
	}

	if err := h.taskRepo.Create(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTaskTitleLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", MaxTaskTitleLength))
			return
		}
		task.Title = sanitized
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		if len(sanitized) > MaxTaskDescriptionLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Description exceeds maximum length of %d characters", MaxTaskDescriptionLength))
			return
		}
		task.Description = sanitized
	}
	if req.EstimatedMinutes != nil {
		if *req.EstimatedMinutes <= 0 || *req.EstimatedMinutes > 480 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "estimated_minutes must be between 1 and 480")
			return
		}
		task.EstimatedMinutes = *req.EstimatedMinutes
	}
	if req.Difficulty != nil {
		if *req.Difficulty < 1 || *req.Difficulty > 10 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "difficulty must be between 1 and 10")
			return
		}
		task.Difficulty = *req.Difficulty
	}
	if req.Priority != nil {
		if *req.Priority < 1 || *req.Priority > 5 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "priority must be between 1 and 5")
			return
		}
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		if err := validation.ValidateTaskStatus(string(*req.Status)); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Status = *req.Status
	}
	if req.SortOrder != nil {
		if *req.SortOrder < 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "sort_order cannot be negative")
			return
		}
		task.SortOrder = *req.SortOrder
	}

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	if err := h.taskRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed and records the difficulty verdict
// as a feedback entry. The verdict is optional; an entry without one still
// counts toward calibration data points.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	if task.Status == models.TaskStatusCompleted {
		respondJSONError(w, http.StatusConflict, "Conflict", "Task is already completed")
		return
	}

	var req CompleteTaskRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}
	}

	if req.DifficultyRating != nil {
		if err := validation.ValidateDifficultyRating(string(*req.DifficultyRating)); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	now := time.Now()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete task")
		return
	}

	entry := &models.FeedbackEntry{
		ID:             uuid.New(),
		TaskID:         task.ID,
		Rating:         req.DifficultyRating,
		TaskDifficulty: task.Difficulty,
		CreatedAt:      now,
	}
	if err := h.feedbackRepo.Create(r.Context(), entry); err != nil {
		// The completion already succeeded; report it rather than fail
		respondJSON(w, http.StatusOK, task)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// loadTask parses the path ID and fetches the task, writing the error
// response itself on failure.
func (h *TaskHandler) loadTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return nil, false
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil, false
	}
	return task, true
}

// decodeJSONBody decodes the request body, writing the error response
// itself on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return err
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return err
	}
	return nil
}

// respondValidationError maps validator errors onto the error envelope
func respondValidationError(w http.ResponseWriter, err error) {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
			return
		}
	}
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
}
