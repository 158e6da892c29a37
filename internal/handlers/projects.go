package handlers

import (
	"net/http"
	"time"

	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/models"
	"github.com/calbright/flowday/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ProjectHandler handles project and milestone requests
type ProjectHandler struct {
	projectRepo database.ProjectRepositoryInterface
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectRepo database.ProjectRepositoryInterface) *ProjectHandler {
	return &ProjectHandler{projectRepo: projectRepo}
}

// RegisterRoutes registers project routes on the given router.
// The router should already have the /projects prefix.
func (h *ProjectHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListProjects).Methods("GET")
	r.HandleFunc("", h.CreateProject).Methods("POST")
	r.HandleFunc("/{id}", h.GetProject).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateProject).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteProject).Methods("DELETE")
	r.HandleFunc("/{id}/milestones", h.ListMilestones).Methods("GET")
	r.HandleFunc("/{id}/milestones", h.CreateMilestone).Methods("POST")
	r.HandleFunc("/{id}/milestones/{milestoneID}", h.UpdateMilestone).Methods("PATCH")
}

// CreateProjectRequest represents a create project request
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=500"`
	Description string `json:"description,omitempty" validate:"max=10000"`
}

// UpdateProjectRequest represents an update project request
type UpdateProjectRequest struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *models.ProjectStatus `json:"status,omitempty"`
}

// CreateMilestoneRequest represents a create milestone request
type CreateMilestoneRequest struct {
	Title   string     `json:"title" validate:"required,min=1,max=500"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// UpdateMilestoneRequest represents an update milestone request
type UpdateMilestoneRequest struct {
	Title     *string    `json:"title,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
}

// ListProjects lists projects, optionally filtered by status
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	var status *models.ProjectStatus
	if s := r.URL.Query().Get("status"); s != "" {
		sEnum := models.ProjectStatus(s)
		switch sEnum {
		case models.ProjectStatusActive, models.ProjectStatusPaused, models.ProjectStatusArchived:
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid project status")
			return
		}
		status = &sEnum
	}

	projects, err := h.projectRepo.List(r.Context(), status)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve projects")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	project := &models.Project{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: validation.SanitizeText(req.Description),
		Status:      models.ProjectStatusActive,
	}

	if err := h.projectRepo.Create(r.Context(), project); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create project")
		return
	}

	respondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// UpdateProject updates an existing project
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if req.Name != nil {
		sanitized := validation.SanitizeText(*req.Name)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		project.Name = sanitized
	}
	if req.Description != nil {
		project.Description = validation.SanitizeText(*req.Description)
	}
	if req.Status != nil {
		switch *req.Status {
		case models.ProjectStatusActive, models.ProjectStatusPaused, models.ProjectStatusArchived:
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid project status")
			return
		}
		project.Status = *req.Status
	}

	if err := h.projectRepo.Update(r.Context(), project); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update project")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid project ID")
		return
	}

	if err := h.projectRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMilestones lists a project's milestones
func (h *ProjectHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	milestones, err := h.projectRepo.ListMilestones(r.Context(), project.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve milestones")
		return
	}

	respondJSON(w, http.StatusOK, milestones)
}

// CreateMilestone adds a milestone to a project
func (h *ProjectHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	var req CreateMilestoneRequest
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

	milestone := &models.Milestone{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Title:     req.Title,
		DueDate:   req.DueDate,
	}

	if err := h.projectRepo.CreateMilestone(r.Context(), milestone); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create milestone")
		return
	}

	respondJSON(w, http.StatusCreated, milestone)
}

// UpdateMilestone updates a project's milestone
func (h *ProjectHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	milestoneID, err := uuid.Parse(mux.Vars(r)["milestoneID"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid milestone ID")
		return
	}

	milestones, err := h.projectRepo.ListMilestones(r.Context(), project.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve milestones")
		return
	}

	var milestone *models.Milestone
	for _, m := range milestones {
		if m.ID == milestoneID {
			milestone = m
			break
		}
	}
	if milestone == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Milestone not found")
		return
	}

	var req UpdateMilestoneRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		milestone.Title = sanitized
	}
	if req.DueDate != nil {
		milestone.DueDate = req.DueDate
	}
	if req.Completed != nil {
		milestone.Completed = *req.Completed
	}

	if err := h.projectRepo.UpdateMilestone(r.Context(), milestone); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update milestone")
		return
	}

	respondJSON(w, http.StatusOK, milestone)
}

func (h *ProjectHandler) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid project ID")
		return nil, false
	}

	project, err := h.projectRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return nil, false
	}
	return project, true
}
