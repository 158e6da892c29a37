package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calbright/flowday/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func newProjectRouter(projectRepo *mockProjectRepo) *mux.Router {
	handler := NewProjectHandler(projectRepo)
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/projects").Subrouter())
	return router
}

func seedProject(repo *mockProjectRepo, name string, status models.ProjectStatus) *models.Project {
	project := &models.Project{
		ID:     uuid.New(),
		Name:   name,
		Status: status,
	}
	repo.projects[project.ID] = project
	return project
}

func TestCreateProject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid project",
			body:       `{"name":"Home renovation","description":"Kitchen first"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       `{"description":"no name"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "name too long",
			body:       `{"name":"` + strings.Repeat("a", 501) + `"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newMockProjectRepo()
			router := newProjectRouter(repo)

			req := httptest.NewRequest("POST", "/projects", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				envelope := decodeEnvelope(t, rec.Body)
				data := envelope["data"].(map[string]any)
				if data["status"] != string(models.ProjectStatusActive) {
					t.Errorf("expected new project to be active, got %v", data["status"])
				}
			}
		})
	}
}

func TestListProjects_StatusFilter(t *testing.T) {
	t.Parallel()

	repo := newMockProjectRepo()
	seedProject(repo, "Active one", models.ProjectStatusActive)
	seedProject(repo, "Archived one", models.ProjectStatusArchived)
	router := newProjectRouter(repo)

	req := httptest.NewRequest("GET", "/projects?status=archived", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec.Body)
	projects := envelope["data"].([]any)
	if len(projects) != 1 {
		t.Fatalf("expected 1 archived project, got %d", len(projects))
	}

	req = httptest.NewRequest("GET", "/projects?status=done", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid status, got %d", rec.Code)
	}
}

func TestUpdateProject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "rename and pause",
			body:       `{"name":"New name","status":"paused"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid status",
			body:       `{"status":"finished"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty name",
			body:       `{"name":"   "}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newMockProjectRepo()
			project := seedProject(repo, "Original", models.ProjectStatusActive)
			router := newProjectRouter(repo)

			req := httptest.NewRequest("PATCH", "/projects/"+project.ID.String(), bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateProject_NotFound(t *testing.T) {
	t.Parallel()

	router := newProjectRouter(newMockProjectRepo())

	req := httptest.NewRequest("PATCH", "/projects/"+uuid.NewString(), bytes.NewBufferString(`{"name":"X"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteProject(t *testing.T) {
	t.Parallel()

	repo := newMockProjectRepo()
	project := seedProject(repo, "Doomed", models.ProjectStatusActive)
	router := newProjectRouter(repo)

	req := httptest.NewRequest("DELETE", "/projects/"+project.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := repo.projects[project.ID]; ok {
		t.Error("expected project to be deleted")
	}
}

func TestMilestoneLifecycle(t *testing.T) {
	t.Parallel()

	repo := newMockProjectRepo()
	project := seedProject(repo, "With milestones", models.ProjectStatusActive)
	router := newProjectRouter(repo)

	base := "/projects/" + project.ID.String() + "/milestones"

	req := httptest.NewRequest("POST", base, bytes.NewBufferString(`{"title":"First draft"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec.Body)
	milestoneID := envelope["data"].(map[string]any)["id"].(string)

	req = httptest.NewRequest("PATCH", base+"/"+milestoneID, bytes.NewBufferString(`{"completed":true}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	milestones := repo.milestones[project.ID]
	if len(milestones) != 1 || !milestones[0].Completed {
		t.Errorf("expected one completed milestone, got %+v", milestones)
	}

	req = httptest.NewRequest("GET", base, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	listed := decodeEnvelope(t, rec.Body)["data"].([]any)
	if len(listed) != 1 {
		t.Errorf("expected 1 milestone, got %d", len(listed))
	}
}

func TestUpdateMilestone_NotFound(t *testing.T) {
	t.Parallel()

	repo := newMockProjectRepo()
	project := seedProject(repo, "Empty", models.ProjectStatusActive)
	router := newProjectRouter(repo)

	path := "/projects/" + project.ID.String() + "/milestones/" + uuid.NewString()
	req := httptest.NewRequest("PATCH", path, bytes.NewBufferString(`{"completed":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
