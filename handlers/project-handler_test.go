package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hasnain-a7/nextProjectFlow/middleware"
	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/services"
	"github.com/hasnain-a7/nextProjectFlow/store"
	"github.com/hasnain-a7/nextProjectFlow/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubStore implements the handful of DocumentStore methods the routed
// tests reach; anything else panics through the embedded nil interface.
type stubStore struct {
	store.DocumentStore

	projects map[string]*models.Project
	tasks    map[string][]models.Task
}

func newStubStore() *stubStore {
	return &stubStore{
		projects: make(map[string]*models.Project),
		tasks:    make(map[string][]models.Task),
	}
}

func (s *stubStore) ProjectsByOwner(ctx context.Context, userID string) ([]models.Project, error) {
	var out []models.Project
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubStore) ProjectsByAssignee(ctx context.Context, userID string) ([]models.Project, error) {
	return nil, nil
}

func (s *stubStore) TasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	return s.tasks[projectID], nil
}

func (s *stubStore) InsertProject(ctx context.Context, project *models.Project) (string, error) {
	project.ID = primitive.NewObjectID()
	stored := *project
	s.projects[stored.ID.Hex()] = &stored
	return stored.ID.Hex(), nil
}

func (s *stubStore) InsertTask(ctx context.Context, task *models.Task) (string, error) {
	task.ID = primitive.NewObjectID()
	s.tasks[task.ProjectID] = append(s.tasks[task.ProjectID], *task)
	return task.ID.Hex(), nil
}

func (s *stubStore) DeleteTasksByProject(ctx context.Context, projectID string) error {
	delete(s.tasks, projectID)
	return nil
}

func (s *stubStore) DeleteChatByProject(ctx context.Context, projectID string) error {
	return nil
}

func (s *stubStore) DeleteProject(ctx context.Context, projectID string) error {
	if _, ok := s.projects[projectID]; !ok {
		return store.ErrNotFound
	}
	delete(s.projects, projectID)
	return nil
}

func newTestRouter(t *testing.T, documentStore store.DocumentStore) (*mux.Router, string) {
	t.Helper()

	registry := services.NewCacheRegistry(documentStore)
	handler := NewProjectHandler(registry, nil)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuth)
	api.HandleFunc("/projects", handler.ListProjects).Methods("GET")
	api.HandleFunc("/projects", handler.CreateProject).Methods("POST")
	api.HandleFunc("/projects/{projectId}", handler.GetProjectByID).Methods("GET")
	api.HandleFunc("/projects/{projectId}", handler.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/tasks", handler.CreateTask).Methods("POST")

	token, err := utils.GenerateToken("653a0f1a2b3c4d5e6f708192", "user@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return r, token
}

func doRequest(r *mux.Router, token, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestProjectRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t, newStubStore())

	rec := doRequest(r, "", "GET", "/api/projects", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}

	rec = doRequest(r, "garbage", "GET", "/api/projects", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an invalid token, got %d", rec.Code)
	}
}

func TestCreateAndListProjects(t *testing.T) {
	r, token := newTestRouter(t, newStubStore())

	rec := doRequest(r, token, "POST", "/api/projects", `{"title":"Website","category":"work"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created["id"] == "" {
		t.Fatal("expected a project identifier in the response")
	}

	rec = doRequest(r, token, "GET", "/api/projects", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode project list: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Website" {
		t.Errorf("unexpected project list: %+v", listed)
	}
}

func TestCreateProjectRejectsBlankTitle(t *testing.T) {
	r, token := newTestRouter(t, newStubStore())

	rec := doRequest(r, token, "POST", "/api/projects", `{"title":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a blank title, got %d", rec.Code)
	}
}

func TestCreateTaskUnderProject(t *testing.T) {
	r, token := newTestRouter(t, newStubStore())

	rec := doRequest(r, token, "POST", "/api/projects", `{"title":"Website"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(r, token, "POST", "/api/projects/"+created["id"]+"/tasks", `{"title":""}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(r, token, "GET", "/api/projects/"+created["id"], "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var project models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &project); err != nil {
		t.Fatalf("failed to decode project: %v", err)
	}
	if len(project.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(project.Tasks))
	}
	if project.Tasks[0].Title != "Untitled Task" {
		t.Errorf("expected the blank title default, got %q", project.Tasks[0].Title)
	}
	if project.Tasks[0].Status != models.StatusBacklog {
		t.Errorf("expected the backlog default, got %q", project.Tasks[0].Status)
	}
}

func TestDeleteProjectNeedsConfirmation(t *testing.T) {
	r, token := newTestRouter(t, newStubStore())

	rec := doRequest(r, token, "POST", "/api/projects", `{"title":"Website"}`)
	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(r, token, "DELETE", "/api/projects/"+created["id"], "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without confirm=true, got %d", rec.Code)
	}

	rec = doRequest(r, token, "DELETE", "/api/projects/"+created["id"]+"?confirm=true", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 with confirm=true, got %d", rec.Code)
	}

	rec = doRequest(r, token, "GET", "/api/projects", "")
	var listed []models.Project
	json.Unmarshal(rec.Body.Bytes(), &listed)
	if len(listed) != 0 {
		t.Errorf("expected no projects after deletion, got %d", len(listed))
	}
}
