package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hasnain-a7/nextProjectFlow/middleware"
	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/services"
	"github.com/hasnain-a7/nextProjectFlow/store"

	"github.com/gorilla/mux"
)

type ProjectHandler struct {
	registry      *services.CacheRegistry
	notifications *services.NotificationService
}

// NewProjectHandler wires the session cache registry and the optional
// notification service (nil when Cassandra is not configured).
func NewProjectHandler(registry *services.CacheRegistry, notifications *services.NotificationService) *ProjectHandler {
	return &ProjectHandler{registry: registry, notifications: notifications}
}

type projectRequest struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      string               `json:"category"`
	Attachments   []string             `json:"attachments"`
	DueDate       string               `json:"dueDate"`
	Status        models.ProjectStatus `json:"status"`
	ProjectEmoji  string               `json:"projectEmoji"`
	AssignedUsers []string             `json:"assignedUsers"`
	DeletedUsers  []string             `json:"deletedUsers"`
}

type taskRequest struct {
	Title       string               `json:"title"`
	Todo        string               `json:"todo"`
	Status      models.ProjectStatus `json:"status"`
	Attachments []string             `json:"attachments"`
	DueDate     string               `json:"dueDate"`
	TodoEmoji   string               `json:"todoEmoji"`
}

func writeCacheError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, "the record was changed by another session, reload and retry", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListProjects returns the session's cached projects, bulk loading them
// on first access.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)

	if err := cache.EnsureLoaded(r.Context()); err != nil {
		writeCacheError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cache.Projects())
}

// ReloadProjects forces a fresh bulk load from the store.
func (h *ProjectHandler) ReloadProjects(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)

	if err := cache.BulkLoad(r.Context()); err != nil {
		writeCacheError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cache.Projects())
}

func (h *ProjectHandler) GetProjectByID(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)
	projectID := mux.Vars(r)["projectId"]

	if err := cache.EnsureLoaded(r.Context()); err != nil {
		writeCacheError(w, err)
		return
	}

	project, ok := cache.Project(projectID)
	if !ok {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := cache.AddProject(r.Context(), services.ProjectInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Attachments:  req.Attachments,
		DueDate:      req.DueDate,
		Status:       req.Status,
		ProjectEmoji: req.ProjectEmoji,
	})
	if err != nil {
		writeCacheError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)
	projectID := mux.Vars(r)["projectId"]

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := cache.UpdateProject(r.Context(), projectID, services.ProjectInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Attachments:   req.Attachments,
		DueDate:       req.DueDate,
		Status:        req.Status,
		ProjectEmoji:  req.ProjectEmoji,
		AssignedUsers: req.AssignedUsers,
		DeletedUsers:  req.DeletedUsers,
	})
	if err != nil {
		writeCacheError(w, err)
		return
	}

	if h.notifications != nil && (len(req.AssignedUsers) > 0 || len(req.DeletedUsers) > 0) {
		h.notifications.NotifyProjectAssignment(req.Title, req.AssignedUsers, req.DeletedUsers)
	}

	project, _ := cache.Project(projectID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

// DeleteProject requires the caller to confirm the destructive action
// explicitly; the old in-cache confirmation prompt moved out here.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)
	projectID := mux.Vars(r)["projectId"]

	if r.URL.Query().Get("confirm") != "true" {
		http.Error(w, "destructive action requires confirm=true", http.StatusBadRequest)
		return
	}

	if err := cache.DeleteProject(r.Context(), projectID); err != nil {
		writeCacheError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)
	projectID := mux.Vars(r)["projectId"]

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := cache.AddTask(r.Context(), projectID, services.TaskInput{
		Title:       req.Title,
		Todo:        req.Todo,
		Status:      req.Status,
		Attachments: req.Attachments,
		DueDate:     req.DueDate,
		TodoEmoji:   req.TodoEmoji,
	})
	if err != nil {
		writeCacheError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (h *ProjectHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)
	vars := mux.Vars(r)
	projectID := vars["projectId"]
	taskID := vars["taskId"]

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := cache.UpdateTask(r.Context(), projectID, taskID, services.TaskInput{
		Title:       req.Title,
		Todo:        req.Todo,
		Status:      req.Status,
		Attachments: req.Attachments,
		DueDate:     req.DueDate,
		TodoEmoji:   req.TodoEmoji,
	})
	if err != nil {
		writeCacheError(w, err)
		return
	}

	project, _ := cache.Project(projectID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project.Tasks)
}

func (h *ProjectHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)
	vars := mux.Vars(r)

	if err := cache.DeleteTask(r.Context(), vars["projectId"], vars["taskId"]); err != nil {
		writeCacheError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
