package handlers

import (
	"net/http"

	"github.com/isdelr/kanban-be/internal/auth"
	"github.com/isdelr/kanban-be/internal/models"
	"github.com/isdelr/kanban-be/internal/services"
	"github.com/rs/zerolog/log"
)

const taskNotFound = "Task not found"

// TaskHandler handles HTTP requests related to board tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// StatusPayload is the body of a drag-and-drop status change.
type StatusPayload struct {
	Status models.Status `json:"status"`
}

// GetAll handles the request to get all tasks, newest first.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		respondServiceError(w, err, taskNotFound)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// Get handles the request to get a single task by its ID.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, taskNotFound)
	if !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, taskNotFound)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Create handles the request to create a new task owned by the caller.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.CallerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing authorization token")
		return
	}

	var patch models.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), callerID, patch)
	if err != nil {
		respondServiceError(w, err, taskNotFound)
		return
	}

	log.Info().Int64("task_id", task.ID).Int64("user_id", callerID).Msg("Task created")
	respondJSON(w, http.StatusCreated, task)
}

// Update handles the request to change any subset of a task's fields.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, taskNotFound)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, err, taskNotFound)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateStatus handles moving a task between board columns.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, taskNotFound)
	if !ok {
		return
	}

	var payload StatusPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	task, err := h.service.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		respondServiceError(w, err, taskNotFound)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Delete handles the request to permanently delete a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, taskNotFound)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		respondServiceError(w, err, taskNotFound)
		return
	}

	log.Info().Int64("task_id", id).Msg("Task deleted")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
