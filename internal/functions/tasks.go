package functions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/server"
	"github.com/desertthunder/secondbrain/internal/shared"
)

type addTaskRequest struct {
	Task     string `json:"task"`
	DueTime  string `json:"due_time"`
	Category string `json:"category"`
	UserID   string `json:"user_id"`
}

type checklistItem struct {
	Title    string `json:"title"`
	DueTime  string `json:"due_time"`
	Category string `json:"category"`
}

type checklistRequest struct {
	Tasks  json.RawMessage `json:"tasks"`
	UserID string          `json:"user_id"`
}

const errChecklistFormat = "Invalid request format. Expected tasks array and user_id."

// AddTask inserts a single checklist row for the given user.
func (h *Handlers) AddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	task := &models.Task{Task: req.Task, DueTime: req.DueTime, Category: req.Category, UserID: req.UserID}
	if err := task.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, shared.ErrMissingFields.Error(), err)
		return
	}

	if err := h.backend.CreateTasks(r.Context(), task); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to create task", err)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{"message": "Task added successfully", "task": task})
}

// ReceiveChecklist inserts a batch of titled tasks, typically produced by the assistant.
func (h *Handlers) ReceiveChecklist(w http.ResponseWriter, r *http.Request) {
	var req checklistRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	var items []checklistItem
	if req.UserID == "" || !isJSONArray(req.Tasks) || json.Unmarshal(req.Tasks, &items) != nil {
		h.fail(w, r, http.StatusBadRequest, errChecklistFormat, nil)
		return
	}

	tasks := make([]*models.Task, len(items))
	for i, it := range items {
		tasks[i] = &models.Task{Task: it.Title, DueTime: it.DueTime, Category: it.Category, UserID: req.UserID}
	}

	if err := h.backend.CreateTasks(r.Context(), tasks...); err != nil {
		if errors.Is(err, shared.ErrMissingFields) {
			h.fail(w, r, http.StatusBadRequest, shared.ErrMissingFields.Error(), err)
			return
		}
		h.fail(w, r, http.StatusInternalServerError, "Failed to save tasks", err)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{"message": "Tasks saved successfully", "tasks": tasks})
}

// ListTasks returns the session user's checklist ordered by due time.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	tasks, err := h.backend.ListTasks(r.Context(), userID)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to load tasks", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// CreateTask adds a task for the session user.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	task := &models.Task{Task: req.Task, DueTime: req.DueTime, Category: req.Category, UserID: currentUserID(r)}
	if err := task.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, shared.ErrMissingFields.Error(), err)
		return
	}
	if err := h.backend.CreateTasks(r.Context(), task); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to create task", err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, map[string]any{"task": task})
}

// ToggleTask flips is_completed on one of the session user's tasks.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	ctx, userID, id := r.Context(), currentUserID(r), r.PathValue("id")

	task, err := h.backend.GetTask(ctx, userID, id)
	if err != nil {
		h.taskFailure(w, r, err)
		return
	}

	task.IsCompleted = !task.IsCompleted
	if err := h.backend.SetTaskCompleted(ctx, userID, id, task.IsCompleted); err != nil {
		h.taskFailure(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"task": task})
}

// DeleteTask removes one of the session user's tasks.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteTask(r.Context(), currentUserID(r), r.PathValue("id")); err != nil {
		h.taskFailure(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (h *Handlers) taskFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrTaskNotFound) {
		h.fail(w, r, http.StatusNotFound, "Task not found", err)
		return
	}
	h.fail(w, r, http.StatusInternalServerError, "Failed to update task", err)
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
