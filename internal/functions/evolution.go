package functions

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/server"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// VoiceflowSecretHeader authenticates assistant callbacks.
const VoiceflowSecretHeader = "X-Voiceflow-Secret"

const dailyEvolutionEndpoint = "update-daily-evolution-tasks"

type evolutionItem struct {
	TaskID   string          `json:"task_id"`
	Status   string          `json:"status"`
	Metadata json.RawMessage `json:"metadata"`
	Date     string          `json:"date"`
}

type dailyEvolutionRequest struct {
	UserID    string          `json:"user_id"`
	UserIDAlt string          `json:"userId"`
	Tasks     json.RawMessage `json:"tasks"`
}

type evolutionStatusRequest struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// UpdateDailyEvolutionTasks upserts the assistant's task list for a user and audits the call in webhook_logs.
func (h *Handlers) UpdateDailyEvolutionTasks(w http.ResponseWriter, r *http.Request) {
	if !h.voiceflowAuthorized(r) {
		h.fail(w, r, http.StatusUnauthorized, shared.ErrUnauthorized.Error(), nil)
		return
	}

	var req dailyEvolutionRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = req.UserIDAlt
	}
	var items []evolutionItem
	if userID == "" || !isJSONArray(req.Tasks) || json.Unmarshal(req.Tasks, &items) != nil {
		h.fail(w, r, http.StatusBadRequest, "Missing or invalid payload.", nil)
		return
	}

	now := h.now()
	tasks := make([]models.EvolutionTask, len(items))
	for i, it := range items {
		tasks[i] = models.EvolutionTask{
			UserID:   userID,
			TaskID:   it.TaskID,
			Status:   it.Status,
			Metadata: it.Metadata,
			Date:     it.Date,
		}
		tasks[i].ApplyDefaults(now)
		if err := tasks[i].Validate(); err != nil {
			h.fail(w, r, http.StatusBadRequest, "Missing or invalid payload.", err)
			return
		}
	}

	err := h.backend.UpsertEvolutionTasks(r.Context(), tasks)
	h.logWebhook(r, dailyEvolutionEndpoint, tasks, err)

	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to upsert daily tasks", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"message": "Daily tasks upserted.", "count": len(tasks)})
}

// UpdateEvolutionTask records the status of one task for the configured evolution user.
func (h *Handlers) UpdateEvolutionTask(w http.ResponseWriter, r *http.Request) {
	var req evolutionStatusRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON payload.", err)
		return
	}

	status := &models.EvolutionStatus{
		UserID:    h.cfg.Functions.EvolutionUserID,
		TaskID:    req.TaskID,
		Status:    req.Status,
		UpdatedAt: h.now().UTC(),
	}
	if err := status.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Missing task_id or status in payload.", err)
		return
	}
	if status.UserID == "" {
		h.fail(w, r, http.StatusInternalServerError, "Evolution user is not configured", nil)
		return
	}

	if err := h.backend.UpsertEvolutionStatus(r.Context(), status); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to update task status", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"message": "Task marked as complete!", "data": status})
}

func (h *Handlers) voiceflowAuthorized(r *http.Request) bool {
	got, want := r.Header.Get(VoiceflowSecretHeader), h.cfg.Functions.VoiceflowSecret
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// logWebhook writes the audit row. A failed insert is only logged.
func (h *Handlers) logWebhook(r *http.Request, endpoint string, payload any, cause error) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}

	entry := &models.WebhookLog{Endpoint: endpoint, Payload: data, ResponseCode: http.StatusOK}
	if cause != nil {
		msg := cause.Error()
		entry.ResponseCode, entry.Error = http.StatusInternalServerError, &msg
	}

	if err := h.backend.CreateWebhookLog(r.Context(), entry); err != nil {
		h.logger.Warn("failed to log webhook event", "endpoint", endpoint, "err", err)
	}
}
