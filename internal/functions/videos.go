package functions

import (
	"errors"
	"net/http"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/server"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// ListVideoProgress returns the session user's watched flags.
func (h *Handlers) ListVideoProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.backend.ListVideoProgress(r.Context(), currentUserID(r))
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to load video progress", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"progress": progress})
}

// ToggleVideo flips the watched flag, inserting the row on first toggle.
func (h *Handlers) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	ctx, userID, videoID := r.Context(), currentUserID(r), r.PathValue("video")

	v, err := h.backend.GetVideoProgress(ctx, userID, videoID)
	switch {
	case errors.Is(err, shared.ErrRecordNotFound):
		v = &models.VideoProgress{UserID: userID, VideoID: videoID}
	case err != nil:
		h.fail(w, r, http.StatusInternalServerError, "Failed to load video progress", err)
		return
	}

	v.Toggle(h.now().UTC())
	if err := v.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, shared.ErrMissingFields.Error(), err)
		return
	}
	if err := h.backend.SaveVideoProgress(ctx, v); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to update video progress", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"progress": v})
}
