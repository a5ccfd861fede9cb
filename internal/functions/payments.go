package functions

import (
	"net/http"

	"github.com/desertthunder/secondbrain/internal/server"
)

type paymentRequest struct {
	UserID string `json:"user_id"`
}

// CreateCheckoutSession starts a hosted checkout for lifetime access.
func (h *Handlers) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.UserID == "" {
		h.fail(w, r, http.StatusBadRequest, "Missing user_id", nil)
		return
	}
	if h.payments == nil {
		h.fail(w, r, http.StatusServiceUnavailable, "Payments are not configured", nil)
		return
	}

	session, err := h.payments.CreateCheckoutSession(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}
	h.logger.Info("checkout session created", "user", req.UserID, "session", session.ID)
	server.WriteJSON(w, http.StatusOK, map[string]string{"url": session.URL})
}

// CreatePaymentIntent creates an embedded-payment intent. The user id is optional.
func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if r.ContentLength != 0 {
		if err := server.DecodeJSON(r, &req); err != nil {
			h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}
	}
	if h.payments == nil {
		h.fail(w, r, http.StatusServiceUnavailable, "Payments are not configured", nil)
		return
	}

	intent, err := h.payments.CreatePaymentIntent(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"clientSecret": intent.ClientSecret})
}
