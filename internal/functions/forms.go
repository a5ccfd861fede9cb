package functions

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/desertthunder/secondbrain/internal/forms"
	"github.com/desertthunder/secondbrain/internal/server"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

const errSubmission = "There was an error submitting your request. Please try again later."

// CreateConsultation validates the contact form, stores it and notifies the team.
func (h *Handlers) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	var form forms.ContactForm
	if err := server.DecodeJSON(r, &form); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if err := form.Validate(); err != nil {
		h.invalid(w, r, err)
		return
	}

	consultation := form.Consultation()
	if err := h.backend.CreateConsultation(r.Context(), consultation); err != nil {
		h.fail(w, r, http.StatusInternalServerError, errSubmission, err)
		return
	}

	if err := h.notify(r, services.WebhookContact, form.Payload(h.now())); err != nil {
		h.fail(w, r, http.StatusBadGateway, errSubmission, err)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Thank you! A member of our team will reach out within 24 hours.",
		"consultation": consultation,
	})
}

// Troubleshooting forwards an access-problem ticket to the support webhook.
func (h *Handlers) Troubleshooting(w http.ResponseWriter, r *http.Request) {
	var form forms.TroubleshootingForm
	if err := server.DecodeJSON(r, &form); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if err := form.Validate(); err != nil {
		h.invalid(w, r, err)
		return
	}

	if err := h.notify(r, services.WebhookTroubleshooting, form.Payload(h.now())); err != nil {
		h.fail(w, r, http.StatusBadGateway, errSubmission, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"message": "Troubleshooting request submitted"})
}

// ForwardUser relays a raw JSON body to the registration webhook.
func (h *Handlers) ForwardUser(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, server.MaxBodyBytes))
	if err != nil || len(body) == 0 {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !json.Valid(body) {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", nil)
		return
	}
	if h.webhooks == nil {
		h.fail(w, r, http.StatusInternalServerError, "Error forwarding user", shared.ErrWebhookFailed)
		return
	}

	if err := h.webhooks.Forward(r.Context(), services.WebhookRegistration, body); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error forwarding user", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) notify(r *http.Request, kind string, payload any) error {
	if h.webhooks == nil {
		return shared.ErrWebhookFailed
	}
	return h.webhooks.Notify(r.Context(), kind, payload)
}

// invalid writes a 400 carrying per-field messages when err has them.
func (h *Handlers) invalid(w http.ResponseWriter, r *http.Request, err error) {
	var verrs forms.ValidationErrors
	if errors.As(err, &verrs) {
		server.WriteErrorBody(w, http.StatusBadRequest, server.ErrorBody{Error: verrs.Error(), Fields: verrs.Fields()})
		return
	}
	h.fail(w, r, http.StatusBadRequest, err.Error(), err)
}
