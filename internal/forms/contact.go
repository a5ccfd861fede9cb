package forms

import (
	"strings"
	"time"

	"github.com/desertthunder/secondbrain/internal/models"
)

// ContactForm is a consultation request from the marketing site.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Validate reports every invalid field.
func (f ContactForm) Validate() error {
	var errs ValidationErrors
	if blank(f.Name) {
		errs.add("name", "Name is required")
	}
	switch {
	case blank(f.Email):
		errs.add("email", "Email is required")
	case !emailPattern.MatchString(f.Email):
		errs.add("email", "Please enter a valid email address")
	}
	if blank(f.Company) {
		errs.add("company", "Company name is required")
	}
	if blank(f.Service) {
		errs.add("service", "Please select a service")
	}
	return errs.errOrNil()
}

// Consultation converts the form into a row; an empty message is stored as NULL.
func (f ContactForm) Consultation() *models.Consultation {
	c := &models.Consultation{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Company: strings.TrimSpace(f.Company),
		Service: f.Service,
	}
	if msg := strings.TrimSpace(f.Message); msg != "" {
		c.Message = &msg
	}
	return c
}

// ContactPayload is the webhook body for a contact request.
type ContactPayload struct {
	ContactForm
	Timestamp time.Time `json:"timestamp"`
}

// Payload stamps the form for delivery.
func (f ContactForm) Payload(now time.Time) ContactPayload {
	return ContactPayload{ContactForm: f, Timestamp: now.UTC()}
}
