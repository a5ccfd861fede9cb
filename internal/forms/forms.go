// Package forms validates the contact, troubleshooting, login and registration forms.
//
// Contact validation collects every field error; login and registration stop at the first failing rule
// and report a single message, matching how the pages present them.
package forms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/secondbrain/internal/shared"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldError is a validation failure on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a set of field failures. It wraps [shared.ErrInvalidInput].
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return shared.ErrInvalidInput
}

// Fields returns field name to message, suitable for a JSON error body.
func (v ValidationErrors) Fields() map[string]string {
	m := make(map[string]string, len(v))
	for _, fe := range v {
		m[fe.Field] = fe.Message
	}
	return m
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// errOrNil avoids returning a typed nil through the error interface.
func (v ValidationErrors) errOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
