package forms

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/secondbrain/internal/shared"
)

const strongPassword = "Vq7#mZp2!xLw9@Rt"

func TestContactForm(t *testing.T) {
	valid := ContactForm{Name: "Ada", Email: "ada@engines.io", Company: "Engines", Service: "automation"}

	t.Run("Valid", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tc := []struct {
		name   string
		mutate func(*ContactForm)
		fields map[string]string
	}{
		{
			name:   "missing name",
			mutate: func(f *ContactForm) { f.Name = " " },
			fields: map[string]string{"name": "Name is required"},
		},
		{
			name:   "missing email",
			mutate: func(f *ContactForm) { f.Email = "" },
			fields: map[string]string{"email": "Email is required"},
		},
		{
			name:   "email without domain dot",
			mutate: func(f *ContactForm) { f.Email = "ada@engines" },
			fields: map[string]string{"email": "Please enter a valid email address"},
		},
		{
			name: "everything missing",
			mutate: func(f *ContactForm) {
				*f = ContactForm{}
			},
			fields: map[string]string{
				"name":    "Name is required",
				"email":   "Email is required",
				"company": "Company name is required",
				"service": "Please select a service",
			},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)

			err := f.Validate()
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Error("validation errors should wrap ErrInvalidInput")
			}

			got := verrs.Fields()
			if len(got) != len(tt.fields) {
				t.Fatalf("expected %d field errors, got %v", len(tt.fields), got)
			}
			for field, msg := range tt.fields {
				if got[field] != msg {
					t.Errorf("field %s: expected %q, got %q", field, msg, got[field])
				}
			}
		})
	}

	t.Run("Consultation Nulls Empty Message", func(t *testing.T) {
		c := valid.Consultation()
		if c.Message != nil {
			t.Errorf("expected nil message, got %q", *c.Message)
		}

		withMsg := valid
		withMsg.Message = "  Need help with Zapier  "
		if c := withMsg.Consultation(); c.Message == nil || *c.Message != "Need help with Zapier" {
			t.Errorf("expected trimmed message, got %v", c.Message)
		}
	})

	t.Run("Payload Includes Timestamp", func(t *testing.T) {
		now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
		data, err := json.Marshal(valid.Payload(now))
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("failed to unmarshal payload: %v", err)
		}
		if got["timestamp"] != "2024-02-03T04:05:06Z" || got["name"] != "Ada" {
			t.Errorf("unexpected payload %v", got)
		}
	})
}

func TestTroubleshootingForm(t *testing.T) {
	valid := TroubleshootingForm{
		Platform:             "make",
		AccountCreationSteps: "Signed up with email",
		LastAccess:           "Yesterday",
		BrowserInfo:          "Firefox 128 on Linux",
		ErrorMessage:         "403",
	}

	t.Run("Valid", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f := valid
		f.ErrorMessage, f.RecentChanges = "", ""
		if err := f.Validate(); err != nil {
			t.Errorf("optional fields should not be required: %v", err)
		}
	})

	tc := []struct {
		name   string
		mutate func(*TroubleshootingForm)
		fields []string
	}{
		{name: "platform only", mutate: func(f *TroubleshootingForm) { *f = TroubleshootingForm{Platform: "make"} },
			fields: []string{"accountCreationSteps", "lastAccess", "browserInfo"}},
		{name: "missing platform", mutate: func(f *TroubleshootingForm) { f.Platform = "  " }, fields: []string{"platform"}},
		{name: "missing steps", mutate: func(f *TroubleshootingForm) { f.AccountCreationSteps = "" }, fields: []string{"accountCreationSteps"}},
		{name: "missing last access", mutate: func(f *TroubleshootingForm) { f.LastAccess = "" }, fields: []string{"lastAccess"}},
		{name: "missing browser", mutate: func(f *TroubleshootingForm) { f.BrowserInfo = "" }, fields: []string{"browserInfo"}},
		{name: "empty", mutate: func(f *TroubleshootingForm) { *f = TroubleshootingForm{} },
			fields: []string{"platform", "accountCreationSteps", "lastAccess", "browserInfo"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)

			var verrs ValidationErrors
			if err := f.Validate(); !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			got := verrs.Fields()
			if len(got) != len(tt.fields) {
				t.Fatalf("expected fields %v, got %v", tt.fields, got)
			}
			for _, field := range tt.fields {
				if got[field] == "" {
					t.Errorf("expected an error for %s", field)
				}
			}
		})
	}

	t.Run("Payload", func(t *testing.T) {
		data, _ := json.Marshal(valid.Payload(time.Unix(0, 0)))
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("failed to unmarshal payload: %v", err)
		}
		if got["type"] != "troubleshooting_request" || got["errorMessage"] != "403" || got["lastAccess"] != "Yesterday" {
			t.Errorf("unexpected payload %v", got)
		}
	})
}

func TestLoginForm(t *testing.T) {
	tc := []struct {
		name string
		form LoginForm
		want string
	}{
		{name: "valid", form: LoginForm{Email: "a@b.co", Password: "secret"}},
		{name: "bad email", form: LoginForm{Email: "ab.co", Password: "secret"}, want: "Please enter a valid email address"},
		{name: "short password", form: LoginForm{Email: "a@b.co", Password: "12345"}, want: "Password must be at least 6 characters long"},
		{name: "both invalid reports email", form: LoginForm{Email: "x", Password: ""}, want: "Please enter a valid email address"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.want {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterForm(t *testing.T) {
	valid := RegisterForm{
		Username:        "BrainBuilder",
		FullName:        "Bea Builder",
		Email:           "bea@example.com",
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
		AcceptTerms:     true,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}
	if valid.NormalizedUsername() != "brainbuilder" {
		t.Errorf("expected lowercased username, got %s", valid.NormalizedUsername())
	}

	tc := []struct {
		name   string
		mutate func(*RegisterForm)
		want   string
	}{
		{name: "short username", mutate: func(f *RegisterForm) { f.Username = "ab" }, want: "Username must be at least 3 characters long"},
		{name: "blank full name", mutate: func(f *RegisterForm) { f.FullName = "   " }, want: "Please enter your full name"},
		{name: "email without at", mutate: func(f *RegisterForm) { f.Email = "bea.example.com" }, want: "Please enter a valid email address"},
		{
			name: "weak password",
			mutate: func(f *RegisterForm) {
				f.Password, f.ConfirmPassword = "password", "password"
			},
			want: "Please choose a stronger password",
		},
		{name: "mismatch", mutate: func(f *RegisterForm) { f.ConfirmPassword = strongPassword + "x" }, want: "Passwords do not match"},
		{name: "terms", mutate: func(f *RegisterForm) { f.AcceptTerms = false }, want: "Please accept the terms and conditions"},
		{
			name: "first failure wins",
			mutate: func(f *RegisterForm) {
				f.Username = ""
				f.AcceptTerms = false
			},
			want: "Username must be at least 3 characters long",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()
			if err == nil || err.Error() != tt.want {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPasswordStrength(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		s := PasswordStrength("")
		if s.Score != 0 || s.MinLength || s.HasNumber || s.HasSpecial {
			t.Errorf("expected zero strength, got %+v", s)
		}
	})

	t.Run("Common Password", func(t *testing.T) {
		s := PasswordStrength("password")
		if s.Score >= MinPasswordScore {
			t.Errorf("expected weak score, got %d", s.Score)
		}
		if !s.MinLength || s.HasNumber || s.HasSpecial {
			t.Errorf("unexpected checklist %+v", s)
		}
	})

	t.Run("Random Password", func(t *testing.T) {
		s := PasswordStrength(strongPassword)
		if s.Score < MinPasswordScore {
			t.Errorf("expected strong score, got %d", s.Score)
		}
		if !s.MinLength || !s.HasNumber || !s.HasSpecial {
			t.Errorf("unexpected checklist %+v", s)
		}
		if s.Label() != "strong" && s.Label() != "very strong" {
			t.Errorf("unexpected label %s", s.Label())
		}
	})
}
