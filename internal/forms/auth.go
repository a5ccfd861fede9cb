package forms

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nbutton23/zxcvbn-go"
)

// MinPasswordScore is the lowest accepted strength score on registration.
const MinPasswordScore = 3

var (
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// LoginForm holds sign-in credentials.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate returns the first failing rule.
func (f LoginForm) Validate() error {
	var errs ValidationErrors
	switch {
	case !strings.Contains(f.Email, "@"):
		errs.add("email", "Please enter a valid email address")
	case utf8.RuneCountInString(f.Password) < 6:
		errs.add("password", "Password must be at least 6 characters long")
	}
	return errs.errOrNil()
}

// RegisterForm holds a new account request.
type RegisterForm struct {
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AcceptTerms     bool   `json:"accept_terms"`
}

// Validate returns the first failing rule.
func (f RegisterForm) Validate() error {
	var errs ValidationErrors
	switch {
	case utf8.RuneCountInString(strings.TrimSpace(f.Username)) < 3:
		errs.add("username", "Username must be at least 3 characters long")
	case blank(f.FullName):
		errs.add("full_name", "Please enter your full name")
	case !strings.Contains(f.Email, "@"):
		errs.add("email", "Please enter a valid email address")
	case PasswordStrength(f.Password, f.Email, f.Username, f.FullName).Score < MinPasswordScore:
		errs.add("password", "Please choose a stronger password")
	case f.Password != f.ConfirmPassword:
		errs.add("confirm_password", "Passwords do not match")
	case !f.AcceptTerms:
		errs.add("accept_terms", "Please accept the terms and conditions")
	}
	return errs.errOrNil()
}

// NormalizedUsername is the trimmed, lowercased username stored on the profile.
func (f RegisterForm) NormalizedUsername() string {
	return strings.ToLower(strings.TrimSpace(f.Username))
}

// Strength is a password score from 0 (guessable) to 4 (very strong) with a requirements checklist.
type Strength struct {
	Score      int  `json:"score"`
	MinLength  bool `json:"has_min_length"`
	HasNumber  bool `json:"has_number"`
	HasSpecial bool `json:"has_special"`
}

// Label names the score for display.
func (s Strength) Label() string {
	return [...]string{"very weak", "weak", "fair", "strong", "very strong"}[max(0, min(s.Score, 4))]
}

// PasswordStrength scores password, penalizing reuse of the other inputs.
func PasswordStrength(password string, userInputs ...string) Strength {
	s := Strength{
		MinLength:  utf8.RuneCountInString(password) >= 8,
		HasNumber:  digitPattern.MatchString(password),
		HasSpecial: specialPattern.MatchString(password),
	}
	if password == "" {
		return s
	}

	var inputs []string
	for _, in := range userInputs {
		if in = strings.TrimSpace(in); in != "" {
			inputs = append(inputs, strings.ToLower(in))
		}
	}
	s.Score = zxcvbn.PasswordStrength(password, inputs).Score
	return s
}
