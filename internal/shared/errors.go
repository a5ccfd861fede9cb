package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("Incorrect email or password. Please try again.")
	ErrAccountExists      = fmt.Errorf("An account with this email already exists. Please sign in instead.")
	ErrSessionNotFound    = fmt.Errorf("session_not_found")
	ErrNoSession          = fmt.Errorf("no session returned")
	ErrTokenExpired       = fmt.Errorf("access token expired")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken     = fmt.Errorf("no refresh token available")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrCircuitOpen        = fmt.Errorf("circuit breaker is open")
	ErrSessionTimeout     = fmt.Errorf("session request timed out")
	ErrUsernameTaken      = fmt.Errorf("This username is already taken. Please choose another.")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrWebhookFailed      = fmt.Errorf("webhook delivery failed")
	ErrPaymentFailed      = fmt.Errorf("payment provider request failed")
	ErrRecordNotFound     = fmt.Errorf("record not found")
	ErrTaskNotFound       = fmt.Errorf("task not found")
	ErrProfileNotFound    = fmt.Errorf("profile not found")

	// Function errors
	ErrUnauthorized     = fmt.Errorf("Unauthorized")
	ErrMethodNotAllowed = fmt.Errorf("Method not allowed")
	ErrMissingFields    = fmt.Errorf("Missing required fields")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
