package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/secondbrain/internal/shared"
)

// Model is implemented by every entity that can check its own required fields.
type Model interface {
	Validate() error
}

// Task is a row of the daily checklist.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Task        string    `json:"task"`
	DueTime     string    `json:"due_time"`
	Category    string    `json:"category"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// Validate requires task, due_time, category and user_id.
func (t *Task) Validate() error {
	if blank(t.Task) || blank(t.DueTime) || blank(t.Category) || blank(t.UserID) {
		return shared.ErrMissingFields
	}
	return nil
}

// Profile is the public profile created alongside an auth account.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Validate requires an id and username; usernames are stored lowercased.
func (p *Profile) Validate() error {
	if blank(p.ID) || blank(p.Username) {
		return fmt.Errorf("%w: profile id and username", shared.ErrMissingFields)
	}
	p.Username = strings.ToLower(p.Username)
	return nil
}

// VideoProgress records whether a user has watched a resource video.
type VideoProgress struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	VideoID   string     `json:"video_id"`
	IsWatched bool       `json:"is_watched"`
	WatchedAt *time.Time `json:"watched_at"`
}

// Validate requires user and video ids.
func (v *VideoProgress) Validate() error {
	if blank(v.UserID) || blank(v.VideoID) {
		return fmt.Errorf("%w: user_id and video_id", shared.ErrMissingFields)
	}
	return nil
}

// Toggle flips the watched flag, stamping WatchedAt when it becomes watched and clearing it otherwise.
func (v *VideoProgress) Toggle(now time.Time) {
	v.IsWatched = !v.IsWatched
	if v.IsWatched {
		v.WatchedAt = &now
	} else {
		v.WatchedAt = nil
	}
}

// Consultation is a contact form submission.
type Consultation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Service   string    `json:"service"`
	Message   *string   `json:"message"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Validate requires every field but the message.
func (c *Consultation) Validate() error {
	if blank(c.Name) || blank(c.Email) || blank(c.Company) || blank(c.Service) {
		return fmt.Errorf("%w: name, email, company and service", shared.ErrMissingFields)
	}
	return nil
}

// SignupLog records a registration attempt that failed after validation.
type SignupLog struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// EvolutionTask is a daily task pushed for a user, unique on (UserID, TaskID).
type EvolutionTask struct {
	UserID    string          `json:"user_id"`
	TaskID    string          `json:"task_id"`
	Status    string          `json:"status"`
	Metadata  json.RawMessage `json:"metadata"`
	Date      string          `json:"date"`
	UpdatedAt time.Time       `json:"updated_at,omitzero"`
}

// ApplyDefaults fills status "pending", metadata {} and date today when absent.
func (e *EvolutionTask) ApplyDefaults(now time.Time) {
	if e.Status == "" {
		e.Status = "pending"
	}
	if len(e.Metadata) == 0 || string(e.Metadata) == "null" {
		e.Metadata = json.RawMessage(`{}`)
	}
	if e.Date == "" {
		e.Date = shared.Today(now)
	}
}

// Validate requires the composite key.
func (e *EvolutionTask) Validate() error {
	if blank(e.UserID) || blank(e.TaskID) {
		return fmt.Errorf("%w: user_id and task_id", shared.ErrMissingFields)
	}
	return nil
}

// EvolutionStatus is the latest status of a single evolution task.
type EvolutionStatus struct {
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate requires task id and status.
func (e *EvolutionStatus) Validate() error {
	if blank(e.TaskID) || blank(e.Status) {
		return fmt.Errorf("%w: task_id and status", shared.ErrMissingFields)
	}
	return nil
}

// WebhookLog is an audit row for an inbound function call.
type WebhookLog struct {
	ID           string          `json:"id"`
	Endpoint     string          `json:"endpoint"`
	Payload      json.RawMessage `json:"payload"`
	ResponseCode int             `json:"response_code"`
	Error        *string         `json:"error"`
	CreatedAt    time.Time       `json:"created_at,omitzero"`
}

// TaskStore persists checklist rows. Every method is scoped to a user.
type TaskStore interface {
	// ListTasks returns the user's tasks ordered by due time ascending.
	ListTasks(ctx context.Context, userID string) ([]Task, error)
	GetTask(ctx context.Context, userID, id string) (*Task, error)
	CreateTasks(ctx context.Context, tasks ...*Task) error
	SetTaskCompleted(ctx context.Context, userID, id string, completed bool) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	// UsernameAvailable compares case-insensitively.
	UsernameAvailable(ctx context.Context, username string) (bool, error)
}

// VideoProgressStore persists watched flags.
type VideoProgressStore interface {
	ListVideoProgress(ctx context.Context, userID string) ([]VideoProgress, error)
	// GetVideoProgress returns [shared.ErrRecordNotFound] when the user has no row for the video.
	GetVideoProgress(ctx context.Context, userID, videoID string) (*VideoProgress, error)
	SaveVideoProgress(ctx context.Context, v *VideoProgress) error
}

// EvolutionStore persists assistant-driven task state.
type EvolutionStore interface {
	UpsertEvolutionTasks(ctx context.Context, tasks []EvolutionTask) error
	ListEvolutionTasks(ctx context.Context, userID string) ([]EvolutionTask, error)
	UpsertEvolutionStatus(ctx context.Context, s *EvolutionStatus) error
}

// LogStore persists audit and inbound-form rows.
type LogStore interface {
	CreateConsultation(ctx context.Context, c *Consultation) error
	CreateSignupLog(ctx context.Context, l *SignupLog) error
	CreateWebhookLog(ctx context.Context, l *WebhookLog) error
}

// Backend is the full persistence surface used by the server.
type Backend interface {
	TaskStore
	ProfileStore
	VideoProgressStore
	EvolutionStore
	LogStore
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
