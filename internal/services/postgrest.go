package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// SupabaseTables implements [models.Backend] against the PostgREST endpoints under /rest/v1.
//
// The service-role key bypasses row level security, so every query filters by user_id explicitly.
type SupabaseTables struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

var _ models.Backend = (*SupabaseTables)(nil)

// PostgRESTError is an error body returned by the REST endpoints.
type PostgRESTError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *PostgRESTError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("postgrest request failed with status %d", e.Status)
	}
	return e.Message
}

func (e *PostgRESTError) Unwrap() error {
	return shared.ErrAPIRequest
}

// NewSupabaseTables creates a table client using apiKey for both apikey and bearer headers.
//
// Pass a client from [NewSessionClient] to act as a signed-in user instead of the service role.
func NewSupabaseTables(projectURL, apiKey string, client *http.Client) (*SupabaseTables, error) {
	if projectURL == "" || apiKey == "" {
		return nil, fmt.Errorf("%w: supabase url and key", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SupabaseTables{
		baseURL:    strings.TrimRight(projectURL, "/") + "/rest/v1",
		apiKey:     apiKey,
		httpClient: client,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// ListTasks selects daily_tasks for the user ordered by due_time ascending.
func (s *SupabaseTables) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	q := url.Values{"user_id": {eq(userID)}, "order": {"due_time.asc"}, "select": {"*"}}
	tasks := []models.Task{}
	if err := s.do(ctx, http.MethodGet, "/daily_tasks", q, nil, "", &tasks); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask selects a single task by id and user.
func (s *SupabaseTables) GetTask(ctx context.Context, userID, id string) (*models.Task, error) {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}, "select": {"*"}}
	var tasks []models.Task
	if err := s.do(ctx, http.MethodGet, "/daily_tasks", q, nil, "", &tasks); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return &tasks[0], nil
}

type taskInsert struct {
	Task        string `json:"task"`
	DueTime     string `json:"due_time"`
	Category    string `json:"category"`
	UserID      string `json:"user_id"`
	IsCompleted bool   `json:"is_completed"`
}

// CreateTasks inserts the tasks in one request and copies the stored rows back.
func (s *SupabaseTables) CreateTasks(ctx context.Context, tasks ...*models.Task) error {
	rows := make([]taskInsert, len(tasks))
	for i, t := range tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		rows[i] = taskInsert{Task: t.Task, DueTime: t.DueTime, Category: t.Category, UserID: t.UserID}
	}

	var created []models.Task
	if err := s.do(ctx, http.MethodPost, "/daily_tasks", nil, rows, "return=representation", &created); err != nil {
		return fmt.Errorf("failed to insert tasks: %w", err)
	}
	for i := range tasks {
		if i < len(created) {
			*tasks[i] = created[i]
		}
	}
	return nil
}

// SetTaskCompleted patches is_completed filtered by id and user.
func (s *SupabaseTables) SetTaskCompleted(ctx context.Context, userID, id string, completed bool) error {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}}
	var updated []models.Task
	body := map[string]bool{"is_completed": completed}
	if err := s.do(ctx, http.MethodPatch, "/daily_tasks", q, body, "return=representation", &updated); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return nil
}

// DeleteTask deletes one of the user's tasks.
func (s *SupabaseTables) DeleteTask(ctx context.Context, userID, id string) error {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}}
	var deleted []models.Task
	if err := s.do(ctx, http.MethodDelete, "/daily_tasks", q, nil, "return=representation", &deleted); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return nil
}

// CreateProfile inserts into user_profiles.
func (s *SupabaseTables) CreateProfile(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	body := map[string]string{"id": p.ID, "username": p.Username, "full_name": p.FullName}
	if err := s.do(ctx, http.MethodPost, "/user_profiles", nil, body, "return=minimal", nil); err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetProfile selects a profile by id.
func (s *SupabaseTables) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profiles []models.Profile
	q := url.Values{"id": {eq(id)}, "select": {"*"}}
	if err := s.do(ctx, http.MethodGet, "/user_profiles", q, nil, "", &profiles); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, id)
	}
	return &profiles[0], nil
}

// UsernameAvailable calls the check_username_available database function.
func (s *SupabaseTables) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var available bool
	body := map[string]string{"username": strings.ToLower(username)}
	if err := s.do(ctx, http.MethodPost, "/rpc/check_username_available", nil, body, "", &available); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return available, nil
}

// ListVideoProgress selects the user's video_progress rows.
func (s *SupabaseTables) ListVideoProgress(ctx context.Context, userID string) ([]models.VideoProgress, error) {
	progress := []models.VideoProgress{}
	q := url.Values{"user_id": {eq(userID)}, "select": {"*"}, "order": {"video_id.asc"}}
	if err := s.do(ctx, http.MethodGet, "/video_progress", q, nil, "", &progress); err != nil {
		return nil, fmt.Errorf("failed to list video progress: %w", err)
	}
	return progress, nil
}

// GetVideoProgress selects by (user_id, video_id).
func (s *SupabaseTables) GetVideoProgress(ctx context.Context, userID, videoID string) (*models.VideoProgress, error) {
	var progress []models.VideoProgress
	q := url.Values{"user_id": {eq(userID)}, "video_id": {eq(videoID)}, "select": {"*"}}
	if err := s.do(ctx, http.MethodGet, "/video_progress", q, nil, "", &progress); err != nil {
		return nil, fmt.Errorf("failed to get video progress: %w", err)
	}
	if len(progress) == 0 {
		return nil, shared.ErrRecordNotFound
	}
	return &progress[0], nil
}

// SaveVideoProgress updates the existing row or inserts a new one.
func (s *SupabaseTables) SaveVideoProgress(ctx context.Context, v *models.VideoProgress) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	body := map[string]any{"is_watched": v.IsWatched, "watched_at": v.WatchedAt}

	if v.ID != "" {
		q := url.Values{"user_id": {eq(v.UserID)}, "video_id": {eq(v.VideoID)}}
		if err := s.do(ctx, http.MethodPatch, "/video_progress", q, body, "return=minimal", nil); err != nil {
			return fmt.Errorf("failed to update video progress: %w", err)
		}
		return nil
	}

	body["user_id"], body["video_id"] = v.UserID, v.VideoID
	var created []models.VideoProgress
	if err := s.do(ctx, http.MethodPost, "/video_progress", nil, body, "return=representation", &created); err != nil {
		return fmt.Errorf("failed to insert video progress: %w", err)
	}
	if len(created) > 0 {
		v.ID = created[0].ID
	}
	return nil
}

// UpsertEvolutionTasks upserts on conflict (user_id, task_id).
func (s *SupabaseTables) UpsertEvolutionTasks(ctx context.Context, tasks []models.EvolutionTask) error {
	now := s.now()
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		tasks[i].ApplyDefaults(now)
		tasks[i].UpdatedAt = now
	}

	q := url.Values{"on_conflict": {"user_id,task_id"}}
	if err := s.do(ctx, http.MethodPost, "/user_evolution_tasks", q, tasks, "resolution=merge-duplicates,return=minimal", nil); err != nil {
		return fmt.Errorf("failed to upsert evolution tasks: %w", err)
	}
	return nil
}

// ListEvolutionTasks selects the user's evolution tasks, newest date first.
func (s *SupabaseTables) ListEvolutionTasks(ctx context.Context, userID string) ([]models.EvolutionTask, error) {
	tasks := []models.EvolutionTask{}
	q := url.Values{"user_id": {eq(userID)}, "select": {"*"}, "order": {"date.desc,task_id.asc"}}
	if err := s.do(ctx, http.MethodGet, "/user_evolution_tasks", q, nil, "", &tasks); err != nil {
		return nil, fmt.Errorf("failed to list evolution tasks: %w", err)
	}
	return tasks, nil
}

// UpsertEvolutionStatus upserts a single evolution_tasks row.
func (s *SupabaseTables) UpsertEvolutionStatus(ctx context.Context, st *models.EvolutionStatus) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = s.now()
	}
	q := url.Values{"on_conflict": {"user_id,task_id"}}
	if err := s.do(ctx, http.MethodPost, "/evolution_tasks", q, st, "resolution=merge-duplicates,return=minimal", nil); err != nil {
		return fmt.Errorf("failed to upsert evolution status: %w", err)
	}
	return nil
}

// CreateConsultation inserts into consultations.
func (s *SupabaseTables) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	body := map[string]any{"name": c.Name, "email": c.Email, "company": c.Company, "service": c.Service, "message": c.Message}
	if err := s.do(ctx, http.MethodPost, "/consultations", nil, body, "return=minimal", nil); err != nil {
		return fmt.Errorf("failed to insert consultation: %w", err)
	}
	return nil
}

// CreateSignupLog inserts into signup_logs.
func (s *SupabaseTables) CreateSignupLog(ctx context.Context, l *models.SignupLog) error {
	body := map[string]any{"email": l.Email, "username": l.Username, "success": l.Success, "error_message": l.ErrorMessage}
	if err := s.do(ctx, http.MethodPost, "/signup_logs", nil, body, "return=minimal", nil); err != nil {
		return fmt.Errorf("failed to insert signup log: %w", err)
	}
	return nil
}

// CreateWebhookLog inserts into webhook_logs.
func (s *SupabaseTables) CreateWebhookLog(ctx context.Context, l *models.WebhookLog) error {
	body := map[string]any{"endpoint": l.Endpoint, "payload": l.Payload, "response_code": l.ResponseCode, "error": l.Error}
	if err := s.do(ctx, http.MethodPost, "/webhook_logs", nil, body, "return=minimal", nil); err != nil {
		return fmt.Errorf("failed to insert webhook log: %w", err)
	}
	return nil
}

func (s *SupabaseTables) do(ctx context.Context, method, path string, query url.Values, body any, prefer string, result any) error {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.apiKey)
	// Session clients replace this with the user's access token.
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := &PostgRESTError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, pe)
		return pe
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func eq(v string) string {
	return "eq." + v
}
