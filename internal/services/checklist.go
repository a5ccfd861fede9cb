package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// ChecklistClient drives the session-scoped checklist endpoints of a running server.
type ChecklistClient struct {
	api *APIService
}

// NewChecklistClient wraps api, which should carry a session from [APIService.WithSession].
func NewChecklistClient(api *APIService) *ChecklistClient {
	return &ChecklistClient{api: api}
}

// ListTasks returns the signed-in user's tasks ordered by due time.
func (c *ChecklistClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	resp, err := c.api.Get(ctx, "/api/tasks")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	var body struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := decodeChecklist(resp, &body); err != nil {
		return nil, err
	}
	return body.Tasks, nil
}

// CreateTask adds t to the signed-in user's checklist. The server assigns the owner.
func (c *ChecklistClient) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	resp, err := c.api.PostJSON(ctx, "/api/tasks", map[string]string{
		"task":     t.Task,
		"due_time": t.DueTime,
		"category": t.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return decodeTask(resp)
}

// ToggleTask flips the completion flag of task id.
func (c *ChecklistClient) ToggleTask(ctx context.Context, id string) (*models.Task, error) {
	resp, err := c.api.Post(ctx, "/api/tasks/"+url.PathEscape(id)+"/toggle", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return decodeTask(resp)
}

// DeleteTask removes task id.
func (c *ChecklistClient) DeleteTask(ctx context.Context, id string) error {
	resp, err := c.api.Delete(ctx, "/api/tasks/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return decodeChecklist(resp, nil)
}

func decodeTask(resp *APIResponse) (*models.Task, error) {
	var body struct {
		Task models.Task `json:"task"`
	}
	if err := decodeChecklist(resp, &body); err != nil {
		return nil, err
	}
	return &body.Task, nil
}

// decodeChecklist maps error statuses onto sentinels and decodes successful bodies into v.
func decodeChecklist(resp *APIResponse, v any) error {
	if !resp.OK() {
		var sentinel error
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			sentinel = shared.ErrNotAuthenticated
		case http.StatusNotFound:
			sentinel = shared.ErrTaskNotFound
		case http.StatusBadRequest:
			sentinel = shared.ErrMissingFields
		case http.StatusServiceUnavailable:
			sentinel = shared.ErrServiceUnavailable
		default:
			sentinel = shared.ErrAPIRequest
		}
		return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, resp.ErrorMessage())
	}
	if v == nil {
		return nil
	}
	return resp.Decode(v)
}
