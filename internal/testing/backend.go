package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// FakeBackend is an in-memory [models.Backend] with per-operation error injection.
type FakeBackend struct {
	mu            sync.Mutex
	seq           int
	Tasks         []models.Task
	Profiles      map[string]models.Profile
	Videos        []models.VideoProgress
	Evolution     map[string]models.EvolutionTask
	Statuses      map[string]models.EvolutionStatus
	Consultations []models.Consultation
	SignupLogs    []models.SignupLog
	WebhookLogs   []models.WebhookLog

	ListTasksErr       error
	CreateTasksErr     error
	UpdateTaskErr      error
	CreateProfileErr   error
	UsernameErr        error
	VideoErr           error
	UpsertEvolutionErr error
	ConsultationErr    error
	SignupLogErr       error
	WebhookLogErr      error
}

var _ models.Backend = (*FakeBackend)(nil)

// NewFakeBackend creates an empty backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Profiles:  make(map[string]models.Profile),
		Evolution: make(map[string]models.EvolutionTask),
		Statuses:  make(map[string]models.EvolutionStatus),
	}
}

func (f *FakeBackend) nextID() string {
	f.seq++
	return fmt.Sprintf("id-%d", f.seq)
}

func (f *FakeBackend) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	tasks := []models.Task{}
	for _, t := range f.Tasks {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueTime < tasks[j].DueTime })
	return tasks, nil
}

func (f *FakeBackend) GetTask(ctx context.Context, userID, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.Tasks {
		if t.ID == id && t.UserID == userID {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
}

func (f *FakeBackend) CreateTasks(ctx context.Context, tasks ...*models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateTasksErr != nil {
		return f.CreateTasksErr
	}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, t := range tasks {
		t.ID = f.nextID()
		t.IsCompleted = false
		t.CreatedAt = time.Now().UTC()
		f.Tasks = append(f.Tasks, *t)
	}
	return nil
}

func (f *FakeBackend) SetTaskCompleted(ctx context.Context, userID, id string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	for i := range f.Tasks {
		if f.Tasks[i].ID == id && f.Tasks[i].UserID == userID {
			f.Tasks[i].IsCompleted = completed
			return nil
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
}

func (f *FakeBackend) DeleteTask(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	for i := range f.Tasks {
		if f.Tasks[i].ID == id && f.Tasks[i].UserID == userID {
			f.Tasks = append(f.Tasks[:i], f.Tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
}

func (f *FakeBackend) CreateProfile(ctx context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateProfileErr != nil {
		return f.CreateProfileErr
	}
	if err := p.Validate(); err != nil {
		return err
	}
	f.Profiles[p.ID] = *p
	return nil
}

func (f *FakeBackend) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return &p, nil
}

func (f *FakeBackend) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UsernameErr != nil {
		return false, f.UsernameErr
	}
	for _, p := range f.Profiles {
		if p.Username == strings.ToLower(username) {
			return false, nil
		}
	}
	return true, nil
}

func (f *FakeBackend) ListVideoProgress(ctx context.Context, userID string) ([]models.VideoProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VideoErr != nil {
		return nil, f.VideoErr
	}
	progress := []models.VideoProgress{}
	for _, v := range f.Videos {
		if v.UserID == userID {
			progress = append(progress, v)
		}
	}
	return progress, nil
}

func (f *FakeBackend) GetVideoProgress(ctx context.Context, userID, videoID string) (*models.VideoProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VideoErr != nil {
		return nil, f.VideoErr
	}
	for _, v := range f.Videos {
		if v.UserID == userID && v.VideoID == videoID {
			return &v, nil
		}
	}
	return nil, shared.ErrRecordNotFound
}

func (f *FakeBackend) SaveVideoProgress(ctx context.Context, v *models.VideoProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VideoErr != nil {
		return f.VideoErr
	}
	for i := range f.Videos {
		if f.Videos[i].UserID == v.UserID && f.Videos[i].VideoID == v.VideoID {
			v.ID = f.Videos[i].ID
			f.Videos[i] = *v
			return nil
		}
	}
	v.ID = f.nextID()
	f.Videos = append(f.Videos, *v)
	return nil
}

func (f *FakeBackend) UpsertEvolutionTasks(ctx context.Context, tasks []models.EvolutionTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpsertEvolutionErr != nil {
		return f.UpsertEvolutionErr
	}
	now := time.Now().UTC()
	for i := range tasks {
		tasks[i].ApplyDefaults(now)
		f.Evolution[tasks[i].UserID+"/"+tasks[i].TaskID] = tasks[i]
	}
	return nil
}

func (f *FakeBackend) ListEvolutionTasks(ctx context.Context, userID string) ([]models.EvolutionTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := []models.EvolutionTask{}
	for _, t := range f.Evolution {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskID < tasks[j].TaskID })
	return tasks, nil
}

func (f *FakeBackend) UpsertEvolutionStatus(ctx context.Context, s *models.EvolutionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpsertEvolutionErr != nil {
		return f.UpsertEvolutionErr
	}
	f.Statuses[s.UserID+"/"+s.TaskID] = *s
	return nil
}

func (f *FakeBackend) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConsultationErr != nil {
		return f.ConsultationErr
	}
	c.ID = f.nextID()
	f.Consultations = append(f.Consultations, *c)
	return nil
}

func (f *FakeBackend) CreateSignupLog(ctx context.Context, l *models.SignupLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignupLogErr != nil {
		return f.SignupLogErr
	}
	l.ID = f.nextID()
	f.SignupLogs = append(f.SignupLogs, *l)
	return nil
}

func (f *FakeBackend) CreateWebhookLog(ctx context.Context, l *models.WebhookLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WebhookLogErr != nil {
		return f.WebhookLogErr
	}
	l.ID = f.nextID()
	f.WebhookLogs = append(f.WebhookLogs, *l)
	return nil
}

// Notification is a payload captured by [FakeNotifier].
type Notification struct {
	Kind    string
	Payload any
}

// FakeNotifier records webhook deliveries and can be made to fail.
type FakeNotifier struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func (n *FakeNotifier) Notify(ctx context.Context, kind string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, Notification{Kind: kind, Payload: payload})
	return nil
}

// Forward records body as a raw JSON payload.
func (n *FakeNotifier) Forward(ctx context.Context, kind string, body []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, Notification{Kind: kind, Payload: json.RawMessage(body)})
	return nil
}

// Notifications returns a copy of the recorded deliveries.
func (n *FakeNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.Sent...)
}
