package functions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/services/servicestest"
	"github.com/desertthunder/secondbrain/internal/sessions"
	"github.com/desertthunder/secondbrain/internal/shared"
	tu "github.com/desertthunder/secondbrain/internal/testing"
)

const (
	testEmail      = "bea@example.com"
	testPassword   = "secret-password"
	strongPassword = "Vq7#mZp2!xLw9@Rt"
)

type fixture struct {
	t        *testing.T
	backend  *tu.FakeBackend
	auth     *servicestest.FakeAuth
	notifier *tu.FakeNotifier
	payments *servicestest.FakePayments
	sessions *sessions.MemoryStore
	cfg      *shared.Config
	handlers *Handlers
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := shared.DefaultConfig()
	cfg.Functions.VoiceflowSecret = "vf-secret"
	cfg.Functions.EvolutionUserID = "evo-user"
	cfg.RateLimit.Requests = 0
	cfg.Auth.AuthTimeout = shared.Duration{Duration: 500 * time.Millisecond}

	f := &fixture{
		t:        t,
		backend:  tu.NewFakeBackend(),
		auth:     servicestest.NewFakeAuth(),
		notifier: &tu.FakeNotifier{},
		payments: &servicestest.FakePayments{},
		sessions: sessions.NewMemoryStore(time.Hour),
		cfg:      cfg,
	}
	f.handlers = New(Deps{
		Backend:  f.backend,
		Auth:     f.auth,
		Sessions: f.sessions,
		Payments: f.payments,
		Webhooks: f.notifier,
		Config:   cfg,
		Logger:   shared.NewLogger(io.Discard),
	})
	f.router = f.handlers.Router()
	return f
}

func (f *fixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// login signs in a fresh account and returns its session cookie.
func (f *fixture) login() (*services.User, *http.Cookie) {
	f.t.Helper()
	user := f.auth.AddUser(testEmail, testPassword)
	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"bea@example.com","password":"secret-password"}`)
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	return user, sessionCookie(f.t, rec)
}

// staleSession stores a session for the test account whose access token has expired.
func (f *fixture) staleSession() *http.Cookie {
	f.t.Helper()
	session, err := f.auth.SignInWithPassword(context.Background(), testEmail, testPassword)
	require.NoError(f.t, err)

	stale := *session
	stale.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	rec, err := f.sessions.Create(context.Background(), &stale)
	require.NoError(f.t, err)
	return &http.Cookie{Name: sessions.CookieName, Value: rec.ID}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessions.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessions.CookieName)
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestCommonBehaviour(t *testing.T) {
	f := newFixture(t)

	t.Run("Preflight", func(t *testing.T) {
		rec := f.do(http.MethodOptions, "/api/add-task", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Wrong Method", func(t *testing.T) {
		for _, path := range []string{"/api/add-task", "/api/receive-checklist", "/api/create-checkout-session", "/api/update-daily-evolution-tasks"} {
			rec := f.do(http.MethodGet, path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
			assert.Equal(t, "Method not allowed", decode(t, rec)["error"], path)
		}
	})

	t.Run("Bad JSON", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/add-task", `{"task":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Health", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "closed", body["breaker"])
	})

	t.Run("Metrics", func(t *testing.T) {
		f.do(http.MethodGet, "/health", "")
		rec := f.do(http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "secondbrain_http_requests_total")
	})
}

func TestAddTask(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/add-task", `{"task":"Review inbox","due_time":"09:00","category":"morning","user_id":"u1"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "Task added successfully", body["message"])
		task := body["task"].(map[string]any)
		assert.Equal(t, "Review inbox", task["task"])
		assert.Equal(t, false, task["is_completed"])
		assert.Len(t, f.backend.Tasks, 1)
	})

	t.Run("Missing Fields", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/add-task", `{"task":"Review inbox","due_time":"09:00","user_id":"u1"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing required fields", decode(t, rec)["error"])
		assert.Empty(t, f.backend.Tasks)
	})

	t.Run("Store Failure", func(t *testing.T) {
		f := newFixture(t)
		f.backend.CreateTasksErr = errors.New("insert failed")
		rec := f.do(http.MethodPost, "/api/add-task", `{"task":"a","due_time":"b","category":"c","user_id":"d"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to create task", decode(t, rec)["error"])
	})
}

func TestReceiveChecklist(t *testing.T) {
	t.Run("Saves Every Task", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/receive-checklist", `{
			"user_id": "u1",
			"tasks": [
				{"title": "Plan day", "due_time": "08:00", "category": "morning"},
				{"title": "Reflect", "due_time": "21:00", "category": "evening"}
			]
		}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "Tasks saved successfully", body["message"])
		assert.Len(t, body["tasks"], 2)
		assert.Equal(t, "Plan day", f.backend.Tasks[0].Task)
	})

	tc := []struct {
		name string
		body string
	}{
		{"tasks not an array", `{"user_id":"u1","tasks":{"title":"x"}}`},
		{"missing user", `{"tasks":[]}`},
		{"missing tasks", `{"user_id":"u1"}`},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(http.MethodPost, "/api/receive-checklist", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, errChecklistFormat, decode(t, rec)["error"])
		})
	}

	t.Run("Store Failure", func(t *testing.T) {
		f := newFixture(t)
		f.backend.CreateTasksErr = errors.New("insert failed")
		rec := f.do(http.MethodPost, "/api/receive-checklist", `{"user_id":"u1","tasks":[{"title":"a","due_time":"b","category":"c"}]}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPayments(t *testing.T) {
	t.Run("Checkout Session", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/create-checkout-session", `{"user_id":"u1"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://checkout.stripe.test/cs_test_1", decode(t, rec)["url"])
		assert.Equal(t, []string{"u1"}, f.payments.Users)
	})

	t.Run("Missing User", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/create-checkout-session", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing user_id", decode(t, rec)["error"])
	})

	t.Run("Provider Failure", func(t *testing.T) {
		f := newFixture(t)
		f.payments.Err = shared.ErrPaymentFailed
		rec := f.do(http.MethodPost, "/api/create-checkout-session", `{"user_id":"u1"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", decode(t, rec)["error"])
	})

	t.Run("Payment Intent", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/create-payment-intent", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pi_test_1_secret", decode(t, rec)["clientSecret"])
	})
}

func TestUpdateDailyEvolutionTasks(t *testing.T) {
	post := func(f *fixture, secret, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/update-daily-evolution-tasks", strings.NewReader(body))
		if secret != "" {
			req.Header.Set(VoiceflowSecretHeader, secret)
		}
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("Rejects Bad Secret", func(t *testing.T) {
		f := newFixture(t)
		for _, secret := range []string{"", "wrong"} {
			rec := post(f, secret, `{"user_id":"u1","tasks":[]}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Unauthorized", decode(t, rec)["error"])
		}
		assert.Empty(t, f.backend.WebhookLogs)
	})

	t.Run("Upserts With Defaults", func(t *testing.T) {
		f := newFixture(t)
		f.handlers.now = func() time.Time { return time.Date(2024, 5, 6, 23, 30, 0, 0, time.UTC) }

		rec := post(f, "vf-secret", `{"userId":"u1","tasks":[{"task_id":"t1"},{"task_id":"t2","status":"done","metadata":{"k":1},"date":"2024-05-01"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		t1 := f.backend.Evolution["u1/t1"]
		assert.Equal(t, "pending", t1.Status)
		assert.JSONEq(t, `{}`, string(t1.Metadata))
		assert.Equal(t, "2024-05-06", t1.Date)

		t2 := f.backend.Evolution["u1/t2"]
		assert.Equal(t, "done", t2.Status)
		assert.Equal(t, "2024-05-01", t2.Date)

		require.Len(t, f.backend.WebhookLogs, 1)
		assert.Equal(t, "update-daily-evolution-tasks", f.backend.WebhookLogs[0].Endpoint)
		assert.Equal(t, http.StatusOK, f.backend.WebhookLogs[0].ResponseCode)
	})

	t.Run("Invalid Payload", func(t *testing.T) {
		f := newFixture(t)
		rec := post(f, "vf-secret", `{"tasks":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing or invalid payload.", decode(t, rec)["error"])
	})

	t.Run("Store Failure Is Logged", func(t *testing.T) {
		f := newFixture(t)
		f.backend.UpsertEvolutionErr = errors.New("conflict")
		rec := post(f, "vf-secret", `{"user_id":"u1","tasks":[{"task_id":"t1"}]}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Len(t, f.backend.WebhookLogs, 1)
		assert.Equal(t, http.StatusInternalServerError, f.backend.WebhookLogs[0].ResponseCode)
		require.NotNil(t, f.backend.WebhookLogs[0].Error)
		assert.Equal(t, "conflict", *f.backend.WebhookLogs[0].Error)
	})

	t.Run("Log Failure Is Not Fatal", func(t *testing.T) {
		f := newFixture(t)
		f.backend.WebhookLogErr = errors.New("log table missing")
		rec := post(f, "vf-secret", `{"user_id":"u1","tasks":[{"task_id":"t1"}]}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUpdateEvolutionTask(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/update-evolution-task", `{"task_id":"t9","status":"complete"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Task marked as complete!", decode(t, rec)["message"])
	assert.Equal(t, "complete", f.backend.Statuses["evo-user/t9"].Status)

	rec = f.do(http.MethodPost, "/api/update-evolution-task", `{"task_id":"t9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing task_id or status in payload.", decode(t, rec)["error"])
}

func TestForwardUser(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/forward-user", `{"email":"bea@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	sent := f.notifier.Notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, services.WebhookRegistration, sent[0].Kind)
	assert.JSONEq(t, `{"email":"bea@example.com"}`, string(sent[0].Payload.(json.RawMessage)))

	f.notifier.Err = shared.ErrWebhookFailed
	rec = f.do(http.MethodPost, "/api/forward-user", `{"email":"bea@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConsultations(t *testing.T) {
	valid := `{"name":"Ada","email":"ada@engines.io","company":"Engines","service":"automation","message":""}`

	t.Run("Stored And Notified", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/consultations", valid)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, f.backend.Consultations, 1)
		assert.Nil(t, f.backend.Consultations[0].Message)

		sent := f.notifier.Notifications()
		require.Len(t, sent, 1)
		assert.Equal(t, services.WebhookContact, sent[0].Kind)
	})

	t.Run("Field Errors", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/consultations", `{"name":"Ada","email":"ada@engines"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		fields := decode(t, rec)["fields"].(map[string]any)
		assert.Equal(t, "Please enter a valid email address", fields["email"])
		assert.Equal(t, "Company name is required", fields["company"])
		assert.Empty(t, f.backend.Consultations)
	})

	t.Run("Webhook Failure", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.Err = shared.ErrWebhookFailed
		rec := f.do(http.MethodPost, "/api/consultations", valid)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, errSubmission, decode(t, rec)["error"])
	})
}

func TestTroubleshooting(t *testing.T) {
	const ticket = `{"platform":"make","accountCreationSteps":"email sign up","lastAccess":"yesterday","browserInfo":"Chrome 121","errorMessage":"403"}`

	t.Run("Forwards Ticket", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/troubleshooting", ticket)
		require.Equal(t, http.StatusOK, rec.Code)
		sent := f.notifier.Notifications()
		require.Len(t, sent, 1)
		assert.Equal(t, services.WebhookTroubleshooting, sent[0].Kind)
	})

	tc := []struct {
		name   string
		body   string
		fields []string
	}{
		{name: "empty", body: `{}`, fields: []string{"platform", "accountCreationSteps", "lastAccess", "browserInfo"}},
		{name: "platform only", body: `{"platform":"make"}`, fields: []string{"accountCreationSteps", "lastAccess", "browserInfo"}},
		{name: "missing last access", body: `{"platform":"make","accountCreationSteps":"email","browserInfo":"Chrome"}`, fields: []string{"lastAccess"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(http.MethodPost, "/api/troubleshooting", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			fields := decode(t, rec)["fields"].(map[string]any)
			assert.Len(t, fields, len(tt.fields))
			for _, field := range tt.fields {
				assert.Contains(t, fields, field)
			}
			assert.Empty(t, f.notifier.Notifications())
		})
	}

	t.Run("Webhook Failure", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.Err = shared.ErrWebhookFailed
		rec := f.do(http.MethodPost, "/api/troubleshooting", ticket)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestAuthAPI(t *testing.T) {
	t.Run("Login Sets Session", func(t *testing.T) {
		f := newFixture(t)
		user, cookie := f.login()

		assert.True(t, cookie.HttpOnly)
		rec := f.do(http.MethodGet, "/api/auth/session", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, user.ID, body["user"].(map[string]any)["id"])
		assert.NotContains(t, rec.Body.String(), "access_token")
	})

	t.Run("Wrong Password", func(t *testing.T) {
		f := newFixture(t)
		f.auth.AddUser(testEmail, testPassword)
		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"bea@example.com","password":"nope-nope"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, shared.ErrInvalidCredentials.Error(), decode(t, rec)["error"])
	})

	t.Run("Login Validation", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"bea","password":"secret"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please enter a valid email address", decode(t, rec)["error"])
	})

	t.Run("Anonymous Session", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/auth/session", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decode(t, rec)["authenticated"])
	})

	t.Run("Logout Clears Session", func(t *testing.T) {
		f := newFixture(t)
		_, cookie := f.login()

		rec := f.do(http.MethodPost, "/api/auth/logout", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.sessions.Len())
		assert.Equal(t, 1, f.auth.CallCount("SignOut"))

		rec = f.do(http.MethodGet, "/api/auth/session", "", cookie)
		assert.Equal(t, false, decode(t, rec)["authenticated"])
	})

	t.Run("Logout Without Session", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/auth/logout", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Register", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/auth/register", `{
			"username": "BrainBuilder",
			"full_name": "Bea Builder",
			"email": "bea@example.com",
			"password": "`+strongPassword+`",
			"confirm_password": "`+strongPassword+`",
			"accept_terms": true
		}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, true, decode(t, rec)["authenticated"])
		sessionCookie(t, rec)

		require.Len(t, f.backend.Profiles, 1)
		for _, p := range f.backend.Profiles {
			assert.Equal(t, "brainbuilder", p.Username)
		}
	})

	t.Run("Register Existing Account", func(t *testing.T) {
		f := newFixture(t)
		f.auth.AddUser(testEmail, testPassword)
		rec := f.do(http.MethodPost, "/api/auth/register", `{
			"username": "bea", "full_name": "Bea", "email": "bea@example.com",
			"password": "`+strongPassword+`", "confirm_password": "`+strongPassword+`", "accept_terms": true
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, shared.ErrAccountExists.Error(), decode(t, rec)["error"])
		require.Len(t, f.backend.SignupLogs, 1)
		assert.False(t, f.backend.SignupLogs[0].Success)
	})

	t.Run("Register Validation", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/auth/register", `{"username":"ab"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Username must be at least 3 characters long", body["error"])
		assert.Equal(t, 0, f.auth.CallCount("SignUp"))
	})

	t.Run("Breaker Open", func(t *testing.T) {
		f := newFixture(t)
		f.auth.AddUser(testEmail, testPassword)
		cookie := f.staleSession()
		f.auth.Err = shared.ErrServiceUnavailable

		for range f.cfg.Auth.Threshold {
			f.do(http.MethodGet, "/api/auth/session", "", cookie)
		}

		rec := f.do(http.MethodGet, "/api/auth/breaker", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "open", decode(t, rec)["state"])

		rec = f.do(http.MethodGet, "/health", "")
		assert.Equal(t, "open", decode(t, rec)["breaker"])

		rec = f.do(http.MethodPost, "/api/auth/breaker/reset", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "closed", decode(t, rec)["state"])
	})
}

func TestBoot(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.login()

	rec := f.do(http.MethodGet, "/api/auth/boot", "", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	out := rec.Body.String()
	assert.Contains(t, out, "event: done")
	assert.Contains(t, out, `"phase":"authenticated"`)
	assert.Contains(t, out, `"progress":100`)
}

func TestChecklistAPI(t *testing.T) {
	t.Run("Requires Session", func(t *testing.T) {
		f := newFixture(t)
		for _, req := range []struct{ method, path string }{
			{http.MethodGet, "/api/tasks"},
			{http.MethodPost, "/api/tasks"},
			{http.MethodPost, "/api/tasks/x/toggle"},
			{http.MethodDelete, "/api/tasks/x"},
			{http.MethodGet, "/api/video-progress"},
			{http.MethodPost, "/api/video-progress/v1/toggle"},
		} {
			rec := f.do(req.method, req.path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, req.path)
		}
	})

	t.Run("Unknown Session Cookie", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/tasks", "", &http.Cookie{Name: sessions.CookieName, Value: "missing"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Task Lifecycle", func(t *testing.T) {
		f := newFixture(t)
		user, cookie := f.login()

		for _, body := range []string{
			`{"task":"Evening review","due_time":"21:00","category":"evening"}`,
			`{"task":"Plan day","due_time":"08:00","category":"morning"}`,
		} {
			rec := f.do(http.MethodPost, "/api/tasks", body, cookie)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		}
		f.backend.Tasks = append(f.backend.Tasks, models.Task{ID: "other", UserID: "someone-else", Task: "x", DueTime: "00:00", Category: "c"})

		rec := f.do(http.MethodGet, "/api/tasks", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		var list struct {
			Tasks []models.Task `json:"tasks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list.Tasks, 2)
		assert.Equal(t, "Plan day", list.Tasks[0].Task)
		assert.Equal(t, user.ID, list.Tasks[0].UserID)

		id := list.Tasks[0].ID
		rec = f.do(http.MethodPost, "/api/tasks/"+id+"/toggle", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["task"].(map[string]any)["is_completed"])

		rec = f.do(http.MethodPost, "/api/tasks/other/toggle", "", cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = f.do(http.MethodDelete, "/api/tasks/"+id, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = f.do(http.MethodDelete, "/api/tasks/"+id, "", cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Video Progress", func(t *testing.T) {
		f := newFixture(t)
		_, cookie := f.login()
		now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		f.handlers.now = func() time.Time { return now }

		rec := f.do(http.MethodPost, "/api/video-progress/intro/toggle", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, f.backend.Videos, 1)
		assert.True(t, f.backend.Videos[0].IsWatched)
		require.NotNil(t, f.backend.Videos[0].WatchedAt)
		assert.True(t, now.Equal(*f.backend.Videos[0].WatchedAt))

		rec = f.do(http.MethodPost, "/api/video-progress/intro/toggle", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.backend.Videos, 1)
		assert.False(t, f.backend.Videos[0].IsWatched)
		assert.Nil(t, f.backend.Videos[0].WatchedAt)

		rec = f.do(http.MethodGet, "/api/video-progress", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode(t, rec)["progress"], 1)
	})

	t.Run("Expired Token Is Refreshed", func(t *testing.T) {
		f := newFixture(t)
		f.auth.AddUser(testEmail, testPassword)
		cookie := f.staleSession()
		before, err := f.sessions.Get(context.Background(), cookie.Value)
		require.NoError(t, err)

		resp := f.do(http.MethodGet, "/api/tasks", "", cookie)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, 1, f.auth.CallCount("RefreshSession"))

		stored, err := f.sessions.Get(context.Background(), cookie.Value)
		require.NoError(t, err)
		assert.NotEqual(t, before.Auth.AccessToken, stored.Auth.AccessToken)
		assert.True(t, stored.Auth.Expiry().After(time.Now()))
	})
}

func TestPages(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/app/daily-checklist", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=%2Fapp%2Fdaily-checklist", rec.Header().Get("Location"))

	_, cookie := f.login()
	rec = f.do(http.MethodGet, "/app/daily-checklist", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Daily Checklist")

	rec = f.do(http.MethodGet, "/login", "", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/app/dashboard", rec.Header().Get("Location"))
}
