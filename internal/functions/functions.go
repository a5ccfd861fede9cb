package functions

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/metrics"
	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/server"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/sessions"
	"github.com/desertthunder/secondbrain/internal/shared"
	"github.com/desertthunder/secondbrain/internal/web"
)

// Webhooks delivers payloads to the automation endpoints.
type Webhooks interface {
	services.Notifier
	Forward(ctx context.Context, kind string, body []byte) error
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	Backend  models.Backend
	Auth     services.Authenticator
	Manager  *auth.Manager
	Sessions sessions.Store
	Payments services.Payments
	Webhooks Webhooks
	Config   *shared.Config
	Logger   *log.Logger
}

// Handlers serves the API.
type Handlers struct {
	backend  models.Backend
	auth     services.Authenticator
	manager  *auth.Manager
	sessions sessions.Store
	payments services.Payments
	webhooks Webhooks
	cfg      *shared.Config
	logger   *log.Logger
	now      func() time.Time
}

// New builds the handlers. A nil Manager is created from Auth and the auth config.
func New(d Deps) *Handlers {
	if d.Config == nil {
		d.Config = shared.DefaultConfig()
	}
	if d.Logger == nil {
		d.Logger = shared.NewLogger(nil)
	}
	if d.Manager == nil {
		d.Manager = auth.NewManager(d.Auth, nil, d.Backend, d.Webhooks, d.Config.Auth, d.Logger)
	}
	if d.Sessions == nil {
		d.Sessions = sessions.NewMemoryStore(d.Config.Server.SessionTTL.Duration)
	}
	return &Handlers{
		backend:  d.Backend,
		auth:     d.Auth,
		manager:  d.Manager,
		sessions: d.Sessions,
		payments: d.Payments,
		webhooks: d.Webhooks,
		cfg:      d.Config,
		logger:   shared.WithLogger(d.Logger, "component", "functions"),
		now:      time.Now,
	}
}

// Router returns a [server.BasicRouter] with the global middleware stack and every route registered.
func (h *Handlers) Router() *server.BasicRouter {
	r := server.NewBasicRouter()
	r.Use(
		server.Recover(h.logger),
		server.RequestID(),
		server.Logging(h.logger),
		server.CORS(h.cfg.Server.AllowedOrigins),
	)
	h.Mount(r)
	return r
}

// Mount adds every route to r.
func (h *Handlers) Mount(r server.Router) {
	limit := server.RateLimit(h.cfg.RateLimit.Requests, h.cfg.RateLimit.Window.Duration)
	limited := func(f http.HandlerFunc) http.Handler { return limit(f) }
	protected := func(f http.HandlerFunc) http.Handler { return h.RequireSession(f) }

	r.HandleFunc(http.MethodPost, "/api/add-task", h.AddTask)
	r.HandleFunc(http.MethodPost, "/api/receive-checklist", h.ReceiveChecklist)
	r.Handle(http.MethodPost, "/api/create-checkout-session", limited(h.CreateCheckoutSession))
	r.Handle(http.MethodPost, "/api/create-payment-intent", limited(h.CreatePaymentIntent))
	r.HandleFunc(http.MethodPost, "/api/update-daily-evolution-tasks", h.UpdateDailyEvolutionTasks)
	r.HandleFunc(http.MethodPost, "/api/update-evolution-task", h.UpdateEvolutionTask)
	r.Handle(http.MethodPost, "/api/forward-user", limited(h.ForwardUser))
	r.Handle(http.MethodPost, "/api/consultations", limited(h.CreateConsultation))
	r.Handle(http.MethodPost, "/api/troubleshooting", limited(h.Troubleshooting))

	r.Handle(http.MethodPost, "/api/auth/register", limited(h.Register))
	r.Handle(http.MethodPost, "/api/auth/login", limited(h.Login))
	r.HandleFunc(http.MethodPost, "/api/auth/logout", h.Logout)
	r.HandleFunc(http.MethodGet, "/api/auth/session", h.Session)
	r.HandleFunc(http.MethodGet, "/api/auth/boot", h.Boot)
	r.HandleFunc(http.MethodGet, "/api/auth/breaker", h.BreakerStatus)
	r.HandleFunc(http.MethodPost, "/api/auth/breaker/reset", h.BreakerReset)

	r.Handle(http.MethodGet, "/api/tasks", protected(h.ListTasks))
	r.Handle(http.MethodPost, "/api/tasks", protected(h.CreateTask))
	r.Handle(http.MethodPost, "/api/tasks/{id}/toggle", protected(h.ToggleTask))
	r.Handle(http.MethodDelete, "/api/tasks/{id}", protected(h.DeleteTask))
	r.Handle(http.MethodGet, "/api/video-progress", protected(h.ListVideoProgress))
	r.Handle(http.MethodPost, "/api/video-progress/{video}/toggle", protected(h.ToggleVideo))

	r.HandleFunc(http.MethodGet, "/health", h.Health)
	r.Handle(http.MethodGet, "/metrics", metrics.Handler())

	r.Handler(web.NewHandler(h.authenticated, h.cfg.Server.PWA, h.logger))
}

func (h *Handlers) authenticated(r *http.Request) bool {
	state, _ := h.resolve(r.Context(), r)
	return state.Authenticated
}

// Health reports liveness and the auth breaker state.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"breaker": h.manager.Breaker().State(),
		"time":    h.now().UTC(),
	})
}

// fail logs err and writes msg with status.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	kv := []any{"path", r.URL.Path, "status", status, "request_id", server.RequestIDFrom(r.Context())}
	if err != nil {
		kv = append(kv, "err", err)
	}
	if status >= 500 {
		h.logger.Error(msg, kv...)
	} else {
		h.logger.Debug(msg, kv...)
	}
	server.WriteError(w, status, msg)
}
