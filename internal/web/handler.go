package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/secondbrain/internal/server"
	"github.com/desertthunder/secondbrain/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

var shell = template.Must(template.ParseFS(templateFS, "templates/shell.html"))

// AuthFunc reports whether r carries a valid session.
type AuthFunc func(r *http.Request) bool

// Handler renders pages behind the route guard.
type Handler struct {
	authenticated AuthFunc
	pwa           bool
	logger        *log.Logger
}

// NewHandler creates a page handler. pwa selects the installed-app root redirect.
func NewHandler(authenticated AuthFunc, pwa bool, logger *log.Logger) *Handler {
	return &Handler{authenticated: authenticated, pwa: pwa, logger: logger}
}

// Routes implements server.Handler. The catch-all pattern lets the guard answer 404s.
func (h *Handler) Routes() []string {
	return []string{"/"}
}

type shellData struct {
	Page  Page
	Nav   []Page
	Path  string
	Boot  string
	IsApp bool
}

// ServeHTTP applies [Resolve] and renders the shell or redirects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		server.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		server.WriteError(w, http.StatusMethodNotAllowed, shared.ErrMethodNotAllowed.Error())
		return
	}

	authed := h.authenticated != nil && NeedsAuth(r.URL.Path) && h.authenticated(r)
	d := Resolve(r.URL.Path, authed, h.pwa)

	if d.Redirect != "" {
		http.Redirect(w, r, d.Redirect, d.Status)
		return
	}

	data := shellData{Page: d.Page, Path: r.URL.Path, Boot: "/api/auth/boot", IsApp: d.Page.Section == App}
	if data.IsApp {
		data.Nav = AppPages
	} else {
		data.Nav = PublicPages
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(d.Status)
	if err := shell.Execute(w, data); err != nil && h.logger != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "err", err)
	}
}
