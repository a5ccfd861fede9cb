// Package web serves the site's page shell and enforces the route guard.
//
// # Routes
//
// Public marketing pages render for everyone. /login and /register redirect signed-in users to the
// dashboard. Everything under /app requires a session; anonymous visitors are sent to /login with
// the original path in the from parameter. The root path redirects based on auth state and PWA mode.
//
// # Rendering
//
// Page bodies are client-side concerns, so the server renders one embedded shell template per
// request carrying the page title, the navigation for its section and the boot endpoint that
// resolves the session.
package web

// Section groups pages that share a layout.
type Section int

const (
	Public Section = iota
	AuthForm
	App
)

// Page is a routable page.
type Page struct {
	Path    string
	Title   string
	Section Section
}

// Paths used by redirects.
const (
	HomePath      = "/home"
	LoginPath     = "/login"
	DashboardPath = "/app/dashboard"
	appPrefix     = "/app"
)

// PublicPages are reachable without a session.
var PublicPages = []Page{
	{"/home", "Home", Public},
	{"/about", "About", Public},
	{"/careers", "Careers", Public},
	{"/blog", "Blog", Public},
	{"/documentation", "Documentation", Public},
	{"/support", "Support", Public},
	{"/resources", "Resources", Public},
	{"/privacy", "Privacy Policy", Public},
	{"/terms", "Terms of Service", Public},
	{"/security", "Security", Public},
	{"/services", "Services", Public},
	{"/second-brain", "Second Brain", Public},
	{"/troubleshooting", "Troubleshooting", Public},
	{"/account-created", "Account Created", Public},
}

// AuthPages redirect to the dashboard once signed in.
var AuthPages = []Page{
	{"/login", "Sign In", AuthForm},
	{"/register", "Create Account", AuthForm},
}

// AppPages live under /app and require a session.
var AppPages = []Page{
	{"/app/dashboard", "Dashboard", App},
	{"/app/connect", "Connect", App},
	{"/app/daily-checklist", "Daily Checklist", App},
	{"/app/progress-goals", "Progress & Goals", App},
	{"/app/resources", "Resources", App},
}

var pages = func() map[string]Page {
	m := make(map[string]Page)
	for _, group := range [][]Page{PublicPages, AuthPages, AppPages} {
		for _, p := range group {
			m[p.Path] = p
		}
	}
	return m
}()
