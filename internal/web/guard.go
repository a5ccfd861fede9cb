package web

import (
	"net/http"
	"net/url"
	"strings"
)

// Decision is the outcome of routing a path.
type Decision struct {
	Status   int
	Redirect string
	Page     Page
}

// NotFoundPage renders for unknown paths.
var NotFoundPage = Page{Path: "", Title: "Page Not Found", Section: Public}

// Resolve routes path for a visitor. pwa selects the installed-app root behaviour.
func Resolve(path string, authenticated, pwa bool) Decision {
	path = normalize(path)

	switch {
	case path == "/":
		return redirect(rootTarget(authenticated, pwa))
	case path == appPrefix:
		if !authenticated {
			return redirect(loginFrom(path))
		}
		return redirect(DashboardPath)
	case strings.HasPrefix(path, appPrefix+"/") && !authenticated:
		return redirect(loginFrom(path))
	}

	page, ok := pages[path]
	if !ok {
		return Decision{Status: http.StatusNotFound, Page: NotFoundPage}
	}

	switch page.Section {
	case AuthForm:
		if authenticated {
			return redirect(DashboardPath)
		}
	case App:
		if !authenticated {
			return redirect(loginFrom(path))
		}
	}
	return Decision{Status: http.StatusOK, Page: page}
}

// NeedsAuth reports whether [Resolve] depends on the session for path.
// Public pages and unknown paths outside the app prefix never do.
func NeedsAuth(path string) bool {
	path = normalize(path)
	if path == "/" || path == appPrefix || strings.HasPrefix(path, appPrefix+"/") {
		return true
	}
	page, ok := pages[path]
	return ok && page.Section == AuthForm
}

func rootTarget(authenticated, pwa bool) string {
	switch {
	case authenticated:
		return DashboardPath
	case pwa:
		return LoginPath
	default:
		return HomePath
	}
}

func loginFrom(path string) string {
	return LoginPath + "?from=" + url.QueryEscape(path)
}

func redirect(to string) Decision {
	return Decision{Status: http.StatusFound, Redirect: to}
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}
