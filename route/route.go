package route

import (
	"strings"

	"github.com/RaiAbdullah1800/AiMed/session"
)

// Route is an application view path
type Route string

const (
	Login        Route = "/login"
	Signup       Route = "/signup"
	Root         Route = "/"
	Admin        Route = "/admin"
	Chat         Route = "/chat"
	Appointments Route = "/appointments"
	TextToVoice  Route = "/text-to-voice"
)

// Public reports whether r is reachable without a session
func (r Route) Public() bool {
	return r == Login || r == Signup
}

// Decision is the outcome of resolving a requested path
type Decision struct {
	Route Route
	// Redirected is set when Route differs from what was asked for
	Redirected bool
	// Suspended is set while startup validation is pending; Route then holds
	// the request, which is resolved again once loading ends
	Suspended bool
}

// Default is where "/" and unknown paths lead
func Default(s *session.Session) Route {
	switch {
	case s == nil:
		return Login
	case s.IsAdmin():
		return Admin
	default:
		return Chat
	}
}

// AdminGuard admits admins only. It returns the redirect target when the
// session is refused.
func AdminGuard(s *session.Session) (Route, bool) {
	switch {
	case s == nil:
		return Login, false
	case !s.IsAdmin():
		return Chat, false
	default:
		return "", true
	}
}

// UserGuard admits any authenticated session, admins included
func UserGuard(s *session.Session) (Route, bool) {
	if s == nil {
		return Login, false
	}
	return "", true
}

// Normalize trims a path into route form
func Normalize(path string) Route {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return Route(path)
}

// Resolve decides which view a request for path ends up on
func Resolve(path string, s *session.Session, loading bool) Decision {
	requested := Normalize(path)
	if loading {
		return Decision{Route: requested, Suspended: true}
	}

	var guard func(*session.Session) (Route, bool)
	switch requested {
	case Login, Signup:
		if s != nil {
			return Decision{Route: Default(s), Redirected: true}
		}
		return Decision{Route: requested}
	case Admin:
		guard = AdminGuard
	case Chat, Appointments, TextToVoice:
		guard = UserGuard
	default:
		return Decision{Route: Default(s), Redirected: true}
	}

	if target, ok := guard(s); !ok {
		return Decision{Route: target, Redirected: true}
	}
	return Decision{Route: requested}
}
