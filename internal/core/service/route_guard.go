package service

import (
	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

// Decision is the outcome of guarding a route.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Allowed applies the access rules to an identity and its privileges:
// nobody logged in is denied, "/" is open to everyone logged in, admins may
// open anything, and everyone else needs an explicit grant.
func Allowed(identity *domain.Identity, privileges domain.PrivilegeSet, path string) bool {
	if identity == nil {
		return false
	}
	if path == domain.RootPath {
		return true
	}
	if identity.IsAdmin() {
		return true
	}
	return privileges.Allows(path)
}

// Guard decides whether the session may render the view at path. The rules
// are evaluated in order and the first match wins.
func Guard(s ports.SessionSnapshot, path string) Decision {
	if !s.LoggedIn() {
		return RedirectLogin
	}
	if path != domain.RootPath && !Allowed(s.Identity, s.Privileges, path) {
		return RedirectHome
	}
	if !s.Identity.IsAdmin() && len(s.Privileges) == 0 && path != domain.RootPath {
		return RedirectHome
	}
	return Allow
}
