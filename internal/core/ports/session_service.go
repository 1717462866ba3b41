package ports

import (
	"context"
	"time"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

// Clock abstracts time so expiry can be tested.
type Clock interface {
	Now() time.Time
}

// SessionSnapshot is a consistent copy of the manager state.
type SessionSnapshot struct {
	Identity   *domain.Identity
	Privileges domain.PrivilegeSet
	LoginTime  time.Time
	ExpiresAt  time.Time
}

// LoggedIn reports whether the snapshot holds an identity.
func (s SessionSnapshot) LoggedIn() bool {
	return s.Identity != nil
}

// SessionService is what the gateway handlers need from the session manager.
type SessionService interface {
	Login(ctx context.Context, username, password string) bool
	Logout(ctx context.Context)
	Snapshot() SessionSnapshot
	HasAccess(path string) bool
	UpdateIdentity(ctx context.Context, patch domain.IdentityPatch) (domain.Identity, error)
	RequestPasswordReset(ctx context.Context, username string) (string, error)
}

// UserAdminService backs the user-manager screen.
type UserAdminService interface {
	ListUsers(ctx context.Context) ([]domain.ManagedUser, error)
	CreateUser(ctx context.Context, user domain.NewUser) (domain.Identity, error)
	SetTabs(ctx context.Context, identityID int64, tabs []string) error
	DeleteUser(ctx context.Context, identityID int64) error
}
