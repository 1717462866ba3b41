package ports

import (
	"context"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

// AuthBackend is the slice of the dashboard REST API the session layer calls.
type AuthBackend interface {
	// Login returns domain.ErrInvalidCredentials on a rejected login and
	// domain.ErrDeserialization when the reply carries no valid user.
	Login(ctx context.Context, username, password string) (domain.Identity, error)
	FetchPrivileges(ctx context.Context, identityID int64) (domain.PrivilegeSet, error)
	// UpdateIdentity returns *domain.ValidationError when the backend rejects
	// the change.
	UpdateIdentity(ctx context.Context, identityID int64, patch domain.IdentityPatch) (domain.Identity, error)
	RequestPasswordReset(ctx context.Context, username string) (string, error)
}

// PrivilegeGrant is one row of the backend's privilege upsert payload.
type PrivilegeGrant struct {
	TabName   string `json:"tab_name"`
	HasAccess bool   `json:"has_access"`
}

// UserAdminBackend is the user-manager slice of the REST API.
type UserAdminBackend interface {
	ListUsers(ctx context.Context) ([]domain.Identity, error)
	// CreateUser returns *domain.ValidationError when the backend rejects the
	// account, for example on a duplicate employee id.
	CreateUser(ctx context.Context, user domain.NewUser) (domain.Identity, error)
	SetPrivileges(ctx context.Context, identityID int64, grants []PrivilegeGrant) error
	DeleteUser(ctx context.Context, identityID int64) error
}
