package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
	"github.com/caparizon/qa-dashboard/internal/pkg/schema"
)

// privilegeFetchLimit caps concurrent privilege lookups when listing users.
const privilegeFetchLimit = 4

// SnapshotSource exposes the signed-in session to services that need it.
type SnapshotSource interface {
	Snapshot() ports.SessionSnapshot
}

type userAdminService struct {
	backend  ports.UserAdminBackend
	resolver *PrivilegeResolver
	session  SnapshotSource
	log      zerolog.Logger
}

// NewUserAdminService returns a UserAdminService backed by the REST API.
func NewUserAdminService(
	backend ports.UserAdminBackend,
	fetcher PrivilegeFetcher,
	session SnapshotSource,
	log zerolog.Logger,
) ports.UserAdminService {
	return &userAdminService{
		backend:  backend,
		resolver: NewPrivilegeResolver(fetcher, log),
		session:  session,
		log:      log,
	}
}

// ListUsers returns every user with the tabs granted to them. The signed-in
// identity is included even when the backend list omits it. A user whose
// privileges cannot be fetched is listed with no tabs.
func (s *userAdminService) ListUsers(ctx context.Context) ([]domain.ManagedUser, error) {
	identities, err := s.backend.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	if snap := s.session.Snapshot(); snap.LoggedIn() {
		found := slices.ContainsFunc(identities, func(id domain.Identity) bool {
			return id.ID == snap.Identity.ID
		})
		if !found {
			identities = append(identities, *snap.Identity)
		}
	}

	users := make([]domain.ManagedUser, len(identities))
	var eg errgroup.Group
	eg.SetLimit(privilegeFetchLimit)
	for i, identity := range identities {
		eg.Go(func() error {
			tabs := []string{}
			if identity.IsAdmin() {
				tabs = allTabPaths()
			} else {
				tabs = append(tabs, s.resolver.Fetch(ctx, identity.ID).Granted()...)
			}
			users[i] = domain.ManagedUser{Identity: identity, Tabs: tabs}
			return nil
		})
	}
	_ = eg.Wait()

	s.log.Debug().Int("count", len(users)).Msg("listed users")
	return users, nil
}

// CreateUser validates the request and asks the backend to create the account.
// The new user starts with no tabs granted.
func (s *userAdminService) CreateUser(ctx context.Context, user domain.NewUser) (domain.Identity, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	user.EmployeeID = domain.EmployeeID(strings.TrimSpace(string(user.EmployeeID)))
	if err := schema.NewUser(user); err != nil {
		return domain.Identity{}, err
	}

	created, err := s.backend.CreateUser(ctx, user)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Int64("identity_id", created.ID).Str("username", created.Username).Msg("user created")
	return created, nil
}

// SetTabs replaces the assignable grants of a user. Tabs not listed are
// revoked; tabs outside the assignable set are rejected.
func (s *userAdminService) SetTabs(ctx context.Context, identityID int64, tabs []string) error {
	if identityID <= 0 {
		return &domain.ValidationError{Message: "invalid user id"}
	}
	for _, tab := range tabs {
		if !slices.Contains(domain.AssignableTabs, tab) {
			return &domain.ValidationError{Message: fmt.Sprintf("tab %q cannot be assigned", tab)}
		}
	}

	grants := make([]ports.PrivilegeGrant, 0, len(domain.AssignableTabs))
	for _, tab := range domain.AssignableTabs {
		grants = append(grants, ports.PrivilegeGrant{
			TabName:   tab,
			HasAccess: slices.Contains(tabs, tab),
		})
	}

	if err := s.backend.SetPrivileges(ctx, identityID, grants); err != nil {
		return fmt.Errorf("set privileges: %w", err)
	}
	s.log.Info().Int64("identity_id", identityID).Strs("tabs", tabs).Msg("privileges updated")
	return nil
}

// DeleteUser removes a user. The signed-in identity cannot delete itself.
func (s *userAdminService) DeleteUser(ctx context.Context, identityID int64) error {
	if identityID <= 0 {
		return &domain.ValidationError{Message: "invalid user id"}
	}
	if snap := s.session.Snapshot(); snap.LoggedIn() && snap.Identity.ID == identityID {
		return &domain.ValidationError{Message: "cannot delete the signed-in user"}
	}
	if err := s.backend.DeleteUser(ctx, identityID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Int64("identity_id", identityID).Msg("user deleted")
	return nil
}

func allTabPaths() []string {
	out := make([]string, 0, len(domain.Tabs))
	for _, t := range domain.Tabs {
		out = append(out, t.Path)
	}
	return out
}
