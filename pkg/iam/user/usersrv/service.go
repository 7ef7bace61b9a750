package usersrv

import (
	"context"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/invitation"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
)

// UserService manages the accounts of one host on behalf of its admins and
// managers. The tenant always comes from the acting user.
type UserService struct {
	users             user.Repository
	passwords         user.PasswordHasher
	invites           invitation.Dispatcher
	revocations       auth.RevocationStore
	audit             auth.AuditService
	minPasswordLength int
	now               func() time.Time
}

// NewUserService wires the service. revocations may be nil.
func NewUserService(
	users user.Repository,
	passwords user.PasswordHasher,
	invites invitation.Dispatcher,
	revocations auth.RevocationStore,
	audit auth.AuditService,
	minPasswordLength int,
) *UserService {
	if minPasswordLength <= 0 {
		minPasswordLength = 6
	}
	return &UserService{
		users:             users,
		passwords:         passwords,
		invites:           invites,
		revocations:       revocations,
		audit:             audit,
		minPasswordLength: minPasswordLength,
		now:               time.Now,
	}
}

// ============================================================================
// Requests
// ============================================================================

type InviteUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     kernel.Role `json:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// RoleInfo is an entry of the role catalog.
type RoleInfo struct {
	Role        kernel.Role `json:"role"`
	Description string      `json:"description"`
}

// ============================================================================
// Operations
// ============================================================================

// Invite creates a user without a password in the actor's tenant and
// dispatches the invite. A failed dispatch is logged; the invite can be
// resent.
func (s *UserService) Invite(ctx context.Context, actor *kernel.AuthContext, req InviteUserRequest) (*user.User, error) {
	return s.invite(ctx, actor.TenantID, actor, req)
}

// InviteToHost is Invite for a tenant chosen by a global admin.
func (s *UserService) InviteToHost(ctx context.Context, tenantID kernel.TenantID, actor *kernel.AuthContext, req InviteUserRequest) (*user.User, error) {
	return s.invite(ctx, tenantID, actor, req)
}

func (s *UserService) invite(ctx context.Context, tenantID kernel.TenantID, actor *kernel.AuthContext, req InviteUserRequest) (*user.User, error) {
	if err := canAssign(actor, req.Role); err != nil {
		return nil, err
	}

	u, err := user.NewInvitedUser(tenantID, req.Name, req.Email, req.Username, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, u.Email, u.Username, ""); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, *u); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"user_id":   u.ID.String(),
		"tenant_id": u.TenantID.String(),
		"role":      string(u.Role),
	}).Info("user invited")

	s.dispatch(ctx, u)
	return u, nil
}

// ResendInvite issues a new code to a user who has not set a password yet.
func (s *UserService) ResendInvite(ctx context.Context, actor *kernel.AuthContext, id kernel.UserID) error {
	u, err := s.users.FindByID(ctx, id, actor.TenantID)
	if err != nil {
		return err
	}
	if u.HasPassword() {
		return user.ErrPasswordAlreadySet()
	}
	if !u.IsActive {
		return invitation.ErrUserInactive()
	}
	return s.invites.Dispatch(ctx, u.ID, u.TenantID)
}

func (s *UserService) List(ctx context.Context, tenantID kernel.TenantID) ([]user.UserResponse, error) {
	users, err := s.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]user.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) (*user.User, error) {
	return s.users.FindByID(ctx, id, tenantID)
}

// Update applies a profile patch. Managers can neither promote to admin nor
// edit admins.
func (s *UserService) Update(ctx context.Context, actor *kernel.AuthContext, id kernel.UserID, patch user.Patch) (*user.User, error) {
	if patch.IsEmpty() {
		return nil, user.ErrInvalidUserData().WithDetail("reason", "no fields to update")
	}

	current, err := s.users.FindByID(ctx, id, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if err := canAssign(actor, current.Role); err != nil {
		return nil, err
	}
	if patch.Role != nil {
		if err := canAssign(actor, *patch.Role); err != nil {
			return nil, err
		}
		if current.ID == actor.UserID && *patch.Role != current.Role {
			return nil, user.ErrCannotModifySelf().WithDetail("field", "role")
		}
	}

	next, err := current.Apply(patch, s.now().UTC())
	if err != nil {
		return nil, err
	}

	var email, username string
	if next.Email != current.Email {
		email = next.Email
	}
	if next.Username != current.Username {
		username = next.Username
	}
	if err := s.ensureUnique(ctx, email, username, current.ID); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *UserService) Activate(ctx context.Context, actor *kernel.AuthContext, id kernel.UserID) (*user.User, error) {
	return s.setActive(ctx, actor, id, true)
}

// Deactivate blocks sign-in and refresh. With a denylist configured, the
// user's outstanding tokens stop passing the gate immediately.
func (s *UserService) Deactivate(ctx context.Context, actor *kernel.AuthContext, id kernel.UserID) (*user.User, error) {
	u, err := s.setActive(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	s.revokeBefore(ctx, u.ID, s.now().Add(time.Millisecond))
	return u, nil
}

func (s *UserService) setActive(ctx context.Context, actor *kernel.AuthContext, id kernel.UserID, active bool) (*user.User, error) {
	if id == actor.UserID {
		return nil, user.ErrCannotModifySelf()
	}
	if err := s.users.SetActive(ctx, id, actor.TenantID, active); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id, actor.TenantID)
}

func (s *UserService) Delete(ctx context.Context, actor *kernel.AuthContext, id kernel.UserID) error {
	if id == actor.UserID {
		return user.ErrCannotModifySelf()
	}
	if err := s.users.Delete(ctx, id, actor.TenantID); err != nil {
		return err
	}
	s.revokeBefore(ctx, id, s.now().Add(time.Millisecond))
	return nil
}

// ChangePassword requires the current password. Tokens issued before the
// caller's current one are revoked.
func (s *UserService) ChangePassword(ctx context.Context, actor *kernel.AuthContext, req ChangePasswordRequest) error {
	if err := s.changePassword(ctx, actor.TenantID, actor.UserID, req); err != nil {
		return err
	}
	if !actor.IssuedAt.IsZero() {
		s.revokeBefore(ctx, actor.UserID, actor.IssuedAt)
	}
	return nil
}

// ChangeUserPassword is ChangePassword run by a global admin on a user of
// tenantID. The current password is still required and every outstanding
// token of the user is revoked.
func (s *UserService) ChangeUserPassword(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID, req ChangePasswordRequest) error {
	if err := s.changePassword(ctx, tenantID, id, req); err != nil {
		return err
	}
	s.revokeBefore(ctx, id, s.now().Add(time.Millisecond))
	return nil
}

func (s *UserService) changePassword(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID, req ChangePasswordRequest) error {
	if len(req.NewPassword) < s.minPasswordLength {
		return auth.ErrInvalidRequest("newPassword").WithDetail("min_length", s.minPasswordLength)
	}

	u, err := s.users.FindByID(ctx, id, tenantID)
	if err != nil {
		return err
	}
	if !u.HasPassword() || !s.passwords.Compare(*u.PasswordHash, req.CurrentPassword) {
		return iam.ErrInvalidCredentials()
	}

	hash, err := s.passwords.Hash(req.NewPassword)
	if err != nil {
		return errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, u.TenantID, hash); err != nil {
		return err
	}

	s.audit.LogPasswordChanged(ctx, u.ID, u.TenantID)
	return nil
}

// Roles returns the role catalog, most privileged first.
func (s *UserService) Roles() []RoleInfo {
	out := make([]RoleInfo, len(kernel.Roles))
	for i, r := range kernel.Roles {
		out[i] = RoleInfo{Role: r, Description: r.Description()}
	}
	return out
}

// ============================================================================
// Helpers
// ============================================================================

// canAssign rejects managers touching the admin role.
func canAssign(actor *kernel.AuthContext, role kernel.Role) error {
	if !role.IsValid() {
		return user.ErrInvalidRole().WithDetail("role", string(role))
	}
	if role == kernel.RoleAdmin && !actor.IsAdmin() {
		return user.ErrRoleNotAssignable().WithDetail("role", string(role))
	}
	return nil
}

// ensureUnique checks the non-empty values against every tenant, matching
// the global unique indexes.
func (s *UserService) ensureUnique(ctx context.Context, email, username string, excludeID kernel.UserID) error {
	if email != "" {
		exists, err := s.users.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return user.ErrEmailAlreadyExists()
		}
	}
	if username != "" {
		exists, err := s.users.ExistsByUsername(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return user.ErrUsernameAlreadyExists()
		}
	}
	return nil
}

func (s *UserService) dispatch(ctx context.Context, u *user.User) {
	if err := s.invites.Dispatch(ctx, u.ID, u.TenantID); err != nil {
		logx.WithContext(ctx).WithError(err).WithField("user_id", u.ID.String()).Error("failed to dispatch invite")
	}
}

func (s *UserService) revokeBefore(ctx context.Context, id kernel.UserID, cutoff time.Time) {
	if s.revocations == nil {
		return
	}
	if err := s.revocations.Revoke(ctx, id, cutoff); err != nil {
		logx.WithContext(ctx).WithError(err).WithField("user_id", id.String()).Warn("failed to revoke tokens")
	}
}
