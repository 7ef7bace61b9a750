package usersrv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam"
	"github.com/karua/hostcore/pkg/iam/auth/authinfra"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/iam/user/usersrv"
	"github.com/karua/hostcore/pkg/iam/user/usertest"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatched struct {
	userID   kernel.UserID
	tenantID kernel.TenantID
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatched
}

func (d *recordingDispatcher) Dispatch(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatched{userID, tenantID})
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "h:" + pw, nil }
func (plainHasher) Compare(hash, pw string) bool   { return hash == "h:"+pw }

type revocations struct {
	cutoffs map[kernel.UserID]time.Time
}

func (r *revocations) Revoke(_ context.Context, id kernel.UserID, cutoff time.Time) error {
	r.cutoffs[id] = cutoff
	return nil
}

func (r *revocations) IsRevoked(_ context.Context, id kernel.UserID, issuedAt time.Time) (bool, error) {
	return issuedAt.UnixMilli() < r.cutoffs[id].UnixMilli(), nil
}

type fixture struct {
	svc     *usersrv.UserService
	repo    *usertest.Repository
	invites *recordingDispatcher
	revoked *revocations
	tenant  kernel.TenantID
	admin   *user.User
	manager *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenant := kernel.NewTenantID()
	mk := func(name string, role kernel.Role) *user.User {
		u, err := user.NewInvitedUser(tenant, name, name+"@pousada.com", name, role)
		require.NoError(t, err)
		u.PasswordHash = ptrx.To("h:s3cret!")
		u.IsFirstLogin = false
		return u
	}

	f := &fixture{
		invites: &recordingDispatcher{},
		revoked: &revocations{cutoffs: map[kernel.UserID]time.Time{}},
		tenant:  tenant,
		admin:   mk("root", kernel.RoleAdmin),
		manager: mk("gerente", kernel.RoleManager),
	}
	f.repo = usertest.NewRepository(f.admin, f.manager)
	f.svc = usersrv.NewUserService(f.repo, plainHasher{}, f.invites, f.revoked, authinfra.NewLogxAuditService(), 6)
	return f
}

func actorOf(u *user.User) *kernel.AuthContext {
	return &kernel.AuthContext{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
		IssuedAt: time.Now().Add(-time.Minute),
	}
}

func TestInviteCreatesUserWithoutPasswordAndDispatches(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Invite(context.Background(), actorOf(f.manager), usersrv.InviteUserRequest{
		Name: "Bia", Email: "Bia@Pousada.com", Username: "bia", Role: kernel.RoleReceptionist,
	})
	require.NoError(t, err)

	assert.Equal(t, f.tenant, u.TenantID)
	assert.Equal(t, "bia@pousada.com", u.Email)
	assert.True(t, u.RequiresPasswordSetup())
	require.Len(t, f.invites.calls, 1)
	assert.Equal(t, dispatched{u.ID, f.tenant}, f.invites.calls[0])
}

func TestInviteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Invite(ctx, actorOf(f.manager), usersrv.InviteUserRequest{
		Name: "Boss", Email: "boss@pousada.com", Username: "boss", Role: kernel.RoleAdmin,
	})
	assert.True(t, errx.IsCode(err, user.CodeRoleNotAssignable))

	_, err = f.svc.Invite(ctx, actorOf(f.admin), usersrv.InviteUserRequest{
		Name: "Dup", Email: "gerente@pousada.com", Username: "other", Role: kernel.RoleStaff,
	})
	assert.True(t, errx.IsCode(err, user.CodeEmailAlreadyExists))

	_, err = f.svc.Invite(ctx, actorOf(f.admin), usersrv.InviteUserRequest{
		Name: "Dup", Email: "new@pousada.com", Username: "gerente", Role: kernel.RoleStaff,
	})
	assert.True(t, errx.IsCode(err, user.CodeUsernameAlreadyExists))

	_, err = f.svc.Invite(ctx, actorOf(f.admin), usersrv.InviteUserRequest{
		Name: "X", Email: "x@pousada.com", Username: "xx1", Role: "owner",
	})
	assert.True(t, errx.IsCode(err, user.CodeInvalidRole))

	assert.Empty(t, f.invites.calls)
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	outsider := &kernel.AuthContext{UserID: kernel.NewUserID(), TenantID: kernel.NewTenantID(), Role: kernel.RoleAdmin}

	_, err := f.svc.Get(ctx, outsider.TenantID, f.manager.ID)
	assert.True(t, errx.IsCode(err, user.CodeUserNotFound))

	_, err = f.svc.Update(ctx, outsider, f.manager.ID, user.Patch{Name: ptrx.To("Hacked")})
	assert.True(t, errx.IsCode(err, user.CodeUserNotFound))

	_, err = f.svc.Deactivate(ctx, outsider, f.manager.ID)
	assert.True(t, errx.IsCode(err, user.CodeUserNotFound))

	err = f.svc.Delete(ctx, outsider, f.manager.ID)
	assert.True(t, errx.IsCode(err, user.CodeUserNotFound))

	list, err := f.svc.List(ctx, outsider.TenantID)
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, _ := f.repo.Get(f.manager.ID)
	assert.True(t, stored.IsActive)
	assert.Equal(t, "gerente", stored.Name)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updated, err := f.svc.Update(ctx, actorOf(f.admin), f.manager.ID, user.Patch{
		Name:  ptrx.To("Gerente Geral"),
		Email: ptrx.To("GERAL@pousada.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gerente Geral", updated.Name)
	assert.Equal(t, "geral@pousada.com", updated.Email)

	_, err = f.svc.Update(ctx, actorOf(f.admin), f.manager.ID, user.Patch{Username: ptrx.To("root")})
	assert.True(t, errx.IsCode(err, user.CodeUsernameAlreadyExists))

	_, err = f.svc.Update(ctx, actorOf(f.manager), f.admin.ID, user.Patch{Name: ptrx.To("Demoted")})
	assert.True(t, errx.IsCode(err, user.CodeRoleNotAssignable))

	admin := kernel.RoleAdmin
	_, err = f.svc.Update(ctx, actorOf(f.manager), f.manager.ID, user.Patch{Role: &admin})
	assert.True(t, errx.IsCode(err, user.CodeRoleNotAssignable))

	staff := kernel.RoleStaff
	_, err = f.svc.Update(ctx, actorOf(f.admin), f.admin.ID, user.Patch{Role: &staff})
	assert.True(t, errx.IsCode(err, user.CodeCannotModifySelf))

	_, err = f.svc.Update(ctx, actorOf(f.admin), f.manager.ID, user.Patch{})
	assert.True(t, errx.IsCode(err, user.CodeInvalidUserData))
}

func TestDeactivateRevokesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued := time.Now()

	u, err := f.svc.Deactivate(ctx, actorOf(f.admin), f.manager.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	revoked, err := f.revoked.IsRevoked(ctx, f.manager.ID, issued)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = f.revoked.IsRevoked(ctx, f.manager.ID, time.Now().Add(300*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, revoked, "a login right after reactivation is not revoked")

	u, err = f.svc.Activate(ctx, actorOf(f.admin), f.manager.ID)
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, err = f.svc.Deactivate(ctx, actorOf(f.admin), f.admin.ID)
	assert.True(t, errx.IsCode(err, user.CodeCannotModifySelf))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorOf(f.manager)

	err := f.svc.ChangePassword(ctx, actor, usersrv.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "n3wpass"})
	assert.True(t, errx.IsCode(err, iam.CodeInvalidCredentials))

	err = f.svc.ChangePassword(ctx, actor, usersrv.ChangePasswordRequest{CurrentPassword: "s3cret!", NewPassword: "abc"})
	assert.Error(t, err)

	require.NoError(t, f.svc.ChangePassword(ctx, actor, usersrv.ChangePasswordRequest{CurrentPassword: "s3cret!", NewPassword: "n3wpass"}))

	stored, _ := f.repo.Get(f.manager.ID)
	assert.Equal(t, "h:n3wpass", *stored.PasswordHash)
	assert.Equal(t, actor.IssuedAt, f.revoked.cutoffs[f.manager.ID])
}

func TestResendInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.ResendInvite(ctx, actorOf(f.admin), f.manager.ID)
	assert.True(t, errx.IsCode(err, user.CodePasswordAlreadySet))

	u, err := f.svc.Invite(ctx, actorOf(f.admin), usersrv.InviteUserRequest{
		Name: "Bia", Email: "bia@pousada.com", Username: "bia", Role: kernel.RoleStaff,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.ResendInvite(ctx, actorOf(f.admin), u.ID))
	assert.Len(t, f.invites.calls, 2)
}

func TestRolesCatalog(t *testing.T) {
	f := newFixture(t)
	roles := f.svc.Roles()
	require.Len(t, roles, 4)
	assert.Equal(t, kernel.RoleAdmin, roles[0].Role)
	assert.NotEmpty(t, roles[3].Description)
}
