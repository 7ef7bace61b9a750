package userapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/auth/authinfra"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/iam/user/userapi"
	"github.com/karua/hostcore/pkg/iam/user/usersrv"
	"github.com/karua/hostcore/pkg/iam/user/usertest"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDispatcher struct{ count int }

func (d *nopDispatcher) Dispatch(context.Context, kernel.UserID, kernel.TenantID) error {
	d.count++
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "h:" + pw, nil }
func (plainHasher) Compare(hash, pw string) bool   { return hash == "h:"+pw }

type harness struct {
	app      *fiber.App
	repo     *usertest.Repository
	tokens   *auth.JWTService
	invites  *nopDispatcher
	tenant   kernel.TenantID
	platform kernel.TenantID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:     usertest.NewRepository(),
		tokens:   auth.NewJWTService("userapi-test-secret-0123456789abcdef", time.Hour, "hostcore"),
		invites:  &nopDispatcher{},
		tenant:   kernel.NewTenantID(),
		platform: kernel.NewTenantID(),
	}
	mw := auth.NewAuthMiddleware(h.tokens, nil, "", h.platform)
	svc := usersrv.NewUserService(h.repo, plainHasher{}, h.invites, nil, authinfra.NewLogxAuditService(), 6)

	h.app = fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(false)})
	userapi.NewUserHandlers(svc, mw).RegisterRoutes(h.app)
	return h
}

func (h *harness) seed(t *testing.T, tenant kernel.TenantID, username string, role kernel.Role) (*user.User, string) {
	t.Helper()
	hash := "h:s3cret!"
	u := &user.User{
		ID:           kernel.NewUserID(),
		TenantID:     tenant,
		Name:         username,
		Email:        username + "@pousada.com",
		Username:     username,
		PasswordHash: &hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, h.repo.Create(context.Background(), *u))

	token, _, err := h.tokens.Issue(auth.Identity{
		UserID: u.ID, TenantID: u.TenantID, Email: u.Email, Username: u.Username, Role: u.Role,
	})
	require.NoError(t, err)
	return u, token
}

func (h *harness) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestInviteAndList(t *testing.T) {
	h := newHarness(t)
	_, managerToken := h.seed(t, h.tenant, "gerente", kernel.RoleManager)

	resp := h.do(t, http.MethodPost, "/users", managerToken,
		`{"name":"Bia","email":"bia@pousada.com","username":"bia","role":"receptionist"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]interface{}](t, resp)
	assert.Equal(t, string(h.tenant), created["hostId"])
	assert.Equal(t, true, created["requiresPasswordSetup"])
	assert.NotContains(t, created, "password")
	assert.Equal(t, 1, h.invites.count)

	resp = h.do(t, http.MethodGet, "/users", managerToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]user.UserResponse](t, resp), 2)
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	staff, staffToken := h.seed(t, h.tenant, "camareira", kernel.RoleStaff)
	_, managerToken := h.seed(t, h.tenant, "gerente", kernel.RoleManager)

	resp := h.do(t, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "IAM_UNAUTHORIZED", decode[map[string]interface{}](t, resp)["code"])

	resp = h.do(t, http.MethodGet, "/users", staffToken, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "IAM_FORBIDDEN", decode[map[string]interface{}](t, resp)["code"])

	resp = h.do(t, http.MethodGet, "/users/roles", staffToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]usersrv.RoleInfo](t, resp), 4)

	resp = h.do(t, http.MethodPatch, "/users/"+staff.ID.String()+"/deactivate", managerToken, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/users", managerToken,
		`{"name":"Boss","email":"boss@pousada.com","username":"boss","role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "USER_ROLE_NOT_ASSIGNABLE", decode[map[string]interface{}](t, resp)["code"])
}

func TestCrossTenantLookupIsNotFound(t *testing.T) {
	h := newHarness(t)
	other, _ := h.seed(t, kernel.NewTenantID(), "vizinho", kernel.RoleStaff)
	_, adminToken := h.seed(t, h.tenant, "root", kernel.RoleAdmin)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users/" + other.ID.String()},
		{http.MethodPatch, "/users/" + other.ID.String() + "/deactivate"},
		{http.MethodDelete, "/users/" + other.ID.String()},
		{http.MethodGet, "/users/not-a-uuid"},
	} {
		resp := h.do(t, tc.method, tc.path, adminToken, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, tc.path)
		assert.Equal(t, "USER_NOT_FOUND", decode[map[string]interface{}](t, resp)["code"], tc.path)
	}

	stored, ok := h.repo.Get(other.ID)
	require.True(t, ok)
	assert.True(t, stored.IsActive)
}

func TestUpdateAndDeactivate(t *testing.T) {
	h := newHarness(t)
	target, _ := h.seed(t, h.tenant, "recepcao", kernel.RoleReceptionist)
	admin, adminToken := h.seed(t, h.tenant, "root", kernel.RoleAdmin)

	resp := h.do(t, http.MethodPatch, "/users/"+target.ID.String(), adminToken, `{"name":"Recepção","role":"manager"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[user.UserResponse](t, resp)
	assert.Equal(t, "Recepção", updated.Name)
	assert.Equal(t, kernel.RoleManager, updated.Role)

	resp = h.do(t, http.MethodPatch, "/users/"+target.ID.String()+"/deactivate", adminToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[user.UserResponse](t, resp).IsActive)

	resp = h.do(t, http.MethodDelete, "/users/"+admin.ID.String(), adminToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodDelete, "/users/"+target.ID.String(), adminToken, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := h.repo.Get(target.ID)
	assert.False(t, ok)
}

func TestChangeOwnPassword(t *testing.T) {
	h := newHarness(t)
	staff, staffToken := h.seed(t, h.tenant, "camareira", kernel.RoleStaff)

	resp := h.do(t, http.MethodPatch, "/users/me/password", staffToken, `{"currentPassword":"nope","newPassword":"n3wpass"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = h.do(t, http.MethodPatch, "/users/me/password", staffToken, `{"currentPassword":"s3cret!","newPassword":"n3wpass"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	stored, _ := h.repo.Get(staff.ID)
	assert.Equal(t, "h:n3wpass", *stored.PasswordHash)
}

func TestPlatformRoutes(t *testing.T) {
	h := newHarness(t)
	_, hostAdminToken := h.seed(t, h.tenant, "root", kernel.RoleAdmin)
	_, platformToken := h.seed(t, h.platform, "plataforma", kernel.RoleAdmin)

	path := "/admin/hosts/" + h.tenant.String() + "/users"

	resp := h.do(t, http.MethodGet, path, hostAdminToken, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(t, http.MethodPost, path, platformToken,
		`{"name":"Dona","email":"dona@pousada.com","username":"dona","role":"admin"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, h.tenant, decode[user.UserResponse](t, resp).TenantID)

	resp = h.do(t, http.MethodGet, path, platformToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]user.UserResponse](t, resp), 2)
}

func TestPlatformManagesUsersOfAnyHost(t *testing.T) {
	h := newHarness(t)
	target, _ := h.seed(t, h.tenant, "recepcao", kernel.RoleReceptionist)
	_, hostAdminToken := h.seed(t, h.tenant, "root", kernel.RoleAdmin)
	_, platformToken := h.seed(t, h.platform, "plataforma", kernel.RoleAdmin)

	base := "/admin/hosts/" + h.tenant.String() + "/users/" + target.ID.String()

	resp := h.do(t, http.MethodGet, base, hostAdminToken, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(t, http.MethodGet, base, platformToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, target.ID, decode[user.UserResponse](t, resp).ID)

	resp = h.do(t, http.MethodPatch, base, platformToken, `{"name":"Recepção 2","role":"manager"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[user.UserResponse](t, resp)
	assert.Equal(t, "Recepção 2", updated.Name)
	assert.Equal(t, kernel.RoleManager, updated.Role)

	resp = h.do(t, http.MethodPatch, base+"/password", platformToken, `{"currentPassword":"wrong","newPassword":"n3wpass"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = h.do(t, http.MethodPatch, base+"/password", platformToken, `{"currentPassword":"s3cret!","newPassword":"n3wpass"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	stored, _ := h.repo.Get(target.ID)
	assert.Equal(t, "h:n3wpass", *stored.PasswordHash)

	resp = h.do(t, http.MethodPatch, base+"/deactivate", platformToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[user.UserResponse](t, resp).IsActive)

	resp = h.do(t, http.MethodPatch, base+"/activate", platformToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[user.UserResponse](t, resp).IsActive)

	resp = h.do(t, http.MethodDelete, base, platformToken, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := h.repo.Get(target.ID)
	assert.False(t, ok)
}

func TestPlatformRoutesStayWithinPathHost(t *testing.T) {
	h := newHarness(t)
	target, _ := h.seed(t, h.tenant, "recepcao", kernel.RoleReceptionist)
	_, platformToken := h.seed(t, h.platform, "plataforma", kernel.RoleAdmin)

	other := kernel.NewTenantID()
	resp := h.do(t, http.MethodGet, "/admin/hosts/"+other.String()+"/users/"+target.ID.String(), platformToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", decode[map[string]interface{}](t, resp)["code"])

	resp = h.do(t, http.MethodDelete, "/admin/hosts/not-a-uuid/users/"+target.ID.String(), platformToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_HOST_NOT_FOUND", decode[map[string]interface{}](t, resp)["code"])

	_, ok := h.repo.Get(target.ID)
	assert.True(t, ok)
}
