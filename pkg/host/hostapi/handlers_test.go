package hostapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/host"
	"github.com/karua/hostcore/pkg/host/hostapi"
	"github.com/karua/hostcore/pkg/host/hostsrv"
	"github.com/karua/hostcore/pkg/host/hosttest"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createBody = `{
	"name": "Pousada Mar Azul",
	"cnpj": "11.222.333/0001-81",
	"state": "BA",
	"legalRepresentative": {"name": "João", "email": "joao@marazul.com", "cpf": "123.456.789-09"}
}`

type harness struct {
	app      *fiber.App
	tokens   *auth.JWTService
	platform kernel.TenantID
	existing *host.Host
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	existing, err := host.NewHost(host.CreateHostRequest{
		Name: "Hotel Sol",
		LegalRepresentative: host.CreateRepresentativeRequest{
			Name: "Maria", Email: "maria@hotel.com", CPF: "11144477735",
		},
	}, time.Now())
	require.NoError(t, err)

	h := &harness{
		tokens:   auth.NewJWTService("hostapi-test-secret-0123456789abcdef", time.Hour, "hostcore"),
		platform: kernel.NewTenantID(),
		existing: existing,
	}
	mw := auth.NewAuthMiddleware(h.tokens, nil, "", h.platform)
	svc := hostsrv.NewHostService(hosttest.NewRepository(existing))

	h.app = fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(false)})
	hostapi.NewHostHandlers(svc, mw).RegisterRoutes(h.app)
	return h
}

func (h *harness) token(t *testing.T, tenant kernel.TenantID, role kernel.Role) string {
	t.Helper()
	token, _, err := h.tokens.Issue(auth.Identity{
		UserID: kernel.NewUserID(), TenantID: tenant, Email: "x@hotel.com", Username: "x", Role: role,
	})
	require.NoError(t, err)
	return token
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
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCurrentHostIsTheCallersTenant(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/hosts/current", h.token(t, h.existing.ID, kernel.RoleStaff), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got host.Host
	decode(t, resp, &got)
	assert.Equal(t, h.existing.ID, got.ID)
	assert.Len(t, got.LegalRepresentatives, 1)

	resp = h.do(t, http.MethodPatch, "/hosts/current", h.token(t, h.existing.ID, kernel.RoleManager), `{"phone":"7133334444"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(t, http.MethodPatch, "/hosts/current", h.token(t, h.existing.ID, kernel.RoleAdmin), `{"phone":"7133334444"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.Equal(t, ptrx.To("7133334444"), got.Phone)

	resp = h.do(t, http.MethodGet, "/hosts/current", h.token(t, kernel.NewTenantID(), kernel.RoleAdmin), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesNeedPlatformAdmin(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/admin/hosts", h.token(t, h.existing.ID, kernel.RoleAdmin), createBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	platform := h.token(t, h.platform, kernel.RoleAdmin)
	resp = h.do(t, http.MethodPost, "/admin/hosts", platform, createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created host.Host
	decode(t, resp, &created)
	assert.Equal(t, "11222333000181", *created.CNPJ)

	resp = h.do(t, http.MethodPost, "/admin/hosts", platform, createBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/admin/hosts?pageSize=10", platform, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page kernel.Paginated[host.Host]
	decode(t, resp, &page)
	assert.Equal(t, 2, page.Page.Total)

	resp = h.do(t, http.MethodPatch, "/admin/hosts/"+created.ID.String()+"/deactivate", platform, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &created)
	assert.False(t, created.IsActive)

	resp = h.do(t, http.MethodGet, "/admin/hosts/not-a-uuid", platform, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRejectsInvalidCNPJ(t *testing.T) {
	h := newHarness(t)
	body := strings.Replace(createBody, "11.222.333/0001-81", "11.222.333/0001-80", 1)

	resp := h.do(t, http.MethodPost, "/admin/hosts", h.token(t, h.platform, kernel.RoleAdmin), body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
