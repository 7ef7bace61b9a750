package lodgingapi_test

import (
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
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/lodging"
	"github.com/karua/hostcore/pkg/lodging/lodgingapi"
	"github.com/karua/hostcore/pkg/lodging/lodgingsrv"
	"github.com/karua/hostcore/pkg/lodging/lodgingtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	app    *fiber.App
	tokens *auth.JWTService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{tokens: auth.NewJWTService("lodging-test-secret-0123456789abcdef", time.Hour, "hostcore")}
	mw := auth.NewAuthMiddleware(h.tokens, nil, "", "")
	h.app = fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(false)})
	lodgingapi.NewLodgingHandlers(lodgingsrv.NewLodgingService(lodgingtest.NewRepository()), mw).RegisterRoutes(h.app)
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

func (h *harness) do(t *testing.T, method, path, token, body string, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

const typeBody = `{"name":"Chalé","capacity":4,"rooms":2,"bathrooms":1,"maxOccupants":4}`

func TestWritesNeedManagerOrAdmin(t *testing.T) {
	h := newHarness(t)
	tenant := kernel.NewTenantID()

	status := h.do(t, http.MethodPost, "/accommodation-types", h.token(t, tenant, kernel.RoleReceptionist), typeBody, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var typ lodging.AccommodationType
	status = h.do(t, http.MethodPost, "/accommodation-types", h.token(t, tenant, kernel.RoleManager), typeBody, &typ)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, tenant, typ.TenantID)

	var list []lodging.AccommodationType
	status = h.do(t, http.MethodGet, "/accommodation-types", h.token(t, tenant, kernel.RoleStaff), "", &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 1)
}

func TestOtherTenantSeesNothing(t *testing.T) {
	h := newHarness(t)
	owner, other := kernel.NewTenantID(), kernel.NewTenantID()

	var typ lodging.AccommodationType
	require.Equal(t, http.StatusCreated,
		h.do(t, http.MethodPost, "/accommodation-types", h.token(t, owner, kernel.RoleAdmin), typeBody, &typ))

	intruder := h.token(t, other, kernel.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/accommodation-types/"+typ.ID, intruder, "", nil))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/accommodations", intruder,
		`{"accommodationTypeId":"`+typ.ID+`","identifier":"101"}`, nil))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet,
		"/accommodation-pricing-schedules?accommodationTypeId="+typ.ID, intruder, "", nil))

	var list []lodging.AccommodationType
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/accommodation-types", intruder, "", &list))
	assert.Empty(t, list)
}

func TestScheduleDates(t *testing.T) {
	h := newHarness(t)
	tenant := kernel.NewTenantID()
	admin := h.token(t, tenant, kernel.RoleAdmin)

	var typ lodging.AccommodationType
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/accommodation-types", admin, typeBody, &typ))

	bad := `{"accommodationTypeId":"` + typ.ID + `","startDate":"2026-12-20","endDate":"2026-12-20","price":100}`
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/accommodation-pricing-schedules", admin, bad, nil))

	good := `{"accommodationTypeId":"` + typ.ID + `","startDate":"2026-12-20","endDate":"2027-01-05","price":450.5}`
	var s lodging.PricingSchedule
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/accommodation-pricing-schedules", admin, good, &s))
	assert.Equal(t, "2027-01-05", s.EndDate.String())

	var list []lodging.PricingSchedule
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet,
		"/accommodation-pricing-schedules?accommodationTypeId="+typ.ID, admin, "", &list))
	assert.Len(t, list, 1)
}
