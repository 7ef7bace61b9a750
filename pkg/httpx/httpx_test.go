package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRegistry = errx.NewRegistry("THING")
	codeNotFound = testRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Thing not found")
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(false)})
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id", func() *errx.Error { return testRegistry.New(codeNotFound) })
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id})
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("database exploded") })
	app.Get("/page", func(c *fiber.Ctx) error { return c.JSON(httpx.Pagination(c)) })
	app.Use(httpx.NotFound)
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestErrxErrorsKeepTheirStatus(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/things/not-a-uuid", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "THING_NOT_FOUND", body["code"])
	assert.Equal(t, "Thing not found", body["error"])
}

func TestUnknownErrorsAreOpaque(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, body["error"], "exploded")
}

func TestUnmatchedRoute(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaginationIsClamped(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/page?page=0&limit=1000", nil))
	require.NoError(t, err)

	body := decode(t, resp)
	assert.EqualValues(t, 1, body["Page"])
	assert.EqualValues(t, 100, body["PageSize"])
}
