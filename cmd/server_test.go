package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/asyncx"
	"github.com/karua/hostcore/pkg/config"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "hostcore", Env: "test", Version: "1.2.3"},
		Server: config.ServerConfig{CORSOrigins: "http://localhost:3000"},
	}
}

func healthCheck(name string, err error) asyncx.Task[string] {
	return asyncx.Task[string]{
		Name: name,
		Fn: func(context.Context) (string, error) {
			return "ok", err
		},
	}
}

type pingModule struct{}

func (pingModule) RegisterRoutes(app fiber.Router) {
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
}

func doJSON(t *testing.T, app *fiber.App, path string) (int, map[string]any, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body, resp.Header.Get(httpx.RequestIDHeader)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		app := newApp(testConfig(), func() []asyncx.Task[string] {
			return []asyncx.Task[string]{healthCheck("database", nil), healthCheck("redis", nil)}
		})

		status, body, _ := doJSON(t, app, "/health")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "healthy", body["database"])
		assert.Equal(t, "healthy", body["redis"])
		assert.Equal(t, "1.2.3", body["version"])
	})

	t.Run("degraded", func(t *testing.T) {
		app := newApp(testConfig(), func() []asyncx.Task[string] {
			return []asyncx.Task[string]{healthCheck("database", errors.New("connection refused")), healthCheck("redis", nil)}
		})

		status, body, _ := doJSON(t, app, "/health")
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "unhealthy", body["database"])
		assert.Equal(t, "connection refused", body["database_error"])
		assert.Equal(t, "healthy", body["redis"])
	})
}

func TestInfo(t *testing.T) {
	app := newApp(testConfig(), func() []asyncx.Task[string] { return nil })

	status, body, requestID := doJSON(t, app, "/")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "hostcore", body["service"])
	assert.Equal(t, "test", body["environment"])
	assert.Contains(t, body, "endpoints")
	assert.NotEmpty(t, requestID)
}

func TestModulesAndNotFound(t *testing.T) {
	app := newApp(testConfig(), func() []asyncx.Task[string] { return nil }, pingModule{})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	status, body, _ := doJSON(t, app, "/nowhere")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "/nowhere", body["path"])
}
