// Package httpx holds the Fiber plumbing shared by every API module: the
// global error handler, the 404 handler and small request helpers.
package httpx

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
)

const RequestIDHeader = "X-Request-ID"

// ErrorHandler converts errors returned by handlers into JSON responses.
// With debug set, the cause of an errx error is included.
func ErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := c.Get(RequestIDHeader)
		status := errx.HTTPStatus(err)

		entry := logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": requestID,
		})

		var fe *fiber.Error
		if errors.As(err, &fe) {
			entry.Debugf("Request error: %v", err)
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":      fe.Message,
				"code":       "FIBER_ERROR",
				"status":     fe.Code,
				"request_id": requestID,
			})
		}

		var e *errx.Error
		if errors.As(err, &e) {
			if status >= fiber.StatusInternalServerError {
				entry.WithError(err).Error("Request failed")
			} else {
				entry.Debugf("Request error: %v", err)
			}

			response := fiber.Map{
				"error":      e.Message,
				"code":       e.Code,
				"type":       string(e.Type),
				"status":     status,
				"request_id": requestID,
			}
			if len(e.Details) > 0 {
				response["details"] = e.Details
			}
			if debug && e.Err != nil {
				response["underlying_error"] = e.Err.Error()
			}
			return c.Status(status).JSON(response)
		}

		entry.WithError(err).Error("Unhandled request error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "Internal Server Error",
			"type":       string(errx.TypeInternal),
			"code":       "INTERNAL_ERROR",
			"status":     fiber.StatusInternalServerError,
			"request_id": requestID,
		})
	}
}

// NotFound answers unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get(RequestIDHeader),
	})
}

// ParseBody decodes the JSON body into out, mapping decode failures to 400.
func ParseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errx.Wrap(err, "Invalid request body", errx.TypeValidation)
	}
	return nil
}

// ParamUUID reads a path parameter that must be a UUID. Malformed ids are
// reported as notFound so they look like any other missing row.
func ParamUUID(c *fiber.Ctx, name string, notFound func() *errx.Error) (string, error) {
	id := strings.TrimSpace(c.Params(name))
	if !kernel.ParseUUID(id) {
		return "", notFound().WithDetail(name, id)
	}
	return id, nil
}

// Pagination reads ?page= and ?pageSize= (or ?limit=).
func Pagination(c *fiber.Ctx) kernel.PaginationOptions {
	size := c.QueryInt("pageSize", 0)
	if size == 0 {
		size = c.QueryInt("limit", kernel.DefaultPageSize)
	}
	return kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: size,
	}.Normalize()
}
