// Package lodgingapi serves accommodation types, accommodations and pricing
// schedules of the caller's host.
package lodgingapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/scopes"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/lodging"
	"github.com/karua/hostcore/pkg/lodging/lodgingsrv"
)

type LodgingHandlers struct {
	service    *lodgingsrv.LodgingService
	middleware *auth.TokenMiddleware
}

func NewLodgingHandlers(service *lodgingsrv.LodgingService, middleware *auth.TokenMiddleware) *LodgingHandlers {
	return &LodgingHandlers{service: service, middleware: middleware}
}

// RegisterRoutes mounts the three resources. Reads are open to every role;
// writes need admin or manager.
func (h *LodgingHandlers) RegisterRoutes(app fiber.Router) {
	mw := h.middleware
	write := mw.RequireRoles(scopes.Managers...)

	types := app.Group("/accommodation-types", mw.Authenticate())
	types.Post("/", write, h.CreateType)
	types.Get("/", h.ListTypes)
	types.Get("/:id", h.GetType)
	types.Patch("/:id", write, h.UpdateType)
	types.Delete("/:id", write, h.DeleteType)

	rooms := app.Group("/accommodations", mw.Authenticate())
	rooms.Post("/", write, h.CreateAccommodation)
	rooms.Get("/", h.ListAccommodations)
	rooms.Get("/:id", h.GetAccommodation)
	rooms.Patch("/:id", write, h.UpdateAccommodation)
	rooms.Delete("/:id", write, h.DeleteAccommodation)

	schedules := app.Group("/accommodation-pricing-schedules", mw.Authenticate())
	schedules.Post("/", write, h.CreateSchedule)
	schedules.Get("/", h.ListSchedules)
	schedules.Get("/:id", h.GetSchedule)
	schedules.Patch("/:id", write, h.UpdateSchedule)
	schedules.Delete("/:id", write, h.DeleteSchedule)
}

// ============================================================================
// Accommodation types
// ============================================================================

func (h *LodgingHandlers) CreateType(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	var in lodging.TypeInput
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	t, err := h.service.CreateType(c.UserContext(), tenantID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *LodgingHandlers) ListTypes(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	types, err := h.service.ListTypes(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(types)
}

func (h *LodgingHandlers) GetType(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrTypeNotFound)
	if err != nil {
		return err
	}
	t, err := h.service.GetType(c.UserContext(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (h *LodgingHandlers) UpdateType(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrTypeNotFound)
	if err != nil {
		return err
	}
	var in lodging.TypeInput
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	t, err := h.service.UpdateType(c.UserContext(), tenantID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (h *LodgingHandlers) DeleteType(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrTypeNotFound)
	if err != nil {
		return err
	}
	if err := h.service.DeleteType(c.UserContext(), tenantID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================================
// Accommodations
// ============================================================================

func (h *LodgingHandlers) CreateAccommodation(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	var in lodging.AccommodationInput
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	a, err := h.service.CreateAccommodation(c.UserContext(), tenantID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// ListAccommodations accepts ?accommodationTypeId= as a filter.
func (h *LodgingHandlers) ListAccommodations(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListAccommodations(c.UserContext(), tenantID, c.Query("accommodationTypeId"))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *LodgingHandlers) GetAccommodation(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrAccommodationNotFound)
	if err != nil {
		return err
	}
	a, err := h.service.GetAccommodation(c.UserContext(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (h *LodgingHandlers) UpdateAccommodation(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrAccommodationNotFound)
	if err != nil {
		return err
	}
	var in lodging.AccommodationInput
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	a, err := h.service.UpdateAccommodation(c.UserContext(), tenantID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (h *LodgingHandlers) DeleteAccommodation(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrAccommodationNotFound)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAccommodation(c.UserContext(), tenantID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================================
// Pricing schedules
// ============================================================================

func (h *LodgingHandlers) CreateSchedule(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	var in lodging.ScheduleInput
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	s, err := h.service.CreateSchedule(c.UserContext(), tenantID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(s)
}

// ListSchedules accepts ?accommodationTypeId= as a filter.
func (h *LodgingHandlers) ListSchedules(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	typeID := c.Query("accommodationTypeId")
	if typeID != "" && !kernel.ParseUUID(typeID) {
		return lodging.ErrTypeNotFound().WithDetail("accommodationTypeId", typeID)
	}
	items, err := h.service.ListSchedules(c.UserContext(), tenantID, typeID)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *LodgingHandlers) GetSchedule(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrScheduleNotFound)
	if err != nil {
		return err
	}
	s, err := h.service.GetSchedule(c.UserContext(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(s)
}

func (h *LodgingHandlers) UpdateSchedule(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrScheduleNotFound)
	if err != nil {
		return err
	}
	var in lodging.ScheduleInput
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	s, err := h.service.UpdateSchedule(c.UserContext(), tenantID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(s)
}

func (h *LodgingHandlers) DeleteSchedule(c *fiber.Ctx) error {
	tenantID, id, err := target(c, lodging.ErrScheduleNotFound)
	if err != nil {
		return err
	}
	if err := h.service.DeleteSchedule(c.UserContext(), tenantID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func target(c *fiber.Ctx, notFound func() *errx.Error) (kernel.TenantID, string, error) {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return "", "", err
	}
	id, err := httpx.ParamUUID(c, "id", notFound)
	if err != nil {
		return "", "", err
	}
	return tenantID, id, nil
}
