// Package hostapi serves the current host to its users and the host registry
// to platform admins.
package hostapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/host"
	"github.com/karua/hostcore/pkg/host/hostsrv"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/scopes"
	"github.com/karua/hostcore/pkg/kernel"
)

type HostHandlers struct {
	service    *hostsrv.HostService
	middleware *auth.TokenMiddleware
}

func NewHostHandlers(service *hostsrv.HostService, middleware *auth.TokenMiddleware) *HostHandlers {
	return &HostHandlers{service: service, middleware: middleware}
}

func (h *HostHandlers) RegisterRoutes(app fiber.Router) {
	mw := h.middleware

	current := app.Group("/hosts/current", mw.Authenticate())
	current.Get("/", h.GetCurrent)
	current.Patch("/", mw.RequireRoles(scopes.HostAdmins...), h.UpdateCurrent)

	admin := app.Group("/admin/hosts", mw.Authenticate(), mw.RequireGlobalAdmin())
	admin.Post("/", h.Create)
	admin.Get("/", h.List)
	admin.Get("/:id", h.Get)
	admin.Patch("/:id", h.Update)
	admin.Patch("/:id/activate", h.Activate)
	admin.Patch("/:id/deactivate", h.Deactivate)
}

// ============================================================================
// Current host
// ============================================================================

func (h *HostHandlers) GetCurrent(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	found, err := h.service.Get(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(found)
}

func (h *HostHandlers) UpdateCurrent(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	return h.update(c, tenantID)
}

// ============================================================================
// Platform admin
// ============================================================================

func (h *HostHandlers) Create(c *fiber.Ctx) error {
	var req host.CreateHostRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	created, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *HostHandlers) List(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), httpx.Pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *HostHandlers) Get(c *fiber.Ctx) error {
	id, err := hostParam(c)
	if err != nil {
		return err
	}
	found, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(found)
}

func (h *HostHandlers) Update(c *fiber.Ctx) error {
	id, err := hostParam(c)
	if err != nil {
		return err
	}
	return h.update(c, id)
}

func (h *HostHandlers) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *HostHandlers) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

// ============================================================================
// Helpers
// ============================================================================

func (h *HostHandlers) update(c *fiber.Ctx, id kernel.TenantID) error {
	var patch host.Patch
	if err := httpx.ParseBody(c, &patch); err != nil {
		return err
	}
	updated, err := h.service.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *HostHandlers) setActive(c *fiber.Ctx, active bool) error {
	id, err := hostParam(c)
	if err != nil {
		return err
	}
	updated, err := h.service.SetActive(c.UserContext(), id, active)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func hostParam(c *fiber.Ctx) (kernel.TenantID, error) {
	id, err := httpx.ParamUUID(c, "id", host.ErrHostNotFound)
	return kernel.TenantID(id), err
}
