// Package customerapi serves the customers of the caller's host and the
// nationality catalog.
package customerapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/customer"
	"github.com/karua/hostcore/pkg/customer/customersrv"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/scopes"
	"github.com/karua/hostcore/pkg/kernel"
)

type CustomerHandlers struct {
	service    *customersrv.CustomerService
	middleware *auth.TokenMiddleware
}

func NewCustomerHandlers(service *customersrv.CustomerService, middleware *auth.TokenMiddleware) *CustomerHandlers {
	return &CustomerHandlers{service: service, middleware: middleware}
}

func (h *CustomerHandlers) RegisterRoutes(app fiber.Router) {
	mw := h.middleware
	write := mw.RequireRoles(scopes.FrontDesk...)

	customers := app.Group("/customers", mw.Authenticate())
	customers.Post("/", write, h.Create)
	customers.Get("/", h.List)
	customers.Get("/:id", h.Get)
	customers.Patch("/:id", write, h.Update)
	customers.Delete("/:id", write, h.Delete)

	app.Get("/nationalities", mw.Authenticate(), h.Nationalities)
}

func (h *CustomerHandlers) Create(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	var in customer.Input
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	created, err := h.service.Create(c.UserContext(), tenantID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List accepts ?search= (name or email) and ?active=true besides the page
// parameters.
func (h *CustomerHandlers) List(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	filter := customer.Filter{
		Search:     c.Query("search"),
		ActiveOnly: c.QueryBool("active", false),
	}
	page, err := h.service.List(c.UserContext(), tenantID, filter, httpx.Pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *CustomerHandlers) Get(c *fiber.Ctx) error {
	tenantID, id, err := target(c)
	if err != nil {
		return err
	}
	found, err := h.service.Get(c.UserContext(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(found)
}

func (h *CustomerHandlers) Update(c *fiber.Ctx) error {
	tenantID, id, err := target(c)
	if err != nil {
		return err
	}
	var in customer.Input
	if err := httpx.ParseBody(c, &in); err != nil {
		return err
	}
	updated, err := h.service.Update(c.UserContext(), tenantID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *CustomerHandlers) Delete(c *fiber.Ctx) error {
	tenantID, id, err := target(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), tenantID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CustomerHandlers) Nationalities(c *fiber.Ctx) error {
	list, err := h.service.Nationalities(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func target(c *fiber.Ctx) (kernel.TenantID, string, error) {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return "", "", err
	}
	id, err := httpx.ParamUUID(c, "id", customer.ErrNotFound)
	if err != nil {
		return "", "", err
	}
	return tenantID, id, nil
}
