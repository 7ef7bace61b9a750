// Package userapi exposes user administration over HTTP.
package userapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/scopes"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/iam/user/usersrv"
	"github.com/karua/hostcore/pkg/kernel"
)

type UserHandlers struct {
	service    *usersrv.UserService
	middleware *auth.TokenMiddleware
}

func NewUserHandlers(service *usersrv.UserService, middleware *auth.TokenMiddleware) *UserHandlers {
	return &UserHandlers{service: service, middleware: middleware}
}

// RegisterRoutes mounts /users for the current host and the platform routes
// under /admin/hosts/:hostId/users. Platform routes reuse the host handlers
// with the path host in place of the caller's.
func (h *UserHandlers) RegisterRoutes(app fiber.Router) {
	mw := h.middleware
	staff := mw.RequireRoles(scopes.Managers...)
	admin := mw.RequireRoles(scopes.HostAdmins...)

	users := app.Group("/users", mw.Authenticate())
	users.Get("/roles", h.Roles)
	users.Patch("/me/password", h.ChangePassword)

	users.Post("/", staff, h.Invite)
	users.Get("/", staff, h.List)
	users.Get("/:id", staff, h.Get)
	users.Patch("/:id", staff, h.Update)
	users.Post("/:id/resend-invite", staff, h.ResendInvite)
	users.Patch("/:id/activate", admin, h.Activate)
	users.Patch("/:id/deactivate", admin, h.Deactivate)
	users.Delete("/:id", admin, h.Delete)

	platform := app.Group("/admin/hosts/:hostId/users", mw.Authenticate(), mw.RequireGlobalAdmin())
	platform.Get("/", h.ListForHost)
	platform.Post("/", h.InviteToHost)
	platform.Get("/:id", h.Get)
	platform.Patch("/:id", h.Update)
	platform.Patch("/:id/password", h.ChangeUserPassword)
	platform.Post("/:id/resend-invite", h.ResendInvite)
	platform.Patch("/:id/activate", h.Activate)
	platform.Patch("/:id/deactivate", h.Deactivate)
	platform.Delete("/:id", h.Delete)
}

// ============================================================================
// Handlers
// ============================================================================

func (h *UserHandlers) Roles(c *fiber.Ctx) error {
	return c.JSON(h.service.Roles())
}

func (h *UserHandlers) ChangePassword(c *fiber.Ctx) error {
	actor, err := auth.MustAuthContext(c)
	if err != nil {
		return err
	}
	var req usersrv.ChangePasswordRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	if err := h.service.ChangePassword(c.UserContext(), actor, req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandlers) Invite(c *fiber.Ctx) error {
	actor, err := auth.MustAuthContext(c)
	if err != nil {
		return err
	}
	var req usersrv.InviteUserRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}

	u, err := h.service.Invite(c.UserContext(), actor, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u.ToResponse())
}

func (h *UserHandlers) List(c *fiber.Ctx) error {
	tenantID, err := auth.TenantID(c)
	if err != nil {
		return err
	}
	users, err := h.service.List(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *UserHandlers) Get(c *fiber.Ctx) error {
	actor, id, err := h.target(c)
	if err != nil {
		return err
	}
	u, err := h.service.Get(c.UserContext(), actor.TenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(u.ToResponse())
}

func (h *UserHandlers) Update(c *fiber.Ctx) error {
	actor, id, err := h.target(c)
	if err != nil {
		return err
	}
	var patch user.Patch
	if err := httpx.ParseBody(c, &patch); err != nil {
		return err
	}

	u, err := h.service.Update(c.UserContext(), actor, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(u.ToResponse())
}

func (h *UserHandlers) ResendInvite(c *fiber.Ctx) error {
	actor, id, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.service.ResendInvite(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *UserHandlers) Activate(c *fiber.Ctx) error {
	actor, id, err := h.target(c)
	if err != nil {
		return err
	}
	u, err := h.service.Activate(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(u.ToResponse())
}

func (h *UserHandlers) Deactivate(c *fiber.Ctx) error {
	actor, id, err := h.target(c)
	if err != nil {
		return err
	}
	u, err := h.service.Deactivate(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(u.ToResponse())
}

func (h *UserHandlers) Delete(c *fiber.Ctx) error {
	actor, id, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangeUserPassword lets a platform admin change the password of a user in
// another host. The current password is still required.
func (h *UserHandlers) ChangeUserPassword(c *fiber.Ctx) error {
	actor, id, err := h.target(c)
	if err != nil {
		return err
	}
	var req usersrv.ChangePasswordRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	if err := h.service.ChangeUserPassword(c.UserContext(), actor.TenantID, id, req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandlers) ListForHost(c *fiber.Ctx) error {
	hostID, err := httpx.ParamUUID(c, "hostId", user.ErrHostNotFound)
	if err != nil {
		return err
	}
	users, err := h.service.List(c.UserContext(), kernel.TenantID(hostID))
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// InviteToHost lets a platform admin create a user, typically the first
// admin, inside another host.
func (h *UserHandlers) InviteToHost(c *fiber.Ctx) error {
	actor, err := auth.MustAuthContext(c)
	if err != nil {
		return err
	}
	hostID, err := httpx.ParamUUID(c, "hostId", user.ErrHostNotFound)
	if err != nil {
		return err
	}
	var req usersrv.InviteUserRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}

	u, err := h.service.InviteToHost(c.UserContext(), kernel.TenantID(hostID), actor, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u.ToResponse())
}

// target reads the acting user and the :id parameter. On platform routes the
// actor is scoped to the :hostId host.
func (h *UserHandlers) target(c *fiber.Ctx) (*kernel.AuthContext, kernel.UserID, error) {
	actor, err := auth.MustAuthContext(c)
	if err != nil {
		return nil, "", err
	}
	if c.Params("hostId") != "" {
		hostID, err := httpx.ParamUUID(c, "hostId", user.ErrHostNotFound)
		if err != nil {
			return nil, "", err
		}
		scoped := *actor
		scoped.TenantID = kernel.TenantID(hostID)
		actor = &scoped
	}
	id, err := httpx.ParamUUID(c, "id", user.ErrUserNotFound)
	if err != nil {
		return nil, "", err
	}
	return actor, kernel.UserID(id), nil
}
