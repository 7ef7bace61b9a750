package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/httpx"
	"github.com/karua/hostcore/pkg/iam/securecode"
)

const DefaultCookieName = "access_token"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	Domain string
}

// AuthHandlers serves the /auth routes.
type AuthHandlers struct {
	service           *Service
	middleware        *TokenMiddleware
	cookie            CookieConfig
	maxAge            time.Duration
	minPasswordLength int
}

func NewAuthHandlers(service *Service, middleware *TokenMiddleware, tokens TokenService, cookie CookieConfig) *AuthHandlers {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	return &AuthHandlers{
		service:           service,
		middleware:        middleware,
		cookie:            cookie,
		maxAge:            tokens.TTL(),
		minPasswordLength: service.cfg.MinPasswordLength,
	}
}

// RegisterRoutes mounts login, logout, check-first-login and
// set-first-password as public routes; me and refresh need a valid token.
func (h *AuthHandlers) RegisterRoutes(app fiber.Router) {
	group := app.Group("/auth")

	group.Post("/login", h.Login)
	group.Post("/logout", h.Logout)
	group.Post("/check-first-login", h.CheckFirstLogin)
	group.Post("/set-first-password", h.SetFirstPassword)

	group.Get("/me", h.middleware.Authenticate(), h.Me)
	group.Post("/refresh", h.middleware.Authenticate(), h.Refresh)
}

// ============================================================================
// Requests
// ============================================================================

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return ErrInvalidRequest("username")
	}
	if r.Password == "" {
		return ErrInvalidRequest("password")
	}
	return nil
}

type CheckFirstLoginRequest struct {
	Username string `json:"username"`
}

type SetFirstPasswordRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	SecureCode string `json:"secureCode"`
}

func (r SetFirstPasswordRequest) Validate(minPasswordLength int) error {
	if strings.TrimSpace(r.Username) == "" {
		return ErrInvalidRequest("username")
	}
	if len(r.Password) < minPasswordLength {
		return ErrInvalidRequest("password").WithDetail("min_length", minPasswordLength)
	}
	if !securecode.IsWellFormed(r.SecureCode, securecode.DefaultLength) {
		return ErrInvalidRequest("secureCode")
	}
	return nil
}

// SessionResponse is the body of login and set-first-password.
type SessionResponse struct {
	UserSummary
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ============================================================================
// Handlers
// ============================================================================

func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	session, err := h.service.Login(h.requestContext(c), req.Username, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, session)
}

// Logout always succeeds and clears the cookie.
func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	h.service.Logout(h.requestContext(c), h.middleware.OptionalClaims(c))
	h.clearCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	authContext, err := MustAuthContext(c)
	if err != nil {
		return err
	}
	return c.JSON(authContext)
}

func (h *AuthHandlers) Refresh(c *fiber.Ctx) error {
	authContext, err := MustAuthContext(c)
	if err != nil {
		return err
	}

	session, err := h.service.Refresh(h.requestContext(c), authContext.UserID, authContext.TenantID)
	if err != nil {
		return err
	}

	h.setCookie(c, session.AccessToken)
	return c.JSON(fiber.Map{
		"message":     "Token refreshed successfully",
		"expiresAt":   session.ExpiresAt,
		"accessToken": session.AccessToken,
	})
}

func (h *AuthHandlers) CheckFirstLogin(c *fiber.Ctx) error {
	var req CheckFirstLoginRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Username) == "" {
		return ErrInvalidRequest("username")
	}

	status, err := h.service.CheckFirstLogin(h.requestContext(c), req.Username)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *AuthHandlers) SetFirstPassword(c *fiber.Ctx) error {
	var req SetFirstPasswordRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(h.minPasswordLength); err != nil {
		return err
	}

	session, err := h.service.SetFirstPassword(h.requestContext(c), req.Username, req.Password, req.SecureCode)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, session)
}

// ============================================================================
// Helpers
// ============================================================================

func (h *AuthHandlers) respondWithSession(c *fiber.Ctx, session *Session) error {
	h.setCookie(c, session.AccessToken)
	return c.JSON(SessionResponse{
		UserSummary: session.User,
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
	})
}

func (h *AuthHandlers) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.maxAge.Seconds()),
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  time.Unix(0, 0),
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandlers) requestContext(c *fiber.Ctx) context.Context {
	return WithClientIP(c.UserContext(), c.IP())
}
