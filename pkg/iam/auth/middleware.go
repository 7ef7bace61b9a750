package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karua/hostcore/pkg/iam"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
)

// TokenMiddleware is the access control gate in front of every protected
// route.
type TokenMiddleware struct {
	tokens         TokenService
	revocations    RevocationStore
	cookieName     string
	platformTenant kernel.TenantID
}

// NewAuthMiddleware builds the gate. revocations may be nil. Only admins of
// platformTenant pass RequireGlobalAdmin; an empty platformTenant disables
// global routes.
func NewAuthMiddleware(tokens TokenService, revocations RevocationStore, cookieName string, platformTenant kernel.TenantID) *TokenMiddleware {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &TokenMiddleware{
		tokens:         tokens,
		revocations:    revocations,
		cookieName:     cookieName,
		platformTenant: platformTenant,
	}
}

// Authenticate accepts "Authorization: Bearer <token>" or the session
// cookie. A missing or invalid token is always 401.
func (am *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := am.verifyRequest(c)
		if err != nil {
			return err
		}
		c.Locals(string(kernel.AuthContextKey), claims.AuthContext())
		c.SetUserContext(logx.ContextWithFields(c.UserContext(), logx.Fields{
			"user_id":   claims.UserID.String(),
			"tenant_id": claims.TenantID.String(),
		}))
		return c.Next()
	}
}

// RequireRoles admits callers whose role is in roles. An empty list admits
// any authenticated caller.
func (am *TokenMiddleware) RequireRoles(roles ...kernel.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return iam.ErrUnauthorized()
		}
		if !authContext.HasRole(roles...) {
			return iam.ErrForbidden().WithDetail("role", string(authContext.Role))
		}
		return c.Next()
	}
}

// RequireGlobalAdmin admits admins of the platform tenant only. These are
// the routes allowed to act across tenants.
func (am *TokenMiddleware) RequireGlobalAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return iam.ErrUnauthorized()
		}
		if am.platformTenant.IsEmpty() || !authContext.IsAdmin() || authContext.TenantID != am.platformTenant {
			return iam.ErrForbidden()
		}
		return c.Next()
	}
}

// OptionalClaims verifies a presented token without requiring one. It is
// used by public routes such as logout.
func (am *TokenMiddleware) OptionalClaims(c *fiber.Ctx) *TokenClaims {
	if extractToken(c, am.cookieName) == "" {
		return nil
	}
	claims, err := am.verifyRequest(c)
	if err != nil {
		return nil
	}
	return claims
}

func (am *TokenMiddleware) verifyRequest(c *fiber.Ctx) (*TokenClaims, error) {
	token := extractToken(c, am.cookieName)
	if token == "" {
		return nil, iam.ErrUnauthorized()
	}

	claims, err := am.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if am.revocations != nil {
		revoked, err := am.revocations.IsRevoked(c.UserContext(), claims.UserID, claims.IssuedAt)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, iam.ErrInvalidToken()
		}
	}
	return claims, nil
}

// extractToken prefers a well-formed bearer header and falls back to the
// cookie.
func extractToken(c *fiber.Ctx, cookieName string) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(cookieName)
}

// ============================================================================
// Context accessors
// ============================================================================

// GetAuthContext returns the identity attached by Authenticate.
func GetAuthContext(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	authContext, ok := c.Locals(string(kernel.AuthContextKey)).(*kernel.AuthContext)
	return authContext, ok && authContext.IsValid()
}

// MustAuthContext is GetAuthContext for handlers behind Authenticate.
func MustAuthContext(c *fiber.Ctx) (*kernel.AuthContext, error) {
	authContext, ok := GetAuthContext(c)
	if !ok {
		return nil, iam.ErrUnauthorized()
	}
	return authContext, nil
}

// TenantID is the only way a handler should learn which tenant it acts on.
func TenantID(c *fiber.Ctx) (kernel.TenantID, error) {
	authContext, err := MustAuthContext(c)
	if err != nil {
		return "", err
	}
	return authContext.TenantID, nil
}
