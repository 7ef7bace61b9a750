package auth

import (
	"net/http"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// Identity is what a session token asserts about its bearer.
type Identity struct {
	UserID   kernel.UserID
	TenantID kernel.TenantID
	Email    string
	Username string
	Role     kernel.Role
}

// TokenClaims is a verified token.
type TokenClaims struct {
	Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthContext converts verified claims into the request identity.
func (c *TokenClaims) AuthContext() *kernel.AuthContext {
	return &kernel.AuthContext{
		UserID:   c.UserID,
		TenantID: c.TenantID,
		Email:    c.Email,
		Username: c.Username,
		Role:     c.Role,
		IssuedAt: c.IssuedAt,
		Expires:  c.ExpiresAt,
	}
}

func identityOf(u *user.User) Identity {
	return Identity{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}

// ============================================================================
// Responses
// ============================================================================

// UserSummary is returned by login and first-password setup.
type UserSummary struct {
	UserID                kernel.UserID   `json:"userId"`
	Name                  string          `json:"name"`
	Email                 string          `json:"email"`
	Username              string          `json:"username"`
	Role                  kernel.Role     `json:"role"`
	TenantID              kernel.TenantID `json:"hostId"`
	HostName              string          `json:"hostName"`
	IsFirstLogin          bool            `json:"isFirstLogin"`
	RequiresPasswordSetup bool            `json:"requiresPasswordSetup"`
}

// Session is a freshly issued token together with the signed-in user.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        UserSummary
}

// FirstLoginStatus answers check-first-login.
type FirstLoginStatus struct {
	RequiresPasswordSetup bool `json:"requiresPasswordSetup"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidRequest        = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid request")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
)

func ErrInvalidRequest(field string) *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest).WithDetail("field", field)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}
