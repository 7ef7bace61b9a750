package kernel

import "time"

// ============================================================================
// Context Types
// ============================================================================

// AuthContext is the verified identity attached to every authenticated request.
// TenantID here is the only tenant a handler may act on.
type AuthContext struct {
	UserID   UserID    `json:"userId"`
	TenantID TenantID  `json:"hostId"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
	IssuedAt time.Time `json:"issuedAt"`
	Expires  time.Time `json:"expiresAt"`
}

// IsValid reports whether the context carries a user and a tenant.
func (ac *AuthContext) IsValid() bool {
	return ac != nil && !ac.UserID.IsEmpty() && !ac.TenantID.IsEmpty()
}

// HasRole reports whether the caller's role is one of roles.
func (ac *AuthContext) HasRole(roles ...Role) bool {
	return ac != nil && ac.Role.In(roles...)
}

// IsAdmin reports whether the caller is a tenant admin.
func (ac *AuthContext) IsAdmin() bool {
	return ac.HasRole(RoleAdmin)
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// AuthContextKey is the fiber Locals key holding *AuthContext.
	AuthContextKey ContextKey = "auth"

	RequestIDKey ContextKey = "request_id"
)
