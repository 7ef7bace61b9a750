package auth

import (
	"context"
	"time"

	"github.com/karua/hostcore/pkg/kernel"
)

// TokenService issues and verifies session tokens.
type TokenService interface {
	Issue(id Identity) (string, time.Time, error)
	Verify(token string) (*TokenClaims, error)
	TTL() time.Duration
}

// HostDirectory resolves the display name of a tenant.
type HostDirectory interface {
	HostName(ctx context.Context, id kernel.TenantID) (string, error)
}

// RevocationStore is the optional denylist. Tokens of a user issued before
// the stored cutoff are rejected.
type RevocationStore interface {
	Revoke(ctx context.Context, userID kernel.UserID, cutoff time.Time) error
	IsRevoked(ctx context.Context, userID kernel.UserID, issuedAt time.Time) (bool, error)
}

// AuditService records authentication events.
type AuditService interface {
	LogLoginAttempt(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, identifier string, success bool, reason string, ip string)
	LogLogout(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, ip string)
	LogTokenRefresh(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, success bool, ip string)
	LogFirstPasswordSet(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, success bool, reason string, ip string)
	LogSecureCodeIssued(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID)
	LogPasswordChanged(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID)
}
