package user

import (
	"context"
	"time"

	"github.com/karua/hostcore/pkg/kernel"
)

// Repository is the credential store. Every method that addresses a single
// user takes the tenant id and must treat another tenant's row as missing.
// FindByEmail and FindByUsername are the only unscoped lookups; they exist
// for sign-in, before any tenant is known.
type Repository interface {
	FindByID(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ListByTenant(ctx context.Context, tenantID kernel.TenantID) ([]*User, error)

	ExistsByEmail(ctx context.Context, email string, excludeID kernel.UserID) (bool, error)
	ExistsByUsername(ctx context.Context, username string, excludeID kernel.UserID) (bool, error)

	Create(ctx context.Context, u User) error
	// UpdateProfile persists name, email, username and role.
	UpdateProfile(ctx context.Context, u User) error
	SetActive(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, active bool) error
	Delete(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID) error

	// IssueSecureCode stores a code hash only while the user has no
	// password. It reports false when nothing was updated.
	IssueSecureCode(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, codeHash string, sentAt time.Time) (bool, error)

	// SetFirstPassword sets the password, clears the code and the first-login
	// flag, only if the row still has no password and still holds
	// expectedCodeHash. It reports false when the condition did not hold.
	SetFirstPassword(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, passwordHash, expectedCodeHash string) (bool, error)

	UpdatePassword(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, passwordHash string) error
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare reports whether password matches hash.
	Compare(hash, password string) bool
}
