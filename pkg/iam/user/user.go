package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/karua/hostcore/pkg/kernel"
)

const (
	maxNameLength     = 255
	minUsernameLength = 3
	maxUsernameLength = 100
)

// User is a person who can sign in to one host (tenant).
type User struct {
	ID           kernel.UserID   `db:"id" json:"id"`
	TenantID     kernel.TenantID `db:"host_id" json:"hostId"`
	Name         string          `db:"name" json:"name"`
	Email        string          `db:"email" json:"email"`
	Username     string          `db:"username" json:"username"`
	PasswordHash *string         `db:"password" json:"-"`
	SecureCode   *string         `db:"secure_code" json:"-"`
	Role         kernel.Role     `db:"role" json:"role"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	IsFirstLogin bool            `db:"is_first_login" json:"isFirstLogin"`
	InviteSentAt *time.Time      `db:"invite_sent_at" json:"inviteSentAt,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// HasPassword reports whether the account completed first-time setup.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// RequiresPasswordSetup is the inverse of HasPassword.
func (u *User) RequiresPasswordSetup() bool {
	return !u.HasPassword()
}

// HasPendingCode reports whether an invite code was issued and not yet used.
func (u *User) HasPendingCode() bool {
	return u.SecureCode != nil && *u.SecureCode != ""
}

func (u *User) BelongsTo(tenantID kernel.TenantID) bool {
	return u.TenantID == tenantID
}

// ============================================================================
// Construction
// ============================================================================

// NewInvitedUser builds a user with no password. The account can only be
// used after the invite code is redeemed.
func NewInvitedUser(tenantID kernel.TenantID, name, email, username string, role kernel.Role) (*User, error) {
	u := &User{
		ID:           kernel.NewUserID(),
		TenantID:     tenantID,
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		Username:     strings.TrimSpace(username),
		Role:         role,
		IsActive:     true,
		IsFirstLogin: true,
	}
	if tenantID.IsEmpty() {
		return nil, ErrInvalidUserData().WithDetail("field", "hostId")
	}
	if err := u.validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

func (u *User) validate() error {
	if u.Name == "" || len(u.Name) > maxNameLength {
		return ErrInvalidUserData().WithDetail("field", "name")
	}
	if !IsValidEmail(u.Email) {
		return ErrInvalidUserData().WithDetail("field", "email")
	}
	if n := len(u.Username); n < minUsernameLength || n > maxUsernameLength || strings.ContainsAny(u.Username, " @") {
		return ErrInvalidUserData().WithDetail("field", "username")
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole().WithDetail("role", string(u.Role))
	}
	return nil
}

// ============================================================================
// Patch
// ============================================================================

// Patch lists the profile fields an administrator may change. Nil fields are
// left untouched. Tenant, password and invite state are never patchable.
type Patch struct {
	Name     *string      `json:"name,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Username *string      `json:"username,omitempty"`
	Role     *kernel.Role `json:"role,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Username == nil && p.Role == nil
}

// Apply returns a validated copy of u with the patch applied; u is unchanged.
func (u User) Apply(p Patch, now time.Time) (User, error) {
	next := u
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		next.Email = NormalizeEmail(*p.Email)
	}
	if p.Username != nil {
		next.Username = strings.TrimSpace(*p.Username)
	}
	if p.Role != nil {
		next.Role = *p.Role
	}
	if err := next.validate(); err != nil {
		return u, err
	}
	next.UpdatedAt = now
	return next, nil
}

// ============================================================================
// Helpers
// ============================================================================

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	if email == "" || len(email) > maxNameLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ============================================================================
// DTOs
// ============================================================================

// UserResponse is the admin-facing view of a user.
type UserResponse struct {
	ID                    kernel.UserID   `json:"id"`
	TenantID              kernel.TenantID `json:"hostId"`
	Name                  string          `json:"name"`
	Email                 string          `json:"email"`
	Username              string          `json:"username"`
	Role                  kernel.Role     `json:"role"`
	IsActive              bool            `json:"isActive"`
	IsFirstLogin          bool            `json:"isFirstLogin"`
	RequiresPasswordSetup bool            `json:"requiresPasswordSetup"`
	InviteSentAt          *time.Time      `json:"inviteSentAt,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:                    u.ID,
		TenantID:              u.TenantID,
		Name:                  u.Name,
		Email:                 u.Email,
		Username:              u.Username,
		Role:                  u.Role,
		IsActive:              u.IsActive,
		IsFirstLogin:          u.IsFirstLogin,
		RequiresPasswordSetup: u.RequiresPasswordSetup(),
		InviteSentAt:          u.InviteSentAt,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}
