package kernel

import "github.com/google/uuid"

type UserID string

func NewUserID() UserID         { return UserID(uuid.NewString()) }
func (u UserID) String() string { return string(u) }
func (u UserID) IsEmpty() bool  { return string(u) == "" }

// TenantID identifies the host (hotel/property) that owns a record.
type TenantID string

func NewTenantID() TenantID       { return TenantID(uuid.NewString()) }
func (t TenantID) String() string { return string(t) }
func (t TenantID) IsEmpty() bool  { return string(t) == "" }

// ParseUUID reports whether s is a well-formed UUID; path parameters are
// checked with it before they reach a query.
func ParseUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
