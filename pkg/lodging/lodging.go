// Package lodging holds what a host rents out: accommodation types, the
// individual accommodations of each type and the price schedules per type.
package lodging

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karua/hostcore/pkg/kernel"
)

const (
	maxTypeNameLength   = 100
	maxIdentifierLength = 50
)

// ============================================================================
// Accommodation types
// ============================================================================

type AccommodationType struct {
	ID           string          `db:"id" json:"id"`
	TenantID     kernel.TenantID `db:"host_id" json:"hostId"`
	Name         string          `db:"name" json:"name"`
	Capacity     int             `db:"capacity" json:"capacity"`
	Rooms        int             `db:"rooms" json:"rooms"`
	Bathrooms    int             `db:"bathrooms" json:"bathrooms"`
	MinOccupants int             `db:"min_occupants" json:"minOccupants"`
	MaxOccupants int             `db:"max_occupants" json:"maxOccupants"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// TypeInput is both the create body and, with nil fields left alone, the
// patch body.
type TypeInput struct {
	Name         *string `json:"name,omitempty"`
	Capacity     *int    `json:"capacity,omitempty"`
	Rooms        *int    `json:"rooms,omitempty"`
	Bathrooms    *int    `json:"bathrooms,omitempty"`
	MinOccupants *int    `json:"minOccupants,omitempty"`
	MaxOccupants *int    `json:"maxOccupants,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

func NewAccommodationType(tenantID kernel.TenantID, in TypeInput, now time.Time) (*AccommodationType, error) {
	if in.Name == nil {
		return nil, ErrInvalidData("name")
	}
	if in.Capacity == nil {
		return nil, ErrInvalidData("capacity")
	}
	if in.Rooms == nil {
		return nil, ErrInvalidData("rooms")
	}
	if in.Bathrooms == nil {
		return nil, ErrInvalidData("bathrooms")
	}
	if in.MaxOccupants == nil {
		return nil, ErrInvalidData("maxOccupants")
	}
	t := AccommodationType{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		MinOccupants: 1,
		IsActive:     true,
		CreatedAt:    now,
	}
	next, err := t.Apply(in, now)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// Apply returns a validated copy with the non-nil fields of in applied.
func (t AccommodationType) Apply(in TypeInput, now time.Time) (AccommodationType, error) {
	next := t
	if in.Name != nil {
		next.Name = strings.TrimSpace(*in.Name)
	}
	assignInt(&next.Capacity, in.Capacity)
	assignInt(&next.Rooms, in.Rooms)
	assignInt(&next.Bathrooms, in.Bathrooms)
	assignInt(&next.MinOccupants, in.MinOccupants)
	assignInt(&next.MaxOccupants, in.MaxOccupants)
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}

	switch {
	case next.Name == "" || len(next.Name) > maxTypeNameLength:
		return t, ErrInvalidData("name")
	case next.Capacity < 1:
		return t, ErrInvalidData("capacity")
	case next.Rooms < 1:
		return t, ErrInvalidData("rooms")
	case next.Bathrooms < 0:
		return t, ErrInvalidData("bathrooms")
	case next.MinOccupants < 1:
		return t, ErrInvalidData("minOccupants")
	case next.MaxOccupants < next.MinOccupants:
		return t, ErrInvalidData("maxOccupants")
	}
	next.UpdatedAt = now
	return next, nil
}

// ============================================================================
// Accommodations
// ============================================================================

type Accommodation struct {
	ID         string          `db:"id" json:"id"`
	TenantID   kernel.TenantID `db:"host_id" json:"hostId"`
	TypeID     string          `db:"accommodation_type_id" json:"accommodationTypeId"`
	Identifier string          `db:"identifier" json:"identifier"`
	Floor      *int            `db:"floor" json:"floor,omitempty"`
	IsActive   bool            `db:"is_active" json:"isActive"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updatedAt"`
}

type AccommodationInput struct {
	TypeID     *string `json:"accommodationTypeId,omitempty"`
	Identifier *string `json:"identifier,omitempty"`
	Floor      *int    `json:"floor,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

func NewAccommodation(tenantID kernel.TenantID, in AccommodationInput, now time.Time) (*Accommodation, error) {
	if in.TypeID == nil {
		return nil, ErrInvalidData("accommodationTypeId")
	}
	if in.Identifier == nil {
		return nil, ErrInvalidData("identifier")
	}
	a := Accommodation{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		IsActive:  true,
		CreatedAt: now,
	}
	next, err := a.Apply(in, now)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (a Accommodation) Apply(in AccommodationInput, now time.Time) (Accommodation, error) {
	next := a
	if in.TypeID != nil {
		next.TypeID = strings.TrimSpace(*in.TypeID)
	}
	if in.Identifier != nil {
		next.Identifier = strings.TrimSpace(*in.Identifier)
	}
	if in.Floor != nil {
		next.Floor = in.Floor
	}
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}

	switch {
	case !kernel.ParseUUID(next.TypeID):
		return a, ErrInvalidData("accommodationTypeId")
	case next.Identifier == "" || len(next.Identifier) > maxIdentifierLength:
		return a, ErrInvalidData("identifier")
	case next.Floor != nil && *next.Floor < 0:
		return a, ErrInvalidData("floor")
	}
	next.UpdatedAt = now
	return next, nil
}

// ============================================================================
// Pricing schedules
// ============================================================================

// PricingSchedule sets the nightly price of a type between two dates.
type PricingSchedule struct {
	ID        string          `db:"id" json:"id"`
	TenantID  kernel.TenantID `db:"host_id" json:"hostId"`
	TypeID    string          `db:"accommodation_type_id" json:"accommodationTypeId"`
	StartDate kernel.Date     `db:"start_date" json:"startDate"`
	EndDate   kernel.Date     `db:"end_date" json:"endDate"`
	Price     float64         `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

type ScheduleInput struct {
	TypeID    *string      `json:"accommodationTypeId,omitempty"`
	StartDate *kernel.Date `json:"startDate,omitempty"`
	EndDate   *kernel.Date `json:"endDate,omitempty"`
	Price     *float64     `json:"price,omitempty"`
}

func NewPricingSchedule(tenantID kernel.TenantID, in ScheduleInput, now time.Time) (*PricingSchedule, error) {
	switch {
	case in.TypeID == nil:
		return nil, ErrInvalidData("accommodationTypeId")
	case in.StartDate == nil:
		return nil, ErrInvalidData("startDate")
	case in.EndDate == nil:
		return nil, ErrInvalidData("endDate")
	case in.Price == nil:
		return nil, ErrInvalidData("price")
	}
	s := PricingSchedule{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		CreatedAt: now,
	}
	next, err := s.Apply(in, now)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// Apply checks the resulting range, so a patch that moves only one end is
// validated against the stored other end.
func (s PricingSchedule) Apply(in ScheduleInput, now time.Time) (PricingSchedule, error) {
	next := s
	if in.TypeID != nil {
		next.TypeID = strings.TrimSpace(*in.TypeID)
	}
	if in.StartDate != nil {
		next.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		next.EndDate = *in.EndDate
	}
	if in.Price != nil {
		next.Price = *in.Price
	}

	switch {
	case !kernel.ParseUUID(next.TypeID):
		return s, ErrInvalidData("accommodationTypeId")
	case next.StartDate.IsZero():
		return s, ErrInvalidData("startDate")
	case next.EndDate.IsZero():
		return s, ErrInvalidData("endDate")
	case !next.EndDate.After(next.StartDate.Time):
		return s, ErrInvalidDateRange()
	case next.Price < 0:
		return s, ErrInvalidData("price")
	}
	next.UpdatedAt = now
	return next, nil
}

// Covers reports whether day falls inside [StartDate, EndDate).
func (s PricingSchedule) Covers(day kernel.Date) bool {
	return !day.Before(s.StartDate.Time) && day.Before(s.EndDate.Time)
}

func assignInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
