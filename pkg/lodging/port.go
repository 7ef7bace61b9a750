package lodging

import (
	"context"

	"github.com/karua/hostcore/pkg/kernel"
)

// Every method is scoped by tenant; a row of another tenant is reported as
// not found.
type TypeRepository interface {
	FindType(ctx context.Context, id string, tenantID kernel.TenantID) (*AccommodationType, error)
	ListTypes(ctx context.Context, tenantID kernel.TenantID) ([]AccommodationType, error)
	CreateType(ctx context.Context, t AccommodationType) error
	UpdateType(ctx context.Context, t AccommodationType) error
	DeleteType(ctx context.Context, id string, tenantID kernel.TenantID) error
}

type AccommodationRepository interface {
	FindAccommodation(ctx context.Context, id string, tenantID kernel.TenantID) (*Accommodation, error)
	ListAccommodations(ctx context.Context, tenantID kernel.TenantID, typeID string) ([]Accommodation, error)
	CreateAccommodation(ctx context.Context, a Accommodation) error
	UpdateAccommodation(ctx context.Context, a Accommodation) error
	DeleteAccommodation(ctx context.Context, id string, tenantID kernel.TenantID) error
}

type ScheduleRepository interface {
	FindSchedule(ctx context.Context, id string, tenantID kernel.TenantID) (*PricingSchedule, error)
	ListSchedules(ctx context.Context, tenantID kernel.TenantID, typeID string) ([]PricingSchedule, error)
	CreateSchedule(ctx context.Context, s PricingSchedule) error
	UpdateSchedule(ctx context.Context, s PricingSchedule) error
	DeleteSchedule(ctx context.Context, id string, tenantID kernel.TenantID) error
}

// Repository is the full lodging store.
type Repository interface {
	TypeRepository
	AccommodationRepository
	ScheduleRepository
}
