package lodgingsrv

import (
	"context"
	"time"

	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/lodging"
	"github.com/karua/hostcore/pkg/logx"
)

// LodgingService runs every operation inside one tenant. A type, an
// accommodation or a schedule of another tenant behaves as if it did not
// exist.
type LodgingService struct {
	repo lodging.Repository
	now  func() time.Time
}

func NewLodgingService(repo lodging.Repository) *LodgingService {
	return &LodgingService{repo: repo, now: time.Now}
}

// ============================================================================
// Accommodation types
// ============================================================================

func (s *LodgingService) CreateType(ctx context.Context, tenantID kernel.TenantID, in lodging.TypeInput) (*lodging.AccommodationType, error) {
	t, err := lodging.NewAccommodationType(tenantID, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateType(ctx, *t); err != nil {
		return nil, err
	}
	logx.WithContext(ctx).WithField("accommodation_type_id", t.ID).Info("accommodation type created")
	return t, nil
}

func (s *LodgingService) ListTypes(ctx context.Context, tenantID kernel.TenantID) ([]lodging.AccommodationType, error) {
	return s.repo.ListTypes(ctx, tenantID)
}

func (s *LodgingService) GetType(ctx context.Context, tenantID kernel.TenantID, id string) (*lodging.AccommodationType, error) {
	return s.repo.FindType(ctx, id, tenantID)
}

func (s *LodgingService) UpdateType(ctx context.Context, tenantID kernel.TenantID, id string, in lodging.TypeInput) (*lodging.AccommodationType, error) {
	current, err := s.repo.FindType(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	next, err := current.Apply(in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateType(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *LodgingService) DeleteType(ctx context.Context, tenantID kernel.TenantID, id string) error {
	return s.repo.DeleteType(ctx, id, tenantID)
}

// ============================================================================
// Accommodations
// ============================================================================

func (s *LodgingService) CreateAccommodation(ctx context.Context, tenantID kernel.TenantID, in lodging.AccommodationInput) (*lodging.Accommodation, error) {
	a, err := lodging.NewAccommodation(tenantID, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.ownType(ctx, tenantID, a.TypeID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateAccommodation(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAccommodations filters by type when typeID is not empty.
func (s *LodgingService) ListAccommodations(ctx context.Context, tenantID kernel.TenantID, typeID string) ([]lodging.Accommodation, error) {
	return s.repo.ListAccommodations(ctx, tenantID, typeID)
}

func (s *LodgingService) GetAccommodation(ctx context.Context, tenantID kernel.TenantID, id string) (*lodging.Accommodation, error) {
	return s.repo.FindAccommodation(ctx, id, tenantID)
}

func (s *LodgingService) UpdateAccommodation(ctx context.Context, tenantID kernel.TenantID, id string, in lodging.AccommodationInput) (*lodging.Accommodation, error) {
	current, err := s.repo.FindAccommodation(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	next, err := current.Apply(in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if next.TypeID != current.TypeID {
		if err := s.ownType(ctx, tenantID, next.TypeID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateAccommodation(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *LodgingService) DeleteAccommodation(ctx context.Context, tenantID kernel.TenantID, id string) error {
	return s.repo.DeleteAccommodation(ctx, id, tenantID)
}

// ============================================================================
// Pricing schedules
// ============================================================================

func (s *LodgingService) CreateSchedule(ctx context.Context, tenantID kernel.TenantID, in lodging.ScheduleInput) (*lodging.PricingSchedule, error) {
	ps, err := lodging.NewPricingSchedule(tenantID, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.ownType(ctx, tenantID, ps.TypeID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateSchedule(ctx, *ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// ListSchedules lists the schedules of one type; the type must belong to
// the tenant.
func (s *LodgingService) ListSchedules(ctx context.Context, tenantID kernel.TenantID, typeID string) ([]lodging.PricingSchedule, error) {
	if typeID != "" {
		if err := s.ownType(ctx, tenantID, typeID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListSchedules(ctx, tenantID, typeID)
}

func (s *LodgingService) GetSchedule(ctx context.Context, tenantID kernel.TenantID, id string) (*lodging.PricingSchedule, error) {
	return s.repo.FindSchedule(ctx, id, tenantID)
}

func (s *LodgingService) UpdateSchedule(ctx context.Context, tenantID kernel.TenantID, id string, in lodging.ScheduleInput) (*lodging.PricingSchedule, error) {
	current, err := s.repo.FindSchedule(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	next, err := current.Apply(in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if next.TypeID != current.TypeID {
		if err := s.ownType(ctx, tenantID, next.TypeID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateSchedule(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *LodgingService) DeleteSchedule(ctx context.Context, tenantID kernel.TenantID, id string) error {
	return s.repo.DeleteSchedule(ctx, id, tenantID)
}

// ownType fails with TYPE_NOT_FOUND unless typeID belongs to tenantID.
func (s *LodgingService) ownType(ctx context.Context, tenantID kernel.TenantID, typeID string) error {
	_, err := s.repo.FindType(ctx, typeID, tenantID)
	return err
}
