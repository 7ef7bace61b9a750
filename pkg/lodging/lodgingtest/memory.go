// Package lodgingtest provides an in-memory lodging.Repository.
package lodgingtest

import (
	"context"
	"sort"
	"sync"

	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/lodging"
)

type Repository struct {
	mu             sync.Mutex
	types          map[string]lodging.AccommodationType
	accommodations map[string]lodging.Accommodation
	schedules      map[string]lodging.PricingSchedule
}

func NewRepository() *Repository {
	return &Repository{
		types:          make(map[string]lodging.AccommodationType),
		accommodations: make(map[string]lodging.Accommodation),
		schedules:      make(map[string]lodging.PricingSchedule),
	}
}

var _ lodging.Repository = (*Repository)(nil)

func (r *Repository) FindType(_ context.Context, id string, tenantID kernel.TenantID) (*lodging.AccommodationType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[id]
	if !ok || t.TenantID != tenantID {
		return nil, lodging.ErrTypeNotFound()
	}
	return &t, nil
}

func (r *Repository) ListTypes(_ context.Context, tenantID kernel.TenantID) ([]lodging.AccommodationType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []lodging.AccommodationType{}
	for _, t := range r.types {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) CreateType(_ context.Context, t lodging.AccommodationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = t
	return nil
}

func (r *Repository) UpdateType(_ context.Context, t lodging.AccommodationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.types[t.ID]; !ok || cur.TenantID != t.TenantID {
		return lodging.ErrTypeNotFound()
	}
	r.types[t.ID] = t
	return nil
}

func (r *Repository) DeleteType(_ context.Context, id string, tenantID kernel.TenantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.types[id]; !ok || cur.TenantID != tenantID {
		return lodging.ErrTypeNotFound()
	}
	for _, a := range r.accommodations {
		if a.TypeID == id {
			return lodging.ErrTypeInUse()
		}
	}
	for _, s := range r.schedules {
		if s.TypeID == id {
			return lodging.ErrTypeInUse()
		}
	}
	delete(r.types, id)
	return nil
}

func (r *Repository) FindAccommodation(_ context.Context, id string, tenantID kernel.TenantID) (*lodging.Accommodation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accommodations[id]
	if !ok || a.TenantID != tenantID {
		return nil, lodging.ErrAccommodationNotFound()
	}
	return &a, nil
}

func (r *Repository) ListAccommodations(_ context.Context, tenantID kernel.TenantID, typeID string) ([]lodging.Accommodation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []lodging.Accommodation{}
	for _, a := range r.accommodations {
		if a.TenantID == tenantID && (typeID == "" || a.TypeID == typeID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (r *Repository) CreateAccommodation(_ context.Context, a lodging.Accommodation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.accommodations {
		if other.TenantID == a.TenantID && other.Identifier == a.Identifier {
			return lodging.ErrIdentifierAlreadyExists()
		}
	}
	r.accommodations[a.ID] = a
	return nil
}

func (r *Repository) UpdateAccommodation(_ context.Context, a lodging.Accommodation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.accommodations[a.ID]; !ok || cur.TenantID != a.TenantID {
		return lodging.ErrAccommodationNotFound()
	}
	r.accommodations[a.ID] = a
	return nil
}

func (r *Repository) DeleteAccommodation(_ context.Context, id string, tenantID kernel.TenantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.accommodations[id]; !ok || cur.TenantID != tenantID {
		return lodging.ErrAccommodationNotFound()
	}
	delete(r.accommodations, id)
	return nil
}

func (r *Repository) FindSchedule(_ context.Context, id string, tenantID kernel.TenantID) (*lodging.PricingSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.TenantID != tenantID {
		return nil, lodging.ErrScheduleNotFound()
	}
	return &s, nil
}

func (r *Repository) ListSchedules(_ context.Context, tenantID kernel.TenantID, typeID string) ([]lodging.PricingSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []lodging.PricingSchedule{}
	for _, s := range r.schedules {
		if s.TenantID == tenantID && (typeID == "" || s.TypeID == typeID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate.Time) })
	return out, nil
}

func (r *Repository) CreateSchedule(_ context.Context, s lodging.PricingSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.ID] = s
	return nil
}

func (r *Repository) UpdateSchedule(_ context.Context, s lodging.PricingSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.schedules[s.ID]; !ok || cur.TenantID != s.TenantID {
		return lodging.ErrScheduleNotFound()
	}
	r.schedules[s.ID] = s
	return nil
}

func (r *Repository) DeleteSchedule(_ context.Context, id string, tenantID kernel.TenantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.schedules[id]; !ok || cur.TenantID != tenantID {
		return lodging.ErrScheduleNotFound()
	}
	delete(r.schedules, id)
	return nil
}
