// Package customertest provides in-memory customer repositories.
package customertest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/karua/hostcore/pkg/customer"
	"github.com/karua/hostcore/pkg/kernel"
)

type Repository struct {
	mu            sync.Mutex
	customers     map[string]customer.Customer
	nationalities []customer.Nationality
}

func NewRepository(nationalities ...customer.Nationality) *Repository {
	return &Repository{
		customers:     make(map[string]customer.Customer),
		nationalities: nationalities,
	}
}

var (
	_ customer.Repository            = (*Repository)(nil)
	_ customer.NationalityRepository = (*Repository)(nil)
)

func (r *Repository) FindByID(_ context.Context, id string, tenantID kernel.TenantID) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, customer.ErrNotFound()
	}
	return &c, nil
}

func (r *Repository) List(_ context.Context, tenantID kernel.TenantID, f customer.Filter, opts kernel.PaginationOptions) (kernel.Paginated[customer.Customer], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	opts = opts.Normalize()

	search := strings.ToLower(f.Search)
	matched := []customer.Customer{}
	for _, c := range r.customers {
		if c.TenantID != tenantID || (f.ActiveOnly && !c.IsActive) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(c.Email, search) {
			continue
		}
		c.Documents, c.Contacts = nil, nil
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	start := min(opts.Offset(), len(matched))
	end := min(start+opts.PageSize, len(matched))
	return kernel.NewPaginated(matched[start:end], opts.Page, opts.PageSize, len(matched)), nil
}

func (r *Repository) Create(_ context.Context, c customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = c
	return nil
}

func (r *Repository) Update(_ context.Context, c customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.customers[c.ID]
	if !ok || current.TenantID != c.TenantID {
		return customer.ErrNotFound()
	}
	r.customers[c.ID] = c
	return nil
}

func (r *Repository) Delete(_ context.Context, id string, tenantID kernel.TenantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || c.TenantID != tenantID {
		return customer.ErrNotFound()
	}
	delete(r.customers, id)
	return nil
}

func (r *Repository) ListNationalities(_ context.Context) ([]customer.Nationality, error) {
	out := append([]customer.Nationality{}, r.nationalities...)
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out, nil
}

func (r *Repository) NationalityExists(_ context.Context, id string) (bool, error) {
	for _, n := range r.nationalities {
		if n.ID == id {
			return true, nil
		}
	}
	return false, nil
}
