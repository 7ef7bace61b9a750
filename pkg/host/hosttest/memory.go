// Package hosttest provides an in-memory host.Repository.
package hosttest

import (
	"context"
	"sort"
	"sync"

	"github.com/karua/hostcore/pkg/host"
	"github.com/karua/hostcore/pkg/kernel"
)

type Repository struct {
	mu    sync.Mutex
	hosts map[kernel.TenantID]host.Host
}

func NewRepository(hosts ...*host.Host) *Repository {
	r := &Repository{hosts: make(map[kernel.TenantID]host.Host)}
	for _, h := range hosts {
		r.hosts[h.ID] = *h
	}
	return r
}

var _ host.Repository = (*Repository)(nil)

func (r *Repository) FindByID(_ context.Context, id kernel.TenantID) (*host.Host, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hosts[id]
	if !ok {
		return nil, host.ErrHostNotFound()
	}
	h.LegalRepresentatives = append([]host.LegalRepresentative(nil), h.LegalRepresentatives...)
	return &h, nil
}

func (r *Repository) List(_ context.Context, opts kernel.PaginationOptions) (kernel.Paginated[host.Host], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	opts = opts.Normalize()

	all := make([]host.Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		h.LegalRepresentatives = nil
		all = append(all, h)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start := min(opts.Offset(), len(all))
	end := min(start+opts.PageSize, len(all))
	return kernel.NewPaginated(all[start:end], opts.Page, opts.PageSize, len(all)), nil
}

func (r *Repository) ExistsByCNPJ(_ context.Context, cnpj string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hosts {
		if h.CNPJ != nil && *h.CNPJ == cnpj {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) ExistsRepresentativeCPF(_ context.Context, cpf string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hosts {
		for _, rep := range h.LegalRepresentatives {
			if rep.CPF == cpf {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Repository) Create(_ context.Context, h host.Host) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts[h.ID] = h
	return nil
}

func (r *Repository) Update(_ context.Context, h host.Host) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hosts[h.ID]; !ok {
		return host.ErrHostNotFound()
	}
	r.hosts[h.ID] = h
	return nil
}

func (r *Repository) SetActive(_ context.Context, id kernel.TenantID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hosts[id]
	if !ok {
		return host.ErrHostNotFound()
	}
	h.IsActive = active
	r.hosts[id] = h
	return nil
}

func (r *Repository) HostName(_ context.Context, id kernel.TenantID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hosts[id]
	if !ok {
		return "", host.ErrHostNotFound()
	}
	return h.Name, nil
}
