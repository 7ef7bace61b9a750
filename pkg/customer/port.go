package customer

import (
	"context"

	"github.com/karua/hostcore/pkg/kernel"
)

// Filter narrows a customer listing. Search matches name or email.
type Filter struct {
	Search     string
	ActiveOnly bool
}

// Repository is tenant scoped; customers of another host are not found.
// FindByID loads documents and contacts, List does not.
type Repository interface {
	FindByID(ctx context.Context, id string, tenantID kernel.TenantID) (*Customer, error)
	List(ctx context.Context, tenantID kernel.TenantID, f Filter, opts kernel.PaginationOptions) (kernel.Paginated[Customer], error)
	Create(ctx context.Context, c Customer) error
	// Update rewrites the row and replaces both child lists.
	Update(ctx context.Context, c Customer) error
	Delete(ctx context.Context, id string, tenantID kernel.TenantID) error
}

// NationalityRepository is the global read-only catalog.
type NationalityRepository interface {
	ListNationalities(ctx context.Context) ([]Nationality, error)
	NationalityExists(ctx context.Context, id string) (bool, error)
}
