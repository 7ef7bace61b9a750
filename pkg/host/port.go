package host

import (
	"context"

	"github.com/karua/hostcore/pkg/kernel"
)

// Repository persists hosts together with their legal representatives.
type Repository interface {
	FindByID(ctx context.Context, id kernel.TenantID) (*Host, error)
	List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[Host], error)

	ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error)
	ExistsRepresentativeCPF(ctx context.Context, cpf string) (bool, error)

	// Create and Update write the host and its representatives in one
	// transaction.
	Create(ctx context.Context, h Host) error
	Update(ctx context.Context, h Host) error
	SetActive(ctx context.Context, id kernel.TenantID, active bool) error

	// HostName serves auth.HostDirectory.
	HostName(ctx context.Context, id kernel.TenantID) (string, error)
}
