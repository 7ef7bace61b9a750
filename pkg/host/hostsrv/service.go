package hostsrv

import (
	"context"
	"time"

	"github.com/karua/hostcore/pkg/host"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
)

type HostService struct {
	hosts host.Repository
	now   func() time.Time
}

func NewHostService(hosts host.Repository) *HostService {
	return &HostService{hosts: hosts, now: time.Now}
}

// Create registers a new tenant. CNPJ and representative CPF must be valid
// and unused.
func (s *HostService) Create(ctx context.Context, req host.CreateHostRequest) (*host.Host, error) {
	h, err := host.NewHost(req, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if h.CNPJ != nil {
		exists, err := s.hosts.ExistsByCNPJ(ctx, *h.CNPJ)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, host.ErrCNPJAlreadyExists()
		}
	}
	for _, rep := range h.LegalRepresentatives {
		exists, err := s.hosts.ExistsRepresentativeCPF(ctx, rep.CPF)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, host.ErrCPFAlreadyExists()
		}
	}

	if err := s.hosts.Create(ctx, *h); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"host_id": h.ID.String(),
		"name":    h.Name,
	}).Info("host created")
	return h, nil
}

func (s *HostService) Get(ctx context.Context, id kernel.TenantID) (*host.Host, error) {
	return s.hosts.FindByID(ctx, id)
}

func (s *HostService) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[host.Host], error) {
	return s.hosts.List(ctx, opts)
}

func (s *HostService) Update(ctx context.Context, id kernel.TenantID, patch host.Patch) (*host.Host, error) {
	current, err := s.hosts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := current.Apply(patch, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.hosts.Update(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// SetActive toggles the host. Deactivating a host does not touch its users.
func (s *HostService) SetActive(ctx context.Context, id kernel.TenantID, active bool) (*host.Host, error) {
	if err := s.hosts.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	logx.WithContext(ctx).WithFields(logx.Fields{
		"host_id":   id.String(),
		"is_active": active,
	}).Info("host status changed")
	return s.hosts.FindByID(ctx, id)
}

// HostName makes the service usable as auth.HostDirectory.
func (s *HostService) HostName(ctx context.Context, id kernel.TenantID) (string, error) {
	return s.hosts.HostName(ctx, id)
}
