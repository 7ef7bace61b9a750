package customersrv

import (
	"context"
	"time"

	"github.com/karua/hostcore/pkg/customer"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
)

// CustomerService manages the guests of one host at a time.
type CustomerService struct {
	repo          customer.Repository
	nationalities customer.NationalityRepository
	now           func() time.Time
}

func NewCustomerService(repo customer.Repository, nationalities customer.NationalityRepository) *CustomerService {
	return &CustomerService{repo: repo, nationalities: nationalities, now: time.Now}
}

func (s *CustomerService) Create(ctx context.Context, tenantID kernel.TenantID, in customer.Input) (*customer.Customer, error) {
	c, err := customer.New(tenantID, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.checkNationality(ctx, c.NationalityID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, *c); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"customer_id": c.ID,
		"host_id":     tenantID.String(),
	}).Info("customer created")
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, tenantID kernel.TenantID, id string) (*customer.Customer, error) {
	return s.repo.FindByID(ctx, id, tenantID)
}

func (s *CustomerService) List(ctx context.Context, tenantID kernel.TenantID, f customer.Filter, opts kernel.PaginationOptions) (kernel.Paginated[customer.Customer], error) {
	return s.repo.List(ctx, tenantID, f, opts)
}

// Update applies a partial change. Lists present in the input replace the
// stored ones; absent lists are kept.
func (s *CustomerService) Update(ctx context.Context, tenantID kernel.TenantID, id string, in customer.Input) (*customer.Customer, error) {
	current, err := s.repo.FindByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	next, err := current.Apply(in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if in.NationalityID != nil {
		if err := s.checkNationality(ctx, next.NationalityID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *CustomerService) Delete(ctx context.Context, tenantID kernel.TenantID, id string) error {
	if err := s.repo.Delete(ctx, id, tenantID); err != nil {
		return err
	}
	logx.WithContext(ctx).WithField("customer_id", id).Info("customer deleted")
	return nil
}

func (s *CustomerService) Nationalities(ctx context.Context) ([]customer.Nationality, error) {
	return s.nationalities.ListNationalities(ctx)
}

func (s *CustomerService) checkNationality(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	exists, err := s.nationalities.NationalityExists(ctx, *id)
	if err != nil {
		return err
	}
	if !exists {
		return customer.ErrInvalidNationality().WithDetail("nationality_id", *id)
	}
	return nil
}
