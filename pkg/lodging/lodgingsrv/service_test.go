package lodgingsrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/lodging"
	"github.com/karua/hostcore/pkg/lodging/lodgingsrv"
	"github.com/karua/hostcore/pkg/lodging/lodgingtest"
	"github.com/karua/hostcore/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newType(t *testing.T, svc *lodgingsrv.LodgingService, tenant kernel.TenantID) *lodging.AccommodationType {
	t.Helper()
	typ, err := svc.CreateType(context.Background(), tenant, lodging.TypeInput{
		Name:         ptrx.To("Standard"),
		Capacity:     ptrx.To(2),
		Rooms:        ptrx.To(1),
		Bathrooms:    ptrx.To(1),
		MaxOccupants: ptrx.To(2),
	})
	require.NoError(t, err)
	return typ
}

func TestForeignTypeIsNotFound(t *testing.T) {
	svc := lodgingsrv.NewLodgingService(lodgingtest.NewRepository())
	ctx := context.Background()
	mine, theirs := kernel.NewTenantID(), kernel.NewTenantID()
	foreign := newType(t, svc, theirs)

	_, err := svc.GetType(ctx, mine, foreign.ID)
	assert.True(t, errx.IsCode(err, lodging.CodeTypeNotFound))

	_, err = svc.CreateAccommodation(ctx, mine, lodging.AccommodationInput{
		TypeID: ptrx.To(foreign.ID), Identifier: ptrx.To("101"),
	})
	assert.True(t, errx.IsCode(err, lodging.CodeTypeNotFound))

	start, end := kernel.NewDate(2026, 1, 1), kernel.NewDate(2026, 2, 1)
	_, err = svc.CreateSchedule(ctx, mine, lodging.ScheduleInput{
		TypeID: ptrx.To(foreign.ID), StartDate: &start, EndDate: &end, Price: ptrx.To(100.0),
	})
	assert.True(t, errx.IsCode(err, lodging.CodeTypeNotFound))

	_, err = svc.ListSchedules(ctx, mine, foreign.ID)
	assert.True(t, errx.IsCode(err, lodging.CodeTypeNotFound))

	err = svc.DeleteType(ctx, mine, foreign.ID)
	assert.True(t, errx.IsCode(err, lodging.CodeTypeNotFound))
}

func TestAccommodationLifecycle(t *testing.T) {
	svc := lodgingsrv.NewLodgingService(lodgingtest.NewRepository())
	ctx := context.Background()
	tenant := kernel.NewTenantID()
	typ := newType(t, svc, tenant)

	a, err := svc.CreateAccommodation(ctx, tenant, lodging.AccommodationInput{
		TypeID: ptrx.To(typ.ID), Identifier: ptrx.To("101"), Floor: ptrx.To(1),
	})
	require.NoError(t, err)
	assert.True(t, a.IsActive)

	_, err = svc.CreateAccommodation(ctx, tenant, lodging.AccommodationInput{
		TypeID: ptrx.To(typ.ID), Identifier: ptrx.To("101"),
	})
	assert.True(t, errx.IsCode(err, lodging.CodeIdentifierAlreadyExists))

	updated, err := svc.UpdateAccommodation(ctx, tenant, a.ID, lodging.AccommodationInput{IsActive: ptrx.To(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	err = svc.DeleteType(ctx, tenant, typ.ID)
	assert.True(t, errx.IsCode(err, lodging.CodeTypeInUse))

	list, err := svc.ListAccommodations(ctx, tenant, typ.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteAccommodation(ctx, tenant, a.ID))
	require.NoError(t, svc.DeleteType(ctx, tenant, typ.ID))
}

func TestScheduleUpdateChecksTheWholeRange(t *testing.T) {
	svc := lodgingsrv.NewLodgingService(lodgingtest.NewRepository())
	ctx := context.Background()
	tenant := kernel.NewTenantID()
	typ := newType(t, svc, tenant)

	start, end := kernel.NewDate(2026, time.July, 1), kernel.NewDate(2026, time.July, 31)
	s, err := svc.CreateSchedule(ctx, tenant, lodging.ScheduleInput{
		TypeID: ptrx.To(typ.ID), StartDate: &start, EndDate: &end, Price: ptrx.To(320.5),
	})
	require.NoError(t, err)

	late := kernel.NewDate(2026, time.August, 15)
	_, err = svc.UpdateSchedule(ctx, tenant, s.ID, lodging.ScheduleInput{StartDate: &late})
	assert.True(t, errx.IsCode(err, lodging.CodeInvalidDateRange))

	updated, err := svc.UpdateSchedule(ctx, tenant, s.ID, lodging.ScheduleInput{Price: ptrx.To(299.0)})
	require.NoError(t, err)
	assert.Equal(t, 299.0, updated.Price)

	_, err = svc.GetSchedule(ctx, kernel.NewTenantID(), s.ID)
	assert.True(t, errx.IsCode(err, lodging.CodeScheduleNotFound))
}
