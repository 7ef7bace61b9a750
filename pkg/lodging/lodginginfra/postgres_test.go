package lodginginfra_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/lodging"
	"github.com/karua/hostcore/pkg/lodging/lodginginfra"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*lodginginfra.PostgresLodgingRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return lodginginfra.NewPostgresLodgingRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestFindTypeIsTenantScoped(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accommodation_types WHERE id = $1 AND host_id = $2")).
		WithArgs("t-1", "host-b").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindType(context.Background(), "t-1", "host-b")
	assert.True(t, errx.IsCode(err, lodging.CodeTypeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTypeStillReferenced(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accommodation_types WHERE id = $1 AND host_id = $2")).
		WithArgs("t-1", "host-a").
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.DeleteType(context.Background(), "t-1", "host-a")
	assert.True(t, errx.IsCode(err, lodging.CodeTypeInUse))
}

func TestCreateAccommodationDuplicateIdentifier(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accommodations")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_accommodations_host_identifier"})

	err := repo.CreateAccommodation(context.Background(), lodging.Accommodation{ID: "a-1", TenantID: "host-a", Identifier: "101"})
	assert.True(t, errx.IsCode(err, lodging.CodeIdentifierAlreadyExists))
}

func TestListSchedulesScansDates(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accommodation_pricing_schedules")).
		WithArgs("host-a", "t-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "host_id", "accommodation_type_id", "start_date", "end_date", "price", "created_at", "updated_at",
		}).AddRow("s-1", "host-a", "t-1",
			time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC), time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC),
			[]byte("450.000000"), now, now))

	items, err := repo.ListSchedules(context.Background(), "host-a", "t-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2026-12-20", items[0].StartDate.String())
	assert.Equal(t, 450.0, items[0].Price)
}

func TestUpdateScheduleOtherTenant(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accommodation_pricing_schedules SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSchedule(context.Background(), lodging.PricingSchedule{
		ID: "s-1", TenantID: "host-b",
		StartDate: kernel.NewDate(2026, 1, 1), EndDate: kernel.NewDate(2026, 1, 2),
	})
	assert.True(t, errx.IsCode(err, lodging.CodeScheduleNotFound))
}
