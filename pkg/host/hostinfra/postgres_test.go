package hostinfra_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/host"
	"github.com/karua/hostcore/pkg/host/hostinfra"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/ptrx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*hostinfra.PostgresHostRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return hostinfra.NewPostgresHostRepository(sqlx.NewDb(db, "postgres")), mock
}

func newHost(t *testing.T) *host.Host {
	t.Helper()
	h, err := host.NewHost(host.CreateHostRequest{
		Name: "Hotel Sol",
		CNPJ: ptrx.To("11222333000181"),
		LegalRepresentative: host.CreateRepresentativeRequest{
			Name: "Maria", Email: "maria@hotel.com", CPF: "12345678909",
		},
	}, time.Now())
	require.NoError(t, err)
	return h
}

func TestCreateWritesHostAndRepresentativesInOneTransaction(t *testing.T) {
	repo, mock := newRepo(t)
	h := newHost(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO hosts")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO legal_representatives")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), *h))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsUniqueViolations(t *testing.T) {
	repo, mock := newRepo(t)
	h := newHost(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO hosts")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO legal_representatives")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "legal_representatives_cpf_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), *h)
	assert.True(t, errx.IsCode(err, host.CodeCPFAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM hosts WHERE id = $1")).
		WithArgs("h-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "h-1")
	assert.True(t, errx.IsCode(err, host.CodeHostNotFound))
}

func TestFindByIDLoadsRepresentatives(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM hosts WHERE id = $1")).
		WithArgs("h-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "cnpj", "cep", "street", "number", "state", "phone", "email",
			"is_active", "created_at", "updated_at",
		}).AddRow("h-1", "Hotel Sol", nil, "11222333000181", nil, nil, nil, "RJ", nil, nil, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM legal_representatives WHERE host_id = $1")).
		WithArgs("h-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "host_id", "name", "email", "cpf", "phone", "created_at", "updated_at",
		}).AddRow("r-1", "h-1", "Maria", "maria@hotel.com", "12345678909", nil, now, now))

	h, err := repo.FindByID(context.Background(), "h-1")
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", *h.CNPJ)
	assert.Nil(t, h.Description)
	require.Len(t, h.LegalRepresentatives, 1)
	assert.Equal(t, "Maria", h.LegalRepresentatives[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveUnknownHost(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE hosts SET is_active")).
		WithArgs(false, "h-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), "h-9", false)
	assert.True(t, errx.IsCode(err, host.CodeHostNotFound))
}

func TestListPaginates(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM hosts")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta("FROM hosts ORDER BY name LIMIT $1 OFFSET $2")).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "cnpj", "cep", "street", "number", "state", "phone", "email",
			"is_active", "created_at", "updated_at",
		}).AddRow("h-21", "Zeta", nil, nil, nil, nil, nil, nil, nil, nil, true, now, now))

	page, err := repo.List(context.Background(), kernel.PaginationOptions{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page.Pages)
	assert.Len(t, page.Items, 1)
}
