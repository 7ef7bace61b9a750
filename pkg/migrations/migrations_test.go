package migrations

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMigrator(t *testing.T) (*Migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMigrator(sqlx.NewDb(db, "postgres")), mock
}

func expectApplied(mock sqlmock.Sqlmock, versions ...string) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"version"})
	for _, v := range versions {
		rows.AddRow(v)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).WillReturnRows(rows)
}

func TestVersionsAreOrdered(t *testing.T) {
	m, _ := newMigrator(t)
	require.Len(t, m.versions, 4)
	assert.IsIncreasing(t, m.versions)
	assert.Equal(t, "hosts", registered[m.versions[0]].name)
}

func TestStatus(t *testing.T) {
	m, mock := newMigrator(t)
	expectApplied(mock, "20260301090000", "20260301091000")

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	assert.True(t, statuses[0].Applied)
	assert.True(t, statuses[1].Applied)
	assert.False(t, statuses[2].Applied)
	assert.Equal(t, "customers", statuses[3].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpWithNothingPending(t *testing.T) {
	m, mock := newMigrator(t)
	expectApplied(mock, "20260301090000", "20260301091000", "20260301092000", "20260301093000")

	n, err := m.Up(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownOneStep(t *testing.T) {
	m, mock := newMigrator(t)
	expectApplied(mock, "20260301090000", "20260301091000", "20260301092000")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS accommodation_pricing_schedules")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS accommodations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS accommodation_types")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schema_migrations WHERE version = $1")).
		WithArgs("20260301092000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := m.Down(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpFailureRollsBack(t *testing.T) {
	m, mock := newMigrator(t)
	expectApplied(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS hosts")).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	n, err := m.Up(context.Background(), 1)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimit(t *testing.T) {
	list := []*migration{{version: "1"}, {version: "2"}, {version: "3"}}
	assert.Len(t, limit(list, 0), 3)
	assert.Len(t, limit(list, 2), 2)
	assert.Len(t, limit(list, 5), 3)
}
