package userinfra

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/lib/pq"
)

const userColumns = `
	id, host_id, name, email, username, password, secure_code, role,
	is_active, is_first_login, invite_sent_at, created_at, updated_at`

// PostgresUserRepository is the PostgreSQL credential store.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND host_id = $2`

	var u user.User
	if err := r.db.GetContext(ctx, &u, query, id.String(), tenantID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return &u, nil
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg string) (*user.User, error) {
	var u user.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return &u, nil
}

func (r *PostgresUserRepository) ListByTenant(ctx context.Context, tenantID kernel.TenantID) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE host_id = $1 ORDER BY created_at DESC`

	var users []user.User
	if err := r.db.SelectContext(ctx, &users, query, tenantID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list users", errx.TypeInternal).
			WithDetail("tenant_id", tenantID.String())
	}

	result := make([]*user.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string, excludeID kernel.UserID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id::text <> $2)`, email, excludeID)
}

func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID kernel.UserID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id::text <> $2)`, username, excludeID)
}

func (r *PostgresUserRepository) exists(ctx context.Context, query, value string, excludeID kernel.UserID) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, value, excludeID.String()); err != nil {
		return false, errx.Wrap(err, "failed to check user existence", errx.TypeInternal)
	}
	return exists, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `
		) VALUES (
			:id, :host_id, :name, :email, :username, :password, :secure_code, :role,
			:is_active, :is_first_login, :invite_sent_at, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		if isForeignKeyViolation(err) {
			return user.ErrHostNotFound().WithDetail("host_id", u.TenantID.String())
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}
	return nil
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, u user.User) error {
	query := `
		UPDATE users SET
			name = :name,
			email = :email,
			username = :username,
			role = :role,
			updated_at = :updated_at
		WHERE id = :id AND host_id = :host_id`

	result, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}
	return expectOneRow(result, u.ID)
}

func (r *PostgresUserRepository) SetActive(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, active bool) error {
	query := `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2 AND host_id = $3`

	result, err := r.db.ExecContext(ctx, query, active, id.String(), tenantID.String())
	if err != nil {
		return errx.Wrap(err, "failed to update user status", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return expectOneRow(result, id)
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID) error {
	query := `DELETE FROM users WHERE id = $1 AND host_id = $2`

	result, err := r.db.ExecContext(ctx, query, id.String(), tenantID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete user", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return expectOneRow(result, id)
}

func (r *PostgresUserRepository) IssueSecureCode(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, codeHash string, sentAt time.Time) (bool, error) {
	query := `
		UPDATE users
		SET secure_code = $1, invite_sent_at = $2, is_first_login = true, updated_at = NOW()
		WHERE id = $3 AND host_id = $4 AND password IS NULL`

	result, err := r.db.ExecContext(ctx, query, codeHash, sentAt, id.String(), tenantID.String())
	if err != nil {
		return false, errx.Wrap(err, "failed to store secure code", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return affected(result)
}

func (r *PostgresUserRepository) SetFirstPassword(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, passwordHash, expectedCodeHash string) (bool, error) {
	query := `
		UPDATE users
		SET password = $1, secure_code = NULL, is_first_login = false, updated_at = NOW()
		WHERE id = $2 AND host_id = $3 AND password IS NULL AND secure_code = $4`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id.String(), tenantID.String(), expectedCodeHash)
	if err != nil {
		return false, errx.Wrap(err, "failed to set first password", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return affected(result)
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID, passwordHash string) error {
	query := `
		UPDATE users
		SET password = $1, secure_code = NULL, is_first_login = false, updated_at = NOW()
		WHERE id = $2 AND host_id = $3`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id.String(), tenantID.String())
	if err != nil {
		return errx.Wrap(err, "failed to update password", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return expectOneRow(result, id)
}

// ============================================================================
// Helpers
// ============================================================================

func affected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	return rowsAffected > 0, nil
}

func expectOneRow(result sql.Result, id kernel.UserID) error {
	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return user.ErrUserNotFound().WithDetail("user_id", id.String())
	}
	return nil
}

// isForeignKeyViolation reports a 23503 error; users reference hosts only.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// uniqueViolation maps a 23505 error to the matching conflict.
func uniqueViolation(err error) *errx.Error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "username") {
		return user.ErrUsernameAlreadyExists()
	}
	return user.ErrEmailAlreadyExists()
}
