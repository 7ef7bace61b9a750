package customerinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/customer"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/lib/pq"
)

const customerColumns = `
	id, host_id, name, email, birth_date, gender, nationality_id,
	is_active, created_at, updated_at`

const (
	documentColumns = `id, customer_id, document, type, issuing_country, is_primary`
	contactColumns  = `id, customer_id, value, type, is_primary`
)

type PostgresCustomerRepository struct {
	db *sqlx.DB
}

func NewPostgresCustomerRepository(db *sqlx.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

var (
	_ customer.Repository            = (*PostgresCustomerRepository)(nil)
	_ customer.NationalityRepository = (*PostgresCustomerRepository)(nil)
)

func (r *PostgresCustomerRepository) FindByID(ctx context.Context, id string, tenantID kernel.TenantID) (*customer.Customer, error) {
	var c customer.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND host_id = $2`
	if err := r.db.GetContext(ctx, &c, query, id, tenantID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customer.ErrNotFound().WithDetail("customer_id", id)
		}
		return nil, errx.Wrap(err, "failed to find customer", errx.TypeInternal).
			WithDetail("customer_id", id)
	}

	c.Documents = []customer.Document{}
	query = `SELECT ` + documentColumns + ` FROM customer_documents WHERE customer_id = $1 ORDER BY is_primary DESC, document`
	if err := r.db.SelectContext(ctx, &c.Documents, query, id); err != nil {
		return nil, errx.Wrap(err, "failed to load customer documents", errx.TypeInternal).
			WithDetail("customer_id", id)
	}

	c.Contacts = []customer.Contact{}
	query = `SELECT ` + contactColumns + ` FROM customer_contacts WHERE customer_id = $1 ORDER BY is_primary DESC, value`
	if err := r.db.SelectContext(ctx, &c.Contacts, query, id); err != nil {
		return nil, errx.Wrap(err, "failed to load customer contacts", errx.TypeInternal).
			WithDetail("customer_id", id)
	}
	return &c, nil
}

const listFilter = `
	WHERE host_id = $1
	  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
	  AND (NOT $3 OR is_active)`

func (r *PostgresCustomerRepository) List(ctx context.Context, tenantID kernel.TenantID, f customer.Filter, opts kernel.PaginationOptions) (kernel.Paginated[customer.Customer], error) {
	opts = opts.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM customers`+listFilter,
		tenantID.String(), f.Search, f.ActiveOnly); err != nil {
		return kernel.Paginated[customer.Customer]{}, errx.Wrap(err, "failed to count customers", errx.TypeInternal)
	}

	var customers []customer.Customer
	query := `SELECT ` + customerColumns + ` FROM customers` + listFilter + ` ORDER BY name LIMIT $4 OFFSET $5`
	if err := r.db.SelectContext(ctx, &customers, query,
		tenantID.String(), f.Search, f.ActiveOnly, opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[customer.Customer]{}, errx.Wrap(err, "failed to list customers", errx.TypeInternal)
	}
	return kernel.NewPaginated(customers, opts.Page, opts.PageSize, total), nil
}

func (r *PostgresCustomerRepository) Create(ctx context.Context, c customer.Customer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO customers (` + customerColumns + `
		) VALUES (
			:id, :host_id, :name, :email, :birth_date, :gender, :nationality_id,
			:is_active, :created_at, :updated_at
		)`
	if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
		return writeError(err, "failed to create customer", c.ID)
	}
	if err := insertChildren(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit customer", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresCustomerRepository) Update(ctx context.Context, c customer.Customer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	query := `
		UPDATE customers SET
			name = :name,
			email = :email,
			birth_date = :birth_date,
			gender = :gender,
			nationality_id = :nationality_id,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id AND host_id = :host_id`
	result, err := tx.NamedExecContext(ctx, query, c)
	if err != nil {
		return writeError(err, "failed to update customer", c.ID)
	}
	if err := expectOneRow(result, c.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_documents WHERE customer_id = $1`, c.ID); err != nil {
		return errx.Wrap(err, "failed to clear customer documents", errx.TypeInternal)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_contacts WHERE customer_id = $1`, c.ID); err != nil {
		return errx.Wrap(err, "failed to clear customer contacts", errx.TypeInternal)
	}
	if err := insertChildren(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit customer", errx.TypeInternal)
	}
	return nil
}

// Delete removes the customer; documents and contacts cascade.
func (r *PostgresCustomerRepository) Delete(ctx context.Context, id string, tenantID kernel.TenantID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1 AND host_id = $2`, id, tenantID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete customer", errx.TypeInternal).
			WithDetail("customer_id", id)
	}
	return expectOneRow(result, id)
}

func (r *PostgresCustomerRepository) ListNationalities(ctx context.Context) ([]customer.Nationality, error) {
	nationalities := []customer.Nationality{}
	if err := r.db.SelectContext(ctx, &nationalities, `SELECT id, country FROM nationalities ORDER BY country`); err != nil {
		return nil, errx.Wrap(err, "failed to list nationalities", errx.TypeInternal)
	}
	return nationalities, nil
}

func (r *PostgresCustomerRepository) NationalityExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM nationalities WHERE id = $1)`, id); err != nil {
		return false, errx.Wrap(err, "failed to check nationality", errx.TypeInternal)
	}
	return exists, nil
}

// ============================================================================
// Helpers
// ============================================================================

func insertChildren(ctx context.Context, tx *sqlx.Tx, c customer.Customer) error {
	for _, d := range c.Documents {
		query := `INSERT INTO customer_documents (` + documentColumns + `)
			VALUES (:id, :customer_id, :document, :type, :issuing_country, :is_primary)`
		if _, err := tx.NamedExecContext(ctx, query, d); err != nil {
			return errx.Wrap(err, "failed to save customer document", errx.TypeInternal).
				WithDetail("customer_id", c.ID)
		}
	}
	for _, ct := range c.Contacts {
		query := `INSERT INTO customer_contacts (` + contactColumns + `)
			VALUES (:id, :customer_id, :value, :type, :is_primary)`
		if _, err := tx.NamedExecContext(ctx, query, ct); err != nil {
			return errx.Wrap(err, "failed to save customer contact", errx.TypeInternal).
				WithDetail("customer_id", c.ID)
		}
	}
	return nil
}

func expectOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if n == 0 {
		return customer.ErrNotFound().WithDetail("customer_id", id)
	}
	return nil
}

// writeError maps a dangling nationality reference to a validation error.
func writeError(err error, msg, id string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return customer.ErrInvalidNationality()
	}
	return errx.Wrap(err, msg, errx.TypeInternal).WithDetail("customer_id", id)
}
