package hostinfra

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/host"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/lib/pq"
)

const hostColumns = `
	id, name, description, cnpj, cep, street, number, state, phone, email,
	is_active, created_at, updated_at`

const representativeColumns = `id, host_id, name, email, cpf, phone, created_at, updated_at`

type PostgresHostRepository struct {
	db *sqlx.DB
}

func NewPostgresHostRepository(db *sqlx.DB) *PostgresHostRepository {
	return &PostgresHostRepository{db: db}
}

var _ host.Repository = (*PostgresHostRepository)(nil)

func (r *PostgresHostRepository) FindByID(ctx context.Context, id kernel.TenantID) (*host.Host, error) {
	var h host.Host
	query := `SELECT ` + hostColumns + ` FROM hosts WHERE id = $1`
	if err := r.db.GetContext(ctx, &h, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, host.ErrHostNotFound().WithDetail("host_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find host", errx.TypeInternal).
			WithDetail("host_id", id.String())
	}

	reps := []host.LegalRepresentative{}
	query = `SELECT ` + representativeColumns + ` FROM legal_representatives WHERE host_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &reps, query, id.String()); err != nil {
		return nil, errx.Wrap(err, "failed to load legal representatives", errx.TypeInternal).
			WithDetail("host_id", id.String())
	}
	h.LegalRepresentatives = reps
	return &h, nil
}

// List returns a page of hosts without their representatives.
func (r *PostgresHostRepository) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[host.Host], error) {
	opts = opts.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM hosts`); err != nil {
		return kernel.Paginated[host.Host]{}, errx.Wrap(err, "failed to count hosts", errx.TypeInternal)
	}

	var hosts []host.Host
	query := `SELECT ` + hostColumns + ` FROM hosts ORDER BY name LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &hosts, query, opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[host.Host]{}, errx.Wrap(err, "failed to list hosts", errx.TypeInternal)
	}
	return kernel.NewPaginated(hosts, opts.Page, opts.PageSize, total), nil
}

func (r *PostgresHostRepository) ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM hosts WHERE cnpj = $1)`, cnpj)
}

func (r *PostgresHostRepository) ExistsRepresentativeCPF(ctx context.Context, cpf string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM legal_representatives WHERE cpf = $1)`, cpf)
}

func (r *PostgresHostRepository) exists(ctx context.Context, query, value string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, value); err != nil {
		return false, errx.Wrap(err, "failed to check host existence", errx.TypeInternal)
	}
	return exists, nil
}

func (r *PostgresHostRepository) Create(ctx context.Context, h host.Host) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO hosts (` + hostColumns + `
		) VALUES (
			:id, :name, :description, :cnpj, :cep, :street, :number, :state, :phone, :email,
			:is_active, :created_at, :updated_at
		)`
	if _, err := tx.NamedExecContext(ctx, query, h); err != nil {
		return writeError(err, "failed to create host", h.ID)
	}

	for _, rep := range h.LegalRepresentatives {
		query := `
			INSERT INTO legal_representatives (` + representativeColumns + `)
			VALUES (:id, :host_id, :name, :email, :cpf, :phone, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, rep); err != nil {
			return writeError(err, "failed to create legal representative", h.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit host", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresHostRepository) Update(ctx context.Context, h host.Host) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	query := `
		UPDATE hosts SET
			description = :description,
			cep = :cep,
			street = :street,
			number = :number,
			state = :state,
			phone = :phone,
			email = :email,
			updated_at = :updated_at
		WHERE id = :id`
	result, err := tx.NamedExecContext(ctx, query, h)
	if err != nil {
		return writeError(err, "failed to update host", h.ID)
	}
	if err := expectOneRow(result, h.ID); err != nil {
		return err
	}

	for _, rep := range h.LegalRepresentatives {
		query := `
			UPDATE legal_representatives SET email = :email, phone = :phone, updated_at = :updated_at
			WHERE id = :id AND host_id = :host_id`
		if _, err := tx.NamedExecContext(ctx, query, rep); err != nil {
			return writeError(err, "failed to update legal representative", h.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit host", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresHostRepository) SetActive(ctx context.Context, id kernel.TenantID, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE hosts SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to update host status", errx.TypeInternal).
			WithDetail("host_id", id.String())
	}
	return expectOneRow(result, id)
}

func (r *PostgresHostRepository) HostName(ctx context.Context, id kernel.TenantID) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM hosts WHERE id = $1`, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", host.ErrHostNotFound().WithDetail("host_id", id.String())
		}
		return "", errx.Wrap(err, "failed to read host name", errx.TypeInternal)
	}
	return name, nil
}

// ============================================================================
// Helpers
// ============================================================================

func expectOneRow(result sql.Result, id kernel.TenantID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if n == 0 {
		return host.ErrHostNotFound().WithDetail("host_id", id.String())
	}
	return nil
}

// writeError maps unique violations on cnpj and cpf to conflicts.
func writeError(err error, msg string, id kernel.TenantID) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "cpf") {
			return host.ErrCPFAlreadyExists()
		}
		return host.ErrCNPJAlreadyExists()
	}
	return errx.Wrap(err, msg, errx.TypeInternal).WithDetail("host_id", id.String())
}
