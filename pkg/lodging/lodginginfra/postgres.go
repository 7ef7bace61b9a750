package lodginginfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/lodging"
	"github.com/lib/pq"
)

const (
	typeColumns = `
		id, host_id, name, capacity, rooms, bathrooms, min_occupants, max_occupants,
		is_active, created_at, updated_at`
	accommodationColumns = `
		id, host_id, accommodation_type_id, identifier, floor, is_active, created_at, updated_at`
	scheduleColumns = `
		id, host_id, accommodation_type_id, start_date, end_date, price, created_at, updated_at`
)

// PostgresLodgingRepository stores the three lodging tables. Each table
// carries host_id so every statement filters by tenant directly.
type PostgresLodgingRepository struct {
	db *sqlx.DB
}

func NewPostgresLodgingRepository(db *sqlx.DB) *PostgresLodgingRepository {
	return &PostgresLodgingRepository{db: db}
}

var _ lodging.Repository = (*PostgresLodgingRepository)(nil)

// ============================================================================
// Accommodation types
// ============================================================================

func (r *PostgresLodgingRepository) FindType(ctx context.Context, id string, tenantID kernel.TenantID) (*lodging.AccommodationType, error) {
	var t lodging.AccommodationType
	query := `SELECT ` + typeColumns + ` FROM accommodation_types WHERE id = $1 AND host_id = $2`
	if err := r.db.GetContext(ctx, &t, query, id, tenantID.String()); err != nil {
		return nil, readError(err, lodging.ErrTypeNotFound, "failed to find accommodation type", id)
	}
	return &t, nil
}

func (r *PostgresLodgingRepository) ListTypes(ctx context.Context, tenantID kernel.TenantID) ([]lodging.AccommodationType, error) {
	types := []lodging.AccommodationType{}
	query := `SELECT ` + typeColumns + ` FROM accommodation_types WHERE host_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &types, query, tenantID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list accommodation types", errx.TypeInternal)
	}
	return types, nil
}

func (r *PostgresLodgingRepository) CreateType(ctx context.Context, t lodging.AccommodationType) error {
	query := `
		INSERT INTO accommodation_types (` + typeColumns + `
		) VALUES (
			:id, :host_id, :name, :capacity, :rooms, :bathrooms, :min_occupants, :max_occupants,
			:is_active, :created_at, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return errx.Wrap(err, "failed to create accommodation type", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresLodgingRepository) UpdateType(ctx context.Context, t lodging.AccommodationType) error {
	query := `
		UPDATE accommodation_types SET
			name = :name,
			capacity = :capacity,
			rooms = :rooms,
			bathrooms = :bathrooms,
			min_occupants = :min_occupants,
			max_occupants = :max_occupants,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id AND host_id = :host_id`
	result, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return errx.Wrap(err, "failed to update accommodation type", errx.TypeInternal)
	}
	return expectOneRow(result, lodging.ErrTypeNotFound, t.ID)
}

// DeleteType refuses to drop a type that is still referenced.
func (r *PostgresLodgingRepository) DeleteType(ctx context.Context, id string, tenantID kernel.TenantID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accommodation_types WHERE id = $1 AND host_id = $2`, id, tenantID.String())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return lodging.ErrTypeInUse().WithDetail("accommodation_type_id", id)
		}
		return errx.Wrap(err, "failed to delete accommodation type", errx.TypeInternal)
	}
	return expectOneRow(result, lodging.ErrTypeNotFound, id)
}

// ============================================================================
// Accommodations
// ============================================================================

func (r *PostgresLodgingRepository) FindAccommodation(ctx context.Context, id string, tenantID kernel.TenantID) (*lodging.Accommodation, error) {
	var a lodging.Accommodation
	query := `SELECT ` + accommodationColumns + ` FROM accommodations WHERE id = $1 AND host_id = $2`
	if err := r.db.GetContext(ctx, &a, query, id, tenantID.String()); err != nil {
		return nil, readError(err, lodging.ErrAccommodationNotFound, "failed to find accommodation", id)
	}
	return &a, nil
}

func (r *PostgresLodgingRepository) ListAccommodations(ctx context.Context, tenantID kernel.TenantID, typeID string) ([]lodging.Accommodation, error) {
	items := []lodging.Accommodation{}
	query := `
		SELECT ` + accommodationColumns + ` FROM accommodations
		WHERE host_id = $1 AND ($2 = '' OR accommodation_type_id::text = $2)
		ORDER BY identifier`
	if err := r.db.SelectContext(ctx, &items, query, tenantID.String(), typeID); err != nil {
		return nil, errx.Wrap(err, "failed to list accommodations", errx.TypeInternal)
	}
	return items, nil
}

func (r *PostgresLodgingRepository) CreateAccommodation(ctx context.Context, a lodging.Accommodation) error {
	query := `
		INSERT INTO accommodations (` + accommodationColumns + `
		) VALUES (
			:id, :host_id, :accommodation_type_id, :identifier, :floor, :is_active, :created_at, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return accommodationWriteError(err, "failed to create accommodation")
	}
	return nil
}

func (r *PostgresLodgingRepository) UpdateAccommodation(ctx context.Context, a lodging.Accommodation) error {
	query := `
		UPDATE accommodations SET
			accommodation_type_id = :accommodation_type_id,
			identifier = :identifier,
			floor = :floor,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id AND host_id = :host_id`
	result, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return accommodationWriteError(err, "failed to update accommodation")
	}
	return expectOneRow(result, lodging.ErrAccommodationNotFound, a.ID)
}

func (r *PostgresLodgingRepository) DeleteAccommodation(ctx context.Context, id string, tenantID kernel.TenantID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accommodations WHERE id = $1 AND host_id = $2`, id, tenantID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete accommodation", errx.TypeInternal)
	}
	return expectOneRow(result, lodging.ErrAccommodationNotFound, id)
}

// ============================================================================
// Pricing schedules
// ============================================================================

func (r *PostgresLodgingRepository) FindSchedule(ctx context.Context, id string, tenantID kernel.TenantID) (*lodging.PricingSchedule, error) {
	var s lodging.PricingSchedule
	query := `SELECT ` + scheduleColumns + ` FROM accommodation_pricing_schedules WHERE id = $1 AND host_id = $2`
	if err := r.db.GetContext(ctx, &s, query, id, tenantID.String()); err != nil {
		return nil, readError(err, lodging.ErrScheduleNotFound, "failed to find pricing schedule", id)
	}
	return &s, nil
}

func (r *PostgresLodgingRepository) ListSchedules(ctx context.Context, tenantID kernel.TenantID, typeID string) ([]lodging.PricingSchedule, error) {
	items := []lodging.PricingSchedule{}
	query := `
		SELECT ` + scheduleColumns + ` FROM accommodation_pricing_schedules
		WHERE host_id = $1 AND ($2 = '' OR accommodation_type_id::text = $2)
		ORDER BY start_date`
	if err := r.db.SelectContext(ctx, &items, query, tenantID.String(), typeID); err != nil {
		return nil, errx.Wrap(err, "failed to list pricing schedules", errx.TypeInternal)
	}
	return items, nil
}

func (r *PostgresLodgingRepository) CreateSchedule(ctx context.Context, s lodging.PricingSchedule) error {
	query := `
		INSERT INTO accommodation_pricing_schedules (` + scheduleColumns + `
		) VALUES (
			:id, :host_id, :accommodation_type_id, :start_date, :end_date, :price, :created_at, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return errx.Wrap(err, "failed to create pricing schedule", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresLodgingRepository) UpdateSchedule(ctx context.Context, s lodging.PricingSchedule) error {
	query := `
		UPDATE accommodation_pricing_schedules SET
			accommodation_type_id = :accommodation_type_id,
			start_date = :start_date,
			end_date = :end_date,
			price = :price,
			updated_at = :updated_at
		WHERE id = :id AND host_id = :host_id`
	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return errx.Wrap(err, "failed to update pricing schedule", errx.TypeInternal)
	}
	return expectOneRow(result, lodging.ErrScheduleNotFound, s.ID)
}

func (r *PostgresLodgingRepository) DeleteSchedule(ctx context.Context, id string, tenantID kernel.TenantID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accommodation_pricing_schedules WHERE id = $1 AND host_id = $2`, id, tenantID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete pricing schedule", errx.TypeInternal)
	}
	return expectOneRow(result, lodging.ErrScheduleNotFound, id)
}

// ============================================================================
// Helpers
// ============================================================================

func readError(err error, notFound func() *errx.Error, msg, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound().WithDetail("id", id)
	}
	return errx.Wrap(err, msg, errx.TypeInternal).WithDetail("id", id)
}

func expectOneRow(result sql.Result, notFound func() *errx.Error, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if n == 0 {
		return notFound().WithDetail("id", id)
	}
	return nil
}

func accommodationWriteError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return lodging.ErrIdentifierAlreadyExists()
	}
	return errx.Wrap(err, msg, errx.TypeInternal)
}
