// Package migrations holds the versioned schema changes, written as Go
// functions over a transaction and tracked in schema_migrations.
package migrations

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/logx"
)

type migration struct {
	version string
	name    string
	up      func(*sqlx.Tx) error
	down    func(*sqlx.Tx) error
}

var registered = map[string]*migration{}

func addMigration(mg *migration) {
	if _, dup := registered[mg.version]; dup {
		panic("migrations: duplicate version " + mg.version)
	}
	registered[mg.version] = mg
}

// Status is the state of one known migration.
type Status struct {
	Version string
	Name    string
	Applied bool
}

// Migrator applies the registered migrations in version order. Up and Down
// run in a single transaction, so a failing step leaves the schema as it was.
type Migrator struct {
	db       *sqlx.DB
	versions []string
}

func NewMigrator(db *sqlx.DB) *Migrator {
	versions := make([]string, 0, len(registered))
	for v := range registered {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return &Migrator{db: db, versions: versions}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(32) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return errx.Wrap(err, "failed to create schema_migrations", errx.TypeInternal)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var versions []string
	if err := m.db.SelectContext(ctx, &versions, `SELECT version FROM schema_migrations`); err != nil {
		return nil, errx.Wrap(err, "failed to read applied migrations", errx.TypeInternal)
	}
	done := make(map[string]bool, len(versions))
	for _, v := range versions {
		done[v] = true
	}
	return done, nil
}

// Status lists every known migration with whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(m.versions))
	for _, v := range m.versions {
		out = append(out, Status{Version: v, Name: registered[v].name, Applied: done[v]})
	}
	return out, nil
}

// Up applies pending migrations oldest first. step <= 0 applies all of
// them. It returns the number applied.
func (m *Migrator) Up(ctx context.Context, step int) (int, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	var pending []*migration
	for _, v := range m.versions {
		if !done[v] {
			pending = append(pending, registered[v])
		}
	}
	return m.run(ctx, limit(pending, step), "up")
}

// Down reverts applied migrations newest first. step <= 0 reverts all of
// them.
func (m *Migrator) Down(ctx context.Context, step int) (int, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	var applied []*migration
	for i := len(m.versions) - 1; i >= 0; i-- {
		if v := m.versions[i]; done[v] {
			applied = append(applied, registered[v])
		}
	}
	return m.run(ctx, limit(applied, step), "down")
}

func (m *Migrator) run(ctx context.Context, list []*migration, direction string) (int, error) {
	if len(list) == 0 {
		logx.WithContext(ctx).Info("no migrations to run")
		return 0, nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errx.Wrap(err, "failed to begin migration transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	for _, mg := range list {
		l := logx.WithContext(ctx).WithFields(logx.Fields{"version": mg.version, "name": mg.name})
		l.Infof("running %s migration", direction)

		step, record := mg.up, `INSERT INTO schema_migrations (version) VALUES ($1)`
		if direction == "down" {
			step, record = mg.down, `DELETE FROM schema_migrations WHERE version = $1`
		}
		if err := step(tx); err != nil {
			l.WithError(err).Error("migration failed")
			return 0, errx.Wrap(err, fmt.Sprintf("migration %s %s failed", mg.version, direction), errx.TypeInternal)
		}
		if _, err := tx.ExecContext(ctx, record, mg.version); err != nil {
			return 0, errx.Wrap(err, "failed to record migration", errx.TypeInternal).
				WithDetail("version", mg.version)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errx.Wrap(err, "failed to commit migrations", errx.TypeInternal)
	}
	return len(list), nil
}

func limit(list []*migration, step int) []*migration {
	if step > 0 && step < len(list) {
		return list[:step]
	}
	return list
}

// exec runs statements in order, stopping at the first error.
func exec(tx *sqlx.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
