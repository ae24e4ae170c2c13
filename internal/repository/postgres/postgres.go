package postgres

import (
	"context"
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const uniqueViolation = "23505"

// NewMigrator returns a golang-migrate instance over the embedded migrations
func NewMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, errors.Annotate(err, "opening embedded migrations")
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return nil, errors.Annotate(err, "creating migrate driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, errors.Annotate(err, "creating migrator")
	}
	return m, nil
}

// Migrate applies every pending migration
func Migrate(db *sql.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Annotate(err, "applying migrations")
	}
	return nil
}

// notFound maps sql.ErrNoRows to a NotFound error for what
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NotFoundf("%s", what)
	}
	return errors.Annotatef(err, "getting %s", what)
}

// isUniqueViolation reports whether err is a unique constraint violation,
// returning the violated constraint name
func isUniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// expectRow returns NotFound when an UPDATE or DELETE touched no row
func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Annotate(err, "reading affected rows")
	}
	if n == 0 {
		return errors.NotFoundf("%s", what)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back when fn fails
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Annotate(err, "committing transaction")
	}
	return nil
}
