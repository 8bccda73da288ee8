// Package migrations carries the postgres schema and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"todolist/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed *.sql
var files embed.FS

type runner struct {
	m  *migrate.Migrate
	db *sql.DB
}

func open(databaseURL string) (*runner, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate driver: %w", err)
	}

	source, err := iofs.New(files, ".")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return &runner{m: m, db: db}, nil
}

func (r *runner) close() {
	if srcErr, dbErr := r.m.Close(); srcErr != nil || dbErr != nil {
		logger.Warn("Repository: closing migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
	_ = r.db.Close()
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(databaseURL string) error {
	r, err := open(databaseURL)
	if err != nil {
		return err
	}
	defer r.close()

	if err := r.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Repository: schema is up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, _ := r.m.Version()
	logger.Info("Repository: migrations applied", zap.Uint("version", version))
	return nil
}

// Down rolls back every applied migration.
func Down(databaseURL string) error {
	r, err := open(databaseURL)
	if err != nil {
		return err
	}
	defer r.close()

	if err := r.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Repository: nothing to roll back")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}

	logger.Info("Repository: migrations rolled back")
	return nil
}

// Version reports the applied schema version; ok is false on an empty database.
func Version(databaseURL string) (version uint, dirty bool, ok bool, err error) {
	r, err := open(databaseURL)
	if err != nil {
		return 0, false, false, err
	}
	defer r.close()

	version, dirty, err = r.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, false, nil
		}
		return 0, false, false, fmt.Errorf("migrate version: %w", err)
	}
	return version, dirty, true, nil
}
