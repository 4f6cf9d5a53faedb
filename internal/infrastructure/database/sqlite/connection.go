// Package sqlite keeps the diagnostics table in a local SQLite database
// (pure-Go modernc.org/sqlite driver) with its schema managed by
// golang-migrate from embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// driverName is the name modernc.org/sqlite registers.
const driverName = "sqlite"

// sqlOpen is a variable to allow substitution in tests.
var sqlOpen = sql.Open

// Config holds the database settings.
type Config struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// Connection owns the database handle.
type Connection struct {
	db     *sql.DB
	cfg    Config
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens (creating if needed) the database at cfg.Path and
// applies pending migrations.
func NewConnection(ctx context.Context, cfg Config, log logging.Logger) (*Connection, error) {
	if cfg.Path == "" {
		return nil, errors.InvalidParam("sqlite path is empty")
	}

	db, err := sqlOpen(driverName, buildDSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to open sqlite database").WithDetail(cfg.Path)
	}
	// One writer at a time; SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "sqlite connection failed").WithDetail(cfg.Path)
	}

	c := &Connection{db: db, cfg: cfg, logger: log.With(logging.Path(cfg.Path))}
	if err := c.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	c.logger.Info("Opened SQLite diagnostics database")
	return c, nil
}

// DB returns the underlying handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// HealthCheck pings the database.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "sqlite health check failed")
	}
	return nil
}

// Close closes the handle once.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		err = c.db.Close()
		if err != nil {
			c.logger.Error("Failed to close SQLite database", logging.Err(err))
		}
	})
	return err
}

// RunMigrations applies the embedded schema migrations.
func (c *Connection) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to load embedded migrations")
	}

	driver, err := migratesqlite.WithInstance(c.db, &migratesqlite.Config{})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to create migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to create migrate instance")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		c.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	c.logger.Debug("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// buildDSN turns cfg into a modernc.org/sqlite file URI with pragmas.
func buildDSN(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + cfg.Path + "?" + q.Encode()
}
