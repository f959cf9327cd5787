// Package store owns the connection to the record collection. A Client is
// created once by the process, connects lazily on first use, reuses that
// connection until Close, and can connect again afterwards.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"Vault/internal/config"
	"Vault/internal/repo"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

const defaultConnectTimeout = 5 * time.Second

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrConfiguration is returned when STORE_URI is missing or unusable.
var ErrConfiguration = errors.New("store: connection URI is not configured")

// ConnectionError wraps a failed attempt to open the store. It is not retried.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store: %s connection failed: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Client is the store adapter.
type Client struct {
	cfg    config.StoreConfig
	logger *log.Logger

	mu     sync.Mutex
	driver string
	pg     *pgxpool.Pool
	db     *sql.DB
	coll   repo.RecordRepo
}

// NewClient returns an unconnected client.
func NewClient(cfg config.StoreConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return &Client{cfg: cfg, logger: logger}
}

// Connect opens the store if it is not open yet. Repeat calls are no-ops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Collection returns the "records" collection, connecting on first use.
func (c *Client) Collection(ctx context.Context) (repo.RecordRepo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c.coll, nil
}

// Driver names the backend of the open connection, or "" when closed.
func (c *Client) Driver() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver
}

// Close releases the connection. A later Connect opens a fresh one.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.coll == nil {
		return nil
	}
	var err error
	if c.pg != nil {
		c.pg.Close()
	}
	if c.db != nil {
		err = c.db.Close()
	}
	c.pg, c.db, c.coll, c.driver = nil, nil, nil, ""
	c.logger.Printf("store: connection closed")
	return err
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.coll != nil {
		return nil
	}
	driver, target, err := parseURI(c.cfg.URI)
	if err != nil {
		return err
	}

	timeout := c.cfg.ConnectTimeout.Duration()
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch driver {
	case DriverPostgres:
		pool, err := newPostgres(ctx, target)
		if err != nil {
			return err
		}
		if err := runPostgresMigrations(ctx, target, c.logger); err != nil {
			pool.Close()
			return &ConnectionError{Driver: driver, Err: err}
		}
		c.pg = pool
		c.coll = repo.NewPGRecordRepo(pool)
	case DriverSQLite:
		db, err := newSQLite(ctx, target)
		if err != nil {
			return err
		}
		if err := runMigrations(ctx, db, "sqlite3", "migrations/sqlite", c.logger); err != nil {
			db.Close()
			return &ConnectionError{Driver: driver, Err: err}
		}
		c.db = db
		c.coll = repo.NewSQLiteRecordRepo(db)
	}
	c.driver = driver
	c.logger.Printf("store: connected (%s)", driver)
	return nil
}

// parseURI picks the backend from the URI scheme. Only the scheme is echoed
// in errors; the rest may hold credentials.
func parseURI(uri string) (driver, target string, err error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return "", "", ErrConfiguration
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return DriverPostgres, uri, nil
	case strings.HasPrefix(uri, "sqlite://"):
		target = strings.TrimPrefix(uri, "sqlite://")
	case strings.HasPrefix(uri, "sqlite:"):
		target = strings.TrimPrefix(uri, "sqlite:")
	case strings.HasPrefix(uri, "file:"):
		target = uri
	default:
		scheme, _, _ := strings.Cut(uri, ":")
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrConfiguration, scheme)
	}
	if target == "" {
		return "", "", fmt.Errorf("%w: sqlite path is empty", ErrConfiguration)
	}
	return DriverSQLite, target, nil
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: pg parse config: %v", ErrConfiguration, err)
	}
	// single interactive user; the HTTP mode is the only concurrent caller
	cfg.MaxConns = 4
	cfg.MinConns = 0
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &ConnectionError{Driver: DriverPostgres, Err: fmt.Errorf("pg connect: %w", err)}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{Driver: DriverPostgres, Err: fmt.Errorf("pg ping: %w", err)}
	}
	return pool, nil
}

func newSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &ConnectionError{Driver: DriverSQLite, Err: fmt.Errorf("open sqlite: %w", err)}
	}
	// one connection: ":memory:" databases are per connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Driver: DriverSQLite, Err: fmt.Errorf("sqlite ping: %w", err)}
	}
	return db, nil
}

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

func runPostgresMigrations(ctx context.Context, dsn string, logger *log.Logger) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()
	return runMigrations(ctx, db, "postgres", "migrations/postgres", logger)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect, dir string, logger *log.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(logger)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
