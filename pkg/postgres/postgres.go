package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 10 * time.Second

type Postgres interface {
	Pool() *pgxpool.Pool
	Ping(ctx context.Context) error
	Close()
}

type Config struct {
	Host      string
	Port      uint16
	User      string
	Password  string
	Name      string
	SSLMode   string
	MaxConns  int32
	MinConns  int32
	Migration Migration
}

type Migration struct {
	Path      string
	AutoApply bool
}

// DSN builds a postgres:// URL understood by both pgx and golang-migrate.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

type postgres struct {
	pool *pgxpool.Pool
}

func New(cfg *Config) (Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if cfg.Migration.AutoApply {
		if err := RunMigrations(cfg.DSN(), cfg.Migration.Path); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &postgres{pool: pool}, nil
}

func (p *postgres) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *postgres) Close() {
	p.pool.Close()
}

func RunMigrations(dsn, migrationsPath string) (err error) {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			err = errors.Join(err, srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
