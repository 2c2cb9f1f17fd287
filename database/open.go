package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
)

// Open connects using cfg.Driver and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPgx:
		return OpenPostgres(ctx, cfg)
	case DriverPq:
		return openPq(ctx, cfg)
	case DriverMySQL:
		return OpenMySQL(ctx, cfg)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg)
	}
	return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
}

// OpenPostgres opens a pgx backed database/sql handle.
func OpenPostgres(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	cfg.Driver = DriverPgx
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("database: parse postgres dsn: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}
	return finish(ctx, sqlx.NewDb(stdlib.OpenDB(*connCfg), DriverPgx), cfg)
}

func openPq(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("database: parse postgres dsn: %w", err)
	}
	return finish(ctx, sqlx.NewDb(sql.OpenDB(connector), DriverPq), cfg)
}

// OpenMySQL opens a MySQL or TiDB database.
func OpenMySQL(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	cfg.Driver = DriverMySQL
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("database: parse mysql dsn: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("database: mysql connector: %w", err)
	}
	return finish(ctx, sqlx.NewDb(sql.OpenDB(connector), DriverMySQL), cfg)
}

// OpenSQLite opens a SQLite database file.
func OpenSQLite(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	cfg.Driver = DriverSQLite
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite: %w", err)
	}
	return finish(ctx, db, cfg)
}

func finish(ctx context.Context, db *sqlx.DB, cfg Config) (*sqlx.DB, error) {
	p := cfg.Pool
	if p.MaxOpen > 0 {
		db.SetMaxOpenConns(p.MaxOpen)
	}
	if p.MaxIdle > 0 {
		db.SetMaxIdleConns(p.MaxIdle)
	}
	if p.MaxLifetime > 0 {
		db.SetConnMaxLifetime(p.MaxLifetime)
	}
	if p.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.MaxIdleTime)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := retry(ctx, cfg.Retry, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: connect %s: %w", db.DriverName(), err)
	}
	debug.Info("database connected", "driver", db.DriverName())
	return db, nil
}
