package database

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Driver names accepted by Open.
const (
	DriverPgx    = "pgx"
	DriverPq     = "postgres"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Config describes one database connection.
type Config struct {
	Driver         string            `mapstructure:"driver" yaml:"driver"`
	DSN            string            `mapstructure:"dsn" yaml:"dsn"`
	Host           string            `mapstructure:"host" yaml:"host"`
	Port           int               `mapstructure:"port" yaml:"port"`
	Database       string            `mapstructure:"database" yaml:"database"`
	Username       string            `mapstructure:"username" yaml:"username"`
	Password       string            `mapstructure:"password" yaml:"password"`
	SSLMode        string            `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	Params         map[string]string `mapstructure:"params" yaml:"params"`
	Pool           PoolConfig        `mapstructure:"pool" yaml:"pool"`
	ConnectTimeout time.Duration     `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration     `mapstructure:"query_timeout" yaml:"query_timeout"`
	StatementCache int               `mapstructure:"statement_cache" yaml:"statement_cache"`
	Retry          *RetryConfig      `mapstructure:"retry" yaml:"retry,omitempty"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" yaml:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle" yaml:"max_idle"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime time.Duration `mapstructure:"max_idle_time" yaml:"max_idle_time"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// ConnString returns DSN when set, otherwise builds one from the discrete
// fields in the format the driver expects.
func (c Config) ConnString() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	switch c.Driver {
	case DriverPgx, DriverPq:
		b := NewDSNBuilder("postgres").
			Auth(c.Username, c.Password).
			Host(c.Host, c.Port).
			Database(c.Database).
			Param("sslmode", c.SSLMode).
			Params(c.Params)
		if err := b.Validate(); err != nil {
			return "", fmt.Errorf("database: %w", err)
		}
		return b.Build(), nil

	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.DBName = c.Database
		mc.ParseTime = true
		if c.Host != "" {
			mc.Net = "tcp"
			mc.Addr = c.Host
			if c.Port > 0 {
				mc.Addr += ":" + strconv.Itoa(c.Port)
			}
		}
		if len(c.Params) > 0 {
			mc.Params = c.Params
		}
		if c.ConnectTimeout > 0 {
			mc.Timeout = c.ConnectTimeout
		}
		return mc.FormatDSN(), nil

	case DriverSQLite:
		if c.Database == "" {
			return "", fmt.Errorf("database: sqlite3 needs a database path")
		}
		b := NewDSNBuilder("file").Database(c.Database).Params(c.Params)
		return b.Build(), nil
	}
	return "", fmt.Errorf("database: unsupported driver %q", c.Driver)
}
