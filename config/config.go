// Package config loads sqlkit settings from a YAML file, SQLKIT_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/Konsultn-Engineering/sqlkit/database"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/query"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

const EnvPrefix = "SQLKIT"

type Config struct {
	Dialect          string          `mapstructure:"dialect" yaml:"dialect"`
	TemplateCache    int             `mapstructure:"template_cache" yaml:"template_cache"`
	QuoteIdentifiers bool            `mapstructure:"quote_identifiers" yaml:"quote_identifiers"`
	Debug            bool            `mapstructure:"debug" yaml:"debug"`
	Database         database.Config `mapstructure:"database" yaml:"database"`
}

var defaults = map[string]any{
	"dialect":                  "postgres",
	"template_cache":           512,
	"quote_identifiers":        false,
	"debug":                    false,
	"database.driver":          "",
	"database.dsn":             "",
	"database.host":            "",
	"database.port":            0,
	"database.database":        "",
	"database.username":        "",
	"database.password":        "",
	"database.ssl_mode":        "",
	"database.connect_timeout": 10 * time.Second,
	"database.query_timeout":   time.Duration(0),
	"database.statement_cache": 128,
	"database.pool.max_open":   0,
	"database.pool.max_idle":   0,
}

type options struct {
	fs    afero.Fs
	file  string
	paths []string
	env   string
}

type Option func(*options)

// WithFs reads the config and .env files from fs.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithFile loads an explicit config file instead of searching for one.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithSearchPaths replaces the directories searched for sqlkit.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(o *options) { o.paths = paths }
}

// WithEnvFile names the dotenv file; empty disables it.
func WithEnvFile(path string) Option {
	return func(o *options) { o.env = path }
}

// Load resolves the configuration. Precedence from high to low: process
// environment, .env file, config file, defaults. A missing config file is
// not an error unless it was named with WithFile.
func Load(opts ...Option) (*Config, error) {
	o := &options{fs: afero.NewOsFs(), env: ".env"}
	for _, opt := range opts {
		opt(o)
	}
	if o.paths == nil {
		o.paths = defaultSearchPaths()
	}

	v := viper.New()
	v.SetFs(o.fs)
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if o.file != "" {
		v.SetConfigFile(o.file)
	} else {
		v.SetConfigName("sqlkit")
		v.SetConfigType("yaml")
		for _, p := range o.paths {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := applyDotenv(v, o.fs, o.env); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDotenv feeds SQLKIT_* entries of the dotenv file into v unless the
// process environment already sets them.
func applyDotenv(v *viper.Viper, fs afero.Fs, path string) error {
	if path == "" {
		return nil
	}
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	for key := range defaults {
		name := EnvName(key)
		val, ok := entries[name]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(key, val)
	}
	return nil
}

// EnvName returns the environment variable that overrides key, e.g.
// database.dsn -> SQLKIT_DATABASE_DSN.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sqlkit"))
	}
	return paths
}

func (c *Config) Validate() error {
	if _, err := dialect.Lookup(c.Dialect); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.TemplateCache < 0 {
		return fmt.Errorf("config: template_cache must not be negative")
	}
	if c.Database.StatementCache < 0 {
		return fmt.Errorf("config: database.statement_cache must not be negative")
	}
	return nil
}

// DialectValue resolves the configured dialect.
func (c *Config) DialectValue() (dialect.Dialect, error) {
	return dialect.Lookup(c.Dialect)
}

// Compiler builds a template compiler sized by TemplateCache.
func (c *Config) Compiler() *template.Compiler {
	return template.NewCompiler(template.WithCacheSize(c.TemplateCache))
}

// Builder returns a fluent builder for the configured dialect.
func (c *Config) Builder(opts ...query.Option) (*query.Builder, error) {
	d, err := c.DialectValue()
	if err != nil {
		return nil, err
	}
	if c.QuoteIdentifiers {
		opts = append(opts, query.WithQuotedIdentifiers())
	}
	return query.New(d, c.Compiler(), opts...), nil
}
