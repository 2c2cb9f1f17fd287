package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlkit/database"
)

const sampleYAML = `
dialect: mysql
template_cache: 64
quote_identifiers: true
database:
  driver: mysql
  host: db.internal
  port: 3306
  database: app
  query_timeout: 5s
  statement_cache: 32
  pool:
    max_open: 20
`

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(body), 0o644))
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithFs(afero.NewMemMapFs()), WithSearchPaths("/etc/sqlkit"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, 512, cfg.TemplateCache)
	assert.False(t, cfg.QuoteIdentifiers)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 128, cfg.Database.StatementCache)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/etc/sqlkit/sqlkit.yaml": sampleYAML,
		"/work/.env":              "SQLKIT_DATABASE_USERNAME=svc\nSQLKIT_DATABASE_PASSWORD=from-dotenv\nOTHER=ignored\n",
	})
	t.Setenv("SQLKIT_DATABASE_PASSWORD", "from-env")
	t.Setenv("SQLKIT_DEBUG", "true")

	cfg, err := Load(WithFs(fs), WithSearchPaths("/etc/sqlkit"), WithEnvFile("/work/.env"))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, 64, cfg.TemplateCache)
	assert.True(t, cfg.QuoteIdentifiers)
	assert.True(t, cfg.Debug)

	assert.Equal(t, database.Config{
		Driver:         "mysql",
		Host:           "db.internal",
		Port:           3306,
		Database:       "app",
		Username:       "svc",
		Password:       "from-env",
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   5 * time.Second,
		StatementCache: 32,
		Pool:           database.PoolConfig{MaxOpen: 20},
	}, cfg.Database)

	q, err := cfg.Builder()
	require.NoError(t, err)
	sql, _, err := q.Select("users").Eq("id", 1).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE `id` = ?", sql)
}

func TestLoadExplicitFile(t *testing.T) {
	fs := memFs(t, map[string]string{"/cfg/custom.yaml": "dialect: oracle\n"})

	cfg, err := Load(WithFs(fs), WithFile("/cfg/custom.yaml"), WithEnvFile(""))
	require.NoError(t, err)
	assert.Equal(t, "oracle", cfg.Dialect)

	_, err = Load(WithFs(fs), WithFile("/cfg/missing.yaml"))
	assert.ErrorContains(t, err, "config: read")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{"unknown dialect", "dialect: db2\n", `unknown dialect "db2"`},
		{"negative template cache", "template_cache: -1\n", "template_cache must not be negative"},
		{"negative statement cache", "database:\n  statement_cache: -5\n", "statement_cache must not be negative"},
		{"bad yaml", "dialect: [\n", "config: read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFs(t, map[string]string{"/c/sqlkit.yaml": tt.yaml})
			_, err := Load(WithFs(fs), WithSearchPaths("/c"))
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SQLKIT_DATABASE_DSN", EnvName("database.dsn"))
	assert.Equal(t, "SQLKIT_TEMPLATE_CACHE", EnvName("template_cache"))
}
