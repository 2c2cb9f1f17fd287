package cli

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// sqliteFs returns a config filesystem whose sqlkit.yaml points at a fresh
// SQLite file.
func sqliteFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	path := filepath.Join(t.TempDir(), "cli.db")
	cfg := fmt.Sprintf("dialect: sqlite\ndatabase:\n  driver: sqlite3\n  database: %s\n", path)
	require.NoError(t, afero.WriteFile(fs, "/etc/sqlkit.yaml", []byte(cfg), 0o644))
	return fs
}

func TestExecAndQuery(t *testing.T) {
	fs := sqliteFs(t)
	cfg := []string{"-c", "/etc/sqlkit.yaml"}

	_, err := run(t, fs, append(cfg, "exec", "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)")...)
	require.NoError(t, err)

	for i, name := range []string{"ann", "bob", "cy"} {
		out, err := run(t, fs, append(cfg, "exec",
			"-s", fmt.Sprintf("id=%d", i+1), "-s", "name="+name, "-s", fmt.Sprintf("age=%d", 20+i*10),
			"INSERT INTO users (id, name, age) VALUES (:id, :name, :age)")...)
		require.NoError(t, err)
		assert.Equal(t, "1 row(s) affected\n", out)
	}

	out, err := run(t, fs, append(cfg, "--format", "yaml", "exec", "-s", "min=30",
		"UPDATE users SET age = age + 1 @{and, age >= :min}")...)
	require.NoError(t, err)
	assert.Equal(t, "rows_affected: 2\n", out)

	out, err = run(t, fs, append(cfg, "--format", "yaml", "query", "-s", "ids=[1, 3]",
		"SELECT id, name, age FROM users WHERE id IN @{in, :ids} ORDER BY id")...)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []map[string]any{
		{"id": 1, "name": "ann", "age": 20},
		{"id": 3, "name": "cy", "age": 41},
	}, rows)

	out, err = run(t, fs, append(cfg, "query", "SELECT name, age FROM users WHERE id = 2")...)
	require.NoError(t, err)
	assert.Equal(t, "name  age\nbob   31\n(1 rows)\n", out)
}

func TestExecErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/bad.yaml", []byte("database:\n  driver: sqlserver\n"), 0o644))

	_, err := run(t, fs, "-c", "/etc/bad.yaml", "exec", "SELECT 1")
	assert.ErrorContains(t, err, "unsupported driver")

	_, err = run(t, sqliteFs(t), "-c", "/etc/sqlkit.yaml", "query", "SELECT :missing")
	assert.ErrorContains(t, err, "(path missing)")
}
