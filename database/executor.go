// Package database runs compiled statements against database/sql drivers
// through sqlx and opens Postgres, MySQL and SQLite connections.
package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/cache"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/query"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

// Conn is satisfied by *sqlx.DB and *sqlx.Tx.
type Conn interface {
	sqlx.ExtContext
	cache.Preparer
}

// Executor binds compiled statements to a connection.
type Executor struct {
	conn     Conn
	dialect  dialect.Dialect
	compiler *template.Compiler
	stmts    *cache.StatementCache
	timeout  time.Duration
}

type ExecutorOption func(*Executor)

// WithDialect overrides the dialect derived from the driver name.
func WithDialect(d dialect.Dialect) ExecutorOption {
	return func(e *Executor) { e.dialect = d }
}

func WithCompiler(c *template.Compiler) ExecutorOption {
	return func(e *Executor) { e.compiler = c }
}

// WithStatementCache reuses up to size prepared statements. Use it only
// with a *sqlx.DB; statements prepared on a transaction die with it.
func WithStatementCache(size int) ExecutorOption {
	return func(e *Executor) {
		if size > 0 {
			e.stmts = cache.NewStatementCache(size)
		}
	}
}

// WithQueryTimeout bounds every call made through the executor.
func WithQueryTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

func NewExecutor(conn Conn, opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{conn: conn}
	for _, opt := range opts {
		opt(e)
	}
	if e.dialect == nil {
		d, err := dialect.ForDriver(conn.DriverName())
		if err != nil {
			return nil, err
		}
		e.dialect = d
	}
	if e.compiler == nil {
		e.compiler = template.NewCompiler()
	}
	return e, nil
}

// FromConfig opens cfg and wraps the connection with the configured
// statement cache and timeout.
func FromConfig(ctx context.Context, cfg Config, opts ...ExecutorOption) (*Executor, *sqlx.DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	base := []ExecutorOption{WithStatementCache(cfg.StatementCache), WithQueryTimeout(cfg.QueryTimeout)}
	e, err := NewExecutor(db, append(base, opts...)...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return e, db, nil
}

func (e *Executor) Dialect() dialect.Dialect     { return e.dialect }
func (e *Executor) Compiler() *template.Compiler { return e.compiler }

// Builder returns a fluent builder whose Exec and All run on e.
func (e *Executor) Builder(opts ...query.Option) *query.Builder {
	return query.New(e.dialect, e.compiler, append([]query.Option{query.WithRunner(e)}, opts...)...)
}

// Render compiles SQL text against src with the dialect's placeholders.
func (e *Executor) Render(text string, src args.Source) (*template.Statement, error) {
	return e.compiler.CompileText(text, src, template.WithPlaceholder(e.dialect.Placeholder))
}

func (e *Executor) Exec(ctx context.Context, stmt *template.Statement) (sql.Result, error) {
	values, err := stmt.Args()
	if err != nil {
		return nil, err
	}
	ctx, cancel := e.bound(ctx)
	defer cancel()

	debug.Debug("exec", "sql", stmt.SQL, "args", len(values))
	if e.stmts != nil {
		prepared, err := e.stmts.GetOrPrepare(ctx, e.conn, stmt.SQL)
		if err != nil {
			return nil, err
		}
		return prepared.ExecContext(ctx, values...)
	}
	return e.conn.ExecContext(ctx, stmt.SQL, values...)
}

// Select scans every row into dest, a pointer to a slice.
func (e *Executor) Select(ctx context.Context, dest any, stmt *template.Statement) error {
	values, err := stmt.Args()
	if err != nil {
		return err
	}
	ctx, cancel := e.bound(ctx)
	defer cancel()

	debug.Debug("select", "sql", stmt.SQL, "args", len(values))
	q, err := e.queryer(ctx, stmt.SQL)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, stmt.SQL, values...)
}

// Get scans a single row into dest. It returns sql.ErrNoRows when the
// statement yields nothing.
func (e *Executor) Get(ctx context.Context, dest any, stmt *template.Statement) error {
	values, err := stmt.Args()
	if err != nil {
		return err
	}
	ctx, cancel := e.bound(ctx)
	defer cancel()

	debug.Debug("get", "sql", stmt.SQL, "args", len(values))
	q, err := e.queryer(ctx, stmt.SQL)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, dest, stmt.SQL, values...)
}

// Each runs stmt and calls fn once per row. Rows are closed on return.
func (e *Executor) Each(ctx context.Context, stmt *template.Statement, fn func(*sqlx.Rows) error) error {
	values, err := stmt.Args()
	if err != nil {
		return err
	}
	ctx, cancel := e.bound(ctx)
	defer cancel()

	debug.Debug("query", "sql", stmt.SQL, "args", len(values))
	q, err := e.queryer(ctx, stmt.SQL)
	if err != nil {
		return err
	}
	rows, err := q.QueryxContext(ctx, stmt.SQL, values...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ExecText renders text against src and executes it.
func (e *Executor) ExecText(ctx context.Context, text string, src args.Source) (sql.Result, error) {
	stmt, err := e.Render(text, src)
	if err != nil {
		return nil, err
	}
	return e.Exec(ctx, stmt)
}

// SelectText renders text against src and scans the rows into dest.
func (e *Executor) SelectText(ctx context.Context, dest any, text string, src args.Source) error {
	stmt, err := e.Render(text, src)
	if err != nil {
		return err
	}
	return e.Select(ctx, dest, stmt)
}

// Close releases cached prepared statements. The connection stays open.
func (e *Executor) Close() error {
	if e.stmts == nil {
		return nil
	}
	return e.stmts.Close()
}

// queryer returns the connection, or with a statement cache the prepared
// statement for query. A prepared statement ignores the query text it is
// handed, so both run through the same sqlx scanning.
func (e *Executor) queryer(ctx context.Context, query string) (sqlx.QueryerContext, error) {
	if e.stmts == nil {
		return e.conn, nil
	}
	prepared, err := e.stmts.GetOrPrepare(ctx, e.conn, query)
	if err != nil {
		return nil, err
	}
	return preparedQueryer{prepared}, nil
}

// preparedQueryer adapts a prepared statement to sqlx.QueryerContext.
type preparedQueryer struct {
	stmt *sqlx.Stmt
}

func (p preparedQueryer) QueryContext(ctx context.Context, _ string, values ...any) (*sql.Rows, error) {
	return p.stmt.QueryContext(ctx, values...)
}

func (p preparedQueryer) QueryxContext(ctx context.Context, _ string, values ...any) (*sqlx.Rows, error) {
	return p.stmt.QueryxContext(ctx, values...)
}

func (p preparedQueryer) QueryRowxContext(ctx context.Context, _ string, values ...any) *sqlx.Row {
	return p.stmt.QueryRowxContext(ctx, values...)
}

func (e *Executor) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return ctx, func() {}
}

// IsNoRows reports whether err means a Get found nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

var _ query.Runner = (*Executor)(nil)
