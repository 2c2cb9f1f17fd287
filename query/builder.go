// Package query is the fluent condition builder. Select, Insert, Update and
// Delete builders accumulate an ast statement, then lower it through the
// visitor into '?' text and hand that to the template compiler, so both
// entry points share one (sql, values) contract.
package query

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/template"
	"github.com/Konsultn-Engineering/sqlkit/types"
	"github.com/Konsultn-Engineering/sqlkit/visitor"
)

// ErrNoRunner is returned by the execution helpers of a builder created
// without a Runner.
var ErrNoRunner = errors.New("query: builder has no runner")

// Runner executes compiled statements. *sql.DB and *sql.Tx are adapted by
// the database package.
type Runner interface {
	Exec(ctx context.Context, stmt *template.Statement) (sql.Result, error)
	Select(ctx context.Context, dest any, stmt *template.Statement) error
}

// Builder creates statement builders that share a dialect, a compiler and
// an optional runner.
type Builder struct {
	dialect  dialect.Dialect
	compiler *template.Compiler
	runner   Runner
	quote    bool
}

type Option func(*Builder)

// WithRunner attaches a runner used by Exec and All.
func WithRunner(r Runner) Option {
	return func(b *Builder) { b.runner = r }
}

// WithQuotedIdentifiers quotes identifiers in every builder created.
func WithQuotedIdentifiers() Option {
	return func(b *Builder) { b.quote = true }
}

// New returns a Builder. A nil compiler gets a fresh one with default settings.
func New(d dialect.Dialect, c *template.Compiler, opts ...Option) *Builder {
	if c == nil {
		c = template.NewCompiler()
	}
	b := &Builder{dialect: d, compiler: c}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Dialect() dialect.Dialect { return b.dialect }

func (b *Builder) Compiler() *template.Compiler { return b.compiler }

func (b *Builder) base(table string) BaseBuilder {
	return BaseBuilder{
		table:    ast.NewTable(table, ""),
		dialect:  b.dialect,
		compiler: b.compiler,
		runner:   b.runner,
		quote:    b.quote,
	}
}

// BaseBuilder contains common functionality for all query builders.
type BaseBuilder struct {
	table    *ast.Table
	dialect  dialect.Dialect
	compiler *template.Compiler
	runner   Runner
	quote    bool
	errors   []error
}

// TableName returns the table name
func (bb *BaseBuilder) TableName() string {
	return bb.table.Name
}

// AddError adds an error to the builder
func (bb *BaseBuilder) AddError(err error) {
	if err != nil {
		bb.errors = append(bb.errors, err)
	}
}

// HasErrors returns true if there are any errors
func (bb *BaseBuilder) HasErrors() bool {
	return len(bb.errors) > 0
}

// Errors returns all accumulated errors
func (bb *BaseBuilder) Errors() []error {
	return bb.errors
}

// FirstError returns the first error or nil
func (bb *BaseBuilder) FirstError() error {
	if len(bb.errors) > 0 {
		return bb.errors[0]
	}
	return nil
}

// lower renders root with '?' marks and compiles the text with the dialect's
// placeholder style.
func (bb *BaseBuilder) lower(root ast.Node) (*template.Statement, error) {
	if err := bb.FirstError(); err != nil {
		return nil, err
	}

	v := visitor.NewSQLVisitor(bb.dialect, bb.quote)
	defer v.Release()

	text, values, err := v.Build(root)
	if err != nil {
		return nil, err
	}

	t, err := bb.compiler.Parse(text)
	if err != nil {
		return nil, err
	}
	return bb.compiler.Compile(t, args.Positionals(values...), template.WithPlaceholder(bb.dialect.Placeholder))
}

// toSQL is the shared ToSQL body: SQL text plus encoded driver arguments.
func toSQL(stmt *template.Statement, err error) (string, []any, error) {
	if err != nil {
		return "", nil, err
	}
	values, err := stmt.Args()
	if err != nil {
		return "", nil, err
	}
	return stmt.SQL, values, nil
}

func (bb *BaseBuilder) exec(ctx context.Context, stmt *template.Statement, err error) (sql.Result, error) {
	if err != nil {
		return nil, err
	}
	if bb.runner == nil {
		return nil, ErrNoRunner
	}
	debug.Debug("query exec", "table", bb.table.Name, "sql", stmt.SQL)
	return bb.runner.Exec(ctx, stmt)
}

// compileFragment compiles a raw SQL fragment into an ast.Raw node. A single
// args.Source value is used as the argument source; otherwise the values
// back the fragment's '?' marks in order.
func (bb *BaseBuilder) compileFragment(sqlText string, values []any, opts ...template.CompileOption) (*ast.Raw, error) {
	var src args.Source = args.Positionals(values...)
	if len(values) == 1 {
		if s, ok := values[0].(args.Source); ok {
			src = s
		}
	}

	stmt, err := bb.compiler.CompileText(sqlText, src, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(stmt.Values))
	for i, bv := range stmt.Values {
		out[i] = carryHints(bv)
	}
	return ast.NewRaw(strings.TrimSpace(stmt.SQL), out...), nil
}

// carryHints keeps per-occurrence binding options of a fragment parameter
// across the second compile.
func carryHints(bv template.BoundValue) any {
	if bv.SQLType == types.Unknown && bv.HandlerName == "" && bv.ColumnType == types.Unknown {
		return bv.Value
	}
	return args.Typed{Value: bv.Value, SQLType: bv.SQLType, Handler: bv.HandlerName, ColumnType: bv.ColumnType}
}
