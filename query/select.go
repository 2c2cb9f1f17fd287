package query

import (
	"context"

	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

type SelectBuilder struct {
	BaseBuilder
	Conditions[*SelectBuilder]
	stmt *ast.SelectStmt
}

// Select starts a SELECT against table. "schema.table" is accepted.
func (b *Builder) Select(table string) *SelectBuilder {
	sb := &SelectBuilder{BaseBuilder: b.base(table)}
	sb.stmt = &ast.SelectStmt{From: sb.table}
	sb.Conditions.init(sb, &sb.BaseBuilder)
	sb.stmt.Where = sb.Conditions.root
	return sb
}

// Quoted quotes identifiers with the dialect's quote characters.
func (sb *SelectBuilder) Quoted() *SelectBuilder {
	sb.quote = true
	return sb
}

// As sets the table alias.
func (sb *SelectBuilder) As(alias string) *SelectBuilder {
	sb.table.Alias = alias
	return sb
}

// Columns selects the given column specs; none selects *.
func (sb *SelectBuilder) Columns(specs ...string) *SelectBuilder {
	for _, s := range specs {
		sb.stmt.Columns = append(sb.stmt.Columns, columnNode(s))
	}
	return sb
}

func (sb *SelectBuilder) Distinct() *SelectBuilder {
	sb.stmt.Distinct = true
	return sb
}

func (sb *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	for _, c := range columns {
		sb.stmt.GroupBy = append(sb.stmt.GroupBy, ast.NewColumn(c))
	}
	return sb
}

func (sb *SelectBuilder) OrderByAsc(columns ...string) *SelectBuilder {
	return sb.orderBy(false, columns)
}

func (sb *SelectBuilder) OrderByDesc(columns ...string) *SelectBuilder {
	return sb.orderBy(true, columns)
}

func (sb *SelectBuilder) orderBy(desc bool, columns []string) *SelectBuilder {
	for _, c := range columns {
		sb.stmt.OrderBy = append(sb.stmt.OrderBy, &ast.OrderBy{Expr: ast.NewColumn(c), Desc: desc})
	}
	return sb
}

// OrderByMetric orders by the distance between col and vec, nearest first.
func (sb *SelectBuilder) OrderByMetric(metric dialect.Metric, col string, vec []float32) *SelectBuilder {
	sb.stmt.OrderBy = append(sb.stmt.OrderBy, &ast.OrderBy{
		Expr: &ast.VectorDistance{Column: ast.NewColumn(col), Metric: metric, Vector: vec},
	})
	return sb
}

func (sb *SelectBuilder) limitClause() *ast.LimitClause {
	if sb.stmt.Limit == nil {
		sb.stmt.Limit = &ast.LimitClause{}
	}
	return sb.stmt.Limit
}

func (sb *SelectBuilder) Limit(limit int) *SelectBuilder {
	l := sb.limitClause()
	l.Count, l.HasCount = limit, true
	return sb
}

func (sb *SelectBuilder) Offset(offset int) *SelectBuilder {
	l := sb.limitClause()
	l.Offset, l.HasOffset = offset, true
	return sb
}

// Page selects limit rows starting at offset.
func (sb *SelectBuilder) Page(offset, limit int) *SelectBuilder {
	return sb.Offset(offset).Limit(limit)
}

// Build lowers the statement into SQL and bound values.
func (sb *SelectBuilder) Build() (*template.Statement, error) {
	return sb.lower(sb.stmt)
}

// ToSQL returns the SQL text and the encoded driver arguments.
func (sb *SelectBuilder) ToSQL() (string, []any, error) {
	return toSQL(sb.Build())
}

// All runs the query and scans every row into dest, a pointer to a slice.
func (sb *SelectBuilder) All(ctx context.Context, dest any) error {
	stmt, err := sb.Build()
	if err != nil {
		return err
	}
	if sb.runner == nil {
		return ErrNoRunner
	}
	debug.Debug("query select", "table", sb.table.Name, "sql", stmt.SQL)
	return sb.runner.Select(ctx, dest, stmt)
}
