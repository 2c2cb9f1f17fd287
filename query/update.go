package query

import (
	"context"
	"database/sql"
	"sort"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

type UpdateBuilder struct {
	BaseBuilder
	Conditions[*UpdateBuilder]
	stmt *ast.UpdateStmt
}

func (b *Builder) Update(table string) *UpdateBuilder {
	ub := &UpdateBuilder{BaseBuilder: b.base(table)}
	ub.stmt = &ast.UpdateStmt{Table: ub.table}
	ub.Conditions.init(ub, &ub.BaseBuilder)
	ub.stmt.Where = ub.Conditions.root
	return ub
}

func (ub *UpdateBuilder) Quoted() *UpdateBuilder {
	ub.quote = true
	return ub
}

// Set assigns v to col. A nil v sets NULL.
func (ub *UpdateBuilder) Set(col string, v any) *UpdateBuilder {
	ub.stmt.Set = append(ub.stmt.Set, ast.Assignment{Column: &ast.Column{Name: col}, Value: ast.NewValue(v)})
	return ub
}

// SetRaw assigns a compiled SQL expression, e.g. SetRaw("hits", "hits + ?", 1).
func (ub *UpdateBuilder) SetRaw(col, expr string, values ...any) *UpdateBuilder {
	raw, err := ub.compileFragment(expr, values)
	if err != nil {
		ub.AddError(err)
		return ub
	}
	ub.stmt.Set = append(ub.stmt.Set, ast.Assignment{Column: &ast.Column{Name: col}, Value: raw})
	return ub
}

// SetBySample assigns every non-null field of rec.
func (ub *UpdateBuilder) SetBySample(rec args.Record) *UpdateBuilder {
	for _, name := range rec.Fields() {
		if v, ok := rec.Field(name); ok && !ast.NewValue(v).IsNull() {
			ub.Set(name, v)
		}
	}
	return ub
}

// SetMap assigns every entry of m in sorted key order, nulls included.
func (ub *UpdateBuilder) SetMap(m map[string]any) *UpdateBuilder {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ub.Set(k, m[k])
	}
	return ub
}

// AllowEmptyWhere lets the statement run without a WHERE clause.
func (ub *UpdateBuilder) AllowEmptyWhere() *UpdateBuilder {
	ub.stmt.AllowEmptyWhere = true
	return ub
}

func (ub *UpdateBuilder) Build() (*template.Statement, error) {
	return ub.lower(ub.stmt)
}

func (ub *UpdateBuilder) ToSQL() (string, []any, error) {
	return toSQL(ub.Build())
}

func (ub *UpdateBuilder) Exec(ctx context.Context) (sql.Result, error) {
	stmt, err := ub.Build()
	return ub.exec(ctx, stmt, err)
}
