package query

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

type InsertBuilder struct {
	BaseBuilder
	stmt *ast.InsertStmt
}

// Insert starts an INSERT into table with the Into strategy.
func (b *Builder) Insert(table string) *InsertBuilder {
	ib := &InsertBuilder{BaseBuilder: b.base(table)}
	ib.stmt = &ast.InsertStmt{Table: ib.table, Strategy: ast.Into}
	return ib
}

func (ib *InsertBuilder) Quoted() *InsertBuilder {
	ib.quote = true
	return ib
}

// Columns sets the column list. It must precede Values.
func (ib *InsertBuilder) Columns(names ...string) *InsertBuilder {
	if len(ib.stmt.Rows) > 0 {
		ib.AddError(fmt.Errorf("insert into %s: columns set after rows", ib.table.Name))
		return ib
	}
	ib.stmt.Columns = ib.stmt.Columns[:0]
	for _, n := range names {
		ib.stmt.Columns = append(ib.stmt.Columns, &ast.Column{Name: n})
	}
	return ib
}

// Values appends one row, matching the column list positionally.
func (ib *InsertBuilder) Values(values ...any) *InsertBuilder {
	if len(values) != len(ib.stmt.Columns) {
		ib.AddError(fmt.Errorf("insert into %s: %d values for %d columns",
			ib.table.Name, len(values), len(ib.stmt.Columns)))
		return ib
	}
	row := make([]ast.Node, len(values))
	for i, v := range values {
		row[i] = ast.NewValue(v)
	}
	ib.stmt.Rows = append(ib.stmt.Rows, row)
	return ib
}

// Record appends rec as a row. The first record fixes the column list when
// none was set.
func (ib *InsertBuilder) Record(rec args.Record) *InsertBuilder {
	if len(ib.stmt.Columns) == 0 {
		ib.Columns(rec.Fields()...)
	}
	values := make([]any, len(ib.stmt.Columns))
	for i, c := range ib.stmt.Columns {
		v, ok := rec.Field(c.Name)
		if !ok {
			ib.AddError(fmt.Errorf("insert into %s: record has no field %s", ib.table.Name, c.Name))
			return ib
		}
		values[i] = v
	}
	return ib.Values(values...)
}

// Row appends a map row. Column order is sorted when the map fixes it.
func (ib *InsertBuilder) Row(row map[string]any) *InsertBuilder {
	if len(ib.stmt.Columns) == 0 {
		names := make([]string, 0, len(row))
		for k := range row {
			names = append(names, k)
		}
		sort.Strings(names)
		ib.Columns(names...)
	}
	values := make([]any, len(ib.stmt.Columns))
	for i, c := range ib.stmt.Columns {
		v, ok := row[c.Name]
		if !ok {
			ib.AddError(fmt.Errorf("insert into %s: row has no column %s", ib.table.Name, c.Name))
			return ib
		}
		values[i] = v
	}
	return ib.Values(values...)
}

// OnDuplicateIgnore skips rows that collide on keys. Keys are optional
// except for MERGE based dialects.
func (ib *InsertBuilder) OnDuplicateIgnore(keys ...string) *InsertBuilder {
	return ib.OnDuplicate(ast.Ignore, keys...)
}

// OnDuplicateUpdate overwrites colliding rows with every non-key column;
// columns supplied as NULL keep their stored value.
func (ib *InsertBuilder) OnDuplicateUpdate(keys ...string) *InsertBuilder {
	return ib.OnDuplicate(ast.Update, keys...)
}

func (ib *InsertBuilder) OnDuplicate(strategy ast.Strategy, keys ...string) *InsertBuilder {
	ib.stmt.Strategy = strategy
	ib.stmt.ConflictKeys = keys
	return ib
}

func (ib *InsertBuilder) Build() (*template.Statement, error) {
	return ib.lower(ib.stmt)
}

func (ib *InsertBuilder) ToSQL() (string, []any, error) {
	return toSQL(ib.Build())
}

func (ib *InsertBuilder) Exec(ctx context.Context) (sql.Result, error) {
	stmt, err := ib.Build()
	return ib.exec(ctx, stmt, err)
}
