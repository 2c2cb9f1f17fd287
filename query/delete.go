package query

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

type DeleteBuilder struct {
	BaseBuilder
	Conditions[*DeleteBuilder]
	stmt *ast.DeleteStmt
}

func (b *Builder) Delete(table string) *DeleteBuilder {
	db := &DeleteBuilder{BaseBuilder: b.base(table)}
	db.stmt = &ast.DeleteStmt{Table: db.table}
	db.Conditions.init(db, &db.BaseBuilder)
	db.stmt.Where = db.Conditions.root
	return db
}

func (db *DeleteBuilder) Quoted() *DeleteBuilder {
	db.quote = true
	return db
}

// AllowEmptyWhere lets the statement delete every row.
func (db *DeleteBuilder) AllowEmptyWhere() *DeleteBuilder {
	db.stmt.AllowEmptyWhere = true
	return db
}

func (db *DeleteBuilder) Build() (*template.Statement, error) {
	return db.lower(db.stmt)
}

func (db *DeleteBuilder) ToSQL() (string, []any, error) {
	return toSQL(db.Build())
}

func (db *DeleteBuilder) Exec(ctx context.Context) (sql.Result, error) {
	stmt, err := db.Build()
	return db.exec(ctx, stmt, err)
}
