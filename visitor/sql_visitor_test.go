package visitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
)

func build(t *testing.T, d dialect.Dialect, quote bool, n ast.Node) (string, []any, error) {
	t.Helper()
	v := NewSQLVisitor(d, quote)
	defer v.Release()
	return v.Build(n)
}

func eq(col string, val any) ast.Node {
	return ast.NewBinaryExpr(ast.NewColumn(col), ast.OpEqual, ast.NewValue(val))
}

func TestSelect(t *testing.T) {
	where := &ast.Group{}
	where.Add(ast.And, false, eq("seq", 1))
	where.Add(ast.Or, false, &ast.RangeExpr{
		Expr: ast.NewColumn("login_name"), Low: ast.NewValue(2), High: ast.NewValue(3), LowerOpen: true,
	})
	inner := &ast.Group{}
	inner.Add(ast.And, false, ast.NewUnaryExpr(ast.NewColumn("a"), ast.OpIsNull))
	inner.Add(ast.Or, false, ast.NewBinaryExpr(ast.NewColumn("b"), ast.OpIn, ast.NewArray([]any{"x", "y"})))
	where.Add(ast.And, true, inner)
	where.Add(ast.And, false, &ast.Group{})

	stmt := &ast.SelectStmt{
		Columns: []ast.Node{ast.NewColumn("id"), &ast.Column{Name: "name", Alias: "n"}},
		From:    ast.NewTable("user_info", ""),
		Where:   where,
		GroupBy: []ast.Node{ast.NewColumn("id")},
		OrderBy: []*ast.OrderBy{{Expr: ast.NewColumn("id"), Desc: true}},
		Limit:   &ast.LimitClause{Count: 10, Offset: 20, HasCount: true, HasOffset: true},
	}

	sql, args, err := build(t, dialect.NewPostgresDialect(), false, stmt)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name AS n FROM user_info WHERE seq = ? OR (? < login_name AND login_name <= ?)"+
		" AND NOT (a IS NULL OR b IN (?, ?)) GROUP BY id ORDER BY id DESC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{1, 2, 3, "x", "y", 10, 20}, args)

	sql, _, err = build(t, dialect.NewOracleDialect(), false, stmt)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY id DESC OFFSET ? ROWS FETCH NEXT ? ROWS ONLY")

	_, _, err = build(t, dialect.NewANSIDialect(), false, stmt)
	assert.ErrorIs(t, err, sqlerr.ErrUnsupportedShape)
}

func TestSelectDefaults(t *testing.T) {
	stmt := &ast.SelectStmt{From: ast.NewTable("public.users", "u"), Distinct: true}
	sql, args, err := build(t, dialect.NewPostgresDialect(), true, stmt)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT * FROM "public"."users" "u"`, sql)
	assert.Nil(t, args)

	_, _, err = build(t, dialect.NewPostgresDialect(), false, &ast.SelectStmt{})
	assert.Error(t, err)
}

func TestBetweenAndRanges(t *testing.T) {
	col := ast.NewColumn("age")
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"between", &ast.BetweenExpr{Expr: col, Low: ast.NewValue(1), High: ast.NewValue(2)}, "age BETWEEN ? AND ?"},
		{"not between", &ast.BetweenExpr{Expr: col, Low: ast.NewValue(1), High: ast.NewValue(2), Not: true}, "age NOT BETWEEN ? AND ?"},
		{"open open", &ast.RangeExpr{Expr: col, Low: ast.NewValue(1), High: ast.NewValue(2), LowerOpen: true, UpperOpen: true}, "(? < age AND age < ?)"},
		{"closed open", &ast.RangeExpr{Expr: col, Low: ast.NewValue(1), High: ast.NewValue(2), UpperOpen: true}, "(? <= age AND age < ?)"},
		{"closed closed", &ast.RangeExpr{Expr: col, Low: ast.NewValue(1), High: ast.NewValue(2)}, "(? <= age AND age <= ?)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := build(t, dialect.NewMySQLDialect(), false, tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{1, 2}, args)
		})
	}
}

func TestVectorDistance(t *testing.T) {
	vec := []float32{1, 2}
	order := &ast.SelectStmt{
		From:    ast.NewTable("items", ""),
		OrderBy: []*ast.OrderBy{{Expr: &ast.VectorDistance{Column: ast.NewColumn("embedding"), Metric: dialect.Cosine, Vector: vec}}},
	}

	sql, args, err := build(t, dialect.NewPostgresDialect(), false, order)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM items ORDER BY embedding <=> ? ASC", sql)
	assert.Equal(t, []any{vec}, args)

	sql, _, err = build(t, dialect.NewTiDBDialect(), false, order)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM items ORDER BY VEC_COSINE_DISTANCE(embedding, ?) ASC", sql)

	_, _, err = build(t, dialect.NewMySQLDialect(), false, order)
	var use *sqlerr.UnsupportedShapeError
	require.ErrorAs(t, err, &use)
	assert.Equal(t, "mysql", use.Dialect)
	assert.Contains(t, use.Feature, "Cosine")

	rng := ast.NewBinaryExpr(
		&ast.VectorDistance{Column: ast.NewColumn("embedding"), Metric: dialect.L2, Vector: vec},
		ast.OpLessThan, ast.NewValue(0.5))
	sql, args, err = build(t, dialect.NewPostgresDialect(), false, rng)
	require.NoError(t, err)
	assert.Equal(t, "embedding <-> ? < ?", sql)
	assert.Equal(t, []any{vec, 0.5}, args)
}

func TestUpdateDeleteSafetyGuard(t *testing.T) {
	pg := dialect.NewPostgresDialect()
	upd := &ast.UpdateStmt{
		Table: ast.NewTable("users", ""),
		Set:   []ast.Assignment{{Column: ast.NewColumn("name"), Value: ast.NewValue("x")}},
	}
	_, _, err := build(t, pg, false, upd)
	var guard *sqlerr.SafetyGuardError
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, "UPDATE", guard.Statement)
	assert.Contains(t, err.Error(), "AllowEmptyWhere()")

	upd.AllowEmptyWhere = true
	sql, args, err := build(t, pg, false, upd)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = ?", sql)
	assert.Equal(t, []any{"x"}, args)

	upd.Where = &ast.Group{}
	upd.Where.Add(ast.And, false, eq("id", 1))
	sql, _, err = build(t, pg, false, upd)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = ? WHERE id = ?", sql)

	del := &ast.DeleteStmt{Table: ast.NewTable("users", ""), Where: &ast.Group{}}
	_, _, err = build(t, pg, false, del)
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, "DELETE", guard.Statement)

	del.AllowEmptyWhere = true
	sql, _, err = build(t, pg, false, del)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users", sql)

	_, _, err = build(t, pg, false, &ast.UpdateStmt{Table: ast.NewTable("users", ""), AllowEmptyWhere: true})
	assert.Error(t, err)
}

func upsertStmt(strategy ast.Strategy, keys ...string) *ast.InsertStmt {
	return &ast.InsertStmt{
		Table:   ast.NewTable("users", ""),
		Columns: []*ast.Column{ast.NewColumn("id"), ast.NewColumn("name"), ast.NewColumn("email")},
		Rows: [][]ast.Node{
			{ast.NewValue(1), ast.NewValue("X"), ast.NewValue(nil)},
		},
		Strategy:     strategy,
		ConflictKeys: keys,
	}
}

func TestInsertStrategies(t *testing.T) {
	tests := []struct {
		name    string
		d       dialect.Dialect
		stmt    *ast.InsertStmt
		want    string
		wantErr error
	}{
		{"into", dialect.NewPostgresDialect(), upsertStmt(ast.Into),
			"INSERT INTO users (id, name, email) VALUES (?, ?, ?)", nil},
		{"pg ignore", dialect.NewPostgresDialect(), upsertStmt(ast.Ignore),
			"INSERT INTO users (id, name, email) VALUES (?, ?, ?) ON CONFLICT DO NOTHING", nil},
		{"pg ignore keys", dialect.NewPostgresDialect(), upsertStmt(ast.Ignore, "id"),
			"INSERT INTO users (id, name, email) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING", nil},
		{"mysql ignore", dialect.NewMySQLDialect(), upsertStmt(ast.Ignore),
			"INSERT IGNORE INTO users (id, name, email) VALUES (?, ?, ?)", nil},
		{"sqlite ignore", dialect.NewSQLiteDialect(), upsertStmt(ast.Ignore),
			"INSERT OR IGNORE INTO users (id, name, email) VALUES (?, ?, ?)", nil},
		{"pg update", dialect.NewPostgresDialect(), upsertStmt(ast.Update, "id"),
			"INSERT INTO users (id, name, email) VALUES (?, ?, ?) ON CONFLICT (id) DO UPDATE SET " +
				"name = EXCLUDED.name, email = COALESCE(EXCLUDED.email, users.email)", nil},
		{"sqlite update", dialect.NewSQLiteDialect(), upsertStmt(ast.Update, "id"),
			"INSERT INTO users (id, name, email) VALUES (?, ?, ?) ON CONFLICT (id) DO UPDATE SET " +
				"name = EXCLUDED.name, email = COALESCE(EXCLUDED.email, users.email)", nil},
		{"mysql update", dialect.NewMySQLDialect(), upsertStmt(ast.Update, "id"),
			"INSERT INTO users (id, name, email) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE " +
				"name = VALUES(name), email = COALESCE(VALUES(email), email)", nil},
		{"tidb update without keys", dialect.NewTiDBDialect(), upsertStmt(ast.Update),
			"INSERT INTO users (id, name, email) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE " +
				"id = VALUES(id), name = VALUES(name), email = COALESCE(VALUES(email), email)", nil},
		{"oracle update", dialect.NewOracleDialect(), upsertStmt(ast.Update, "id"),
			"MERGE INTO users TMP USING (SELECT ? id, ? name, ? email FROM dual) SRC ON (TMP.id = SRC.id)" +
				" WHEN MATCHED THEN UPDATE SET TMP.name = SRC.name, TMP.email = COALESCE(SRC.email, TMP.email)" +
				" WHEN NOT MATCHED THEN INSERT (id, name, email) VALUES (SRC.id, SRC.name, SRC.email)", nil},
		{"oracle ignore", dialect.NewOracleDialect(), upsertStmt(ast.Ignore, "id"),
			"MERGE INTO users TMP USING (SELECT ? id, ? name, ? email FROM dual) SRC ON (TMP.id = SRC.id)" +
				" WHEN NOT MATCHED THEN INSERT (id, name, email) VALUES (SRC.id, SRC.name, SRC.email)", nil},
		{"pg update needs keys", dialect.NewPostgresDialect(), upsertStmt(ast.Update), "", sqlerr.ErrUnsupportedShape},
		{"oracle needs keys", dialect.NewOracleDialect(), upsertStmt(ast.Ignore), "", sqlerr.ErrUnsupportedShape},
		{"ansi update", dialect.NewANSIDialect(), upsertStmt(ast.Update, "id"), "", sqlerr.ErrUnsupportedShape},
		{"ansi ignore", dialect.NewANSIDialect(), upsertStmt(ast.Ignore, "id"), "", sqlerr.ErrUnsupportedShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := build(t, tt.d, false, tt.stmt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{1, "X", nil}, args)
		})
	}
}

func TestInsertMultiRowAndKeysOnly(t *testing.T) {
	stmt := &ast.InsertStmt{
		Table:   ast.NewTable("tags", ""),
		Columns: []*ast.Column{ast.NewColumn("id")},
		Rows:    [][]ast.Node{{ast.NewValue(1)}, {ast.NewValue(2)}},
		Strategy: ast.Update, ConflictKeys: []string{"ID"},
	}
	sql, args, err := build(t, dialect.NewPostgresDialect(), false, stmt)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO tags (id) VALUES (?), (?) ON CONFLICT (ID) DO NOTHING", sql)
	assert.Equal(t, []any{1, 2}, args)

	sql, _, err = build(t, dialect.NewMySQLDialect(), true, stmt)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `tags` (`id`) VALUES (?), (?) ON DUPLICATE KEY UPDATE `id` = `id`", sql)

	sql, _, err = build(t, dialect.NewOracleDialect(), false, stmt)
	require.NoError(t, err)
	assert.Equal(t, "MERGE INTO tags TMP USING (SELECT ? id FROM dual UNION ALL SELECT ? id FROM dual) SRC ON (TMP.ID = SRC.ID)"+
		" WHEN NOT MATCHED THEN INSERT (id) VALUES (SRC.id)", sql)

	stmt.Rows = append(stmt.Rows, []ast.Node{})
	_, _, err = build(t, dialect.NewPostgresDialect(), false, stmt)
	assert.Error(t, err)
}

func TestRawAndEmptyArray(t *testing.T) {
	g := &ast.Group{}
	g.Add(ast.And, false, ast.NewRaw("score > ? * 2", 5))
	g.Add(ast.Or, false, ast.NewBinaryExpr(ast.NewColumn("a"), ast.OpNotIn, ast.NewArray(nil)))

	_, _, err := build(t, dialect.NewSQLiteDialect(), false, g)
	assert.ErrorIs(t, err, sqlerr.ErrBinding)

	g.Conditions = g.Conditions[:1]
	sql, args, err := build(t, dialect.NewSQLiteDialect(), false, g)
	require.NoError(t, err)
	assert.Equal(t, "(score > ? * 2)", sql)
	assert.Equal(t, []any{5}, args)
}

func TestRawFragmentsInGroup(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *ast.Group)
		sql   string
	}{
		{"or inside fragment stays one predicate", func(g *ast.Group) {
			g.Add(ast.And, false, ast.NewRaw("a = ? OR b = ?", 1, 2))
			g.Add(ast.And, false, ast.NewBinaryExpr(ast.NewColumn("c"), ast.OpEqual, ast.NewValue(3)))
		}, "(a = ? OR b = ?) AND c = ?"},
		{"negated fragment", func(g *ast.Group) {
			g.Add(ast.And, true, ast.NewRaw("a = ? OR b = ?", 1, 2))
		}, "NOT (a = ? OR b = ?)"},
		{"blank fragment skipped", func(g *ast.Group) {
			g.Add(ast.And, false, ast.NewRaw("  "))
			g.Add(ast.Or, false, ast.NewBinaryExpr(ast.NewColumn("c"), ast.OpEqual, ast.NewValue(3)))
		}, "c = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &ast.Group{}
			tt.build(g)
			sql, _, err := build(t, dialect.NewSQLiteDialect(), false, g)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
		})
	}
}
