// Package visitor renders ast statements into SQL text with '?' marks and a
// parallel value list. Dialect capabilities decide the duplicate-key,
// vector and row-window syntax; a shape the dialect lacks fails here.
package visitor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
)

var visitorPool = sync.Pool{
	New: func() any {
		return &SQLVisitor{
			args: make([]any, 0, 8),
		}
	},
}

// AllowEmptyWhereHint is the override named by safety guard errors.
const AllowEmptyWhereHint = "AllowEmptyWhere()"

type SQLVisitor struct {
	sb      strings.Builder
	args    []any
	dialect dialect.Dialect
	quote   bool
}

var _ ast.Visitor = (*SQLVisitor)(nil)

// NewSQLVisitor takes a visitor from the pool. Identifiers are quoted with
// the dialect's quote characters only when quote is set.
func NewSQLVisitor(d dialect.Dialect, quote bool) *SQLVisitor {
	v := visitorPool.Get().(*SQLVisitor)
	v.dialect = d
	v.quote = quote
	v.sb.Reset()
	v.args = v.args[:0]
	return v
}

func (v *SQLVisitor) Release() {
	v.dialect = nil
	v.sb.Reset()
	v.args = v.args[:0]
	visitorPool.Put(v)
}

// Build renders root. The returned slice is owned by the caller.
func (v *SQLVisitor) Build(root ast.Node) (string, []any, error) {
	v.sb.Reset()
	v.args = v.args[:0]

	if err := root.Accept(v); err != nil {
		return "", nil, err
	}

	var out []any
	if len(v.args) > 0 {
		out = make([]any, len(v.args))
		copy(out, v.args)
	}
	return v.sb.String(), out, nil
}

func (v *SQLVisitor) arg(a any) {
	v.sb.WriteByte('?')
	v.args = append(v.args, a)
}

func (v *SQLVisitor) ident(name string) string {
	if !v.quote {
		return name
	}
	return v.dialect.QuoteIdentifier(name)
}

func (v *SQLVisitor) unsupported(feature, detail string) error {
	return &sqlerr.UnsupportedShapeError{Dialect: v.dialect.Name(), Feature: feature, Detail: detail}
}

func (v *SQLVisitor) tableName(t *ast.Table) {
	if t.Schema != "" {
		v.sb.WriteString(v.ident(t.Schema))
		v.sb.WriteByte('.')
	}
	v.sb.WriteString(v.ident(t.Name))
}

func (v *SQLVisitor) VisitSelect(s *ast.SelectStmt) error {
	if s.From == nil {
		return errors.New("select has no table")
	}
	v.sb.WriteString("SELECT ")
	if s.Distinct {
		v.sb.WriteString("DISTINCT ")
	}

	if len(s.Columns) == 0 {
		v.sb.WriteByte('*')
	}
	for i, col := range s.Columns {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := col.Accept(v); err != nil {
			return err
		}
	}

	v.sb.WriteString(" FROM ")
	if err := s.From.Accept(v); err != nil {
		return err
	}

	if err := v.where(s.Where); err != nil {
		return err
	}

	if len(s.GroupBy) > 0 {
		v.sb.WriteString(" GROUP BY ")
		for i, expr := range s.GroupBy {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := expr.Accept(v); err != nil {
				return err
			}
		}
	}

	if !s.Having.IsEmpty() {
		v.sb.WriteString(" HAVING ")
		if err := s.Having.Accept(v); err != nil {
			return err
		}
	}

	if len(s.OrderBy) > 0 {
		v.sb.WriteString(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := o.Accept(v); err != nil {
				return err
			}
		}
	}

	if s.Limit != nil {
		if err := s.Limit.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitUpdate(stmt *ast.UpdateStmt) error {
	if stmt.Where.IsEmpty() && !stmt.AllowEmptyWhere {
		return &sqlerr.SafetyGuardError{Statement: "UPDATE", Override: AllowEmptyWhereHint}
	}
	if len(stmt.Set) == 0 {
		return errors.New("update has no columns to set")
	}

	v.sb.WriteString("UPDATE ")
	if err := stmt.Table.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" SET ")
	for i, a := range stmt.Set {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.sb.WriteString(v.ident(a.Column.Name))
		v.sb.WriteString(" = ")
		if err := a.Value.Accept(v); err != nil {
			return err
		}
	}
	return v.where(stmt.Where)
}

func (v *SQLVisitor) VisitDelete(stmt *ast.DeleteStmt) error {
	if stmt.Where.IsEmpty() && !stmt.AllowEmptyWhere {
		return &sqlerr.SafetyGuardError{Statement: "DELETE", Override: AllowEmptyWhereHint}
	}
	v.sb.WriteString("DELETE FROM ")
	if err := stmt.Table.Accept(v); err != nil {
		return err
	}
	return v.where(stmt.Where)
}

func (v *SQLVisitor) where(g *ast.Group) error {
	if g.IsEmpty() {
		return nil
	}
	v.sb.WriteString(" WHERE ")
	return g.Accept(v)
}

func (v *SQLVisitor) VisitColumn(c *ast.Column) error {
	if c.Table != "" {
		v.sb.WriteString(v.ident(c.Table))
		v.sb.WriteByte('.')
	}
	v.sb.WriteString(v.ident(c.Name))

	if c.Alias != "" && c.Alias != c.Name {
		v.sb.WriteString(" AS ")
		v.sb.WriteString(v.ident(c.Alias))
	}
	return nil
}

func (v *SQLVisitor) VisitTable(t *ast.Table) error {
	v.tableName(t)
	if t.Alias != "" && t.Alias != t.Name {
		v.sb.WriteByte(' ')
		v.sb.WriteString(v.ident(t.Alias))
	}
	return nil
}

func (v *SQLVisitor) VisitValue(val *ast.Value) error {
	v.arg(val.Val)
	return nil
}

func (v *SQLVisitor) VisitArray(a *ast.Array) error {
	if len(a.Values) == 0 {
		return sqlerr.EmptyIn("")
	}
	v.sb.WriteByte('(')
	for i, val := range a.Values {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.arg(val)
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitRaw(r *ast.Raw) error {
	v.sb.WriteString(r.SQL)
	v.args = append(v.args, r.Args...)
	return nil
}

func (v *SQLVisitor) VisitBinaryExpr(expr *ast.BinaryExpr) error {
	if err := expr.Left.Accept(v); err != nil {
		return err
	}

	v.sb.WriteByte(' ')
	v.sb.WriteString(string(expr.Operator))
	v.sb.WriteByte(' ')

	return expr.Right.Accept(v)
}

func (v *SQLVisitor) VisitUnaryExpr(expr *ast.UnaryExpr) error {
	if err := expr.Operand.Accept(v); err != nil {
		return err
	}
	v.sb.WriteByte(' ')
	v.sb.WriteString(string(expr.Operator))
	return nil
}

func (v *SQLVisitor) VisitBetweenExpr(b *ast.BetweenExpr) error {
	if err := b.Expr.Accept(v); err != nil {
		return err
	}
	if b.Not {
		v.sb.WriteString(" NOT")
	}
	v.sb.WriteString(" BETWEEN ")
	if err := b.Low.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" AND ")
	return b.High.Accept(v)
}

func (v *SQLVisitor) VisitRangeExpr(r *ast.RangeExpr) error {
	lower, upper := " <= ", " <= "
	if r.LowerOpen {
		lower = " < "
	}
	if r.UpperOpen {
		upper = " < "
	}

	v.sb.WriteByte('(')
	if err := r.Low.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(lower)
	if err := r.Expr.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" AND ")
	if err := r.Expr.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(upper)
	if err := r.High.Accept(v); err != nil {
		return err
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitVectorDistance(d *ast.VectorDistance) error {
	form, ok := v.dialect.VectorDistance(d.Metric)
	if !ok {
		return v.unsupported("vector metric "+d.Metric.String(), "")
	}
	if form.Function != "" {
		v.sb.WriteString(form.Function)
		v.sb.WriteByte('(')
		if err := d.Column.Accept(v); err != nil {
			return err
		}
		v.sb.WriteString(", ")
		v.arg(d.Vector)
		v.sb.WriteByte(')')
		return nil
	}
	if err := d.Column.Accept(v); err != nil {
		return err
	}
	v.sb.WriteByte(' ')
	v.sb.WriteString(form.Operator)
	v.sb.WriteByte(' ')
	v.arg(d.Vector)
	return nil
}

// VisitGroup renders the children of g. Empty nested groups and blank raw
// fragments are skipped and the first rendered child carries no connective.
// Nested groups and raw fragments are parenthesized so each child stays one
// predicate.
func (v *SQLVisitor) VisitGroup(g *ast.Group) error {
	first := true
	for _, c := range g.Conditions {
		if ast.IsEmptyNode(c.Node) {
			continue
		}
		var nested bool
		switch c.Node.(type) {
		case *ast.Group, *ast.Raw:
			nested = true
		}
		if !first {
			v.sb.WriteByte(' ')
			v.sb.WriteString(c.Connective.String())
			v.sb.WriteByte(' ')
		}
		first = false

		if c.Negated {
			v.sb.WriteString("NOT ")
		}
		if nested {
			v.sb.WriteByte('(')
		}
		if err := c.Node.Accept(v); err != nil {
			return err
		}
		if nested {
			v.sb.WriteByte(')')
		}
	}
	return nil
}

func (v *SQLVisitor) VisitOrderBy(o *ast.OrderBy) error {
	if err := o.Expr.Accept(v); err != nil {
		return err
	}
	if o.Desc {
		v.sb.WriteString(" DESC")
	} else {
		v.sb.WriteString(" ASC")
	}
	return nil
}

func (v *SQLVisitor) VisitLimit(l *ast.LimitClause) error {
	if !l.HasCount && !l.HasOffset {
		return nil
	}
	switch v.dialect.PageStyle() {
	case dialect.PageLimitOffset:
		if l.HasCount {
			v.sb.WriteString(" LIMIT ")
			v.arg(l.Count)
		}
		if l.HasOffset {
			v.sb.WriteString(" OFFSET ")
			v.arg(l.Offset)
		}
	case dialect.PageOffsetFetch:
		if l.HasOffset {
			v.sb.WriteString(" OFFSET ")
			v.arg(l.Offset)
			v.sb.WriteString(" ROWS")
		}
		if l.HasCount {
			v.sb.WriteString(" FETCH NEXT ")
			v.arg(l.Count)
			v.sb.WriteString(" ROWS ONLY")
		}
	default:
		return v.unsupported("pagination", fmt.Sprintf("limit %d offset %d", l.Count, l.Offset))
	}
	return nil
}
