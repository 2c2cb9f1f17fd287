package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

// Conditions is the WHERE tree shared by Select, Update and Delete. Every
// method returns the owning builder B so chains keep their concrete type.
//
// The pending connective defaults to AND. Or, And and Not apply to the next
// predicate or group only. When(false) drops the next predicate or group
// and leaves the pending connective as it was.
type Conditions[B any] struct {
	self    B
	base    *BaseBuilder
	root    *ast.Group
	current *ast.Group
	pending ast.Connective
	negate  bool
	skip    bool
}

func (c *Conditions[B]) init(self B, base *BaseBuilder) {
	c.self = self
	c.base = base
	c.root = &ast.Group{}
	c.current = c.root
}

// Where returns the condition tree built so far.
func (c *Conditions[B]) Where() *ast.Group { return c.root }

// add attaches n to the current group with the pending connective and resets it.
func (c *Conditions[B]) add(n ast.Node) B {
	if c.skip {
		c.skip = false
		return c.self
	}
	c.current.Add(c.pending, c.negate, n)
	c.pending, c.negate = ast.And, false
	return c.self
}

func (c *Conditions[B]) compare(col string, op ast.Operator, v any) B {
	return c.add(ast.NewBinaryExpr(ast.NewColumn(col), op, ast.NewValue(v)))
}

// And sets the connective of the next predicate to AND.
func (c *Conditions[B]) And() B {
	c.pending = ast.And
	return c.self
}

// Or sets the connective of the next predicate to OR.
func (c *Conditions[B]) Or() B {
	c.pending = ast.Or
	return c.self
}

// Not negates the next predicate or group.
func (c *Conditions[B]) Not() B {
	c.negate = true
	return c.self
}

// When gates the next predicate or group on test.
func (c *Conditions[B]) When(test bool) B {
	c.skip = !test
	return c.self
}

// IfTrue runs fn only when test holds.
func (c *Conditions[B]) IfTrue(test bool, fn func(B)) B {
	if test {
		fn(c.self)
	}
	return c.self
}

// Eq adds col = v, or col IS NULL for a nil v.
func (c *Conditions[B]) Eq(col string, v any) B {
	if ast.NewValue(v).IsNull() {
		return c.IsNull(col)
	}
	return c.compare(col, ast.OpEqual, v)
}

// Ne adds col <> v, or col IS NOT NULL for a nil v.
func (c *Conditions[B]) Ne(col string, v any) B {
	if ast.NewValue(v).IsNull() {
		return c.IsNotNull(col)
	}
	return c.compare(col, ast.OpNotEqual, v)
}

func (c *Conditions[B]) Gt(col string, v any) B { return c.compare(col, ast.OpGreaterThan, v) }

func (c *Conditions[B]) Ge(col string, v any) B { return c.compare(col, ast.OpGreaterThanOrEqual, v) }

func (c *Conditions[B]) Lt(col string, v any) B { return c.compare(col, ast.OpLessThan, v) }

func (c *Conditions[B]) Le(col string, v any) B { return c.compare(col, ast.OpLessThanOrEqual, v) }

// like adds col LIKE format(v). A nil v adds col IS NULL, or IS NOT NULL
// for the negated forms.
func (c *Conditions[B]) like(col string, op ast.Operator, format string, v any) B {
	if ast.NewValue(v).IsNull() {
		if op == ast.OpNotLike {
			return c.IsNotNull(col)
		}
		return c.IsNull(col)
	}
	return c.compare(col, op, fmt.Sprintf(format, v))
}

// Like matches v anywhere in col.
func (c *Conditions[B]) Like(col string, v any) B {
	return c.like(col, ast.OpLike, "%%%v%%", v)
}

func (c *Conditions[B]) NotLike(col string, v any) B {
	return c.like(col, ast.OpNotLike, "%%%v%%", v)
}

// LikeLeft matches col ending with v.
func (c *Conditions[B]) LikeLeft(col string, v any) B {
	return c.like(col, ast.OpLike, "%%%v", v)
}

func (c *Conditions[B]) NotLikeLeft(col string, v any) B {
	return c.like(col, ast.OpNotLike, "%%%v", v)
}

// LikeRight matches col starting with v.
func (c *Conditions[B]) LikeRight(col string, v any) B {
	return c.like(col, ast.OpLike, "%v%%", v)
}

func (c *Conditions[B]) NotLikeRight(col string, v any) B {
	return c.like(col, ast.OpNotLike, "%v%%", v)
}

func (c *Conditions[B]) IsNull(col string) B {
	return c.add(ast.NewUnaryExpr(ast.NewColumn(col), ast.OpIsNull))
}

func (c *Conditions[B]) IsNotNull(col string) B {
	return c.add(ast.NewUnaryExpr(ast.NewColumn(col), ast.OpIsNotNull))
}

// In adds col IN (...). A single slice argument is expanded. An empty
// operand set is recorded as a binding error.
func (c *Conditions[B]) In(col string, values ...any) B {
	return c.in(col, ast.OpIn, values)
}

func (c *Conditions[B]) NotIn(col string, values ...any) B {
	return c.in(col, ast.OpNotIn, values)
}

func (c *Conditions[B]) in(col string, op ast.Operator, values []any) B {
	values = flatten(values)
	if len(values) == 0 {
		if c.skip {
			c.skip = false
		} else {
			c.base.AddError(sqlerr.EmptyIn(col))
		}
		return c.self
	}
	return c.add(ast.NewBinaryExpr(ast.NewColumn(col), op, ast.NewArray(values)))
}

// flatten expands a lone slice argument. []byte stays a scalar.
func flatten(values []any) []any {
	if len(values) != 1 {
		return values
	}
	rv := reflect.ValueOf(values[0])
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return values
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return values
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func (c *Conditions[B]) rng(col string, low, high any, lowerOpen, upperOpen, not bool) B {
	if not && !c.skip {
		c.negate = !c.negate
	}
	return c.add(&ast.RangeExpr{
		Expr:      ast.NewColumn(col),
		Low:       ast.NewValue(low),
		High:      ast.NewValue(high),
		LowerOpen: lowerOpen,
		UpperOpen: upperOpen,
	})
}

// RangeOpenOpen adds low < col < high.
func (c *Conditions[B]) RangeOpenOpen(col string, low, high any) B {
	return c.rng(col, low, high, true, true, false)
}

// RangeOpenClosed adds low < col <= high.
func (c *Conditions[B]) RangeOpenClosed(col string, low, high any) B {
	return c.rng(col, low, high, true, false, false)
}

// RangeClosedOpen adds low <= col < high.
func (c *Conditions[B]) RangeClosedOpen(col string, low, high any) B {
	return c.rng(col, low, high, false, true, false)
}

// RangeClosedClosed adds low <= col <= high.
func (c *Conditions[B]) RangeClosedClosed(col string, low, high any) B {
	return c.rng(col, low, high, false, false, false)
}

func (c *Conditions[B]) RangeNotOpenOpen(col string, low, high any) B {
	return c.rng(col, low, high, true, true, true)
}

func (c *Conditions[B]) RangeNotOpenClosed(col string, low, high any) B {
	return c.rng(col, low, high, true, false, true)
}

func (c *Conditions[B]) RangeNotClosedOpen(col string, low, high any) B {
	return c.rng(col, low, high, false, true, true)
}

func (c *Conditions[B]) RangeNotClosedClosed(col string, low, high any) B {
	return c.rng(col, low, high, false, false, true)
}

func (c *Conditions[B]) Between(col string, low, high any) B {
	return c.add(&ast.BetweenExpr{Expr: ast.NewColumn(col), Low: ast.NewValue(low), High: ast.NewValue(high)})
}

func (c *Conditions[B]) NotBetween(col string, low, high any) B {
	return c.add(&ast.BetweenExpr{Expr: ast.NewColumn(col), Low: ast.NewValue(low), High: ast.NewValue(high), Not: true})
}

// Apply adds a raw SQL fragment. The fragment is compiled right away, so it
// may use any placeholder form; values back its '?' marks, or a single
// args.Source backs its named parameters. Rules in the fragment see the
// WHERE clause as open. A blank fragment, or one whose rules render
// nothing, is dropped.
func (c *Conditions[B]) Apply(sqlText string, values ...any) B {
	if c.skip {
		c.skip = false
		return c.self
	}
	if strings.TrimSpace(sqlText) == "" {
		return c.self
	}
	raw, err := c.base.compileFragment(sqlText, values, template.WithOpenClause("where"))
	if err != nil {
		c.base.AddError(err)
		return c.self
	}
	if raw.IsEmpty() {
		return c.self
	}
	return c.add(raw)
}

// VectorRange adds dist(col, vec) < threshold under metric.
func (c *Conditions[B]) VectorRange(metric dialect.Metric, col string, vec []float32, threshold float64) B {
	dist := &ast.VectorDistance{Column: ast.NewColumn(col), Metric: metric, Vector: vec}
	return c.add(ast.NewBinaryExpr(dist, ast.OpLessThan, ast.NewValue(threshold)))
}

// Nested runs fn against a child group joined with the pending connective.
// An empty child group is dropped.
func (c *Conditions[B]) Nested(fn func(B)) B {
	if c.skip {
		c.skip = false
		return c.self
	}
	connective, negated := c.pending, c.negate
	c.pending, c.negate = ast.And, false

	parent := c.current
	child := &ast.Group{}
	c.current = child
	fn(c.self)
	c.current = parent
	c.pending, c.negate = ast.And, false

	if !child.IsEmpty() {
		parent.Add(connective, negated, child)
	}
	return c.self
}

func (c *Conditions[B]) AndNested(fn func(B)) B {
	c.pending = ast.And
	return c.Nested(fn)
}

func (c *Conditions[B]) OrNested(fn func(B)) B {
	c.pending = ast.Or
	return c.Nested(fn)
}

// EqBySample adds a nested AND group with one Eq per non-null field of rec.
func (c *Conditions[B]) EqBySample(rec args.Record) B {
	return c.Nested(func(B) {
		for _, name := range rec.Fields() {
			v, ok := rec.Field(name)
			if !ok || ast.NewValue(v).IsNull() {
				continue
			}
			c.compare(name, ast.OpEqual, v)
		}
	})
}

// EqBySampleMap is EqBySample over a map, in sorted key order.
func (c *Conditions[B]) EqBySampleMap(sample map[string]any) B {
	keys := make([]string, 0, len(sample))
	for k := range sample {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return c.Nested(func(B) {
		for _, k := range keys {
			if v := sample[k]; !ast.NewValue(v).IsNull() {
				c.compare(k, ast.OpEqual, v)
			}
		}
	})
}
