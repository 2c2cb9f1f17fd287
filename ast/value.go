package ast

import (
	"reflect"
	"strings"
)

// Value is one bound operand.
type Value struct {
	Val any
}

func NewValue(val any) *Value { return &Value{Val: val} }

func (v *Value) Type() NodeType           { return NodeValue }
func (v *Value) Accept(vis Visitor) error { return vis.VisitValue(v) }

// IsNull reports whether the operand binds SQL NULL. Values wrapped with
// binding hints are judged by what they wrap.
func (v *Value) IsNull() bool {
	return isNull(v.Val)
}

func isNull(val any) bool {
	if w, ok := val.(interface{ Underlying() any }); ok {
		return isNull(w.Underlying())
	}
	if val == nil {
		return true
	}
	rv := reflect.ValueOf(val)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// Array is a parenthesized operand list, as used by IN.
type Array struct {
	Values []any
}

func NewArray(values []any) *Array { return &Array{Values: values} }

func (a *Array) Type() NodeType         { return NodeArray }
func (a *Array) Accept(v Visitor) error { return v.VisitArray(a) }

// Raw is a SQL fragment spliced verbatim. Its '?' marks bind Args in order.
type Raw struct {
	SQL  string
	Args []any
}

func NewRaw(sql string, args ...any) *Raw { return &Raw{SQL: sql, Args: args} }

func (r *Raw) Type() NodeType         { return NodeRaw }
func (r *Raw) Accept(v Visitor) error { return v.VisitRaw(r) }

// IsEmpty reports whether the fragment has no SQL besides whitespace.
func (r *Raw) IsEmpty() bool { return r == nil || strings.TrimSpace(r.SQL) == "" }
