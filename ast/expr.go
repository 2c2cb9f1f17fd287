package ast

import "github.com/Konsultn-Engineering/sqlkit/dialect"

type BinaryExpr struct {
	Left     Node
	Operator Operator
	Right    Node
}

func NewBinaryExpr(left Node, op Operator, right Node) *BinaryExpr {
	return &BinaryExpr{Left: left, Operator: op, Right: right}
}

func (b *BinaryExpr) Type() NodeType         { return NodeBinaryExpr }
func (b *BinaryExpr) Accept(v Visitor) error { return v.VisitBinaryExpr(b) }

// UnaryExpr is a postfix operator such as IS NULL.
type UnaryExpr struct {
	Operator Operator
	Operand  Node
}

func NewUnaryExpr(operand Node, op Operator) *UnaryExpr {
	return &UnaryExpr{Operator: op, Operand: operand}
}

func (u *UnaryExpr) Type() NodeType         { return NodeUnaryExpr }
func (u *UnaryExpr) Accept(v Visitor) error { return v.VisitUnaryExpr(u) }

// BetweenExpr renders "expr [NOT] BETWEEN low AND high".
type BetweenExpr struct {
	Expr Node
	Low  Node
	High Node
	Not  bool
}

func (b *BetweenExpr) Type() NodeType         { return NodeBetweenExpr }
func (b *BetweenExpr) Accept(v Visitor) error { return v.VisitBetweenExpr(b) }

// RangeExpr is a two-bound range, each side open or closed:
// "(low < expr AND expr <= high)". Reversed bounds are rendered as given.
type RangeExpr struct {
	Expr      Node
	Low       Node
	High      Node
	LowerOpen bool
	UpperOpen bool
}

func (r *RangeExpr) Type() NodeType         { return NodeRangeExpr }
func (r *RangeExpr) Accept(v Visitor) error { return v.VisitRangeExpr(r) }

// VectorDistance is the distance between a vector column and a reference
// vector under a metric. The dialect decides how it is spelled.
type VectorDistance struct {
	Column *Column
	Metric dialect.Metric
	Vector []float32
}

func (d *VectorDistance) Type() NodeType         { return NodeVectorDistance }
func (d *VectorDistance) Accept(v Visitor) error { return v.VisitVectorDistance(d) }
