package ast

type SelectStmt struct {
	Distinct bool
	Columns  []Node
	From     *Table
	Where    *Group
	GroupBy  []Node
	Having   *Group
	OrderBy  []*OrderBy
	Limit    *LimitClause
}

func (s *SelectStmt) Type() NodeType         { return NodeSelect }
func (s *SelectStmt) Accept(v Visitor) error { return v.VisitSelect(s) }

// OrderBy is one ordering term. Expr may be a column or a vector distance.
type OrderBy struct {
	Expr Node
	Desc bool
}

func (o *OrderBy) Type() NodeType         { return NodeOrderBy }
func (o *OrderBy) Accept(v Visitor) error { return v.VisitOrderBy(o) }
