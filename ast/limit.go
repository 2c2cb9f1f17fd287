package ast

// LimitClause is the row window. Both bounds are bound as parameters.
type LimitClause struct {
	Count     int
	Offset    int
	HasCount  bool
	HasOffset bool
}

func (l *LimitClause) Type() NodeType         { return NodeLimit }
func (l *LimitClause) Accept(v Visitor) error { return v.VisitLimit(l) }
