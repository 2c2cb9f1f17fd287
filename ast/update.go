package ast

type Assignment struct {
	Column *Column
	Value  Node
}

type UpdateStmt struct {
	Table           *Table
	Set             []Assignment
	Where           *Group
	AllowEmptyWhere bool
}

func (u *UpdateStmt) Type() NodeType         { return NodeUpdate }
func (u *UpdateStmt) Accept(v Visitor) error { return v.VisitUpdate(u) }
