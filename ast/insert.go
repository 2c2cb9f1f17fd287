package ast

// Strategy is the duplicate-key behavior of an INSERT.
type Strategy int

const (
	// Into surfaces a key collision as a constraint violation.
	Into Strategy = iota
	// Ignore skips colliding rows.
	Ignore
	// Update overwrites the colliding row with every non-null supplied column.
	Update
)

func (s Strategy) String() string {
	switch s {
	case Ignore:
		return "Ignore"
	case Update:
		return "Update"
	}
	return "Into"
}

type InsertStmt struct {
	Table    *Table
	Columns  []*Column
	Rows     [][]Node
	Strategy Strategy
	// ConflictKeys are the unique columns a collision is detected on.
	ConflictKeys []string
}

func (i *InsertStmt) Type() NodeType         { return NodeInsert }
func (i *InsertStmt) Accept(v Visitor) error { return v.VisitInsert(i) }
