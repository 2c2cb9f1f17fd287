package ast

type Visitor interface {
	VisitSelect(*SelectStmt) error
	VisitInsert(*InsertStmt) error
	VisitUpdate(*UpdateStmt) error
	VisitDelete(*DeleteStmt) error

	VisitColumn(*Column) error
	VisitTable(*Table) error
	VisitValue(*Value) error
	VisitArray(*Array) error
	VisitRaw(*Raw) error
	VisitBinaryExpr(*BinaryExpr) error
	VisitUnaryExpr(*UnaryExpr) error
	VisitBetweenExpr(*BetweenExpr) error
	VisitRangeExpr(*RangeExpr) error
	VisitVectorDistance(*VectorDistance) error
	VisitGroup(*Group) error

	VisitOrderBy(*OrderBy) error
	VisitLimit(*LimitClause) error
	Build(root Node) (string, []any, error)
	Release()
}
