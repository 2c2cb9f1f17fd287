package ast

type Operator string

const (
	OpEqual              Operator = "="
	OpNotEqual           Operator = "<>"
	OpLessThan           Operator = "<"
	OpLessThanOrEqual    Operator = "<="
	OpGreaterThan        Operator = ">"
	OpGreaterThanOrEqual Operator = ">="
)

// Pattern Matching
const (
	OpLike    Operator = "LIKE"
	OpNotLike Operator = "NOT LIKE"
)

// Set Operations
const (
	OpIn    Operator = "IN"
	OpNotIn Operator = "NOT IN"
)

// Null Operations
const (
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// Connective glues a condition to its previous sibling.
type Connective int

const (
	And Connective = iota
	Or
)

func (c Connective) String() string {
	if c == Or {
		return "OR"
	}
	return "AND"
}
