package dialect

import (
	"fmt"
	"strconv"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (p Postgres) Name() string { return "postgres" }

func (p Postgres) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (p Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (Postgres) RenderValue(v any) string {
	return renderValue(v, func(b []byte) string {
		return fmt.Sprintf("'\\x%x'", b) // hex bytea literal
	})
}

func (p Postgres) SupportsVector() bool {
	return true
}

// pgvector operators
var postgresVectorOps = map[Metric]string{
	L2:           "<->",
	Cosine:       "<=>",
	InnerProduct: "<#>",
	Hamming:      "<~>",
	Jaccard:      "<%>",
}

func (p Postgres) VectorDistance(m Metric) (VectorForm, bool) {
	op, ok := postgresVectorOps[m]
	return VectorForm{Operator: op}, ok
}

func (p Postgres) UpsertStyle() UpsertStyle { return UpsertOnConflict }
func (p Postgres) IgnoreStyle() IgnoreStyle { return IgnoreOnConflict }
func (p Postgres) PageStyle() PageStyle     { return PageLimitOffset }
