package dialect

import (
	"fmt"
)

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (m MySQL) Name() string { return "mysql" }

func (m MySQL) QuoteIdentifier(name string) string {
	return quoteWith(name, "`", "`")
}

func (m MySQL) Placeholder(n int) string {
	return "?"
}

func (m MySQL) RenderValue(v any) string {
	return renderValue(v, func(b []byte) string {
		return fmt.Sprintf("X'%x'", b)
	})
}

func (m MySQL) SupportsVector() bool {
	return false
}

func (m MySQL) VectorDistance(Metric) (VectorForm, bool) { return VectorForm{}, false }

func (m MySQL) UpsertStyle() UpsertStyle { return UpsertOnDuplicateKey }
func (m MySQL) IgnoreStyle() IgnoreStyle { return IgnoreKeyword }
func (m MySQL) PageStyle() PageStyle     { return PageLimitOffset }
