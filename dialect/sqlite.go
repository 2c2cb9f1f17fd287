package dialect

import "fmt"

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (s SQLite) Name() string { return "sqlite" }

func (s SQLite) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (s SQLite) Placeholder(int) string { return "?" }

func (s SQLite) RenderValue(v any) string {
	return renderValue(v, func(b []byte) string {
		return fmt.Sprintf("X'%x'", b)
	})
}

func (s SQLite) SupportsVector() bool                      { return false }
func (s SQLite) VectorDistance(Metric) (VectorForm, bool) { return VectorForm{}, false }
func (s SQLite) UpsertStyle() UpsertStyle                  { return UpsertOnConflict }
func (s SQLite) IgnoreStyle() IgnoreStyle                  { return IgnoreOrIgnore }
func (s SQLite) PageStyle() PageStyle                      { return PageLimitOffset }
