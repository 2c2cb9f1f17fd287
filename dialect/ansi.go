package dialect

import "fmt"

// ANSI is the lowest common denominator: plain statements only. It has no
// upsert, vector or paging support.
type ANSI struct{}

func NewANSIDialect() Dialect {
	return &ANSI{}
}

func (ANSI) Name() string { return "ansi" }

func (ANSI) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (ANSI) Placeholder(int) string { return "?" }

func (ANSI) RenderValue(v any) string {
	return renderValue(v, func(b []byte) string {
		return fmt.Sprintf("X'%x'", b)
	})
}

func (ANSI) SupportsVector() bool                      { return false }
func (ANSI) VectorDistance(Metric) (VectorForm, bool) { return VectorForm{}, false }
func (ANSI) UpsertStyle() UpsertStyle                  { return UpsertNone }
func (ANSI) IgnoreStyle() IgnoreStyle                  { return IgnoreNone }
func (ANSI) PageStyle() PageStyle                      { return PageNone }
