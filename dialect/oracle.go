package dialect

import (
	"fmt"
	"strconv"
)

// Oracle targets 12c and later: OFFSET/FETCH paging and MERGE based upserts.
type Oracle struct{}

func NewOracleDialect() Dialect {
	return &Oracle{}
}

func (o Oracle) Name() string { return "oracle" }

func (o Oracle) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (o Oracle) Placeholder(n int) string {
	return ":" + strconv.Itoa(n)
}

func (o Oracle) RenderValue(v any) string {
	return renderValue(v, func(b []byte) string {
		return fmt.Sprintf("HEXTORAW('%x')", b)
	})
}

func (o Oracle) SupportsVector() bool                      { return false }
func (o Oracle) VectorDistance(Metric) (VectorForm, bool) { return VectorForm{}, false }
func (o Oracle) UpsertStyle() UpsertStyle                  { return UpsertMerge }
func (o Oracle) IgnoreStyle() IgnoreStyle                  { return IgnoreMerge }
func (o Oracle) PageStyle() PageStyle                      { return PageOffsetFetch }
