// Package dialect describes what a target database can express: identifier
// quoting, placeholder style, literal rendering, vector distance operators,
// duplicate-key syntax and row-window syntax. The statement assembler asks
// before it emits dialect-specific SQL and fails fast when a shape is missing.
package dialect

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	Placeholder(n int) string
	RenderValue(v any) string
	SupportsVector() bool
	VectorDistance(m Metric) (VectorForm, bool)
	UpsertStyle() UpsertStyle
	IgnoreStyle() IgnoreStyle
	PageStyle() PageStyle
}

// Metric is a vector similarity metric.
type Metric int

const (
	L2 Metric = iota
	Cosine
	InnerProduct
	Hamming
	Jaccard
)

func (m Metric) String() string {
	switch m {
	case L2:
		return "L2"
	case Cosine:
		return "Cosine"
	case InnerProduct:
		return "InnerProduct"
	case Hamming:
		return "Hamming"
	case Jaccard:
		return "Jaccard"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// VectorForm is how a dialect spells a distance: either an infix operator
// (col <-> ?) or a function call (VEC_L2_DISTANCE(col, ?)).
type VectorForm struct {
	Operator string
	Function string
}

// UpsertStyle is the syntax family used for the Update duplicate-key strategy.
type UpsertStyle int

const (
	UpsertNone UpsertStyle = iota
	UpsertOnConflict
	UpsertOnDuplicateKey
	UpsertMerge
)

// IgnoreStyle is the syntax family used for the Ignore duplicate-key strategy.
type IgnoreStyle int

const (
	IgnoreNone IgnoreStyle = iota
	IgnoreOnConflict
	IgnoreKeyword
	IgnoreOrIgnore
	IgnoreMerge
)

// PageStyle is the row-window syntax.
type PageStyle int

const (
	PageNone PageStyle = iota
	PageLimitOffset
	PageOffsetFetch
)

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg", "pgx":
		return NewPostgresDialect(), nil
	case "mysql", "mariadb":
		return NewMySQLDialect(), nil
	case "tidb":
		return NewTiDBDialect(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDialect(), nil
	case "oracle", "oci8", "godror":
		return NewOracleDialect(), nil
	case "ansi", "":
		return NewANSIDialect(), nil
	}
	return nil, fmt.Errorf("unknown dialect %q", name)
}

// ForDriver picks a dialect from a database/sql driver name, using sqlx's
// bind-type table to tell the placeholder families apart.
func ForDriver(driverName string) (Dialect, error) {
	switch sqlx.BindType(driverName) {
	case sqlx.DOLLAR:
		return NewPostgresDialect(), nil
	case sqlx.NAMED:
		return NewOracleDialect(), nil
	case sqlx.QUESTION:
		if strings.HasPrefix(driverName, "sqlite") {
			return NewSQLiteDialect(), nil
		}
		return NewMySQLDialect(), nil
	}
	return nil, fmt.Errorf("no dialect for driver %q", driverName)
}
