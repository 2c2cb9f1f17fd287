package types

import (
	"strings"
)

// SQLType is the declared SQL type of a bound value: a per-occurrence hint
// the registry dispatches on when the runtime kind alone is not enough.
type SQLType int

const (
	Unknown SQLType = iota
	Null
	Char
	Varchar
	Text
	SmallInt
	Integer
	BigInt
	Decimal
	Real
	Double
	Boolean
	Date
	Time
	Timestamp
	TimestampTZ
	Binary
	Blob
	JSON
	UUID
	Array
	Vector
	Other
)

var sqlTypeNames = [...]string{
	Unknown:     "UNKNOWN",
	Null:        "NULL",
	Char:        "CHAR",
	Varchar:     "VARCHAR",
	Text:        "TEXT",
	SmallInt:    "SMALLINT",
	Integer:     "INTEGER",
	BigInt:      "BIGINT",
	Decimal:     "DECIMAL",
	Real:        "REAL",
	Double:      "DOUBLE",
	Boolean:     "BOOLEAN",
	Date:        "DATE",
	Time:        "TIME",
	Timestamp:   "TIMESTAMP",
	TimestampTZ: "TIMESTAMPTZ",
	Binary:      "BINARY",
	Blob:        "BLOB",
	JSON:        "JSON",
	UUID:        "UUID",
	Array:       "ARRAY",
	Vector:      "VECTOR",
	Other:       "OTHER",
}

func (t SQLType) String() string {
	if t < 0 || int(t) >= len(sqlTypeNames) {
		return "UNKNOWN"
	}
	return sqlTypeNames[t]
}

// sqlTypeAliases maps vendor type names onto the portable SQLType set.
var sqlTypeAliases = map[string]SQLType{
	// Standard
	"NULL":                     Null,
	"CHAR":                     Char,
	"CHARACTER":                Char,
	"NCHAR":                    Char,
	"BPCHAR":                   Char,
	"VARCHAR":                  Varchar,
	"CHARACTER VARYING":        Varchar,
	"NVARCHAR":                 Varchar,
	"LONGVARCHAR":              Text,
	"TEXT":                     Text,
	"CLOB":                     Text,
	"NCLOB":                    Text,
	"SMALLINT":                 SmallInt,
	"TINYINT":                  SmallInt,
	"INT2":                     SmallInt,
	"INT":                      Integer,
	"INTEGER":                  Integer,
	"INT4":                     Integer,
	"MEDIUMINT":                Integer,
	"SERIAL":                   Integer,
	"BIGINT":                   BigInt,
	"INT8":                     BigInt,
	"BIGSERIAL":                BigInt,
	"DECIMAL":                  Decimal,
	"NUMERIC":                  Decimal,
	"MONEY":                    Decimal,
	"REAL":                     Real,
	"FLOAT4":                   Real,
	"FLOAT":                    Double,
	"FLOAT8":                   Double,
	"DOUBLE":                   Double,
	"DOUBLE PRECISION":         Double,
	"BOOLEAN":                  Boolean,
	"BOOL":                     Boolean,
	"BIT":                      Boolean,
	"DATE":                     Date,
	"TIME":                     Time,
	"TIMETZ":                   Time,
	"DATETIME":                 Timestamp,
	"TIMESTAMP":                Timestamp,
	"TIMESTAMPTZ":              TimestampTZ,
	"TIMESTAMP WITH TIME ZONE": TimestampTZ,
	"BINARY":                   Binary,
	"VARBINARY":                Binary,
	"BYTEA":                    Binary,
	"BLOB":                     Blob,
	"LONGBLOB":                 Blob,
	"JSON":                     JSON,
	"JSONB":                    JSON,
	"UUID":                     UUID,
	"UNIQUEIDENTIFIER":         UUID,
	"ARRAY":                    Array,
	"VECTOR":                   Vector,
	"OTHER":                    Other,

	// Oracle
	"VARCHAR2":      Varchar,
	"NVARCHAR2":     Varchar,
	"NUMBER":        Decimal,
	"BINARY_FLOAT":  Real,
	"BINARY_DOUBLE": Double,
	"RAW":           Binary,

	// MySQL
	"LONGTEXT":   Text,
	"MEDIUMTEXT": Text,
	"TINYTEXT":   Text,
}

// ParseSQLType resolves a declared type name such as "varchar(64)", "INT8" or
// "text[]". Length and precision suffixes are ignored.
func ParseSQLType(name string) (SQLType, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return Unknown, false
	}
	if strings.HasSuffix(n, "[]") {
		return Array, true
	}
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	t, ok := sqlTypeAliases[n]
	return t, ok
}
