package schema

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/types"
)

// Tag is the parsed form of a `db` struct tag.
//
// Supported syntax:
//
//	`db:"column_name"`                 // column mapping
//	`db:"id;primary"`                  // column plus flags
//	`db:"column:email;type:VARCHAR"`   // explicit keys
//	`db:"id;primary;gen:uuid"`         // generated key
//	`db:"tags;handler:pq_array"`       // named type handler
//	`db:"-"`                           // skipped
type Tag struct {
	Column    string
	Skip      bool
	Primary   bool
	Type      types.SQLType
	TypeName  string
	Handler   string
	Generator string
}

// ParseTag parses the tag value of a field. Fields without a column name
// are named by the naming strategy.
func ParseTag(fieldName, value string, naming NamingStrategy) (Tag, error) {
	if value == "-" {
		return Tag{Skip: true}, nil
	}

	tag := Tag{}
	for i, option := range strings.Split(value, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		if key, val, ok := strings.Cut(option, ":"); ok {
			if err := tag.setKey(strings.TrimSpace(key), strings.TrimSpace(val)); err != nil {
				return Tag{}, fmt.Errorf("field %s: %w", fieldName, err)
			}
			continue
		}
		if tag.setFlag(option) {
			continue
		}
		if i != 0 {
			return Tag{}, fmt.Errorf("field %s: unknown tag option %q", fieldName, option)
		}
		tag.Column = option
	}

	if tag.Column == "" {
		tag.Column = naming.ColumnName(fieldName)
	}
	return tag, nil
}

func (t *Tag) setFlag(flag string) bool {
	switch flag {
	case "primary", "primary_key", "pk":
		t.Primary = true
	case "auto_generate", "auto":
		if t.Generator == "" {
			t.Generator = "uuid"
		}
	case "null", "not null", "not_null", "unique", "index":
		// DDL hints; nothing binds on them
	default:
		return false
	}
	return true
}

func (t *Tag) setKey(key, value string) error {
	switch key {
	case "column", "name":
		t.Column = value
	case "type":
		st, ok := types.ParseSQLType(value)
		if !ok {
			return fmt.Errorf("unknown column type %q", value)
		}
		t.Type = st
		t.TypeName = value
	case "handler":
		t.Handler = value
	case "gen", "generator":
		t.Generator = value
	default:
		return fmt.Errorf("unknown tag key %q", key)
	}
	return nil
}
