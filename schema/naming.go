package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var pluralizeClient = pluralizer.NewClient()

// NamingStrategy converts Go identifiers into column and table names.
type NamingStrategy interface {
	ColumnName(fieldName string) string
	TableName(structName string) string
}

// SnakeCase maps FieldName to field_name and StructName to struct_names
// (or struct_name when Singular is set).
type SnakeCase struct {
	Singular bool
}

func (SnakeCase) ColumnName(fieldName string) string { return toSnakeCase(fieldName) }

func (s SnakeCase) TableName(structName string) string {
	name := toSnakeCase(structName)
	if s.Singular {
		return name
	}
	return pluralize(name)
}

// PascalCase keeps Go casing, e.g. CreatedAt and Users.
type PascalCase struct {
	Singular bool
}

func (PascalCase) ColumnName(fieldName string) string { return toPascalCase(fieldName) }

func (p PascalCase) TableName(structName string) string {
	name := toSnakeCase(structName)
	if !p.Singular {
		name = pluralize(name)
	}
	return toPascalCase(name)
}

// DefaultNamingStrategy is snake_case columns with plural snake_case tables.
func DefaultNamingStrategy() NamingStrategy { return SnakeCase{} }

var acronyms = map[string]string{
	"ID":     "id",
	"UUID":   "uuid",
	"ULID":   "ulid",
	"URL":    "url",
	"HTTP":   "http",
	"API":    "api",
	"JSON":   "json",
	"SQL":    "sql",
	"OAuth":  "o_auth",
	"OAuth2": "o_auth2",
}

func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	if s, ok := acronyms[name]; ok {
		return s
	}
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	runes := []rune(name)
	var sb strings.Builder
	sb.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

func toPascalCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")
	// Casers carry state and are not shared between goroutines.
	title := cases.Title(language.Und, cases.NoLower)
	var sb strings.Builder
	sb.Grow(len(name))
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteString(title.String(part))
	}
	return sb.String()
}

func pluralize(name string) string {
	if name == "" {
		return ""
	}
	// Only the last word of a compound name is pluralized.
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		return name[:i+1] + pluralizeClient.Plural(name[i+1:])
	}
	return pluralizeClient.Plural(name)
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
