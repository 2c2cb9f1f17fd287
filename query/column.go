package query

import (
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/ast"
)

// columnNode builds a column from "table.column AS alias" specs.
func columnNode(spec string) *ast.Column {
	table, name, alias := parseColumnString(spec)
	return &ast.Column{Table: table, Name: name, Alias: alias}
}

// parseColumnString efficiently parses "table.column AS alias" formats
// Returns table, name, alias (any can be empty)
func parseColumnString(spec string) (table, name, alias string) {
	spec = strings.TrimSpace(spec)

	// Handle AS clause first
	if asIdx := strings.Index(strings.ToUpper(spec), " AS "); asIdx > 0 {
		alias = strings.TrimSpace(spec[asIdx+4:])
		spec = strings.TrimSpace(spec[:asIdx])
	}

	// Handle table.column
	if dotIdx := strings.LastIndex(spec, "."); dotIdx > 0 && dotIdx < len(spec)-1 {
		table = spec[:dotIdx]
		name = spec[dotIdx+1:]
	} else {
		name = spec
	}

	return
}
