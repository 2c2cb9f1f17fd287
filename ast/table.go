package ast

import "strings"

type Table struct {
	Schema string
	Name   string
	Alias  string
}

// NewTable splits "schema.name" into its parts.
func NewTable(name, alias string) *Table {
	if i := strings.LastIndexByte(name, '.'); i > 0 && i < len(name)-1 {
		return &Table{Schema: name[:i], Name: name[i+1:], Alias: alias}
	}
	return &Table{Name: name, Alias: alias}
}

func (t *Table) Type() NodeType         { return NodeTable }
func (t *Table) Accept(v Visitor) error { return v.VisitTable(t) }

// Ref is the name other clauses use to qualify this table's columns.
func (t *Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}
