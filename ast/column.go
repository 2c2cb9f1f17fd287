package ast

import "strings"

type Column struct {
	Table string
	Name  string
	Alias string
}

// NewColumn splits "table.name" into its parts.
func NewColumn(name string) *Column {
	if i := strings.LastIndexByte(name, '.'); i > 0 && i < len(name)-1 {
		return &Column{Table: name[:i], Name: name[i+1:]}
	}
	return &Column{Name: name}
}

func (c *Column) Type() NodeType { return NodeColumn }

func (c *Column) Accept(v Visitor) error { return v.VisitColumn(c) }
