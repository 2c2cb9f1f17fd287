package ast

// Condition is one child of a Group. The connective is ignored for the
// first child.
type Condition struct {
	Connective Connective
	Negated    bool
	Node       Node
}

// Group is an ordered list of conditions. A nested group renders in
// parentheses; the root group of a WHERE clause does not.
type Group struct {
	Conditions []Condition
}

func (g *Group) Type() NodeType         { return NodeGroup }
func (g *Group) Accept(v Visitor) error { return v.VisitGroup(g) }

func (g *Group) Add(c Connective, negated bool, n Node) {
	g.Conditions = append(g.Conditions, Condition{Connective: c, Negated: negated, Node: n})
}

// IsEmpty reports whether the group holds no predicate at any depth.
func (g *Group) IsEmpty() bool {
	if g == nil {
		return true
	}
	for _, c := range g.Conditions {
		if !IsEmptyNode(c.Node) {
			return false
		}
	}
	return true
}

// IsEmptyNode reports whether n renders nothing: an empty group or a blank
// raw fragment.
func IsEmptyNode(n Node) bool {
	switch n := n.(type) {
	case *Group:
		return n.IsEmpty()
	case *Raw:
		return n.IsEmpty()
	}
	return false
}
