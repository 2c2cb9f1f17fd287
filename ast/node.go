// Package ast holds the statement and condition tree produced by the fluent
// builders. Nodes are plain data; rendering lives in package visitor.
package ast

type NodeType int

const (
	NodeSelect NodeType = iota
	NodeInsert
	NodeUpdate
	NodeDelete
	NodeColumn
	NodeTable
	NodeValue
	NodeArray
	NodeRaw
	NodeBinaryExpr
	NodeUnaryExpr
	NodeBetweenExpr
	NodeRangeExpr
	NodeVectorDistance
	NodeGroup
	NodeOrderBy
	NodeLimit
)

type Node interface {
	Type() NodeType
	Accept(v Visitor) error
}
