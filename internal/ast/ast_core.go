// Package ast defines the associative AST emitted when dataflow nodes are
// lowered. Nodes are immutable once built: they are created fresh for every
// lowering call and handed to the code generator as-is.
package ast

// Node is the base interface for all AST nodes.
type Node interface {
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Identifier names a variable. When Key is set the identifier denotes a
// keyed access into the variable, e.g. preview["Curve"].
type Identifier struct {
	Value string
	Key   Expression
}

func (i *Identifier) Accept(v Visitor) { v.VisitIdentifier(i) }
func (i *Identifier) expressionNode()  {}

// IsKeyed reports whether the identifier carries a key sub-expression.
func (i *Identifier) IsKeyed() bool {
	return i != nil && i.Key != nil
}

// StringLiteral represents a string literal.
type StringLiteral struct {
	Value string
}

func (sl *StringLiteral) Accept(v Visitor) { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()  {}

// IntegerLiteral represents an integer literal.
type IntegerLiteral struct {
	Value int64
}

func (il *IntegerLiteral) Accept(v Visitor) { v.VisitIntegerLiteral(il) }
func (il *IntegerLiteral) expressionNode()  {}

// NullLiteral represents null. It also fills argument slots that are not
// bound yet.
type NullLiteral struct{}

func (n *NullLiteral) Accept(v Visitor) { v.VisitNullLiteral(n) }
func (n *NullLiteral) expressionNode()  {}

// ExprList represents an ordered list of expressions: {a, b, c}
type ExprList struct {
	Elements []Expression
}

func (el *ExprList) Accept(v Visitor) { v.VisitExprList(el) }
func (el *ExprList) expressionNode()  {}
