package ast

// Visitor is implemented by every pass that walks the AST.
type Visitor interface {
	VisitIdentifier(node *Identifier)
	VisitStringLiteral(node *StringLiteral)
	VisitIntegerLiteral(node *IntegerLiteral)
	VisitNullLiteral(node *NullLiteral)
	VisitExprList(node *ExprList)
	VisitAssignment(node *Assignment)
	VisitFunctionCall(node *FunctionCall)
	VisitFunctionObject(node *FunctionObject)
}

// Walk visits node and all of its children depth-first, calling fn before
// descending. Returning false from fn skips the children of that node.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *Identifier:
		if n.Key != nil {
			Walk(n.Key, fn)
		}
	case *ExprList:
		for _, el := range n.Elements {
			Walk(el, fn)
		}
	case *Assignment:
		Walk(n.Target, fn)
		Walk(n.Value, fn)
	case *FunctionCall:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	case *FunctionObject:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	}
}
