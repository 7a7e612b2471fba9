package ast

// Assignment binds the value of an expression to an identifier.
// target = value;
type Assignment struct {
	Target *Identifier
	Value  Expression
}

func (a *Assignment) Accept(v Visitor) { v.VisitAssignment(a) }
func (a *Assignment) statementNode()   {}

// FunctionCall represents a direct call: Function(Args...)
// Function may be qualified (Point.ByCoordinates).
type FunctionCall struct {
	Function string
	Args     []Expression
}

func (fc *FunctionCall) Accept(v Visitor) { v.VisitFunctionCall(fc) }
func (fc *FunctionCall) expressionNode()  {}

// FunctionObject is a function value with some argument positions already
// bound. Args always has Arity entries; positions not listed in Bound hold a
// placeholder and are supplied when the object is finally applied.
type FunctionObject struct {
	Function string
	Arity    int
	Bound    []int
	Args     []Expression
}

func (fo *FunctionObject) Accept(v Visitor) { v.VisitFunctionObject(fo) }
func (fo *FunctionObject) expressionNode()  {}

// IsBound reports whether argument position i is pre-bound.
func (fo *FunctionObject) IsBound(i int) bool {
	for _, b := range fo.Bound {
		if b == i {
			return true
		}
	}
	return false
}
