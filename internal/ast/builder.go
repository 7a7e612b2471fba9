package ast

// Builders for the AST variants. They perform no validation beyond the shape
// of their own arguments and never share the slices they are given.

// NewIdentifier builds a plain identifier.
func NewIdentifier(name string) *Identifier {
	return &Identifier{Value: name}
}

// NewKeyedIdentifier builds a keyed access into name: name[key]
func NewKeyedIdentifier(name string, key Expression) *Identifier {
	return &Identifier{Value: name, Key: key}
}

func NewString(value string) *StringLiteral {
	return &StringLiteral{Value: value}
}

func NewInt(value int64) *IntegerLiteral {
	return &IntegerLiteral{Value: value}
}

func NewNull() *NullLiteral {
	return &NullLiteral{}
}

// NewAssignment builds target = value.
func NewAssignment(target *Identifier, value Expression) *Assignment {
	return &Assignment{Target: target, Value: value}
}

// NewExprList builds {elements...}.
func NewExprList(elements ...Expression) *ExprList {
	return &ExprList{Elements: append([]Expression(nil), elements...)}
}

// NewFunctionCall builds function(args...).
func NewFunctionCall(function string, args ...Expression) *FunctionCall {
	return &FunctionCall{Function: function, Args: append([]Expression(nil), args...)}
}

// NewFunctionObject builds a function value of the given arity whose
// positions listed in bound are pre-bound to the matching entries of args.
// Missing trailing arguments are padded with null so that len(Args) == arity.
func NewFunctionObject(function string, arity int, bound []int, args []Expression) *FunctionObject {
	padded := make([]Expression, arity)
	copy(padded, args)
	for i := range padded {
		if padded[i] == nil {
			padded[i] = NewNull()
		}
	}
	return &FunctionObject{
		Function: function,
		Arity:    arity,
		Bound:    append([]int(nil), bound...),
		Args:     padded,
	}
}
