package ast

import "testing"

func TestNewFunctionObjectPadsArgs(t *testing.T) {
	fo := NewFunctionObject("f", 3, []int{0}, []Expression{NewInt(1)})

	if len(fo.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(fo.Args))
	}
	for i := 1; i < 3; i++ {
		if _, ok := fo.Args[i].(*NullLiteral); !ok {
			t.Errorf("args[%d] = %T, want *NullLiteral", i, fo.Args[i])
		}
	}
	if !fo.IsBound(0) || fo.IsBound(1) {
		t.Errorf("bound positions = %v, want [0]", fo.Bound)
	}
}

func TestBuildersDoNotAlias(t *testing.T) {
	args := []Expression{NewInt(1), NewInt(2)}
	call := NewFunctionCall("f", args...)
	list := NewExprList(args...)
	bound := []int{0, 1}
	fo := NewFunctionObject("g", 2, bound, args)

	args[0] = NewNull()
	bound[0] = 9

	if _, ok := call.Args[0].(*IntegerLiteral); !ok {
		t.Error("call shares its argument slice with the caller")
	}
	if _, ok := list.Elements[0].(*IntegerLiteral); !ok {
		t.Error("expr list shares its element slice with the caller")
	}
	if _, ok := fo.Args[0].(*IntegerLiteral); !ok || fo.Bound[0] != 0 {
		t.Error("function object shares slices with the caller")
	}
}

func TestWalk(t *testing.T) {
	stmt := NewAssignment(
		NewIdentifier("x"),
		NewFunctionObject("c", 2, []int{0}, []Expression{
			NewExprList(NewKeyedIdentifier("p", NewString("k")), NewIdentifier("t")),
		}),
	)

	var idents []string
	Walk(stmt, func(n Node) bool {
		if id, ok := n.(*Identifier); ok {
			idents = append(idents, id.Value)
		}
		return true
	})

	want := []string{"x", "p", "t"}
	if len(idents) != len(want) {
		t.Fatalf("got %v, want %v", idents, want)
	}
	for i := range want {
		if idents[i] != want[i] {
			t.Errorf("idents[%d] = %q, want %q", i, idents[i], want[i])
		}
	}
}
