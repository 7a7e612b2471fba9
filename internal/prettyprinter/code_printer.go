package prettyprinter

import (
	"bytes"
	"strconv"

	"github.com/funvibe/funflow/internal/ast"
)

// --- Code Printer (Output looks like source code) ---
//
// Structurally equal nodes always print the same text, so callers compare
// and hash AST through it. The converse does not hold: arguments in unbound
// FunctionObject slots are not printed, and an identifier whose name
// contains brackets prints like a keyed access.

// Placeholder printed for an argument position a FunctionObject leaves free.
const freeSlot = "_"

type CodePrinter struct {
	buf   bytes.Buffer
	color bool
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// SetColor enables ANSI highlighting of identifiers and literals.
func (p *CodePrinter) SetColor(on bool) {
	p.color = on
}

// Print returns the canonical text of a single node.
func Print(node ast.Node) string {
	p := NewCodePrinter()
	p.PrintNode(node)
	return p.String()
}

// PrintProgram returns the statements one per line.
func PrintProgram(stmts []ast.Statement) string {
	p := NewCodePrinter()
	p.PrintStatements(stmts)
	return p.String()
}

func (p *CodePrinter) PrintNode(node ast.Node) {
	if node == nil {
		p.write("<???>")
		return
	}
	node.Accept(p)
}

func (p *CodePrinter) PrintStatements(stmts []ast.Statement) {
	for _, stmt := range stmts {
		p.PrintNode(stmt)
		p.writeln()
	}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
}

func (p *CodePrinter) writeColored(s, code string) {
	if !p.color {
		p.write(s)
		return
	}
	p.write(code)
	p.write(s)
	p.write(colorReset)
}

func (p *CodePrinter) printList(exprs []ast.Expression) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.PrintNode(e)
	}
}

func (p *CodePrinter) VisitIdentifier(n *ast.Identifier) {
	p.writeColored(n.Value, colorIdent)
	if n.Key != nil {
		p.write("[")
		n.Key.Accept(p)
		p.write("]")
	}
}

func (p *CodePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	p.writeColored(strconv.Quote(n.Value), colorLiteral)
}

func (p *CodePrinter) VisitIntegerLiteral(n *ast.IntegerLiteral) {
	p.writeColored(strconv.FormatInt(n.Value, 10), colorLiteral)
}

func (p *CodePrinter) VisitNullLiteral(n *ast.NullLiteral) {
	p.writeColored("null", colorKeyword)
}

func (p *CodePrinter) VisitExprList(n *ast.ExprList) {
	p.write("{")
	p.printList(n.Elements)
	p.write("}")
}

func (p *CodePrinter) VisitAssignment(n *ast.Assignment) {
	if n.Target != nil {
		n.Target.Accept(p)
	} else {
		p.write("<???>")
	}
	p.write(" = ")
	p.PrintNode(n.Value)
	p.write(";")
}

func (p *CodePrinter) VisitFunctionCall(n *ast.FunctionCall) {
	p.write(n.Function)
	p.write("(")
	p.printList(n.Args)
	p.write(")")
}

func (p *CodePrinter) VisitFunctionObject(n *ast.FunctionObject) {
	p.write(n.Function)
	p.write("(")
	for i := 0; i < n.Arity; i++ {
		if i > 0 {
			p.write(", ")
		}
		if !n.IsBound(i) || i >= len(n.Args) {
			p.write(freeSlot)
			continue
		}
		p.PrintNode(n.Args[i])
	}
	p.write(")")
}
