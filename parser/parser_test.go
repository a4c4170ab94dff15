package parser

import (
	"strings"
	"testing"

	"github.com/example/jsbind/ast"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(input)
	prog, errs := p.ParseProgram()
	if len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("parser error: %s", e)
		}
		t.FailNow()
	}
	return prog
}

func parseExpr(t *testing.T, input string) ast.Expression {
	t.Helper()
	prog := parse(t, input)
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	stmt, ok := prog.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected ExpressionStatement, got %T", prog.Statements[0])
	}
	return stmt.Expression
}

// path renders a chain of identifiers and dot accesses as a.b.c.
func path(t *testing.T, expr ast.Expression) string {
	t.Helper()
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Value
	case *ast.MemberExpression:
		if e.Computed {
			t.Fatalf("expected dot access, got computed member")
		}
		prop, ok := e.Property.(*ast.Identifier)
		if !ok {
			t.Fatalf("expected Identifier property, got %T", e.Property)
		}
		return path(t, e.Object) + "." + prop.Value
	}
	t.Fatalf("expected identifier chain, got %T", expr)
	return ""
}

func TestImportClassDeclaration(t *testing.T) {
	prog := parse(t, `var Point = host.importClass("Point");`)
	decl, ok := prog.Statements[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected VariableDeclaration, got %T", prog.Statements[0])
	}
	call, ok := decl.Declarations[0].Value.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", decl.Declarations[0].Value)
	}
	if got := path(t, call.Callee); got != "host.importClass" {
		t.Errorf("expected host.importClass, got %s", got)
	}
	if len(call.Arguments) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(call.Arguments))
	}
	lit, ok := call.Arguments[0].(*ast.StringLiteral)
	if !ok || lit.Value != "Point" {
		t.Errorf("expected \"Point\", got %#v", call.Arguments[0])
	}
}

func TestSignatureCallChain(t *testing.T) {
	expr := parseExpr(t, `p.translate.signature(host.types.int, host.types.int)(2, 2);`)
	outer, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", expr)
	}
	if len(outer.Arguments) != 2 {
		t.Errorf("expected 2 args, got %d", len(outer.Arguments))
	}
	inner, ok := outer.Callee.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected the callee to be a call, got %T", outer.Callee)
	}
	if got := path(t, inner.Callee); got != "p.translate.signature" {
		t.Errorf("expected p.translate.signature, got %s", got)
	}
	var types []string
	for _, a := range inner.Arguments {
		types = append(types, path(t, a))
	}
	if got := strings.Join(types, ","); got != "host.types.int,host.types.int" {
		t.Errorf("unexpected signature types %s", got)
	}
}

func TestNewWithMemberCallee(t *testing.T) {
	expr := parseExpr(t, `new host.classes.Point(1, 2);`)
	ne, ok := expr.(*ast.NewExpression)
	if !ok {
		t.Fatalf("expected NewExpression, got %T", expr)
	}
	if got := path(t, ne.Callee); got != "host.classes.Point" {
		t.Errorf("expected host.classes.Point, got %s", got)
	}
	if len(ne.Arguments) != 2 {
		t.Errorf("expected 2 args, got %d", len(ne.Arguments))
	}
}

func TestMethodCallOnNew(t *testing.T) {
	expr := parseExpr(t, `new Point(1, 2).sum();`)
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", expr)
	}
	mem, ok := call.Callee.(*ast.MemberExpression)
	if !ok {
		t.Fatalf("expected MemberExpression, got %T", call.Callee)
	}
	if _, ok := mem.Object.(*ast.NewExpression); !ok {
		t.Errorf("expected the receiver to be a NewExpression, got %T", mem.Object)
	}
}

func TestMemberAssignment(t *testing.T) {
	tests := []struct {
		input    string
		path     string
		computed bool
	}{
		{`p.x = 5;`, "p.x", false},
		{`Point.created = 12;`, "Point.created", false},
		{`p["y"] = 1;`, "", true},
	}
	for _, tt := range tests {
		expr := parseExpr(t, tt.input)
		assign, ok := expr.(*ast.AssignmentExpression)
		if !ok {
			t.Fatalf("%s: expected AssignmentExpression, got %T", tt.input, expr)
		}
		if assign.Operator != "=" {
			t.Errorf("%s: expected =, got %s", tt.input, assign.Operator)
		}
		mem, ok := assign.Left.(*ast.MemberExpression)
		if !ok {
			t.Fatalf("%s: expected MemberExpression, got %T", tt.input, assign.Left)
		}
		if mem.Computed != tt.computed {
			t.Errorf("%s: computed=%v", tt.input, mem.Computed)
		}
		if !tt.computed {
			if got := path(t, mem); got != tt.path {
				t.Errorf("%s: expected %s, got %s", tt.input, tt.path, got)
			}
		}
	}
}

func TestTryCatchAroundHostCall(t *testing.T) {
	prog := parse(t, `try { p.sum = 5; } catch (e) { r = e.name; } finally { done(); }`)
	stmt, ok := prog.Statements[0].(*ast.TryStatement)
	if !ok {
		t.Fatalf("expected TryStatement, got %T", prog.Statements[0])
	}
	if stmt.Handler == nil || stmt.Finalizer == nil {
		t.Fatal("expected handler and finalizer")
	}
	param, ok := stmt.Handler.Param.(*ast.Identifier)
	if !ok || param.Value != "e" {
		t.Errorf("expected catch param e, got %#v", stmt.Handler.Param)
	}
	if len(stmt.Block.Statements) != 1 {
		t.Errorf("expected 1 statement in try block, got %d", len(stmt.Block.Statements))
	}
}

func TestOptionalCatchBinding(t *testing.T) {
	prog := parse(t, `try { a(); } catch { b(); }`)
	stmt := prog.Statements[0].(*ast.TryStatement)
	if stmt.Handler.Param != nil {
		t.Error("expected no catch param")
	}
}

func TestThrowStatement(t *testing.T) {
	prog := parse(t, `throw new TypeError("bad input");`)
	stmt, ok := prog.Statements[0].(*ast.ThrowStatement)
	if !ok {
		t.Fatalf("expected ThrowStatement, got %T", prog.Statements[0])
	}
	ne, ok := stmt.Argument.(*ast.NewExpression)
	if !ok {
		t.Fatalf("expected NewExpression, got %T", stmt.Argument)
	}
	if got := path(t, ne.Callee); got != "TypeError" {
		t.Errorf("expected TypeError, got %s", got)
	}
}

func TestCallbackArgument(t *testing.T) {
	expr := parseExpr(t, `bus.on(function(n) { return n * 2; });`)
	call := expr.(*ast.CallExpression)
	if got := path(t, call.Callee); got != "bus.on" {
		t.Errorf("expected bus.on, got %s", got)
	}
	fn, ok := call.Arguments[0].(*ast.FunctionExpression)
	if !ok {
		t.Fatalf("expected FunctionExpression, got %T", call.Arguments[0])
	}
	if len(fn.Params) != 1 {
		t.Errorf("expected 1 param, got %d", len(fn.Params))
	}
}

func TestSyntaxErrorsAreReported(t *testing.T) {
	_, errs := New(`host.importClass(;`).ParseProgram()
	if len(errs) == 0 {
		t.Fatal("expected parser errors")
	}
}
