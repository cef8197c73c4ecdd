package parser

import (
	"kidcode/internal/ast"
	"kidcode/internal/lexer"
	"strings"
	"testing"
)

func parse(t *testing.T, input string) []ast.Statement {
	t.Helper()
	statements, errors := Parse(lexer.Tokenize(input))
	if len(errors) != 0 {
		t.Fatalf("parser has %d errors for %q:\n%s", len(errors), input, strings.Join(errors, "\n"))
	}
	return statements
}

func parseErrors(t *testing.T, input string) []string {
	t.Helper()
	_, errors := Parse(lexer.Tokenize(input))
	if len(errors) == 0 {
		t.Fatalf("expected parser errors for %q, got none", input)
	}
	return errors
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"say 1 + 2 * 3", "say (1 + (2 * 3))"},
		{"say 1 * 2 + 3", "say ((1 * 2) + 3)"},
		{"say (1 + 2) * 3", "say ((1 + 2) * 3)"},
		{"say 10 - 4 - 3", "say ((10 - 4) - 3)"},
		{"say 8 / 4 / 2", "say ((8 / 4) / 2)"},
		{"say -x + 1", "say ((-x) + 1)"},
		{"say -(1 + 2)", "say (-(1 + 2))"},
		{"say a < b == c > d", "say ((a < b) == (c > d))"},
		{"say a + b <= c - d", "say ((a + b) <= (c - d))"},
		{"say 1 != 2 == true", "say ((1 != 2) == true)"},
		{"say xs[1 + 1] * 2", "say ((xs[(1 + 1)]) * 2)"},
		{"say count(xs) + 1", "say (count(xs) + 1)"},
		{"say \"a\" + \"b\"", "say (\"a\" + \"b\")"},
		{"say [1, 2.5, \"x\"]", "say [1, 2.5, \"x\"]"},
		{"say []", "say []"},
	}

	for _, tt := range tests {
		statements := parse(t, tt.input)
		if len(statements) != 1 {
			t.Fatalf("expected 1 statement for %q, got %d", tt.input, len(statements))
		}
		if got := statements[0].String(); got != tt.expected {
			t.Errorf("expected=%q, got=%q", tt.expected, got)
		}
	}
}

func TestLiteralKinds(t *testing.T) {
	statements := parse(t, "set a = 10\nset b = 2.5\nset c = true\nset d = false\nset e = \"hi\"")

	expectKind := func(i int, check func(ast.Expression) bool) {
		t.Helper()
		set, ok := ast.Unwrap(statements[i]).(*ast.SetStatement)
		if !ok {
			t.Fatalf("statement %d is %T, want *ast.SetStatement", i, ast.Unwrap(statements[i]))
		}
		if !check(set.Value) {
			t.Fatalf("statement %d has unexpected value node %T", i, set.Value)
		}
	}

	expectKind(0, func(e ast.Expression) bool { il, ok := e.(*ast.IntegerLiteral); return ok && il.Value == 10 })
	expectKind(1, func(e ast.Expression) bool { fl, ok := e.(*ast.FloatLiteral); return ok && fl.Value == 2.5 })
	expectKind(2, func(e ast.Expression) bool { b, ok := e.(*ast.BooleanLiteral); return ok && b.Value })
	expectKind(3, func(e ast.Expression) bool { b, ok := e.(*ast.BooleanLiteral); return ok && !b.Value })
	expectKind(4, func(e ast.Expression) bool { s, ok := e.(*ast.StringLiteral); return ok && s.Value == "hi" })
}

func TestStatementsCarryTheirLine(t *testing.T) {
	input := `# leading comment
move forward 10

turn right 90
repeat 2
  say "x"
end repeat`

	statements := parse(t, input)
	if len(statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(statements))
	}

	wantLines := []int{2, 4, 5}
	for i, line := range wantLines {
		located, ok := statements[i].(*ast.LocatedStatement)
		if !ok {
			t.Fatalf("statement %d is %T, want *ast.LocatedStatement", i, statements[i])
		}
		if located.Line != line {
			t.Errorf("statement %d: expected line %d, got %d", i, line, located.Line)
		}
	}

	repeat := ast.Unwrap(statements[2]).(*ast.RepeatStatement)
	inner := repeat.Body[0].(*ast.LocatedStatement)
	if inner.Line != 6 {
		t.Errorf("expected nested say on line 6, got %d", inner.Line)
	}
}

func TestNestedBlocks(t *testing.T) {
	input := `repeat 2
  repeat 3
    if x > 1
      move forward 5
    else
      turn left 10
    end if
  end repeat
end repeat`

	statements := parse(t, input)
	if len(statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(statements))
	}

	outer, ok := ast.Unwrap(statements[0]).(*ast.RepeatStatement)
	if !ok || len(outer.Body) != 1 {
		t.Fatalf("unexpected outer repeat: %#v", statements[0])
	}
	inner, ok := ast.Unwrap(outer.Body[0]).(*ast.RepeatStatement)
	if !ok || len(inner.Body) != 1 {
		t.Fatalf("unexpected inner repeat: %#v", outer.Body[0])
	}
	ifStmt, ok := ast.Unwrap(inner.Body[0]).(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected if statement, got %T", ast.Unwrap(inner.Body[0]))
	}
	if len(ifStmt.Consequence) != 1 || len(ifStmt.Alternative) != 1 {
		t.Fatalf("unexpected branches: then=%d else=%d", len(ifStmt.Consequence), len(ifStmt.Alternative))
	}
	if ifStmt.Condition.String() != "(x > 1)" {
		t.Errorf("unexpected condition %q", ifStmt.Condition.String())
	}
}

func TestIfWithoutElseHasNilAlternative(t *testing.T) {
	statements := parse(t, "if 1 == 1\n  say \"yes\"\nend")
	ifStmt := ast.Unwrap(statements[0]).(*ast.IfStatement)
	if ifStmt.Alternative != nil {
		t.Fatalf("expected nil alternative, got %v", ifStmt.Alternative)
	}
}

func TestBareEndClosesAnyBlock(t *testing.T) {
	input := "repeat 4\n  move forward 1\nend\ndefine f\n  home\nend"
	statements := parse(t, input)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(statements))
	}
}

func TestDefineForms(t *testing.T) {
	tests := []struct {
		input  string
		name   string
		params []string
	}{
		{"define square(size)\n  move forward size\nend define", "square", []string{"size"}},
		{"define box(w, h)\n  move forward w\nend", "box", []string{"w", "h"}},
		{"define spin()\n  turn right 10\nend", "spin", []string{}},
		{"define star size points\n  say size\nend define", "star", []string{"size", "points"}},
		{"define hello\n  say \"hi\"\nend", "hello", []string{}},
	}

	for _, tt := range tests {
		statements := parse(t, tt.input)
		def, ok := ast.Unwrap(statements[0]).(*ast.DefineStatement)
		if !ok {
			t.Fatalf("%q: expected define statement, got %T", tt.input, ast.Unwrap(statements[0]))
		}
		if def.Name.Value != tt.name {
			t.Errorf("%q: expected name %q, got %q", tt.input, tt.name, def.Name.Value)
		}
		if len(def.Parameters) != len(tt.params) {
			t.Fatalf("%q: expected %d params, got %d", tt.input, len(tt.params), len(def.Parameters))
		}
		for i, p := range tt.params {
			if def.Parameters[i].Value != p {
				t.Errorf("%q: param %d expected %q, got %q", tt.input, i, p, def.Parameters[i].Value)
			}
		}
		if len(def.Body) != 1 {
			t.Errorf("%q: expected 1 body statement, got %d", tt.input, len(def.Body))
		}
	}
}

func TestFunctionCallStatementForms(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"square(10)", []string{"square(10)"}},
		{"square(10, 20 + 1)", []string{"square(10, (20 + 1))"}},
		{"square()", []string{"square()"}},
		{"square 10", []string{"square(10)"}},
		{"box 10, 20", []string{"box(10, 20)"}},
		{"box 10 20", []string{"box(10, 20)"}},
		{"hello", []string{"hello()"}},
		{"hello\nmove forward 10", []string{"hello()", "move forward 10"}},
		{"square 10\nsquare 20", []string{"square(10)", "square(20)"}},
	}

	for _, tt := range tests {
		statements := parse(t, tt.input)
		if len(statements) != len(tt.expected) {
			t.Fatalf("%q: expected %d statements, got %d", tt.input, len(tt.expected), len(statements))
		}
		for i, want := range tt.expected {
			if got := statements[i].String(); got != want {
				t.Errorf("%q: statement %d expected %q, got %q", tt.input, i, want, got)
			}
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"move 10", "Error line 1: Expected 'forward' after 'move'"},
		{"turn around 90", "Error line 1: Expected 'left' or 'right' after 'turn'"},
		{"set x 10", "Error line 1: Expected '=' after variable name"},
		{"set = 10", "Error line 1: Expected a variable name after 'set'"},
		{"pen sideways", "Error line 1: Expected 'up' or 'down' after 'pen'"},
		{"\n\n10", "Error line 3: Invalid start of a statement: '10'"},
		{"repeat 3\n  move forward 1", "Expected 'end' to close 'repeat' block opened on line 1"},
		{"if x\n  say x\nelse\n  say y", "Expected 'end' to close 'if' block opened on line 1"},
		{"repeat 3\n  say 1\nend if", "'end if' does not match 'repeat' opened on line 1"},
		{"repeat 3\nelse\nend", "Unexpected 'else' inside 'repeat' block"},
		{"say f(1)(2)", "Chained function calls are not supported."},
		{"f(1)(2)", "Chained function calls are not supported."},
		{"say (1 + 2)(3)", "Only named functions can be called"},
		{"say 1 +", "Unexpected token 'end of input' in expression"},
		{"say [1, 2", "Expected ']'"},
		{"say (1 + 2", "Expected ')'"},
		{"say xs[1", "Expected ']'"},
		{"define (x)\nend", "Expected a function name after 'define'"},
	}

	for _, tt := range tests {
		errors := parseErrors(t, tt.input)
		found := false
		for _, msg := range errors {
			if strings.Contains(msg, tt.contains) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%q: expected an error containing %q, got %v", tt.input, tt.contains, errors)
		}
		for _, msg := range errors {
			if !strings.HasPrefix(msg, "Error line ") {
				t.Errorf("%q: error %q lacks a line prefix", tt.input, msg)
			}
		}
	}
}

func TestParsingContinuesAfterAnError(t *testing.T) {
	statements, errors := Parse(lexer.Tokenize("move 10\nsay \"still here\"\nturn left 5"))
	if len(errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", errors)
	}
	if len(statements) != 2 {
		t.Fatalf("expected the two valid statements to survive, got %d", len(statements))
	}
}

func TestEmptyProgram(t *testing.T) {
	for _, input := range []string{"", "   ", "# nothing\n\n"} {
		statements, errors := Parse(lexer.Tokenize(input))
		if len(statements) != 0 || len(errors) != 0 {
			t.Errorf("%q: expected nothing, got statements=%v errors=%v", input, statements, errors)
		}
	}
}

func TestRenderASTAsText(t *testing.T) {
	program := &ast.Program{Statements: parse(t, "repeat 2\n  move forward 1 + 2\nend")}
	text := RenderASTAsText(program, 0)

	for _, want := range []string{"   1| repeat 2", "   2|   move forward (1 + 2)", "end repeat"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected rendering to contain %q, got:\n%s", want, text)
		}
	}
}

func TestRenderASTAsJSON(t *testing.T) {
	program := &ast.Program{Statements: parse(t, "\nset x = [1, 2]")}
	out, err := RenderASTAsJSON(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"type": "SetStatement"`, `"line": 2`, `"type": "ListLiteral"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected JSON to contain %s, got:\n%s", want, out)
		}
	}
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"xs[0]", "(xs[0])"},
		{"count(xs) == 2", "(count(xs) == 2)"},
	}

	for _, tt := range tests {
		expr, errs := ParseExpression(lexer.Tokenize(tt.input))
		if len(errs) != 0 {
			t.Fatalf("ParseExpression(%q) errors: %v", tt.input, errs)
		}
		if expr.String() != tt.expected {
			t.Errorf("ParseExpression(%q) = %s, want %s", tt.input, expr.String(), tt.expected)
		}
	}
}

func TestParseExpressionErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "Error line 1: Expected an expression but got 'end of input'"},
		{"1 2", "Error line 1: Unexpected '2' after expression"},
		{"move", "Error line 1: Unexpected token 'move' in expression"},
	}

	for _, tt := range tests {
		expr, errs := ParseExpression(lexer.Tokenize(tt.input))
		if expr != nil {
			t.Errorf("ParseExpression(%q) should not return an expression, got %s", tt.input, expr.String())
		}
		if len(errs) == 0 || errs[0] != tt.expected {
			t.Errorf("ParseExpression(%q) errors = %v, want %q", tt.input, errs, tt.expected)
		}
	}
}
