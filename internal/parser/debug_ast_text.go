package parser

import (
	"fmt"
	"kidcode/internal/ast"
	"reflect"
	"strings"
)

// RenderASTAsText produces an indented outline of the AST with the source line of every
// located statement in the left margin. It is meant for checking how a program was
// grouped into blocks and how operators were bound.
func RenderASTAsText(node ast.Node, indent int) string {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Program:
		return renderBlock(n.Statements, 0)

	case *ast.LocatedStatement:
		return fmt.Sprintf("%4d| %s", n.Line, RenderASTAsText(n.Statement, indent))

	case *ast.MoveStatement:
		return fmt.Sprintf("%smove forward %s", sp, RenderASTAsText(n.Steps, 0))

	case *ast.TurnStatement:
		return fmt.Sprintf("%sturn %s %s", sp, n.Direction, RenderASTAsText(n.Degrees, 0))

	case *ast.SayStatement:
		return fmt.Sprintf("%ssay %s", sp, RenderASTAsText(n.Message, 0))

	case *ast.HomeStatement:
		return sp + "home"

	case *ast.SetStatement:
		return fmt.Sprintf("%sset %s = %s", sp, n.Name.Value, RenderASTAsText(n.Value, 0))

	case *ast.PenStatement:
		return sp + "pen " + n.State

	case *ast.SetColorStatement:
		return fmt.Sprintf("%scolor %s", sp, RenderASTAsText(n.Color, 0))

	case *ast.RepeatStatement:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%srepeat %s\n", sp, RenderASTAsText(n.Times, 0)))
		sb.WriteString(renderBody(n.Body, indent+1))
		sb.WriteString("    | " + sp + "end repeat")
		return sb.String()

	case *ast.IfStatement:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%sif %s\n", sp, RenderASTAsText(n.Condition, 0)))
		sb.WriteString(renderBody(n.Consequence, indent+1))
		if n.Alternative != nil {
			sb.WriteString("    | " + sp + "else\n")
			sb.WriteString(renderBody(n.Alternative, indent+1))
		}
		sb.WriteString("    | " + sp + "end if")
		return sb.String()

	case *ast.DefineStatement:
		params := []string{}
		for _, p := range n.Parameters {
			params = append(params, p.Value)
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%sdefine %s(%s)\n", sp, n.Name.Value, strings.Join(params, ", ")))
		sb.WriteString(renderBody(n.Body, indent+1))
		sb.WriteString("    | " + sp + "end define")
		return sb.String()

	case *ast.FunctionCallStatement:
		return sp + renderCall(n.Function, n.Arguments)

	case *ast.FunctionCallExpression:
		return renderCall(n.Function, n.Arguments)

	case *ast.InfixExpression:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator, RenderASTAsText(n.Right, 0))

	case *ast.PrefixExpression:
		return fmt.Sprintf("(%s%s)", n.Operator, RenderASTAsText(n.Right, 0))

	case *ast.IndexExpression:
		return fmt.Sprintf("%s[%s]", RenderASTAsText(n.Left, 0), RenderASTAsText(n.Index, 0))

	case *ast.Identifier:
		return n.Value
	case *ast.IntegerLiteral:
		return n.String()
	case *ast.FloatLiteral:
		return n.String()
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", n.Value)
	case *ast.BooleanLiteral:
		return fmt.Sprintf("%v", n.Value)

	case *ast.ListLiteral:
		elems := []string{}
		for _, e := range n.Elements {
			elems = append(elems, RenderASTAsText(e, 0))
		}
		return "[" + strings.Join(elems, ", ") + "]"

	default:
		return fmt.Sprintf("<unknown:%T>", n)
	}
}

func renderBlock(statements []ast.Statement, indent int) string {
	lines := make([]string, 0, len(statements))
	for _, s := range statements {
		lines = append(lines, RenderASTAsText(s, indent))
	}
	return strings.Join(lines, "\n")
}

func renderBody(statements []ast.Statement, indent int) string {
	if len(statements) == 0 {
		return ""
	}
	return renderBlock(statements, indent) + "\n"
}

func renderCall(fn *ast.Identifier, args []ast.Expression) string {
	rendered := []string{}
	for _, a := range args {
		rendered = append(rendered, RenderASTAsText(a, 0))
	}
	return fmt.Sprintf("%s(%s)", fn.Value, strings.Join(rendered, ", "))
}
