package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"kidcode/internal/ast"
	"reflect"
)

// WalkAST recursively traverses an AST and serializes it into a map structure suitable
// for JSON output. Located statements contribute a "line" key to the statement they wrap.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type":       "Program",
			"statements": walkStatements(n.Statements),
		}

	case *ast.LocatedStatement:
		inner := WalkAST(n.Statement)
		if m, ok := inner.(map[string]interface{}); ok {
			m["line"] = n.Line
			return m
		}
		return inner

	case *ast.MoveStatement:
		return map[string]interface{}{
			"type":  "MoveStatement",
			"steps": WalkAST(n.Steps),
		}

	case *ast.TurnStatement:
		return map[string]interface{}{
			"type":      "TurnStatement",
			"direction": n.Direction,
			"degrees":   WalkAST(n.Degrees),
		}

	case *ast.SayStatement:
		return map[string]interface{}{
			"type":    "SayStatement",
			"message": WalkAST(n.Message),
		}

	case *ast.HomeStatement:
		return map[string]interface{}{"type": "HomeStatement"}

	case *ast.SetStatement:
		return map[string]interface{}{
			"type":  "SetStatement",
			"name":  n.Name.Value,
			"value": WalkAST(n.Value),
		}

	case *ast.PenStatement:
		return map[string]interface{}{
			"type":  "PenStatement",
			"state": n.State,
		}

	case *ast.SetColorStatement:
		return map[string]interface{}{
			"type":  "SetColorStatement",
			"color": WalkAST(n.Color),
		}

	case *ast.RepeatStatement:
		return map[string]interface{}{
			"type":  "RepeatStatement",
			"times": WalkAST(n.Times),
			"body":  walkStatements(n.Body),
		}

	case *ast.IfStatement:
		m := map[string]interface{}{
			"type":        "IfStatement",
			"condition":   WalkAST(n.Condition),
			"consequence": walkStatements(n.Consequence),
		}
		if n.Alternative != nil {
			m["alternative"] = walkStatements(n.Alternative)
		}
		return m

	case *ast.DefineStatement:
		params := make([]string, len(n.Parameters))
		for i, p := range n.Parameters {
			params[i] = p.Value
		}
		return map[string]interface{}{
			"type":       "DefineStatement",
			"name":       n.Name.Value,
			"parameters": params,
			"body":       walkStatements(n.Body),
		}

	case *ast.FunctionCallStatement:
		return map[string]interface{}{
			"type":      "FunctionCallStatement",
			"function":  n.Function.Value,
			"arguments": walkExpressions(n.Arguments),
		}

	case *ast.FunctionCallExpression:
		return map[string]interface{}{
			"type":      "FunctionCallExpression",
			"function":  n.Function.Value,
			"arguments": walkExpressions(n.Arguments),
		}

	case *ast.Identifier:
		return map[string]interface{}{
			"type":  "Identifier",
			"value": n.Value,
		}

	case *ast.IntegerLiteral:
		return map[string]interface{}{
			"type":  "IntegerLiteral",
			"value": n.Value,
		}

	case *ast.FloatLiteral:
		return map[string]interface{}{
			"type":  "FloatLiteral",
			"value": n.Value,
		}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"type":  "StringLiteral",
			"value": n.Value,
		}

	case *ast.BooleanLiteral:
		return map[string]interface{}{
			"type":  "BooleanLiteral",
			"value": n.Value,
		}

	case *ast.ListLiteral:
		return map[string]interface{}{
			"type":     "ListLiteral",
			"elements": walkExpressions(n.Elements),
		}

	case *ast.PrefixExpression:
		return map[string]interface{}{
			"type":     "PrefixExpression",
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		}

	case *ast.InfixExpression:
		return map[string]interface{}{
			"type":     "InfixExpression",
			"left":     WalkAST(n.Left),
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		}

	case *ast.IndexExpression:
		return map[string]interface{}{
			"type":  "IndexExpression",
			"left":  WalkAST(n.Left),
			"index": WalkAST(n.Index),
		}

	default:
		return map[string]interface{}{
			"type": fmt.Sprintf("Unknown: %T", n),
		}
	}
}

func walkStatements(statements []ast.Statement) []interface{} {
	result := make([]interface{}, len(statements))
	for i, s := range statements {
		result[i] = WalkAST(s)
	}
	return result
}

func walkExpressions(expressions []ast.Expression) []interface{} {
	result := make([]interface{}, len(expressions))
	for i, e := range expressions {
		result[i] = WalkAST(e)
	}
	return result
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}
