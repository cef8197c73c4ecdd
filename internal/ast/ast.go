package ast

import (
	"bytes"
	"kidcode/internal/token"
	"strconv"
	"strings"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	} else {
		return ""
	}
}

func (p *Program) String() string {
	return writeBlock(p.Statements)
}

func writeBlock(statements []Statement) string {
	lines := make([]string, 0, len(statements))
	for _, s := range statements {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

func writeBody(out *bytes.Buffer, statements []Statement) {
	for _, s := range statements {
		out.WriteString("\n")
		out.WriteString(s.String())
	}
	out.WriteString("\n")
}

func writeArguments(out *bytes.Buffer, args []Expression) {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.String())
	}
	out.WriteString(strings.Join(parts, ", "))
}

// LocatedStatement ties a statement to the source line of its first token. The
// evaluator matches breakpoints against Line.
type LocatedStatement struct {
	Statement Statement
	Line      int
}

func (ls *LocatedStatement) statementNode()       {}
func (ls *LocatedStatement) TokenLiteral() string { return ls.Statement.TokenLiteral() }
func (ls *LocatedStatement) String() string       { return ls.Statement.String() }

// Unwrap returns the innermost statement, stripping any LocatedStatement wrappers.
func Unwrap(stmt Statement) Statement {
	for {
		located, ok := stmt.(*LocatedStatement)
		if !ok {
			return stmt
		}
		stmt = located.Statement
	}
}

type MoveStatement struct {
	Token token.Token // the 'move' token
	Steps Expression
}

func (ms *MoveStatement) statementNode()       {}
func (ms *MoveStatement) TokenLiteral() string { return ms.Token.Literal }
func (ms *MoveStatement) String() string {
	return "move forward " + ms.Steps.String()
}

type TurnStatement struct {
	Token     token.Token // the 'turn' token
	Direction string      // "left" or "right"
	Degrees   Expression
}

func (ts *TurnStatement) statementNode()       {}
func (ts *TurnStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TurnStatement) String() string {
	return "turn " + ts.Direction + " " + ts.Degrees.String()
}

type SayStatement struct {
	Token   token.Token // the 'say' token
	Message Expression
}

func (ss *SayStatement) statementNode()       {}
func (ss *SayStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *SayStatement) String() string {
	return "say " + ss.Message.String()
}

type HomeStatement struct {
	Token token.Token // the 'home' token
}

func (hs *HomeStatement) statementNode()       {}
func (hs *HomeStatement) TokenLiteral() string { return hs.Token.Literal }
func (hs *HomeStatement) String() string       { return "home" }

type SetStatement struct {
	Token token.Token // the 'set' token
	Name  *Identifier
	Value Expression
}

func (ss *SetStatement) statementNode()       {}
func (ss *SetStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *SetStatement) String() string {
	return "set " + ss.Name.String() + " = " + ss.Value.String()
}

type PenStatement struct {
	Token token.Token // the 'pen' token
	State string      // "up" or "down"
}

func (ps *PenStatement) statementNode()       {}
func (ps *PenStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PenStatement) String() string       { return "pen " + ps.State }

type SetColorStatement struct {
	Token token.Token // the 'color' token
	Color Expression
}

func (cs *SetColorStatement) statementNode()       {}
func (cs *SetColorStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *SetColorStatement) String() string {
	return "color " + cs.Color.String()
}

type RepeatStatement struct {
	Token token.Token // the 'repeat' token
	Times Expression
	Body  []Statement
}

func (rs *RepeatStatement) statementNode()       {}
func (rs *RepeatStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *RepeatStatement) String() string {
	var out bytes.Buffer

	out.WriteString("repeat ")
	out.WriteString(rs.Times.String())
	writeBody(&out, rs.Body)
	out.WriteString("end repeat")

	return out.String()
}

type IfStatement struct {
	Token       token.Token // the 'if' token
	Condition   Expression
	Consequence []Statement
	Alternative []Statement // nil when there is no else branch
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer

	out.WriteString("if ")
	out.WriteString(is.Condition.String())
	writeBody(&out, is.Consequence)
	if is.Alternative != nil {
		out.WriteString("else")
		writeBody(&out, is.Alternative)
	}
	out.WriteString("end if")

	return out.String()
}

type DefineStatement struct {
	Token      token.Token // the 'define' token
	Name       *Identifier
	Parameters []*Identifier
	Body       []Statement
}

func (ds *DefineStatement) statementNode()       {}
func (ds *DefineStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DefineStatement) String() string {
	var out bytes.Buffer

	params := make([]string, 0, len(ds.Parameters))
	for _, p := range ds.Parameters {
		params = append(params, p.String())
	}

	out.WriteString("define ")
	out.WriteString(ds.Name.String())
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	writeBody(&out, ds.Body)
	out.WriteString("end define")

	return out.String()
}

type FunctionCallStatement struct {
	Token     token.Token // the function name token
	Function  *Identifier
	Arguments []Expression
}

func (fc *FunctionCallStatement) statementNode()       {}
func (fc *FunctionCallStatement) TokenLiteral() string { return fc.Token.Literal }
func (fc *FunctionCallStatement) String() string {
	var out bytes.Buffer

	out.WriteString(fc.Function.String())
	out.WriteString("(")
	writeArguments(&out, fc.Arguments)
	out.WriteString(")")

	return out.String()
}

// Expressions
type Identifier struct {
	Token token.Token // the token.IDENTIFIER token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return strconv.FormatInt(il.Value, 10) }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return strconv.FormatFloat(fl.Value, 'f', -1, 64) }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) String() string       { return strconv.FormatBool(b.Value) }

type ListLiteral struct {
	Token    token.Token // the '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) String() string {
	var out bytes.Buffer

	out.WriteString("[")
	writeArguments(&out, ll.Elements)
	out.WriteString("]")

	return out.String()
}

type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. -
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(pe.Operator)
	out.WriteString(pe.Right.String())
	out.WriteString(")")

	return out.String()
}

type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")

	return out.String()
}

type IndexExpression struct {
	Token token.Token // The [ token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString("[")
	out.WriteString(ie.Index.String())
	out.WriteString("])")

	return out.String()
}

type FunctionCallExpression struct {
	Token     token.Token // the function name token
	Function  *Identifier
	Arguments []Expression
}

func (fc *FunctionCallExpression) expressionNode()      {}
func (fc *FunctionCallExpression) TokenLiteral() string { return fc.Token.Literal }
func (fc *FunctionCallExpression) String() string {
	var out bytes.Buffer

	out.WriteString(fc.Function.String())
	out.WriteString("(")
	writeArguments(&out, fc.Arguments)
	out.WriteString(")")

	return out.String()
}
