package parser

import (
	"fmt"
	"kidcode/internal/ast"
	"kidcode/internal/token"
	"strconv"
	"strings"
)

const (
	_           int = iota
	LOWEST          //
	EQUALS          // == or !=
	LESSGREATER     // > < >= <=
	SUM             // + -
	PRODUCT         // * /
	PREFIX          // -X
	INDEX           // list[index] or function(X)
)

var precedences = map[token.TokenType]int{
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LTE:      LESSGREATER,
	token.GTE:      LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.STAR:     PRODUCT,
	token.SLASH:    PRODUCT,
	token.LBRACKET: INDEX,
	token.LPAREN:   INDEX,
}

// blockOpeners may follow `end` on the same line to name the block being closed.
var blockOpeners = map[token.TokenType]bool{
	token.REPEAT: true,
	token.IF:     true,
	token.DEFINE: true,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	tokens   []token.Token
	position int
	errors   []string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// Parse turns a token stream into statements. It never panics on bad input: every
// problem is reported in the returned error list and parsing carries on with the
// next statement.
func Parse(tokens []token.Token) ([]ast.Statement, []string) {
	p := New(tokens)
	program := p.ParseProgram()
	return program.Statements, p.Errors()
}

// ParseExpression parses tokens holding exactly one expression, such as a value typed
// into the debugger console.
func ParseExpression(tokens []token.Token) (ast.Expression, []string) {
	p := New(tokens)
	if p.curTokenIs(token.EOF) {
		p.addError("Expected an expression but got 'end of input'")
		return nil, p.Errors()
	}

	expr := p.parseExpression(LOWEST)
	if expr != nil && !p.peekTokenIs(token.EOF) {
		p.addErrorAt(p.peekToken.Line, "Unexpected '%s' after expression", p.peekToken.Literal)
	}
	if len(p.errors) > 0 {
		return nil, p.Errors()
	}
	return expr, nil
}

func New(tokens []token.Token) *Parser {
	p := &Parser{
		tokens:   tokens,
		position: -2,
		errors:   []string{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENTIFIER, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	p.registerInfix(token.PLUS, p.parseInfixExpression)
	p.registerInfix(token.MINUS, p.parseInfixExpression)
	p.registerInfix(token.STAR, p.parseInfixExpression)
	p.registerInfix(token.SLASH, p.parseInfixExpression)
	p.registerInfix(token.EQ, p.parseInfixExpression)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpression)
	p.registerInfix(token.LT, p.parseInfixExpression)
	p.registerInfix(token.GT, p.parseInfixExpression)
	p.registerInfix(token.LTE, p.parseInfixExpression)
	p.registerInfix(token.GTE, p.parseInfixExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.LPAREN, p.parseChainedCall)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) tokenAt(i int) token.Token {
	if i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	line := 1
	if len(p.tokens) > 0 {
		line = p.tokens[len(p.tokens)-1].Line
	}
	return token.Token{Type: token.EOF, Literal: "", Line: line}
}

func (p *Parser) nextToken() {
	p.position++
	p.curToken = p.tokenAt(p.position)
	p.peekToken = p.tokenAt(p.position + 1)
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) addErrorAt(line int, message string, args ...interface{}) {
	m := fmt.Sprintf(message, args...)
	p.errors = append(p.errors, fmt.Sprintf("Error line %d: %s", line, m))
}

func (p *Parser) addError(message string, args ...interface{}) {
	p.addErrorAt(p.curToken.Line, message, args...)
}

func (p *Parser) peekError(expected string) {
	p.addErrorAt(p.peekToken.Line, "Expected %s but got '%s'", expected, describe(p.peekToken))
}

// expectPeek advances when the next token has the wanted type and records an error
// otherwise.
func (p *Parser) expectPeek(t token.TokenType, expected string) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(expected)
	return false
}

func (p *Parser) Errors() []string {
	return p.errors
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return tok.Literal
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program
}

// skipLine drops the rest of the current line after a malformed statement so one
// mistake yields one error.
func (p *Parser) skipLine() {
	for !p.peekTokenIs(token.EOF) && p.peekToken.Line == p.curToken.Line {
		p.nextToken()
	}
}

// parseStatement parses one statement starting at curToken and leaves curToken on the
// statement's last token. Successful statements are wrapped with their source line.
func (p *Parser) parseStatement() ast.Statement {
	line := p.curToken.Line

	var stmt ast.Statement
	switch p.curToken.Type {
	case token.MOVE:
		stmt = p.parseMoveStatement()
	case token.TURN:
		stmt = p.parseTurnStatement()
	case token.SAY:
		stmt = p.parseSayStatement()
	case token.HOME:
		stmt = &ast.HomeStatement{Token: p.curToken}
	case token.SET:
		stmt = p.parseSetStatement()
	case token.PEN:
		stmt = p.parsePenStatement()
	case token.COLOR:
		stmt = p.parseSetColorStatement()
	case token.REPEAT:
		stmt = p.parseRepeatStatement()
	case token.IF:
		stmt = p.parseIfStatement()
	case token.DEFINE:
		stmt = p.parseDefineStatement()
	case token.IDENTIFIER:
		stmt = p.parseFunctionCallStatement()
	default:
		p.addError("Invalid start of a statement: '%s'", p.curToken.Literal)
		return nil
	}

	if stmt == nil {
		p.skipLine()
		return nil
	}
	return &ast.LocatedStatement{Statement: stmt, Line: line}
}

func (p *Parser) parseMoveStatement() ast.Statement {
	stmt := &ast.MoveStatement{Token: p.curToken}

	if !p.expectPeek(token.FORWARD, "'forward' after 'move'") {
		return nil
	}
	p.nextToken()

	stmt.Steps = p.parseExpression(LOWEST)
	if stmt.Steps == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseTurnStatement() ast.Statement {
	stmt := &ast.TurnStatement{Token: p.curToken}

	if !p.peekTokenIs(token.LEFT) && !p.peekTokenIs(token.RIGHT) {
		p.peekError("'left' or 'right' after 'turn'")
		return nil
	}
	p.nextToken()
	stmt.Direction = p.curToken.Literal
	p.nextToken()

	stmt.Degrees = p.parseExpression(LOWEST)
	if stmt.Degrees == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseSayStatement() ast.Statement {
	stmt := &ast.SayStatement{Token: p.curToken}

	p.nextToken()
	stmt.Message = p.parseExpression(LOWEST)
	if stmt.Message == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseSetStatement() ast.Statement {
	stmt := &ast.SetStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENTIFIER, "a variable name after 'set'") {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.peekTokenIs(token.ASSIGN) {
		p.addErrorAt(p.peekToken.Line, "Expected '=' after variable name")
		return nil
	}
	p.nextToken()
	p.nextToken()

	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parsePenStatement() ast.Statement {
	stmt := &ast.PenStatement{Token: p.curToken}

	if !p.peekTokenIs(token.UP) && !p.peekTokenIs(token.DOWN) {
		p.addErrorAt(p.peekToken.Line, "Expected 'up' or 'down' after 'pen'")
		return nil
	}
	p.nextToken()
	stmt.State = p.curToken.Literal
	return stmt
}

func (p *Parser) parseSetColorStatement() ast.Statement {
	stmt := &ast.SetColorStatement{Token: p.curToken}

	p.nextToken()
	stmt.Color = p.parseExpression(LOWEST)
	if stmt.Color == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseRepeatStatement() ast.Statement {
	stmt := &ast.RepeatStatement{Token: p.curToken}

	p.nextToken()
	stmt.Times = p.parseExpression(LOWEST)
	if stmt.Times == nil {
		return nil
	}

	stmt.Body = p.parseBlock()
	if !p.closeBlock(stmt.Token) {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}

	stmt.Consequence = p.parseBlock()
	if p.curTokenIs(token.ELSE) {
		stmt.Alternative = p.parseBlock()
	}

	if !p.closeBlock(stmt.Token) {
		return nil
	}
	return stmt
}

func (p *Parser) parseDefineStatement() ast.Statement {
	stmt := &ast.DefineStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENTIFIER, "a function name after 'define'") {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	stmt.Parameters = []*ast.Identifier{}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		params, ok := p.parseParameterList()
		if !ok {
			return nil
		}
		stmt.Parameters = params
	} else {
		// bare parameter names, only on the header line
		for p.peekTokenIs(token.IDENTIFIER) && p.peekToken.Line == stmt.Token.Line {
			p.nextToken()
			stmt.Parameters = append(stmt.Parameters, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		}
	}

	stmt.Body = p.parseBlock()
	if !p.closeBlock(stmt.Token) {
		return nil
	}
	return stmt
}

// parseParameterList parses `(a, b, c)` with curToken on the opening paren.
func (p *Parser) parseParameterList() ([]*ast.Identifier, bool) {
	params := []*ast.Identifier{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}

	if !p.expectPeek(token.IDENTIFIER, "a parameter name") {
		return nil, false
	}
	params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENTIFIER, "a parameter name") {
			return nil, false
		}
		params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
	}

	if !p.expectPeek(token.RPAREN, "')' after parameters") {
		return nil, false
	}
	return params, true
}

// parseBlock consumes the block header's last token and parses statements until an
// `end`, an `else` or the end of input. curToken is left on the terminator.
func (p *Parser) parseBlock() []ast.Statement {
	block := []ast.Statement{}
	p.nextToken()

	for !p.curTokenIs(token.END) && !p.curTokenIs(token.ELSE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block = append(block, stmt)
		}
		p.nextToken()
	}
	return block
}

// closeBlock checks that curToken is the `end` of the block opened by opener and
// consumes an optional repeat of the opener keyword (`end repeat`).
func (p *Parser) closeBlock(opener token.Token) bool {
	if !p.curTokenIs(token.END) {
		if p.curTokenIs(token.ELSE) {
			p.addError("Unexpected 'else' inside '%s' block opened on line %d", opener.Literal, opener.Line)
		} else {
			p.addError("Expected 'end' to close '%s' block opened on line %d", opener.Literal, opener.Line)
		}
		return false
	}

	if blockOpeners[p.peekToken.Type] && p.peekToken.Line == p.curToken.Line {
		p.nextToken()
		if p.curToken.Type != opener.Type {
			p.addError("'end %s' does not match '%s' opened on line %d", p.curToken.Literal, opener.Literal, opener.Line)
			return false
		}
	}
	return true
}

// isArgument reports whether a token can start a bare call argument.
func isArgument(t token.TokenType) bool {
	switch t {
	case token.NUMBER, token.IDENTIFIER, token.STRING, token.LPAREN, token.LBRACKET:
		return true
	}
	return false
}

func (p *Parser) parseFunctionCallStatement() ast.Statement {
	stmt := &ast.FunctionCallStatement{Token: p.curToken}
	stmt.Function = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	stmt.Arguments = []ast.Expression{}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		args := p.parseExpressionList(token.RPAREN)
		if args == nil {
			return nil
		}
		stmt.Arguments = args
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			p.addError("Chained function calls are not supported.")
			return nil
		}
		return stmt
	}

	// Bare arguments run until a keyword, the end of the line or the end of input.
	for isArgument(p.peekToken.Type) && p.peekToken.Line == stmt.Token.Line {
		p.nextToken()
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		stmt.Arguments = append(stmt.Arguments, arg)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError("Unexpected token '%s' in expression", describe(p.curToken))
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	switch p.curToken.Literal {
	case "true":
		return &ast.BooleanLiteral{Token: p.curToken, Value: true}
	case "false":
		return &ast.BooleanLiteral{Token: p.curToken, Value: false}
	}

	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if p.peekTokenIs(token.LPAREN) {
		return p.parseFunctionCallExpression(ident)
	}
	return ident
}

func (p *Parser) parseFunctionCallExpression(function *ast.Identifier) ast.Expression {
	call := &ast.FunctionCallExpression{Token: p.curToken, Function: function}

	p.nextToken() // curToken is now '('
	args := p.parseExpressionList(token.RPAREN)
	if args == nil {
		return nil
	}
	call.Arguments = args
	return call
}

// parseChainedCall handles a '(' that follows a complete expression, as in `f()()`.
func (p *Parser) parseChainedCall(left ast.Expression) ast.Expression {
	if _, ok := left.(*ast.FunctionCallExpression); ok {
		p.addError("Chained function calls are not supported.")
	} else {
		p.addError("Only named functions can be called, not '%s'", left.String())
	}
	return nil
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	if strings.Contains(p.curToken.Literal, ".") {
		value, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			p.addError("could not parse %q as a number", p.curToken.Literal)
			return nil
		}
		return &ast.FloatLiteral{Token: p.curToken, Value: value}
	}

	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addError("could not parse %q as a whole number", p.curToken.Literal)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()

	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.expectPeek(token.RPAREN, "')'") {
		return nil
	}
	return exp
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken}

	elements := p.parseExpressionList(token.RBRACKET)
	if elements == nil {
		return nil
	}
	list.Elements = elements
	return list
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}

	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		return nil
	}

	if !p.expectPeek(token.RBRACKET, "']'") {
		return nil
	}
	return exp
}

// parseExpressionList parses comma separated expressions with curToken on the opening
// delimiter, leaving curToken on the closing one. A nil result means an error was
// recorded; an empty list is returned as a non-nil empty slice.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	list = append(list, exp)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		exp = p.parseExpression(LOWEST)
		if exp == nil {
			return nil
		}
		list = append(list, exp)
	}

	if !p.expectPeek(end, fmt.Sprintf("'%s'", end)) {
		return nil
	}

	return list
}
