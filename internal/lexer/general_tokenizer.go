package lexer

import (
	"kidcode/internal/token"
)

type GeneralTokenizer struct {
	lexer *Lexer
}

func NewGeneralTokenizer(lexer *Lexer) *GeneralTokenizer {
	return &GeneralTokenizer{lexer: lexer}
}

func (g *GeneralTokenizer) NextToken() token.Token {
	var tok token.Token

	g.lexer.skipWhitespace()

	line := g.lexer.line

	if g.lexer.atEOF() {
		return token.Token{Type: token.EOF, Literal: "", Line: line}
	}

	switch g.lexer.ch {
	case '=':
		tok = g.lexer.handleCompoundToken(token.ASSIGN, '=', token.EQ)
	case '!':
		tok = g.lexer.handleCompoundToken(token.ILLEGAL, '=', token.NOT_EQ)
	case '<':
		tok = g.lexer.handleCompoundToken(token.LT, '=', token.LTE)
	case '>':
		tok = g.lexer.handleCompoundToken(token.GT, '=', token.GTE)
	case '+':
		tok = newToken(token.PLUS, g.lexer.ch, line)
	case '-':
		tok = newToken(token.MINUS, g.lexer.ch, line)
	case '*':
		tok = newToken(token.STAR, g.lexer.ch, line)
	case '/':
		tok = newToken(token.SLASH, g.lexer.ch, line)
	case ',':
		tok = newToken(token.COMMA, g.lexer.ch, line)
	case '(':
		tok = newToken(token.LPAREN, g.lexer.ch, line)
	case ')':
		tok = newToken(token.RPAREN, g.lexer.ch, line)
	case '[':
		tok = newToken(token.LBRACKET, g.lexer.ch, line)
	case ']':
		tok = newToken(token.RBRACKET, g.lexer.ch, line)
	case '"':
		g.lexer.readChar() // consume the opening "
		g.lexer.switchMode(NewStringTokenizer(g.lexer, line))
		return g.lexer.currentMode.NextToken()
	default:
		if isLetter(g.lexer.ch) {
			tok.Literal = g.lexer.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Line = line
			return tok
		} else if isDigit(g.lexer.ch) {
			tok.Type = token.NUMBER
			tok.Literal = g.lexer.readNumber()
			tok.Line = line
			return tok
		} else {
			tok = token.Token{Type: token.ILLEGAL, Literal: g.lexer.current(), Line: line}
		}
	}

	g.lexer.readChar()
	return tok
}
