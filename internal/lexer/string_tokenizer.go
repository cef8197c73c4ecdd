package lexer

import (
	"kidcode/internal/token"
)

// StringTokenizer reads the body of a "..." literal. Strings have no escapes and may
// not span lines; an unterminated string ends at the line break or end of input.
type StringTokenizer struct {
	lexer *Lexer
	line  int
}

func NewStringTokenizer(lexer *Lexer, line int) *StringTokenizer {
	return &StringTokenizer{lexer: lexer, line: line}
}

func (s *StringTokenizer) NextToken() token.Token {
	// the opening `"` has already been consumed
	start := s.lexer.position
	end := start

	for {
		if s.lexer.atEOF() || s.lexer.ch == '\n' {
			end = s.lexer.position
			break
		}
		if s.lexer.ch == '"' {
			end = s.lexer.position
			s.lexer.readChar() // Consume the closing `"`
			break
		}
		s.lexer.readChar()
	}

	s.lexer.switchMode(NewGeneralTokenizer(s.lexer))

	return token.Token{
		Type:    token.STRING,
		Literal: s.lexer.input[start:end],
		Line:    s.line,
	}
}
