package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENTIFIER = "IDENTIFIER" // square, x, my_list
	NUMBER     = "NUMBER"     // 10, 2.5
	STRING     = "STRING"     // "hello"

	// Operators
	ASSIGN = "="
	PLUS   = "+"
	MINUS  = "-"
	STAR   = "*"
	SLASH  = "/"

	EQ     = "=="
	NOT_EQ = "!="
	LT     = "<"
	GT     = ">"
	LTE    = "<="
	GTE    = ">="

	// Delimiters
	COMMA    = ","
	LPAREN   = "("
	RPAREN   = ")"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	MOVE    = "MOVE"
	FORWARD = "FORWARD"
	TURN    = "TURN"
	LEFT    = "LEFT"
	RIGHT   = "RIGHT"
	SAY     = "SAY"
	HOME    = "HOME"
	REPEAT  = "REPEAT"
	END     = "END"
	SET     = "SET"
	IF      = "IF"
	ELSE    = "ELSE"
	PEN     = "PEN"
	UP      = "UP"
	DOWN    = "DOWN"
	COLOR   = "COLOR"
	DEFINE  = "DEFINE"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based source line the token starts on
}

var keywords = map[string]TokenType{
	// turtle commands
	"move":    MOVE,
	"forward": FORWARD,
	"turn":    TURN,
	"left":    LEFT,
	"right":   RIGHT,
	"say":     SAY,
	"home":    HOME,
	"pen":     PEN,
	"up":      UP,
	"down":    DOWN,
	"color":   COLOR,

	// flow control
	"repeat": REPEAT,
	"end":    END,
	"if":     IF,
	"else":   ELSE,

	// declarations
	"set":    SET,
	"define": DEFINE,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENTIFIER
}
