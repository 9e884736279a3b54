// Package formula implements the small arithmetic/conditional expression
// language used for derived report metrics.
//
// The language supports numeric literals, named parameter and constant
// references, binary arithmetic (+ - * /), unary minus, parentheses, a
// closed set of built-in functions (abs, min, max, round, pow),
// comparison operators (>= <= > < == !=), and a conditional of the form
//
//	value_if_true if condition else value_if_false
//
// Expressions are parsed once into an AST and evaluated against a
// binding table per aggregated row. There is no ability to call into the
// host language.
package formula

import "strings"

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_IDENT  // parameter, constant, or function name
	TOKEN_NUMBER // 123, 45.67, 1e10

	TOKEN_PLUS   // +
	TOKEN_MINUS  // -
	TOKEN_STAR   // *
	TOKEN_SLASH  // /
	TOKEN_EQ     // ==
	TOKEN_NE     // !=
	TOKEN_LT     // <
	TOKEN_GT     // >
	TOKEN_LE     // <=
	TOKEN_GE     // >=
	TOKEN_COMMA  // ,
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )

	TOKEN_IF   // if
	TOKEN_ELSE // else
)

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string
}

var keywords = map[string]TokenType{
	"if":   TOKEN_IF,
	"else": TOKEN_ELSE,
}

// lookupIdent returns the keyword token type for ident, or TOKEN_IDENT.
func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// String returns a readable name for the token type, used in error messages.
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "end of expression"
	case TOKEN_ILLEGAL:
		return "illegal character"
	case TOKEN_IDENT:
		return "identifier"
	case TOKEN_NUMBER:
		return "number"
	case TOKEN_PLUS:
		return "'+'"
	case TOKEN_MINUS:
		return "'-'"
	case TOKEN_STAR:
		return "'*'"
	case TOKEN_SLASH:
		return "'/'"
	case TOKEN_EQ:
		return "'=='"
	case TOKEN_NE:
		return "'!='"
	case TOKEN_LT:
		return "'<'"
	case TOKEN_GT:
		return "'>'"
	case TOKEN_LE:
		return "'<='"
	case TOKEN_GE:
		return "'>='"
	case TOKEN_COMMA:
		return "','"
	case TOKEN_LPAREN:
		return "'('"
	case TOKEN_RPAREN:
		return "')'"
	case TOKEN_IF:
		return "'if'"
	case TOKEN_ELSE:
		return "'else'"
	default:
		return "unknown token"
	}
}
