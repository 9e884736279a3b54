package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// builtins is the closed set of callable functions with their arities.
// An arity of -1 means variadic with at least two arguments.
var builtins = map[string]int{
	"abs":   1,
	"min":   -1,
	"max":   -1,
	"round": 1,
	"pow":   2,
}

// Parser parses formula text into an expression tree.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given expression text.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Initialize two-token lookahead
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a standalone expression. It fails on empty input, syntax
// errors, unknown function names, and trailing garbage.
func Parse(input string) (Expr, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty expression")
	}

	p := NewParser(input)
	expr := p.parseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}

	// Ensure we consumed all tokens
	if p.token.Type != TOKEN_EOF {
		return nil, fmt.Errorf("unexpected token after expression: %s", p.token.Literal)
	}

	return expr, nil
}

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
}

func (p *Parser) expect(t TokenType) bool {
	if p.token.Type != t {
		p.errorf("expected %s, got %q", t, p.token.Literal)
		return false
	}
	p.nextToken()
	return true
}

// parseExpression parses a full expression. The conditional form
// `a if cond else b` binds loosest and associates to the right, so
// chained conditionals nest in the else branch.
func (p *Parser) parseExpression() Expr {
	then := p.parseComparison()
	if then == nil {
		return nil
	}
	if p.token.Type != TOKEN_IF {
		return then
	}
	p.nextToken()
	cond := p.parseComparison()
	if cond == nil {
		return nil
	}
	if !p.expect(TOKEN_ELSE) {
		return nil
	}
	els := p.parseExpression()
	if els == nil {
		return nil
	}
	return &CondExpr{Cond: cond, Then: then, Else: els}
}

// parseComparison parses a non-associative comparison over additive terms.
func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	switch p.token.Type {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		op := p.token.Type
		p.nextToken()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}
	for p.token.Type == TOKEN_PLUS || p.token.Type == TOKEN_MINUS {
		op := p.token.Type
		p.nextToken()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.token.Type == TOKEN_STAR || p.token.Type == TOKEN_SLASH {
		op := p.token.Type
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.token.Type == TOKEN_MINUS {
		p.nextToken()
		expr := p.parseUnary()
		if expr == nil {
			return nil
		}
		return &UnaryExpr{Op: TOKEN_MINUS, Expr: expr}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		v, err := strconv.ParseFloat(p.token.Literal, 64)
		if err != nil {
			p.errorf("invalid number %q", p.token.Literal)
			return nil
		}
		p.nextToken()
		return &NumberLit{Value: v}

	case TOKEN_IDENT:
		name := p.token.Literal
		p.nextToken()
		if p.token.Type == TOKEN_LPAREN {
			return p.parseCall(name)
		}
		return &Ident{Name: name}

	case TOKEN_LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
		return expr

	case TOKEN_ILLEGAL:
		p.errorf("illegal character %q", p.token.Literal)
		return nil

	default:
		p.errorf("unexpected %s", p.token.Type)
		return nil
	}
}

// parseCall parses the argument list of a built-in function call.
// The current token is the opening parenthesis.
func (p *Parser) parseCall(name string) Expr {
	fn := strings.ToLower(name)
	arity, ok := builtins[fn]
	if !ok {
		p.errorf("unknown function %q", name)
		return nil
	}
	p.nextToken() // consume '('

	var args []Expr
	if p.token.Type != TOKEN_RPAREN {
		for {
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if p.token.Type != TOKEN_COMMA {
				break
			}
			p.nextToken()
		}
	}
	if !p.expect(TOKEN_RPAREN) {
		return nil
	}

	if arity == -1 {
		if len(args) < 2 {
			p.errorf("%s requires at least 2 arguments, got %d", fn, len(args))
			return nil
		}
	} else if len(args) != arity {
		p.errorf("%s requires %d argument(s), got %d", fn, arity, len(args))
		return nil
	}

	return &CallExpr{Func: fn, Args: args}
}
