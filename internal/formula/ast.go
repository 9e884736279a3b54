package formula

// Expr is a node in the parsed expression tree.
type Expr interface {
	exprNode()
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

// Ident is a reference to a named parameter or constant.
type Ident struct {
	Name string
}

// UnaryExpr is a prefix expression (unary minus).
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

// BinaryExpr is an infix arithmetic or comparison expression.
// Comparison operators evaluate to 1 (true) or 0 (false).
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

// CallExpr is a call to one of the built-in functions.
type CallExpr struct {
	Func string
	Args []Expr
}

// CondExpr is the conditional `Then if Cond else Else`.
type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (*NumberLit) exprNode()  {}
func (*Ident) exprNode()      {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode()   {}
func (*CondExpr) exprNode()   {}

// Names returns every parameter/constant name referenced by the expression,
// in first-appearance order without duplicates. Function names are not
// included. Used at config resolution time to verify that every reference
// resolves to a declared binding.
func Names(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Ident:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case *UnaryExpr:
			walk(n.Expr)
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *CallExpr:
			for _, a := range n.Args {
				walk(a)
			}
		case *CondExpr:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		}
	}
	walk(e)
	return out
}
