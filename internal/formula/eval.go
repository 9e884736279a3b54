package formula

import (
	"fmt"
	"math"
)

// EvalError reports a failure while evaluating an expression against a
// binding table. Division by zero is never coerced to zero or infinity;
// it is reported here and the caller decides the recovery policy.
type EvalError struct {
	Reason string
	Name   string // offending binding or operand source, when known
}

func (e *EvalError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Name)
	}
	return e.Reason
}

// Eval evaluates the expression against the given bindings. It is pure:
// identical inputs always produce identical output, and there are no
// side effects on env.
func Eval(e Expr, env map[string]float64) (float64, error) {
	switch n := e.(type) {
	case *NumberLit:
		return n.Value, nil

	case *Ident:
		v, ok := env[n.Name]
		if !ok {
			return 0, &EvalError{Reason: "unbound reference", Name: n.Name}
		}
		return v, nil

	case *UnaryExpr:
		v, err := Eval(n.Expr, env)
		if err != nil {
			return 0, err
		}
		return -v, nil

	case *BinaryExpr:
		left, err := Eval(n.Left, env)
		if err != nil {
			return 0, err
		}
		right, err := Eval(n.Right, env)
		if err != nil {
			return 0, err
		}
		return evalBinary(n, left, right)

	case *CallExpr:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := Eval(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return evalCall(n.Func, args)

	case *CondExpr:
		cond, err := Eval(n.Cond, env)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return Eval(n.Then, env)
		}
		return Eval(n.Else, env)

	default:
		return 0, &EvalError{Reason: fmt.Sprintf("unsupported expression node %T", e)}
	}
}

func evalBinary(n *BinaryExpr, left, right float64) (float64, error) {
	switch n.Op {
	case TOKEN_PLUS:
		return left + right, nil
	case TOKEN_MINUS:
		return left - right, nil
	case TOKEN_STAR:
		return left * right, nil
	case TOKEN_SLASH:
		if right == 0 {
			return 0, &EvalError{Reason: "division by zero", Name: operandSource(n.Right)}
		}
		return left / right, nil
	case TOKEN_EQ:
		return boolToFloat(left == right), nil
	case TOKEN_NE:
		return boolToFloat(left != right), nil
	case TOKEN_LT:
		return boolToFloat(left < right), nil
	case TOKEN_GT:
		return boolToFloat(left > right), nil
	case TOKEN_LE:
		return boolToFloat(left <= right), nil
	case TOKEN_GE:
		return boolToFloat(left >= right), nil
	default:
		return 0, &EvalError{Reason: fmt.Sprintf("unsupported operator %s", n.Op)}
	}
}

func evalCall(fn string, args []float64) (float64, error) {
	switch fn {
	case "abs":
		return math.Abs(args[0]), nil
	case "min":
		v := args[0]
		for _, a := range args[1:] {
			v = math.Min(v, a)
		}
		return v, nil
	case "max":
		v := args[0]
		for _, a := range args[1:] {
			v = math.Max(v, a)
		}
		return v, nil
	case "round":
		return math.RoundToEven(args[0]), nil
	case "pow":
		return math.Pow(args[0], args[1]), nil
	default:
		return 0, &EvalError{Reason: fmt.Sprintf("unknown function %q", fn)}
	}
}

// operandSource names the zero-valued divisor for error reporting.
func operandSource(e Expr) string {
	if id, ok := e.(*Ident); ok {
		return id.Name
	}
	return ""
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
