package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === Parse entry point tests ===

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParse_TrailingGarbage(t *testing.T) {
	_, err := Parse("1 + 2 garbage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token")
}

func TestParse_IllegalCharacter(t *testing.T) {
	_, err := Parse("a $ b")
	require.Error(t, err)
}

func TestParse_UnknownFunction(t *testing.T) {
	_, err := Parse("sqrt(x)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestParse_WrongArity(t *testing.T) {
	_, err := Parse("pow(x)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires 2")

	_, err = Parse("min(x)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2")
}

func TestParse_UnbalancedParens(t *testing.T) {
	_, err := Parse("(a + b")
	require.Error(t, err)
}

// === Expression shapes ===

func TestParse_BinaryOperators(t *testing.T) {
	tests := []struct {
		name string
		expr string
		op   TokenType
	}{
		{"add", "1 + 2", TOKEN_PLUS},
		{"sub", "1 - 2", TOKEN_MINUS},
		{"mul", "1 * 2", TOKEN_STAR},
		{"div", "1 / 2", TOKEN_SLASH},
		{"eq", "1 == 2", TOKEN_EQ},
		{"ne", "1 != 2", TOKEN_NE},
		{"lt", "1 < 2", TOKEN_LT},
		{"gt", "1 > 2", TOKEN_GT},
		{"le", "1 <= 2", TOKEN_LE},
		{"ge", "1 >= 2", TOKEN_GE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.expr)
			require.NoError(t, err)
			bin, ok := expr.(*BinaryExpr)
			require.True(t, ok)
			assert.Equal(t, tt.op, bin.Op)
		})
	}
}

func TestParse_Precedence(t *testing.T) {
	// a + b * c parses as a + (b * c)
	expr, err := Parse("a + b * c")
	require.NoError(t, err)
	bin := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_PLUS, bin.Op)
	right := bin.Right.(*BinaryExpr)
	assert.Equal(t, TOKEN_STAR, right.Op)
}

func TestParse_UnaryMinus(t *testing.T) {
	expr, err := Parse("-a * b")
	require.NoError(t, err)
	bin := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_STAR, bin.Op)
	assert.IsType(t, &UnaryExpr{}, bin.Left)
}

func TestParse_Conditional(t *testing.T) {
	expr, err := Parse("a / b * 100 if b > 0 else 0")
	require.NoError(t, err)
	cond, ok := expr.(*CondExpr)
	require.True(t, ok)
	assert.IsType(t, &BinaryExpr{}, cond.Cond)
	assert.IsType(t, &BinaryExpr{}, cond.Then)
	assert.IsType(t, &NumberLit{}, cond.Else)
}

func TestParse_ConditionalMissingElse(t *testing.T) {
	_, err := Parse("a if b > 0")
	require.Error(t, err)
}

func TestParse_NestedCall(t *testing.T) {
	expr, err := Parse("min(efficiency * 1.1, 100)")
	require.NoError(t, err)
	call := expr.(*CallExpr)
	assert.Equal(t, "min", call.Func)
	require.Len(t, call.Args, 2)
}

func TestParse_ScientificNotation(t *testing.T) {
	expr, err := Parse("1.5e3")
	require.NoError(t, err)
	num := expr.(*NumberLit)
	assert.Equal(t, 1500.0, num.Value)
}

// === Names extraction ===

func TestNames(t *testing.T) {
	expr, err := Parse("actual / target * scale + actual")
	require.NoError(t, err)
	assert.Equal(t, []string{"actual", "target", "scale"}, Names(expr))
}

func TestNames_ExcludesFunctions(t *testing.T) {
	expr, err := Parse("min(a, max(b, c))")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, Names(expr))
}
