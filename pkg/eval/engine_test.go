package eval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

func parseExpr(t *testing.T, src string) *jast.Node {
	t.Helper()
	expr, err := jast.ParseExpression(context.Background(), src)
	require.NoError(t, err)
	return expr
}

func evalString(t *testing.T, src string) (any, error) {
	t.Helper()
	return NewEngine().Evaluate(NewContext(nil), parseExpr(t, src))
}

func TestEvaluateCreationOfBoxedInteger(t *testing.T) {
	v, err := evalString(t, "new Integer(5)")
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)
}

func TestEvaluateLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"42", int32(42)},
		{"1_000", int32(1000)},
		{"0x1F", int32(31)},
		{"0b101", int32(5)},
		{"017", int32(15)},
		{"0xFFFFFFFF", int32(-1)},
		{"42L", int64(42)},
		{"1.5", 1.5},
		{"2.5f", float32(2.5)},
		{"3d", 3.0},
		{"true", true},
		{"false", false},
		{"'x'", uint16('x')},
		{`'\n'`, uint16('\n')},
		{`"hello"`, "hello"},
		{`"tab\there"`, "tab\there"},
		{"null", nil},
		{"((7))", int32(7)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := evalString(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestEvaluateOperators(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"1 + 2 * 3", int32(7)},
		{"7 / 2", int32(3)},
		{"-7 / 2", int32(-3)},
		{"7 % 3", int32(1)},
		{"7.0 / 2", 3.5},
		{"1.0f + 1", float32(2)},
		{"5L * 2", int64(10)},
		{"0x7fffffff + 1", int32(math.MinInt32)},
		{"-2147483648", int32(math.MinInt32)},
		{"1L << 40", int64(1 << 40)},
		{"1 << 33", int32(2)},
		{"-8 >> 1", int32(-4)},
		{"-1 >>> 28", int32(15)},
		{"3 & 5 | 8", int32(9)},
		{"~5", int32(-6)},
		{"'a' + 1", int32(98)},
		{`"a" + 1 + 2`, "a12"},
		{`1 + 2 + "a"`, "3a"},
		{`"x" + 1.0`, "x1.0"},
		{`"c" + 'd' + null + true`, "cdnulltrue"},
		{"5 == 5L", true},
		{"2 != 2.0", false},
		{"1 < 2 && 3 >= 3", true},
		{"true ^ true", false},
		{"!false | false", true},
		{`1 < 2 ? "yes" : "no"`, "yes"},
		{"(byte) 300", int8(44)},
		{"(int) 3.9", int32(3)},
		{"(char) 65", uint16('A')},
		{"(long) -1.5", int64(-1)},
		{"(double) 1", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := evalString(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	v, err := evalString(t, "false && undefined.call()")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = evalString(t, "true || undefined.call()")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestDivisionByZero(t *testing.T) {
	_, err := evalString(t, "1 / 0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArithmetic)

	var ee *EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, CodeArithmetic, ee.Code)

	v, err := evalString(t, "1.0 / 0")
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.(float64), 1))
}

func TestStaticMembers(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"Integer.MAX_VALUE", int32(math.MaxInt32)},
		{"java.lang.Integer.MIN_VALUE", int32(math.MinInt32)},
		{"Math.PI", math.Pi},
		{"Math.max(3, 9)", int32(9)},
		{"Math.max(1, 2L)", int64(2)},
		{"Math.abs(-4)", int32(4)},
		{`Integer.parseInt("12") + 1`, int32(13)},
		{`String.valueOf(12)`, "12"},
		{"Integer.valueOf(7).longValue()", int64(7)},
		{"java.beans.Beans.isDesignTime()", true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := evalString(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestInstanceMethods(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{`"hello".length()`, int32(5)},
		{`"hello".substring(1, 3)`, "el"},
		{`"Hello".toUpperCase()`, "HELLO"},
		{`new StringBuilder("a").append(1).append('b').toString()`, "a1b"},
		{"new java.awt.Dimension(10, 20).width", int32(10)},
		{"new java.awt.Dimension(10, 20).getHeight()", 20.0},
		{"new java.awt.Point(1, 2).y", int32(2)},
		{"new java.util.ArrayList().isEmpty()", true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := evalString(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestEvaluationErrors(t *testing.T) {
	tests := []struct {
		src  string
		code string
		err  error
	}{
		{"x -> x", CodeUnknownExpression, ErrUnknownExpression},
		{"new com.example.Missing()", CodeUnknownClass, ErrUnknownClass},
		{`new Integer(true)`, CodeNoConstructor, ErrNoConstructor},
		{`"a".frobnicate()`, CodeNoMethod, ErrNoMethod},
		{"Integer.NOPE", CodeNoField, ErrNoField},
		{`Integer.parseInt("x")`, CodeInvocation, nil},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := evalString(t, tt.src)
			require.Error(t, err)
			var ee *EvaluationError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.code, ee.Code)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestEvaluationErrorLocatesInnermostExpression(t *testing.T) {
	u, err := jast.Parse(context.Background(), "Test.java", []byte(`class Test {
	Object o = Math.max(1,
		x -> x);
}`))
	require.NoError(t, err)
	call := u.Root.Find(jast.KindMethodInvocation, "")
	require.NotNil(t, call)

	_, err = NewEngine().Evaluate(NewContext(nil), call)
	var ee *EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "x -> x", ee.Source)
	assert.Equal(t, 3, ee.Pos.Line)
	assert.Equal(t, 3, ee.Pos.Column)
	assert.Contains(t, ee.Error(), CodeUnknownExpression)
}

func TestNullReceiver(t *testing.T) {
	_, err := evalString(t, "((String) null).length()")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNullReceiver)
}

type substitutingContext struct {
	*BaseContext
	failures []string
}

func (c *substitutingContext) EvaluationFailed(expr *jast.Node, err error) any {
	c.failures = append(c.failures, expr.Text)
	if errors.Is(err, ErrUnknownExpression) {
		return "substitute"
	}
	return value.Unknown
}

func TestEvaluationFailedMaySubstitute(t *testing.T) {
	ctx := &substitutingContext{BaseContext: NewContext(nil)}
	v, err := NewEngine().Evaluate(ctx, parseExpr(t, `"a" + (x -> x)`))
	require.NoError(t, err)
	assert.Equal(t, "asubstitute", v)
	assert.Equal(t, []string{"x -> x"}, ctx.failures)

	_, err = NewEngine().Evaluate(ctx, parseExpr(t, "1 / 0"))
	assert.ErrorIs(t, err, ErrArithmetic)
}

func TestTemporaryEvaluators(t *testing.T) {
	ctx := NewContext(nil)
	engine := NewEngine()
	expr := parseExpr(t, "width")

	_, err := engine.Evaluate(ctx, expr)
	require.Error(t, err)

	remove := ctx.AddEvaluator(EvaluatorFunc(func(req *Request) (any, error) {
		if req.Expr.Kind == jast.KindIdentifier && req.Expr.Text == "width" {
			return int32(100), nil
		}
		return value.Unknown, nil
	}))
	inner := ctx.AddEvaluator(EvaluatorFunc(func(req *Request) (any, error) {
		if req.Expr.Text == "width" {
			return int32(200), nil
		}
		return value.Unknown, nil
	}))

	v, err := engine.Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.Equal(t, int32(200), v, "newest evaluator wins")

	inner()
	v, err = engine.Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.Equal(t, int32(100), v)

	remove()
	assert.Empty(t, ctx.Evaluators())
	_, err = engine.Evaluate(ctx, expr)
	assert.ErrorIs(t, err, ErrUnknownExpression)
}

func TestCustomRegistryEvaluator(t *testing.T) {
	r := DefaultEvaluators()
	require.NoError(t, r.RegisterWithPriority("test.lambda", 100, EvaluatorFunc(func(req *Request) (any, error) {
		if req.Expr.Kind == jast.KindLambda {
			return "lambda", nil
		}
		return value.Unknown, nil
	})))
	engine := NewEngine(WithEvaluators(r))
	v, err := engine.Evaluate(NewContext(nil), parseExpr(t, "x -> x"))
	require.NoError(t, err)
	assert.Equal(t, "lambda", v)
}

func TestEvaluatorPanicsBecomeErrors(t *testing.T) {
	ctx := NewContext(nil)
	ctx.AddEvaluator(EvaluatorFunc(func(*Request) (any, error) {
		panic("boom")
	}))
	_, err := NewEngine().Evaluate(ctx, parseExpr(t, "1"))
	require.Error(t, err)
	var ee *EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, CodeFailed, ee.Code)
	assert.Contains(t, err.Error(), "boom")
}

func TestCycleGuard(t *testing.T) {
	ctx := NewContext(nil)
	engine := NewEngine()
	expr := parseExpr(t, "loop")
	ctx.AddEvaluator(EvaluatorFunc(func(req *Request) (any, error) {
		if req.Expr == expr {
			return req.Eval(expr)
		}
		return value.Unknown, nil
	}))
	_, err := engine.Evaluate(ctx, expr)
	assert.ErrorIs(t, err, ErrCycle)
}
