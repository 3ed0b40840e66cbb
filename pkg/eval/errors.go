package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/l3aro/go-java-flow/pkg/jast"
)

var (
	// ErrUnknownExpression is returned when no evaluator understands an expression.
	ErrUnknownExpression = errors.New("unknown expression kind")
	// ErrUnknownClass is returned for types missing from the class registry.
	ErrUnknownClass = errors.New("unknown class")
	// ErrNoConstructor is returned when no constructor accepts the arguments.
	ErrNoConstructor = errors.New("no matching constructor")
	// ErrNoMethod is returned when no method accepts the arguments.
	ErrNoMethod = errors.New("no matching method")
	// ErrNoField is returned for unknown static or instance fields.
	ErrNoField = errors.New("no such field")
	// ErrNullReceiver is returned when a method is invoked on null.
	ErrNullReceiver = errors.New("method invoked on null")
	// ErrLocalMethod is returned for source methods that cannot be evaluated.
	ErrLocalMethod = errors.New("local method can not be evaluated")
	// ErrArithmetic is returned for integer division by zero.
	ErrArithmetic = errors.New("arithmetic exception")
	// ErrCycle is returned when an expression depends on itself.
	ErrCycle = errors.New("evaluation cycle")
)

// Error codes reported by EvaluationError.
const (
	CodeUnknownExpression = "EVAL_UNKNOWN_EXPRESSION_TYPE"
	CodeUnknownClass      = "EVAL_NO_CLASS"
	CodeNoConstructor     = "EVAL_NO_CONSTRUCTOR"
	CodeNoMethod          = "EVAL_NO_METHOD"
	CodeNoField           = "EVAL_NO_FIELD"
	CodeNullReceiver      = "EVAL_NULL_INVOCATION_EXPRESSION"
	CodeLocalMethod       = "EVAL_LOCAL_METHOD_INVOCATION"
	CodeArithmetic        = "EVAL_ARITHMETIC"
	CodeCycle             = "EVAL_CYCLE"
	CodeInvocation        = "EVAL_INVOCATION"
	CodeFailed            = "EVAL_FAILED"
)

// EvaluationError is a failure tagged with the source and position of the
// expression that could not be evaluated.
type EvaluationError struct {
	Code   string
	Source string
	Pos    jast.Point
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: %s: %v: %s", e.Pos, e.Code, e.Err, e.Source)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// InvocationError is a failure raised by a registered constructor or method.
type InvocationError struct {
	Class  string
	Member string
	Args   []any
	Err    error
}

func (e *InvocationError) Error() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = javaString(a)
	}
	return fmt.Sprintf("%s.%s(%s): %v", e.Class, e.Member, strings.Join(args, ", "), e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// newError wraps err with the position of expr. An EvaluationError raised
// deeper in the expression is returned unchanged.
func newError(expr *jast.Node, err error) error {
	if ee, ok := err.(*EvaluationError); ok {
		return ee
	}
	return &EvaluationError{
		Code:   codeFor(err),
		Source: expr.Text,
		Pos:    expr.Start,
		Err:    err,
	}
}

func codeFor(err error) string {
	var ie *InvocationError
	switch {
	case errors.Is(err, ErrUnknownExpression):
		return CodeUnknownExpression
	case errors.Is(err, ErrUnknownClass):
		return CodeUnknownClass
	case errors.Is(err, ErrNoConstructor):
		return CodeNoConstructor
	case errors.Is(err, ErrNoMethod):
		return CodeNoMethod
	case errors.Is(err, ErrNoField):
		return CodeNoField
	case errors.Is(err, ErrNullReceiver):
		return CodeNullReceiver
	case errors.Is(err, ErrLocalMethod):
		return CodeLocalMethod
	case errors.Is(err, ErrArithmetic):
		return CodeArithmetic
	case errors.Is(err, ErrCycle):
		return CodeCycle
	case errors.As(err, &ie):
		return CodeInvocation
	}
	return CodeFailed
}
