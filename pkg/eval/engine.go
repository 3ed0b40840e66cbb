// Package eval partially evaluates Java expressions into Go values at design
// time. Expressions are offered to a chain of evaluators; the first one that
// does not answer value.Unknown decides the result.
package eval

import (
	"fmt"

	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// Evaluator produces the value of the expressions it understands and
// returns value.Unknown for all others.
type Evaluator interface {
	Evaluate(req *Request) (any, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(req *Request) (any, error)

func (f EvaluatorFunc) Evaluate(req *Request) (any, error) {
	return f(req)
}

// Request is one expression offered to the evaluators.
type Request struct {
	Engine  *Engine
	Context Context
	Expr    *jast.Node
	// Type is the static type of Expr, or nil when unknown.
	Type *jast.TypeBinding
	// TypeName is the qualified name of Type, or "".
	TypeName string
}

// Eval evaluates a sub-expression in the same context.
func (r *Request) Eval(n *jast.Node) (any, error) {
	return r.Engine.Evaluate(r.Context, n)
}

// EvalAll evaluates expressions in order.
func (r *Request) EvalAll(nodes []*jast.Node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := r.Eval(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Identifiers of the built-in evaluators.
const (
	LiteralEvaluatorID    = "eval.literal"
	OperatorEvaluatorID   = "eval.operator"
	VariableEvaluatorID   = "eval.variable"
	FieldEvaluatorID      = "eval.field"
	InvocationEvaluatorID = "eval.invocation"
	AnonymousEvaluatorID  = "eval.anonymous"
)

// DefaultEvaluators returns a registry holding the built-in evaluators.
func DefaultEvaluators() *registry.Registry[Evaluator] {
	r := registry.New[Evaluator]()
	r.MustRegister(LiteralEvaluatorID, EvaluatorFunc(evaluateLiteral))
	r.MustRegister(OperatorEvaluatorID, EvaluatorFunc(evaluateOperator))
	r.MustRegister(VariableEvaluatorID, EvaluatorFunc(evaluateVariable))
	r.MustRegister(FieldEvaluatorID, EvaluatorFunc(evaluateField))
	r.MustRegister(InvocationEvaluatorID, EvaluatorFunc(evaluateInvocation))
	r.MustRegister(AnonymousEvaluatorID, EvaluatorFunc(evaluateAnonymous))
	return r
}

// Engine evaluates expressions. An Engine is not safe for concurrent use.
type Engine struct {
	evaluators *registry.Registry[Evaluator]
	logger     log.Logger

	active map[*jast.Node]bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEvaluators replaces the evaluator registry.
func WithEvaluators(r *registry.Registry[Evaluator]) EngineOption {
	return func(e *Engine) {
		e.evaluators = r
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine with the built-in evaluators.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		evaluators: DefaultEvaluators(),
		logger:     log.Nop(),
		active:     make(map[*jast.Node]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluators returns the engine's evaluator registry.
func (e *Engine) Evaluators() *registry.Registry[Evaluator] {
	return e.evaluators
}

// Evaluate returns the value of expr. On failure the context may substitute
// a value; otherwise the error is an *EvaluationError.
func (e *Engine) Evaluate(ctx Context, expr *jast.Node) (any, error) {
	if expr == nil {
		return nil, fmt.Errorf("eval: nil expression")
	}
	v, err := e.evaluate(ctx, expr)
	if err == nil {
		ctx.EvaluationSuccessful(expr, v)
		return v, nil
	}
	if sub := ctx.EvaluationFailed(expr, err); !value.IsUnknown(sub) {
		e.logger.Debug("evaluation substituted", "expr", expr.Text, "error", err)
		return sub, nil
	}
	return nil, newError(expr, err)
}

func (e *Engine) evaluate(ctx Context, expr *jast.Node) (result any, err error) {
	if e.active[expr] {
		return nil, ErrCycle
	}
	e.active[expr] = true
	defer delete(e.active, expr)
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if v := ctx.EvaluatePure(expr); !value.IsUnknown(v) {
		return v, nil
	}
	switch expr.Kind {
	case jast.KindNull:
		return nil, nil
	case jast.KindParenthesized:
		return e.Evaluate(ctx, expr.FirstCode())
	}

	req := &Request{Engine: e, Context: ctx, Expr: expr}
	if b := jast.ResolveType(expr); b != nil {
		req.Type, req.TypeName = b, b.Qualified
	}
	for _, ev := range ctx.Evaluators() {
		if v, err := ev.Evaluate(req); err != nil || !value.IsUnknown(v) {
			return v, err
		}
	}
	for _, ev := range e.evaluators.All() {
		if v, err := ev.Evaluate(req); err != nil || !value.IsUnknown(v) {
			return v, err
		}
	}
	return nil, ErrUnknownExpression
}
