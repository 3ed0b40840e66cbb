package eval

import (
	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/track"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// Context supplies the environment of an evaluation and is notified of its
// outcome. Embed *BaseContext to override only some hooks.
type Context interface {
	// EvaluatePure answers trivial expressions without any setup, or returns
	// value.Unknown.
	EvaluatePure(expr *jast.Node) any
	// Evaluators are consulted before the engine's own evaluators.
	Evaluators() []Evaluator
	// EvaluationSuccessful is called with every evaluated value.
	EvaluationSuccessful(expr *jast.Node, v any)
	// EvaluationFailed may substitute a value for a failed evaluation. It
	// returns value.Unknown to let the failure propagate.
	EvaluationFailed(expr *jast.Node, err error) any
	// Interceptor returns the call handler for an anonymous class creation, or nil.
	Interceptor(creation *jast.Node) Interceptor

	Classes() *ClassRegistry
	Variables() *track.Variables
	Values() *track.Values
	// This is the object standing for "this", or nil.
	This() any
}

// BaseContext is the default Context. Evaluated objects are cached on the
// values of the value tracker, so an expression assigned to several
// variables evaluates to one object.
type BaseContext struct {
	classes     *ClassRegistry
	variables   *track.Variables
	values      *track.Values
	this        any
	evaluators  []tempEvaluator
	nextID      int
	interceptor Interceptor
	logger      log.Logger
}

// ContextOption configures a BaseContext.
type ContextOption func(*BaseContext)

// WithVariables sets the variable tracker used to follow assignments.
func WithVariables(v *track.Variables) ContextOption {
	return func(c *BaseContext) {
		c.variables = v
	}
}

// WithValues sets the value tracker used to share evaluated objects.
func WithValues(v *track.Values) ContextOption {
	return func(c *BaseContext) {
		c.values = v
	}
}

// WithThis sets the object standing for "this".
func WithThis(obj any) ContextOption {
	return func(c *BaseContext) {
		c.this = obj
	}
}

// WithInterceptor sets the handler of anonymous class calls.
func WithInterceptor(i Interceptor) ContextOption {
	return func(c *BaseContext) {
		c.interceptor = i
	}
}

// WithContextLogger sets the logger.
func WithContextLogger(logger log.Logger) ContextOption {
	return func(c *BaseContext) {
		c.logger = logger
	}
}

// NewContext creates a context over classes. A nil registry means the
// standard classes.
func NewContext(classes *ClassRegistry, opts ...ContextOption) *BaseContext {
	if classes == nil {
		classes = NewStandardClasses()
	}
	c := &BaseContext{classes: classes, logger: log.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *BaseContext) EvaluatePure(expr *jast.Node) any {
	if expr.Kind == jast.KindThis && c.this != nil {
		return c.this
	}
	if c.values != nil && !isPostfixUpdate(expr) {
		if v := c.values.Value(expr); v != nil && v.HasObject() {
			return v.Object()
		}
	}
	return value.Unknown
}

type tempEvaluator struct {
	id int
	e  Evaluator
}

func (c *BaseContext) Evaluators() []Evaluator {
	out := make([]Evaluator, len(c.evaluators))
	for i, t := range c.evaluators {
		out[i] = t.e
	}
	return out
}

// AddEvaluator registers a temporary evaluator, consulted before those added
// earlier. The returned function removes it.
func (c *BaseContext) AddEvaluator(e Evaluator) (remove func()) {
	c.nextID++
	id := c.nextID
	c.evaluators = append([]tempEvaluator{{id: id, e: e}}, c.evaluators...)
	return func() {
		for i, t := range c.evaluators {
			if t.id == id {
				c.evaluators = append(c.evaluators[:i:i], c.evaluators[i+1:]...)
				return
			}
		}
	}
}

func (c *BaseContext) EvaluationSuccessful(expr *jast.Node, v any) {
	if c.values == nil || isPostfixUpdate(expr) {
		return
	}
	if ev := c.values.Value(expr); ev != nil && !ev.HasObject() {
		ev.SetObject(v)
	}
}

func (c *BaseContext) EvaluationFailed(expr *jast.Node, err error) any {
	c.logger.Debug("evaluation failed", "expr", expr.Text, "line", expr.Start.Line, "error", err)
	return value.Unknown
}

func (c *BaseContext) Interceptor(*jast.Node) Interceptor {
	return c.interceptor
}

func (c *BaseContext) Classes() *ClassRegistry {
	return c.classes
}

func (c *BaseContext) Variables() *track.Variables {
	return c.variables
}

func (c *BaseContext) Values() *track.Values {
	return c.values
}

func (c *BaseContext) This() any {
	return c.this
}

// isPostfixUpdate matches "x++" and "x--", whose tracked value is the
// variable after the update rather than the result of the expression.
func isPostfixUpdate(expr *jast.Node) bool {
	return expr.Kind == jast.KindUpdate && expr.Postfix
}
