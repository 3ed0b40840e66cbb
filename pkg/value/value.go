// Package value holds the symbolic value attached to expressions by the value
// tracker, and the sentinel used when no concrete object is known.
package value

import (
	"fmt"

	"github.com/l3aro/go-java-flow/pkg/jast"
)

type unknown struct{}

func (unknown) String() string { return "<unknown>" }

// Unknown marks a value that could not be determined. Evaluators return it to
// decline an expression so the next strategy is tried.
var Unknown = unknown{}

// IsUnknown reports whether v is the Unknown sentinel.
func IsUnknown(v any) bool {
	_, ok := v.(unknown)
	return ok
}

// Expression is the value flowing through a set of expressions. Two
// expressions share an *Expression when one was assigned from the other.
type Expression struct {
	expr   *jast.Node
	model  any
	object any
}

// NewExpression creates a value originating at expr.
func NewExpression(expr *jast.Node) *Expression {
	return &Expression{expr: expr, object: Unknown}
}

// Expression returns the originating expression.
func (v *Expression) Expression() *jast.Node {
	return v.expr
}

// Model returns the domain model object bound to this value, or nil.
func (v *Expression) Model() any {
	return v.model
}

// SetModel binds (or with nil, unbinds) a model object.
func (v *Expression) SetModel(model any) {
	v.model = model
}

// Object returns the evaluated runtime object, or Unknown.
func (v *Expression) Object() any {
	return v.object
}

// SetObject records the evaluated runtime object.
func (v *Expression) SetObject(object any) {
	v.object = object
}

// HasObject reports whether an evaluated object was recorded.
func (v *Expression) HasObject() bool {
	return !IsUnknown(v.object)
}

func (v *Expression) String() string {
	if v.expr == nil {
		return "value(<nil>)"
	}
	return fmt.Sprintf("value(%s)", v.expr.Text)
}
