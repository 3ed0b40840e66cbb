// Package model builds a component tree out of the objects created along
// the execution flow of a compilation unit.
package model

import (
	"fmt"
	"reflect"

	"github.com/l3aro/go-java-flow/pkg/eval"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

// Component is one object of the model, bound to the expression that
// created it.
type Component struct {
	ID     int
	Class  string
	Object any
	// Creation is the creating expression, or the type declaration for the root.
	Creation *jast.Node
	// Variable is the variable the creation was first assigned to, if any.
	Variable string

	Parent   *Component
	Children []*Component
	// Association is the invocation that attached the component to Parent.
	Association *jast.Node
	// Related are the other expressions through which the component was reached.
	Related []*jast.Node
}

// Name returns the variable name, else the simple class name and id.
func (c *Component) Name() string {
	if c.Variable != "" {
		return c.Variable
	}
	return fmt.Sprintf("%s#%d", simpleName(c.Class), c.ID)
}

// IsRoot reports whether c stands for the analyzed type itself.
func (c *Component) IsRoot() bool {
	return c.Creation != nil && c.Creation.Kind == jast.KindClassDeclaration
}

// Walk calls fn for c and its descendants, depth first.
func (c *Component) Walk(fn func(c *Component, depth int)) {
	c.walk(fn, 0)
}

func (c *Component) walk(fn func(*Component, int), depth int) {
	fn(c, depth)
	for _, child := range c.Children {
		child.walk(fn, depth+1)
	}
}

func (c *Component) addChild(child *Component, association *jast.Node) {
	child.Parent = c
	child.Association = association
	c.Children = append(c.Children, child)
}

func (c *Component) isAncestorOf(other *Component) bool {
	for p := other; p != nil; p = p.Parent {
		if p == c {
			return true
		}
	}
	return false
}

func (c *Component) addRelated(expr *jast.Node) {
	if expr == c.Creation {
		return
	}
	for _, r := range c.Related {
		if r == expr {
			return
		}
	}
	c.Related = append(c.Related, expr)
}

func simpleName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// CodeDoubleAssociation marks a component attached to a second parent.
// Evaluation failures use the code of the underlying evaluation error.
const CodeDoubleAssociation = "MODEL_DOUBLE_ASSOCIATION"

// Warning is a non-fatal problem found while building the model.
type Warning struct {
	Pos     jast.Point
	Source  string
	Code    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", w.Pos, w.Code, w.Message, w.Source)
}

// Model is the result of a build.
type Model struct {
	Unit       *jast.Unit
	Root       *Component
	Components []*Component
	Warnings   []Warning

	byObject map[any]*Component
}

// ComponentOf returns the component whose object is obj, or nil.
func (m *Model) ComponentOf(obj any) *Component {
	if !isPointer(obj) {
		return nil
	}
	return m.byObject[obj]
}

// Find returns the first component with the given name.
func (m *Model) Find(name string) *Component {
	for _, c := range m.Components {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (m *Model) add(c *Component) {
	c.ID = len(m.Components)
	m.Components = append(m.Components, c)
	if isPointer(c.Object) {
		m.byObject[c.Object] = c
	}
	if p, ok := c.Object.(*eval.Proxy); ok && isPointer(p.Target) {
		if _, taken := m.byObject[p.Target]; !taken {
			m.byObject[p.Target] = c
		}
	}
}

// isPointer reports whether obj can key the object index.
func isPointer(obj any) bool {
	return obj != nil && reflect.TypeOf(obj).Kind() == reflect.Pointer
}
