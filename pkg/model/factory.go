package model

import (
	"github.com/l3aro/go-java-flow/pkg/eval"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
)

// Creation is an evaluated expression offered to the factories: an object
// creation or a static factory method invocation.
type Creation struct {
	Expr *jast.Node
	// Class describes Object, or is nil when the registry does not know it.
	Class  *eval.Class
	Object any
}

// Factory turns created objects into components. It returns nil for
// objects it does not model.
type Factory interface {
	Create(c Creation) *Component
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(c Creation) *Component

func (f FactoryFunc) Create(c Creation) *Component {
	return f(c)
}

// Identifiers of the built-in factories.
const (
	BeanFactoryID  = "model.bean"
	ProxyFactoryID = "model.proxy"
)

// DefaultFactories returns a registry holding the built-in factories.
func DefaultFactories() *registry.Registry[Factory] {
	r := registry.New[Factory]()
	r.MustRegister(BeanFactoryID, FactoryFunc(createBean))
	r.MustRegister(ProxyFactoryID, FactoryFunc(createProxy))
	return r
}

func createBean(c Creation) *Component {
	b, ok := c.Object.(*Bean)
	if !ok {
		return nil
	}
	return &Component{Class: b.Class}
}

// createProxy models anonymous subclasses of beans under the bean class.
func createProxy(c Creation) *Component {
	p, ok := c.Object.(*eval.Proxy)
	if !ok || asBean(p) == nil {
		return nil
	}
	return &Component{Class: p.Class.Name}
}
