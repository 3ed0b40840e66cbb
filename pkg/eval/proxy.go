package eval

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// Interceptor handles calls on an anonymous class instance. Returning
// value.Unknown falls back to the default behavior of the proxy.
type Interceptor interface {
	Intercept(p *Proxy, method string, args []any) (any, error)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(p *Proxy, method string, args []any) (any, error)

func (f InterceptorFunc) Intercept(p *Proxy, method string, args []any) (any, error) {
	return f(p, method, args)
}

// Proxy stands for an instance of an anonymous class, or of a source type
// extending a registered class. Abstract methods answer the default value of
// their return type and concrete methods are delegated to Target, an
// instance of the superclass, unless the interceptor answers first. Template
// methods of Target call their overridden callbacks back through the
// interceptor.
type Proxy struct {
	Class       *Class
	Target      any
	Creation    *jast.Node
	Interceptor Interceptor
	// Overrides lists the methods declared in the anonymous class body.
	Overrides []string

	classes *ClassRegistry
}

// NewProxy creates a proxy of cls around target.
func (r *ClassRegistry) NewProxy(cls *Class, target any, overrides []string, i Interceptor) *Proxy {
	return &Proxy{Class: cls, Target: target, Interceptor: i, Overrides: overrides, classes: r}
}

// Invoke calls method on the proxy.
func (p *Proxy) Invoke(method string, args ...any) (any, error) {
	if p.Interceptor != nil {
		v, err := p.Interceptor.Intercept(p, method, args)
		if err != nil || !value.IsUnknown(v) {
			return v, err
		}
	}
	if p.Target != nil {
		v, err := p.classes.invokeFrom(p.Class, p.Target, method, args)
		if !errors.Is(err, ErrNoMethod) {
			if err == nil {
				err = p.callBack(method)
			}
			return v, err
		}
	}
	if m := p.classes.AbstractMethod(p.Class, method); m != nil {
		return DefaultValue(m.Returns), nil
	}
	return nil, fmt.Errorf("%w: %s.%s%s", ErrNoMethod, p.Class.Name, method, argTypes(args))
}

func (p *Proxy) callBack(method string) error {
	if p.Interceptor == nil {
		return nil
	}
	for _, cb := range p.classes.Callbacks(p.Class, method) {
		if !p.Overridden(cb) {
			continue
		}
		if _, err := p.Interceptor.Intercept(p, cb, nil); err != nil {
			return err
		}
	}
	return nil
}

// Overridden reports whether the anonymous class body declares method.
func (p *Proxy) Overridden(method string) bool {
	for _, m := range p.Overrides {
		if m == method {
			return true
		}
	}
	return false
}

func (p *Proxy) String() string {
	if p.Creation != nil {
		return fmt.Sprintf("%s$anonymous@%s", p.Class.SimpleName(), p.Creation.Start)
	}
	return p.Class.SimpleName() + "$anonymous"
}
