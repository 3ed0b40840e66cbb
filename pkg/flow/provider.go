package flow

import (
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
)

// Identifiers of the built-in providers.
const (
	InvokeLaterProviderID      = "flow.invoke-later"
	NoArgConstructorProviderID = "flow.no-arg-constructor"
)

// DefaultProviders returns a registry holding the invoke-later provider.
func DefaultProviders() *registry.Registry[Provider] {
	r := registry.New[Provider]()
	r.MustRegister(InvokeLaterProviderID, NewInvokeLaterProvider())
	return r
}

// Provider customises the walk for a toolkit.
type Provider interface {
	// ShouldVisitAnonymous reports whether the body of an anonymous class
	// creation is part of the execution flow.
	ShouldVisitAnonymous(creation *jast.Node) bool
	// DefaultConstructor picks the flow constructor of a type with several
	// untagged constructors, or returns nil.
	DefaultConstructor(typeDecl *jast.Node) *jast.Node
}

// BaseProvider is a Provider that never intervenes.
type BaseProvider struct{}

func (BaseProvider) ShouldVisitAnonymous(*jast.Node) bool { return false }

func (BaseProvider) DefaultConstructor(*jast.Node) *jast.Node { return nil }

// InvokeLaterProvider visits anonymous classes passed directly to
// event-queue style scheduling methods, e.g. EventQueue.invokeLater(new Runnable() {...}).
type InvokeLaterProvider struct {
	BaseProvider
	Methods []string
}

// NewInvokeLaterProvider returns a provider for the usual Swing and SWT scheduling methods.
func NewInvokeLaterProvider() *InvokeLaterProvider {
	return &InvokeLaterProvider{Methods: []string{"invokeLater", "invokeAndWait", "asyncExec", "syncExec"}}
}

func (p *InvokeLaterProvider) ShouldVisitAnonymous(creation *jast.Node) bool {
	args := creation.Parent
	if args == nil || args.Kind != jast.KindArgumentList {
		return false
	}
	inv := args.Parent
	if inv == nil || inv.Kind != jast.KindMethodInvocation {
		return false
	}
	name := jast.MethodName(inv)
	for _, m := range p.Methods {
		if m == name {
			return true
		}
	}
	return false
}

// NoArgConstructorProvider falls back to the parameterless constructor.
type NoArgConstructorProvider struct {
	BaseProvider
}

func (NoArgConstructorProvider) DefaultConstructor(typeDecl *jast.Node) *jast.Node {
	for _, c := range jast.Constructors(typeDecl) {
		if len(jast.Parameters(c)) == 0 {
			return c
		}
	}
	return nil
}
