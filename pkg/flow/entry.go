package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/l3aro/go-java-flow/pkg/jast"
)

var (
	// ErrAmbiguousConstructor is returned when a type has several constructors
	// and none of them is marked as the flow constructor.
	ErrAmbiguousConstructor = errors.New("ambiguous execution flow constructor")
	// ErrNoEntryPoint is returned when a type has nothing to start the flow from.
	ErrNoEntryPoint = errors.New("no execution flow entry point")
)

// AmbiguityError reports a type whose entry into the flow cannot be decided.
type AmbiguityError struct {
	Err        error
	Type       string
	Pos        jast.Point
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	msg := fmt.Sprintf("%s: type %s: %v", e.Pos, e.Type, e.Err)
	if len(e.Candidates) > 0 {
		msg += " (candidates: " + strings.Join(e.Candidates, ", ") + ")"
	}
	return msg
}

func (e *AmbiguityError) Unwrap() error {
	return e.Err
}

// ExecutionFlowConstructor selects the constructor the flow starts from. It
// returns nil without error when the type declares no constructors.
func (w *Walker) ExecutionFlowConstructor(typeDecl *jast.Node) (*jast.Node, error) {
	ctors := jast.Constructors(typeDecl)
	switch len(ctors) {
	case 0:
		return nil, nil
	case 1:
		return ctors[0], nil
	}
	for _, c := range ctors {
		if jast.HasJavadocTag(c, w.constructorTag) {
			return c, nil
		}
	}
	for _, p := range w.providers {
		if c := p.DefaultConstructor(typeDecl); c != nil {
			return c, nil
		}
	}
	candidates := make([]string, len(ctors))
	for i, c := range ctors {
		candidates[i] = jast.MethodSignature(c)
	}
	return nil, &AmbiguityError{
		Err:        ErrAmbiguousConstructor,
		Type:       jast.TypeName(typeDecl),
		Pos:        typeDecl.Start,
		Candidates: candidates,
	}
}

// EntryPoint returns the method tagged as the flow entry point, or nil.
func (w *Walker) EntryPoint(typeDecl *jast.Node) *jast.Node {
	for _, m := range jast.Methods(typeDecl) {
		if m.Kind == jast.KindMethodDeclaration && jast.HasJavadocTag(m, w.entryPointTag) {
			return m
		}
	}
	return nil
}

// MainMethod returns "public static void main(String[])", or nil.
func MainMethod(typeDecl *jast.Node) *jast.Node {
	for _, m := range jast.Methods(typeDecl) {
		if m.Kind != jast.KindMethodDeclaration || jast.MethodName(m) != "main" || !jast.IsStatic(m) {
			continue
		}
		if params := jast.Parameters(m); len(params) == 1 {
			return m
		}
	}
	return nil
}

// EntryMethods picks the start methods for typeDecl: the tagged entry point,
// else the flow constructor, else main.
func (w *Walker) EntryMethods(typeDecl *jast.Node) ([]*jast.Node, error) {
	if typeDecl == nil {
		return nil, ErrNoEntryPoint
	}
	if ep := w.EntryPoint(typeDecl); ep != nil {
		return []*jast.Node{ep}, nil
	}
	ctor, err := w.ExecutionFlowConstructor(typeDecl)
	if err != nil {
		return nil, err
	}
	if ctor != nil {
		return []*jast.Node{ctor}, nil
	}
	if main := MainMethod(typeDecl); main != nil {
		return []*jast.Node{main}, nil
	}
	return nil, &AmbiguityError{Err: ErrNoEntryPoint, Type: jast.TypeName(typeDecl), Pos: typeDecl.Start}
}

// Invocations returns the invocations of method reached by the flow of desc,
// in visiting order.
func (w *Walker) Invocations(desc *Description, method *jast.Node) []*jast.Node {
	c := &invocationCollector{target: method}
	w.Visit(NewVisitingContext(true), desc, c)
	return c.found
}

type invocationCollector struct {
	BaseVisitor
	target *jast.Node
	found  []*jast.Node
}

func (c *invocationCollector) EndVisit(n *jast.Node) {
	var resolved *jast.Node
	switch n.Kind {
	case jast.KindMethodInvocation:
		resolved = jast.LocalMethod(n)
	case jast.KindObjectCreation:
		resolved = jast.LocalConstructor(n)
	case jast.KindExplicitConstructorCall:
		resolved = jast.ConstructorFor(n)
	}
	if resolved != nil && resolved == c.target {
		for _, f := range c.found {
			if f == n {
				return
			}
		}
		c.found = append(c.found, n)
	}
}
