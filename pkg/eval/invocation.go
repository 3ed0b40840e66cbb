package eval

import (
	"fmt"

	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// MethodReturnTag marks a source method that returns one of its parameters
// unchanged:
//
//	/** @wbp.eval.method.return panel */
//	private static JPanel decorate(JPanel panel) { ... }
const MethodReturnTag = "@wbp.eval.method.return"

// evaluateInvocation creates registered classes and invokes their methods
// by reflection.
func evaluateInvocation(req *Request) (any, error) {
	n := req.Expr
	switch n.Kind {
	case jast.KindObjectCreation:
		if n.FirstChildOfKind(jast.KindClassBody) != nil {
			return value.Unknown, nil
		}
		return evalCreation(req)
	case jast.KindMethodInvocation:
		return evalInvocation(req)
	}
	return value.Unknown, nil
}

func evalCreation(req *Request) (any, error) {
	n := req.Expr
	if jast.LocalConstructor(n) != nil {
		return nil, fmt.Errorf("%w: %s is declared in source", ErrUnknownClass, req.TypeName)
	}
	args, err := req.EvalAll(jast.Arguments(n))
	if err != nil {
		return nil, err
	}
	name := req.TypeName
	if name == "" {
		name = n.ChildByField("type").Text
	}
	return req.Context.Classes().New(name, args)
}

func evalInvocation(req *Request) (any, error) {
	n := req.Expr
	name := jast.MethodName(n)
	obj := n.ChildByField("object")
	classes := req.Context.Classes()

	switch {
	case obj == nil || jast.IsThis(obj):
		if m := jast.LocalMethod(n); m != nil {
			return evalLocalMethod(req, m)
		}
		this := req.Context.This()
		if this == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoMethod, name)
		}
		args, err := req.EvalAll(jast.Arguments(n))
		if err != nil {
			return nil, err
		}
		return classes.Invoke(this, name, args)
	case obj.Kind == jast.KindSuper:
		return value.Unknown, nil
	}

	if cls := typeReference(req, obj); cls != nil {
		args, err := req.EvalAll(jast.Arguments(n))
		if err != nil {
			return nil, err
		}
		return classes.InvokeStatic(cls.Name, name, args)
	}
	if m := jast.LocalMethod(n); m != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocalMethod, jast.MethodSignature(m))
	}
	target, err := req.Eval(obj)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrNullReceiver, obj.Text)
	}
	args, err := req.EvalAll(jast.Arguments(n))
	if err != nil {
		return nil, err
	}
	return classes.Invoke(target, name, args)
}

// evalLocalMethod evaluates an invocation of a method declared in source.
// Only methods whose result is fully determined by their source are
// supported: tagged pass-through methods, lazy getters and parameterless
// methods returning a single expression.
func evalLocalMethod(req *Request, m *jast.Node) (any, error) {
	inv := req.Expr
	if param, ok := jast.JavadocTag(m, MethodReturnTag); ok {
		args := jast.Arguments(inv)
		for i, p := range jast.Parameters(m) {
			if jast.VariableName(p) == param && i < len(args) {
				return req.Eval(args[i])
			}
		}
		return nil, fmt.Errorf("%w: %s has no parameter %q", ErrLocalMethod, jast.MethodSignature(m), param)
	}
	if lazy := flow.Lazy(m); lazy != nil {
		return req.Eval(lazy.Creation)
	}
	if len(jast.Parameters(m)) == 0 {
		stmts := jast.Statements(jast.Body(m))
		if len(stmts) == 1 && stmts[0].Kind == jast.KindReturnStatement {
			if expr := stmts[0].FirstCode(); expr != nil {
				v, err := req.Eval(expr)
				if err != nil {
					return nil, &EvaluationError{Code: CodeLocalMethod, Source: inv.Text, Pos: inv.Start, Err: err}
				}
				return v, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLocalMethod, jast.MethodSignature(m))
}

// evaluateAnonymous turns an anonymous class creation into a Proxy of the
// registered superclass or interface.
func evaluateAnonymous(req *Request) (any, error) {
	n := req.Expr
	body := n.FirstChildOfKind(jast.KindClassBody)
	if n.Kind != jast.KindObjectCreation || body == nil {
		return value.Unknown, nil
	}
	classes := req.Context.Classes()
	name := req.TypeName
	if name == "" {
		name = n.ChildByField("type").Text
	}
	cls, ok := classes.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	args, err := req.EvalAll(jast.Arguments(n))
	if err != nil {
		return nil, err
	}
	p := &Proxy{
		Class:       cls,
		Creation:    n,
		Interceptor: req.Context.Interceptor(n),
		classes:     classes,
	}
	if !cls.Interface && len(cls.Constructors) > 0 {
		if p.Target, err = classes.New(cls.Name, args); err != nil {
			return nil, err
		}
	}
	for _, m := range body.ChildrenOfKind(jast.KindMethodDeclaration) {
		p.Overrides = append(p.Overrides, jast.MethodName(m))
	}
	return p, nil
}
