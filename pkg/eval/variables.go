package eval

import (
	"fmt"
	"reflect"

	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// evaluateVariable follows a variable reference to the expression that
// assigned it. The value tracker is preferred, so every reference sharing a
// value also shares the evaluated object.
func evaluateVariable(req *Request) (any, error) {
	n := req.Expr
	if n.Kind != jast.KindIdentifier && !jast.IsThisFieldAccess(n) {
		return value.Unknown, nil
	}
	if !jast.IsVariableReference(n) || isDeclarationName(n) {
		return value.Unknown, nil
	}
	decl := jast.ResolveVariable(n)
	if decl == nil {
		return value.Unknown, nil
	}

	if values := req.Context.Values(); values != nil {
		if v := values.Value(n); v != nil {
			if v.HasObject() {
				return v.Object(), nil
			}
			if src := v.Expression(); src != nil && src != n && !isDeclarationName(src) {
				switch src.Kind {
				case jast.KindUpdate:
					_, updated, err := evalUpdate(req, src)
					return updated, err
				case jast.KindAssignment:
					return evalWrite(req, src)
				}
				return req.Eval(src)
			}
		}
	}
	if vars := req.Context.Variables(); vars != nil {
		if last := vars.LastAssignment(n); last != nil {
			return evalWrite(req, last)
		}
	}
	if decl.Kind == jast.KindVariableDeclarator {
		return evalWrite(req, decl)
	}
	return nil, fmt.Errorf("%w: parameter %s has no known value", ErrUnknownExpression, jast.VariableName(n))
}

// isDeclarationName reports whether n is the name identifier of a declarator
// or parameter.
func isDeclarationName(n *jast.Node) bool {
	return n.Kind == jast.KindIdentifier && n.Field == "name" && n.Parent != nil && jast.IsDeclaration(n.Parent)
}

// evaluateField reads static fields of registered classes and exported
// fields of evaluated Go objects.
func evaluateField(req *Request) (any, error) {
	n := req.Expr
	if n.Kind != jast.KindFieldAccess {
		return value.Unknown, nil
	}
	obj, field := n.ChildByField("object"), n.ChildByField("field")
	if obj == nil || field == nil {
		return value.Unknown, nil
	}
	if cls := typeReference(req, obj); cls != nil {
		if v, ok := req.Context.Classes().StaticField(cls.Name, field.Text); ok {
			return v, nil
		}
		return nil, fmt.Errorf("%w: %s.%s", ErrNoField, cls.Name, field.Text)
	}
	if obj.Kind == jast.KindSuper {
		return value.Unknown, nil
	}

	target, err := req.Eval(obj)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: field %s", ErrNullReceiver, field.Text)
	}
	if p, ok := target.(*Proxy); ok && p.Target != nil {
		target = p.Target
	}
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(exportedName(field.Text)); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrNoField, typeName(target), field.Text)
}

func typeReference(req *Request, n *jast.Node) *Class {
	return TypeReference(req.Context.Classes(), n)
}

// TypeReference returns the registered class named by n when n is a type
// name rather than a variable, or nil.
func TypeReference(classes *ClassRegistry, n *jast.Node) *Class {
	var name string
	switch n.Kind {
	case jast.KindIdentifier:
		if jast.ResolveVariable(n) != nil {
			return nil
		}
		name = n.Text
	case jast.KindFieldAccess, jast.KindScopedIdentifier:
		if jast.IsThisFieldAccess(n) {
			return nil
		}
		name = n.Text
	default:
		return nil
	}
	if cls, ok := classes.Lookup(jast.Qualify(n.Unit(), name)); ok {
		return cls
	}
	if n.Kind != jast.KindIdentifier {
		// a qualified name is only a type when fully registered
		return nil
	}
	if n.Unit() != nil && n.Unit().TypeByName(name) != nil {
		return nil
	}
	cls, _ := classes.Lookup(name)
	return cls
}
