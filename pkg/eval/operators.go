package eval

import (
	"fmt"
	"math"
	"strings"

	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

func evaluateOperator(req *Request) (any, error) {
	n := req.Expr
	switch n.Kind {
	case jast.KindBinary:
		return evalBinary(req)
	case jast.KindUnary:
		operand, err := req.Eval(n.ChildByField("operand"))
		if err != nil {
			return nil, err
		}
		return unaryOp(n.Op, operand)
	case jast.KindTernary:
		cond, err := req.Eval(n.ChildByField("condition"))
		if err != nil {
			return nil, err
		}
		b, ok := cond.(bool)
		if !ok {
			return nil, fmt.Errorf("condition is %s, not boolean", typeName(cond))
		}
		if b {
			return req.Eval(n.ChildByField("consequence"))
		}
		return req.Eval(n.ChildByField("alternative"))
	case jast.KindCast:
		v, err := req.Eval(n.ChildByField("value"))
		if err != nil {
			return nil, err
		}
		if t := jast.TypeOf(n.ChildByField("type")); t != nil && t.Primitive {
			return castPrimitive(v, t.Name)
		}
		return v, nil
	case jast.KindAssignment:
		return evalWrite(req, n)
	case jast.KindUpdate:
		old, updated, err := evalUpdate(req, n)
		if err != nil {
			return nil, err
		}
		if n.Postfix {
			return old, nil
		}
		return updated, nil
	}
	return value.Unknown, nil
}

func evalBinary(req *Request) (any, error) {
	n := req.Expr
	if n.Op == "instanceof" {
		return value.Unknown, nil
	}
	left, err := req.Eval(n.ChildByField("left"))
	if err != nil {
		return nil, err
	}
	if n.Op == "&&" || n.Op == "||" {
		l, ok := left.(bool)
		if !ok {
			return nil, fmt.Errorf("operator %s not applicable to %s", n.Op, typeName(left))
		}
		if (n.Op == "&&") != l {
			return l, nil
		}
		right, err := req.Eval(n.ChildByField("right"))
		if err != nil {
			return nil, err
		}
		r, ok := right.(bool)
		if !ok {
			return nil, fmt.Errorf("operator %s not applicable to %s", n.Op, typeName(right))
		}
		return r, nil
	}
	right, err := req.Eval(n.ChildByField("right"))
	if err != nil {
		return nil, err
	}
	return binaryOp(n.Op, left, right)
}

func binaryOp(op string, a, b any) (any, error) {
	_, as := a.(string)
	_, bs := b.(string)
	switch {
	case op == "+" && (as || bs):
		return javaString(a) + javaString(b), nil
	case op == "==":
		return equalValues(a, b), nil
	case op == "!=":
		return !equalValues(a, b), nil
	}
	if x, ok := a.(bool); ok {
		y, ok := b.(bool)
		if !ok {
			return nil, notApplicable(op, a, b)
		}
		switch op {
		case "&":
			return x && y, nil
		case "|":
			return x || y, nil
		case "^":
			return x != y, nil
		}
		return nil, notApplicable(op, a, b)
	}
	x, ok1 := toNumber(a)
	y, ok2 := toNumber(b)
	if !ok1 || !ok2 {
		return nil, notApplicable(op, a, b)
	}
	switch op {
	case "<<", ">>", ">>>":
		return shift(op, x, y, a, b)
	}

	k := max(x.kind, y.kind)
	x, y = x.promote(k), y.promote(k)
	if k >= kindFloat {
		return floatOp(op, k, x.f, y.f, a, b)
	}
	var r int64
	switch op {
	case "+":
		r = x.i + y.i
	case "-":
		r = x.i - y.i
	case "*":
		r = x.i * y.i
	case "/", "%":
		if y.i == 0 {
			return nil, fmt.Errorf("%w: / by zero", ErrArithmetic)
		}
		if k == kindInt {
			xi, yi := int32(x.i), int32(y.i)
			if op == "/" {
				return xi / yi, nil
			}
			return xi % yi, nil
		}
		if op == "/" {
			r = x.i / y.i
		} else {
			r = x.i % y.i
		}
	case "&":
		r = x.i & y.i
	case "|":
		r = x.i | y.i
	case "^":
		r = x.i ^ y.i
	case "<":
		return x.i < y.i, nil
	case ">":
		return x.i > y.i, nil
	case "<=":
		return x.i <= y.i, nil
	case ">=":
		return x.i >= y.i, nil
	default:
		return nil, notApplicable(op, a, b)
	}
	return number{kind: k, i: r}.value(), nil
}

func floatOp(op string, k numKind, x, y float64, a, b any) (any, error) {
	var r float64
	switch op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/":
		r = x / y
	case "%":
		r = math.Mod(x, y)
	case "<":
		return x < y, nil
	case ">":
		return x > y, nil
	case "<=":
		return x <= y, nil
	case ">=":
		return x >= y, nil
	default:
		return nil, notApplicable(op, a, b)
	}
	return number{kind: k, f: r}.value(), nil
}

func shift(op string, x, y number, a, b any) (any, error) {
	if x.kind >= kindFloat || y.kind >= kindFloat {
		return nil, notApplicable(op, a, b)
	}
	if x.kind == kindInt {
		v, s := int32(x.i), uint(y.i&31)
		switch op {
		case "<<":
			return v << s, nil
		case ">>":
			return v >> s, nil
		}
		return int32(uint32(v) >> s), nil
	}
	s := uint(y.i & 63)
	switch op {
	case "<<":
		return x.i << s, nil
	case ">>":
		return x.i >> s, nil
	}
	return int64(uint64(x.i) >> s), nil
}

func unaryOp(op string, v any) (any, error) {
	if op == "!" {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("operator ! not applicable to %s", typeName(v))
		}
		return !b, nil
	}
	n, ok := toNumber(v)
	if !ok {
		return nil, fmt.Errorf("operator %s not applicable to %s", op, typeName(v))
	}
	switch op {
	case "+":
		return n.value(), nil
	case "-":
		if n.kind >= kindFloat {
			n.f = -n.f
		} else {
			n.i = -n.i
		}
		return n.value(), nil
	case "~":
		if n.kind >= kindFloat {
			break
		}
		n.i = ^n.i
		return n.value(), nil
	}
	return nil, fmt.Errorf("operator %s not applicable to %s", op, typeName(v))
}

func notApplicable(op string, a, b any) error {
	return fmt.Errorf("operator %s not applicable to %s and %s", op, typeName(a), typeName(b))
}

// evalWrite evaluates the value stored by a declaration or assignment.
func evalWrite(req *Request, write *jast.Node) (any, error) {
	switch write.Kind {
	case jast.KindVariableDeclarator:
		if init := write.ChildByField("value"); init != nil {
			return req.Eval(init)
		}
		if t := jast.DeclaredType(write); t != nil {
			return DefaultValue(t.Name), nil
		}
		return nil, nil
	case jast.KindAssignment:
		right, err := req.Eval(write.ChildByField("right"))
		if err != nil || write.Op == "=" {
			return right, err
		}
		old, err := previousValue(req, write)
		if err != nil {
			return nil, err
		}
		v, err := binaryOp(strings.TrimSuffix(write.Op, "="), old, right)
		if err != nil {
			return nil, err
		}
		if t := jast.ResolveType(write.ChildByField("left")); t != nil && t.Primitive {
			return castPrimitive(v, t.Name)
		}
		return v, nil
	}
	return value.Unknown, nil
}

// previousValue evaluates the variable written by a compound assignment as
// it was just before the assignment.
func previousValue(req *Request, write *jast.Node) (any, error) {
	left := write.ChildByField("left")
	vars := req.Context.Variables()
	if vars == nil {
		return nil, ErrUnknownExpression
	}
	writes := vars.Assignments(left)
	for i := len(writes) - 1; i > 0; i-- {
		if writes[i] == write {
			return evalWrite(req, writes[i-1])
		}
	}
	if decl := vars.Declaration(left); decl != nil && decl.Kind == jast.KindVariableDeclarator {
		return evalWrite(req, decl)
	}
	return nil, fmt.Errorf("%w: %s has no previous value", ErrUnknownExpression, left.Text)
}

// evalUpdate returns the values of the operand of ++ or -- before and after
// the update. Only the last assignment of the operand is considered.
func evalUpdate(req *Request, update *jast.Node) (old, updated any, err error) {
	operand := jast.Unparen(update.FirstCode())
	vars := req.Context.Variables()
	if operand == nil || vars == nil {
		return nil, nil, ErrUnknownExpression
	}
	last := vars.LastAssignment(operand)
	if last == nil {
		return nil, nil, fmt.Errorf("%w: %s is never assigned", ErrUnknownExpression, operand.Text)
	}
	old, err = evalWrite(req, last)
	if err != nil {
		return nil, nil, err
	}
	if value.IsUnknown(old) {
		return nil, nil, ErrUnknownExpression
	}
	op := "+"
	if update.Op == "--" {
		op = "-"
	}
	updated, err = binaryOp(op, old, int32(1))
	if err != nil {
		return nil, nil, err
	}
	if t := jast.ResolveType(operand); t != nil && t.Primitive {
		updated, err = castPrimitive(updated, t.Name)
	}
	return old, updated, err
}
