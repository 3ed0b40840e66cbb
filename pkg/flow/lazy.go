package flow

import "github.com/l3aro/go-java-flow/pkg/jast"

// LazyInfo describes a lazy-creation method:
//
//	private JButton getButton() {
//		if (button == null) {
//			button = new JButton();
//			...
//		}
//		return button;
//	}
type LazyInfo struct {
	Method *jast.Node
	// Check is the "if (x == null)" statement.
	Check *jast.Node
	// Assignment is the "x = new ..." assignment expression.
	Assignment *jast.Node
	// Creation is the right-hand side of Assignment.
	Creation *jast.Node
	// Variable is the name of the lazily created variable.
	Variable string
}

// Lazy recognises the lazy-creation idiom in method, or returns nil.
func Lazy(method *jast.Node) *LazyInfo {
	if method == nil || method.Kind != jast.KindMethodDeclaration || len(jast.Parameters(method)) != 0 {
		return nil
	}
	stmts := jast.Statements(jast.Body(method))
	if len(stmts) != 2 || stmts[0].Kind != jast.KindIfStatement || stmts[1].Kind != jast.KindReturnStatement {
		return nil
	}
	check, ret := stmts[0], stmts[1]
	if check.ChildByField("alternative") != nil {
		return nil
	}

	name := nullCheckedVariable(jast.Unparen(check.ChildByField("condition")))
	if name == "" {
		return nil
	}
	if returned := jast.Unparen(ret.FirstCode()); lazyVariableName(returned) != name {
		return nil
	}

	first := check.ChildByField("consequence")
	if first != nil && first.Kind == jast.KindBlock {
		body := jast.Statements(first)
		if len(body) == 0 {
			return nil
		}
		first = body[0]
	}
	if first == nil || first.Kind != jast.KindExpressionStatement {
		return nil
	}
	assign := first.FirstCode()
	if assign == nil || assign.Kind != jast.KindAssignment || assign.Op != "=" {
		return nil
	}
	if lazyVariableName(assign.ChildByField("left")) != name {
		return nil
	}
	creation := jast.Unparen(assign.ChildByField("right"))
	if creation == nil || creation.Kind != jast.KindObjectCreation {
		return nil
	}
	return &LazyInfo{
		Method:     method,
		Check:      check,
		Assignment: assign,
		Creation:   creation,
		Variable:   name,
	}
}

func nullCheckedVariable(cond *jast.Node) string {
	if cond == nil || cond.Kind != jast.KindBinary || cond.Op != "==" {
		return ""
	}
	left, right := jast.Unparen(cond.ChildByField("left")), jast.Unparen(cond.ChildByField("right"))
	switch {
	case right != nil && right.Kind == jast.KindNull:
		return lazyVariableName(left)
	case left != nil && left.Kind == jast.KindNull:
		return lazyVariableName(right)
	}
	return ""
}

func lazyVariableName(n *jast.Node) string {
	if n == nil {
		return ""
	}
	switch {
	case n.Kind == jast.KindIdentifier:
		return n.Text
	case jast.IsThisFieldAccess(n):
		return jast.VariableName(n)
	}
	return ""
}
