package flow

import "github.com/l3aro/go-java-flow/pkg/jast"

type condition int

const (
	condUnknown condition = iota
	condTrue
	condFalse
)

func (c condition) not() condition {
	switch c {
	case condTrue:
		return condFalse
	case condFalse:
		return condTrue
	}
	return condUnknown
}

// staticCondition decides an if-condition without evaluating it. Only boolean
// literals and design-time predicate calls are known; with folding enabled
// they may be combined with !, && and ||.
func (w *Walker) staticCondition(n *jast.Node) condition {
	n = jast.Unparen(n)
	if n == nil {
		return condUnknown
	}
	switch {
	case n.Kind == jast.KindTrue:
		return condTrue
	case n.Kind == jast.KindFalse:
		return condFalse
	case w.isDesignTimeCall(n):
		return condTrue
	case n.Kind == jast.KindUnary && n.Op == "!":
		operand := jast.Unparen(n.ChildByField("operand"))
		if !w.foldConditions && !w.isDesignTimeCall(operand) {
			return condUnknown
		}
		return w.staticCondition(operand).not()
	case w.foldConditions && n.Kind == jast.KindBinary && (n.Op == "&&" || n.Op == "||"):
		left := w.staticCondition(n.ChildByField("left"))
		right := w.staticCondition(n.ChildByField("right"))
		if n.Op == "&&" {
			switch {
			case left == condFalse || right == condFalse:
				return condFalse
			case left == condTrue && right == condTrue:
				return condTrue
			}
			return condUnknown
		}
		switch {
		case left == condTrue || right == condTrue:
			return condTrue
		case left == condFalse && right == condFalse:
			return condFalse
		}
	}
	return condUnknown
}

func (w *Walker) isDesignTimeCall(n *jast.Node) bool {
	return n != nil && n.Kind == jast.KindMethodInvocation &&
		w.designTime[jast.MethodName(n)] && len(jast.Arguments(n)) == 0
}

// isLazyCheck reports whether s is the null check of a lazy-creation method.
func (w *Walker) isLazyCheck(s *jast.Node) bool {
	block := s.Parent
	if block == nil || block.Kind != jast.KindBlock {
		return false
	}
	m := block.Parent
	if m == nil || m.Kind != jast.KindMethodDeclaration {
		return false
	}
	info := Lazy(m)
	return info != nil && info.Check == s
}
