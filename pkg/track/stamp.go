// Package track computes, along an execution flow, where variables are
// declared and assigned and which symbolic value each expression carries.
// Results live in side tables owned by the tracker and are recomputed lazily
// when either the AST or the flow description changes.
package track

import (
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

// stamp is the (AST, flow) modification pair a cache was computed for.
type stamp struct {
	valid bool
	ast   int64
	flow  int64
}

func currentStamp(desc *flow.Description) stamp {
	s := stamp{valid: true, flow: desc.ModificationCount()}
	if u := desc.Unit(); u != nil {
		s.ast = u.ModificationCount()
	}
	return s
}

func (s stamp) matches(desc *flow.Description) bool {
	return s.valid && s == currentStamp(desc)
}

func isReadable(n *jast.Node) bool {
	return n != nil && !n.IsDangling()
}
