// Package flow describes and walks the design-time execution flow of a Java
// compilation unit: which methods are entered, in which order, and which
// statements of them are visited.
package flow

import (
	"fmt"

	"github.com/l3aro/go-java-flow/pkg/jast"
)

// Description is the set of start methods of a flow plus the binary-flow
// edges discovered while executing it. Any structural change bumps the
// modification counter so caches keyed on it are invalidated.
type Description struct {
	unit         *jast.Unit
	startMethods []*jast.Node

	before map[*jast.Node][]*jast.Node
	after  map[*jast.Node][]*jast.Node
	locked bool

	trace    []*jast.Node
	modCount int64
}

// NewDescription creates a description for unit starting at the given methods.
func NewDescription(unit *jast.Unit, startMethods ...*jast.Node) *Description {
	d := &Description{
		unit:   unit,
		before: make(map[*jast.Node][]*jast.Node),
		after:  make(map[*jast.Node][]*jast.Node),
	}
	d.startMethods = append(d.startMethods, startMethods...)
	return d
}

// Unit returns the compilation unit the flow runs over.
func (d *Description) Unit() *jast.Unit {
	return d.unit
}

// TypeDeclaration returns the type declaring the first start method.
func (d *Description) TypeDeclaration() *jast.Node {
	methods := d.StartMethods()
	if len(methods) == 0 {
		if d.unit != nil {
			return d.unit.TopType()
		}
		return nil
	}
	return jast.EnclosingType(methods[0])
}

// StartMethods returns the live start methods. Entries removed from the AST
// are pruned first.
func (d *Description) StartMethods() []*jast.Node {
	live := d.startMethods[:0]
	for _, m := range d.startMethods {
		if !m.IsDangling() {
			live = append(live, m)
		}
	}
	if len(live) != len(d.startMethods) {
		d.modCount++
	}
	d.startMethods = live
	out := make([]*jast.Node, len(live))
	copy(out, live)
	return out
}

// AddStartMethod appends a start method.
func (d *Description) AddStartMethod(m *jast.Node) {
	d.mustBeUnlocked("AddStartMethod")
	d.startMethods = append(d.startMethods, m)
	d.modCount++
}

// ModificationCount is the flow stamp used by trackers.
func (d *Description) ModificationCount() int64 {
	return d.modCount
}

// EnterStatement pushes s on the statement trace.
func (d *Description) EnterStatement(s *jast.Node) {
	d.trace = append(d.trace, s)
}

// LeaveStatement pops s from the statement trace. Leaving anything but the
// top statement is a traversal bug and panics.
func (d *Description) LeaveStatement(s *jast.Node) {
	if len(d.trace) == 0 {
		panic(fmt.Sprintf("flow: leave %s with empty statement trace", s.Describe()))
	}
	top := d.trace[len(d.trace)-1]
	if top != s {
		panic(fmt.Sprintf("flow: leave %s but top of trace is %s", s.Describe(), top.Describe()))
	}
	d.trace = d.trace[:len(d.trace)-1]
}

// CurrentStatement returns the statement on top of the trace, or nil.
func (d *Description) CurrentStatement() *jast.Node {
	if len(d.trace) == 0 {
		return nil
	}
	return d.trace[len(d.trace)-1]
}

// AddBinaryFlowMethodBefore records that m runs before the current statement.
func (d *Description) AddBinaryFlowMethodBefore(m *jast.Node) {
	d.addBinaryFlow(d.before, m, "AddBinaryFlowMethodBefore")
}

// AddBinaryFlowMethodAfter records that m runs after the current statement.
func (d *Description) AddBinaryFlowMethodAfter(m *jast.Node) {
	d.addBinaryFlow(d.after, m, "AddBinaryFlowMethodAfter")
}

func (d *Description) addBinaryFlow(edges map[*jast.Node][]*jast.Node, m *jast.Node, op string) {
	d.mustBeUnlocked(op)
	s := d.CurrentStatement()
	if s == nil {
		panic(fmt.Sprintf("flow: %s(%s) without a current statement", op, jast.MethodSignature(m)))
	}
	for _, existing := range edges[s] {
		if existing == m {
			return
		}
	}
	edges[s] = append(edges[s], m)
	d.modCount++
}

// BinaryFlowMethodsBefore returns the methods recorded to run before s.
func (d *Description) BinaryFlowMethodsBefore(s *jast.Node) []*jast.Node {
	return d.before[s]
}

// BinaryFlowMethodsAfter returns the methods recorded to run after s.
func (d *Description) BinaryFlowMethodsAfter(s *jast.Node) []*jast.Node {
	return d.after[s]
}

// LockBinaryFlow freezes the description. It cannot be undone.
func (d *Description) LockBinaryFlow() {
	d.locked = true
}

// IsBinaryFlowLocked reports whether LockBinaryFlow was called.
func (d *Description) IsBinaryFlowLocked() bool {
	return d.locked
}

func (d *Description) mustBeUnlocked(op string) {
	if d.locked {
		panic(fmt.Sprintf("flow: %s on a locked description", op))
	}
}
