package track

import (
	"fmt"

	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

// Option configures a tracker.
type Option func(*options)

type options struct {
	logger log.Logger
}

// WithLogger sets the tracker logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Variables answers declaration, assignment and reference queries for
// variable nodes of one flow description.
type Variables struct {
	walker *flow.Walker
	desc   *flow.Description
	logger log.Logger

	stamp    stamp
	info     map[*jast.Node]*variableInfo
	declLast map[*jast.Node]*jast.Node
}

type variableInfo struct {
	stamped     bool
	declaration *jast.Node
	last        *jast.Node
	assignments []*jast.Node
	references  *refList
}

type refList struct {
	nodes []*jast.Node
}

func (l *refList) add(n *jast.Node) {
	for _, e := range l.nodes {
		if e == n {
			return
		}
	}
	l.nodes = append(l.nodes, n)
}

// NewVariables creates a variable tracker for desc.
func NewVariables(walker *flow.Walker, desc *flow.Description, opts ...Option) *Variables {
	o := buildOptions(opts)
	return &Variables{
		walker: walker,
		desc:   desc,
		logger: o.logger.With("component", "variables"),
	}
}

// Declaration returns the declarator or parameter a variable node refers to.
func (t *Variables) Declaration(variable *jast.Node) *jast.Node {
	if info := t.lookup(variable); info != nil {
		return info.declaration
	}
	return nil
}

// LastAssignment returns the declaration or assignment expression that last
// wrote the variable before the given node in flow order.
func (t *Variables) LastAssignment(variable *jast.Node) *jast.Node {
	if info := t.lookup(variable); info != nil {
		return info.last
	}
	return nil
}

// Assignments returns the writes with a value (initialized declarations and
// assignments) seen up to the given node.
func (t *Variables) Assignments(variable *jast.Node) []*jast.Node {
	info := t.lookup(variable)
	if info == nil {
		return nil
	}
	out := make([]*jast.Node, len(info.assignments))
	copy(out, info.assignments)
	return out
}

// References returns every node of the unit naming the same variable.
func (t *Variables) References(variable *jast.Node) []*jast.Node {
	info := t.lookup(variable)
	if info == nil || info.references == nil {
		return nil
	}
	out := make([]*jast.Node, len(info.references.nodes))
	copy(out, info.references.nodes)
	return out
}

// HasVariableStamp reports whether the node was reached by the flow walk.
func (t *Variables) HasVariableStamp(variable *jast.Node) bool {
	info := t.lookup(variable)
	return info != nil && info.stamped
}

// FinalExpression follows variables through their last assignments to the
// expression that produced their value.
func (t *Variables) FinalExpression(expr *jast.Node) *jast.Node {
	seen := make(map[*jast.Node]bool)
	for {
		expr = jast.Unparen(expr)
		if expr == nil || seen[expr] || !jast.IsVariableReference(expr) {
			return expr
		}
		seen[expr] = true
		var next *jast.Node
		switch last := t.LastAssignment(expr); {
		case last == nil:
		case last.Kind == jast.KindVariableDeclarator:
			next = last.ChildByField("value")
		case last.Kind == jast.KindAssignment && last.Op == "=":
			next = last.ChildByField("right")
		}
		if next == nil {
			return expr
		}
		expr = next
	}
}

func (t *Variables) lookup(n *jast.Node) *variableInfo {
	if n == nil {
		return nil
	}
	if !isReadable(n) {
		delete(t.info, n)
		return nil
	}
	if !t.stamp.matches(t.desc) {
		t.compute()
	}
	return t.info[n]
}

func (t *Variables) compute() {
	t.info = make(map[*jast.Node]*variableInfo)
	t.declLast = make(map[*jast.Node]*jast.Node)

	fv := &assignmentVisitor{frames: &frameStack{t: t, forFlow: true}}
	t.walker.Visit(flow.NewVisitingContext(true), t.desc, fv)

	if u := t.desc.Unit(); u != nil {
		rv := &referenceVisitor{frames: &frameStack{t: t}, top: u.TopType()}
		flow.Walk(u.Root, rv)
	}
	t.stamp = currentStamp(t.desc)
	t.logger.Debug("variables computed", "nodes", len(t.info))
}

// varFrame is one scope of the variable frame stack.
type varFrame struct {
	node    *jast.Node
	method  *jast.Node
	forType bool

	declarations map[string]*jast.Node
	last         map[string]*jast.Node
	assignments  map[string][]*jast.Node
	refs         map[string]*refList
}

type frameStack struct {
	t       *Variables
	forFlow bool
	stack   []*varFrame
}

func (s *frameStack) top() *varFrame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *frameStack) enter(n *jast.Node) {
	f := &varFrame{
		node:         n,
		forType:      n.Kind == jast.KindClassDeclaration,
		declarations: make(map[string]*jast.Node),
		last:         make(map[string]*jast.Node),
		assignments:  make(map[string][]*jast.Node),
		refs:         make(map[string]*refList),
	}
	if jast.IsMethod(n) {
		f.method = n
	} else if top := s.top(); top != nil {
		f.method = top.method
	}
	s.stack = append(s.stack, f)
	if jast.IsMethod(n) {
		for _, p := range jast.Parameters(n) {
			s.define(p)
		}
	}
}

// leave pops frames up to and including the one opened for n. Type frames
// are entered without a matching leave, so they may be discarded here.
func (s *frameStack) leave(n *jast.Node) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].node == n {
			s.stack = s.stack[:i]
			return
		}
	}
	panic(fmt.Sprintf("track: leaving frame %s that was never entered", n.Describe()))
}

func (s *frameStack) frameForDeclaration(decl *jast.Node) *varFrame {
	if jast.IsFieldDeclarator(decl) {
		for _, f := range s.stack {
			if f.forType {
				return f
			}
		}
	}
	return s.top()
}

func (s *frameStack) definingFrame(ref *jast.Node) *varFrame {
	name := jast.VariableName(ref)
	if name == "" {
		return nil
	}
	fieldOnly := ref.Kind == jast.KindFieldAccess
	for i := len(s.stack) - 1; i >= 0; i-- {
		f := s.stack[i]
		if fieldOnly && !f.forType {
			continue
		}
		if _, ok := f.declarations[name]; ok {
			return f
		}
	}
	return nil
}

func (s *frameStack) define(decl *jast.Node) {
	f := s.frameForDeclaration(decl)
	if f == nil {
		return
	}
	name := jast.VariableName(decl)
	if name == "" {
		return
	}
	f.declarations[name] = decl
	s.addAssignment(f, name, decl)
}

func (s *frameStack) addAssignment(f *varFrame, name string, node *jast.Node) {
	f.last[name] = node
	if initializer(node) != nil {
		f.assignments[name] = append(f.assignments[name], node)
	}
	if s.forFlow {
		if decl := f.declarations[name]; decl != nil {
			s.t.declLast[decl] = node
		}
	}
}

func initializer(n *jast.Node) *jast.Node {
	switch n.Kind {
	case jast.KindVariableDeclarator:
		return n.ChildByField("value")
	case jast.KindAssignment:
		return n.ChildByField("right")
	}
	return nil
}

// storeAssignments snapshots the assignment state of ref's variable.
func (s *frameStack) storeAssignments(ref *jast.Node) {
	f := s.definingFrame(ref)
	if f == nil {
		return
	}
	name := jast.VariableName(ref)
	assignments := make([]*jast.Node, len(f.assignments[name]))
	copy(assignments, f.assignments[name])
	s.t.info[ref] = &variableInfo{
		stamped:     true,
		declaration: f.declarations[name],
		last:        f.last[name],
		assignments: assignments,
	}
}

// storeReferences links ref into the reference list of its variable.
func (s *frameStack) storeReferences(ref, nameNode *jast.Node) {
	f := s.definingFrame(nameNode)
	if f == nil {
		return
	}
	name := jast.VariableName(nameNode)
	refs := f.refs[name]
	if refs == nil {
		refs = &refList{}
		f.refs[name] = refs
	}
	refs.add(ref)

	info := s.t.info[ref]
	if info == nil {
		decl := f.declarations[name]
		info = &variableInfo{declaration: decl}
		if decl != nil && initializer(decl) != nil {
			info.assignments = []*jast.Node{decl}
		}
		s.t.info[ref] = info
	}
	info.references = refs
	if info.last == nil {
		info.last = s.t.declLast[info.declaration]
		if info.last == nil {
			info.last = info.declaration
		}
	}
}

// assignmentVisitor runs along the execution flow.
type assignmentVisitor struct {
	frames *frameStack
}

func (v *assignmentVisitor) EnterFrame(n *jast.Node) bool {
	v.frames.enter(n)
	return true
}

func (v *assignmentVisitor) LeaveFrame(n *jast.Node) { v.frames.leave(n) }

func (v *assignmentVisitor) Visit(n *jast.Node) bool {
	if jast.IsDeclaration(n) {
		v.frames.define(n)
	}
	return true
}

func (v *assignmentVisitor) EndVisit(n *jast.Node) {
	if n.Kind == jast.KindAssignment {
		left := n.ChildByField("left")
		if jast.IsVariableReference(left) {
			if f := v.frames.definingFrame(left); f != nil {
				v.frames.addAssignment(f, jast.VariableName(left), n)
				v.frames.storeAssignments(left)
			}
		}
	}
	if jast.IsVariableReference(n) {
		v.frames.storeAssignments(n)
	}
}

// referenceVisitor walks the whole unit, flow or not.
type referenceVisitor struct {
	frames *frameStack
	top    *jast.Node
}

func (v *referenceVisitor) EnterFrame(n *jast.Node) bool {
	v.frames.enter(n)
	if n.Kind == jast.KindClassDeclaration {
		for _, field := range jast.Fields(n) {
			for _, d := range jast.Declarators(field) {
				v.frames.define(d)
			}
		}
	}
	return true
}

func (v *referenceVisitor) LeaveFrame(n *jast.Node) { v.frames.leave(n) }

func (v *referenceVisitor) Visit(n *jast.Node) bool {
	if jast.IsDeclaration(n) {
		v.frames.define(n)
	}
	return true
}

func (v *referenceVisitor) EndVisit(n *jast.Node) {
	switch {
	case jast.IsVariableReference(n):
		v.frames.storeReferences(n, n)
	case n.Kind == jast.KindFieldAccess && v.qualifiedByTopType(n):
		if field := n.ChildByField("field"); field != nil {
			v.frames.storeReferences(field, field)
		}
	}
}

// qualifiedByTopType matches "Top.field" and "topInstance.field".
func (v *referenceVisitor) qualifiedByTopType(n *jast.Node) bool {
	if v.top == nil {
		return false
	}
	obj := n.ChildByField("object")
	if obj == nil || jast.IsThis(obj) {
		return false
	}
	b := jast.ResolveType(obj)
	return b != nil && b.Name == jast.TypeName(v.top)
}
